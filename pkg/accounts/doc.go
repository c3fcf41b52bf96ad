// Package accounts loads the static list of pre-provisioned test accounts the
// harness scenarios run against.
package accounts
