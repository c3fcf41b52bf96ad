// Package prefill tops test accounts up to a target HBAR balance from a
// funding account. Repeating a prefill with no spend in between performs no
// transfer.
package prefill
