// Package steps holds the godog step definitions for the token service and
// topic features under features/.
//
// Scenario accounts come from an accounts.Book: index 0 is the token
// treasury and the first topic account, indexes 1 to 4 are the first to
// fourth token accounts. Token balances are read from the mirror node and
// polled until they settle.
//
// The suite runs against a live network:
//
//	RUN_INTEGRATION=1 HARNESS_ACCOUNTS_FILE=accounts.yaml go test ./pkg/steps
package steps
