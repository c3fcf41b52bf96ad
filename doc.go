// Package ledgerharness is a behaviour test harness for the Hedera token
// and consensus services.
//
// # Packages
//
//   - pkg/ledger: the explicit network session, receipts and queries
//   - pkg/hts: token creation, minting, association and multi-party transfers
//   - pkg/hcs: topics, threshold submit keys and message subscriptions
//   - pkg/prefill: topping test accounts up to a target HBAR balance
//   - pkg/accounts: the static account book used by scenarios
//   - pkg/mirror: a mirror node REST client
//   - pkg/steps: godog step definitions and feature files
//
// The cmd/prefill-balance command funds the account book before a run.
//
// # Configuration
//
// Operator and funding credentials are read from the environment or a .env
// file (HEDERA_ACCOUNT_ID, HEDERA_PRIVATE_KEY, MY_ACCOUNT_ID, MY_PRIVATE_KEY,
// HEDERA_NETWORK). Scenario accounts are read from HARNESS_ACCOUNTS_FILE,
// accounts.yaml by default.
package ledgerharness
