// Package shared provides the ambient plumbing used by every harness package:
// network normalization, Hedera client construction, operator and funding
// account loading from the environment, private key parsing, and logger setup.
//
// # Environment Variables
//
// Operator credentials are read from HEDERA_ACCOUNT_ID / HEDERA_PRIVATE_KEY
// (with OPERATOR_ID / OPERATOR_KEY and network scoped TESTNET_*, MAINNET_*,
// PREVIEWNET_* variants). The funding account used for balance top-ups is read
// from MY_ACCOUNT_ID / MY_PRIVATE_KEY and falls back to the operator. A .env
// file found in the working directory or any parent is loaded once without
// overriding variables that are already set.
package shared
