// Package mirror is a small Hedera mirror node REST client. The harness uses
// it for read paths the consensus nodes no longer serve directly: token
// relationships and balances per account, token metadata, topic message
// history, and the transfer list of a settled transaction.
//
// Mirror data is eventually consistent; callers that just submitted a
// transaction poll until the mirror node has indexed it.
package mirror
