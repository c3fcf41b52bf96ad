// Package ledger holds the explicit session every harness operation runs in:
// the target network, the SDK client, an optional paying operator and a
// mirror node client. A session is passed to each operation instead of being
// installed globally, and switching operator yields a new session.
//
// The package also classifies network rejections (RejectionError, HasStatus)
// and exposes the queries and receipt helpers shared by the token, topic and
// prefill packages.
package ledger
