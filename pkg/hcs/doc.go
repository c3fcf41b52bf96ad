// Package hcs builds Hedera Consensus Service topics and messages and wraps
// the SDK's push subscription as a cancellable message stream.
//
// Submit keys are either a single public key (the operator's by default) or
// an M-of-N ThresholdKey. Message payloads may be brotli compressed; the
// same Codec must be used when subscribing or reading History.
package hcs
