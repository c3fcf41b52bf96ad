package ledger

import (
	"errors"
	"fmt"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// ErrNoOperator is returned before any network call when an operation needs
// a paying operator and the session has none.
var ErrNoOperator = errors.New("session has no operator")

// RejectionError reports a transaction the network refused, either at
// precheck or in its receipt.
type RejectionError struct {
	Operation string
	Status    hedera.Status
	Err       error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s rejected by network: %s", e.Operation, e.Status.String())
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// Rejection wraps err in a RejectionError when it carries a network status.
// Other errors are wrapped as plain failures of operation.
func Rejection(operation string, err error) error {
	if err == nil {
		return nil
	}

	var existing *RejectionError
	if errors.As(err, &existing) {
		return err
	}

	if status, ok := statusOf(err); ok {
		return &RejectionError{Operation: operation, Status: status, Err: err}
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// HasStatus reports whether err was caused by the network answering status.
func HasStatus(err error, status hedera.Status) bool {
	found, ok := statusOf(err)
	return ok && found == status
}

func statusOf(err error) (hedera.Status, bool) {
	if err == nil {
		return hedera.StatusOk, false
	}

	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Status, true
	}

	var receiptErr hedera.ErrHederaReceiptStatus
	if errors.As(err, &receiptErr) {
		return receiptErr.Status, true
	}

	var precheckErr hedera.ErrHederaPreCheckStatus
	if errors.As(err, &precheckErr) {
		return precheckErr.Status, true
	}

	return hedera.StatusOk, false
}
