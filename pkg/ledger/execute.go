package ledger

import (
	"context"
	"fmt"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// Receipt waits for the receipt of resp. A non-SUCCESS status is returned as
// a *RejectionError.
func (s *Session) Receipt(ctx context.Context, resp hedera.TransactionResponse) (hedera.TransactionReceipt, error) {
	if err := ctx.Err(); err != nil {
		return hedera.TransactionReceipt{}, err
	}

	receipt, err := resp.GetReceipt(s.client)
	if err != nil {
		return receipt, Rejection("get transaction receipt", err)
	}
	if receipt.Status != hedera.StatusSuccess {
		return receipt, &RejectionError{
			Operation: "transaction " + resp.TransactionID.String(),
			Status:    receipt.Status,
		}
	}
	return receipt, nil
}

// Record fetches the record of resp, which carries the HBAR transfer list
// including fees.
func (s *Session) Record(ctx context.Context, resp hedera.TransactionResponse) (hedera.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return hedera.TransactionRecord{}, err
	}

	record, err := resp.GetRecord(s.client)
	if err != nil {
		return record, Rejection("get transaction record", err)
	}
	return record, nil
}

// PaidFee reports whether accountID was debited HBAR in the record. Token
// transfers move no HBAR, so a debit there is the transaction fee.
func PaidFee(record hedera.TransactionRecord, accountID hedera.AccountID) bool {
	for _, transfer := range record.Transfers {
		if transfer.AccountID.String() == accountID.String() && transfer.Amount.AsTinybar() < 0 {
			return true
		}
	}
	return false
}

// BuildNativeTransferTx moves amount HBAR from one account to another.
func BuildNativeTransferTx(from hedera.AccountID, to hedera.AccountID, amount hedera.Hbar) (*hedera.TransferTransaction, error) {
	if amount.AsTinybar() <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive")
	}
	if from.String() == to.String() {
		return nil, fmt.Errorf("sender and receiver must differ")
	}

	return hedera.NewTransferTransaction().
		AddHbarTransfer(from, amount.Negated()).
		AddHbarTransfer(to, amount), nil
}

// TransferNative sends amount HBAR from the operator to `to` and waits for
// the receipt.
func (s *Session) TransferNative(ctx context.Context, to hedera.AccountID, amount hedera.Hbar) (hedera.TransactionReceipt, error) {
	operator, err := s.RequireOperator()
	if err != nil {
		return hedera.TransactionReceipt{}, err
	}

	transaction, err := BuildNativeTransferTx(operator.AccountID, to, amount)
	if err != nil {
		return hedera.TransactionReceipt{}, err
	}
	if err := ctx.Err(); err != nil {
		return hedera.TransactionReceipt{}, err
	}

	response, err := transaction.Execute(s.client)
	if err != nil {
		return hedera.TransactionReceipt{}, Rejection("execute hbar transfer", err)
	}

	s.logger.Debug().
		Str("to", to.String()).
		Str("amount", amount.String()).
		Str("transaction_id", response.TransactionID.String()).
		Msg("hbar transfer submitted")

	return s.Receipt(ctx, response)
}
