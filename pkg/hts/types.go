package hts

import (
	"errors"
	"fmt"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

var (
	// ErrMalformedTransfer matches every *MalformedTransferError.
	ErrMalformedTransfer = errors.New("malformed multi-party transfer")

	// ErrNotAssociated is returned by balance lookups for an account that has
	// no relationship with the token.
	ErrNotAssociated = errors.New("account is not associated with token")
)

// CreateTokenParams describes a fungible token to create. InitialSupply is
// expressed in the token's smallest unit; nil leaves the supply at zero.
type CreateTokenParams struct {
	Name          string
	Symbol        string
	Decimals      uint
	Mintable      bool
	InitialSupply *uint64
	Memo          string
}

// CreateTokenPlan is the fully resolved token creation: every field the
// transaction will carry, derived from the params and the operator.
type CreateTokenPlan struct {
	Name          string
	Symbol        string
	Decimals      uint
	InitialSupply uint64
	Treasury      hedera.AccountID
	AdminKey      hedera.PublicKey
	SupplyKey     *hedera.PublicKey
	Memo          string
}

// Mintable reports whether the plan installs a supply key.
func (p CreateTokenPlan) Mintable() bool {
	return p.SupplyKey != nil
}

// MultiPartyTransfer is a frozen token transfer carrying one signature per
// debited account. Signers lists those accounts in input order.
type MultiPartyTransfer struct {
	Tx      *hedera.TransferTransaction
	Signers []hedera.AccountID
}

// MalformedTransferError reports mismatched or too short transfer inputs.
type MalformedTransferError struct {
	Amounts  int
	Accounts int
}

func (e *MalformedTransferError) Error() string {
	if e.Amounts != e.Accounts {
		return fmt.Sprintf(
			"malformed multi-party transfer: %d amounts for %d accounts",
			e.Amounts,
			e.Accounts,
		)
	}
	return fmt.Sprintf("malformed multi-party transfer: at least 2 accounts are required, got %d", e.Accounts)
}

func (e *MalformedTransferError) Is(target error) bool {
	return target == ErrMalformedTransfer
}
