package hts

import (
	"fmt"
	"math"
	"strings"

	"github.com/hashgraph-online/ledger-harness-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/shopspring/decimal"
)

// PlanCreateToken resolves params against the operator: the operator account
// is the treasury, its public key the admin key, and also the supply key when
// the token is mintable.
func PlanCreateToken(params CreateTokenParams, operator ledger.Operator) (CreateTokenPlan, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return CreateTokenPlan{}, fmt.Errorf("token name is required")
	}
	symbol := strings.TrimSpace(params.Symbol)
	if symbol == "" {
		return CreateTokenPlan{}, fmt.Errorf("token symbol is required")
	}

	publicKey := operator.PublicKey()
	plan := CreateTokenPlan{
		Name:     name,
		Symbol:   symbol,
		Decimals: params.Decimals,
		Treasury: operator.AccountID,
		AdminKey: publicKey,
		Memo:     strings.TrimSpace(params.Memo),
	}
	if params.InitialSupply != nil {
		plan.InitialSupply = *params.InitialSupply
	}
	if params.Mintable {
		supplyKey := publicKey
		plan.SupplyKey = &supplyKey
	}
	return plan, nil
}

// Transaction builds the token create transaction described by the plan.
func (p CreateTokenPlan) Transaction() *hedera.TokenCreateTransaction {
	transaction := hedera.NewTokenCreateTransaction().
		SetTokenName(p.Name).
		SetTokenSymbol(p.Symbol).
		SetDecimals(p.Decimals).
		SetTreasuryAccountID(p.Treasury).
		SetAdminKey(p.AdminKey)

	if p.InitialSupply > 0 {
		transaction.SetInitialSupply(p.InitialSupply)
	}
	if p.SupplyKey != nil {
		transaction.SetSupplyKey(*p.SupplyKey)
	}
	if p.Memo != "" {
		transaction.SetTokenMemo(p.Memo)
	}
	return transaction
}

func BuildMintTx(tokenID hedera.TokenID, amount uint64) (*hedera.TokenMintTransaction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("mint amount must be positive")
	}
	return hedera.NewTokenMintTransaction().
		SetTokenID(tokenID).
		SetAmount(amount), nil
}

func BuildAssociateTx(accountID hedera.AccountID, tokenIDs ...hedera.TokenID) (*hedera.TokenAssociateTransaction, error) {
	if len(tokenIDs) == 0 {
		return nil, fmt.Errorf("at least one token ID is required")
	}
	return hedera.NewTokenAssociateTransaction().
		SetAccountID(accountID).
		SetTokenIDs(tokenIDs...), nil
}

// BuildTransferTx debits from by amount and credits to by the same amount.
func BuildTransferTx(
	tokenID hedera.TokenID,
	from hedera.AccountID,
	to hedera.AccountID,
	amount int64,
) (*hedera.TransferTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive")
	}
	if from.String() == to.String() {
		return nil, fmt.Errorf("sender and receiver must differ")
	}

	return hedera.NewTransferTransaction().
		AddTokenTransfer(tokenID, from, -amount).
		AddTokenTransfer(tokenID, to, amount), nil
}

// ValidateTransferShape checks the input lengths of a multi-party transfer.
func ValidateTransferShape(amounts int, accounts int) error {
	if amounts != accounts || accounts < 2 {
		return &MalformedTransferError{Amounts: amounts, Accounts: accounts}
	}
	return nil
}

// BuildMultiPartyTransferTx applies amounts[i] to accountIDs[i] in a single
// transfer. Balancing is left to the network.
func BuildMultiPartyTransferTx(
	tokenID hedera.TokenID,
	amounts []int64,
	accountIDs []hedera.AccountID,
) (*hedera.TransferTransaction, error) {
	if err := ValidateTransferShape(len(amounts), len(accountIDs)); err != nil {
		return nil, err
	}

	transaction := hedera.NewTransferTransaction()
	for index, amount := range amounts {
		transaction.AddTokenTransfer(tokenID, accountIDs[index], amount)
	}
	return transaction, nil
}

// RequiredSigners returns the indices of strictly negative deltas, in order.
func RequiredSigners(amounts []int64) []int {
	signers := make([]int, 0, len(amounts))
	for index, amount := range amounts {
		if amount < 0 {
			signers = append(signers, index)
		}
	}
	return signers
}

// NetDelta sums the deltas of a transfer. A balanced transfer nets to zero.
func NetDelta(amounts []int64) int64 {
	var total int64
	for _, amount := range amounts {
		total += amount
	}
	return total
}

// FormatAmount renders an amount in smallest units as a decimal string,
// e.g. 12345 with 2 decimals is "123.45".
func FormatAmount(amount int64, decimals uint) string {
	return decimal.New(amount, -int32(decimals)).StringFixed(int32(decimals))
}

// ParseAmount converts a decimal string into smallest units. More fractional
// digits than the token supports is an error.
func ParseAmount(value string, decimals uint) (int64, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid token amount %q: %w", value, err)
	}
	scaled := parsed.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("token amount %q has more than %d decimals", value, decimals)
	}
	if scaled.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("token amount %q is out of range", value)
	}
	return scaled.IntPart(), nil
}
