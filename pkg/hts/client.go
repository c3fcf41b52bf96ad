package hts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashgraph-online/ledger-harness-go/pkg/accounts"
	"github.com/hashgraph-online/ledger-harness-go/pkg/ledger"
	"github.com/hashgraph-online/ledger-harness-go/pkg/mirror"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// CreateToken submits a token creation paid for by the session operator.
func CreateToken(
	ctx context.Context,
	session *ledger.Session,
	params CreateTokenParams,
) (hedera.TransactionResponse, error) {
	operator, err := session.RequireOperator()
	if err != nil {
		return hedera.TransactionResponse{}, err
	}
	plan, err := PlanCreateToken(params, operator)
	if err != nil {
		return hedera.TransactionResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return hedera.TransactionResponse{}, err
	}

	response, err := plan.Transaction().Execute(session.Client())
	if err != nil {
		return hedera.TransactionResponse{}, ledger.Rejection("execute token create transaction", err)
	}

	logger := session.Logger()
	logger.Debug().
		Str("name", plan.Name).
		Str("symbol", plan.Symbol).
		Bool("mintable", plan.Mintable()).
		Str("transaction_id", response.TransactionID.String()).
		Msg("token create submitted")
	return response, nil
}

// CreateTokenAndWait creates a token and returns its ID from the receipt.
func CreateTokenAndWait(
	ctx context.Context,
	session *ledger.Session,
	params CreateTokenParams,
) (hedera.TokenID, error) {
	response, err := CreateToken(ctx, session, params)
	if err != nil {
		return hedera.TokenID{}, err
	}
	receipt, err := session.Receipt(ctx, response)
	if err != nil {
		return hedera.TokenID{}, err
	}
	if receipt.TokenID == nil {
		return hedera.TokenID{}, fmt.Errorf("token create receipt did not include a token ID")
	}
	return *receipt.TokenID, nil
}

// MintToken mints amount units, signing with supplyKey. A token without a
// supply key is rejected by the network, which surfaces at receipt time.
func MintToken(
	ctx context.Context,
	session *ledger.Session,
	tokenID hedera.TokenID,
	amount uint64,
	supplyKey hedera.PrivateKey,
) (hedera.TransactionResponse, error) {
	if _, err := session.RequireOperator(); err != nil {
		return hedera.TransactionResponse{}, err
	}
	transaction, err := BuildMintTx(tokenID, amount)
	if err != nil {
		return hedera.TransactionResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return hedera.TransactionResponse{}, err
	}

	frozen, err := transaction.FreezeWith(session.Client())
	if err != nil {
		return hedera.TransactionResponse{}, fmt.Errorf("failed to freeze token mint transaction: %w", err)
	}
	response, err := frozen.Sign(supplyKey).Execute(session.Client())
	if err != nil {
		return hedera.TransactionResponse{}, ledger.Rejection("execute token mint transaction", err)
	}
	return response, nil
}

// AssociateAccount associates the account with tokenID. The account pays for
// and signs the association through a session scoped to it.
func AssociateAccount(
	ctx context.Context,
	session *ledger.Session,
	account accounts.Credentials,
	tokenID hedera.TokenID,
) (hedera.TransactionResponse, error) {
	transaction, err := BuildAssociateTx(account.AccountID, tokenID)
	if err != nil {
		return hedera.TransactionResponse{}, err
	}

	scoped, err := session.WithOperator(account.AccountID, account.PrivateKey)
	if err != nil {
		return hedera.TransactionResponse{}, err
	}
	defer scoped.Close()

	if err := ctx.Err(); err != nil {
		return hedera.TransactionResponse{}, err
	}
	frozen, err := transaction.FreezeWith(scoped.Client())
	if err != nil {
		return hedera.TransactionResponse{}, fmt.Errorf("failed to freeze token associate transaction: %w", err)
	}
	response, err := frozen.Sign(account.PrivateKey).Execute(scoped.Client())
	if err != nil {
		return hedera.TransactionResponse{}, ledger.Rejection("execute token associate transaction", err)
	}
	return response, nil
}

// EnsureAssociated associates the account unless the mirror node already
// reports the relationship. The check and the association are not atomic.
func EnsureAssociated(
	ctx context.Context,
	session *ledger.Session,
	account accounts.Credentials,
	tokenID hedera.TokenID,
) (bool, error) {
	associated, err := IsAssociated(ctx, session.Mirror(), account.AccountID, tokenID)
	if err != nil {
		return false, err
	}
	if associated {
		return false, nil
	}

	response, err := AssociateAccount(ctx, session, account, tokenID)
	if err != nil {
		return false, err
	}
	if _, err := session.Receipt(ctx, response); err != nil {
		if ledger.HasStatus(err, hedera.StatusTokenAlreadyAssociatedToAccount) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsAssociated asks the mirror node whether the account holds a relationship
// with tokenID.
func IsAssociated(
	ctx context.Context,
	mirrorClient *mirror.Client,
	accountID hedera.AccountID,
	tokenID hedera.TokenID,
) (bool, error) {
	_, err := TokenBalance(ctx, mirrorClient, accountID, tokenID)
	if errors.Is(err, ErrNotAssociated) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TokenBalance returns the account's balance of tokenID in smallest units
// as indexed by the mirror node.
func TokenBalance(
	ctx context.Context,
	mirrorClient *mirror.Client,
	accountID hedera.AccountID,
	tokenID hedera.TokenID,
) (int64, error) {
	if mirrorClient == nil {
		return 0, fmt.Errorf("mirror client is required")
	}

	relationships, err := mirrorClient.GetAccountTokens(ctx, accountID.String(), tokenID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to fetch token relationships of %s: %w", accountID.String(), err)
	}
	for _, relationship := range relationships {
		if strings.TrimSpace(relationship.TokenID) == tokenID.String() {
			return relationship.Balance, nil
		}
	}
	return 0, fmt.Errorf("%w: %s has no relationship with %s", ErrNotAssociated, accountID.String(), tokenID.String())
}

// CreateTransferTokenTx builds a two-party transfer frozen with session and
// signed by the sender. When session has no operator the transaction is
// frozen with a fresh session scoped to the sender, who then pays the fee.
func CreateTransferTokenTx(
	ctx context.Context,
	session *ledger.Session,
	amount int64,
	tokenID hedera.TokenID,
	sender accounts.Credentials,
	receiverID hedera.AccountID,
) (*hedera.TransferTransaction, error) {
	transaction, err := BuildTransferTx(tokenID, sender.AccountID, receiverID, amount)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}

	freezeSession := session
	if _, ok := session.Operator(); !ok {
		scoped, err := session.WithOperator(sender.AccountID, sender.PrivateKey)
		if err != nil {
			return nil, err
		}
		defer scoped.Close()
		freezeSession = scoped
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frozen, err := transaction.FreezeWith(freezeSession.Client())
	if err != nil {
		return nil, fmt.Errorf("failed to freeze token transfer transaction: %w", err)
	}
	return frozen.Sign(sender.PrivateKey), nil
}

// TransferToken builds, signs and submits a two-party transfer paid for by
// the sender.
func TransferToken(
	ctx context.Context,
	session *ledger.Session,
	amount int64,
	tokenID hedera.TokenID,
	sender accounts.Credentials,
	receiverID hedera.AccountID,
) (hedera.TransactionResponse, error) {
	if session == nil {
		return hedera.TransactionResponse{}, fmt.Errorf("session is required")
	}
	scoped, err := session.WithOperator(sender.AccountID, sender.PrivateKey)
	if err != nil {
		return hedera.TransactionResponse{}, err
	}
	defer scoped.Close()

	transaction, err := CreateTransferTokenTx(ctx, scoped, amount, tokenID, sender, receiverID)
	if err != nil {
		return hedera.TransactionResponse{}, err
	}
	response, err := transaction.Execute(scoped.Client())
	if err != nil {
		return hedera.TransactionResponse{}, ledger.Rejection("execute token transfer transaction", err)
	}
	return response, nil
}

// CreateMultiPartyTransferTokenTx builds one transfer applying amounts[i] to
// parties[i], freezes it with the session and signs it once per debited
// party. Input shape is checked before anything else.
func CreateMultiPartyTransferTokenTx(
	ctx context.Context,
	session *ledger.Session,
	amounts []int64,
	tokenID hedera.TokenID,
	parties []accounts.Credentials,
) (MultiPartyTransfer, error) {
	if err := ValidateTransferShape(len(amounts), len(parties)); err != nil {
		return MultiPartyTransfer{}, err
	}
	if _, err := session.RequireOperator(); err != nil {
		return MultiPartyTransfer{}, err
	}

	accountIDs := make([]hedera.AccountID, len(parties))
	for index, party := range parties {
		accountIDs[index] = party.AccountID
	}
	transaction, err := BuildMultiPartyTransferTx(tokenID, amounts, accountIDs)
	if err != nil {
		return MultiPartyTransfer{}, err
	}
	if err := ctx.Err(); err != nil {
		return MultiPartyTransfer{}, err
	}

	frozen, err := transaction.FreezeWith(session.Client())
	if err != nil {
		return MultiPartyTransfer{}, fmt.Errorf("failed to freeze multi-party transfer transaction: %w", err)
	}

	signerIndexes := RequiredSigners(amounts)
	signers := make([]hedera.AccountID, 0, len(signerIndexes))
	for _, index := range signerIndexes {
		frozen = frozen.Sign(parties[index].PrivateKey)
		signers = append(signers, parties[index].AccountID)
	}

	return MultiPartyTransfer{Tx: frozen, Signers: signers}, nil
}
