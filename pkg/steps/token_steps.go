package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
	"github.com/hashgraph-online/ledger-harness-go/pkg/accounts"
	"github.com/hashgraph-online/ledger-harness-go/pkg/hts"
	"github.com/hashgraph-online/ledger-harness-go/pkg/ledger"
	"github.com/hashgraph-online/ledger-harness-go/pkg/mirror"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const (
	tokenName     = "Test Token"
	tokenSymbol   = "HTT"
	tokenDecimals = 2
)

// tokenParty maps the ordinal used by token scenarios to a book index.
// Index 0 is the treasury, so "first" is index 1.
func tokenParty(ordinal string) (int, error) {
	switch strings.ToLower(ordinal) {
	case "first":
		return 1, nil
	case "second":
		return 2, nil
	case "third":
		return 3, nil
	case "fourth":
		return 4, nil
	default:
		return 0, fmt.Errorf("unknown account %q", ordinal)
	}
}

func registerTokenSteps(sc *godog.ScenarioContext, w *world) {
	sc.Step(`^A Hedera account with more than (\d+) hbar$`, w.treasuryWithBalance)
	sc.Step(`^I create a token named Test Token \(HTT\)$`, w.createMintableToken)
	sc.Step(`^The token has the name "([^"]*)"$`, w.tokenHasName)
	sc.Step(`^The token has the symbol "([^"]*)"$`, w.tokenHasSymbol)
	sc.Step(`^The token has (\d+) decimals$`, w.tokenHasDecimals)
	sc.Step(`^The token is owned by the account$`, w.tokenOwnedByTreasury)
	sc.Step(`^An attempt to mint (\d+) additional tokens succeeds$`, w.mintSucceeds)
	sc.Step(`^I create a fixed supply token named Test Token \(HTT\) with (\d+) tokens$`, w.createFixedSupplyToken)
	sc.Step(`^The total supply of the token is (\d+)$`, w.totalSupplyIs)
	sc.Step(`^An attempt to mint tokens fails$`, w.mintFails)

	sc.Step(`^A first hedera account with more than (\d+) hbar$`, w.firstAccountWithBalance)
	sc.Step(`^A second Hedera account$`, w.secondAccount)
	sc.Step(`^A token named Test Token \(HTT\) with (\d+) tokens$`, w.createTokenWithSupply)
	sc.Step(`^The (first|second|third|fourth) account holds (\d+) HTT tokens$`, w.accountHolds)
	sc.Step(`^The first account creates a transaction to transfer (\d+) HTT tokens to the second account$`, w.firstCreatesTransfer)
	sc.Step(`^The second account creates a transaction to transfer (\d+) HTT tokens to the first account$`, w.secondCreatesTransfer)
	sc.Step(`^The first account submits the transaction$`, w.firstSubmits)
	sc.Step(`^The first account has paid for the transaction fee$`, w.firstPaidFee)

	sc.Step(`^A first hedera account with more than (\d+) hbar and (\d+) HTT tokens$`, w.firstFundedAccount)
	sc.Step(`^A (second|third|fourth) Hedera account with (\d+) hbar and (\d+) HTT tokens$`, w.fundedAccount)
	sc.Step(`^A transaction is created to transfer (\d+) HTT tokens out of the first and second account and (\d+) HTT tokens into the third account and (\d+) HTT tokens into the fourth account$`, w.createMultiPartyTransfer)
}

func (w *world) treasuryWithBalance(ctx context.Context, hbars int64) error {
	ctx, cancel := w.step(ctx)
	defer cancel()
	return w.expectHbar(ctx, 0, hbars, true)
}

func (w *world) createToken(ctx context.Context, mintable bool, supply *uint64) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	treasury, err := w.session(0)
	if err != nil {
		return err
	}
	tokenID, err := hts.CreateTokenAndWait(ctx, treasury, hts.CreateTokenParams{
		Name:          tokenName,
		Symbol:        tokenSymbol,
		Decimals:      tokenDecimals,
		Mintable:      mintable,
		InitialSupply: supply,
		Memo:          "harness run " + w.runID,
	})
	if err != nil {
		return err
	}
	w.tokenID = &tokenID
	w.logger.Info().Str("token_id", tokenID.String()).Bool("mintable", mintable).Msg("token created")
	return nil
}

func (w *world) createMintableToken(ctx context.Context) error {
	return w.createToken(ctx, true, nil)
}

func (w *world) createFixedSupplyToken(ctx context.Context, supply uint64) error {
	return w.createToken(ctx, false, &supply)
}

func (w *world) createTokenWithSupply(ctx context.Context, supply uint64) error {
	return w.createToken(ctx, true, &supply)
}

func (w *world) tokenInfo(ctx context.Context) (ledger.TokenInfo, error) {
	tokenID, err := w.requireToken()
	if err != nil {
		return ledger.TokenInfo{}, err
	}
	treasury, err := w.session(0)
	if err != nil {
		return ledger.TokenInfo{}, err
	}
	return treasury.TokenInfo(ctx, tokenID)
}

func (w *world) tokenHasName(ctx context.Context, name string) error {
	ctx, cancel := w.step(ctx)
	defer cancel()
	info, err := w.tokenInfo(ctx)
	if err != nil {
		return err
	}
	if info.Name != name {
		return fmt.Errorf("token name is %q, expected %q", info.Name, name)
	}
	return w.mirrorTokenAgrees(ctx, func(indexed mirror.TokenInfo) error {
		if indexed.Name != name {
			return fmt.Errorf("mirror token name is %q, expected %q", indexed.Name, name)
		}
		return nil
	})
}

func (w *world) tokenHasSymbol(ctx context.Context, symbol string) error {
	ctx, cancel := w.step(ctx)
	defer cancel()
	info, err := w.tokenInfo(ctx)
	if err != nil {
		return err
	}
	if info.Symbol != symbol {
		return fmt.Errorf("token symbol is %q, expected %q", info.Symbol, symbol)
	}
	return w.mirrorTokenAgrees(ctx, func(indexed mirror.TokenInfo) error {
		if indexed.Symbol != symbol {
			return fmt.Errorf("mirror token symbol is %q, expected %q", indexed.Symbol, symbol)
		}
		return nil
	})
}

func (w *world) tokenHasDecimals(ctx context.Context, decimals uint32) error {
	ctx, cancel := w.step(ctx)
	defer cancel()
	info, err := w.tokenInfo(ctx)
	if err != nil {
		return err
	}
	if info.Decimals != decimals {
		return fmt.Errorf("token has %d decimals, expected %d", info.Decimals, decimals)
	}
	expected := strconv.FormatUint(uint64(decimals), 10)
	return w.mirrorTokenAgrees(ctx, func(indexed mirror.TokenInfo) error {
		if indexed.Decimals != expected {
			return fmt.Errorf("mirror token has %s decimals, expected %s", indexed.Decimals, expected)
		}
		return nil
	})
}

func (w *world) tokenOwnedByTreasury(ctx context.Context) error {
	ctx, cancel := w.step(ctx)
	defer cancel()
	info, err := w.tokenInfo(ctx)
	if err != nil {
		return err
	}
	treasury, err := w.credentials(0)
	if err != nil {
		return err
	}
	if info.Treasury.String() != treasury.AccountID.String() {
		return fmt.Errorf("token treasury is %s, expected %s", info.Treasury.String(), treasury.AccountID.String())
	}
	return nil
}

func (w *world) mintSucceeds(ctx context.Context, amount uint64) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	before, err := w.tokenInfo(ctx)
	if err != nil {
		return err
	}
	treasury, err := w.session(0)
	if err != nil {
		return err
	}
	operator, _ := treasury.Operator()

	response, err := hts.MintToken(ctx, treasury, before.TokenID, amount, operator.PrivateKey)
	if err != nil {
		return err
	}
	if _, err := treasury.Receipt(ctx, response); err != nil {
		return fmt.Errorf("minting failed: %w", err)
	}

	after, err := w.tokenInfo(ctx)
	if err != nil {
		return err
	}
	if after.TotalSupply != before.TotalSupply+amount {
		return fmt.Errorf("total supply is %d after minting %d onto %d", after.TotalSupply, amount, before.TotalSupply)
	}
	return nil
}

func (w *world) totalSupplyIs(ctx context.Context, supply uint64) error {
	ctx, cancel := w.step(ctx)
	defer cancel()
	info, err := w.tokenInfo(ctx)
	if err != nil {
		return err
	}
	if info.TotalSupply != supply {
		return fmt.Errorf("total supply is %d, expected %d", info.TotalSupply, supply)
	}
	return nil
}

func (w *world) mintFails(ctx context.Context) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	tokenID, err := w.requireToken()
	if err != nil {
		return err
	}
	treasury, err := w.session(0)
	if err != nil {
		return err
	}
	operator, _ := treasury.Operator()

	response, err := hts.MintToken(ctx, treasury, tokenID, 1, operator.PrivateKey)
	if err == nil {
		_, err = treasury.Receipt(ctx, response)
	}
	if err == nil {
		return fmt.Errorf("expected minting %s to fail", tokenID.String())
	}
	if !ledger.HasStatus(err, hedera.StatusTokenHasNoSupplyKey) {
		return fmt.Errorf("expected mint to fail with %s: %w", hedera.StatusTokenHasNoSupplyKey.String(), err)
	}
	return nil
}

func (w *world) firstAccountWithBalance(ctx context.Context, hbars int64) error {
	ctx, cancel := w.step(ctx)
	defer cancel()
	return w.expectHbar(ctx, 1, hbars, true)
}

func (w *world) secondAccount(ctx context.Context) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	session, err := w.session(2)
	if err != nil {
		return err
	}
	operator, err := session.RequireOperator()
	if err != nil {
		return fmt.Errorf("unable to set second account: %w", err)
	}
	return w.mirrorAccountExists(ctx, operator.AccountID)
}

// accountHolds arranges the balance when it appears before any action step
// and only asserts it afterwards.
func (w *world) accountHolds(ctx context.Context, ordinal string, amount int64) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	index, err := tokenParty(ordinal)
	if err != nil {
		return err
	}
	creds, err := w.credentials(index)
	if err != nil {
		return err
	}

	if !w.acted && !w.seeded[index] {
		tokenID, err := w.requireToken()
		if err != nil {
			return err
		}
		current, err := w.tokenBalance(ctx, creds.AccountID, tokenID)
		if err != nil {
			return err
		}
		if current > amount {
			return fmt.Errorf("account %s already holds %d units, more than %d", creds.AccountID.String(), current, amount)
		}
		if err := w.fundTokens(ctx, index, amount-current); err != nil {
			return err
		}
		w.seeded[index] = true
	}

	return w.waitForTokenBalance(ctx, creds.AccountID, amount)
}

func (w *world) createTransfer(
	ctx context.Context,
	session *ledger.Session,
	amount int64,
	sender accounts.Credentials,
	receiverID hedera.AccountID,
) error {
	tokenID, err := w.requireToken()
	if err != nil {
		return err
	}
	transaction, err := hts.CreateTransferTokenTx(ctx, session, amount, tokenID, sender, receiverID)
	if err != nil {
		return fmt.Errorf("token transfer transaction could not be created: %w", err)
	}
	w.pending = transaction
	w.acted = true
	return nil
}

func (w *world) firstCreatesTransfer(ctx context.Context, amount int64) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	sender, err := w.credentials(1)
	if err != nil {
		return err
	}
	receiver, err := w.credentials(2)
	if err != nil {
		return err
	}
	// The operator-less base session makes the sender pay.
	return w.createTransfer(ctx, w.harness.base, amount, sender, receiver.AccountID)
}

func (w *world) secondCreatesTransfer(ctx context.Context, amount int64) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	sender, err := w.credentials(2)
	if err != nil {
		return err
	}
	receiver, err := w.credentials(1)
	if err != nil {
		return err
	}
	payer, err := w.session(1)
	if err != nil {
		return err
	}
	return w.createTransfer(ctx, payer, amount, sender, receiver.AccountID)
}

func (w *world) firstSubmits(ctx context.Context) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	if w.pending == nil {
		return fmt.Errorf("no transaction was created in this scenario")
	}
	session, err := w.session(1)
	if err != nil {
		return err
	}

	response, err := w.pending.Execute(session.Client())
	if err != nil {
		return ledger.Rejection("submit token transfer transaction", err)
	}
	if _, err := session.Receipt(ctx, response); err != nil {
		return fmt.Errorf("unable to submit token transfer transaction: %w", err)
	}
	w.executed = &response
	w.pending = nil
	w.logger.Info().Str("transaction_id", response.TransactionID.String()).Msg("transfer submitted")
	return nil
}

func (w *world) firstPaidFee(ctx context.Context) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	if w.executed == nil {
		return fmt.Errorf("no transaction was submitted in this scenario")
	}
	session, err := w.session(1)
	if err != nil {
		return err
	}
	operator, _ := session.Operator()

	record, err := session.Record(ctx, *w.executed)
	if err != nil {
		return err
	}
	if !ledger.PaidFee(record, operator.AccountID) {
		return fmt.Errorf("account %s did not pay the transaction fee", operator.AccountID.String())
	}
	return w.mirrorConfirmsPayer(ctx, w.executed.TransactionID.String(), operator.AccountID)
}

// prepareFunded associates account index, checks its HBAR balance and
// funds it with tokens from the treasury.
func (w *world) prepareFunded(ctx context.Context, index int, hbars int64, strict bool, tokens int64) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	if err := w.expectHbar(ctx, index, hbars, strict); err != nil {
		return err
	}
	if err := w.fundTokens(ctx, index, tokens); err != nil {
		return err
	}
	w.seeded[index] = true

	creds, err := w.credentials(index)
	if err != nil {
		return err
	}
	return w.waitForTokenBalance(ctx, creds.AccountID, tokens)
}

func (w *world) firstFundedAccount(ctx context.Context, hbars int64, tokens int64) error {
	return w.prepareFunded(ctx, 1, hbars, true, tokens)
}

func (w *world) fundedAccount(ctx context.Context, ordinal string, hbars int64, tokens int64) error {
	index, err := tokenParty(ordinal)
	if err != nil {
		return err
	}
	return w.prepareFunded(ctx, index, hbars, false, tokens)
}

func (w *world) createMultiPartyTransfer(ctx context.Context, debit int64, toThird int64, toFourth int64) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	tokenID, err := w.requireToken()
	if err != nil {
		return err
	}
	parties, err := w.harness.book.CredentialsRange(1, 4)
	if err != nil {
		return err
	}
	payer, err := w.session(1)
	if err != nil {
		return err
	}

	amounts := []int64{-debit, -debit, toThird, toFourth}
	transfer, err := hts.CreateMultiPartyTransferTokenTx(ctx, payer, amounts, tokenID, parties)
	if err != nil {
		return fmt.Errorf("multi-party token transfer transaction could not be created: %w", err)
	}
	if net := hts.NetDelta(amounts); net != 0 {
		w.logger.Warn().Int64("net_delta", net).Msg("multi-party transfer does not balance")
	}

	w.pending = transfer.Tx
	w.acted = true
	w.logger.Debug().Int("signers", len(transfer.Signers)).Msg("multi-party transfer created")
	return nil
}
