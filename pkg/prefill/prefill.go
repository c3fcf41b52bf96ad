package prefill

import (
	"context"
	"errors"
	"fmt"
	"sync"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// Ledger is the subset of a ledger session the prefiller needs. The
// session's operator is the funding account.
type Ledger interface {
	NativeBalance(ctx context.Context, accountID hedera.AccountID) (hedera.Hbar, error)
	TransferNative(ctx context.Context, to hedera.AccountID, amount hedera.Hbar) (hedera.TransactionReceipt, error)
}

type Options struct {
	Policy Policy
	// Reconcile re-reads the balance after a transfer instead of assuming
	// Before + TopUp.
	Reconcile bool
	Logger    *zerolog.Logger
}

type Result struct {
	AccountID   hedera.AccountID
	Before      hedera.Hbar
	After       hedera.Hbar
	TopUp       hedera.Hbar
	Transferred bool
	Status      hedera.Status
	// Drift is After minus the expected balance. Non-zero only when
	// Reconcile is set and the balance moved concurrently.
	Drift hedera.Hbar
	// Err is set by PrefillAll for accounts that failed.
	Err error
}

type Prefiller struct {
	ledger    Ledger
	policy    Policy
	reconcile bool
	logger    zerolog.Logger
}

func New(ledger Ledger, options Options) *Prefiller {
	policy := options.Policy
	if policy == nil {
		policy = PolicyExactTarget{}
	}
	logger := zerolog.Nop()
	if options.Logger != nil {
		logger = *options.Logger
	}
	return &Prefiller{
		ledger:    ledger,
		policy:    policy,
		reconcile: options.Reconcile,
		logger:    logger,
	}
}

// ValidateAndPrefillBalance tops accountID up to target according to the
// policy. The balance read and the transfer are not atomic: a concurrent
// spend between them leaves the account off target, which Reconcile
// surfaces as Drift.
func (p *Prefiller) ValidateAndPrefillBalance(
	ctx context.Context,
	accountID hedera.AccountID,
	target hedera.Hbar,
) (Result, error) {
	if target.AsTinybar() <= 0 {
		return Result{}, fmt.Errorf("target balance must be positive")
	}
	if err := p.policy.Validate(target); err != nil {
		return Result{}, err
	}

	logger := p.logger.With().Str("account_id", accountID.String()).Logger()

	before, err := p.ledger.NativeBalance(ctx, accountID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to query balance of %s: %w", accountID.String(), err)
	}
	result := Result{
		AccountID: accountID,
		Before:    before,
		After:     before,
		TopUp:     hedera.ZeroHbar,
		Drift:     hedera.ZeroHbar,
	}

	topUp := p.policy.TopUp(before, target)
	if topUp.AsTinybar() <= 0 {
		logger.Info().
			Str("balance", FormatHbar(before)).
			Str("target", FormatHbar(target)).
			Msg("amount need not be prefilled")
		return result, nil
	}

	receipt, err := p.ledger.TransferNative(ctx, accountID, topUp)
	if err != nil {
		return result, fmt.Errorf("failed to top up %s: %w", accountID.String(), err)
	}

	expected := hedera.HbarFromTinybar(before.AsTinybar() + topUp.AsTinybar())
	result.TopUp = topUp
	result.Transferred = true
	result.Status = receipt.Status
	result.After = expected

	if p.reconcile {
		after, err := p.ledger.NativeBalance(ctx, accountID)
		if err != nil {
			return result, fmt.Errorf("failed to reconcile balance of %s: %w", accountID.String(), err)
		}
		result.After = after
		result.Drift = hedera.HbarFromTinybar(after.AsTinybar() - expected.AsTinybar())
		if result.Drift.AsTinybar() != 0 {
			logger.Warn().
				Str("expected", FormatHbar(expected)).
				Str("actual", FormatHbar(after)).
				Msg("balance drifted during prefill")
		}
	}

	logger.Info().
		Str("status", receipt.Status.String()).
		Str("deficit", FormatHbar(topUp)).
		Str("balance", FormatHbar(result.After)).
		Msg("refilled")
	return result, nil
}

// PrefillAll prefills every account with at most concurrency transfers in
// flight. A failing account does not stop the others; all failures are
// joined into the returned error and recorded on the matching results.
func (p *Prefiller) PrefillAll(
	ctx context.Context,
	accountIDs []hedera.AccountID,
	target hedera.Hbar,
	concurrency int,
) ([]Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result, len(accountIDs))
	var (
		mu       sync.Mutex
		failures []error
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for index, accountID := range accountIDs {
		index, accountID := index, accountID
		group.Go(func() error {
			result, err := p.ValidateAndPrefillBalance(groupCtx, accountID, target)
			if err != nil {
				p.logger.Error().Err(err).Str("account_id", accountID.String()).Msg("prefill failed")
				result.AccountID = accountID
				result.Err = err
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			results[index] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return results, err
	}
	return results, errors.Join(failures...)
}
