package prefill

import (
	"context"
	"errors"
	"sync"
	"testing"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	mu        sync.Mutex
	balances  map[string]int64
	transfers []int64
	// spend is subtracted from the account right after each transfer to
	// simulate a concurrent spender.
	spend       int64
	balanceErr  map[string]error
	transferErr error
}

func newFakeLedger(balances map[string]int64) *fakeLedger {
	return &fakeLedger{balances: balances, balanceErr: map[string]error{}}
}

func (f *fakeLedger) NativeBalance(ctx context.Context, accountID hedera.AccountID) (hedera.Hbar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.balanceErr[accountID.String()]; err != nil {
		return hedera.ZeroHbar, err
	}
	return hedera.HbarFromTinybar(f.balances[accountID.String()]), nil
}

func (f *fakeLedger) TransferNative(ctx context.Context, to hedera.AccountID, amount hedera.Hbar) (hedera.TransactionReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transferErr != nil {
		return hedera.TransactionReceipt{}, f.transferErr
	}
	f.transfers = append(f.transfers, amount.AsTinybar())
	f.balances[to.String()] += amount.AsTinybar() - f.spend
	return hedera.TransactionReceipt{Status: hedera.StatusSuccess}, nil
}

func (f *fakeLedger) transferCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transfers)
}

func hbar(t *testing.T, value string) hedera.Hbar {
	t.Helper()
	parsed, err := ParseHbar(value)
	require.NoError(t, err)
	return parsed
}

var account = hedera.AccountID{Account: 1001}

func TestPrefillTopsUpExactDeficit(t *testing.T) {
	ledger := newFakeLedger(map[string]int64{"0.0.1001": hbar(t, "40").AsTinybar()})
	prefiller := New(ledger, Options{})

	result, err := prefiller.ValidateAndPrefillBalance(context.Background(), account, hbar(t, "100"))
	require.NoError(t, err)

	assert.True(t, result.Transferred)
	assert.Equal(t, hbar(t, "60").AsTinybar(), result.TopUp.AsTinybar())
	assert.Equal(t, hbar(t, "40").AsTinybar(), result.Before.AsTinybar())
	assert.Equal(t, hbar(t, "100").AsTinybar(), result.After.AsTinybar())
	assert.Equal(t, hedera.StatusSuccess, result.Status)
	assert.Equal(t, []int64{hbar(t, "60").AsTinybar()}, ledger.transfers)
}

func TestPrefillIsIdempotent(t *testing.T) {
	ledger := newFakeLedger(map[string]int64{"0.0.1001": 123})
	prefiller := New(ledger, Options{})
	target := hbar(t, "100")

	first, err := prefiller.ValidateAndPrefillBalance(context.Background(), account, target)
	require.NoError(t, err)
	assert.True(t, first.Transferred)

	second, err := prefiller.ValidateAndPrefillBalance(context.Background(), account, target)
	require.NoError(t, err)
	assert.False(t, second.Transferred)
	assert.Equal(t, int64(0), second.TopUp.AsTinybar())
	assert.Equal(t, 1, ledger.transferCount())
}

func TestPrefillNoopAtOrAboveTarget(t *testing.T) {
	for _, balance := range []string{"100", "250.5"} {
		ledger := newFakeLedger(map[string]int64{"0.0.1001": hbar(t, balance).AsTinybar()})

		result, err := New(ledger, Options{}).ValidateAndPrefillBalance(context.Background(), account, hbar(t, "100"))
		require.NoError(t, err)
		assert.False(t, result.Transferred)
		assert.Equal(t, result.Before.AsTinybar(), result.After.AsTinybar())
		assert.Zero(t, ledger.transferCount())
	}
}

func TestPrefillRejectsNonPositiveTarget(t *testing.T) {
	ledger := newFakeLedger(map[string]int64{})
	prefiller := New(ledger, Options{})

	_, err := prefiller.ValidateAndPrefillBalance(context.Background(), account, hedera.ZeroHbar)
	assert.EqualError(t, err, "target balance must be positive")

	_, err = prefiller.ValidateAndPrefillBalance(context.Background(), account, hedera.HbarFromTinybar(-1))
	assert.Error(t, err)
}

func TestPrefillThresholdPolicy(t *testing.T) {
	ledger := newFakeLedger(map[string]int64{"0.0.1001": hbar(t, "60").AsTinybar()})
	prefiller := New(ledger, Options{Policy: PolicyBelowThreshold{Threshold: hbar(t, "50")}})

	result, err := prefiller.ValidateAndPrefillBalance(context.Background(), account, hbar(t, "100"))
	require.NoError(t, err)
	assert.False(t, result.Transferred, "balance above threshold must not be topped up")

	ledger.balances["0.0.1001"] = hbar(t, "10").AsTinybar()
	result, err = prefiller.ValidateAndPrefillBalance(context.Background(), account, hbar(t, "100"))
	require.NoError(t, err)
	assert.True(t, result.Transferred)
	assert.Equal(t, hbar(t, "90").AsTinybar(), result.TopUp.AsTinybar())
}

func TestPrefillThresholdAboveTargetRejected(t *testing.T) {
	prefiller := New(newFakeLedger(map[string]int64{}), Options{Policy: PolicyBelowThreshold{Threshold: hbar(t, "150")}})

	_, err := prefiller.ValidateAndPrefillBalance(context.Background(), account, hbar(t, "100"))
	assert.Error(t, err)
}

func TestPrefillReconcileReportsDrift(t *testing.T) {
	ledger := newFakeLedger(map[string]int64{"0.0.1001": 0})
	ledger.spend = 500
	prefiller := New(ledger, Options{Reconcile: true})

	result, err := prefiller.ValidateAndPrefillBalance(context.Background(), account, hbar(t, "1"))
	require.NoError(t, err)
	assert.Equal(t, int64(-500), result.Drift.AsTinybar())
	assert.Equal(t, hbar(t, "1").AsTinybar()-500, result.After.AsTinybar())
}

func TestPrefillPropagatesLedgerErrors(t *testing.T) {
	ledger := newFakeLedger(map[string]int64{"0.0.1001": 0})
	ledger.balanceErr["0.0.1001"] = errors.New("node unavailable")

	_, err := New(ledger, Options{}).ValidateAndPrefillBalance(context.Background(), account, hbar(t, "1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node unavailable")

	ledger = newFakeLedger(map[string]int64{"0.0.1001": 0})
	ledger.transferErr = errors.New("INSUFFICIENT_PAYER_BALANCE")
	result, err := New(ledger, Options{}).ValidateAndPrefillBalance(context.Background(), account, hbar(t, "1"))
	require.Error(t, err)
	assert.False(t, result.Transferred)
}

func TestPrefillAllContinuesPastFailures(t *testing.T) {
	ledger := newFakeLedger(map[string]int64{
		"0.0.1": 0,
		"0.0.2": hbar(t, "500").AsTinybar(),
		"0.0.3": 0,
	})
	ledger.balanceErr["0.0.2"] = errors.New("account deleted")

	ids := []hedera.AccountID{{Account: 1}, {Account: 2}, {Account: 3}}
	results, err := New(ledger, Options{}).PrefillAll(context.Background(), ids, hbar(t, "100"), 2)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "account deleted")
	require.Len(t, results, 3)
	assert.True(t, results[0].Transferred)
	assert.False(t, results[1].Transferred)
	assert.Equal(t, "0.0.2", results[1].AccountID.String())
	assert.ErrorContains(t, results[1].Err, "account deleted")
	assert.NoError(t, results[0].Err)
	assert.True(t, results[2].Transferred)
	assert.Equal(t, 2, ledger.transferCount())
}

func TestPrefillAllSucceeds(t *testing.T) {
	ledger := newFakeLedger(map[string]int64{"0.0.1": 0, "0.0.2": 0})
	ids := []hedera.AccountID{{Account: 1}, {Account: 2}}

	results, err := New(ledger, Options{}).PrefillAll(context.Background(), ids, hbar(t, "100"), 0)
	require.NoError(t, err)
	for _, result := range results {
		assert.Equal(t, hbar(t, "100").AsTinybar(), result.After.AsTinybar())
	}
}
