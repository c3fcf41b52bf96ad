package steps

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hashgraph-online/ledger-harness-go/pkg/accounts"
	"github.com/hashgraph-online/ledger-harness-go/pkg/hcs"
	"github.com/hashgraph-online/ledger-harness-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBook(t *testing.T, size int) *accounts.Book {
	t.Helper()
	book := &accounts.Book{}
	for index := 0; index < size; index++ {
		key, err := hedera.PrivateKeyGenerateEd25519()
		require.NoError(t, err)
		book.Accounts = append(book.Accounts, accounts.Account{
			ID:         fmt.Sprintf("0.0.%d", 2000+index),
			PrivateKey: key.StringRaw(),
			KeyType:    "ed25519",
		})
	}
	require.NoError(t, accounts.Validate(book))
	return book
}

func newTestHarness(t *testing.T, size int) *Harness {
	t.Helper()
	session, err := ledger.NewSession(ledger.SessionConfig{Network: "testnet"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	harness, err := NewHarness(Config{Book: newBook(t, size), Session: session, Out: &bytes.Buffer{}})
	require.NoError(t, err)
	return harness
}

func TestNewHarnessValidation(t *testing.T) {
	session, err := ledger.NewSession(ledger.SessionConfig{Network: "testnet"})
	require.NoError(t, err)
	defer session.Close()

	_, err = NewHarness(Config{Session: session})
	assert.EqualError(t, err, "account book is required")

	_, err = NewHarness(Config{Book: newBook(t, 1)})
	assert.EqualError(t, err, "session is required")

	_, err = NewHarness(Config{Book: newBook(t, 1), Session: session, TopicCodec: "gzip"})
	assert.EqualError(t, err, `unsupported message codec "gzip"`)
}

func TestNewHarnessDefaults(t *testing.T) {
	harness := newTestHarness(t, 1)

	assert.Equal(t, DefaultStepTimeout, harness.stepTimeout)
	assert.Equal(t, DefaultMirrorTimeout, harness.mirrorTimeout)
	assert.Equal(t, DefaultPollInterval, harness.pollInterval)
	assert.Equal(t, DefaultMessageTimeout, harness.messageTimeout)
	assert.Equal(t, hcs.CodecRaw, harness.codec)
	assert.Equal(t, 5*time.Second, durationOrDefault(5*time.Second, time.Minute))
}

func TestTokenParty(t *testing.T) {
	for ordinal, expected := range map[string]int{"first": 1, "Second": 2, "third": 3, "fourth": 4} {
		index, err := tokenParty(ordinal)
		require.NoError(t, err)
		assert.Equal(t, expected, index)
	}
	_, err := tokenParty("fifth")
	assert.Error(t, err)
}

func TestWorldSessionsAreCachedPerAccount(t *testing.T) {
	w := newWorld(newTestHarness(t, 2))
	defer w.after(context.Background(), nil, nil)

	first, err := w.session(1)
	require.NoError(t, err)
	again, err := w.session(1)
	require.NoError(t, err)
	assert.Same(t, first, again)

	operator, ok := first.Operator()
	require.True(t, ok)
	assert.Equal(t, "0.0.2001", operator.AccountID.String())

	_, err = w.session(5)
	assert.Error(t, err)
}

func TestStepsFailBeforeNetworkWithoutState(t *testing.T) {
	w := newWorld(newTestHarness(t, 5))
	defer w.after(context.Background(), nil, nil)
	ctx := context.Background()

	assert.EqualError(t, w.firstSubmits(ctx), "no transaction was created in this scenario")
	assert.EqualError(t, w.firstPaidFee(ctx), "no transaction was submitted in this scenario")
	assert.EqualError(t, w.mintFails(ctx), "no token was created in this scenario")
	assert.EqualError(t, w.createMultiPartyTransfer(ctx, 50, 50, 50), "no token was created in this scenario")
	assert.EqualError(t, w.publishMessage(ctx, "hello"), "no topic was created in this scenario")
	assert.EqualError(t, w.createThresholdTopic(ctx, "memo"), "no threshold key was built in this scenario")

	w.topicID = &hedera.TopicID{Topic: 9}
	assert.ErrorIs(t, w.publishMessage(ctx, "hello"), ledger.ErrNoOperator)
}

func TestThresholdKeyFromAccountsStep(t *testing.T) {
	harness := newTestHarness(t, 3)
	w := newWorld(harness)

	require.NoError(t, w.thresholdKeyFromAccounts(context.Background(), 1, 2))
	require.NotNil(t, w.thresholdKey)
	assert.Equal(t, 2, w.thresholdKey.Size())
	assert.Equal(t, uint(1), w.thresholdKey.Threshold)

	for index := 0; index < 2; index++ {
		creds, err := harness.book.CredentialsAt(index)
		require.NoError(t, err)
		assert.Equal(t, creds.PublicKey().String(), w.thresholdKey.Keys[index].String())
	}
}

func TestThresholdKeyFromAccountsStepNeedsEnoughAccounts(t *testing.T) {
	w := newWorld(newTestHarness(t, 1))

	err := w.thresholdKeyFromAccounts(context.Background(), 1, 2)
	assert.EqualError(t, err, "the account book holds 1 accounts, 2 are required")
	assert.Nil(t, w.thresholdKey)

	assert.Error(t, w.thresholdKeyFromAccounts(context.Background(), 0, 1))
}

func TestOperatorTopicDefaultsSubmitKey(t *testing.T) {
	w := newWorld(newTestHarness(t, 2))
	defer w.after(context.Background(), nil, nil)

	_, _, err := w.operatorTopic()
	assert.ErrorIs(t, err, ledger.ErrNoOperator)

	w.topicOperator = 1
	submitKey, signers, err := w.operatorTopic()
	require.NoError(t, err)
	assert.Nil(t, submitKey)
	require.Len(t, signers, 1)
	assert.Equal(t, "0.0.2001", signers[0].AccountID.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.createOperatorTopic(ctx, "memo"), context.Canceled)
	assert.Nil(t, w.topicID)
}
