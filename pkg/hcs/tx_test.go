package hcs

import (
	"strings"
	"testing"
	"time"

	"github.com/hashgraph-online/ledger-harness-go/pkg/accounts"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMember(t *testing.T, num uint64) accounts.Credentials {
	t.Helper()
	key, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)
	return accounts.Credentials{AccountID: hedera.AccountID{Account: num}, PrivateKey: key}
}

func TestNewThresholdKey(t *testing.T) {
	first := newMember(t, 1).PublicKey()
	second := newMember(t, 2).PublicKey()

	key, err := NewThresholdKey([]hedera.PublicKey{first, second}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, key.Size())
	assert.Equal(t, uint(1), key.Threshold)
	assert.NotNil(t, key.KeyList())

	key, err = NewThresholdKey([]hedera.PublicKey{first, second}, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), key.Threshold)
}

func TestNewThresholdKeyValidation(t *testing.T) {
	first := newMember(t, 1).PublicKey()

	_, err := NewThresholdKey(nil, 1)
	assert.EqualError(t, err, "threshold key requires at least one public key")

	_, err = NewThresholdKey([]hedera.PublicKey{first}, 0)
	assert.EqualError(t, err, "threshold must be positive")

	_, err = NewThresholdKey([]hedera.PublicKey{first}, 2)
	assert.EqualError(t, err, "threshold 2 exceeds key count 1")
}

func TestNewThresholdKeyCopiesKeys(t *testing.T) {
	keys := []hedera.PublicKey{newMember(t, 1).PublicKey(), newMember(t, 2).PublicKey()}
	original := keys[0].String()

	key, err := NewThresholdKey(keys, 1)
	require.NoError(t, err)

	keys[0] = newMember(t, 3).PublicKey()
	assert.Equal(t, original, key.Keys[0].String())
}

func TestThresholdKeyFromAccountsKeepsOrder(t *testing.T) {
	members := []accounts.Credentials{newMember(t, 1), newMember(t, 2)}

	key, err := ThresholdKeyFromAccounts(members, 1)
	require.NoError(t, err)
	require.Equal(t, len(members), key.Size())
	for index, member := range members {
		assert.Equal(t, member.PublicKey().StringRaw(), key.Keys[index].StringRaw())
	}

	_, err = ThresholdKeyFromAccounts(nil, 1)
	assert.Error(t, err)
}

func TestBuildCreateTopicTx(t *testing.T) {
	submitKey := newMember(t, 1).PublicKey()

	transaction, err := BuildCreateTopicTx("Taking over the world", submitKey)
	require.NoError(t, err)
	assert.Equal(t, "Taking over the world", transaction.GetTopicMemo())

	_, err = BuildCreateTopicTx(strings.Repeat("m", MaxTopicMemoLength+1), submitKey)
	assert.EqualError(t, err, "topic memo exceeds 100 bytes")

	_, err = BuildCreateTopicTx("", nil)
	assert.NoError(t, err)
}

func TestBuildSubmitMessageTx(t *testing.T) {
	topicID := hedera.TopicID{Topic: 42}

	transaction, err := BuildSubmitMessageTx(topicID, []byte("Hello world"), CodecRaw)
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello world"), transaction.GetMessage())
	assert.Equal(t, topicID.String(), transaction.GetTopicID().String())

	_, err = BuildSubmitMessageTx(topicID, nil, CodecRaw)
	assert.EqualError(t, err, "message is required")

	_, err = BuildSubmitMessageTx(topicID, []byte("x"), Codec("zip"))
	assert.Error(t, err)
}

func TestBrotliCodecRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("All your base are belong to us. ", 20))

	encoded, err := CodecBrotli.Encode(payload)
	require.NoError(t, err)
	assert.Less(t, len(encoded), len(payload))

	decoded, err := CodecBrotli.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestParseCodec(t *testing.T) {
	codec, err := ParseCodec("")
	require.NoError(t, err)
	assert.Equal(t, CodecRaw, codec)

	codec, err = ParseCodec(" Brotli ")
	require.NoError(t, err)
	assert.Equal(t, CodecBrotli, codec)

	_, err = ParseCodec("gzip")
	assert.EqualError(t, err, `unsupported message codec "gzip"`)
}

func TestParseConsensusTimestamp(t *testing.T) {
	parsed, err := ParseConsensusTimestamp("1700000000.000000123")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 123).UTC(), parsed)

	parsed, err = ParseConsensusTimestamp("1700000000.5")
	require.NoError(t, err)
	assert.Equal(t, int(500000000), parsed.Nanosecond())

	parsed, err = ParseConsensusTimestamp("")
	require.NoError(t, err)
	assert.True(t, parsed.IsZero())

	_, err = ParseConsensusTimestamp("abc.1")
	assert.Error(t, err)

	_, err = ParseConsensusTimestamp("1.1234567890")
	assert.Error(t, err)
}
