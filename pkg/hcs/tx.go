package hcs

import (
	"fmt"

	"github.com/hashgraph-online/ledger-harness-go/pkg/accounts"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// NewThresholdKey requires at least one key and 1 <= threshold <= len(keys).
func NewThresholdKey(keys []hedera.PublicKey, threshold uint) (ThresholdKey, error) {
	if len(keys) == 0 {
		return ThresholdKey{}, fmt.Errorf("threshold key requires at least one public key")
	}
	if threshold == 0 {
		return ThresholdKey{}, fmt.Errorf("threshold must be positive")
	}
	if threshold > uint(len(keys)) {
		return ThresholdKey{}, fmt.Errorf("threshold %d exceeds key count %d", threshold, len(keys))
	}

	copied := make([]hedera.PublicKey, len(keys))
	copy(copied, keys)
	return ThresholdKey{Keys: copied, Threshold: threshold}, nil
}

// ThresholdKeyFromAccounts builds a threshold key from the accounts' public
// keys, preserving account order.
func ThresholdKeyFromAccounts(members []accounts.Credentials, threshold uint) (ThresholdKey, error) {
	keys := make([]hedera.PublicKey, 0, len(members))
	for _, member := range members {
		keys = append(keys, member.PublicKey())
	}
	return NewThresholdKey(keys, threshold)
}

func (k ThresholdKey) Size() int {
	return len(k.Keys)
}

func (k ThresholdKey) KeyList() *hedera.KeyList {
	keyList := hedera.KeyListWithThreshold(k.Threshold)
	for _, key := range k.Keys {
		keyList.Add(key)
	}
	return keyList
}

// BuildCreateTopicTx builds a topic with memo. A nil submitKey leaves the
// topic open to any submitter.
func BuildCreateTopicTx(memo string, submitKey hedera.Key) (*hedera.TopicCreateTransaction, error) {
	if len(memo) > MaxTopicMemoLength {
		return nil, fmt.Errorf("topic memo exceeds %d bytes", MaxTopicMemoLength)
	}

	transaction := hedera.NewTopicCreateTransaction().SetTopicMemo(memo)
	if submitKey != nil {
		transaction.SetSubmitKey(submitKey)
	}
	return transaction, nil
}

// BuildSubmitMessageTx encodes payload with codec and targets topicID.
func BuildSubmitMessageTx(
	topicID hedera.TopicID,
	payload []byte,
	codec Codec,
) (*hedera.TopicMessageSubmitTransaction, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("message is required")
	}
	encoded, err := codec.Encode(payload)
	if err != nil {
		return nil, err
	}

	return hedera.NewTopicMessageSubmitTransaction().
		SetTopicID(topicID).
		SetMessage(encoded), nil
}
