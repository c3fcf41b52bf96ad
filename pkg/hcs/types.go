package hcs

import (
	"time"

	"github.com/hashgraph-online/ledger-harness-go/pkg/accounts"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

// MaxTopicMemoLength is the network limit on topic memos, in bytes.
const MaxTopicMemoLength = 100

// ThresholdKey is an ordered M-of-N list of public keys.
type ThresholdKey struct {
	Keys      []hedera.PublicKey
	Threshold uint
}

// Message is one topic message in consensus order.
type Message struct {
	TopicID       hedera.TopicID
	Sequence      uint64
	ConsensusTime time.Time
	Contents      []byte
}

type SubmitOptions struct {
	// Signers co-sign the message, as needed for threshold submit keys.
	Signers []accounts.Credentials
	Codec   Codec
}

type SubscribeOptions struct {
	// StartTime defaults to the Unix epoch, which replays the topic from
	// its first message.
	StartTime time.Time
	Limit     uint64
	Codec     Codec
	// Buffer bounds the messages queued between the network and the
	// consumer. Defaults to 64.
	Buffer int
	Logger *zerolog.Logger
}
