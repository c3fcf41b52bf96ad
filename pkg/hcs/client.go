package hcs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashgraph-online/ledger-harness-go/pkg/ledger"
	"github.com/hashgraph-online/ledger-harness-go/pkg/mirror"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// CreateTopic submits a topic creation paid for by the session operator. A
// nil submitKey defaults to the operator's public key.
func CreateTopic(
	ctx context.Context,
	session *ledger.Session,
	memo string,
	submitKey hedera.Key,
) (hedera.TransactionResponse, error) {
	operator, err := session.RequireOperator()
	if err != nil {
		return hedera.TransactionResponse{}, err
	}
	if submitKey == nil {
		submitKey = operator.PublicKey()
	}

	transaction, err := BuildCreateTopicTx(memo, submitKey)
	if err != nil {
		return hedera.TransactionResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return hedera.TransactionResponse{}, err
	}

	response, err := transaction.Execute(session.Client())
	if err != nil {
		return hedera.TransactionResponse{}, ledger.Rejection("execute topic create transaction", err)
	}
	return response, nil
}

// CreateTopicAndWait creates a topic and returns its ID from the receipt.
func CreateTopicAndWait(
	ctx context.Context,
	session *ledger.Session,
	memo string,
	submitKey hedera.Key,
) (hedera.TopicID, error) {
	response, err := CreateTopic(ctx, session, memo, submitKey)
	if err != nil {
		return hedera.TopicID{}, err
	}
	receipt, err := session.Receipt(ctx, response)
	if err != nil {
		return hedera.TopicID{}, err
	}
	if receipt.TopicID == nil {
		return hedera.TopicID{}, fmt.Errorf("topic create receipt did not include a topic ID")
	}
	return *receipt.TopicID, nil
}

// SubmitMessage publishes message to topicID. With options.Signers the
// transaction is frozen and co-signed before submission.
func SubmitMessage(
	ctx context.Context,
	session *ledger.Session,
	topicID hedera.TopicID,
	message []byte,
	options SubmitOptions,
) (hedera.TransactionResponse, error) {
	if _, err := session.RequireOperator(); err != nil {
		return hedera.TransactionResponse{}, err
	}
	transaction, err := BuildSubmitMessageTx(topicID, message, options.Codec)
	if err != nil {
		return hedera.TransactionResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return hedera.TransactionResponse{}, err
	}

	if len(options.Signers) > 0 {
		frozen, err := transaction.FreezeWith(session.Client())
		if err != nil {
			return hedera.TransactionResponse{}, fmt.Errorf("failed to freeze topic message transaction: %w", err)
		}
		for _, signer := range options.Signers {
			frozen = frozen.Sign(signer.PrivateKey)
		}
		transaction = frozen
	}

	response, err := transaction.Execute(session.Client())
	if err != nil {
		return hedera.TransactionResponse{}, ledger.Rejection("execute topic message transaction", err)
	}
	return response, nil
}

// History returns up to limit messages already stored by the mirror node,
// in consensus order. A zero limit reads the whole topic.
func History(
	ctx context.Context,
	mirrorClient *mirror.Client,
	topicID hedera.TopicID,
	limit int,
	codec Codec,
) ([]Message, error) {
	if mirrorClient == nil {
		return nil, fmt.Errorf("mirror client is required")
	}

	items, err := mirrorClient.GetTopicMessages(ctx, topicID.String(), mirror.MessageQueryOptions{
		Limit: limit,
		Order: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch topic messages: %w", err)
	}

	messages := make([]Message, 0, len(items))
	for _, item := range items {
		raw, err := mirror.DecodeMessageData(item)
		if err != nil {
			return nil, fmt.Errorf("failed to decode message %d: %w", item.SequenceNumber, err)
		}
		contents, err := codec.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode message %d: %w", item.SequenceNumber, err)
		}
		consensusTime, err := ParseConsensusTimestamp(item.ConsensusTimestamp)
		if err != nil {
			return nil, err
		}
		messages = append(messages, Message{
			TopicID:       topicID,
			Sequence:      uint64(item.SequenceNumber),
			ConsensusTime: consensusTime,
			Contents:      contents,
		})
	}
	return messages, nil
}

// ParseConsensusTimestamp parses the mirror node "seconds.nanos" form.
func ParseConsensusTimestamp(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}

	secondsPart, nanosPart, _ := strings.Cut(trimmed, ".")
	seconds, err := strconv.ParseInt(secondsPart, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid consensus timestamp %q: %w", value, err)
	}

	var nanos int64
	if nanosPart != "" {
		if len(nanosPart) > 9 {
			return time.Time{}, fmt.Errorf("invalid consensus timestamp %q: too many fractional digits", value)
		}
		nanos, err = strconv.ParseInt(nanosPart+strings.Repeat("0", 9-len(nanosPart)), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid consensus timestamp %q: %w", value, err)
		}
	}
	return time.Unix(seconds, nanos).UTC(), nil
}
