package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
	"github.com/hashgraph-online/ledger-harness-go/pkg/accounts"
	"github.com/hashgraph-online/ledger-harness-go/pkg/hcs"
	"github.com/hashgraph-online/ledger-harness-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

func registerTopicSteps(sc *godog.ScenarioContext, w *world) {
	sc.Step(`^a first account with more than (\d+) hbars$`, w.topicFirstAccount)
	sc.Step(`^A second account with more than (\d+) hbars$`, w.topicSecondAccount)
	sc.Step(`^A topic is created with the memo "([^"]*)" with the first account as the submit key$`, w.createOperatorTopic)
	sc.Step(`^The message "([^"]*)" is published to the topic$`, w.publishMessage)
	sc.Step(`^The message "([^"]*)" is received by the topic and can be printed to the console$`, w.receiveMessage)
	sc.Step(`^A (\d+) of (\d+) threshold key with the first and second account$`, w.thresholdKeyFromAccounts)
	sc.Step(`^A topic is created with the memo "([^"]*)" with the threshold key as the submit key$`, w.createThresholdTopic)
}

// useTopicOperator makes account index pay for topic operations.
func (w *world) useTopicOperator(ctx context.Context, index int, hbars int64) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	if err := w.expectHbar(ctx, index, hbars, true); err != nil {
		return err
	}
	w.topicOperator = index
	return nil
}

func (w *world) topicFirstAccount(ctx context.Context, hbars int64) error {
	return w.useTopicOperator(ctx, 0, hbars)
}

func (w *world) topicSecondAccount(ctx context.Context, hbars int64) error {
	return w.useTopicOperator(ctx, 1, hbars)
}

func (w *world) topicSession() (*ledger.Session, error) {
	if w.topicOperator < 0 {
		return nil, ledger.ErrNoOperator
	}
	return w.session(w.topicOperator)
}

func (w *world) requireTopic() (hedera.TopicID, error) {
	if w.topicID == nil {
		return hedera.TopicID{}, fmt.Errorf("no topic was created in this scenario")
	}
	return *w.topicID, nil
}

func (w *world) createTopic(ctx context.Context, memo string, submitKey hedera.Key, signers []accounts.Credentials) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	session, err := w.topicSession()
	if err != nil {
		return err
	}
	topicID, err := hcs.CreateTopicAndWait(ctx, session, memo, submitKey)
	if err != nil {
		return err
	}

	info, err := session.TopicInfo(ctx, topicID)
	if err != nil {
		return err
	}
	if info.Memo != memo {
		return fmt.Errorf("topic memo is %q, expected %q", info.Memo, memo)
	}
	if err := w.mirrorTopicMemo(ctx, topicID, memo); err != nil {
		return err
	}

	w.topicID = &topicID
	w.submitSigners = signers
	w.logger.Info().Str("topic_id", topicID.String()).Msg("topic created")
	return nil
}

// operatorTopic returns the submit key and signers of a topic owned by the
// topic operator. The key is nil, so CreateTopic falls back to the
// operator's own key.
func (w *world) operatorTopic() (hedera.Key, []accounts.Credentials, error) {
	if w.topicOperator < 0 {
		return nil, nil, ledger.ErrNoOperator
	}
	operator, err := w.credentials(w.topicOperator)
	if err != nil {
		return nil, nil, err
	}
	return nil, []accounts.Credentials{operator}, nil
}

func (w *world) createOperatorTopic(ctx context.Context, memo string) error {
	submitKey, signers, err := w.operatorTopic()
	if err != nil {
		return err
	}
	return w.createTopic(ctx, memo, submitKey, signers)
}

func (w *world) createThresholdTopic(ctx context.Context, memo string) error {
	if w.thresholdKey == nil {
		return fmt.Errorf("no threshold key was built in this scenario")
	}
	signers := make([]accounts.Credentials, 0, w.thresholdKey.Threshold)
	for index := 0; index < int(w.thresholdKey.Threshold); index++ {
		creds, err := w.credentials(index)
		if err != nil {
			return err
		}
		signers = append(signers, creds)
	}
	return w.createTopic(ctx, memo, w.thresholdKey.KeyList(), signers)
}

func (w *world) publishMessage(ctx context.Context, message string) error {
	ctx, cancel := w.step(ctx)
	defer cancel()

	topicID, err := w.requireTopic()
	if err != nil {
		return err
	}
	session, err := w.topicSession()
	if err != nil {
		return err
	}

	response, err := hcs.SubmitMessage(ctx, session, topicID, []byte(message), hcs.SubmitOptions{
		Signers: w.submitSigners,
		Codec:   w.harness.codec,
	})
	if err != nil {
		return err
	}
	receipt, err := session.Receipt(ctx, response)
	if err != nil {
		return fmt.Errorf("invalid receipt status received: %w", err)
	}
	w.logger.Debug().Uint64("sequence", receipt.TopicSequenceNumber).Msg("message published")
	return nil
}

func (w *world) receiveMessage(ctx context.Context, message string) error {
	ctx, cancel := context.WithTimeout(ctx, w.harness.messageTimeout)
	defer cancel()

	topicID, err := w.requireTopic()
	if err != nil {
		return err
	}
	session, err := w.topicSession()
	if err != nil {
		return err
	}

	subscription, err := hcs.Subscribe(ctx, session, topicID, hcs.SubscribeOptions{
		Codec:  w.harness.codec,
		Logger: &w.logger,
	})
	if err != nil {
		return err
	}
	defer subscription.Unsubscribe()

	received, err := hcs.WaitForMessage(ctx, subscription, func(candidate hcs.Message) bool {
		return string(candidate.Contents) == message
	})
	if err != nil {
		return fmt.Errorf("message %q was not received on %s: %w", message, topicID.String(), err)
	}

	fmt.Fprintf(w.harness.out, "%s #%d %s: %s\n",
		topicID.String(),
		received.Sequence,
		received.ConsensusTime.UTC().Format("2006-01-02T15:04:05.000Z"),
		string(received.Contents),
	)
	return w.mirrorHistoryHas(ctx, topicID, received)
}

func (w *world) thresholdKeyFromAccounts(ctx context.Context, threshold uint, total int) error {
	members, err := w.harness.book.CredentialsRange(0, total)
	if err != nil {
		return err
	}

	key, err := hcs.ThresholdKeyFromAccounts(members, threshold)
	if err != nil {
		return err
	}
	if key.Size() != total {
		return fmt.Errorf("invalid threshold key size: expected %d, found %d", total, key.Size())
	}
	for index, member := range members {
		if key.Keys[index].String() != member.PublicKey().String() {
			return fmt.Errorf("threshold key %d does not match account %s", index, member.AccountID.String())
		}
	}

	w.thresholdKey = &key
	return nil
}
