package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashgraph-online/ledger-harness-go/pkg/hcs"
	"github.com/hashgraph-online/ledger-harness-go/pkg/mirror"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// pollMirror runs check until it succeeds or the mirror timeout ends. The
// mirror node trails consensus by a few seconds, so a failing check is
// retried rather than reported straight away.
func (w *world) pollMirror(ctx context.Context, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, w.harness.mirrorTimeout)
	defer cancel()

	ticker := time.NewTicker(w.harness.pollInterval)
	defer ticker.Stop()

	for {
		err := check(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("mirror node did not confirm within %s: %w", w.harness.mirrorTimeout, err)
		case <-ticker.C:
		}
	}
}

// mirrorTokenAgrees checks the scenario token as indexed by the mirror node.
func (w *world) mirrorTokenAgrees(ctx context.Context, check func(mirror.TokenInfo) error) error {
	tokenID, err := w.requireToken()
	if err != nil {
		return err
	}
	return w.pollMirror(ctx, func(ctx context.Context) error {
		info, err := w.harness.base.Mirror().GetToken(ctx, tokenID.String())
		if err != nil {
			return err
		}
		return check(info)
	})
}

// mirrorConfirmsPayer checks that the mirror node lists payer as debited by
// the transaction.
func (w *world) mirrorConfirmsPayer(ctx context.Context, transactionID string, payer hedera.AccountID) error {
	return w.pollMirror(ctx, func(ctx context.Context) error {
		transaction, err := w.harness.base.Mirror().GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if transaction == nil {
			return fmt.Errorf("transaction %s is not indexed yet", transactionID)
		}
		if !transaction.PayerDebited(payer.String()) {
			return fmt.Errorf("transaction %s did not debit %s", transactionID, payer.String())
		}
		return nil
	})
}

func (w *world) mirrorTopicMemo(ctx context.Context, topicID hedera.TopicID, memo string) error {
	return w.pollMirror(ctx, func(ctx context.Context) error {
		info, err := w.harness.base.Mirror().GetTopicInfo(ctx, topicID.String())
		if err != nil {
			return err
		}
		if info.Memo != memo {
			return fmt.Errorf("mirror topic memo is %q, expected %q", info.Memo, memo)
		}
		return nil
	})
}

// mirrorAccountExists looks accountID up once. Book accounts exist before
// the run starts, so there is nothing to wait for.
func (w *world) mirrorAccountExists(ctx context.Context, accountID hedera.AccountID) error {
	info, err := w.harness.base.Mirror().GetAccount(ctx, accountID.String())
	if errors.Is(err, mirror.ErrNotFound) {
		return fmt.Errorf("account %s does not exist on %s", accountID.String(), w.harness.base.Network())
	}
	if err != nil {
		return err
	}
	if info.Account != accountID.String() {
		return fmt.Errorf("mirror node returned account %s for %s", info.Account, accountID.String())
	}
	return nil
}

// mirrorHistoryHas checks that the stored topic history is in consensus
// order and holds received.
func (w *world) mirrorHistoryHas(ctx context.Context, topicID hedera.TopicID, received hcs.Message) error {
	return w.pollMirror(ctx, func(ctx context.Context) error {
		history, err := hcs.History(ctx, w.harness.base.Mirror(), topicID, 0, w.harness.codec)
		if err != nil {
			return err
		}

		found := false
		for index, message := range history {
			if index > 0 && message.Sequence <= history[index-1].Sequence {
				return fmt.Errorf("topic %s history is out of order at sequence %d", topicID.String(), message.Sequence)
			}
			if message.Sequence == received.Sequence {
				if !bytes.Equal(message.Contents, received.Contents) {
					return fmt.Errorf("topic %s message %d differs between stream and history", topicID.String(), message.Sequence)
				}
				found = true
			}
		}
		if !found {
			return fmt.Errorf("topic %s history does not hold message %d yet", topicID.String(), received.Sequence)
		}
		return nil
	})
}
