package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/hashgraph-online/ledger-harness-go/pkg/accounts"
	"github.com/hashgraph-online/ledger-harness-go/pkg/hcs"
	"github.com/hashgraph-online/ledger-harness-go/pkg/hts"
	"github.com/hashgraph-online/ledger-harness-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

// world is the state of one scenario.
type world struct {
	harness  *Harness
	runID    string
	logger   zerolog.Logger
	sessions map[int]*ledger.Session

	tokenID *hedera.TokenID
	// seeded marks accounts whose token holdings were arranged in this
	// scenario.
	seeded map[int]bool
	// acted is set by the first action step. Holding steps before it
	// arrange balances, after it they only assert.
	acted    bool
	pending  *hedera.TransferTransaction
	executed *hedera.TransactionResponse

	topicOperator int
	topicID       *hedera.TopicID
	thresholdKey  *hcs.ThresholdKey
	submitSigners []accounts.Credentials
}

func newWorld(h *Harness) *world {
	return &world{
		harness:       h,
		logger:        h.logger,
		sessions:      map[int]*ledger.Session{},
		seeded:        map[int]bool{},
		topicOperator: -1,
	}
}

func (w *world) before(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
	w.runID = uuid.NewString()
	w.logger = w.harness.logger.With().
		Str("run_id", w.runID).
		Str("scenario", scenario.Name).
		Logger()
	w.logger.Info().Msg("scenario started")
	return ctx, nil
}

func (w *world) after(ctx context.Context, scenario *godog.Scenario, err error) (context.Context, error) {
	for index, session := range w.sessions {
		if closeErr := session.Close(); closeErr != nil {
			w.logger.Warn().Err(closeErr).Int("account", index).Msg("failed to close session")
		}
	}
	w.sessions = map[int]*ledger.Session{}

	event := w.logger.Info()
	if err != nil {
		event = w.logger.Error().Err(err)
	}
	event.Msg("scenario finished")
	return ctx, nil
}

func (w *world) step(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, w.harness.stepTimeout)
}

func (w *world) credentials(index int) (accounts.Credentials, error) {
	return w.harness.book.CredentialsAt(index)
}

// session returns a session paying and signing as account index, creating
// it on first use.
func (w *world) session(index int) (*ledger.Session, error) {
	if session, ok := w.sessions[index]; ok {
		return session, nil
	}
	creds, err := w.credentials(index)
	if err != nil {
		return nil, err
	}
	session, err := w.harness.base.WithOperator(creds.AccountID, creds.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for account %d: %w", index, err)
	}
	w.sessions[index] = session
	return session, nil
}

func (w *world) requireToken() (hedera.TokenID, error) {
	if w.tokenID == nil {
		return hedera.TokenID{}, fmt.Errorf("no token was created in this scenario")
	}
	return *w.tokenID, nil
}

// expectHbar checks the HBAR balance of account index against hbars. strict
// requires the balance to be above hbars rather than at least hbars.
func (w *world) expectHbar(ctx context.Context, index int, hbars int64, strict bool) error {
	session, err := w.session(index)
	if err != nil {
		return err
	}
	operator, _ := session.Operator()

	balance, err := session.NativeBalance(ctx, operator.AccountID)
	if err != nil {
		return err
	}
	threshold := hedera.NewHbar(float64(hbars)).AsTinybar()
	if balance.AsTinybar() > threshold || (!strict && balance.AsTinybar() == threshold) {
		return nil
	}
	return fmt.Errorf("account %s balance is %s, expected more than %d hbar", operator.AccountID.String(), balance.String(), hbars)
}

// tokenBalance reads the mirror node balance, treating a missing
// relationship as zero.
func (w *world) tokenBalance(ctx context.Context, accountID hedera.AccountID, tokenID hedera.TokenID) (int64, error) {
	balance, err := hts.TokenBalance(ctx, w.harness.base.Mirror(), accountID, tokenID)
	if errors.Is(err, hts.ErrNotAssociated) {
		return 0, nil
	}
	return balance, err
}

// waitForTokenBalance polls the mirror node until accountID holds expected
// units of the scenario token.
func (w *world) waitForTokenBalance(ctx context.Context, accountID hedera.AccountID, expected int64) error {
	tokenID, err := w.requireToken()
	if err != nil {
		return err
	}
	return w.pollMirror(ctx, func(ctx context.Context) error {
		balance, err := hts.TokenBalance(ctx, w.harness.base.Mirror(), accountID, tokenID)
		if err != nil {
			return fmt.Errorf("account %s never held %d units of %s: %w", accountID.String(), expected, tokenID.String(), err)
		}
		if balance != expected {
			return fmt.Errorf("account %s holds %d units of %s, expected %d", accountID.String(), balance, tokenID.String(), expected)
		}
		return nil
	})
}

// fundTokens associates account index with the scenario token if needed
// and moves amount units to it from the treasury.
func (w *world) fundTokens(ctx context.Context, index int, amount int64) error {
	tokenID, err := w.requireToken()
	if err != nil {
		return err
	}
	creds, err := w.credentials(index)
	if err != nil {
		return err
	}
	if _, err := hts.EnsureAssociated(ctx, w.harness.base, creds, tokenID); err != nil {
		return fmt.Errorf("failed to associate %s with %s: %w", creds.AccountID.String(), tokenID.String(), err)
	}
	if amount <= 0 {
		return nil
	}

	treasury, err := w.credentials(0)
	if err != nil {
		return err
	}
	response, err := hts.TransferToken(ctx, w.harness.base, amount, tokenID, treasury, creds.AccountID)
	if err != nil {
		return err
	}
	session, err := w.session(0)
	if err != nil {
		return err
	}
	if _, err := session.Receipt(ctx, response); err != nil {
		return fmt.Errorf("failed to fund %s: %w", creds.AccountID.String(), err)
	}

	w.logger.Debug().
		Str("account_id", creds.AccountID.String()).
		Str("amount", hts.FormatAmount(amount, tokenDecimals)).
		Msg("funded account from treasury")
	return nil
}
