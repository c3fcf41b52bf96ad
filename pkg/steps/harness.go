package steps

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cucumber/godog"
	"github.com/hashgraph-online/ledger-harness-go/pkg/accounts"
	"github.com/hashgraph-online/ledger-harness-go/pkg/hcs"
	"github.com/hashgraph-online/ledger-harness-go/pkg/ledger"
	"github.com/rs/zerolog"
)

const (
	DefaultStepTimeout    = 60 * time.Second
	DefaultMirrorTimeout  = 30 * time.Second
	DefaultPollInterval   = time.Second
	DefaultMessageTimeout = 90 * time.Second
)

type Config struct {
	// Book holds the scenario accounts. Index 0 is the token treasury and
	// the first topic account.
	Book *accounts.Book
	// Session is an operator-less session; every account gets a session
	// derived from it.
	Session *ledger.Session
	Logger  *zerolog.Logger
	// Out receives messages printed by topic scenarios. Defaults to stdout.
	Out io.Writer
	// TopicCodec is "raw" (the default) or "brotli".
	TopicCodec string

	StepTimeout    time.Duration
	MirrorTimeout  time.Duration
	PollInterval   time.Duration
	MessageTimeout time.Duration
}

// Harness registers the token and topic step definitions. Each scenario
// gets its own world, so scenarios never share token IDs, topics or
// pending transactions.
type Harness struct {
	book           *accounts.Book
	base           *ledger.Session
	logger         zerolog.Logger
	out            io.Writer
	codec          hcs.Codec
	stepTimeout    time.Duration
	mirrorTimeout  time.Duration
	pollInterval   time.Duration
	messageTimeout time.Duration
}

func NewHarness(config Config) (*Harness, error) {
	if config.Book == nil || config.Book.Len() == 0 {
		return nil, fmt.Errorf("account book is required")
	}
	if config.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	codec, err := hcs.ParseCodec(config.TopicCodec)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	out := config.Out
	if out == nil {
		out = os.Stdout
	}

	logger.Debug().
		Str("network", config.Session.Network()).
		Str("mirror_url", config.Session.Mirror().BaseURL()).
		Str("topic_codec", string(codec)).
		Int("accounts", config.Book.Len()).
		Msg("harness ready")

	return &Harness{
		book:           config.Book,
		base:           config.Session,
		logger:         logger,
		out:            out,
		codec:          codec,
		stepTimeout:    durationOrDefault(config.StepTimeout, DefaultStepTimeout),
		mirrorTimeout:  durationOrDefault(config.MirrorTimeout, DefaultMirrorTimeout),
		pollInterval:   durationOrDefault(config.PollInterval, DefaultPollInterval),
		messageTimeout: durationOrDefault(config.MessageTimeout, DefaultMessageTimeout),
	}, nil
}

// InitializeScenario is a godog ScenarioInitializer. godog calls it once per
// scenario.
func (h *Harness) InitializeScenario(sc *godog.ScenarioContext) {
	w := newWorld(h)

	sc.Before(w.before)
	sc.After(w.after)

	registerTokenSteps(sc, w)
	registerTopicSteps(sc, w)
}

func durationOrDefault(value time.Duration, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
