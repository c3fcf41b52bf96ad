package ledger

import (
	"fmt"
	"strings"

	"github.com/hashgraph-online/ledger-harness-go/pkg/mirror"
	"github.com/hashgraph-online/ledger-harness-go/pkg/shared"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

type SessionConfig struct {
	Network       string
	MirrorBaseURL string
	MirrorAPIKey  string
	Logger        *zerolog.Logger
}

// Operator is the account that pays for and signs transactions submitted
// through a session.
type Operator struct {
	AccountID  hedera.AccountID
	PrivateKey hedera.PrivateKey
}

func (o Operator) PublicKey() hedera.PublicKey {
	return o.PrivateKey.PublicKey()
}

// Session binds a network, an optional operator and a mirror node client.
// Sessions are never mutated after construction; WithOperator derives a new one.
type Session struct {
	config   SessionConfig
	network  string
	client   *hedera.Client
	mirror   *mirror.Client
	operator *Operator
	logger   zerolog.Logger
}

// NewSession creates a session without an operator.
func NewSession(config SessionConfig) (*Session, error) {
	network, err := shared.NormalizeNetwork(config.Network)
	if err != nil {
		return nil, err
	}
	config.Network = network

	client, err := shared.NewHederaClient(network)
	if err != nil {
		return nil, err
	}

	mirrorClient, err := mirror.NewClient(mirror.Config{
		Network: network,
		BaseURL: strings.TrimSpace(config.MirrorBaseURL),
		APIKey:  config.MirrorAPIKey,
	})
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Session{
		config:  config,
		network: network,
		client:  client,
		mirror:  mirrorClient,
		logger:  logger.With().Str("network", network).Logger(),
	}, nil
}

// NewSessionFromEnv creates a session bound to the operator resolved by
// shared.OperatorConfigFromEnv.
func NewSessionFromEnv(logger *zerolog.Logger) (*Session, error) {
	operatorConfig, err := shared.OperatorConfigFromEnv()
	if err != nil {
		return nil, err
	}
	accountID, privateKey, err := operatorConfig.Credentials()
	if err != nil {
		return nil, err
	}

	base, err := NewSession(SessionConfig{Network: operatorConfig.Network, Logger: logger})
	if err != nil {
		return nil, err
	}
	defer base.Close()

	return base.WithOperator(accountID, privateKey)
}

// WithOperator returns a new session on the same network whose SDK client
// pays and signs as accountID. The receiver is left untouched.
func (s *Session) WithOperator(accountID hedera.AccountID, privateKey hedera.PrivateKey) (*Session, error) {
	client, err := shared.NewHederaClient(s.network)
	if err != nil {
		return nil, err
	}
	client.SetOperator(accountID, privateKey)

	return &Session{
		config:   s.config,
		network:  s.network,
		client:   client,
		mirror:   s.mirror,
		operator: &Operator{AccountID: accountID, PrivateKey: privateKey},
		logger:   s.logger.With().Str("operator", accountID.String()).Logger(),
	}, nil
}

// Operator returns the bound operator, if any.
func (s *Session) Operator() (Operator, bool) {
	if s == nil || s.operator == nil {
		return Operator{}, false
	}
	return *s.operator, true
}

// RequireOperator returns ErrNoOperator when the session has no operator.
func (s *Session) RequireOperator() (Operator, error) {
	operator, ok := s.Operator()
	if !ok {
		return Operator{}, ErrNoOperator
	}
	return operator, nil
}

func (s *Session) Network() string {
	return s.network
}

func (s *Session) Client() *hedera.Client {
	return s.client
}

func (s *Session) Mirror() *mirror.Client {
	return s.mirror
}

func (s *Session) Logger() zerolog.Logger {
	return s.logger
}

// Close releases the SDK client's connections.
func (s *Session) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close hedera client: %w", err)
	}
	return nil
}
