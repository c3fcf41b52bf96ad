package steps

import (
	"os"
	"testing"

	"github.com/cucumber/godog"
	"github.com/hashgraph-online/ledger-harness-go/pkg/accounts"
	"github.com/hashgraph-online/ledger-harness-go/pkg/ledger"
	"github.com/hashgraph-online/ledger-harness-go/pkg/shared"
)

func TestFeatures(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION") != "1" {
		t.Skip("set RUN_INTEGRATION=1 to run live Hedera integration tests")
	}

	network := shared.NetworkFromEnv()
	if shared.IsMainnet(network) && os.Getenv("ALLOW_MAINNET_INTEGRATION") != "1" {
		t.Skip("resolved mainnet; set ALLOW_MAINNET_INTEGRATION=1 to allow live mainnet writes")
	}

	book, err := accounts.Load(accounts.DefaultPath())
	if err != nil {
		t.Skipf("skipping feature suite: %v", err)
	}

	logger, err := shared.NewLogger(os.Stderr, os.Getenv("LOG_LEVEL"), "console")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	session, err := ledger.NewSession(ledger.SessionConfig{
		Network:       network,
		MirrorBaseURL: os.Getenv("MIRROR_BASE_URL"),
		Logger:        &logger,
	})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	defer session.Close()

	harness, err := NewHarness(Config{
		Book:       book,
		Session:    session,
		Logger:     &logger,
		TopicCodec: os.Getenv("HARNESS_TOPIC_CODEC"),
	})
	if err != nil {
		t.Fatalf("failed to create harness: %v", err)
	}

	suite := godog.TestSuite{
		Name:                "ledger-harness",
		ScenarioInitializer: harness.InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature suite failed")
	}
}
