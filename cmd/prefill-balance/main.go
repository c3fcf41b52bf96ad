package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/hashgraph-online/ledger-harness-go/pkg/accounts"
	"github.com/hashgraph-online/ledger-harness-go/pkg/ledger"
	"github.com/hashgraph-online/ledger-harness-go/pkg/prefill"
	"github.com/hashgraph-online/ledger-harness-go/pkg/shared"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/spf13/cobra"
)

var cmdMain = &cobra.Command{
	Use:   "prefill-balance",
	Short: "Top every account in the account book up to a target HBAR balance",
	Long: `prefill-balance reads the funding account from MY_ACCOUNT_ID / MY_PRIVATE_KEY
(or the HEDERA_* operator variables) and transfers HBAR to each account in the
account book whose balance is below the target.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()
		return run(ctx, cmd.OutOrStdout())
	},
	SilenceUsage: true,
}

var flagMain struct {
	Accounts    string
	Target      string
	Policy      string
	Threshold   string
	Concurrency int
	Reconcile   bool
	LogLevel    string
	LogFormat   string
}

func init() {
	cmdMain.Flags().StringVarP(&flagMain.Accounts, "accounts", "a", accounts.DefaultPath(), "Account book file (YAML, JSON or TOML)")
	cmdMain.Flags().StringVarP(&flagMain.Target, "target", "t", "100", "Target balance in HBAR")
	cmdMain.Flags().StringVar(&flagMain.Policy, "policy", prefill.PolicyNameExact, "Top-up policy: exact or threshold")
	cmdMain.Flags().StringVar(&flagMain.Threshold, "threshold", "", "Balance in HBAR below which the threshold policy tops up")
	cmdMain.Flags().IntVarP(&flagMain.Concurrency, "concurrency", "c", prefill.DefaultConcurrency, "Maximum transfers in flight")
	cmdMain.Flags().BoolVar(&flagMain.Reconcile, "reconcile", false, "Re-read balances after each transfer and report drift")
	cmdMain.Flags().StringVar(&flagMain.LogLevel, "log-level", "info", "Log level")
	cmdMain.Flags().StringVar(&flagMain.LogFormat, "log-format", shared.LogFormatConsole, "Log format: console or json")
}

func main() {
	if err := cmdMain.Execute(); err != nil {
		os.Exit(1)
	}
}

// prefillOptions resolves the target and policy flags.
func prefillOptions() (hedera.Hbar, prefill.Policy, error) {
	target, err := prefill.ParseHbar(flagMain.Target)
	if err != nil {
		return hedera.ZeroHbar, nil, err
	}

	threshold := hedera.ZeroHbar
	if strings.TrimSpace(flagMain.Threshold) != "" {
		threshold, err = prefill.ParseHbar(flagMain.Threshold)
		if err != nil {
			return hedera.ZeroHbar, nil, err
		}
	}

	policy, err := prefill.ParsePolicy(flagMain.Policy, threshold)
	if err != nil {
		return hedera.ZeroHbar, nil, err
	}
	if err := policy.Validate(target); err != nil {
		return hedera.ZeroHbar, nil, err
	}
	return target, policy, nil
}

func run(ctx context.Context, out io.Writer) error {
	logger, err := shared.NewLogger(os.Stderr, flagMain.LogLevel, flagMain.LogFormat)
	if err != nil {
		return err
	}

	target, policy, err := prefillOptions()
	if err != nil {
		return err
	}

	book, err := accounts.Load(flagMain.Accounts)
	if err != nil {
		return err
	}
	accountIDs := make([]hedera.AccountID, book.Len())
	for index := range accountIDs {
		creds, err := book.CredentialsAt(index)
		if err != nil {
			return err
		}
		accountIDs[index] = creds.AccountID
	}

	funding, err := shared.FundingConfigFromEnv()
	if err != nil {
		return err
	}
	fundingID, fundingKey, err := funding.Credentials()
	if err != nil {
		return err
	}

	base, err := ledger.NewSession(ledger.SessionConfig{Network: funding.Network, Logger: &logger})
	if err != nil {
		return err
	}
	defer base.Close()
	session, err := base.WithOperator(fundingID, fundingKey)
	if err != nil {
		return err
	}
	defer session.Close()

	logger.Info().
		Str("funding_account", fundingID.String()).
		Int("accounts", len(accountIDs)).
		Str("target", prefill.FormatHbar(target)).
		Msg("prefilling balances")

	prefiller := prefill.New(session, prefill.Options{
		Policy:    policy,
		Reconcile: flagMain.Reconcile,
		Logger:    &logger,
	})
	results, runErr := prefiller.PrefillAll(ctx, accountIDs, target, flagMain.Concurrency)
	printResults(out, results)
	return runErr
}

func printResults(out io.Writer, results []prefill.Result) {
	for _, result := range results {
		switch {
		case result.Err != nil:
			fmt.Fprintf(out, "%s\tfailed\t%v\n", result.AccountID.String(), result.Err)
		case result.Transferred:
			fmt.Fprintf(out, "%s\trefilled %s\tbalance %s\t%s\n",
				result.AccountID.String(),
				prefill.FormatHbar(result.TopUp),
				prefill.FormatHbar(result.After),
				result.Status.String(),
			)
		default:
			fmt.Fprintf(out, "%s\tunchanged\tbalance %s\n", result.AccountID.String(), prefill.FormatHbar(result.After))
		}
	}
}
