// Command analyst fetches a company's financial statements, computes ratios
// and a DCF valuation, and asks a language model for an investment memo.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"fundamental-analyst/config"
	"fundamental-analyst/internal/app"
	"fundamental-analyst/observability"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var cfg *config.Config

func main() {
	// A missing .env is normal; the environment is used as is.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "analyst",
	Short: "Fundamental analysis and investment memos for a single ticker",
	Long: `analyst retrieves annual financial statements for a ticker, computes
profitability, leverage and growth ratios, runs a discounted cash flow
valuation, and asks a language model to write an investment memo with a
Buy, Hold or Sell rating.

Outputs are written to OUTPUT_DIR as {TICKER}_analysis.json and
{TICKER}_investment_memo.md; raw provider data goes to RAW_DATA_DIR.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		applyStorageFlags(cmd, loaded)
		observability.Configure(loaded.Observability.LogFormat, loaded.Observability.LogLevel)
		observability.InitMetrics()
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("output-dir", "", "directory for analysis and memo files (overrides OUTPUT_DIR)")
	rootCmd.PersistentFlags().String("raw-dir", "", "directory for raw data snapshots (overrides RAW_DATA_DIR)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(memoCmd)
	rootCmd.AddCommand(serveCmd)
}

func applyStorageFlags(cmd *cobra.Command, c *config.Config) {
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		c.Storage.OutputDir = dir
	}
	if dir, _ := cmd.Flags().GetString("raw-dir"); dir != "" {
		c.Storage.RawDataDir = dir
	}
}

// commandContext applies the --timeout flag to the command's context.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// buildApp wires the pipeline for a single command invocation.
func buildApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg)
}

// pushMetrics sends this run's metrics to the Pushgateway when one is set.
func pushMetrics(ticker string) {
	if !cfg.HasPushgateway() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := observability.PushMetrics(ctx, cfg.Observability.PushgatewayURL, nil, map[string]string{"ticker": ticker})
	if err != nil {
		observability.Warn("failed to push metrics", "error", err)
	}
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Printing the version needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "analyst %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", date)
	},
}
