package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fundamental-analyst/analysis"
	"fundamental-analyst/internal/api"
	"fundamental-analyst/models"
	"fundamental-analyst/observability"
	"fundamental-analyst/pipeline"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Fetch statements, value the company and write an investment memo",
	Long: `Run the full pipeline for one ticker: fetch statements, compute ratios,
run the DCF valuation, persist the analysis artifact, then generate and persist
the investment memo. The artifact is kept when memo generation fails.

Examples:
  analyst analyze AAPL
  analyst analyze msft --growth 0.08 --discount 0.09 --terminal-growth 0.025
  analyst analyze NVDA --years 10 --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		orchestrator := a.Orchestrator()
		assumptions, err := assumptionFlags(cmd, orchestrator.Assumptions())
		if err != nil {
			return err
		}

		result, err := orchestrator.RunWithAssumptions(ctx, args[0], assumptions)
		pushMetrics(tickerLabel(args[0]))
		if err != nil {
			if errors.Is(err, models.ErrMemoGenerationFailed) {
				ticker := tickerLabel(args[0])
				fmt.Fprintf(cmd.ErrOrStderr(), "Analysis saved to %s; rerun `analyst memo %s` to retry the memo.\n",
					a.Store().ArtifactPath(ticker), ticker)
			}
			return err
		}

		printResult(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Float64("growth", analysis.DefaultGrowthRate, "annual free cash flow growth rate over the projection")
	analyzeCmd.Flags().Float64("discount", analysis.DefaultDiscountRate, "discount rate")
	analyzeCmd.Flags().Float64("terminal-growth", 0, "terminal growth rate (defaults to --growth)")
	analyzeCmd.Flags().Int("years", analysis.DefaultProjectionYears, "projection years")
	analyzeCmd.Flags().Duration("timeout", 10*time.Minute, "timeout for the whole run (0 disables)")
}

// assumptionFlags overrides base with the valuation flags the user set.
func assumptionFlags(cmd *cobra.Command, base analysis.Assumptions) (analysis.Assumptions, error) {
	a := base
	flags := cmd.Flags()
	var err error
	if flags.Changed("growth") {
		if a.GrowthRate, err = flags.GetFloat64("growth"); err != nil {
			return a, err
		}
	}
	if flags.Changed("discount") {
		if a.DiscountRate, err = flags.GetFloat64("discount"); err != nil {
			return a, err
		}
	}
	if flags.Changed("terminal-growth") {
		tg, err := flags.GetFloat64("terminal-growth")
		if err != nil {
			return a, err
		}
		a.TerminalGrowthRate = &tg
	}
	if flags.Changed("years") {
		if a.ProjectionYears, err = flags.GetInt("years"); err != nil {
			return a, err
		}
	}
	return a, nil
}

// --- Memo Command ---

var memoCmd = &cobra.Command{
	Use:   "memo [ticker]",
	Short: "Regenerate the investment memo from a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		result, err := a.Orchestrator().RegenerateMemo(ctx, args[0])
		pushMetrics(tickerLabel(args[0]))
		if err != nil {
			return err
		}

		printResult(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	memoCmd.Flags().Duration("timeout", 5*time.Minute, "timeout for the whole run (0 disables)")
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis pipeline over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		var runs api.RunLog
		if repo := a.Repo(); repo != nil {
			runs = repo
		}
		handler := api.NewHandler(a.Orchestrator(), a.Store(), runs)

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.HTTP.Addr
		}
		requestTimeout := time.Duration(cfg.HTTP.RequestTimeoutSeconds) * time.Second
		server := &http.Server{
			Addr:              addr,
			Handler:           api.NewRouter(handler, cfg),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      requestTimeout + 10*time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			observability.Info("starting HTTP server", "addr", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		observability.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		observability.Info("HTTP server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides HTTP_ADDR)")
}

// tickerLabel returns the normalized ticker, or the raw argument when it
// does not normalize.
func tickerLabel(raw string) string {
	if t, err := models.NormalizeTicker(raw); err == nil {
		return t
	}
	return raw
}

func printResult(w io.Writer, r *pipeline.Result) {
	p := message.NewPrinter(language.English)
	v := r.Artifact.Valuation

	p.Fprintf(w, "%s: %s", r.Artifact.Ticker, r.Memo.Rating)
	if r.Memo.Conviction != "" {
		p.Fprintf(w, " (%s conviction)", r.Memo.Conviction)
	}
	p.Fprintln(w)
	if v != nil {
		p.Fprintf(w, "  Enterprise value:  %.0f\n", v.EnterpriseValue)
		if v.ImpliedSharePrice.Valid {
			p.Fprintf(w, "  Implied price:     %.2f\n", v.ImpliedSharePrice.Value)
		}
	}
	p.Fprintf(w, "  Analysis:          %s\n", r.ArtifactPath)
	p.Fprintf(w, "  Memo:              %s\n", r.MemoPath)
	p.Fprintf(w, "  Run ID:            %s\n", r.RunID)
}
