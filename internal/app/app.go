// Package app wires configuration into the analysis pipeline and its
// optional run log.
package app

import (
	"context"

	"fundamental-analyst/agents"
	"fundamental-analyst/analysis"
	"fundamental-analyst/collector"
	"fundamental-analyst/config"
	"fundamental-analyst/observability"
	"fundamental-analyst/pipeline"
	"fundamental-analyst/repository"
	"fundamental-analyst/services"
)

// App holds the wired dependencies of one process.
type App struct {
	cfg          *config.Config
	repo         *repository.Repository
	store        *repository.FileStore
	orchestrator *pipeline.Orchestrator
}

// New builds every component selected by cfg. A database that cannot be
// reached is logged and skipped; the run log is optional.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	llm, err := services.NewLLMService(ctx, cfg)
	if err != nil {
		return nil, err
	}
	fundamentals, err := services.NewFundamentalsProvider(cfg)
	if err != nil {
		return nil, err
	}
	prices, err := services.NewPriceProvider(cfg, fundamentals)
	if err != nil {
		return nil, err
	}
	memos, err := agents.NewMemoWriterFromConfig(cfg, llm)
	if err != nil {
		return nil, err
	}

	if cfg.FMP.UsingDemoKey && cfg.Data.Provider == config.DataProviderFMP {
		observability.Warn("FMP_API_KEY not set, using the public demo key (limited tickers)")
	}

	store := repository.NewFileStore(cfg.Storage.OutputDir, cfg.Storage.RawDataDir)
	fetcher := collector.New(fundamentals, prices, store, cfg.Data.PriceLookbackDays)

	a := &App{cfg: cfg, store: store}
	opts := []pipeline.Option{pipeline.WithAssumptions(Assumptions(cfg.Valuation))}
	if cfg.HasDatabase() {
		a.repo = connectRunLog(ctx, cfg.Database.URL)
		if a.repo != nil {
			opts = append(opts, pipeline.WithRunRecorder(a.repo))
		}
	}
	a.orchestrator = pipeline.New(fetcher, memos, store, opts...)

	observability.Info("analyst initialized",
		"llm_provider", cfg.LLM.Provider,
		"model", llm.Model(),
		"data_provider", fundamentals.Name(),
		"price_provider", cfg.Data.PriceProvider,
		"run_log", a.repo != nil)
	return a, nil
}

func connectRunLog(ctx context.Context, url string) *repository.Repository {
	repo, err := repository.NewRepository(ctx, url)
	if err != nil {
		observability.Warn("run log unavailable, continuing without it", "error", err)
		return nil
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		observability.Warn("run log schema setup failed, continuing without it", "error", err)
		repo.Close()
		return nil
	}
	return repo
}

// Assumptions converts the configured DCF defaults.
func Assumptions(v config.ValuationConfig) analysis.Assumptions {
	a := analysis.Assumptions{
		GrowthRate:      v.GrowthRate,
		DiscountRate:    v.DiscountRate,
		ProjectionYears: v.ProjectionYears,
	}
	if v.TerminalGrowthRate != nil {
		tg := *v.TerminalGrowthRate
		a.TerminalGrowthRate = &tg
	}
	return a
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Orchestrator returns the analysis pipeline.
func (a *App) Orchestrator() *pipeline.Orchestrator {
	return a.orchestrator
}

// Store returns the artifact store.
func (a *App) Store() *repository.FileStore {
	return a.store
}

// Repo returns the run log, or nil when no database is connected.
func (a *App) Repo() *repository.Repository {
	return a.repo
}

// Shutdown releases the database pool.
func (a *App) Shutdown() {
	if a.repo != nil {
		a.repo.Close()
	}
}
