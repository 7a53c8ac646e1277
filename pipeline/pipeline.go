// Package pipeline sequences one analysis run: fetch, ratios, valuation,
// artifact, memo. Each step's failure aborts the run and names the step.
package pipeline

import (
	"context"
	"time"

	"fundamental-analyst/analysis"
	"fundamental-analyst/collector"
	"fundamental-analyst/models"
	"fundamental-analyst/observability"
	"fundamental-analyst/repository"

	"github.com/google/uuid"
)

// Fetcher retrieves the data for one ticker.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) (*collector.Dataset, error)
	Source() string
}

// MemoGenerator writes an investment memo for an analysis.
type MemoGenerator interface {
	Generate(ctx context.Context, artifact *models.AnalysisArtifact) (*models.InvestmentMemo, error)
}

// RunRecorder stores run records. Recording is best effort.
type RunRecorder interface {
	CreateRun(ctx context.Context, run *models.PipelineRun) error
	UpdateRun(ctx context.Context, run *models.PipelineRun) error
}

// Result is the outcome of a successful run.
type Result struct {
	RunID        uuid.UUID                `json:"run_id"`
	Artifact     *models.AnalysisArtifact `json:"artifact"`
	Memo         *models.InvestmentMemo   `json:"memo"`
	ArtifactPath string                   `json:"artifact_path"`
	MemoPath     string                   `json:"memo_path"`
}

// Orchestrator runs the analysis pipeline. It holds no per-run state and is
// safe for concurrent use on different tickers.
type Orchestrator struct {
	fetcher     Fetcher
	memos       MemoGenerator
	store       repository.ArtifactStore
	runs        RunRecorder
	assumptions analysis.Assumptions
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRunRecorder records every run through r.
func WithRunRecorder(r RunRecorder) Option {
	return func(o *Orchestrator) {
		o.runs = r
	}
}

// WithAssumptions sets the default valuation assumptions.
func WithAssumptions(a analysis.Assumptions) Option {
	return func(o *Orchestrator) {
		o.assumptions = a
	}
}

// New creates an Orchestrator using the default valuation assumptions
// unless WithAssumptions overrides them.
func New(fetcher Fetcher, memos MemoGenerator, store repository.ArtifactStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:     fetcher,
		memos:       memos,
		store:       store,
		assumptions: analysis.DefaultAssumptions(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Assumptions returns the default valuation assumptions.
func (o *Orchestrator) Assumptions() analysis.Assumptions {
	return o.assumptions
}

// Run analyzes ticker with the default assumptions.
func (o *Orchestrator) Run(ctx context.Context, ticker string) (*Result, error) {
	return o.RunWithAssumptions(ctx, ticker, o.assumptions)
}

// RunWithAssumptions runs the full pipeline. The artifact is persisted
// before the memo is requested, so a memo failure leaves it on disk. Errors
// are *models.StageError values wrapping the taxonomy sentinels.
func (o *Orchestrator) RunWithAssumptions(ctx context.Context, ticker string, a analysis.Assumptions) (*Result, error) {
	ticker, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, models.NewStageError(models.StageFetch, err)
	}

	run := models.NewPipelineRun(models.PipelineRunKindAnalyze, ticker)
	ctx = observability.ContextWithRunID(ctx, run.ID.String())

	return o.track(ctx, run, func() (*Result, error) {
		return o.analyze(ctx, run, a)
	})
}

func (o *Orchestrator) analyze(ctx context.Context, run *models.PipelineRun, a analysis.Assumptions) (*Result, error) {
	ticker := run.Ticker

	// Bad assumptions are known before any network call is made.
	if _, err := stage(ctx, ticker, models.StageValuation, func() (struct{}, error) {
		return struct{}{}, a.Validate()
	}); err != nil {
		return nil, err
	}

	ds, err := stage(ctx, ticker, models.StageFetch, func() (*collector.Dataset, error) {
		return o.fetcher.Fetch(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}

	ratios, err := stage(ctx, ticker, models.StageRatios, func() (*models.RatioReport, error) {
		return computeRatios(ds.Statements)
	})
	if err != nil {
		return nil, err
	}

	valuation, err := stage(ctx, ticker, models.StageValuation, func() (*models.ValuationResult, error) {
		return analysis.Valuate(ds.Statements, a)
	})
	if err != nil {
		return nil, err
	}

	artifact := models.NewAnalysisArtifact(run.ID, ticker)
	artifact.Source = o.fetcher.Source()
	artifact.Profile = ds.Profile
	artifact.Ratios = ratios
	artifact.Valuation = valuation
	artifact.Prices = ds.Prices.Summary()
	for kind, path := range ds.Snapshots {
		artifact.RawSnapshots[kind] = path
	}

	metrics := observability.GetMetrics()
	metrics.SetEnterpriseValue(ticker, valuation.EnterpriseValue)
	for _, name := range missingRatios(ratios) {
		metrics.RecordMissingRatio(name)
	}

	// A memo left by an earlier run would no longer describe the new artifact.
	artifactPath, err := stage(ctx, ticker, models.StagePersist, func() (string, error) {
		path, err := o.store.SaveArtifact(artifact)
		if err != nil {
			return "", err
		}
		return path, o.store.RemoveMemo(ticker)
	})
	if err != nil {
		return nil, err
	}
	run.ArtifactPath = artifactPath

	return o.writeMemo(ctx, run, artifact, artifactPath)
}

// RegenerateMemo loads the persisted artifact for ticker and reruns only
// memo generation.
func (o *Orchestrator) RegenerateMemo(ctx context.Context, ticker string) (*Result, error) {
	ticker, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, models.NewStageError(models.StageLoad, err)
	}

	run := models.NewPipelineRun(models.PipelineRunKindMemo, ticker)
	ctx = observability.ContextWithRunID(ctx, run.ID.String())

	return o.track(ctx, run, func() (*Result, error) {
		artifact, err := stage(ctx, ticker, models.StageLoad, func() (*models.AnalysisArtifact, error) {
			return o.store.LoadArtifact(ticker)
		})
		if err != nil {
			return nil, err
		}
		run.ArtifactPath = o.store.ArtifactPath(ticker)
		return o.writeMemo(ctx, run, artifact, run.ArtifactPath)
	})
}

func (o *Orchestrator) writeMemo(ctx context.Context, run *models.PipelineRun, artifact *models.AnalysisArtifact, artifactPath string) (*Result, error) {
	memo, err := stage(ctx, run.Ticker, models.StageMemo, func() (*models.InvestmentMemo, error) {
		return o.memos.Generate(ctx, artifact)
	})
	if err != nil {
		return nil, err
	}

	memoPath, err := stage(ctx, run.Ticker, models.StagePersist, func() (string, error) {
		return o.store.SaveMemo(memo)
	})
	if err != nil {
		return nil, err
	}
	run.MemoPath = memoPath

	return &Result{
		RunID:        run.ID,
		Artifact:     artifact,
		Memo:         memo,
		ArtifactPath: artifactPath,
		MemoPath:     memoPath,
	}, nil
}

// track records the run before and after fn and observes its metrics.
func (o *Orchestrator) track(ctx context.Context, run *models.PipelineRun, fn func() (*Result, error)) (*Result, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	log := observability.WithTicker(ctx, run.Ticker).With("kind", string(run.Kind))

	o.recordStart(ctx, run)
	log.Info("pipeline run started")

	result, err := fn()
	if err != nil {
		run.Fail(err)
		log.Error("pipeline run failed",
			"stage", string(run.FailedStage),
			"error_class", run.ErrorClass,
			"error", err)
	} else {
		run.Complete(result.Memo.Rating)
		metrics.RecordRecommendation(string(result.Memo.Rating))
		log.Info("pipeline run completed",
			"rating", result.Memo.Rating,
			"artifact", result.ArtifactPath,
			"memo", result.MemoPath,
			"duration_ms", run.DurationMs)
	}

	timer.ObservePipeline(string(run.Kind), string(run.Status))
	o.recordFinish(ctx, run)
	return result, err
}

func (o *Orchestrator) recordStart(ctx context.Context, run *models.PipelineRun) {
	if o.runs == nil {
		return
	}
	if err := o.runs.CreateRun(ctx, run); err != nil {
		observability.WithContext(ctx).Warn("failed to record pipeline run", "error", err)
	}
}

func (o *Orchestrator) recordFinish(ctx context.Context, run *models.PipelineRun) {
	if o.runs == nil {
		return
	}
	// The run outcome is recorded even when ctx was cancelled mid-run.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.runs.UpdateRun(recordCtx, run); err != nil {
		observability.WithContext(ctx).Warn("failed to update pipeline run", "error", err)
	}
}

// stage runs fn as the named pipeline stage, timing it and wrapping any
// error in a *models.StageError.
func stage[T any](ctx context.Context, ticker string, s models.Stage, fn func() (T, error)) (T, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	log := observability.WithStage(ctx, ticker, s)
	log.Debug("stage started")

	v, err := fn()
	timer.ObserveStage(string(s))
	if err != nil {
		metrics.RecordStageError(string(s), models.ErrorClass(err))
		return v, models.NewStageError(s, err)
	}

	log.Debug("stage completed", "duration_ms", timer.Duration().Milliseconds())
	return v, nil
}
