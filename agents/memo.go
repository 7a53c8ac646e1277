package agents

import (
	"context"
	"fmt"
	"time"

	"fundamental-analyst/config"
	"fundamental-analyst/models"
	"fundamental-analyst/observability"
)

// MemoWriter turns an analysis into an investment memo through a language
// model.
type MemoWriter struct {
	llm     LLMService
	prompts *PromptSet
	format  string
	timeout time.Duration
	now     func() time.Time
}

// NewMemoWriter creates a MemoWriter. An empty format means markdown and a
// zero timeout leaves the model call bounded only by ctx.
func NewMemoWriter(llm LLMService, prompts *PromptSet, format string, timeout time.Duration) *MemoWriter {
	if format == "" {
		format = config.MemoFormatMarkdown
	}
	return &MemoWriter{
		llm:     llm,
		prompts: prompts,
		format:  format,
		timeout: timeout,
		now:     time.Now,
	}
}

// NewMemoWriterFromConfig loads the prompts named by cfg and builds a
// MemoWriter around llm.
func NewMemoWriterFromConfig(cfg *config.Config, llm LLMService) (*MemoWriter, error) {
	prompts, err := LoadPromptSet(cfg.Memo.PromptFile)
	if err != nil {
		return nil, err
	}
	return NewMemoWriter(llm, prompts, cfg.Memo.Format, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second), nil
}

// Generate asks the model for a memo on the artifact and parses the reply.
// Every failure wraps models.ErrMemoGenerationFailed.
func (w *MemoWriter) Generate(ctx context.Context, artifact *models.AnalysisArtifact) (*models.InvestmentMemo, error) {
	userPrompt, err := w.prompts.Render(artifact, w.format)
	if err != nil {
		return nil, memoFailed(err)
	}

	callCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	log := observability.WithStage(ctx, artifact.Ticker, models.StageMemo).With("model", w.llm.Model(), "format", w.format)
	log.Info("requesting investment memo")

	response, err := w.llm.InvokeWithPrompt(callCtx, w.prompts.System, userPrompt)
	if err != nil {
		return nil, memoFailed(fmt.Errorf("model call: %w", err))
	}

	var memo *models.InvestmentMemo
	if w.format == config.MemoFormatJSON {
		memo, err = parseJSONMemo(response)
	} else {
		memo, err = parseMarkdownMemo(response)
	}
	if err != nil {
		log.Debug("unparseable memo response", "response", response)
		return nil, memoFailed(err)
	}

	memo.RunID = artifact.RunID
	memo.Ticker = artifact.Ticker
	memo.Model = w.llm.Model()
	memo.GeneratedAt = w.now().UTC()

	log.Info("investment memo generated", "rating", memo.Rating, "conviction", memo.Conviction)
	return memo, nil
}

func memoFailed(err error) error {
	return fmt.Errorf("%w: %w", models.ErrMemoGenerationFailed, err)
}
