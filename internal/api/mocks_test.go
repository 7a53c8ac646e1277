package api

import (
	"context"

	"fundamental-analyst/analysis"
	"fundamental-analyst/models"
	"fundamental-analyst/pipeline"

	"github.com/google/uuid"
)

type mockAnalyzer struct {
	result *pipeline.Result
	err    error

	gotTicker      string
	gotAssumptions analysis.Assumptions
	regenerated    bool
}

func (m *mockAnalyzer) RunWithAssumptions(ctx context.Context, ticker string, a analysis.Assumptions) (*pipeline.Result, error) {
	m.gotTicker = ticker
	m.gotAssumptions = a
	return m.result, m.err
}

func (m *mockAnalyzer) RegenerateMemo(ctx context.Context, ticker string) (*pipeline.Result, error) {
	m.gotTicker = ticker
	m.regenerated = true
	return m.result, m.err
}

func (m *mockAnalyzer) Assumptions() analysis.Assumptions {
	return analysis.DefaultAssumptions()
}

type mockArtifacts struct {
	artifact *models.AnalysisArtifact
	err      error
}

func (m *mockArtifacts) LoadArtifact(ticker string) (*models.AnalysisArtifact, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.artifact, nil
}

type mockRunLog struct {
	runs      []models.PipelineRun
	err       error
	healthErr error

	gotTicker string
	gotLimit  int
	gotID     uuid.UUID
}

func (m *mockRunLog) GetRun(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error) {
	m.gotID = id
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, nil
}

func (m *mockRunLog) ListRuns(ctx context.Context, ticker string, limit int) ([]models.PipelineRun, error) {
	m.gotTicker = ticker
	m.gotLimit = limit
	return m.runs, m.err
}

func (m *mockRunLog) Health(ctx context.Context) error {
	return m.healthErr
}

func newTestResult(ticker string) *pipeline.Result {
	id := uuid.New()
	artifact := models.NewAnalysisArtifact(id, ticker)
	artifact.Ratios = &models.RatioReport{Ticker: ticker}
	artifact.Valuation = &models.ValuationResult{EnterpriseValue: 1234}
	return &pipeline.Result{
		RunID:        id,
		Artifact:     artifact,
		Memo:         &models.InvestmentMemo{RunID: id, Ticker: ticker, Rating: models.RecommendationActionBuy},
		ArtifactPath: "outputs/" + ticker + "_analysis.json",
		MemoPath:     "outputs/" + ticker + "_investment_memo.md",
	}
}
