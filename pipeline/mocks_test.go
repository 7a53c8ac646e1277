package pipeline

import (
	"context"
	"errors"
	"time"

	"fundamental-analyst/collector"
	"fundamental-analyst/models"

	"github.com/shopspring/decimal"
)

type mockFetcher struct {
	dataset *collector.Dataset
	err     error
	calls   int
}

func (m *mockFetcher) Fetch(ctx context.Context, ticker string) (*collector.Dataset, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	m.dataset.Statements.Ticker = ticker
	return m.dataset, nil
}

func (m *mockFetcher) Source() string { return "mock" }

type mockMemoGenerator struct {
	rating models.RecommendationAction
	err    error
	seen   *models.AnalysisArtifact
}

func (m *mockMemoGenerator) Generate(ctx context.Context, artifact *models.AnalysisArtifact) (*models.InvestmentMemo, error) {
	m.seen = artifact
	if m.err != nil {
		return nil, m.err
	}
	memo := &models.InvestmentMemo{
		RunID:       artifact.RunID,
		Ticker:      artifact.Ticker,
		Rating:      m.rating,
		GeneratedAt: time.Now().UTC(),
	}
	for _, s := range models.MemoSections {
		memo.SetSection(s, string(s)+" body.")
	}
	return memo, nil
}

type mockRunRecorder struct {
	created []models.PipelineRun
	updated []models.PipelineRun
	err     error
}

func (m *mockRunRecorder) CreateRun(ctx context.Context, run *models.PipelineRun) error {
	m.created = append(m.created, *run)
	return m.err
}

func (m *mockRunRecorder) UpdateRun(ctx context.Context, run *models.PipelineRun) error {
	m.updated = append(m.updated, *run)
	return m.err
}

var errUpstream = errors.New("upstream exploded")

func d(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func yearEnd(year int) time.Time {
	return time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
}

func newTestDataset() *collector.Dataset {
	return &collector.Dataset{
		Statements: &models.FinancialStatementSet{
			Ticker: "AAPL",
			Source: "mock",
			Income: []models.IncomeStatement{
				{FiscalYear: 2022, PeriodEnd: yearEnd(2022), Revenue: d(100), NetIncome: d(10), SharesOutstanding: d(10)},
				{FiscalYear: 2023, PeriodEnd: yearEnd(2023), Revenue: d(110), NetIncome: d(12), SharesOutstanding: d(10)},
			},
			Balance: []models.BalanceSheet{
				{FiscalYear: 2022, PeriodEnd: yearEnd(2022), TotalAssets: d(180), TotalEquity: d(90)},
				{FiscalYear: 2023, PeriodEnd: yearEnd(2023), TotalAssets: d(200), TotalEquity: d(0), TotalDebt: d(50), Cash: d(20)},
			},
			CashFlow: []models.CashFlowStatement{
				{FiscalYear: 2023, PeriodEnd: yearEnd(2023), OperatingCashFlow: d(1200), CapitalExpenditure: d(-200)},
			},
		},
		Prices:    &models.PriceSeries{Ticker: "AAPL"},
		Snapshots: map[string]string{"income_statement": "data/raw/AAPL_income_statement.csv"},
	}
}
