package models

import (
	"time"

	"github.com/google/uuid"
)

// RatioReport holds the ratios computed from the latest period, with growth
// measured against the prior period. Ratios are plain fractions.
type RatioReport struct {
	Ticker      string `json:"ticker"`
	Period      int    `json:"period"`
	PriorPeriod int    `json:"prior_period"`

	NetProfitMargin Metric `json:"net_profit_margin"`
	ReturnOnAssets  Metric `json:"return_on_assets"`
	ReturnOnEquity  Metric `json:"return_on_equity"`

	DebtToEquity     Metric `json:"debt_to_equity"`
	DebtToAssets     Metric `json:"debt_to_assets"`
	EquityMultiplier Metric `json:"equity_multiplier"`

	RevenueGrowthYoY   Metric `json:"revenue_growth_yoy"`
	NetIncomeGrowthYoY Metric `json:"net_income_growth_yoy"`
}

// ValuationResult is the outcome of a discounted cash flow valuation.
type ValuationResult struct {
	BaseFreeCashFlow   float64 `json:"base_free_cash_flow"`
	GrowthRate         float64 `json:"growth_rate"`
	DiscountRate       float64 `json:"discount_rate"`
	TerminalGrowthRate float64 `json:"terminal_growth_rate"`
	ProjectionYears    int     `json:"projection_years"`

	ProjectedFreeCashFlows  []float64 `json:"projected_free_cash_flows"`
	DiscountedFreeCashFlows []float64 `json:"discounted_free_cash_flows"`

	PresentValueOfProjections float64 `json:"present_value_of_projections"`
	TerminalValue             float64 `json:"terminal_value"`
	PresentValueOfTerminal    float64 `json:"present_value_of_terminal"`
	EnterpriseValue           float64 `json:"enterprise_value"`

	// Derived from the latest balance sheet and share count when available.
	EquityValue       Metric `json:"equity_value"`
	ImpliedSharePrice Metric `json:"implied_share_price"`
}

// AnalysisArtifact is the persisted result of one analysis run, written
// before memo generation.
type AnalysisArtifact struct {
	RunID        uuid.UUID         `json:"run_id"`
	Ticker       string            `json:"ticker"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Source       string            `json:"source"`
	Profile      *CompanyProfile   `json:"profile,omitempty"`
	Ratios       *RatioReport      `json:"ratios"`
	Valuation    *ValuationResult  `json:"valuation"`
	Prices       *PriceSummary     `json:"prices,omitempty"`
	RawSnapshots map[string]string `json:"raw_snapshots,omitempty"`
}

// NewAnalysisArtifact creates an artifact for a fresh run.
func NewAnalysisArtifact(runID uuid.UUID, ticker string) *AnalysisArtifact {
	return &AnalysisArtifact{
		RunID:        runID,
		Ticker:       ticker,
		GeneratedAt:  time.Now().UTC(),
		RawSnapshots: make(map[string]string),
	}
}
