package agents

import (
	"context"
	"time"

	"fundamental-analyst/models"

	"github.com/google/uuid"
)

type mockLLMService struct {
	response     string
	err          error
	delay        time.Duration
	systemPrompt string
	userPrompt   string
	calls        int
}

func (m *mockLLMService) InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls++
	m.systemPrompt = systemPrompt
	m.userPrompt = userPrompt
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) Model() string {
	return "mock-model"
}

func newTestArtifact() *models.AnalysisArtifact {
	a := models.NewAnalysisArtifact(uuid.New(), "AAPL")
	a.Source = "fmp"
	a.Profile = &models.CompanyProfile{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology"}
	a.Ratios = &models.RatioReport{
		Ticker:             "AAPL",
		Period:             2023,
		PriorPeriod:        2022,
		NetProfitMargin:    models.NewMetric(0.253062),
		ReturnOnAssets:     models.NewMetric(0.275),
		ReturnOnEquity:     models.NewMetric(1.5608),
		DebtToEquity:       models.NewMetric(1.79),
		DebtToAssets:       models.MissingMetric(),
		EquityMultiplier:   models.NewMetric(5.67),
		RevenueGrowthYoY:   models.NewMetric(-0.028),
		NetIncomeGrowthYoY: models.NewMetric(0.10),
	}
	a.Valuation = &models.ValuationResult{
		BaseFreeCashFlow:          99584000000,
		GrowthRate:                0.05,
		DiscountRate:              0.10,
		TerminalGrowthRate:        0.05,
		ProjectionYears:           5,
		PresentValueOfProjections: 396328000000,
		TerminalValue:             2668623000000,
		PresentValueOfTerminal:    1657014000000,
		EnterpriseValue:           2053342000000,
		EquityValue:               models.MissingMetric(),
		ImpliedSharePrice:         models.NewMetric(131.456),
	}
	return a
}

const validMarkdownMemo = `# Investment Memo: AAPL

## Executive Summary
Apple remains a high-quality compounder.

## Investment Thesis
Services growth and buybacks drive value.

### Value drivers
- Installed base
- Pricing power

## Financial Analysis
Net margin of 25.31% and ROE of 156.08%.

## Valuation Assessment
The DCF implies $131.46 per share.

## Key Risks
Regulatory pressure on the App Store.

## Recommendation
Rating: Hold
Conviction: Medium

Catalysts: new product cycles.
`
