package pipeline

import (
	"fmt"

	"fundamental-analyst/analysis"
	"fundamental-analyst/models"
)

func computeRatios(statements *models.FinancialStatementSet) (*models.RatioReport, error) {
	if statements == nil || len(statements.Income) == 0 {
		return nil, fmt.Errorf("%w: no statements to analyze", models.ErrDataUnavailable)
	}
	return analysis.ComputeRatios(statements), nil
}

// missingRatios names the ratios that could not be computed.
func missingRatios(r *models.RatioReport) []string {
	all := []struct {
		name  string
		value models.Metric
	}{
		{"net_profit_margin", r.NetProfitMargin},
		{"return_on_assets", r.ReturnOnAssets},
		{"return_on_equity", r.ReturnOnEquity},
		{"debt_to_equity", r.DebtToEquity},
		{"debt_to_assets", r.DebtToAssets},
		{"equity_multiplier", r.EquityMultiplier},
		{"revenue_growth_yoy", r.RevenueGrowthYoY},
		{"net_income_growth_yoy", r.NetIncomeGrowthYoY},
	}

	var missing []string
	for _, m := range all {
		if !m.value.Valid {
			missing = append(missing, m.name)
		}
	}
	return missing
}
