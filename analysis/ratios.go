// Package analysis computes financial ratios and discounted cash flow
// valuations from normalized statements. Everything here is pure: the same
// statements always produce the same report.
package analysis

import (
	"fundamental-analyst/models"
)

// ComputeRatios derives profitability, leverage and growth ratios from the
// latest period of a validated statement set. Growth compares the latest
// income statement with the one before it.
//
// A zero denominator or an absent line item yields a missing metric rather
// than an error, so callers always receive a complete report.
func ComputeRatios(s *models.FinancialStatementSet) *models.RatioReport {
	report := &models.RatioReport{Ticker: s.Ticker}

	inc := s.LatestIncome()
	bal := s.LatestBalance()

	var (
		revenue     = models.MissingMetric()
		netIncome   = models.MissingMetric()
		totalAssets = models.MissingMetric()
		totalEquity = models.MissingMetric()
		totalDebt   = models.MissingMetric()
	)
	if inc != nil {
		report.Period = inc.FiscalYear
		revenue = models.MetricOf(inc.Revenue)
		netIncome = models.MetricOf(inc.NetIncome)
	}
	if bal != nil {
		totalAssets = models.MetricOf(bal.TotalAssets)
		totalEquity = models.MetricOf(bal.TotalEquity)
		totalDebt = models.MetricOf(bal.TotalDebt)
	}

	// Profitability
	report.NetProfitMargin = models.Ratio(netIncome, revenue)
	report.ReturnOnAssets = models.Ratio(netIncome, totalAssets)
	report.ReturnOnEquity = models.Ratio(netIncome, totalEquity)

	// Leverage
	report.DebtToEquity = models.Ratio(totalDebt, totalEquity)
	report.DebtToAssets = models.Ratio(totalDebt, totalAssets)
	report.EquityMultiplier = models.Ratio(totalAssets, totalEquity)

	// Growth
	report.RevenueGrowthYoY = models.MissingMetric()
	report.NetIncomeGrowthYoY = models.MissingMetric()
	if prior := s.PriorIncome(); prior != nil {
		report.PriorPeriod = prior.FiscalYear
		report.RevenueGrowthYoY = growth(revenue, models.MetricOf(prior.Revenue))
		report.NetIncomeGrowthYoY = growth(netIncome, models.MetricOf(prior.NetIncome))
	}

	return report
}

// growth returns (current - previous) / previous.
func growth(current, previous models.Metric) models.Metric {
	if !current.Valid || !previous.Valid {
		return models.MissingMetric()
	}
	return models.Ratio(models.NewMetric(current.Value-previous.Value), previous)
}
