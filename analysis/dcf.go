package analysis

import (
	"fmt"
	"math"

	"fundamental-analyst/models"
)

const (
	DefaultGrowthRate      = 0.05
	DefaultDiscountRate    = 0.10
	DefaultProjectionYears = 5
)

// Assumptions parameterize a DCF valuation. A nil TerminalGrowthRate means
// the terminal value grows at GrowthRate.
type Assumptions struct {
	GrowthRate         float64  `json:"growth_rate"`
	DiscountRate       float64  `json:"discount_rate"`
	TerminalGrowthRate *float64 `json:"terminal_growth_rate,omitempty"`
	ProjectionYears    int      `json:"projection_years"`
}

// DefaultAssumptions returns 5% growth, a 10% discount rate and a five year
// projection.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		GrowthRate:      DefaultGrowthRate,
		DiscountRate:    DefaultDiscountRate,
		ProjectionYears: DefaultProjectionYears,
	}
}

// Terminal returns the growth rate used for the terminal value.
func (a Assumptions) Terminal() float64 {
	if a.TerminalGrowthRate != nil {
		return *a.TerminalGrowthRate
	}
	return a.GrowthRate
}

// Validate rejects assumptions for which the Gordon growth terminal value is
// undefined or the discounting is meaningless.
func (a Assumptions) Validate() error {
	tg := a.Terminal()
	rates := []struct {
		name  string
		value float64
	}{
		{"growth rate", a.GrowthRate},
		{"discount rate", a.DiscountRate},
		{"terminal growth rate", tg},
	}
	for _, r := range rates {
		if math.IsNaN(r.value) || math.IsInf(r.value, 0) {
			return fmt.Errorf("%w: %s must be finite", models.ErrInvalidValuationAssumptions, r.name)
		}
	}
	if a.ProjectionYears < 1 {
		return fmt.Errorf("%w: projection years must be at least 1, got %d",
			models.ErrInvalidValuationAssumptions, a.ProjectionYears)
	}
	if a.DiscountRate <= -1 {
		return fmt.Errorf("%w: discount rate must be greater than -100%%, got %g",
			models.ErrInvalidValuationAssumptions, a.DiscountRate)
	}
	if a.DiscountRate <= tg {
		return fmt.Errorf("%w: discount rate %g must exceed terminal growth rate %g",
			models.ErrInvalidValuationAssumptions, a.DiscountRate, tg)
	}
	return nil
}

// Valuate runs a simplified discounted cash flow valuation on the latest
// cash-flow period. Capital expenditure is taken as an outflow regardless of
// the sign the provider reports it with; when it is absent it counts as zero.
func Valuate(s *models.FinancialStatementSet, a Assumptions) (*models.ValuationResult, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	cf := s.LatestCashFlow()
	if cf == nil || !cf.OperatingCashFlow.Valid {
		return nil, fmt.Errorf("%w: %s has no operating cash flow", models.ErrDataUnavailable, s.Ticker)
	}
	base := cf.OperatingCashFlow.Decimal
	if cf.CapitalExpenditure.Valid {
		base = base.Sub(cf.CapitalExpenditure.Decimal.Abs())
	}

	result, err := Project(base.InexactFloat64(), a)
	if err != nil {
		return nil, err
	}

	if bal := s.LatestBalance(); bal != nil && bal.TotalDebt.Valid {
		equity := result.EnterpriseValue - bal.TotalDebt.Decimal.InexactFloat64()
		if bal.Cash.Valid {
			equity += bal.Cash.Decimal.InexactFloat64()
		}
		result.EquityValue = models.NewMetric(equity)
	}
	if inc := s.LatestIncome(); inc != nil {
		result.ImpliedSharePrice = models.Ratio(result.EquityValue, models.MetricOf(inc.SharesOutstanding))
	}

	return result, nil
}

// Project discounts baseFCF grown over the projection horizon plus a Gordon
// growth terminal value.
func Project(baseFCF float64, a Assumptions) (*models.ValuationResult, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	tg := a.Terminal()

	result := &models.ValuationResult{
		BaseFreeCashFlow:        baseFCF,
		GrowthRate:              a.GrowthRate,
		DiscountRate:            a.DiscountRate,
		TerminalGrowthRate:      tg,
		ProjectionYears:         a.ProjectionYears,
		ProjectedFreeCashFlows:  make([]float64, 0, a.ProjectionYears),
		DiscountedFreeCashFlows: make([]float64, 0, a.ProjectionYears),
	}

	fcf := baseFCF
	for year := 1; year <= a.ProjectionYears; year++ {
		fcf *= 1 + a.GrowthRate
		pv := fcf / math.Pow(1+a.DiscountRate, float64(year))
		result.ProjectedFreeCashFlows = append(result.ProjectedFreeCashFlows, fcf)
		result.DiscountedFreeCashFlows = append(result.DiscountedFreeCashFlows, pv)
		result.PresentValueOfProjections += pv
	}

	result.TerminalValue = fcf * (1 + tg) / (a.DiscountRate - tg)
	result.PresentValueOfTerminal = result.TerminalValue / math.Pow(1+a.DiscountRate, float64(a.ProjectionYears))
	result.EnterpriseValue = result.PresentValueOfProjections + result.PresentValueOfTerminal

	if math.IsNaN(result.EnterpriseValue) || math.IsInf(result.EnterpriseValue, 0) {
		return nil, fmt.Errorf("%w: enterprise value is not finite", models.ErrInvalidValuationAssumptions)
	}
	return result, nil
}
