package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MinPeriods is the number of annual periods needed to compute year-over-year
// growth.
const MinPeriods = 2

// IncomeStatement is one annual income statement. Absent line items are
// left invalid rather than zeroed.
type IncomeStatement struct {
	FiscalYear        int                 `json:"fiscal_year"`
	PeriodEnd         time.Time           `json:"period_end"`
	Revenue           decimal.NullDecimal `json:"revenue"`
	NetIncome         decimal.NullDecimal `json:"net_income"`
	SharesOutstanding decimal.NullDecimal `json:"shares_outstanding"`
}

// BalanceSheet is one annual balance sheet.
type BalanceSheet struct {
	FiscalYear  int                 `json:"fiscal_year"`
	PeriodEnd   time.Time           `json:"period_end"`
	TotalAssets decimal.NullDecimal `json:"total_assets"`
	TotalEquity decimal.NullDecimal `json:"total_equity"`
	TotalDebt   decimal.NullDecimal `json:"total_debt"`
	Cash        decimal.NullDecimal `json:"cash"`
}

// CashFlowStatement is one annual cash-flow statement. CapitalExpenditure is
// stored as reported by the provider, which may be signed either way.
type CashFlowStatement struct {
	FiscalYear         int                 `json:"fiscal_year"`
	PeriodEnd          time.Time           `json:"period_end"`
	OperatingCashFlow  decimal.NullDecimal `json:"operating_cash_flow"`
	CapitalExpenditure decimal.NullDecimal `json:"capital_expenditure"`
	FreeCashFlow       decimal.NullDecimal `json:"free_cash_flow"`
}

// FinancialStatementSet holds the annual statements for one ticker, each list
// ordered oldest first.
type FinancialStatementSet struct {
	Ticker   string              `json:"ticker"`
	Currency string              `json:"currency,omitempty"`
	Source   string              `json:"source"`
	Income   []IncomeStatement   `json:"income_statement"`
	Balance  []BalanceSheet      `json:"balance_sheet"`
	CashFlow []CashFlowStatement `json:"cash_flow"`
}

// Sort orders every statement list chronologically.
func (s *FinancialStatementSet) Sort() {
	sort.SliceStable(s.Income, func(i, j int) bool {
		return s.Income[i].PeriodEnd.Before(s.Income[j].PeriodEnd)
	})
	sort.SliceStable(s.Balance, func(i, j int) bool {
		return s.Balance[i].PeriodEnd.Before(s.Balance[j].PeriodEnd)
	})
	sort.SliceStable(s.CashFlow, func(i, j int) bool {
		return s.CashFlow[i].PeriodEnd.Before(s.CashFlow[j].PeriodEnd)
	})
}

// LatestIncome returns the most recent income statement, or nil.
func (s *FinancialStatementSet) LatestIncome() *IncomeStatement {
	if len(s.Income) == 0 {
		return nil
	}
	return &s.Income[len(s.Income)-1]
}

// PriorIncome returns the income statement before the latest one, or nil.
func (s *FinancialStatementSet) PriorIncome() *IncomeStatement {
	if len(s.Income) < 2 {
		return nil
	}
	return &s.Income[len(s.Income)-2]
}

// LatestBalance returns the most recent balance sheet, or nil.
func (s *FinancialStatementSet) LatestBalance() *BalanceSheet {
	if len(s.Balance) == 0 {
		return nil
	}
	return &s.Balance[len(s.Balance)-1]
}

// LatestCashFlow returns the most recent cash-flow statement, or nil.
func (s *FinancialStatementSet) LatestCashFlow() *CashFlowStatement {
	if len(s.CashFlow) == 0 {
		return nil
	}
	return &s.CashFlow[len(s.CashFlow)-1]
}

// Validate checks that the set can feed the ratio and valuation engines.
// Failures wrap ErrDataUnavailable.
func (s *FinancialStatementSet) Validate() error {
	if len(s.Income) < MinPeriods {
		return fmt.Errorf("%w: %s has %d income statement period(s), need %d",
			ErrDataUnavailable, s.Ticker, len(s.Income), MinPeriods)
	}
	if len(s.Balance) < MinPeriods {
		return fmt.Errorf("%w: %s has %d balance sheet period(s), need %d",
			ErrDataUnavailable, s.Ticker, len(s.Balance), MinPeriods)
	}
	if len(s.CashFlow) == 0 {
		return fmt.Errorf("%w: %s has no cash flow statement", ErrDataUnavailable, s.Ticker)
	}

	inc := s.LatestIncome()
	bal := s.LatestBalance()
	cf := s.LatestCashFlow()
	if inc.FiscalYear != bal.FiscalYear || inc.FiscalYear != cf.FiscalYear {
		return fmt.Errorf("%w: %s latest statements cover different fiscal years (income %d, balance %d, cash flow %d)",
			ErrDataUnavailable, s.Ticker, inc.FiscalYear, bal.FiscalYear, cf.FiscalYear)
	}

	required := []struct {
		name  string
		value decimal.NullDecimal
	}{
		{"revenue", inc.Revenue},
		{"net income", inc.NetIncome},
		{"total assets", bal.TotalAssets},
		{"total equity", bal.TotalEquity},
		{"operating cash flow", cf.OperatingCashFlow},
	}
	for _, r := range required {
		if !r.value.Valid {
			return fmt.Errorf("%w: %s latest period is missing %s", ErrDataUnavailable, s.Ticker, r.name)
		}
	}
	return nil
}

// MetricOf converts a nullable line item to a Metric.
func MetricOf(d decimal.NullDecimal) Metric {
	if !d.Valid {
		return Metric{}
	}
	return NewMetric(d.Decimal.InexactFloat64())
}
