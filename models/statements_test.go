package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func nd(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func yearEnd(y int) time.Time {
	return time.Date(y, 12, 31, 0, 0, 0, 0, time.UTC)
}

func validSet() *FinancialStatementSet {
	return &FinancialStatementSet{
		Ticker: "TEST",
		Income: []IncomeStatement{
			{FiscalYear: 2022, PeriodEnd: yearEnd(2022), Revenue: nd(100), NetIncome: nd(10)},
			{FiscalYear: 2023, PeriodEnd: yearEnd(2023), Revenue: nd(110), NetIncome: nd(12)},
		},
		Balance: []BalanceSheet{
			{FiscalYear: 2022, PeriodEnd: yearEnd(2022), TotalAssets: nd(200), TotalEquity: nd(80)},
			{FiscalYear: 2023, PeriodEnd: yearEnd(2023), TotalAssets: nd(220), TotalEquity: nd(90)},
		},
		CashFlow: []CashFlowStatement{
			{FiscalYear: 2023, PeriodEnd: yearEnd(2023), OperatingCashFlow: nd(30), CapitalExpenditure: nd(-5)},
		},
	}
}

func TestFinancialStatementSet_Sort(t *testing.T) {
	set := validSet()
	set.Income[0], set.Income[1] = set.Income[1], set.Income[0]
	set.Balance[0], set.Balance[1] = set.Balance[1], set.Balance[0]

	set.Sort()

	if set.LatestIncome().FiscalYear != 2023 {
		t.Errorf("LatestIncome().FiscalYear = %d, want 2023", set.LatestIncome().FiscalYear)
	}
	if set.PriorIncome().FiscalYear != 2022 {
		t.Errorf("PriorIncome().FiscalYear = %d, want 2022", set.PriorIncome().FiscalYear)
	}
	if set.LatestBalance().FiscalYear != 2023 {
		t.Errorf("LatestBalance().FiscalYear = %d, want 2023", set.LatestBalance().FiscalYear)
	}
}

func TestFinancialStatementSet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FinancialStatementSet)
		wantErr bool
	}{
		{"valid", func(*FinancialStatementSet) {}, false},
		{"one income period", func(s *FinancialStatementSet) { s.Income = s.Income[1:] }, true},
		{"one balance period", func(s *FinancialStatementSet) { s.Balance = s.Balance[1:] }, true},
		{"no cash flow", func(s *FinancialStatementSet) { s.CashFlow = nil }, true},
		{"missing revenue", func(s *FinancialStatementSet) { s.Income[1].Revenue = decimal.NullDecimal{} }, true},
		{"missing net income", func(s *FinancialStatementSet) { s.Income[1].NetIncome = decimal.NullDecimal{} }, true},
		{"missing total equity", func(s *FinancialStatementSet) { s.Balance[1].TotalEquity = decimal.NullDecimal{} }, true},
		{"missing operating cash flow", func(s *FinancialStatementSet) { s.CashFlow[0].OperatingCashFlow = decimal.NullDecimal{} }, true},
		{"missing prior revenue", func(s *FinancialStatementSet) { s.Income[0].Revenue = decimal.NullDecimal{} }, false},
		{"missing capex", func(s *FinancialStatementSet) { s.CashFlow[0].CapitalExpenditure = decimal.NullDecimal{} }, false},
		{"cash flow a year behind", func(s *FinancialStatementSet) {
			s.CashFlow[0].FiscalYear = 2022
			s.CashFlow[0].PeriodEnd = yearEnd(2022)
		}, true},
		{"balance sheet a year ahead", func(s *FinancialStatementSet) {
			s.Balance = append(s.Balance, BalanceSheet{FiscalYear: 2024, PeriodEnd: yearEnd(2024), TotalAssets: nd(240), TotalEquity: nd(95)})
		}, true},
		{"older cash flow history", func(s *FinancialStatementSet) {
			s.CashFlow = append([]CashFlowStatement{{FiscalYear: 2021, PeriodEnd: yearEnd(2021), OperatingCashFlow: nd(20)}}, s.CashFlow...)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := validSet()
			tt.mutate(set)
			err := set.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrDataUnavailable) {
				t.Errorf("Validate() error should wrap ErrDataUnavailable, got %v", err)
			}
		})
	}
}

func TestMetricOf(t *testing.T) {
	if m := MetricOf(decimal.NullDecimal{}); m.Valid {
		t.Error("MetricOf(null) should be missing")
	}
	if m := MetricOf(nd(42)); !m.Valid || m.Value != 42 {
		t.Errorf("MetricOf(42) = %+v", m)
	}
}

func TestPriceSeries_Summary(t *testing.T) {
	var empty *PriceSeries
	if empty.Summary() != nil {
		t.Error("Summary of nil series should be nil")
	}

	series := &PriceSeries{
		Ticker: "TEST",
		Bars: []Bar{
			{Timestamp: yearEnd(2022), High: decimal.NewFromInt(105), Low: decimal.NewFromInt(95), Close: decimal.NewFromInt(100)},
			{Timestamp: yearEnd(2023), High: decimal.NewFromInt(130), Low: decimal.NewFromInt(90), Close: decimal.NewFromInt(120)},
		},
	}
	sum := series.Summary()
	if sum.Bars != 2 {
		t.Errorf("Bars = %d, want 2", sum.Bars)
	}
	if sum.LatestClose.Value != 120 {
		t.Errorf("LatestClose = %v, want 120", sum.LatestClose)
	}
	if sum.PeriodHigh.Value != 130 || sum.PeriodLow.Value != 90 {
		t.Errorf("High/Low = %v/%v, want 130/90", sum.PeriodHigh, sum.PeriodLow)
	}
	if !sum.PeriodReturn.Valid || sum.PeriodReturn.Value != 0.2 {
		t.Errorf("PeriodReturn = %v, want 0.2", sum.PeriodReturn)
	}
}
