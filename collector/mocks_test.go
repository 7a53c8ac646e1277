package collector

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"fundamental-analyst/models"

	"github.com/shopspring/decimal"
)

type mockFundamentals struct {
	income     []models.IncomeStatement
	balance    []models.BalanceSheet
	cashFlow   []models.CashFlowStatement
	profile    *models.CompanyProfile
	incomeErr  error
	balanceErr error
	cashErr    error
	profileErr error

	mu    sync.Mutex
	calls []string
}

func (m *mockFundamentals) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockFundamentals) called(call string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.calls, call)
}

func (m *mockFundamentals) Name() string { return "mock" }

func (m *mockFundamentals) GetIncomeStatements(ctx context.Context, ticker string) ([]models.IncomeStatement, error) {
	m.record("income:" + ticker)
	return m.income, m.incomeErr
}

func (m *mockFundamentals) GetBalanceSheets(ctx context.Context, ticker string) ([]models.BalanceSheet, error) {
	m.record("balance:" + ticker)
	return m.balance, m.balanceErr
}

func (m *mockFundamentals) GetCashFlowStatements(ctx context.Context, ticker string) ([]models.CashFlowStatement, error) {
	m.record("cashflow:" + ticker)
	return m.cashFlow, m.cashErr
}

func (m *mockFundamentals) GetCompanyProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	m.record("profile:" + ticker)
	return m.profile, m.profileErr
}

type mockPrices struct {
	bars []models.Bar
	err  error
	days int
}

func (m *mockPrices) Name() string { return "mock-prices" }

func (m *mockPrices) GetDailyBars(ctx context.Context, ticker string, days int) ([]models.Bar, error) {
	m.days = days
	return m.bars, m.err
}

type mockSnapshots struct {
	statements *models.FinancialStatementSet
	err        error
}

func (m *mockSnapshots) WriteStatements(set *models.FinancialStatementSet) (map[string]string, error) {
	m.statements = set
	if m.err != nil {
		return nil, m.err
	}
	return map[string]string{"income_statement": "raw/" + set.Ticker + "_income_statement.csv"}, nil
}

func (m *mockSnapshots) WritePrices(series *models.PriceSeries) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if series.Empty() {
		return "", nil
	}
	return "raw/" + series.Ticker + "_prices.csv", nil
}

func (m *mockSnapshots) WriteProfile(profile *models.CompanyProfile) (string, error) {
	if m.err != nil {
		return "", errors.New("profile write failed")
	}
	return "", nil
}

func d(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func yearEnd(year int) time.Time {
	return time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
}

// newValidFundamentals returns two years of statements, newest first as
// providers typically send them.
func newValidFundamentals() *mockFundamentals {
	return &mockFundamentals{
		income: []models.IncomeStatement{
			{FiscalYear: 2023, PeriodEnd: yearEnd(2023), Revenue: d(110), NetIncome: d(11)},
			{FiscalYear: 2022, PeriodEnd: yearEnd(2022), Revenue: d(100), NetIncome: d(10)},
		},
		balance: []models.BalanceSheet{
			{FiscalYear: 2023, PeriodEnd: yearEnd(2023), TotalAssets: d(200), TotalEquity: d(100), TotalDebt: d(50)},
			{FiscalYear: 2022, PeriodEnd: yearEnd(2022), TotalAssets: d(180), TotalEquity: d(90), TotalDebt: d(40)},
		},
		cashFlow: []models.CashFlowStatement{
			{FiscalYear: 2023, PeriodEnd: yearEnd(2023), OperatingCashFlow: d(30), CapitalExpenditure: d(-10)},
		},
		profile: &models.CompanyProfile{Ticker: "AAPL", Name: "Apple Inc.", Currency: "USD"},
	}
}
