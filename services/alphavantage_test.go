package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestAlphaVantage(t *testing.T, byFunction map[string]string) *AlphaVantageService {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := byFunction[r.URL.Query().Get("function")]
		if !ok {
			w.Write([]byte(`{"Error Message": "Invalid API call."}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewAlphaVantageService("test-key", server.URL)
}

func TestNewAlphaVantageService(t *testing.T) {
	service := NewAlphaVantageService("test-api-key", "")
	if service == nil {
		t.Fatal("NewAlphaVantageService should not return nil")
	}
	if service.apiKey != "test-api-key" {
		t.Errorf("apiKey = %v, want 'test-api-key'", service.apiKey)
	}
	if service.baseURL != "https://www.alphavantage.co/query" {
		t.Errorf("baseURL = %v", service.baseURL)
	}
	if service.Name() != "alphavantage" {
		t.Errorf("Name() = %s, want alphavantage", service.Name())
	}
}

func TestAVNumber(t *testing.T) {
	tests := []struct {
		in        avNumber
		wantValid bool
		want      string
	}{
		{"123456", true, "123456"},
		{"-42.5", true, "-42.5"},
		{"None", false, ""},
		{"none", false, ""},
		{"", false, ""},
		{"-", false, ""},
		{"garbage", false, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got := tt.in.decimal()
			if got.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if tt.wantValid && got.Decimal.String() != tt.want {
				t.Errorf("value = %s, want %s", got.Decimal, tt.want)
			}
		})
	}
}

func TestAlphaVantageStatements(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	service := newTestAlphaVantage(t, map[string]string{
		"INCOME_STATEMENT": `{"symbol": "IBM", "annualReports": [
			{"fiscalDateEnding": "2023-12-31", "reportedCurrency": "USD", "totalRevenue": "61860000000", "netIncome": "7502000000"},
			{"fiscalDateEnding": "2022-12-31", "reportedCurrency": "USD", "totalRevenue": "60530000000", "netIncome": "None"}
		]}`,
		"BALANCE_SHEET": `{"symbol": "IBM", "annualReports": [
			{"fiscalDateEnding": "2023-12-31", "totalAssets": "135241000000", "totalShareholderEquity": "22533000000", "shortLongTermDebtTotal": "56548000000", "cashAndCashEquivalentsAtCarryingValue": "13068000000"}
		]}`,
		"CASH_FLOW": `{"symbol": "IBM", "annualReports": [
			{"fiscalDateEnding": "2023-12-31", "operatingCashflow": "13931000000", "capitalExpenditures": "1865000000"}
		]}`,
	})
	ctx := context.Background()

	income, err := service.GetIncomeStatements(ctx, "IBM")
	if err != nil {
		t.Fatalf("GetIncomeStatements: %v", err)
	}
	if len(income) != 2 {
		t.Fatalf("expected 2 income statements, got %d", len(income))
	}
	if income[0].FiscalYear != 2023 || income[0].Revenue.Decimal.String() != "61860000000" {
		t.Errorf("unexpected latest income statement: %+v", income[0])
	}
	if income[1].NetIncome.Valid {
		t.Error(`"None" net income should be missing`)
	}

	balances, err := service.GetBalanceSheets(ctx, "IBM")
	if err != nil {
		t.Fatalf("GetBalanceSheets: %v", err)
	}
	if balances[0].TotalDebt.Decimal.String() != "56548000000" {
		t.Errorf("TotalDebt = %s", balances[0].TotalDebt.Decimal)
	}

	flows, err := service.GetCashFlowStatements(ctx, "IBM")
	if err != nil {
		t.Fatalf("GetCashFlowStatements: %v", err)
	}
	if flows[0].CapitalExpenditure.Decimal.String() != "1865000000" {
		t.Errorf("CapitalExpenditure = %s", flows[0].CapitalExpenditure.Decimal)
	}
	if flows[0].FreeCashFlow.Valid {
		t.Error("free cash flow is not reported and should be missing")
	}
}

func TestAlphaVantage_RateLimitNote(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	service := newTestAlphaVantage(t, map[string]string{
		"INCOME_STATEMENT": `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`,
	})

	_, err := service.GetIncomeStatements(context.Background(), "IBM")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestAlphaVantage_InformationNotice(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	service := newTestAlphaVantage(t, map[string]string{
		"OVERVIEW": `{"Information": "We have detected your API key as demo."}`,
	})

	_, err := service.GetCompanyProfile(context.Background(), "IBM")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestAlphaVantage_ErrorMessageIsClientError(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	service := newTestAlphaVantage(t, map[string]string{})

	_, err := service.GetBalanceSheets(context.Background(), "NOPE")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsClientError(err) {
		t.Errorf("expected client error, got %v", err)
	}
}

func TestAlphaVantage_EmptyReports(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	service := newTestAlphaVantage(t, map[string]string{
		"CASH_FLOW": `{}`,
	})

	if _, err := service.GetCashFlowStatements(context.Background(), "IBM"); err == nil {
		t.Error("expected error for empty annual reports")
	}
}

func TestAlphaVantageGetCompanyProfile(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	service := newTestAlphaVantage(t, map[string]string{
		"OVERVIEW": `{
			"Symbol": "IBM",
			"Name": "International Business Machines",
			"Exchange": "NYSE",
			"Currency": "USD",
			"Sector": "TECHNOLOGY",
			"Industry": "COMPUTER & OFFICE EQUIPMENT",
			"MarketCapitalization": "169000000000",
			"Beta": "None"
		}`,
	})

	profile, err := service.GetCompanyProfile(context.Background(), "IBM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "International Business Machines" {
		t.Errorf("Name = %s", profile.Name)
	}
	if profile.MarketCap.String() != "169000000000" {
		t.Errorf("MarketCap = %s", profile.MarketCap)
	}
	if profile.Beta != 0 {
		t.Errorf("Beta = %v, want 0 for None", profile.Beta)
	}
}

func TestAlphaVantageGetDailyBars(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	today := time.Now().UTC().Format(time.DateOnly)
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(time.DateOnly)
	old := time.Now().UTC().AddDate(-1, 0, 0).Format(time.DateOnly)

	service := newTestAlphaVantage(t, map[string]string{
		"TIME_SERIES_DAILY": `{"Time Series (Daily)": {
			"` + today + `": {"1. open": "10", "2. high": "12", "3. low": "9", "4. close": "11", "5. volume": "1000"},
			"` + yesterday + `": {"1. open": "9", "2. high": "10", "3. low": "8", "4. close": "10", "5. volume": "900"},
			"` + old + `": {"1. open": "5", "2. high": "6", "3. low": "4", "4. close": "5", "5. volume": "100"}
		}}`,
	})

	bars, err := service.GetDailyBars(context.Background(), "IBM", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected bars older than 30 days to be dropped, got %d", len(bars))
	}
	if bars[0].Timestamp.Format(time.DateOnly) != yesterday {
		t.Errorf("first bar = %s, want %s", bars[0].Timestamp.Format(time.DateOnly), yesterday)
	}
	if bars[1].Close.String() != "11" || bars[1].Volume != 1000 {
		t.Errorf("unexpected latest bar: %+v", bars[1])
	}
}

func TestAlphaVantageGetDailyBars_InvalidPrice(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	service := newTestAlphaVantage(t, map[string]string{
		"TIME_SERIES_DAILY": `{"Time Series (Daily)": {
			"2024-01-02": {"1. open": "x", "2. high": "12", "3. low": "9", "4. close": "11", "5. volume": "1000"}
		}}`,
	})

	if _, err := service.GetDailyBars(context.Background(), "IBM", 0); err == nil {
		t.Error("expected error for invalid open price")
	}
}
