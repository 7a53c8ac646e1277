package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fundamental-analyst/models"
)

// ErrRateLimited is returned when Alpha Vantage answers with its throttling
// notice instead of data.
var ErrRateLimited = errors.New("rate limit reached")

// AlphaVantageService handles communication with Alpha Vantage API
type AlphaVantageService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewAlphaVantageService creates a new AlphaVantageService instance
func NewAlphaVantageService(apiKey, baseURL string) *AlphaVantageService {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co/query"
	}
	return &AlphaVantageService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

// Name identifies the provider in artifacts and logs.
func (s *AlphaVantageService) Name() string {
	return "alphavantage"
}

// avNumber is a numeric field as Alpha Vantage sends it: a string that may
// be "None" or empty.
type avNumber string

func (n avNumber) decimal() decimal.NullDecimal {
	v := strings.TrimSpace(string(n))
	if v == "" || strings.EqualFold(v, "none") || v == "-" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// avEnvelope carries the status fields Alpha Vantage returns with HTTP 200.
type avEnvelope struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (e avEnvelope) err() error {
	switch {
	case e.ErrorMessage != "":
		return ClientError(fmt.Errorf("alphavantage: %s", e.ErrorMessage))
	case e.Note != "":
		return fmt.Errorf("alphavantage: %w: %s", ErrRateLimited, e.Note)
	case e.Information != "":
		return fmt.Errorf("alphavantage: %w: %s", ErrRateLimited, e.Information)
	}
	return nil
}

type avIncomeReport struct {
	FiscalDateEnding string   `json:"fiscalDateEnding"`
	ReportedCurrency string   `json:"reportedCurrency"`
	TotalRevenue     avNumber `json:"totalRevenue"`
	NetIncome        avNumber `json:"netIncome"`
}

type avBalanceReport struct {
	FiscalDateEnding                      string   `json:"fiscalDateEnding"`
	TotalAssets                           avNumber `json:"totalAssets"`
	TotalShareholderEquity                avNumber `json:"totalShareholderEquity"`
	ShortLongTermDebtTotal                avNumber `json:"shortLongTermDebtTotal"`
	CashAndCashEquivalentsAtCarryingValue avNumber `json:"cashAndCashEquivalentsAtCarryingValue"`
}

type avCashFlowReport struct {
	FiscalDateEnding    string   `json:"fiscalDateEnding"`
	OperatingCashflow   avNumber `json:"operatingCashflow"`
	CapitalExpenditures avNumber `json:"capitalExpenditures"`
}

type avStatements[T any] struct {
	avEnvelope
	Symbol        string `json:"symbol"`
	AnnualReports []T    `json:"annualReports"`
}

// OverviewResponse represents the company overview response from Alpha Vantage
type OverviewResponse struct {
	avEnvelope
	Symbol            string   `json:"Symbol"`
	Name              string   `json:"Name"`
	Description       string   `json:"Description"`
	Exchange          string   `json:"Exchange"`
	Currency          string   `json:"Currency"`
	Sector            string   `json:"Sector"`
	Industry          string   `json:"Industry"`
	MarketCap         avNumber `json:"MarketCapitalization"`
	Beta              avNumber `json:"Beta"`
	SharesOutstanding avNumber `json:"SharesOutstanding"`
}

type avDailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type avDailySeries struct {
	avEnvelope
	Series map[string]avDailyBar `json:"Time Series (Daily)"`
}

// enveloped is satisfied by every response type so avQuery can surface
// throttling and error notices.
type enveloped interface {
	err() error
}

// avQuery calls one Alpha Vantage function behind the circuit breaker.
func avQuery[T enveloped](ctx context.Context, s *AlphaVantageService, function, ticker string, extra url.Values) (T, error) {
	return instrumented(ctx, BreakerAlphaVantage, strings.ToLower(function), func() (T, error) {
		params := url.Values{}
		for k, v := range extra {
			params[k] = v
		}
		params.Set("function", function)
		params.Set("symbol", ticker)
		params.Set("apikey", s.apiKey)
		reqURL := s.baseURL + "?" + params.Encode()

		var out T
		if err := getJSON(ctx, s.httpClient, reqURL, &out); err != nil {
			return out, err
		}
		if err := out.err(); err != nil {
			return out, err
		}
		return out, nil
	})
}

// GetIncomeStatements returns annual income statements for ticker
func (s *AlphaVantageService) GetIncomeStatements(ctx context.Context, ticker string) ([]models.IncomeStatement, error) {
	resp, err := avQuery[avStatements[avIncomeReport]](ctx, s, "INCOME_STATEMENT", ticker, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.AnnualReports) == 0 {
		return nil, ClientError(fmt.Errorf("no income statements for %s", ticker))
	}

	out := make([]models.IncomeStatement, 0, len(resp.AnnualReports))
	for _, r := range resp.AnnualReports {
		end, year, err := parsePeriod(r.FiscalDateEnding, "")
		if err != nil {
			return nil, err
		}
		out = append(out, models.IncomeStatement{
			FiscalYear: year,
			PeriodEnd:  end,
			Revenue:    r.TotalRevenue.decimal(),
			NetIncome:  r.NetIncome.decimal(),
		})
	}
	return out, nil
}

// GetBalanceSheets returns annual balance sheets for ticker
func (s *AlphaVantageService) GetBalanceSheets(ctx context.Context, ticker string) ([]models.BalanceSheet, error) {
	resp, err := avQuery[avStatements[avBalanceReport]](ctx, s, "BALANCE_SHEET", ticker, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.AnnualReports) == 0 {
		return nil, ClientError(fmt.Errorf("no balance sheets for %s", ticker))
	}

	out := make([]models.BalanceSheet, 0, len(resp.AnnualReports))
	for _, r := range resp.AnnualReports {
		end, year, err := parsePeriod(r.FiscalDateEnding, "")
		if err != nil {
			return nil, err
		}
		out = append(out, models.BalanceSheet{
			FiscalYear:  year,
			PeriodEnd:   end,
			TotalAssets: r.TotalAssets.decimal(),
			TotalEquity: r.TotalShareholderEquity.decimal(),
			TotalDebt:   r.ShortLongTermDebtTotal.decimal(),
			Cash:        r.CashAndCashEquivalentsAtCarryingValue.decimal(),
		})
	}
	return out, nil
}

// GetCashFlowStatements returns annual cash-flow statements for ticker.
// Free cash flow is not reported and is left missing.
func (s *AlphaVantageService) GetCashFlowStatements(ctx context.Context, ticker string) ([]models.CashFlowStatement, error) {
	resp, err := avQuery[avStatements[avCashFlowReport]](ctx, s, "CASH_FLOW", ticker, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.AnnualReports) == 0 {
		return nil, ClientError(fmt.Errorf("no cash flow statements for %s", ticker))
	}

	out := make([]models.CashFlowStatement, 0, len(resp.AnnualReports))
	for _, r := range resp.AnnualReports {
		end, year, err := parsePeriod(r.FiscalDateEnding, "")
		if err != nil {
			return nil, err
		}
		out = append(out, models.CashFlowStatement{
			FiscalYear:         year,
			PeriodEnd:          end,
			OperatingCashFlow:  r.OperatingCashflow.decimal(),
			CapitalExpenditure: r.CapitalExpenditures.decimal(),
		})
	}
	return out, nil
}

// GetCompanyProfile returns the company overview for ticker
func (s *AlphaVantageService) GetCompanyProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	resp, err := avQuery[OverviewResponse](ctx, s, "OVERVIEW", ticker, nil)
	if err != nil {
		return nil, err
	}
	if resp.Symbol == "" {
		return nil, ClientError(fmt.Errorf("no overview for %s", ticker))
	}

	profile := &models.CompanyProfile{
		Ticker:      resp.Symbol,
		Name:        resp.Name,
		Exchange:    resp.Exchange,
		Currency:    resp.Currency,
		Sector:      resp.Sector,
		Industry:    resp.Industry,
		Description: resp.Description,
	}
	if mc := resp.MarketCap.decimal(); mc.Valid {
		profile.MarketCap = mc.Decimal
	}
	if beta := resp.Beta.decimal(); beta.Valid {
		profile.Beta = beta.Decimal.InexactFloat64()
	}
	return profile, nil
}

// GetDailyBars returns up to days of daily bars, oldest first.
func (s *AlphaVantageService) GetDailyBars(ctx context.Context, ticker string, days int) ([]models.Bar, error) {
	extra := url.Values{}
	if days <= 0 || days > 100 {
		extra.Set("outputsize", "full")
	}
	resp, err := avQuery[avDailySeries](ctx, s, "TIME_SERIES_DAILY", ticker, extra)
	if err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(resp.Series))
	for date, b := range resp.Series {
		ts, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, fmt.Errorf("alphavantage prices: invalid date %q: %w", date, err)
		}
		bar := models.Bar{Symbol: ticker, Timestamp: ts}
		if bar.Open, err = decimal.NewFromString(b.Open); err != nil {
			return nil, fmt.Errorf("alphavantage prices: invalid open on %s: %w", date, err)
		}
		if bar.High, err = decimal.NewFromString(b.High); err != nil {
			return nil, fmt.Errorf("alphavantage prices: invalid high on %s: %w", date, err)
		}
		if bar.Low, err = decimal.NewFromString(b.Low); err != nil {
			return nil, fmt.Errorf("alphavantage prices: invalid low on %s: %w", date, err)
		}
		if bar.Close, err = decimal.NewFromString(b.Close); err != nil {
			return nil, fmt.Errorf("alphavantage prices: invalid close on %s: %w", date, err)
		}
		if b.Volume != "" {
			if bar.Volume, err = strconv.ParseInt(b.Volume, 10, 64); err != nil {
				return nil, fmt.Errorf("alphavantage prices: invalid volume on %s: %w", date, err)
			}
		}
		bars = append(bars, bar)
	}
	sortBars(bars)
	return trimBars(bars, days, time.Now()), nil
}
