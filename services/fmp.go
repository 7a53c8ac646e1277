package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fundamental-analyst/models"
)

// fmpStatementLimit is how many annual periods are requested per statement.
const fmpStatementLimit = 5

// FMPService handles communication with Financial Modeling Prep API
type FMPService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewFMPService creates a new FMPService instance. An empty baseURL selects
// the public v3 endpoint.
func NewFMPService(apiKey, baseURL string) *FMPService {
	if baseURL == "" {
		baseURL = "https://financialmodelingprep.com/api/v3"
	}
	return &FMPService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name identifies the provider in artifacts and logs.
func (s *FMPService) Name() string {
	return "fmp"
}

// fmpIncomeStatement is one element of the income-statement response
type fmpIncomeStatement struct {
	Date                  string              `json:"date"`
	Symbol                string              `json:"symbol"`
	ReportedCurrency      string              `json:"reportedCurrency"`
	CalendarYear          string              `json:"calendarYear"`
	Revenue               decimal.NullDecimal `json:"revenue"`
	NetIncome             decimal.NullDecimal `json:"netIncome"`
	WeightedAverageShsOut decimal.NullDecimal `json:"weightedAverageShsOut"`
}

// fmpBalanceSheet is one element of the balance-sheet-statement response
type fmpBalanceSheet struct {
	Date                    string              `json:"date"`
	CalendarYear            string              `json:"calendarYear"`
	TotalAssets             decimal.NullDecimal `json:"totalAssets"`
	TotalStockholdersEquity decimal.NullDecimal `json:"totalStockholdersEquity"`
	TotalDebt               decimal.NullDecimal `json:"totalDebt"`
	CashAndCashEquivalents  decimal.NullDecimal `json:"cashAndCashEquivalents"`
}

// fmpCashFlowStatement is one element of the cash-flow-statement response
type fmpCashFlowStatement struct {
	Date               string              `json:"date"`
	CalendarYear       string              `json:"calendarYear"`
	OperatingCashFlow  decimal.NullDecimal `json:"operatingCashFlow"`
	CapitalExpenditure decimal.NullDecimal `json:"capitalExpenditure"`
	FreeCashFlow       decimal.NullDecimal `json:"freeCashFlow"`
}

// fmpProfileResponse represents a company profile from the FMP API
type fmpProfileResponse struct {
	Symbol            string          `json:"symbol"`
	CompanyName       string          `json:"companyName"`
	Price             decimal.Decimal `json:"price"`
	Beta              float64         `json:"beta"`
	MktCap            decimal.Decimal `json:"mktCap"`
	Currency          string          `json:"currency"`
	ExchangeShortName string          `json:"exchangeShortName"`
	Industry          string          `json:"industry"`
	Sector            string          `json:"sector"`
	Description       string          `json:"description"`
}

// fmpHistoricalPrices is the historical-price-full response
type fmpHistoricalPrices struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date   string          `json:"date"`
		Open   decimal.Decimal `json:"open"`
		High   decimal.Decimal `json:"high"`
		Low    decimal.Decimal `json:"low"`
		Close  decimal.Decimal `json:"close"`
		Volume float64         `json:"volume"`
		VWAP   decimal.Decimal `json:"vwap"`
	} `json:"historical"`
}

// endpoint builds a request URL for path with the API key and params applied.
func (s *FMPService) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", s.apiKey)
	return s.baseURL + path + "?" + params.Encode()
}

func annualParams() url.Values {
	params := url.Values{}
	params.Set("period", "annual")
	params.Set("limit", strconv.Itoa(fmpStatementLimit))
	return params
}

// fmpFetch performs a GET behind the FMP circuit breaker.
func fmpFetch[T any](ctx context.Context, s *FMPService, operation, reqURL string) (T, error) {
	return instrumented(ctx, BreakerFMP, operation, func() (T, error) {
		var out T
		if err := getJSON(ctx, s.httpClient, reqURL, &out); err != nil {
			return out, fmt.Errorf("fmp %s: %w", operation, err)
		}
		return out, nil
	})
}

// GetIncomeStatements returns annual income statements for ticker
func (s *FMPService) GetIncomeStatements(ctx context.Context, ticker string) ([]models.IncomeStatement, error) {
	reqURL := s.endpoint("/income-statement/"+url.PathEscape(ticker), annualParams())
	resp, err := fmpFetch[[]fmpIncomeStatement](ctx, s, "income_statement", reqURL)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, ClientError(fmt.Errorf("no income statements for %s", ticker))
	}

	out := make([]models.IncomeStatement, 0, len(resp))
	for _, r := range resp {
		end, year, err := parsePeriod(r.Date, r.CalendarYear)
		if err != nil {
			return nil, err
		}
		out = append(out, models.IncomeStatement{
			FiscalYear:        year,
			PeriodEnd:         end,
			Revenue:           r.Revenue,
			NetIncome:         r.NetIncome,
			SharesOutstanding: r.WeightedAverageShsOut,
		})
	}
	return out, nil
}

// GetBalanceSheets returns annual balance sheets for ticker
func (s *FMPService) GetBalanceSheets(ctx context.Context, ticker string) ([]models.BalanceSheet, error) {
	reqURL := s.endpoint("/balance-sheet-statement/"+url.PathEscape(ticker), annualParams())
	resp, err := fmpFetch[[]fmpBalanceSheet](ctx, s, "balance_sheet", reqURL)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, ClientError(fmt.Errorf("no balance sheets for %s", ticker))
	}

	out := make([]models.BalanceSheet, 0, len(resp))
	for _, r := range resp {
		end, year, err := parsePeriod(r.Date, r.CalendarYear)
		if err != nil {
			return nil, err
		}
		out = append(out, models.BalanceSheet{
			FiscalYear:  year,
			PeriodEnd:   end,
			TotalAssets: r.TotalAssets,
			TotalEquity: r.TotalStockholdersEquity,
			TotalDebt:   r.TotalDebt,
			Cash:        r.CashAndCashEquivalents,
		})
	}
	return out, nil
}

// GetCashFlowStatements returns annual cash-flow statements for ticker
func (s *FMPService) GetCashFlowStatements(ctx context.Context, ticker string) ([]models.CashFlowStatement, error) {
	reqURL := s.endpoint("/cash-flow-statement/"+url.PathEscape(ticker), annualParams())
	resp, err := fmpFetch[[]fmpCashFlowStatement](ctx, s, "cash_flow", reqURL)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, ClientError(fmt.Errorf("no cash flow statements for %s", ticker))
	}

	out := make([]models.CashFlowStatement, 0, len(resp))
	for _, r := range resp {
		end, year, err := parsePeriod(r.Date, r.CalendarYear)
		if err != nil {
			return nil, err
		}
		out = append(out, models.CashFlowStatement{
			FiscalYear:         year,
			PeriodEnd:          end,
			OperatingCashFlow:  r.OperatingCashFlow,
			CapitalExpenditure: r.CapitalExpenditure,
			FreeCashFlow:       r.FreeCashFlow,
		})
	}
	return out, nil
}

// GetCompanyProfile returns company profile data for a symbol
func (s *FMPService) GetCompanyProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	reqURL := s.endpoint("/profile/"+url.PathEscape(ticker), nil)
	resp, err := fmpFetch[[]fmpProfileResponse](ctx, s, "profile", reqURL)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, ClientError(fmt.Errorf("no profile data for %s", ticker))
	}

	p := resp[0]
	return &models.CompanyProfile{
		Ticker:      p.Symbol,
		Name:        p.CompanyName,
		Exchange:    p.ExchangeShortName,
		Currency:    p.Currency,
		Sector:      p.Sector,
		Industry:    p.Industry,
		MarketCap:   p.MktCap,
		Price:       p.Price,
		Beta:        p.Beta,
		Description: p.Description,
	}, nil
}

// GetDailyBars returns up to days of daily bars, oldest first.
func (s *FMPService) GetDailyBars(ctx context.Context, ticker string, days int) ([]models.Bar, error) {
	params := url.Values{}
	if days > 0 {
		params.Set("from", time.Now().AddDate(0, 0, -days).Format(time.DateOnly))
	}
	reqURL := s.endpoint("/historical-price-full/"+url.PathEscape(ticker), params)
	resp, err := fmpFetch[fmpHistoricalPrices](ctx, s, "prices", reqURL)
	if err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(resp.Historical))
	for i := len(resp.Historical) - 1; i >= 0; i-- {
		h := resp.Historical[i]
		ts, err := time.Parse(time.DateOnly, h.Date)
		if err != nil {
			return nil, fmt.Errorf("fmp prices: invalid date %q: %w", h.Date, err)
		}
		bars = append(bars, models.Bar{
			Symbol:    ticker,
			Timestamp: ts,
			Open:      h.Open,
			High:      h.High,
			Low:       h.Low,
			Close:     h.Close,
			Volume:    int64(h.Volume),
			VWAP:      h.VWAP,
		})
	}
	sortBars(bars)
	return bars, nil
}

// parsePeriod reads a statement's period end and fiscal year. The year falls
// back to the period end's year when the provider omits it.
func parsePeriod(date, calendarYear string) (time.Time, int, error) {
	end, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid statement date %q: %w", date, err)
	}
	year := end.Year()
	if calendarYear != "" {
		if y, err := strconv.Atoi(calendarYear); err == nil {
			year = y
		}
	}
	return end, year, nil
}
