// Package mocks provides HTTP mock servers for external APIs used in E2E tests.
package mocks

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// Path prefixes the mock serves each API under.
const (
	FMPPrefix    = "/fmp/api/v3"
	OpenAIPrefix = "/openai/v1"
)

// MockServer serves Financial Modeling Prep and OpenAI-compatible endpoints.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server

	companies map[string]*Company
	memo      string
	fmpStatus int

	requestLog []RequestLog
	prompts    []string
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Method string
	Path   string
}

// NewMockServer creates a new mock server with default responses.
func NewMockServer() *MockServer {
	m := NewMockHandler()
	m.server = httptest.NewServer(m)
	return m
}

// NewMockHandler returns the mock routes without starting a listener, for
// serving on a fixed address.
func NewMockHandler() *MockServer {
	return &MockServer{
		companies: map[string]*Company{"AAPL": DefaultCompany("AAPL")},
		memo:      DefaultMemo("AAPL", "Buy"),
	}
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// FMPBaseURL is the value for FMP_BASE_URL.
func (m *MockServer) FMPBaseURL() string {
	return m.server.URL + FMPPrefix
}

// OpenAIBaseURL is the value for OPENAI_BASE_URL.
func (m *MockServer) OpenAIBaseURL() string {
	return m.server.URL + OpenAIPrefix + "/"
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// ServeHTTP routes requests to the FMP or OpenAI handlers.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{Method: r.Method, Path: r.URL.Path})
	m.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, FMPPrefix+"/"):
		m.handleFMP(w, r, strings.TrimPrefix(r.URL.Path, FMPPrefix+"/"))
	case r.URL.Path == OpenAIPrefix+"/chat/completions":
		m.handleChatCompletion(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// SetCompany replaces the fixtures for ticker.
func (m *MockServer) SetCompany(ticker string, c *Company) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[ticker] = c
}

// SetMemo sets the text the language model replies with.
func (m *MockServer) SetMemo(memo string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memo = memo
}

// SetFMPStatus makes every FMP request fail with status. Zero restores
// normal responses.
func (m *MockServer) SetFMPStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fmpStatus = status
}

// GetRequestLog returns all logged requests for assertions.
func (m *MockServer) GetRequestLog() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestLog{}, m.requestLog...)
}

// CountRequests returns how many requests had a path starting with prefix.
func (m *MockServer) CountRequests(prefix string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requestLog {
		if strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}

// Prompts returns the user prompts sent to the language model.
func (m *MockServer) Prompts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.prompts...)
}

// ClearRequestLog clears the request log.
func (m *MockServer) ClearRequestLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestLog = nil
	m.prompts = nil
}

func (m *MockServer) handleFMP(w http.ResponseWriter, r *http.Request, path string) {
	if r.URL.Query().Get("apikey") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"Error Message": "Invalid API KEY."})
		return
	}

	endpoint, ticker, ok := strings.Cut(path, "/")
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	m.mu.RLock()
	status := m.fmpStatus
	company := m.companies[ticker]
	m.mu.RUnlock()

	if status != 0 {
		writeJSON(w, status, map[string]string{"Error Message": "mock failure"})
		return
	}

	// FMP answers unknown tickers with empty payloads, not 404s.
	if company == nil {
		if endpoint == "historical-price-full" {
			writeJSON(w, http.StatusOK, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	switch endpoint {
	case "income-statement":
		writeJSON(w, http.StatusOK, company.Income)
	case "balance-sheet-statement":
		writeJSON(w, http.StatusOK, company.Balance)
	case "cash-flow-statement":
		writeJSON(w, http.StatusOK, company.CashFlow)
	case "profile":
		if company.Profile == nil {
			writeJSON(w, http.StatusOK, []any{})
			return
		}
		writeJSON(w, http.StatusOK, []*FMPProfile{company.Profile})
	case "historical-price-full":
		writeJSON(w, http.StatusOK, map[string]any{"symbol": ticker, "historical": company.Prices})
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (m *MockServer) handleChatCompletion(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]string{"message": "missing key"}})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			m.prompts = append(m.prompts, msg.Content)
		}
	}
	memo := m.memo
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, chatCompletion{
		ID:      "chatcmpl-mock",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{{
			Message:      chatMessage{Role: "assistant", Content: memo},
			FinishReason: "stop",
		}},
		Usage: chatUsage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// DefaultCompany returns two years of statements with 10% revenue growth,
// a 1000 base free cash flow and a short price history.
func DefaultCompany(ticker string) *Company {
	return &Company{
		Income: []FMPIncomeStatement{
			{Date: "2023-09-30", Symbol: ticker, ReportedCurrency: "USD", CalendarYear: "2023",
				Revenue: F(110), NetIncome: F(12), WeightedAverageShsOut: F(10)},
			{Date: "2022-09-24", Symbol: ticker, ReportedCurrency: "USD", CalendarYear: "2022",
				Revenue: F(100), NetIncome: F(10), WeightedAverageShsOut: F(10)},
		},
		Balance: []FMPBalanceSheet{
			{Date: "2023-09-30", CalendarYear: "2023", TotalAssets: F(200), TotalStockholdersEquity: F(80),
				TotalDebt: F(50), CashAndCashEquivalents: F(20)},
			{Date: "2022-09-24", CalendarYear: "2022", TotalAssets: F(180), TotalStockholdersEquity: F(75),
				TotalDebt: F(45), CashAndCashEquivalents: F(15)},
		},
		CashFlow: []FMPCashFlowStatement{
			{Date: "2023-09-30", CalendarYear: "2023", OperatingCashFlow: F(1200), CapitalExpenditure: F(-200), FreeCashFlow: F(1000)},
			{Date: "2022-09-24", CalendarYear: "2022", OperatingCashFlow: F(1100), CapitalExpenditure: F(-180), FreeCashFlow: F(920)},
		},
		Profile: &FMPProfile{
			Symbol: ticker, CompanyName: ticker + " Inc.", Price: 190.5, Beta: 1.2, MktCap: 3e12,
			Currency: "USD", ExchangeShortName: "NASDAQ", Industry: "Consumer Electronics", Sector: "Technology",
		},
		Prices: []FMPHistoricalPrice{
			{Date: "2024-01-03", Open: 184, High: 186, Low: 183, Close: 185, Volume: 5e7, VWAP: 184.8},
			{Date: "2024-01-02", Open: 187, High: 188, Low: 183.9, Close: 185.6, Volume: 8e7, VWAP: 185.9},
		},
	}
}

// DefaultMemo returns a well-formed markdown memo with the given rating.
func DefaultMemo(ticker, rating string) string {
	return fmt.Sprintf(`# Investment Memo: %[1]s

## Executive Summary
%[1]s grew revenue 10%% with stable margins.

## Investment Thesis
Cash generation funds buybacks.

## Financial Analysis
Net margin is 10.91%% and leverage is modest.

## Valuation Assessment
The DCF enterprise value exceeds the market's implied value.

## Key Risks
Customer concentration.

## Recommendation
Rating: %[2]s
Conviction: Medium
`, ticker, rating)
}
