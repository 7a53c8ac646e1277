package mocks

// FMPIncomeStatement mirrors one element of FMP's income-statement response.
type FMPIncomeStatement struct {
	Date                  string   `json:"date"`
	Symbol                string   `json:"symbol"`
	ReportedCurrency      string   `json:"reportedCurrency"`
	CalendarYear          string   `json:"calendarYear"`
	Revenue               *float64 `json:"revenue"`
	NetIncome             *float64 `json:"netIncome"`
	WeightedAverageShsOut *float64 `json:"weightedAverageShsOut"`
}

// FMPBalanceSheet mirrors one element of FMP's balance-sheet-statement response.
type FMPBalanceSheet struct {
	Date                    string   `json:"date"`
	CalendarYear            string   `json:"calendarYear"`
	TotalAssets             *float64 `json:"totalAssets"`
	TotalStockholdersEquity *float64 `json:"totalStockholdersEquity"`
	TotalDebt               *float64 `json:"totalDebt"`
	CashAndCashEquivalents  *float64 `json:"cashAndCashEquivalents"`
}

// FMPCashFlowStatement mirrors one element of FMP's cash-flow-statement response.
type FMPCashFlowStatement struct {
	Date               string   `json:"date"`
	CalendarYear       string   `json:"calendarYear"`
	OperatingCashFlow  *float64 `json:"operatingCashFlow"`
	CapitalExpenditure *float64 `json:"capitalExpenditure"`
	FreeCashFlow       *float64 `json:"freeCashFlow"`
}

// FMPProfile mirrors one element of FMP's profile response.
type FMPProfile struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"companyName"`
	Price             float64 `json:"price"`
	Beta              float64 `json:"beta"`
	MktCap            float64 `json:"mktCap"`
	Currency          string  `json:"currency"`
	ExchangeShortName string  `json:"exchangeShortName"`
	Industry          string  `json:"industry"`
	Sector            string  `json:"sector"`
}

// FMPHistoricalPrice is one daily bar, newest first in FMP's response.
type FMPHistoricalPrice struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
	VWAP   float64 `json:"vwap"`
}

// Company is the full set of FMP fixtures for one ticker.
type Company struct {
	Income   []FMPIncomeStatement
	Balance  []FMPBalanceSheet
	CashFlow []FMPCashFlowStatement
	Profile  *FMPProfile
	Prices   []FMPHistoricalPrice
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// chatCompletion is the OpenAI chat completion response body.
type chatCompletion struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// chatRequest is the part of an OpenAI chat completion request the mock reads.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// F returns a pointer to v for optional fixture fields.
func F(v float64) *float64 {
	return &v
}
