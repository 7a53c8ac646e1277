package services

import (
	"context"

	"fundamental-analyst/models"
)

// LLMService is implemented by every language model backend the memo writer
// can use.
type LLMService interface {
	InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// Model returns the model identifier responses are generated with.
	Model() string
}

// FundamentalsProvider fetches annual financial statements and company data.
// Statements are returned in whatever order the provider sends them.
type FundamentalsProvider interface {
	Name() string
	GetIncomeStatements(ctx context.Context, ticker string) ([]models.IncomeStatement, error)
	GetBalanceSheets(ctx context.Context, ticker string) ([]models.BalanceSheet, error)
	GetCashFlowStatements(ctx context.Context, ticker string) ([]models.CashFlowStatement, error)
	GetCompanyProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error)
}

// PriceProvider fetches daily price history.
type PriceProvider interface {
	Name() string
	GetDailyBars(ctx context.Context, ticker string, days int) ([]models.Bar, error)
}

// Compile-time interface verification
var _ LLMService = (*OpenAIService)(nil)
var _ LLMService = (*AnthropicService)(nil)
var _ LLMService = (*GeminiService)(nil)
var _ LLMService = (*BedrockService)(nil)
var _ FundamentalsProvider = (*FMPService)(nil)
var _ FundamentalsProvider = (*AlphaVantageService)(nil)
var _ PriceProvider = (*FMPService)(nil)
var _ PriceProvider = (*AlphaVantageService)(nil)
var _ PriceProvider = (*AlpacaService)(nil)
