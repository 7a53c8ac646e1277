package services

import (
	"context"
	"fmt"

	appconfig "fundamental-analyst/config"
	"fundamental-analyst/models"
)

// ErrMissingCredentials is returned when a selected backend has no key.
var ErrMissingCredentials = fmt.Errorf("%w: missing credentials", models.ErrConfiguration)

// NewLLMService builds the backend selected by LLM_PROVIDER.
func NewLLMService(ctx context.Context, cfg *appconfig.Config) (LLMService, error) {
	switch cfg.LLM.Provider {
	case appconfig.ProviderOpenAI:
		return NewOpenAIService(cfg)
	case appconfig.ProviderAnthropic:
		return NewAnthropicService(cfg)
	case appconfig.ProviderGemini:
		return NewGeminiService(ctx, cfg)
	case appconfig.ProviderBedrock:
		svc, err := NewBedrockService(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: unknown LLM provider %q", models.ErrConfiguration, cfg.LLM.Provider)
	}
}

// NewFundamentalsProvider builds the statement source selected by
// DATA_PROVIDER.
func NewFundamentalsProvider(cfg *appconfig.Config) (FundamentalsProvider, error) {
	switch cfg.Data.Provider {
	case appconfig.DataProviderFMP:
		return NewFMPService(cfg.FMP.APIKey, cfg.FMP.BaseURL), nil
	case appconfig.DataProviderAlphaVantage:
		if !cfg.HasAlphaVantage() {
			return nil, fmt.Errorf("%w: ALPHA_VANTAGE_API_KEY is required", ErrMissingCredentials)
		}
		return NewAlphaVantageService(cfg.AlphaVantage.APIKey, cfg.AlphaVantage.BaseURL), nil
	default:
		return nil, fmt.Errorf("%w: unknown data provider %q", models.ErrConfiguration, cfg.Data.Provider)
	}
}

// NewPriceProvider builds the price history source selected by
// PRICE_PROVIDER. The statements setting reuses the fundamentals provider
// when it can serve prices.
func NewPriceProvider(cfg *appconfig.Config, fundamentals FundamentalsProvider) (PriceProvider, error) {
	switch cfg.Data.PriceProvider {
	case appconfig.PriceProviderAlpaca:
		if !cfg.HasAlpaca() {
			return nil, fmt.Errorf("%w: ALPACA_API_KEY and ALPACA_API_SECRET are required", ErrMissingCredentials)
		}
		return NewAlpacaService(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL), nil
	case appconfig.PriceProviderStatements, "":
		if p, ok := fundamentals.(PriceProvider); ok {
			return p, nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown price provider %q", models.ErrConfiguration, cfg.Data.PriceProvider)
	}
}
