package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"fundamental-analyst/models"
)

// LLM providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderBedrock   = "bedrock"
)

// Financial data providers
const (
	DataProviderFMP          = "fmp"
	DataProviderAlphaVantage = "alphavantage"
)

// Price history providers
const (
	PriceProviderStatements = "statements"
	PriceProviderAlpaca     = "alpaca"
)

// Memo response formats
const (
	MemoFormatMarkdown = "markdown"
	MemoFormatJSON     = "json"
)

// FMPDemoKey is Financial Modeling Prep's public key, limited to a handful
// of large-cap tickers.
const FMPDemoKey = "demo"

var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderGemini:    "gemini-2.0-flash",
}

// Config holds all application configuration
type Config struct {
	// Database configuration (optional run log)
	Database DatabaseConfig

	// Language model configuration
	LLM       LLMConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
	AWS       AWSConfig

	// Market data configuration
	Data         DataConfig
	FMP          FMPConfig
	AlphaVantage AlphaVantageConfig
	Alpaca       AlpacaConfig

	// Analysis configuration
	Valuation ValuationConfig
	Memo      MemoConfig
	Storage   StorageConfig

	Observability ObservabilityConfig
	HTTP          HTTPConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// LLMConfig selects the memo model and its sampling settings
type LLMConfig struct {
	Provider       string
	Model          string
	MaxTokens      int
	Temperature    float64
	TimeoutSeconds int
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// AnthropicConfig holds Anthropic API configuration
type AnthropicConfig struct {
	APIKey string
}

// GeminiConfig holds Google Gemini API configuration
type GeminiConfig struct {
	APIKey string
}

// AWSConfig holds AWS Bedrock configuration
type AWSConfig struct {
	Region           string
	BedrockModelID   string
	AnthropicVersion string
}

// DataConfig selects the statement and price sources
type DataConfig struct {
	Provider          string
	PriceProvider     string
	PriceLookbackDays int
}

// FMPConfig holds Financial Modeling Prep API configuration
type FMPConfig struct {
	APIKey  string
	BaseURL string
	// UsingDemoKey is set when no key was configured and the public demo key
	// is used instead.
	UsingDemoKey bool
}

// AlphaVantageConfig holds Alpha Vantage API configuration
type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
}

// AlpacaConfig holds Alpaca market data configuration
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

// ValuationConfig holds the default DCF assumptions. A nil
// TerminalGrowthRate means the growth rate is reused.
type ValuationConfig struct {
	GrowthRate         float64
	DiscountRate       float64
	TerminalGrowthRate *float64
	ProjectionYears    int
}

// MemoConfig controls how the memo is requested and parsed
type MemoConfig struct {
	Format     string
	PromptFile string
}

// StorageConfig holds output locations
type StorageConfig struct {
	OutputDir  string
	RawDataDir string
}

// ObservabilityConfig holds logging and metrics configuration
type ObservabilityConfig struct {
	LogFormat      string
	LogLevel       string
	PushgatewayURL string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr                  string
	CORSAllowedOrigins    string
	RequestTimeoutSeconds int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	provider := strings.ToLower(getEnvString("LLM_PROVIDER", ProviderOpenAI))

	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		LLM: LLMConfig{
			Provider:       provider,
			Model:          getEnvString("LLM_MODEL", defaultModels[provider]),
			MaxTokens:      getEnvInt("LLM_MAX_TOKENS", 2000),
			Temperature:    getEnvFloatRange("LLM_TEMPERATURE", 0.7, 0, 2),
			TimeoutSeconds: getEnvInt("LLM_TIMEOUT_SECONDS", 60),
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Anthropic: AnthropicConfig{
			APIKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnvString("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		},
		AWS: AWSConfig{
			Region:           os.Getenv("AWS_REGION"),
			BedrockModelID:   os.Getenv("BEDROCK_MODEL_ID"),
			AnthropicVersion: getEnvString("BEDROCK_ANTHROPIC_VERSION", "bedrock-2023-05-31"),
		},
		Data: DataConfig{
			Provider:          strings.ToLower(getEnvString("DATA_PROVIDER", DataProviderFMP)),
			PriceProvider:     strings.ToLower(getEnvString("PRICE_PROVIDER", PriceProviderStatements)),
			PriceLookbackDays: getEnvInt("PRICE_LOOKBACK_DAYS", 1825),
		},
		FMP: FMPConfig{
			APIKey:  os.Getenv("FMP_API_KEY"),
			BaseURL: getEnvString("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
		},
		AlphaVantage: AlphaVantageConfig{
			APIKey:  os.Getenv("ALPHA_VANTAGE_API_KEY"),
			BaseURL: getEnvString("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
		},
		Alpaca: AlpacaConfig{
			APIKey:    os.Getenv("ALPACA_API_KEY"),
			APISecret: os.Getenv("ALPACA_API_SECRET"),
			BaseURL:   getEnvString("ALPACA_DATA_URL", "https://data.alpaca.markets"),
		},
		Valuation: ValuationConfig{
			GrowthRate:         getEnvFloatUnbounded("DCF_GROWTH_RATE", 0.05),
			DiscountRate:       getEnvFloatUnbounded("DCF_DISCOUNT_RATE", 0.10),
			TerminalGrowthRate: getEnvFloatPtr("DCF_TERMINAL_GROWTH_RATE"),
			ProjectionYears:    getEnvInt("DCF_PROJECTION_YEARS", 5),
		},
		Memo: MemoConfig{
			Format:     strings.ToLower(getEnvString("MEMO_FORMAT", MemoFormatMarkdown)),
			PromptFile: os.Getenv("MEMO_PROMPT_FILE"),
		},
		Storage: StorageConfig{
			OutputDir:  getEnvString("OUTPUT_DIR", "outputs"),
			RawDataDir: getEnvString("RAW_DATA_DIR", "data/raw"),
		},
		Observability: ObservabilityConfig{
			LogFormat:      strings.ToLower(getEnvString("LOG_FORMAT", "text")),
			LogLevel:       strings.ToLower(getEnvString("LOG_LEVEL", "info")),
			PushgatewayURL: os.Getenv("PROMETHEUS_PUSHGATEWAY_URL"),
		},
		HTTP: HTTPConfig{
			Addr:                  getEnvString("HTTP_ADDR", ":8080"),
			CORSAllowedOrigins:    getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			RequestTimeoutSeconds: getEnvInt("HTTP_REQUEST_TIMEOUT_SECONDS", 180),
		},
	}

	if provider == ProviderBedrock && cfg.LLM.Model == "" {
		cfg.LLM.Model = cfg.AWS.BedrockModelID
	}
	if cfg.FMP.APIKey == "" {
		cfg.FMP.APIKey = FMPDemoKey
		cfg.FMP.UsingDemoKey = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration. Every error wraps
// models.ErrConfiguration.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if !c.HasOpenAI() {
			return configError("OPENAI_API_KEY is required when LLM_PROVIDER=%s", ProviderOpenAI)
		}
	case ProviderAnthropic:
		if !c.HasAnthropic() {
			return configError("ANTHROPIC_API_KEY is required when LLM_PROVIDER=%s", ProviderAnthropic)
		}
	case ProviderGemini:
		if !c.HasGemini() {
			return configError("GEMINI_API_KEY is required when LLM_PROVIDER=%s", ProviderGemini)
		}
	case ProviderBedrock:
		if !c.HasBedrock() {
			return configError("AWS_REGION and BEDROCK_MODEL_ID are required when LLM_PROVIDER=%s", ProviderBedrock)
		}
	default:
		return configError("unknown LLM_PROVIDER %q (want openai, anthropic, gemini or bedrock)", c.LLM.Provider)
	}

	switch c.Data.Provider {
	case DataProviderFMP:
	case DataProviderAlphaVantage:
		if !c.HasAlphaVantage() {
			return configError("ALPHA_VANTAGE_API_KEY is required when DATA_PROVIDER=%s", DataProviderAlphaVantage)
		}
	default:
		return configError("unknown DATA_PROVIDER %q (want fmp or alphavantage)", c.Data.Provider)
	}

	switch c.Data.PriceProvider {
	case PriceProviderStatements:
	case PriceProviderAlpaca:
		if !c.HasAlpaca() {
			return configError("ALPACA_API_KEY and ALPACA_API_SECRET are required when PRICE_PROVIDER=%s", PriceProviderAlpaca)
		}
	default:
		return configError("unknown PRICE_PROVIDER %q (want statements or alpaca)", c.Data.PriceProvider)
	}

	if c.Memo.Format != MemoFormatMarkdown && c.Memo.Format != MemoFormatJSON {
		return configError("unknown MEMO_FORMAT %q (want markdown or json)", c.Memo.Format)
	}
	if c.Memo.PromptFile != "" {
		if _, err := os.Stat(c.Memo.PromptFile); err != nil {
			return configError("MEMO_PROMPT_FILE: %v", err)
		}
	}

	if c.LLM.Model == "" {
		return configError("LLM_MODEL must be set for provider %s", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return configError("LLM_MAX_TOKENS must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return configError("LLM_TIMEOUT_SECONDS must be positive, got %d", c.LLM.TimeoutSeconds)
	}
	if c.Storage.OutputDir == "" || c.Storage.RawDataDir == "" {
		return configError("OUTPUT_DIR and RAW_DATA_DIR must not be empty")
	}
	if c.Observability.LogFormat != "text" && c.Observability.LogFormat != "json" {
		return configError("unknown LOG_FORMAT %q (want text or json)", c.Observability.LogFormat)
	}

	return nil
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrConfiguration, fmt.Sprintf(format, args...))
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasOpenAI returns true if OpenAI configuration is available
func (c *Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

// HasAnthropic returns true if Anthropic configuration is available
func (c *Config) HasAnthropic() bool {
	return c.Anthropic.APIKey != ""
}

// HasGemini returns true if Gemini configuration is available
func (c *Config) HasGemini() bool {
	return c.Gemini.APIKey != ""
}

// HasBedrock returns true if AWS Bedrock configuration is available
func (c *Config) HasBedrock() bool {
	return c.AWS.Region != "" && c.AWS.BedrockModelID != ""
}

// HasAlpaca returns true if Alpaca configuration is available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

// HasAlphaVantage returns true if Alpha Vantage configuration is available
func (c *Config) HasAlphaVantage() bool {
	return c.AlphaVantage.APIKey != ""
}

// HasPushgateway returns true if metrics should be pushed after batch runs
func (c *Config) HasPushgateway() bool {
	return c.Observability.PushgatewayURL != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatRange(key string, defaultValue, minVal, maxVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed >= minVal && parsed <= maxVal {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatUnbounded(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatPtr(key string) *float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return &parsed
		}
	}
	return nil
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       ProviderOpenAI,
			Model:          "gpt-4o-mini",
			MaxTokens:      2000,
			Temperature:    0.7,
			TimeoutSeconds: 60,
		},
		OpenAI: OpenAIConfig{
			APIKey: "test-key",
		},
		AWS: AWSConfig{
			AnthropicVersion: "bedrock-2023-05-31",
		},
		Data: DataConfig{
			Provider:          DataProviderFMP,
			PriceProvider:     PriceProviderStatements,
			PriceLookbackDays: 1825,
		},
		FMP: FMPConfig{
			APIKey:       FMPDemoKey,
			BaseURL:      "https://financialmodelingprep.com/api/v3",
			UsingDemoKey: true,
		},
		AlphaVantage: AlphaVantageConfig{
			BaseURL: "https://www.alphavantage.co/query",
		},
		Alpaca: AlpacaConfig{
			BaseURL: "https://data.alpaca.markets",
		},
		Valuation: ValuationConfig{
			GrowthRate:      0.05,
			DiscountRate:    0.10,
			ProjectionYears: 5,
		},
		Memo: MemoConfig{
			Format: MemoFormatMarkdown,
		},
		Storage: StorageConfig{
			OutputDir:  "outputs",
			RawDataDir: "data/raw",
		},
		Observability: ObservabilityConfig{
			LogFormat: "text",
			LogLevel:  "info",
		},
		HTTP: HTTPConfig{
			Addr:                  ":8080",
			CORSAllowedOrigins:    "*",
			RequestTimeoutSeconds: 180,
		},
	}
}
