package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	appconfig "fundamental-analyst/config"
)

// anthropicClient is the subset of the Anthropic messages API used here
type anthropicClient interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicService calls Claude models through the Anthropic API
type AnthropicService struct {
	client      anthropicClient
	model       string
	maxTokens   int
	temperature float64
}

// NewAnthropicService creates a new AnthropicService instance
func NewAnthropicService(cfg *appconfig.Config) (*AnthropicService, error) {
	if cfg.Anthropic.APIKey == "" {
		return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is required", ErrMissingCredentials)
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.Anthropic.APIKey))

	return &AnthropicService{
		client:      &client.Messages,
		model:       cfg.LLM.Model,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
	}, nil
}

// Model returns the configured model name
func (s *AnthropicService) Model() string {
	return s.model
}

// InvokeWithPrompt sends a prompt to Claude and returns the response text
func (s *AnthropicService) InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return instrumented(ctx, BreakerAnthropic, "invoke", func() (string, error) {
		params := anthropic.MessageNewParams{
			Model:       anthropic.Model(s.model),
			MaxTokens:   int64(s.maxTokens),
			Temperature: anthropic.Float(s.temperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
			},
		}
		if systemPrompt != "" {
			params.System = []anthropic.TextBlockParam{
				{Text: systemPrompt},
			}
		}

		resp, err := s.client.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("failed to invoke Anthropic: %w", err)
		}

		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		if sb.Len() == 0 {
			return "", fmt.Errorf("empty response from Anthropic")
		}

		return sb.String(), nil
	})
}
