package services

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	appconfig "fundamental-analyst/config"
)

// geminiClient is the subset of the genai models API used here
type geminiClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiService calls Google Gemini models
type GeminiService struct {
	client      geminiClient
	model       string
	maxTokens   int
	temperature float64
}

// NewGeminiService creates a new GeminiService instance
func NewGeminiService(ctx context.Context, cfg *appconfig.Config) (*GeminiService, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is required", ErrMissingCredentials)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiService{
		client:      client.Models,
		model:       cfg.LLM.Model,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
	}, nil
}

// Model returns the configured model name
func (s *GeminiService) Model() string {
	return s.model
}

// InvokeWithPrompt sends a prompt to Gemini and returns the response text
func (s *GeminiService) InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return instrumented(ctx, BreakerGemini, "invoke", func() (string, error) {
		config := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(s.temperature)),
			MaxOutputTokens: int32(s.maxTokens),
		}
		if systemPrompt != "" {
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{
					{Text: systemPrompt},
				},
			}
		}

		resp, err := s.client.GenerateContent(ctx, s.model, genai.Text(userPrompt), config)
		if err != nil {
			return "", fmt.Errorf("failed to invoke Gemini: %w", err)
		}

		text := resp.Text()
		if text == "" {
			return "", fmt.Errorf("empty response from Gemini")
		}
		return text, nil
	})
}
