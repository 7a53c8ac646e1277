package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"

	"fundamental-analyst/config"
	"fundamental-analyst/models"
)

// mockOpenAIClient implements openaiClient for testing
type mockOpenAIClient struct {
	completionFunc func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return m.completionFunc(ctx, params)
}

func newTestOpenAIService(client openaiClient) *OpenAIService {
	return &OpenAIService{
		client:    client,
		model:     "gpt-4o",
		maxTokens: 4096,
	}
}

func TestNewOpenAIService_MissingAPIKey(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OpenAI.APIKey = ""

	_, err := NewOpenAIService(cfg)
	if err == nil {
		t.Error("expected error when API key is missing")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY is required") {
		t.Errorf("unexpected error message: %v", err)
	}
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestNewOpenAIService_WithAPIKey(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OpenAI.APIKey = "test-api-key"
	cfg.OpenAI.BaseURL = "http://localhost:11434/v1"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.MaxTokens = 2048
	cfg.LLM.Temperature = 0.2

	service, err := NewOpenAIService(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service == nil {
		t.Fatal("service should not be nil")
	}
	if service.model != "gpt-4o-mini" {
		t.Errorf("model = %s, want gpt-4o-mini", service.model)
	}
	if service.maxTokens != 2048 {
		t.Errorf("maxTokens = %d, want 2048", service.maxTokens)
	}
	if service.temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", service.temperature)
	}
	if service.Model() != "gpt-4o-mini" {
		t.Errorf("Model() = %s, want gpt-4o-mini", service.Model())
	}
}

func TestOpenAIService_ConfigValues(t *testing.T) {
	tests := []struct {
		name              string
		model             string
		maxTokens         int
		expectedModel     string
		expectedMaxTokens int
	}{
		{"Default GPT-4o", "gpt-4o", 4096, "gpt-4o", 4096},
		{"GPT-4 Turbo", "gpt-4-turbo", 8192, "gpt-4-turbo", 8192},
		{"GPT-3.5 Turbo", "gpt-3.5-turbo", 2048, "gpt-3.5-turbo", 2048},
		{"GPT-4o Mini", "gpt-4o-mini", 1024, "gpt-4o-mini", 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newOpenAIServiceWithClient(&mockOpenAIClient{}, tt.model, tt.maxTokens)
			if service.model != tt.expectedModel {
				t.Errorf("model = %s, want %s", service.model, tt.expectedModel)
			}
			if service.maxTokens != tt.expectedMaxTokens {
				t.Errorf("maxTokens = %d, want %d", service.maxTokens, tt.expectedMaxTokens)
			}
		})
	}
}

func TestOpenAIInvokeWithPrompt_Success(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{
					{
						Message: openai.ChatCompletionMessage{
							Content: "Hello from GPT!",
						},
					},
				},
			}, nil
		},
	}

	service := newTestOpenAIService(mockClient)
	ctx := context.Background()

	result, err := service.InvokeWithPrompt(ctx, "You are helpful", "Say hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Hello from GPT!" {
		t.Errorf("expected 'Hello from GPT!', got '%s'", result)
	}
}

func TestOpenAIInvokeWithPrompt_APIError(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return nil, errors.New("API error")
		},
	}

	service := newTestOpenAIService(mockClient)
	ctx := context.Background()

	_, err := service.InvokeWithPrompt(ctx, "system", "user")
	if err == nil {
		t.Error("expected error")
	}
	if !strings.Contains(err.Error(), "failed to invoke OpenAI") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestOpenAIInvokeWithPrompt_EmptyChoices(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{},
			}, nil
		},
	}

	service := newTestOpenAIService(mockClient)
	ctx := context.Background()

	_, err := service.InvokeWithPrompt(ctx, "system", "user")
	if err == nil {
		t.Error("expected error for empty choices")
	}
	if !strings.Contains(err.Error(), "empty response from OpenAI") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestOpenAIInvokeWithPrompt_RequestParams(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	var got openai.ChatCompletionNewParams
	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			got = params
			return &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{
					{Message: openai.ChatCompletionMessage{Content: "ok"}},
				},
			}, nil
		},
	}

	service := newTestOpenAIService(mockClient)
	service.temperature = 0.3

	if _, err := service.InvokeWithPrompt(context.Background(), "system", "user"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got.Model) != "gpt-4o" {
		t.Errorf("model = %s, want gpt-4o", got.Model)
	}
	if got.MaxTokens.Value != 4096 {
		t.Errorf("max tokens = %d, want 4096", got.MaxTokens.Value)
	}
	if got.Temperature.Value != 0.3 {
		t.Errorf("temperature = %v, want 0.3", got.Temperature.Value)
	}
	if len(got.Messages) != 2 {
		t.Errorf("expected system and user messages, got %d", len(got.Messages))
	}
}

func TestOpenAIService_ImplementsLLMService(t *testing.T) {
	var _ LLMService = &OpenAIService{}
}
