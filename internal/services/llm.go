package services

import (
	"context"
	"fmt"

	"alfredoptarigan/ats-analyzer/internal/config"
)

// LLMService sends an analysis prompt to a hosted model and returns its raw
// text answer.
type LLMService interface {
	GenerateText(ctx context.Context, prompt Prompt) (string, error)
	Name() string
	Model() string
}

// EmbeddingService turns text into vectors for the guidance store.
type EmbeddingService interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// NewLLMService builds the provider selected by cfg.Provider.
func NewLLMService(ctx context.Context, cfg config.LLMConfig) (LLMService, error) {
	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbedModel)
	case ProviderOpenAI:
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case ProviderAnthropic:
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)
