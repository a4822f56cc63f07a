package services

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type openAIService struct {
	llm   llms.Model
	model string
}

func NewOpenAIService(apiKey, model string) (LLMService, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	return &openAIService{llm: llm, model: model}, nil
}

func (o *openAIService) Name() string  { return ProviderOpenAI }
func (o *openAIService) Model() string { return o.model }

// GenerateText sends the instructions as the system message and the resume
// as the user message.
func (o *openAIService) GenerateText(ctx context.Context, prompt Prompt) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt.System),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt.User),
	}

	resp, err := o.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(float64(prompt.Temperature)),
		llms.WithMaxTokens(prompt.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("failed to call openai: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", fmt.Errorf("no text content in openai response")
	}

	return resp.Choices[0].Content, nil
}
