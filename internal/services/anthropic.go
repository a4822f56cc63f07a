package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicService struct {
	client anthropic.Client
	model  string
}

func NewAnthropicService(apiKey, model string) LLMService {
	return &anthropicService{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (a *anthropicService) Name() string  { return ProviderAnthropic }
func (a *anthropicService) Model() string { return a.model }

func (a *anthropicService) GenerateText(ctx context.Context, prompt Prompt) (string, error) {
	response, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   int64(prompt.MaxTokens),
		Temperature: anthropic.Float(float64(prompt.Temperature)),
		System:      []anthropic.TextBlockParam{{Text: prompt.System}},
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt.User},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call Claude API: %w", err)
	}

	var parts []string
	for _, block := range response.Content {
		if block.Type == "text" {
			parts = append(parts, block.AsText().Text)
		}
	}

	text := strings.Join(parts, "")
	if text == "" {
		return "", fmt.Errorf("no text content in Claude response")
	}

	return text, nil
}
