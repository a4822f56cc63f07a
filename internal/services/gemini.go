package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"alfredoptarigan/ats-analyzer/internal/logger"
)

// maxEmbedChars keeps embedding input under the model's token limit.
const maxEmbedChars = 40000

type GeminiService interface {
	LLMService
	EmbeddingService
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	log        *logrus.Logger
}

func NewGeminiService(ctx context.Context, apiKey, model, embedModel string) (GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  model,
		embedModel: embedModel,
		log:        logger.Get(),
	}, nil
}

func (g *geminiService) Name() string  { return ProviderGemini }
func (g *geminiService) Model() string { return g.modelName }

// GenerateEmbedding implements EmbeddingService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text, _ = truncateRunes(text, maxEmbedChars)

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText sends the instructions and the resume as one message.
func (g *geminiService) GenerateText(ctx context.Context, prompt Prompt) (string, error) {
	temperature := prompt.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(prompt.MaxTokens),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt.Combined()), config)
	if err != nil {
		g.log.WithError(err).Error("❌ Gemini API error")
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text != "" {
		g.log.WithField("chars", len(text)).Debug("📊 Gemini response received")
		return text, nil
	}

	// Blocked or tool-only candidates have no text accessor; collect what is there.
	var textParts []string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && strings.TrimSpace(part.Text) != "" {
				textParts = append(textParts, part.Text)
			}
		}
	}
	if len(textParts) > 0 {
		g.log.Warn("⚠️ Using candidate parts from Gemini response")
		return strings.Join(textParts, "\n"), nil
	}

	return "", fmt.Errorf("no text content in response")
}
