// Package bootstrap builds the services shared by the API server and the
// atsctl command line tool from a loaded config.
package bootstrap

import (
	"context"
	"fmt"

	"alfredoptarigan/ats-analyzer/internal/config"
	"alfredoptarigan/ats-analyzer/internal/events"
	"alfredoptarigan/ats-analyzer/internal/logger"
	"alfredoptarigan/ats-analyzer/internal/repositories"
	"alfredoptarigan/ats-analyzer/internal/services"
)

// Guidance connects to Qdrant and returns the guidance service together with
// the store for health checks. Both are nil when QDRANT_URL is not set.
func Guidance(ctx context.Context, cfg *config.Config, llm services.LLMService) (services.GuidanceService, services.QdrantService, error) {
	if !cfg.GuidanceEnabled() {
		logger.Get().Info("ℹ️  QDRANT_URL not set, reference guidance disabled")
		return nil, nil, nil
	}

	embedder, ok := llm.(services.EmbeddingService)
	if !ok {
		gemini, err := services.NewGeminiService(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel, cfg.LLM.EmbedModel)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize embeddings: %w", err)
		}
		embedder = gemini
	}

	store, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize qdrant: %w", err)
	}
	if err := store.InitCollection(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize qdrant collection: %w", err)
	}

	logger.Get().Info("✅ Qdrant initialized successfully")
	return services.NewGuidanceService(store, embedder, services.NewTextChunker()), store, nil
}

// Notifier returns a RabbitMQ publisher when RABBITMQ_URL is set and a no-op
// notifier otherwise.
func Notifier(cfg *config.Config) (events.Notifier, error) {
	if cfg.RabbitMQ.URL == "" {
		return events.NewNoopNotifier(), nil
	}
	n, err := events.NewRabbitNotifier(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rabbitmq: %w", err)
	}
	logger.Get().Info("✅ RabbitMQ notifier initialized")
	return n, nil
}

// Analyzer builds the analysis pipeline. The repositories, storage and
// notifier may be nil for offline use, where only AnalyzeText is called.
func Analyzer(
	cfg *config.Config,
	llm services.LLMService,
	guidance services.GuidanceService,
	analysisRepo repositories.AnalysisRepository,
	docRepo repositories.DocumentRepository,
	storage services.StorageService,
	notifier events.Notifier,
) services.AnalyzerService {
	return services.NewAnalyzerService(
		analysisRepo,
		docRepo,
		storage,
		services.NewExtractorService(),
		llm,
		guidance,
		notifier,
		services.NewPromptBuilder(cfg.LLM.Temperature, cfg.LLM.MaxTokens),
		services.AnalyzerOptions{
			MaxChars:      cfg.Analysis.MaxChars,
			GuidanceLimit: cfg.Analysis.GuidanceLimit,
			RetryAttempts: cfg.Worker.RetryMaxAttempts,
			RetryDelay:    cfg.Worker.RetryInitialDelay,
			CallTimeout:   cfg.LLM.Timeout,
		},
	)
}
