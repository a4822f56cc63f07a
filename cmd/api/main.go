package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alfredoptarigan/ats-analyzer/internal/bootstrap"
	"alfredoptarigan/ats-analyzer/internal/config"
	"alfredoptarigan/ats-analyzer/internal/handlers"
	"alfredoptarigan/ats-analyzer/internal/logger"
	"alfredoptarigan/ats-analyzer/internal/repositories"
	"alfredoptarigan/ats-analyzer/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.Configure(cfg.Server.Env, cfg.Server.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Info("✅ Config loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	docRepo := repositories.NewDocumentRepository(db)
	analysisRepo := repositories.NewAnalysisRepository(db)
	log.Info("✅ Repositories initialized successfully")

	storage, err := services.NewStorageService(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Failed to initialize storage: %v", err)
	}
	extractor := services.NewExtractorService()

	llm, err := services.NewLLMService(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("❌ Failed to initialize LLM provider: %v", err)
	}
	log.Infof("✅ LLM provider %s (%s) initialized", llm.Name(), llm.Model())

	guidance, qdrant, err := bootstrap.Guidance(ctx, cfg, llm)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	notifier, err := bootstrap.Notifier(cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer notifier.Close()

	analyzer := bootstrap.Analyzer(cfg, llm, guidance, analysisRepo, docRepo, storage, notifier)
	log.Info("✅ Analyzer service initialized")

	worker := services.NewWorker(analysisRepo, analyzer, services.WorkerOptions{
		Concurrency:  cfg.Worker.Concurrency,
		QueueSize:    cfg.Worker.QueueSize,
		PollInterval: cfg.Worker.PollInterval,
		StaleAfter:   max(cfg.Worker.StaleAfter, 2*writeTimeout(cfg)),
	})
	worker.Start(ctx)

	checkers := []handlers.Checker{config.NewDatabaseChecker(db)}
	if qdrant != nil {
		checkers = append(checkers, qdrant)
	}

	app := handlers.NewApp(handlers.Handlers{
		Upload:   handlers.NewUploadHandler(docRepo, storage, extractor, cfg.Storage.MaxFileSize),
		Analysis: handlers.NewAnalysisHandler(analysisRepo, docRepo, worker),
		Analyze:  handlers.NewAnalyzeHandler(analyzer, extractor, cfg.Storage.MaxFileSize),
		Health:   handlers.NewHealthHandler(checkers...),
	}, handlers.AppOptions{
		BodyLimit:    cfg.Storage.MaxFileSize,
		OriginURL:    cfg.Server.OriginURL,
		AccessLog:    true,
		WriteTimeout: writeTimeout(cfg),
	})

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("🛑 Shutting down server...")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Errorf("❌ Server forced to shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Infof("🚀 Server starting on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Errorf("❌ Failed to start server: %v", err)
		os.Exit(1)
	}
}

// writeTimeout leaves room for a full synchronous analysis with retries.
func writeTimeout(cfg *config.Config) time.Duration {
	attempts := max(cfg.Worker.RetryMaxAttempts, 1)
	return time.Duration(attempts)*cfg.LLM.Timeout + 30*time.Second
}
