package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/ats-analyzer/internal/bootstrap"
	"alfredoptarigan/ats-analyzer/internal/config"
	"alfredoptarigan/ats-analyzer/internal/logger"
	"alfredoptarigan/ats-analyzer/internal/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir|file>...",
	Short: "Ingest reference documents into the guidance collection",
	Long:  "Extract, chunk and embed scoring rubrics or job descriptions into Qdrant. Re-ingesting a file replaces its previous chunks.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

var (
	ingestDocType     string
	ingestConcurrency int
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestDocType, "type", "t", "", "Document type stored with every chunk, e.g. ats_rubric or job_description")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 2, "Number of files ingested in parallel")
	_ = ingestCmd.MarkFlagRequired("type")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.Configure(cfg.Server.Env, cfg.Server.LogLevel)
	if !cfg.GuidanceEnabled() {
		return errors.New("QDRANT_URL is required for ingestion")
	}
	if cfg.LLM.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY is required for embeddings")
	}

	ctx := cmd.Context()
	embedder, err := services.NewGeminiService(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel, cfg.LLM.EmbedModel)
	if err != nil {
		return fmt.Errorf("failed to initialize embeddings: %w", err)
	}
	guidance, _, err := bootstrap.Guidance(ctx, cfg, embedder)
	if err != nil {
		return err
	}

	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	extractor := services.NewExtractorService()
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(ingestConcurrency, 1))
	for _, path := range paths {
		g.Go(func() error {
			if err := ingestFile(gctx, guidance, extractor, path); err != nil {
				log.WithError(err).WithField("path", path).Error("❌ Failed to ingest document")
				failed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ok := len(paths) - int(failed.Load())
	log.Infof("📊 Ingestion summary: %d succeeded, %d failed", ok, failed.Load())
	if failed.Load() > 0 {
		return fmt.Errorf("%d of %d documents failed to ingest", failed.Load(), len(paths))
	}
	return nil
}

// expandPaths replaces each directory argument with the supported files
// directly inside it.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".pdf", ".docx", ".txt", ".text":
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	if len(paths) == 0 {
		return nil, errors.New("no supported documents found")
	}
	return paths, nil
}

func ingestFile(ctx context.Context, guidance services.GuidanceService, extractor services.ExtractorService, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	name := filepath.Base(path)
	content, err := extractor.Extract(name, data)
	if err != nil {
		return err
	}

	chunks, err := guidance.Ingest(ctx, documentID(name), ingestDocType, content.Text)
	if err != nil {
		return err
	}

	logger.Get().WithField("path", path).Infof("✅ Ingested %d chunks", chunks)
	return nil
}

// documentID derives a stable ID from the file name so re-ingesting the same
// file replaces its chunks.
func documentID(name string) string {
	id := strings.TrimSuffix(name, filepath.Ext(name))
	id = strings.ToLower(strings.ReplaceAll(id, " ", "_"))
	return ingestDocType + "/" + id
}
