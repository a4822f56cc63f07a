package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/ats-analyzer/internal/logger"
)

// embedConcurrency bounds parallel embedding calls during ingestion.
const embedConcurrency = 4

// queryChars is how much of a resume is embedded to look up guidance.
const queryChars = 8000

// GuidanceService stores reference material (ATS guidelines, keyword lists)
// and retrieves the passages most relevant to a resume.
type GuidanceService interface {
	Ingest(ctx context.Context, docID, docType, text string) (int, error)
	Retrieve(ctx context.Context, resumeText string, limit int) (string, error)
}

type guidanceService struct {
	store    QdrantService
	embedder EmbeddingService
	chunker  TextChunker
	log      *logrus.Logger
}

func NewGuidanceService(store QdrantService, embedder EmbeddingService, chunker TextChunker) GuidanceService {
	return &guidanceService{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		log:      logger.Get(),
	}
}

// Ingest replaces any earlier version of docID with the chunks of text and
// returns the number of chunks stored.
func (g *guidanceService) Ingest(ctx context.Context, docID, docType, text string) (int, error) {
	chunks := g.chunker.ChunkText(text, defaultChunkSize, defaultChunkOverlap)
	if len(chunks) == 0 {
		return 0, ErrEmptyDocument
	}

	embeddings := make([][]float32, len(chunks))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(embedConcurrency)
	for i, chunk := range chunks {
		eg.Go(func() error {
			embedding, err := g.embedder.GenerateEmbedding(egCtx, chunk)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", i+1, err)
			}
			embeddings[i] = embedding
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	if err := g.store.DeleteDocument(ctx, docID); err != nil {
		return 0, err
	}
	if err := g.store.UpsertChunks(ctx, docID, docType, chunks, embeddings); err != nil {
		return 0, err
	}

	g.log.WithFields(logrus.Fields{
		"doc_id":   docID,
		"doc_type": docType,
		"chunks":   len(chunks),
	}).Info("✅ Guidance document ingested")

	return len(chunks), nil
}

// Retrieve returns the best matching passages joined into one block, or an
// empty string when nothing is stored.
func (g *guidanceService) Retrieve(ctx context.Context, resumeText string, limit int) (string, error) {
	if limit <= 0 {
		return "", nil
	}

	query, _ := truncateRunes(resumeText, queryChars)

	embedding, err := g.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return "", err
	}

	results, err := g.store.SearchSimilar(ctx, embedding, "", limit)
	if err != nil {
		return "", err
	}

	passages := make([]string, 0, len(results))
	for _, r := range results {
		if text := strings.TrimSpace(r.Text); text != "" {
			passages = append(passages, text)
		}
	}

	return strings.Join(passages, "\n---\n"), nil
}
