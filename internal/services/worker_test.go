package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/ats-analyzer/internal/models"
)

type countingAnalyzer struct {
	mu   sync.Mutex
	seen []uuid.UUID
	repo *fakeAnalysisRepo
}

func (c *countingAnalyzer) AnalyzeText(context.Context, string) (*Outcome, error) { return nil, nil }

func (c *countingAnalyzer) AnalyzeDocument(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	c.seen = append(c.seen, id)
	c.mu.Unlock()
	if c.repo != nil {
		return c.repo.UpdateStatus(ctx, id, models.StatusCompleted)
	}
	return nil
}

func (c *countingAnalyzer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func TestWorker_ProcessesEnqueuedJobs(t *testing.T) {
	analyzer := &countingAnalyzer{}
	w := NewWorker(newFakeAnalysisRepo(), analyzer, WorkerOptions{Concurrency: 2, QueueSize: 10, PollInterval: time.Hour})
	w.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.True(t, w.EnqueueJob(uuid.New()))
	}

	assert.Eventually(t, func() bool { return analyzer.count() == 5 }, time.Second, 5*time.Millisecond)
	w.Stop()

	assert.False(t, w.EnqueueJob(uuid.New()))
}

func TestWorker_PollerPicksUpQueuedRows(t *testing.T) {
	repo := newFakeAnalysisRepo()
	queued := &models.Analysis{DocumentID: uuid.New()}
	require.NoError(t, repo.Create(context.Background(), queued))

	analyzer := &countingAnalyzer{repo: repo}
	w := NewWorker(repo, analyzer, WorkerOptions{Concurrency: 1, QueueSize: 10, PollInterval: 10 * time.Millisecond})
	w.Start(context.Background())
	defer w.Stop()

	assert.Eventually(t, func() bool { return repo.status(queued.ID) == models.StatusCompleted }, time.Second, 5*time.Millisecond)
}

func TestWorker_FullQueueDoesNotBlock(t *testing.T) {
	w := NewWorker(newFakeAnalysisRepo(), &countingAnalyzer{}, WorkerOptions{Concurrency: 1, QueueSize: 1, PollInterval: time.Hour})

	assert.True(t, w.EnqueueJob(uuid.New()))
	assert.False(t, w.EnqueueJob(uuid.New()))
}

func TestWorker_StopIsIdempotent(t *testing.T) {
	w := NewWorker(newFakeAnalysisRepo(), &countingAnalyzer{}, WorkerOptions{})
	w.Start(context.Background())
	w.Stop()
	w.Stop()
}

func TestWorker_RequeuesStaleProcessingRows(t *testing.T) {
	repo := newFakeAnalysisRepo()
	stale := &models.Analysis{DocumentID: uuid.New(), Status: models.StatusProcessing, UpdatedAt: time.Now().Add(-time.Hour)}
	fresh := &models.Analysis{DocumentID: uuid.New(), Status: models.StatusProcessing, UpdatedAt: time.Now()}
	require.NoError(t, repo.Create(context.Background(), stale))
	require.NoError(t, repo.Create(context.Background(), fresh))

	analyzer := &countingAnalyzer{repo: repo}
	w := NewWorker(repo, analyzer, WorkerOptions{Concurrency: 1, PollInterval: 10 * time.Millisecond, StaleAfter: time.Minute})
	w.Start(context.Background())
	defer w.Stop()

	assert.Eventually(t, func() bool { return repo.status(stale.ID) == models.StatusCompleted }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.StatusProcessing, repo.status(fresh.ID))
}
