package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/ats-analyzer/internal/events"
	"alfredoptarigan/ats-analyzer/internal/models"
	"alfredoptarigan/ats-analyzer/internal/repositories"
)

func fixtureResponse(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../report/testdata/gemini_response.txt")
	require.NoError(t, err)
	return string(data)
}

type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []Prompt
	// started, when set, makes GenerateText signal it and then block until
	// the context is done.
	started chan struct{}
}

func (f *fakeLLM) Name() string  { return "fake" }
func (f *fakeLLM) Model() string { return "fake-model" }

func (f *fakeLLM) GenerateText(ctx context.Context, prompt Prompt) (string, error) {
	if f.started != nil {
		close(f.started)
		<-ctx.Done()
		return "", ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeGuidance struct {
	text string
	err  error
}

func (f *fakeGuidance) Ingest(context.Context, string, string, string) (int, error) { return 0, nil }

func (f *fakeGuidance) Retrieve(context.Context, string, int) (string, error) {
	return f.text, f.err
}

type fakeDocRepo struct {
	docs map[uuid.UUID]*models.Document
}

func (f *fakeDocRepo) Create(_ context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, repositories.ErrNotFound)
	}
	return doc, nil
}

type fakeAnalysisRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*models.Analysis
	results   map[uuid.UUID]*repositories.AnalysisResultData
	claimErr  error
	resultErr error
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{
		rows:    map[uuid.UUID]*models.Analysis{},
		results: map[uuid.UUID]*repositories.AnalysisResultData{},
	}
}

func (f *fakeAnalysisRepo) Create(_ context.Context, a *models.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = models.StatusQueued
	}
	f.rows[a.ID] = a
	return nil
}

func (f *fakeAnalysisRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("analysis %s: %w", id, repositories.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAnalysisRepo) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	a, ok := f.rows[id]
	if !ok || a.Status != models.StatusQueued {
		return false, nil
	}
	a.Status = models.StatusProcessing
	return true, nil
}

func (f *fakeAnalysisRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.Status = status
	return nil
}

func (f *fakeAnalysisRepo) UpdateResult(ctx context.Context, id uuid.UUID, data *repositories.AnalysisResultData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resultErr != nil {
		return f.resultErr
	}
	a, ok := f.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.Status = models.StatusCompleted
	a.TotalScore = data.TotalScore
	a.Report = &data.Report
	f.results[id] = data
	return nil
}

func (f *fakeAnalysisRepo) UpdateError(ctx context.Context, id uuid.UUID, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.Status = models.StatusFailed
	a.ErrorMessage = &msg
	return nil
}

func (f *fakeAnalysisRepo) FindQueued(_ context.Context, limit int) ([]models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Analysis
	for _, a := range f.rows {
		if a.Status == models.StatusQueued && len(out) < limit {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAnalysisRepo) RequeueStale(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.rows {
		if a.Status == models.StatusProcessing && a.UpdatedAt.Before(before) {
			a.Status = models.StatusQueued
			n++
		}
	}
	return n, nil
}

func (f *fakeAnalysisRepo) status(id uuid.UUID) models.AnalysisStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].Status
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.StatusEvent
}

func (r *recordingNotifier) Publish(_ context.Context, e events.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func (r *recordingNotifier) statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Status
	}
	return out
}
