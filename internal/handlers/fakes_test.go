package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/ats-analyzer/internal/models"
	"alfredoptarigan/ats-analyzer/internal/repositories"
	"alfredoptarigan/ats-analyzer/internal/services"
)

type memDocRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]models.Document
	err  error
}

func (m *memDocRepo) Create(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.docs[doc.ID] = *doc
	return nil
}

func (m *memDocRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, repositories.ErrNotFound)
	}
	return &doc, nil
}

type memAnalysisRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.Analysis
}

func (m *memAnalysisRepo) Create(_ context.Context, a *models.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[a.ID] = *a
	return nil
}

func (m *memAnalysisRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("analysis %s: %w", id, repositories.ErrNotFound)
	}
	return &a, nil
}

func (m *memAnalysisRepo) Claim(context.Context, uuid.UUID) (bool, error) { return true, nil }

func (m *memAnalysisRepo) UpdateStatus(context.Context, uuid.UUID, models.AnalysisStatus) error {
	return nil
}

func (m *memAnalysisRepo) UpdateResult(context.Context, uuid.UUID, *repositories.AnalysisResultData) error {
	return nil
}

func (m *memAnalysisRepo) UpdateError(context.Context, uuid.UUID, string) error { return nil }

func (m *memAnalysisRepo) FindQueued(context.Context, int) ([]models.Analysis, error) {
	return nil, nil
}

func (m *memAnalysisRepo) RequeueStale(context.Context, time.Time) (int64, error) { return 0, nil }

type recordingWorker struct {
	mu   sync.Mutex
	jobs []uuid.UUID
}

func (w *recordingWorker) Start(context.Context) {}
func (w *recordingWorker) Stop()                 {}

func (w *recordingWorker) EnqueueJob(id uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.jobs = append(w.jobs, id)
	return true
}

type stubAnalyzer struct {
	outcome *services.Outcome
	err     error
	texts   []string
}

func (s *stubAnalyzer) AnalyzeText(_ context.Context, text string) (*services.Outcome, error) {
	s.texts = append(s.texts, text)
	return s.outcome, s.err
}

func (s *stubAnalyzer) AnalyzeDocument(context.Context, uuid.UUID) error {
	return errors.New("not used")
}

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                  { return s.name }
func (s stubChecker) Check(context.Context) error { return s.err }

func multipartRequest(t *testing.T, target, field, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
