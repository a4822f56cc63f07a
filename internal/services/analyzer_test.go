package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/ats-analyzer/internal/models"
	"alfredoptarigan/ats-analyzer/internal/report"
)

type analyzerDeps struct {
	llm      *fakeLLM
	docs     *fakeDocRepo
	analyses *fakeAnalysisRepo
	notifier *recordingNotifier
	storage  StorageService
	guidance GuidanceService
	opts     AnalyzerOptions
}

func newAnalyzerDeps(t *testing.T, llm *fakeLLM) *analyzerDeps {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	return &analyzerDeps{
		llm:      llm,
		docs:     &fakeDocRepo{docs: map[uuid.UUID]*models.Document{}},
		analyses: newFakeAnalysisRepo(),
		notifier: &recordingNotifier{},
		storage:  store,
		opts: AnalyzerOptions{
			MaxChars:      1000,
			GuidanceLimit: 3,
			RetryAttempts: 3,
			RetryDelay:    time.Millisecond,
		},
	}
}

func (d *analyzerDeps) build() AnalyzerService {
	return NewAnalyzerService(
		d.analyses, d.docs, d.storage, NewExtractorService(), d.llm, d.guidance, d.notifier,
		NewPromptBuilder(0.7, 5500), d.opts,
	)
}

func TestAnalyzeText_Success(t *testing.T) {
	llm := &fakeLLM{responses: []string{fixtureResponse(t)}}
	outcome, err := newAnalyzerDeps(t, llm).build().AnalyzeText(context.Background(), "  Jane Doe\nGo engineer  ")
	require.NoError(t, err)

	assert.Equal(t, "fake", outcome.Provider)
	assert.Equal(t, "fake-model", outcome.Model)
	assert.False(t, outcome.Truncated)
	assert.Empty(t, outcome.Warnings)
	assert.Equal(t, 85.0, *outcome.Result.TotalScore())

	require.Equal(t, 1, llm.calls())
	assert.Equal(t, "Jane Doe\nGo engineer", llm.prompts[0].User)
	assert.Equal(t, ResumeAnalysisPrompt, llm.prompts[0].System)
}

func TestAnalyzeText_RetriesUnusableResponse(t *testing.T) {
	llm := &fakeLLM{
		responses: []string{"Sorry, I cannot help with that.", fixtureResponse(t)},
	}
	outcome, err := newAnalyzerDeps(t, llm).build().AnalyzeText(context.Background(), "resume")
	require.NoError(t, err)

	assert.Equal(t, 2, llm.calls())
	assert.NotNil(t, outcome.Result)
}

func TestAnalyzeText_GivesUpWithInvalidReport(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"analysis":{}}`}}
	_, err := newAnalyzerDeps(t, llm).build().AnalyzeText(context.Background(), "resume")

	require.Error(t, err)
	assert.ErrorIs(t, err, report.ErrInvalidReport)
	assert.Equal(t, 3, llm.calls())
}

func TestAnalyzeText_ProviderError(t *testing.T) {
	boom := errors.New("rate limited")
	llm := &fakeLLM{errs: []error{boom, boom, boom}, responses: []string{""}}
	_, err := newAnalyzerDeps(t, llm).build().AnalyzeText(context.Background(), "resume")

	assert.ErrorIs(t, err, boom)
}

func TestAnalyzeText_EmptyText(t *testing.T) {
	llm := &fakeLLM{responses: []string{"{}"}}
	_, err := newAnalyzerDeps(t, llm).build().AnalyzeText(context.Background(), " \n ")

	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.Zero(t, llm.calls())
}

func TestAnalyzeText_Truncates(t *testing.T) {
	llm := &fakeLLM{responses: []string{fixtureResponse(t)}}
	deps := newAnalyzerDeps(t, llm)
	deps.opts.MaxChars = 10

	outcome, err := deps.build().AnalyzeText(context.Background(), strings.Repeat("é", 25))
	require.NoError(t, err)

	assert.True(t, outcome.Truncated)
	assert.Equal(t, strings.Repeat("é", 10), llm.prompts[0].User)
}

func TestAnalyzeText_Guidance(t *testing.T) {
	llm := &fakeLLM{responses: []string{fixtureResponse(t)}}
	deps := newAnalyzerDeps(t, llm)
	deps.guidance = &fakeGuidance{text: "Prefer measurable impact."}

	_, err := deps.build().AnalyzeText(context.Background(), "resume")
	require.NoError(t, err)
	assert.Contains(t, llm.prompts[0].System, "Prefer measurable impact.")
}

func TestAnalyzeText_GuidanceFailureIsIgnored(t *testing.T) {
	llm := &fakeLLM{responses: []string{fixtureResponse(t)}}
	deps := newAnalyzerDeps(t, llm)
	deps.guidance = &fakeGuidance{err: errors.New("qdrant down")}

	_, err := deps.build().AnalyzeText(context.Background(), "resume")
	require.NoError(t, err)
	assert.Equal(t, ResumeAnalysisPrompt, llm.prompts[0].System)
}

func TestAnalyzeText_ReportsScoringWarnings(t *testing.T) {
	bad := strings.Replace(fixtureResponse(t), `"total_score": 85`, `"total_score": 95`, 1)
	llm := &fakeLLM{responses: []string{bad}}

	outcome, err := newAnalyzerDeps(t, llm).build().AnalyzeText(context.Background(), "resume")
	require.NoError(t, err)
	assert.Contains(t, outcome.Warnings, "section scores sum to 85 but total_score is 95")
}

func TestAnalyzeDocument_Completes(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{responses: []string{fixtureResponse(t)}}
	deps := newAnalyzerDeps(t, llm)

	doc := &models.Document{OriginalFileName: "cv.txt", Text: "Jane Doe"}
	require.NoError(t, deps.docs.Create(ctx, doc))
	analysis := &models.Analysis{DocumentID: doc.ID}
	require.NoError(t, deps.analyses.Create(ctx, analysis))

	require.NoError(t, deps.build().AnalyzeDocument(ctx, analysis.ID))

	assert.Equal(t, models.StatusCompleted, deps.analyses.status(analysis.ID))
	stored := deps.analyses.results[analysis.ID]
	require.NotNil(t, stored)
	assert.Equal(t, 85.0, *stored.TotalScore)
	assert.Nil(t, stored.Warnings)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stored.Report), &payload))
	assert.Contains(t, payload, "analysis")
	assert.Contains(t, payload, "feedbackCalibration")

	assert.Equal(t, []string{"processing", "completed"}, deps.notifier.statuses())
}

func TestAnalyzeDocument_ReextractsFromStorage(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{responses: []string{fixtureResponse(t)}}
	deps := newAnalyzerDeps(t, llm)

	key, err := deps.storage.Save(ctx, "cv.txt", []byte("Stored resume text"))
	require.NoError(t, err)
	doc := &models.Document{OriginalFileName: "cv.txt", StorageKey: key}
	require.NoError(t, deps.docs.Create(ctx, doc))
	analysis := &models.Analysis{DocumentID: doc.ID}
	require.NoError(t, deps.analyses.Create(ctx, analysis))

	require.NoError(t, deps.build().AnalyzeDocument(ctx, analysis.ID))
	assert.Equal(t, "Stored resume text", llm.prompts[0].User)
}

func TestAnalyzeDocument_FailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{responses: []string{"not json"}}
	deps := newAnalyzerDeps(t, llm)
	deps.opts.RetryAttempts = 1

	doc := &models.Document{OriginalFileName: "cv.txt", Text: "Jane"}
	require.NoError(t, deps.docs.Create(ctx, doc))
	analysis := &models.Analysis{DocumentID: doc.ID}
	require.NoError(t, deps.analyses.Create(ctx, analysis))

	err := deps.build().AnalyzeDocument(ctx, analysis.ID)
	require.Error(t, err)

	row, err := deps.analyses.FindByID(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, row.Status)
	require.NotNil(t, row.ErrorMessage)
	assert.Equal(t, report.ErrInvalidReport.Error(), *row.ErrorMessage)
	assert.Equal(t, []string{"processing", "failed"}, deps.notifier.statuses())
}

func TestAnalyzeDocument_MissingDocument(t *testing.T) {
	ctx := context.Background()
	deps := newAnalyzerDeps(t, &fakeLLM{responses: []string{""}})

	analysis := &models.Analysis{DocumentID: uuid.New()}
	require.NoError(t, deps.analyses.Create(ctx, analysis))

	require.Error(t, deps.build().AnalyzeDocument(ctx, analysis.ID))
	row, _ := deps.analyses.FindByID(ctx, analysis.ID)
	assert.Equal(t, "document not found", *row.ErrorMessage)
}

func TestAnalyzeDocument_SkipsClaimedJob(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{responses: []string{fixtureResponse(t)}}
	deps := newAnalyzerDeps(t, llm)

	analysis := &models.Analysis{DocumentID: uuid.New(), Status: models.StatusProcessing}
	require.NoError(t, deps.analyses.Create(ctx, analysis))

	require.NoError(t, deps.build().AnalyzeDocument(ctx, analysis.ID))
	assert.Zero(t, llm.calls())
	assert.Empty(t, deps.notifier.statuses())
}

func TestAnalyzeDocument_CancelledJobReturnsToQueue(t *testing.T) {
	llm := &fakeLLM{started: make(chan struct{})}
	deps := newAnalyzerDeps(t, llm)

	doc := &models.Document{OriginalFileName: "cv.txt", Text: "Jane"}
	require.NoError(t, deps.docs.Create(context.Background(), doc))
	analysis := &models.Analysis{DocumentID: doc.ID}
	require.NoError(t, deps.analyses.Create(context.Background(), analysis))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- deps.build().AnalyzeDocument(ctx, analysis.ID) }()

	<-llm.started
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("analysis did not stop after cancellation")
	}

	assert.Equal(t, models.StatusQueued, deps.analyses.status(analysis.ID))
	assert.Equal(t, []string{"processing", "queued"}, deps.notifier.statuses())
}

func TestAnalyzeDocument_SaveFailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	deps := newAnalyzerDeps(t, &fakeLLM{responses: []string{fixtureResponse(t)}})
	deps.analyses.resultErr = errors.New("connection reset")

	doc := &models.Document{OriginalFileName: "cv.txt", Text: "Jane"}
	require.NoError(t, deps.docs.Create(ctx, doc))
	analysis := &models.Analysis{DocumentID: doc.ID}
	require.NoError(t, deps.analyses.Create(ctx, analysis))

	err := deps.build().AnalyzeDocument(ctx, analysis.ID)
	require.ErrorContains(t, err, "failed to save result: connection reset")

	row, err := deps.analyses.FindByID(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, row.Status)
	assert.Equal(t, []string{"processing", "failed"}, deps.notifier.statuses())
}

func TestAnalyzeDocument_ErrorIsWrappedOnce(t *testing.T) {
	ctx := context.Background()
	deps := newAnalyzerDeps(t, &fakeLLM{responses: []string{"not json"}})
	deps.opts.RetryAttempts = 1

	doc := &models.Document{OriginalFileName: "cv.txt", Text: "Jane"}
	require.NoError(t, deps.docs.Create(ctx, doc))
	analysis := &models.Analysis{DocumentID: doc.ID}
	require.NoError(t, deps.analyses.Create(ctx, analysis))

	err := deps.build().AnalyzeDocument(ctx, analysis.ID)
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to analyze resume"))
}
