package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/ats-analyzer/internal/events"
	"alfredoptarigan/ats-analyzer/internal/logger"
	"alfredoptarigan/ats-analyzer/internal/models"
	"alfredoptarigan/ats-analyzer/internal/report"
	"alfredoptarigan/ats-analyzer/internal/repositories"
)

// AnalyzerService runs the resume -> prompt -> LLM -> report pipeline.
type AnalyzerService interface {
	AnalyzeText(ctx context.Context, text string) (*Outcome, error)
	AnalyzeDocument(ctx context.Context, analysisID uuid.UUID) error
}

// Outcome is a sanitized report plus what is needed to store or explain it.
type Outcome struct {
	Result    *report.Result
	Warnings  []string
	Raw       string
	Provider  string
	Model     string
	Truncated bool
}

type AnalyzerOptions struct {
	MaxChars      int
	GuidanceLimit int
	RetryAttempts int
	RetryDelay    time.Duration
	CallTimeout   time.Duration
}

type analyzerService struct {
	analysisRepo  repositories.AnalysisRepository
	docRepo       repositories.DocumentRepository
	storage       StorageService
	extractor     ExtractorService
	llm           LLMService
	guidance      GuidanceService
	notifier      events.Notifier
	promptBuilder *PromptBuilder
	opts          AnalyzerOptions
	log           *logrus.Logger
}

// NewAnalyzerService wires the pipeline. guidance may be nil when no guidance
// store is configured; the repositories, storage and extractor are only used
// by AnalyzeDocument.
func NewAnalyzerService(
	analysisRepo repositories.AnalysisRepository,
	docRepo repositories.DocumentRepository,
	storage StorageService,
	extractor ExtractorService,
	llm LLMService,
	guidance GuidanceService,
	notifier events.Notifier,
	promptBuilder *PromptBuilder,
	opts AnalyzerOptions,
) AnalyzerService {
	if notifier == nil {
		notifier = events.NewNoopNotifier()
	}
	return &analyzerService{
		analysisRepo:  analysisRepo,
		docRepo:       docRepo,
		storage:       storage,
		extractor:     extractor,
		llm:           llm,
		guidance:      guidance,
		notifier:      notifier,
		promptBuilder: promptBuilder,
		opts:          opts,
		log:           logger.Get(),
	}
}

// AnalyzeText scores resume text. A response that cannot be sanitized counts
// as a failed attempt and is retried like a transport error.
func (a *analyzerService) AnalyzeText(ctx context.Context, text string) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyDocument
	}

	text, truncated := truncateRunes(text, a.opts.MaxChars)
	if truncated {
		a.log.WithField("max_chars", a.opts.MaxChars).Warn("✂️  Resume text truncated before analysis")
	}

	guidance := a.retrieveGuidance(ctx, text)
	prompt := a.promptBuilder.BuildAnalysisPrompt(text, guidance)

	a.log.WithFields(logrus.Fields{
		"provider":      a.llm.Name(),
		"model":         a.llm.Model(),
		"prompt_length": len(prompt.System) + len(prompt.User),
	}).Info("🤖 Analyzing resume with LLM...")

	var lastRaw string
	outcome, err := Retry(ctx, a.opts.RetryAttempts, a.opts.RetryDelay, func(ctx context.Context) (*Outcome, error) {
		callCtx := ctx
		if a.opts.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, a.opts.CallTimeout)
			defer cancel()
		}

		raw, err := a.llm.GenerateText(callCtx, prompt)
		if err != nil {
			return nil, err
		}
		lastRaw = raw

		result, err := report.Transform(raw)
		if err != nil {
			return nil, err
		}

		return &Outcome{
			Result:    result,
			Warnings:  report.Validate(result),
			Raw:       raw,
			Provider:  a.llm.Name(),
			Model:     a.llm.Model(),
			Truncated: truncated,
		}, nil
	})
	if err != nil {
		if lastRaw != "" {
			a.log.WithField("response_length", len(lastRaw)).Debug("❌ Last LLM response could not be used")
		}
		return nil, fmt.Errorf("failed to analyze resume: %w", err)
	}

	for _, w := range outcome.Warnings {
		a.log.WithField("warning", w).Warn("⚠️  Report quality warning")
	}

	a.log.WithField("response_length", len(outcome.Raw)).Info("✅ Resume analysis received")
	return outcome, nil
}

func (a *analyzerService) retrieveGuidance(ctx context.Context, text string) string {
	if a.guidance == nil || a.opts.GuidanceLimit <= 0 {
		return ""
	}

	a.log.Debug("🔍 Retrieving reference guidance...")
	guidance, err := a.guidance.Retrieve(ctx, text, a.opts.GuidanceLimit)
	if err != nil {
		a.log.WithError(err).Warn("⚠️  Failed to retrieve guidance, continuing without it")
		return ""
	}
	return guidance
}

// AnalyzeDocument processes a queued analysis row end to end. It is a no-op
// when the row has already been claimed by another worker.
func (a *analyzerService) AnalyzeDocument(ctx context.Context, analysisID uuid.UUID) error {
	claimed, err := a.analysisRepo.Claim(ctx, analysisID)
	if err != nil {
		return err
	}
	if !claimed {
		a.log.WithField("analysis_id", analysisID).Debug("⏭️  Analysis already claimed")
		return nil
	}

	log := a.log.WithField("analysis_id", analysisID)
	log.Info("🔄 Starting analysis")
	a.publish(ctx, analysisID, models.StatusProcessing, "analysis started")

	analysis, err := a.analysisRepo.FindByID(ctx, analysisID)
	if err != nil {
		return a.fail(ctx, analysisID, "failed to load analysis", err)
	}

	text, err := a.documentText(ctx, analysis.DocumentID)
	if err != nil {
		return a.fail(ctx, analysisID, "failed to load document", err)
	}

	outcome, err := a.AnalyzeText(ctx, text)
	if err != nil {
		return a.fail(ctx, analysisID, "", err)
	}

	data, err := resultData(outcome)
	if err != nil {
		return a.fail(ctx, analysisID, "failed to encode report", err)
	}

	// a finished report is saved even when shutdown has started
	saveCtx, cancel := settleContext(ctx)
	defer cancel()

	log.Info("💾 Saving analysis result...")
	if err := a.analysisRepo.UpdateResult(saveCtx, analysisID, data); err != nil {
		return a.fail(ctx, analysisID, "failed to save result", err)
	}

	a.publish(saveCtx, analysisID, models.StatusCompleted, "analysis completed")
	log.Info("✅ Analysis completed")
	return nil
}

// documentText prefers the text extracted at upload time and falls back to
// re-reading the stored file.
func (a *analyzerService) documentText(ctx context.Context, documentID uuid.UUID) (string, error) {
	doc, err := a.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(doc.Text) != "" {
		return doc.Text, nil
	}
	if a.storage == nil || a.extractor == nil || doc.StorageKey == "" {
		return "", ErrEmptyDocument
	}

	data, err := a.storage.Open(ctx, doc.StorageKey)
	if err != nil {
		return "", err
	}
	content, err := a.extractor.Extract(doc.OriginalFileName, data)
	if err != nil {
		return "", err
	}
	return content.Text, nil
}

// fail settles a claimed analysis that could not complete. When ctx was
// cancelled the row goes back to the queue for the next start, otherwise it
// is marked failed. msg, when set, prefixes the returned error.
func (a *analyzerService) fail(ctx context.Context, analysisID uuid.UUID, msg string, cause error) error {
	err := cause
	if msg != "" {
		err = fmt.Errorf("%s: %w", msg, cause)
	}

	writeCtx, cancel := settleContext(ctx)
	defer cancel()
	log := a.log.WithField("analysis_id", analysisID)

	if ctx.Err() != nil {
		if updateErr := a.analysisRepo.UpdateStatus(writeCtx, analysisID, models.StatusQueued); updateErr != nil {
			log.WithError(updateErr).Error("❌ Failed to requeue interrupted analysis")
		} else {
			log.Warn("↩️  Analysis interrupted, returned to the queue")
		}
		a.publish(writeCtx, analysisID, models.StatusQueued, "analysis interrupted, requeued")
		return err
	}

	if updateErr := a.analysisRepo.UpdateError(writeCtx, analysisID, userMessage(cause)); updateErr != nil {
		log.WithError(updateErr).Error("❌ Failed to record analysis error")
	}
	a.publish(writeCtx, analysisID, models.StatusFailed, userMessage(cause))
	return err
}

// settleTimeout bounds status writes made after ctx may have been cancelled.
const settleTimeout = 10 * time.Second

func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

func (a *analyzerService) publish(ctx context.Context, analysisID uuid.UUID, status models.AnalysisStatus, message string) {
	err := a.notifier.Publish(ctx, events.StatusEvent{
		AnalysisID: analysisID.String(),
		Status:     string(status),
		Message:    message,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		a.log.WithError(err).WithField("analysis_id", analysisID).Warn("⚠️  Failed to publish status event")
	}
}

// userMessage maps pipeline errors to what the API reports for a failed
// analysis.
func userMessage(err error) string {
	switch {
	case errors.Is(err, report.ErrInvalidReport):
		return report.ErrInvalidReport.Error()
	case errors.Is(err, ErrEmptyDocument):
		return ErrEmptyDocument.Error()
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrUnsupportedFormat.Error()
	case errors.Is(err, repositories.ErrNotFound):
		return "document not found"
	case errors.Is(err, context.DeadlineExceeded):
		return "analysis timed out. please try again"
	default:
		return "failed to analyze resume. please try again"
	}
}

func resultData(outcome *Outcome) (*repositories.AnalysisResultData, error) {
	reportJSON, err := json.Marshal(outcome.Result)
	if err != nil {
		return nil, err
	}

	data := &repositories.AnalysisResultData{
		Provider:    outcome.Provider,
		Model:       outcome.Model,
		TotalScore:  outcome.Result.TotalScore(),
		Report:      string(reportJSON),
		RawResponse: outcome.Raw,
		Truncated:   outcome.Truncated,
	}
	if len(outcome.Warnings) > 0 {
		warnings, err := json.Marshal(outcome.Warnings)
		if err != nil {
			return nil, err
		}
		w := string(warnings)
		data.Warnings = &w
	}
	return data, nil
}

func truncateRunes(text string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text, false
	}
	return string([]rune(text)[:max]), true
}
