package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/ats-analyzer/internal/handlers/presenter"
	"alfredoptarigan/ats-analyzer/internal/logger"
	"alfredoptarigan/ats-analyzer/internal/models"
	"alfredoptarigan/ats-analyzer/internal/report"
	"alfredoptarigan/ats-analyzer/internal/services"
)

// AnalyzeHandler serves the stateless endpoints: one-shot analysis of an
// uploaded file and sanitizing of raw model output.
type AnalyzeHandler struct {
	analyzer    services.AnalyzerService
	extractor   services.ExtractorService
	maxFileSize int64
	log         *logrus.Logger
}

func NewAnalyzeHandler(analyzer services.AnalyzerService, extractor services.ExtractorService, maxFileSize int64) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:    analyzer,
		extractor:   extractor,
		maxFileSize: maxFileSize,
		log:         logger.Get(),
	}
}

type TransformResponse struct {
	Report   *report.Result `json:"report"`
	Warnings []string       `json:"warnings,omitempty"`
}

// HandleAnalyze handles POST /api/v1/analyze.
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	filename, data, err := readUpload(c, h.maxFileSize)
	if err != nil {
		return presenter.Error(c, fiber.StatusBadRequest, err.Error())
	}

	content, err := h.extractor.Extract(filename, data)
	if err != nil {
		return extractionError(c, err)
	}

	outcome, err := h.analyzer.AnalyzeText(c.UserContext(), content.Text)
	if err != nil {
		h.log.WithError(err).WithField("filename", filename).Error("❌ Synchronous analysis failed")
		return analysisError(c, err)
	}

	reportJSON, err := json.Marshal(outcome.Result)
	if err != nil {
		return presenter.Error(c, fiber.StatusInternalServerError, "failed to encode report")
	}

	return presenter.JSON(c, fiber.StatusOK, models.SyncAnalysisResponse{
		Filename:   filename,
		Provider:   outcome.Provider,
		Model:      outcome.Model,
		TotalScore: outcome.Result.TotalScore(),
		Truncated:  outcome.Truncated,
		Report:     reportJSON,
		Warnings:   outcome.Warnings,
	})
}

// HandleTransform handles POST /api/v1/transform. The request body is raw
// model output.
func (h *AnalyzeHandler) HandleTransform(c *fiber.Ctx) error {
	result, err := report.Transform(string(c.Body()))
	if err != nil {
		h.log.WithError(err).Debug("Transform rejected input")
		return presenter.Error(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	return presenter.JSON(c, fiber.StatusOK, TransformResponse{
		Report:   result,
		Warnings: report.Validate(result),
	})
}

func analysisError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEmptyDocument):
		return presenter.Error(c, fiber.StatusUnprocessableEntity, services.ErrEmptyDocument.Error())
	case errors.Is(err, report.ErrInvalidReport):
		return presenter.Error(c, fiber.StatusBadGateway, report.ErrInvalidReport.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return presenter.Error(c, fiber.StatusGatewayTimeout, "analysis timed out. please try again")
	default:
		return presenter.Error(c, fiber.StatusBadGateway, "failed to analyze resume. please try again")
	}
}
