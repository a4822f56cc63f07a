package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/ats-analyzer/internal/handlers/presenter"
	"alfredoptarigan/ats-analyzer/internal/logger"
	"alfredoptarigan/ats-analyzer/internal/models"
	"alfredoptarigan/ats-analyzer/internal/report"
	"alfredoptarigan/ats-analyzer/internal/repositories"
	"alfredoptarigan/ats-analyzer/internal/services"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

type AnalysisHandler struct {
	analysisRepo repositories.AnalysisRepository
	docRepo      repositories.DocumentRepository
	worker       services.Worker
	log          *logrus.Logger
}

func NewAnalysisHandler(
	analysisRepo repositories.AnalysisRepository,
	docRepo repositories.DocumentRepository,
	worker services.Worker,
) *AnalysisHandler {
	return &AnalysisHandler{
		analysisRepo: analysisRepo,
		docRepo:      docRepo,
		worker:       worker,
		log:          logger.Get(),
	}
}

// HandleCreate handles POST /api/v1/analyses.
func (h *AnalysisHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateAnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, fiber.StatusBadRequest, "invalid request payload")
	}
	if err := validate.Struct(req); err != nil {
		return presenter.Error(c, fiber.StatusBadRequest, validationMessage(err))
	}

	ctx := c.UserContext()
	docID := uuid.MustParse(req.DocumentID)
	if _, err := h.docRepo.FindByID(ctx, docID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return presenter.Error(c, fiber.StatusNotFound, "document not found")
		}
		return presenter.Error(c, fiber.StatusInternalServerError, "failed to load document")
	}

	analysis := &models.Analysis{
		ID:         uuid.New(),
		DocumentID: docID,
		Status:     models.StatusQueued,
	}
	if err := h.analysisRepo.Create(ctx, analysis); err != nil {
		h.log.WithError(err).Error("❌ Failed to create analysis job")
		return presenter.Error(c, fiber.StatusInternalServerError, "failed to create analysis job")
	}

	h.worker.EnqueueJob(analysis.ID)

	return presenter.JSON(c, fiber.StatusAccepted, models.CreateAnalysisResponse{
		ID:     analysis.ID.String(),
		Status: string(models.StatusQueued),
	})
}

// HandleGet handles GET /api/v1/analyses/:id.
func (h *AnalysisHandler) HandleGet(c *fiber.Ctx) error {
	analysis, err := h.find(c)
	if err != nil {
		return err
	}

	resp := models.AnalysisResponse{
		ID:           analysis.ID.String(),
		DocumentID:   analysis.DocumentID.String(),
		Status:       string(analysis.Status),
		Provider:     analysis.Provider,
		Model:        analysis.Model,
		Truncated:    analysis.Truncated,
		ErrorMessage: analysis.ErrorMessage,
	}

	if analysis.Status == models.StatusCompleted {
		resp.TotalScore = analysis.TotalScore
		if analysis.Report != nil {
			resp.Report = json.RawMessage(*analysis.Report)
		}
		if analysis.Warnings != nil {
			if err := json.Unmarshal([]byte(*analysis.Warnings), &resp.Warnings); err != nil {
				h.log.WithError(err).WithField("analysis_id", analysis.ID).Warn("⚠️  Stored warnings are not valid JSON")
			}
		}
	}

	return presenter.JSON(c, fiber.StatusOK, resp)
}

// HandleReport handles GET /api/v1/analyses/:id/report and sends the
// Markdown full report as a download.
func (h *AnalysisHandler) HandleReport(c *fiber.Ctx) error {
	analysis, err := h.find(c)
	if err != nil {
		return err
	}

	if analysis.Status != models.StatusCompleted || analysis.Report == nil {
		return presenter.Error(c, fiber.StatusConflict, fmt.Sprintf("analysis is %s, report not available", analysis.Status))
	}

	var result report.Result
	if err := json.Unmarshal([]byte(*analysis.Report), &result); err != nil {
		h.log.WithError(err).WithField("analysis_id", analysis.ID).Error("❌ Stored report is not valid JSON")
		return presenter.Error(c, fiber.StatusInternalServerError, "failed to read report")
	}

	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="ats-report-%s.md"`, analysis.ID))
	return c.Status(fiber.StatusOK).SendString(report.Render(result.Typed()))
}

// find loads the analysis named by the :id route param. Its errors are
// *fiber.Error values for the app's error handler.
func (h *AnalysisHandler) find(c *fiber.Ctx) (*models.Analysis, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid analysis ID format")
	}

	analysis, err := h.analysisRepo.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "analysis not found")
		}
		h.log.WithError(err).Error("❌ Failed to load analysis")
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load analysis")
	}

	return analysis, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request payload"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "uuid":
		return fmt.Sprintf("invalid %s format", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
