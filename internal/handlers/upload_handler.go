package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/ats-analyzer/internal/handlers/presenter"
	"alfredoptarigan/ats-analyzer/internal/logger"
	"alfredoptarigan/ats-analyzer/internal/models"
	"alfredoptarigan/ats-analyzer/internal/repositories"
	"alfredoptarigan/ats-analyzer/internal/services"
)

// uploadField is the multipart field every upload endpoint reads.
const uploadField = "file"

type UploadHandler struct {
	docRepo     repositories.DocumentRepository
	storage     services.StorageService
	extractor   services.ExtractorService
	maxFileSize int64
	log         *logrus.Logger
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storage services.StorageService,
	extractor services.ExtractorService,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		docRepo:     docRepo,
		storage:     storage,
		extractor:   extractor,
		maxFileSize: maxFileSize,
		log:         logger.Get(),
	}
}

// HandleExtractText handles POST /upload: the extracted text is returned as
// plain text and nothing is stored.
func (h *UploadHandler) HandleExtractText(c *fiber.Ctx) error {
	filename, data, err := readUpload(c, h.maxFileSize)
	if err != nil {
		return presenter.Error(c, fiber.StatusBadRequest, err.Error())
	}

	content, err := h.extractor.Extract(filename, data)
	if err != nil {
		return extractionError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusOK).SendString(content.Text)
}

// HandleUpload handles POST /api/v1/upload.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	filename, data, err := readUpload(c, h.maxFileSize)
	if err != nil {
		return presenter.Error(c, fiber.StatusBadRequest, err.Error())
	}

	content, err := h.extractor.Extract(filename, data)
	if err != nil {
		return extractionError(c, err)
	}

	ctx := c.UserContext()
	key, err := h.storage.Save(ctx, filename, data)
	if err != nil {
		h.log.WithError(err).Error("❌ Failed to store upload")
		return presenter.Error(c, fiber.StatusInternalServerError, "failed to save file")
	}

	doc := models.Document{
		ID:               uuid.New(),
		OriginalFileName: filename,
		Format:           content.Format,
		StorageKey:       key,
		SizeBytes:        int64(len(data)),
		PageCount:        content.PageCount,
		Text:             content.Text,
	}

	if err := h.docRepo.Create(ctx, &doc); err != nil {
		if delErr := h.storage.Delete(ctx, key); delErr != nil {
			h.log.WithError(delErr).WithField("key", key).Warn("⚠️  Failed to clean up stored upload")
		}
		h.log.WithError(err).Error("❌ Failed to save document record")
		return presenter.Error(c, fiber.StatusInternalServerError, "failed to save document record")
	}

	h.log.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"format":      doc.Format,
		"pages":       doc.PageCount,
	}).Info("📄 Document uploaded")

	return presenter.JSON(c, fiber.StatusCreated, models.UploadResponse{
		ID:           doc.ID.String(),
		OriginalName: doc.OriginalFileName,
		Format:       doc.Format,
		SizeBytes:    doc.SizeBytes,
		PageCount:    doc.PageCount,
		TextLength:   len([]rune(doc.Text)),
	})
}

func readUpload(c *fiber.Ctx, maxFileSize int64) (string, []byte, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return "", nil, fmt.Errorf("no file uploaded. send the resume in the %q form field", uploadField)
	}
	if fh.Size > maxFileSize {
		return "", nil, fmt.Errorf("file too large. max size: %d bytes", maxFileSize)
	}

	file, err := fh.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	data, err := readAtMost(file, maxFileSize)
	if err != nil {
		return "", nil, err
	}
	return fh.Filename, data, nil
}

func readAtMost(f multipart.File, max int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(b)) > max {
		return nil, fmt.Errorf("file too large. max size: %d bytes", max)
	}
	return b, nil
}

func extractionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUnsupportedFormat):
		return presenter.Error(c, fiber.StatusUnsupportedMediaType, services.ErrUnsupportedFormat.Error())
	case errors.Is(err, services.ErrEmptyDocument):
		return presenter.Error(c, fiber.StatusUnprocessableEntity, services.ErrEmptyDocument.Error())
	default:
		logger.Get().WithError(err).Warn("⚠️  Failed to extract text")
		return presenter.Error(c, fiber.StatusUnprocessableEntity, "error processing file")
	}
}
