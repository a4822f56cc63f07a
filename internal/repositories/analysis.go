package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/ats-analyzer/internal/models"
)

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *models.Analysis) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisStatus) error
	UpdateResult(ctx context.Context, id uuid.UUID, data *AnalysisResultData) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
	FindQueued(ctx context.Context, limit int) ([]models.Analysis, error)
	RequeueStale(ctx context.Context, before time.Time) (int64, error)
}

// AnalysisResultData is everything stored when an analysis completes.
type AnalysisResultData struct {
	Provider    string
	Model       string
	TotalScore  *float64
	Report      string
	RawResponse string
	Warnings    *string
	Truncated   bool
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	if err := r.db.WithContext(ctx).Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

// Claim moves a queued analysis to processing. It reports false when another
// worker got there first.
func (r *analysisRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Analysis{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]any{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim analysis: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *analysisRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisStatus) error {
	return r.update(ctx, id, "status", map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	})
}

func (r *analysisRepository) UpdateResult(ctx context.Context, id uuid.UUID, data *AnalysisResultData) error {
	updates := map[string]any{
		"status":        models.StatusCompleted,
		"provider":      data.Provider,
		"model":         data.Model,
		"report":        data.Report,
		"raw_response":  data.RawResponse,
		"truncated":     data.Truncated,
		"error_message": nil,
		"updated_at":    time.Now(),
	}

	if data.TotalScore != nil {
		updates["total_score"] = *data.TotalScore
	}
	if data.Warnings != nil {
		updates["warnings"] = *data.Warnings
	}

	return r.update(ctx, id, "result", updates)
}

func (r *analysisRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.update(ctx, id, "error", map[string]any{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
		"updated_at":    time.Now(),
	})
}

func (r *analysisRepository) update(ctx context.Context, id uuid.UUID, what string, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", what, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}

	return nil
}

func (r *analysisRepository) FindQueued(ctx context.Context, limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find queued analyses: %w", err)
	}

	return analyses, nil
}

// RequeueStale puts processing rows last touched before the cutoff back in
// the queue. A process that died mid-analysis leaves such rows behind.
func (r *analysisRepository) RequeueStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Analysis{}).
		Where("status = ? AND updated_at < ?", models.StatusProcessing, before).
		Updates(map[string]any{
			"status":     models.StatusQueued,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to requeue stale analyses: %w", result.Error)
	}

	return result.RowsAffected, nil
}
