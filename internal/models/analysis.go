package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	StatusQueued     AnalysisStatus = "queued"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// Analysis is one ATS scoring run over a stored document. Report holds the
// sanitized JSON exactly as it is served to clients.
type Analysis struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DocumentID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	Status       AnalysisStatus `gorm:"not null;default:'queued'" json:"status"`
	Provider     string         `gorm:"type:text" json:"provider"`
	Model        string         `gorm:"type:text" json:"model"`
	TotalScore   *float64       `gorm:"type:decimal(5,2)" json:"total_score,omitempty"`
	Report       *string        `gorm:"type:jsonb" json:"-"`
	RawResponse  *string        `gorm:"type:text" json:"-"`
	Warnings     *string        `gorm:"type:text" json:"-"`
	Truncated    bool           `gorm:"not null;default:false" json:"truncated"`
	ErrorMessage *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Document Document `gorm:"foreignKey:DocumentID" json:"-"`
}

func (Analysis) TableName() string {
	return "analyses"
}
