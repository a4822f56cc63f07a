package models

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OriginalFileName string    `gorm:"type:text" json:"original_filename"`
	Format           string    `gorm:"type:text" json:"format"`
	StorageKey       string    `gorm:"type:text" json:"storage_key"`
	SizeBytes        int64     `gorm:"not null;default:0" json:"size_bytes"`
	PageCount        int       `gorm:"not null;default:0" json:"page_count"`
	Text             string    `gorm:"type:text" json:"-"`
	CreatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}
