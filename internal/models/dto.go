package models

import "encoding/json"

type UploadResponse struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	Format       string `json:"format"`
	SizeBytes    int64  `json:"size_bytes"`
	PageCount    int    `json:"page_count"`
	TextLength   int    `json:"text_length"`
}

type CreateAnalysisRequest struct {
	DocumentID string `json:"document_id" validate:"required,uuid"`
}

type CreateAnalysisResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type AnalysisResponse struct {
	ID           string          `json:"id"`
	DocumentID   string          `json:"document_id"`
	Status       string          `json:"status"`
	Provider     string          `json:"provider,omitempty"`
	Model        string          `json:"model,omitempty"`
	TotalScore   *float64        `json:"total_score,omitempty"`
	Truncated    bool            `json:"truncated,omitempty"`
	Report       json.RawMessage `json:"report,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

// SyncAnalysisResponse is returned by the one-shot analyze endpoint, where
// nothing is persisted.
type SyncAnalysisResponse struct {
	Filename   string          `json:"filename"`
	Provider   string          `json:"provider"`
	Model      string          `json:"model"`
	TotalScore *float64        `json:"total_score,omitempty"`
	Truncated  bool            `json:"truncated,omitempty"`
	Report     json.RawMessage `json:"report"`
	Warnings   []string        `json:"warnings,omitempty"`
}
