package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"alfredoptarigan/ats-analyzer/internal/config"
)

// ErrObjectNotFound is returned by Open for a key the backend does not hold.
var ErrObjectNotFound = errors.New("stored file not found")

// StorageService keeps uploaded resumes so queued analyses can be re-run
// from the original file.
type StorageService interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Open(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

// NewStorageService builds the backend selected by cfg.Driver.
func NewStorageService(ctx context.Context, cfg config.StorageConfig) (StorageService, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.UploadPath)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// objectKey names a stored upload; only the extension of the original name
// is kept.
func objectKey(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return fmt.Sprintf("resume_%s%s", uuid.New().String(), ext)
}

type localStorage struct {
	uploadPath string
}

func NewLocalStorage(uploadPath string) (StorageService, error) {
	if err := os.MkdirAll(uploadPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &localStorage{uploadPath: uploadPath}, nil
}

func (s *localStorage) Name() string { return "local" }

func (s *localStorage) Save(_ context.Context, name string, data []byte) (string, error) {
	key := objectKey(name)
	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return key, nil
}

func (s *localStorage) Open(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *localStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// path resolves key inside the upload directory; Base drops any directory
// component a caller may have smuggled in.
func (s *localStorage) path(key string) string {
	return filepath.Join(s.uploadPath, filepath.Base(key))
}
