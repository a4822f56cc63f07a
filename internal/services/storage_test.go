package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/ats-analyzer/internal/config"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	key, err := store.Save(ctx, "My Resume.PDF", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "resume_"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	data, err := store.Open(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// deleting twice is not an error
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalStorage_KeysStayInsideUploadDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNewStorageService_Driver(t *testing.T) {
	store, err := NewStorageService(context.Background(), config.StorageConfig{Driver: "local", UploadPath: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "local", store.Name())

	_, err = NewStorageService(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
