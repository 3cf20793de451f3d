package services

import (
	"backoffice_app_go/config"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalStorage(t *testing.T) {
	tempDir := t.TempDir()
	storage := NewLocalStorage(tempDir)
	ctx := context.Background()
	content := "attestation fiscale"
	key := "documents/user/u1/attestation.pdf"

	t.Run("UploadReader creates file", func(t *testing.T) {
		result, err := storage.UploadReader(ctx, strings.NewReader(content), key, "application/pdf", int64(len(content)))
		assert.NoError(t, err)
		assert.Equal(t, key, result.Key)
		assert.Equal(t, "attestation.pdf", result.FileName)
		assert.Equal(t, int64(len(content)), result.FileSize)

		_, err = os.Stat(filepath.Join(tempDir, key))
		assert.NoError(t, err)
	})

	t.Run("Get retrieves file content", func(t *testing.T) {
		reader, contentType, err := storage.Get(ctx, key)
		assert.NoError(t, err)
		defer reader.Close()

		got, _ := io.ReadAll(reader)
		assert.Equal(t, content, string(got))
		assert.Equal(t, "application/pdf", contentType)
	})

	t.Run("No signed URL for local files", func(t *testing.T) {
		signed, err := storage.GetSignedURL(ctx, key, time.Hour)
		assert.NoError(t, err)
		assert.Empty(t, signed)
	})

	t.Run("Delete removes file and tolerates missing ones", func(t *testing.T) {
		assert.NoError(t, storage.Delete(ctx, key))
		_, err := os.Stat(filepath.Join(tempDir, key))
		assert.True(t, os.IsNotExist(err))

		assert.NoError(t, storage.Delete(ctx, key))
	})
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentTypeFor("RC.PDF"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("scan.jpeg"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("notes.txt"))
}

func TestGenerateDocumentKey(t *testing.T) {
	key := GenerateDocumentKey("salarie", "s1", "Attestation CNSS.PDF")
	assert.True(t, strings.HasPrefix(key, "documents/salarie/s1/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.Len(t, strings.Split(filepath.Base(key), "_"), 2)

	assert.NotEqual(t, key, GenerateDocumentKey("salarie", "s1", "Attestation CNSS.PDF"))
}

func TestNewStorageFallsBackToLocal(t *testing.T) {
	cfg := &config.Config{UploadDir: t.TempDir()}
	_, ok := NewStorage(context.Background(), cfg).(*LocalStorage)
	assert.True(t, ok)
}
