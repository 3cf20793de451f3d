package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Bytes read to recognise a document's format
const sniffLen = 512

// Formats accepted for compliance documents. Office files are zip
// containers and are recognised as such.
var allowedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/zip": true,
}

var ErrUnsupportedFile = errors.New("only PDF, image or Office files are allowed")

// sniff detects the file format from its first bytes, which are then put
// back in front of Reader so the upload still sees the whole file.
func (f *DocumentFile) sniff() (string, error) {
	if f.detected != "" {
		return f.detected, nil
	}
	if f.Reader == nil {
		return "", errors.New("file has no content")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Reader, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read file content: %w", err)
	}
	head = head[:n]
	f.Reader = io.MultiReader(bytes.NewReader(head), f.Reader)

	// PDF files start with %PDF
	if bytes.HasPrefix(head, []byte("%PDF")) {
		f.detected = "application/pdf"
	} else {
		f.detected = http.DetectContentType(head)
	}
	return f.detected, nil
}

// checkDocumentContent rejects files whose content is not an accepted format,
// whatever their extension says.
func checkDocumentContent(f *DocumentFile) error {
	detected, err := f.sniff()
	if err != nil {
		return err
	}
	if !allowedDocumentTypes[detected] {
		return ErrUnsupportedFile
	}
	return nil
}
