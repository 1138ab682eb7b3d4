// Package images stores uploaded image bytes keyed by filename.
package images

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrNotFound is returned when no image is stored under a filename.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidName is returned for filenames that cannot be used as a key.
	ErrInvalidName = errors.New("invalid image filename")
)

// Image is a stored image and its content type.
type Image struct {
	Data        []byte
	ContentType string
}

//go:generate mockgen -source=images.go -destination=../mocks/images/mock_images.go -package=mock_images Store

// Store keeps image bytes. Putting an existing filename overwrites it.
type Store interface {
	Put(ctx context.Context, filename string, data []byte, contentType string) error
	Get(ctx context.Context, filename string) (Image, error)
	Delete(ctx context.Context, filename string) error
	// DeleteAll removes every stored image, continuing past individual
	// failures. It returns how many were removed and the joined failures.
	DeleteAll(ctx context.Context) (int, error)
}

// CleanName reduces a client supplied filename to a safe base name.
func CleanName(filename string) (string, error) {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	switch name {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	return name, nil
}

// ContentType infers a content type from the filename extension, falling
// back to sniffing the bytes.
func ContentType(filename string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	if len(data) > 0 {
		return mimetype.Detect(data).String()
	}
	return "application/octet-stream"
}
