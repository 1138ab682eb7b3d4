// Package upload defines the persistence contract for OCR uploads.
package upload

import (
	"context"
	"errors"
	"time"
)

// PreviewLength is the maximum number of characters returned in a listing preview.
const PreviewLength = 200

// ErrNotFound is returned when no record matches an id or filename.
var ErrNotFound = errors.New("upload not found")

// Record is a stored OCR result.
type Record struct {
	ID        string
	Text      string
	Filename  string
	CreatedAt time.Time
}

// Summary is the listing view of a Record.
type Summary struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// Summarize returns the listing view of r with its text cut to PreviewLength characters.
func (r Record) Summarize() Summary {
	return Summary{
		ID:        r.ID,
		Text:      Preview(r.Text),
		Filename:  r.Filename,
		CreatedAt: r.CreatedAt,
	}
}

// Preview returns the first PreviewLength runes of text.
func Preview(text string) string {
	n := 0
	for i := range text {
		if n == PreviewLength {
			return text[:i]
		}
		n++
	}
	return text
}

//go:generate mockgen -source=upload.go -destination=../mocks/upload/mock_upload.go -package=mock_upload Store

// Store persists upload records. Filenames are not unique; lookups by filename
// return the oldest matching record.
type Store interface {
	Create(ctx context.Context, text, filename string) (Record, error)
	// List returns every record newest first.
	List(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id string) (Record, error)
	TextByFilename(ctx context.Context, filename string) (string, error)
	// Texts returns the text of every record in insertion order.
	Texts(ctx context.Context) ([]string, error)
	// Delete removes the record and returns it.
	Delete(ctx context.Context, id string) (Record, error)
	// DeleteAll removes every record and returns what was removed.
	DeleteAll(ctx context.Context) ([]Record, error)
	Close() error
}
