// Package ocr recognizes text in images using Tesseract.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// German is the Tesseract language code for German.
const German = "deu"

// ErrUnavailable is returned when the configured engine cannot run on this build or host.
var ErrUnavailable = errors.New("ocr engine unavailable")

//go:generate mockgen -source=ocr.go -destination=../mocks/ocr/mock_ocr.go -package=mock_ocr Engine

// Engine recognizes text in an encoded image (PNG, JPEG, TIFF, ...).
type Engine interface {
	Recognize(ctx context.Context, image []byte, language string) (string, error)
}

// Engine names accepted by New.
const (
	EngineTesseract = "tesseract"
	EngineGosseract = "gosseract"
)

// Options configures New.
type Options struct {
	// TesseractPath is the tesseract binary for the CLI engine.
	TesseractPath string
	// Preprocess normalizes images before recognition.
	Preprocess bool
}

// New returns the named engine.
func New(name string, opts Options) (Engine, error) {
	var e Engine
	switch name {
	case "", EngineTesseract:
		e = NewTesseract(opts.TesseractPath)
	case EngineGosseract:
		g, err := NewGosseract()
		if err != nil {
			return nil, err
		}
		e = g
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", name)
	}
	if opts.Preprocess {
		e = WithPreprocessing(e)
	}
	return e, nil
}
