//go:build !gosseract

package ocr

import (
	"context"
	"fmt"
)

// Gosseract is only functional in binaries built with -tags gosseract.
type Gosseract struct{}

// NewGosseract reports that the bindings were not compiled in.
func NewGosseract() (*Gosseract, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags gosseract (requires libtesseract)", ErrUnavailable)
}

func (g *Gosseract) Recognize(context.Context, []byte, string) (string, error) {
	return "", ErrUnavailable
}
