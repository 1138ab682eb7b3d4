package ocr

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
)

// Preprocess decodes an image, converts it to grayscale, raises contrast and
// re-encodes it as PNG, which tends to help Tesseract on phone photos.
func Preprocess(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 20)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

type preprocessing struct {
	next Engine
}

// WithPreprocessing runs Preprocess before handing the image to e. Images
// that cannot be decoded are passed through untouched.
func WithPreprocessing(e Engine) Engine {
	return preprocessing{next: e}
}

func (p preprocessing) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	if out, err := Preprocess(image); err == nil {
		image = out
	}
	return p.next.Recognize(ctx, image, language)
}
