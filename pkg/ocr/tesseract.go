package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tesseract runs the tesseract command line tool, streaming the image over
// stdin and reading the text from stdout.
type Tesseract struct {
	Path string
}

// NewTesseract returns a CLI engine. An empty path looks tesseract up in PATH.
func NewTesseract(path string) *Tesseract {
	if path == "" {
		path = "tesseract"
	}
	return &Tesseract{Path: path}
}

// Available reports whether the binary can be found.
func (t *Tesseract) Available() bool {
	_, err := exec.LookPath(t.Path)
	return err == nil
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	if !t.Available() {
		return "", fmt.Errorf("%w: %s not found", ErrUnavailable, t.Path)
	}
	if language == "" {
		language = German
	}
	cmd := exec.CommandContext(ctx, t.Path, "stdin", "stdout", "-l", language, "--psm", "3")
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
