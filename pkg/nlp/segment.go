package nlp

import (
	"fmt"
	"os"
	"strings"

	"github.com/neurosnap/sentences"
)

// Segmenter splits text into sentences.
type Segmenter interface {
	Segment(text string) []string
}

// SegmenterFunc adapts a function to Segmenter.
type SegmenterFunc func(text string) []string

func (f SegmenterFunc) Segment(text string) []string { return f(text) }

// PunctuationSegmenter splits after sentence-final punctuation and at blank lines.
var PunctuationSegmenter Segmenter = SegmenterFunc(splitSentences)

type punktSegmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// LoadPunkt reads a trained Punkt model (JSON) from path.
func LoadPunkt(path string) (Segmenter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read punkt model: %w", err)
	}
	storage, err := sentences.LoadTraining(data)
	if err != nil {
		return nil, fmt.Errorf("load punkt model %s: %w", path, err)
	}
	return punktSegmenter{tokenizer: sentences.NewSentenceTokenizer(storage)}, nil
}

func (p punktSegmenter) Segment(text string) []string {
	var out []string
	// Punkt does not treat blank lines as boundaries.
	for _, para := range paragraphBreak.Split(text, -1) {
		for _, s := range p.tokenizer.Tokenize(para) {
			if t := strings.TrimSpace(s.Text); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
