// Package exercise builds fill-in-the-blank drills from German sentences.
package exercise

import (
	"context"
	"fmt"
	"strings"

	"github.com/japaniel/creamy/pkg/nlp"
)

const (
	// TypeFillBlank is the only exercise type produced.
	TypeFillBlank = "fill_blank"
	// Blank replaces the answer in the question.
	Blank = "____"
)

// Exercise is a question with its expected answer.
type Exercise struct {
	Type     string `json:"type"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Generator turns sentences into exercises.
type Generator struct {
	analyzer nlp.Analyzer
}

func NewGenerator(analyzer nlp.Analyzer) *Generator {
	return &Generator{analyzer: analyzer}
}

// Generate blanks the first verb of each sentence. Only the first textual
// occurrence of the verb is replaced, which may sit inside an earlier word.
// Sentences without a verb are skipped.
func (g *Generator) Generate(ctx context.Context, sentences []string) ([]Exercise, error) {
	exercises := []Exercise{}
	for _, sent := range sentences {
		doc, err := g.analyzer.Analyze(ctx, sent)
		if err != nil {
			return nil, fmt.Errorf("analyze sentence: %w", err)
		}
		verb, ok := firstVerb(doc)
		if !ok {
			continue
		}
		exercises = append(exercises, Exercise{
			Type:     TypeFillBlank,
			Question: strings.Replace(sent, verb, Blank, 1),
			Answer:   verb,
		})
	}
	return exercises, nil
}

func firstVerb(doc nlp.Document) (string, bool) {
	for _, tok := range doc.Tokens() {
		if tok.POS == nlp.POSVerb && tok.Surface != "" {
			return tok.Surface, true
		}
	}
	return "", false
}
