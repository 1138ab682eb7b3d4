// Package analysis computes word statistics and grammar summaries over
// uploaded German text.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"github.com/japaniel/creamy/pkg/nlp"
	"github.com/japaniel/creamy/pkg/translate"
	"github.com/japaniel/creamy/pkg/upload"
)

const (
	// WordFreqLimit is the number of words reported per text.
	WordFreqLimit = 20
	// TopWordsLimit is the number of words reported across uploads.
	TopWordsLimit = 30
)

// WordCount is a word and how often it occurs. It encodes as ["word", n].
type WordCount struct {
	Word  string
	Count int
}

func (w WordCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{w.Word, w.Count})
}

func (w *WordCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("word count: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &w.Word); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &w.Count)
}

// TopWord is an aggregated word with its translation. Translation is empty
// when the lookup failed.
type TopWord struct {
	Word        string `json:"word"`
	Count       int    `json:"count"`
	Translation string `json:"translation"`
}

// Analysis is the grammar summary of one text.
type Analysis struct {
	WordFreq     []WordCount `json:"word_freq"`
	Verbs        []string    `json:"verbs"`
	Prepositions []string    `json:"prepositions"`
	Sentences    []string    `json:"sentences"`
}

func emptyAnalysis() Analysis {
	return Analysis{
		WordFreq:     []WordCount{},
		Verbs:        []string{},
		Prepositions: []string{},
		Sentences:    []string{},
	}
}

// Service runs analyses. Texts for aggregated views come from the upload store.
type Service struct {
	analyzer   nlp.Analyzer
	uploads    upload.Store
	translator translate.Translator
	logger     *slog.Logger
}

// NewService wires a Service. A nil translator disables translations and a
// nil logger uses slog.Default.
func NewService(analyzer nlp.Analyzer, uploads upload.Store, translator translate.Translator, logger *slog.Logger) *Service {
	if translator == nil {
		translator = translate.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{analyzer: analyzer, uploads: uploads, translator: translator, logger: logger}
}

// Analyze returns word frequencies, verb lemmas, prepositions and sentences
// of text. Blank text yields four empty lists without running the analyzer.
func (s *Service) Analyze(ctx context.Context, text string) (Analysis, error) {
	out := emptyAnalysis()
	if strings.TrimSpace(text) == "" {
		return out, nil
	}
	doc, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze text: %w", err)
	}
	out.WordFreq = wordFrequency(doc, WordFreqLimit)
	for _, sent := range doc.Sentences {
		out.Sentences = append(out.Sentences, sent.Text)
		for _, tok := range sent.Tokens {
			switch tok.POS {
			case nlp.POSVerb:
				out.Verbs = append(out.Verbs, tok.Lemma)
			case nlp.POSAdp:
				out.Prepositions = append(out.Prepositions, tok.Surface)
			}
		}
	}
	return out, nil
}

// WordFrequency returns the n most common content words of text.
func (s *Service) WordFrequency(ctx context.Context, text string, n int) ([]WordCount, error) {
	if strings.TrimSpace(text) == "" {
		return []WordCount{}, nil
	}
	doc, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("analyze text: %w", err)
	}
	return wordFrequency(doc, n), nil
}

// TopWords aggregates lemma counts over every upload, or over the uploads
// named filename when it is not empty, and translates each of the top words.
func (s *Service) TopWords(ctx context.Context, filename string) ([]TopWord, error) {
	var corpus string
	if filename == "" {
		texts, err := s.uploads.Texts(ctx)
		if err != nil {
			return nil, fmt.Errorf("load upload texts: %w", err)
		}
		corpus = strings.Join(texts, " ")
	} else {
		text, err := s.uploads.TextByFilename(ctx, filename)
		if err != nil {
			return nil, err
		}
		corpus = text
	}
	if strings.TrimSpace(corpus) == "" {
		return []TopWord{}, nil
	}

	doc, err := s.analyzer.Analyze(ctx, corpus)
	if err != nil {
		return nil, fmt.Errorf("analyze corpus: %w", err)
	}
	var words []string
	for _, tok := range doc.Tokens() {
		if tok.IsAlpha && !tok.IsStop {
			words = append(words, unidecode.Unidecode(nlp.Fold(tok.Lemma)))
		}
	}

	counts := mostCommon(words, TopWordsLimit)
	out := make([]TopWord, 0, len(counts))
	for _, c := range counts {
		out = append(out, TopWord{Word: c.Word, Count: c.Count, Translation: s.translate(ctx, c.Word)})
	}
	return out, nil
}

func (s *Service) translate(ctx context.Context, word string) string {
	text, err := s.translator.Translate(ctx, word)
	if err != nil {
		s.logger.WarnContext(ctx, "translation failed", "word", word, "error", err)
		return ""
	}
	return text
}

func wordFrequency(doc nlp.Document, n int) []WordCount {
	var words []string
	for _, tok := range doc.Tokens() {
		if tok.IsAlpha && !tok.IsStop {
			words = append(words, nlp.Fold(tok.Surface))
		}
	}
	return mostCommon(words, n)
}

// mostCommon counts words and returns the n most frequent. Ties keep the
// order in which words were first seen.
func mostCommon(words []string, n int) []WordCount {
	index := make(map[string]int)
	counts := []WordCount{}
	for _, w := range words {
		if i, ok := index[w]; ok {
			counts[i].Count++
			continue
		}
		index[w] = len(counts)
		counts = append(counts, WordCount{Word: w, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
