// Package nlp splits German text into sentences and tags each token with a
// lemma and a universal part-of-speech label.
package nlp

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Universal POS tags produced by the analyzers.
const (
	POSVerb  = "VERB"
	POSAux   = "AUX"
	POSAdp   = "ADP"
	POSNoun  = "NOUN"
	POSNum   = "NUM"
	POSPunct = "PUNCT"
	POSOther = "X"
)

// Token is a single analyzed unit of text.
type Token struct {
	Surface string // the text as it appears
	Lemma   string // dictionary form
	POS     string
	IsAlpha bool
	IsStop  bool
}

// Sentence is a sentence and its tokens.
type Sentence struct {
	Text   string
	Tokens []Token
}

// Document is the analysis of one text.
type Document struct {
	Sentences []Sentence
}

// Tokens returns every token of the document in order.
func (d Document) Tokens() []Token {
	var out []Token
	for _, s := range d.Sentences {
		out = append(out, s.Tokens...)
	}
	return out
}

//go:generate mockgen -source=nlp.go -destination=../mocks/nlp/mock_nlp.go -package=mock_nlp Analyzer

// Analyzer tags German text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Document, error)
}

// Fold lowercases s with German casing rules.
func Fold(s string) string {
	// A cases.Caser keeps state and is not safe for concurrent use.
	return cases.Lower(language.German).String(s)
}

// IsAlpha reports whether s is non-empty and made of letters only.
func IsAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

const (
	terminators = ".!?…"
	closers     = `"'»«“”„’)]`
)

var paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n`)

// abbreviations never end a sentence when followed by a period.
var abbreviations = map[string]bool{
	"bspw": true, "bzw": true, "ca": true, "dr": true, "etc": true, "evtl": true,
	"fr": true, "ggf": true, "hr": true, "inkl": true, "nr": true, "prof": true,
	"sog": true, "str": true, "usw": true, "vgl": true,
}

// abbreviated reports whether a period after word marks an abbreviation or
// an ordinal ("z. B.", "3. Mai", "19. Jahrhundert") rather than a sentence end.
func abbreviated(word []rune) bool {
	switch {
	case len(word) == 1 && unicode.IsLetter(word[0]):
		return true
	case len(word) > 0 && len(word) <= 2 && unicode.IsDigit(word[0]) && unicode.IsDigit(word[len(word)-1]):
		return true
	}
	return abbreviations[Fold(string(word))]
}

// splitSentences breaks text after sentence-final punctuation followed by
// whitespace, and at blank lines. Periods after single letters, known
// abbreviations and one or two digit ordinals do not end a sentence.
func splitSentences(text string) []string {
	var sentences []string
	for _, para := range paragraphBreak.Split(text, -1) {
		var current strings.Builder
		flush := func() {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
		pending := false
		var word []rune
		for _, r := range para {
			switch {
			case unicode.IsSpace(r) && pending:
				flush()
				pending = false
				word = word[:0]
				continue
			case r == '.':
				pending = !abbreviated(word)
				word = word[:0]
			case strings.ContainsRune(terminators, r):
				pending = true
				word = word[:0]
			case strings.ContainsRune(closers, r):
			case unicode.IsLetter(r) || unicode.IsDigit(r):
				pending = false
				word = append(word, r)
			case unicode.IsSpace(r):
				word = word[:0]
			default:
				pending = false
				word = word[:0]
			}
			current.WriteRune(r)
		}
		flush()
	}
	return sentences
}
