package nlp

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon/de.yaml
var germanLexicon []byte

// Lexicon holds the word lists used by LexiconAnalyzer. Verb and auxiliary
// entries map an infinitive to its inflected forms.
type Lexicon struct {
	Stopwords    []string            `yaml:"stopwords"`
	Prepositions []string            `yaml:"prepositions"`
	Auxiliaries  map[string][]string `yaml:"auxiliaries"`
	Verbs        map[string][]string `yaml:"verbs"`
}

// ParseLexicon decodes a YAML lexicon.
func ParseLexicon(data []byte) (Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon: %w", err)
	}
	return lex, nil
}

// GermanLexicon returns the built-in German lexicon.
func GermanLexicon() (Lexicon, error) {
	return ParseLexicon(germanLexicon)
}

// LexiconAnalyzer is an offline Analyzer driven by word lists. Capitalized
// words that are not sentence-initial are tagged as nouns.
type LexiconAnalyzer struct {
	segmenter    Segmenter
	stopwords    map[string]bool
	prepositions map[string]bool
	auxiliaries  map[string]string // form -> lemma
	verbs        map[string]string // form -> lemma
}

var _ Analyzer = (*LexiconAnalyzer)(nil)

// LexiconOption configures a LexiconAnalyzer.
type LexiconOption func(*LexiconAnalyzer)

// WithSegmenter replaces the punctuation based sentence splitter.
func WithSegmenter(s Segmenter) LexiconOption {
	return func(a *LexiconAnalyzer) {
		if s != nil {
			a.segmenter = s
		}
	}
}

// NewLexiconAnalyzer builds an analyzer over lex.
func NewLexiconAnalyzer(lex Lexicon, opts ...LexiconOption) *LexiconAnalyzer {
	a := &LexiconAnalyzer{
		segmenter:    PunctuationSegmenter,
		stopwords:    set(lex.Stopwords),
		prepositions: set(lex.Prepositions),
		auxiliaries:  forms(lex.Auxiliaries),
		verbs:        forms(lex.Verbs),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewGermanAnalyzer builds a LexiconAnalyzer over the built-in lexicon.
func NewGermanAnalyzer(opts ...LexiconOption) (*LexiconAnalyzer, error) {
	lex, err := GermanLexicon()
	if err != nil {
		return nil, err
	}
	return NewLexiconAnalyzer(lex, opts...), nil
}

func set(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[Fold(w)] = true
	}
	return m
}

// forms maps every folded form to its lemma. An infinitive always maps to
// itself; a form listed under several lemmas goes to the alphabetically first.
func forms(entries map[string][]string) map[string]string {
	lemmas := make([]string, 0, len(entries))
	for lemma := range entries {
		lemmas = append(lemmas, lemma)
	}
	sort.Strings(lemmas)

	m := make(map[string]string)
	for _, lemma := range lemmas {
		m[Fold(lemma)] = lemma
	}
	for _, lemma := range lemmas {
		for _, f := range entries[lemma] {
			if _, taken := m[Fold(f)]; !taken {
				m[Fold(f)] = lemma
			}
		}
	}
	return m
}

var tokenPattern = regexp.MustCompile(`\p{L}+(?:[-'’]\p{L}+)*|\p{N}+(?:[.,]\p{N}+)*|[^\s\p{L}\p{N}]`)

// Analyze segments text into sentences and tags every token.
func (a *LexiconAnalyzer) Analyze(ctx context.Context, text string) (Document, error) {
	var doc Document
	for _, s := range a.segmenter.Segment(text) {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		doc.Sentences = append(doc.Sentences, Sentence{Text: s, Tokens: a.tag(s)})
	}
	return doc, nil
}

func (a *LexiconAnalyzer) tag(sentence string) []Token {
	words := tokenPattern.FindAllString(sentence, -1)
	tokens := make([]Token, 0, len(words))
	first := true
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		switch {
		case unicode.IsNumber(r):
			tokens = append(tokens, Token{Surface: w, Lemma: w, POS: POSNum})
			continue
		case !unicode.IsLetter(r):
			tokens = append(tokens, Token{Surface: w, Lemma: w, POS: POSPunct})
			continue
		}
		tokens = append(tokens, a.word(w, r, first))
		first = false
	}
	return tokens
}

func (a *LexiconAnalyzer) word(w string, initial rune, sentenceStart bool) Token {
	folded := Fold(w)
	tok := Token{Surface: w, Lemma: w, POS: POSOther, IsAlpha: IsAlpha(w), IsStop: a.stopwords[folded]}
	capitalized := unicode.IsUpper(initial)
	if a.prepositions[folded] {
		tok.POS, tok.Lemma = POSAdp, folded
		return tok
	}
	if capitalized && !sentenceStart && !tok.IsStop {
		tok.POS = POSNoun
		return tok
	}
	if lemma, ok := a.auxiliaries[folded]; ok {
		tok.POS, tok.Lemma = POSAux, lemma
		return tok
	}
	if lemma, ok := a.verbs[folded]; ok {
		tok.POS, tok.Lemma = POSVerb, lemma
		return tok
	}
	if capitalized && !tok.IsStop {
		tok.POS = POSNoun
		return tok
	}
	if tok.IsStop {
		tok.Lemma = folded
	}
	return tok
}
