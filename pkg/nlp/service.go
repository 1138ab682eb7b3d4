package nlp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultModel is the spaCy pipeline requested from the service.
const DefaultModel = "de_core_news_sm"

// ServiceAnalyzer delegates analysis to an HTTP service that runs a
// spaCy-compatible pipeline and answers POST /analyze.
type ServiceAnalyzer struct {
	client *resty.Client
	model  string
}

var _ Analyzer = (*ServiceAnalyzer)(nil)

type serviceRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type serviceToken struct {
	Text    string `json:"text"`
	Lemma   string `json:"lemma"`
	POS     string `json:"pos"`
	IsAlpha bool   `json:"is_alpha"`
	IsStop  bool   `json:"is_stop"`
}

type serviceSentence struct {
	Text   string         `json:"text"`
	Tokens []serviceToken `json:"tokens"`
}

type serviceResponse struct {
	Sentences []serviceSentence `json:"sentences"`
}

// NewServiceAnalyzer returns a client for the service at baseURL.
func NewServiceAnalyzer(baseURL, model string, timeout time.Duration) *ServiceAnalyzer {
	if model == "" {
		model = DefaultModel
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &ServiceAnalyzer{client: client, model: model}
}

func (a *ServiceAnalyzer) Analyze(ctx context.Context, text string) (Document, error) {
	var out serviceResponse
	res, err := a.client.R().
		SetContext(ctx).
		SetBody(serviceRequest{Text: text, Model: a.model}).
		SetResult(&out).
		Post("/analyze")
	if err != nil {
		return Document{}, fmt.Errorf("nlp service: %w", err)
	}
	if res.IsError() {
		return Document{}, fmt.Errorf("nlp service: status %d: %s", res.StatusCode(), res.String())
	}
	doc := Document{Sentences: make([]Sentence, 0, len(out.Sentences))}
	for _, s := range out.Sentences {
		sent := Sentence{Text: s.Text, Tokens: make([]Token, 0, len(s.Tokens))}
		for _, t := range s.Tokens {
			lemma := t.Lemma
			if lemma == "" {
				lemma = t.Text
			}
			sent.Tokens = append(sent.Tokens, Token{
				Surface: t.Text,
				Lemma:   lemma,
				POS:     t.POS,
				IsAlpha: t.IsAlpha,
				IsStop:  t.IsStop,
			})
		}
		doc.Sentences = append(doc.Sentences, sent)
	}
	return doc, nil
}
