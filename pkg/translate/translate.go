// Package translate looks up English translations of German words.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the public MyMemory endpoint.
	DefaultBaseURL = "https://api.mymemory.translated.net"
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 5 * time.Second
	// GermanToEnglish is the language pair requested from MyMemory.
	GermanToEnglish = "de|en"
)

// ErrUpstream is returned when the translation service answers with an error status.
var ErrUpstream = errors.New("translation service error")

//go:generate mockgen -source=translate.go -destination=../mocks/translate/mock_translate.go -package=mock_translate Translator

// Translator translates a single word.
type Translator interface {
	Translate(ctx context.Context, word string) (string, error)
}

// Nop never translates; every lookup returns "".
type Nop struct{}

func (Nop) Translate(context.Context, string) (string, error) { return "", nil }

// MyMemory is a client for the MyMemory translation API.
type MyMemory struct {
	client   *resty.Client
	langPair string
	attempts uint
}

var _ Translator = (*MyMemory)(nil)

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
}

// NewMyMemory returns a client for baseURL. attempts below 1 means a single try.
func NewMyMemory(baseURL string, timeout time.Duration, attempts uint) *MyMemory {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if attempts < 1 {
		attempts = 1
	}
	return &MyMemory{
		client:   resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		langPair: GermanToEnglish,
		attempts: attempts,
	}
}

func (m *MyMemory) Translate(ctx context.Context, word string) (string, error) {
	var translated string
	err := retry.Do(
		func() error {
			text, err := m.lookup(ctx, word)
			if err != nil {
				return err
			}
			translated = text
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(m.attempts),
		retry.LastErrorOnly(true),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		return "", fmt.Errorf("translate %q: %w", word, err)
	}
	return translated, nil
}

func (m *MyMemory) lookup(ctx context.Context, word string) (string, error) {
	var out myMemoryResponse
	res, err := m.client.R().
		SetContext(ctx).
		SetQueryParam("q", word).
		SetQueryParam("langpair", m.langPair).
		SetResult(&out).
		Get("/get")
	if err != nil {
		return "", fmt.Errorf("client.R.Get > %w", err)
	}
	if res.IsError() {
		err := fmt.Errorf("%w: status %d", ErrUpstream, res.StatusCode())
		if res.StatusCode() < http.StatusInternalServerError && res.StatusCode() != http.StatusTooManyRequests {
			return "", retry.Unrecoverable(err)
		}
		return "", err
	}
	return out.ResponseData.TranslatedText, nil
}
