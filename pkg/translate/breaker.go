package translate

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker stops calling the wrapped Translator after consecutive failures
// and fails fast until the cooldown has passed.
type Breaker struct {
	next Translator
	cb   *gobreaker.CircuitBreaker
}

var _ Translator = (*Breaker)(nil)

// NewBreaker wraps next. The circuit opens after failures consecutive errors.
func NewBreaker(next Translator, failures uint32, cooldown time.Duration) *Breaker {
	if failures == 0 {
		failures = 3
	}
	settings := gobreaker.Settings{
		Name:        "translate",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Translate(ctx context.Context, word string) (string, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Translate(ctx, word)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
