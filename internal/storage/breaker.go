package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerStore fails fast with ErrUnavailable once the wrapped store keeps
// failing, and probes it again after the open timeout.
type BreakerStore struct {
	inner   Store
	breaker *gobreaker.CircuitBreaker[string]
}

func NewBreakerStore(inner Store, failureThreshold uint32, openTimeout time.Duration, log zerolog.Logger) *BreakerStore {
	if failureThreshold == 0 {
		failureThreshold = 5
	}
	settings := gobreaker.Settings{
		Name:        "object-storage",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		IsSuccessful: func(err error) bool {
			// a cancelled request says nothing about the backend
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return &BreakerStore{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
	}
}

func (b *BreakerStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	return b.execute(func() (string, error) {
		return b.inner.Upload(ctx, key, contentType, body)
	})
}

func (b *BreakerStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return b.execute(func() (string, error) {
		return b.inner.SignedURL(ctx, key, ttl)
	})
}

func (b *BreakerStore) State() gobreaker.State {
	return b.breaker.State()
}

func (b *BreakerStore) execute(fn func() (string, error)) (string, error) {
	result, err := b.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, err
}
