package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerProvider stops calling a provider that keeps failing. Once open it
// rejects calls immediately until the timeout has passed, so a network
// outage costs one failed request per row instead of one timeout per row.
type BreakerProvider struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps provider in a circuit breaker that opens after
// failures consecutive errors
func NewBreakerProvider(provider Provider, failures uint32, timeout time.Duration) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        provider.Name(),
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// A cancelled invocation says nothing about the provider
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerProvider{
		provider: provider,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

// GenerateAudio calls the wrapped provider unless the breaker is open
func (b *BreakerProvider) GenerateAudio(ctx context.Context, text, language, outputFile string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.provider.GenerateAudio(ctx, text, language, outputFile)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s temporarily disabled after repeated failures: %w", b.provider.Name(), err)
	}
	return err
}

// Name returns the wrapped provider name
func (b *BreakerProvider) Name() string {
	return b.provider.Name()
}

// IsAvailable reports the wrapped provider availability, or an error while
// the breaker is open
func (b *BreakerProvider) IsAvailable() error {
	if b.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s circuit breaker is open", b.provider.Name())
	}
	return b.provider.IsAvailable()
}

// State returns the breaker state
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}
