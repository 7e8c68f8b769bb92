package fetch

import (
	"context"
	"errors"
	"time"

	"volScope/internal/model"
)

// Retry bounds how often a failed upstream call is repeated.
type Retry struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Retryable reports whether err is a transport failure worth repeating.
func Retryable(err error) bool {
	return errors.Is(err, model.ErrUpstreamUnreachable)
}

// Do runs fn until it succeeds, returns a non-retryable error or runs out of attempts.
// The delay doubles after every failure.
func (r Retry) Do(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := r.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := r.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !Retryable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
