package service

import (
	"context"
	"errors"
	"time"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// withRetry runs fn up to attempts times, sleeping delay between attempts,
// retrying only on domain.ErrVersionConflict. Any other error, and any
// success, returns immediately. Exhausting every attempt returns
// domain.ErrCheckoutConflict wrapping the last conflict.
//
// fn must be safe to re-run from scratch: it is always a whole transaction,
// never a partial step.
func withRetry(ctx context.Context, attempts int, delay time.Duration, onRetry func(), fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil || !errors.Is(lastErr, domain.ErrVersionConflict) {
			return lastErr
		}

		if attempt == attempts {
			break
		}
		if onRetry != nil {
			onRetry()
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return &domain.Error{
		Code:    domain.ECONFLICT,
		Op:      "service.retry",
		Message: domain.ErrCheckoutConflict.Message,
		Err:     errors.Join(domain.ErrCheckoutConflict, lastErr),
	}
}
