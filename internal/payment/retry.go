package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"storefront-backend/internal/domain"
)

// RetryingAuthorizer retries transient gateway faults with a fixed delay
// and a bounded attempt count. Declines pass through untouched. When the
// attempts exhaust, the caller sees PaymentUnavailableError and no funds
// were captured: the single-use nonce makes the gateway side idempotent.
type RetryingAuthorizer struct {
	next        Authorizer
	maxAttempts int
	delay       time.Duration
	logger      *zap.Logger
}

func NewRetryingAuthorizer(next Authorizer, maxAttempts int, delay time.Duration, logger *zap.Logger) *RetryingAuthorizer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingAuthorizer{next: next, maxAttempts: maxAttempts, delay: delay, logger: logger}
}

func (r *RetryingAuthorizer) Authorize(ctx context.Context, nonce string, amountCents int64) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		txID, err := r.next.Authorize(ctx, nonce, amountCents)
		if err == nil {
			return txID, nil
		}

		var transient *TransientError
		if !errors.As(err, &transient) {
			return "", err
		}
		lastErr = err
		r.logger.Warn("transient gateway fault",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.maxAttempts),
			zap.Error(err))

		if attempt == r.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", &domain.PaymentUnavailableError{Err: ctx.Err()}
		case <-time.After(r.delay):
		}
	}
	return "", &domain.PaymentUnavailableError{Err: lastErr}
}

func (r *RetryingAuthorizer) Refund(ctx context.Context, transactionID string) error {
	return r.next.Refund(ctx, transactionID)
}
