package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict on insert.
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError reports a malformed checkout payload. It carries no
// side effects: nothing was charged or persisted.
type ValidationError struct {
	Reason    string
	ProductID string
}

func (e *ValidationError) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("invalid checkout request: %s (product %s)", e.Reason, e.ProductID)
	}
	return "invalid checkout request: " + e.Reason
}

// PaymentDeclinedError is terminal: the gateway rejected the payment
// method. Reported to the client verbatim, never retried.
type PaymentDeclinedError struct {
	Reason string
}

func (e *PaymentDeclinedError) Error() string {
	return "payment declined: " + e.Reason
}

// PaymentUnavailableError surfaces after bounded retries against a
// transiently failing gateway exhaust. No funds were captured.
type PaymentUnavailableError struct {
	Err error
}

func (e *PaymentUnavailableError) Error() string {
	return "payment gateway unavailable: " + e.Err.Error()
}

func (e *PaymentUnavailableError) Unwrap() error { return e.Err }

// InsufficientStockError lists every product in the checkout batch whose
// guarded decrement failed. No stock was changed for any line item.
type InsufficientStockError struct {
	ProductIDs []string
}

func (e *InsufficientStockError) Error() string {
	return "insufficient stock: " + strings.Join(e.ProductIDs, ", ")
}

// AmountMismatchError rejects an order whose client-declared total does
// not equal the sum of its line items. Amounts are integer cents, so the
// comparison is exact.
type AmountMismatchError struct {
	DeclaredCents int64
	ComputedCents int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("order amount mismatch: declared %d, computed %d", e.DeclaredCents, e.ComputedCents)
}
