package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for absent records.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ErrForbidden is returned when the requester does not own the resource.
var ErrForbidden = errors.New("forbidden")

// ErrInternal wraps unexpected store failures. Handlers must never leak
// the wrapped detail to clients; it is for logs only.
var ErrInternal = errors.New("internal error")

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError identifies the product (and variant, when one was
// selected) whose availability could not cover the requested quantity.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	VariantKey  string
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	if e.VariantKey != "" {
		return fmt.Sprintf("insufficient stock for %q (variant %s)", e.ProductName, e.VariantKey)
	}
	return fmt.Sprintf("insufficient stock for %q", e.ProductName)
}

// StateTransitionError reports an illegal order-status change.
type StateTransitionError struct {
	OrderID int64
	From    string
	To      string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("order %d: cannot transition from %s to %s", e.OrderID, e.From, e.To)
}

// RateLimitError carries the retry information a 429 response needs.
type RateLimitError struct {
	RetryAfter time.Duration
	ResetTime  time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter.Round(time.Second))
}

// Internal wraps err as an internal failure, preserving the cause for logs.
func Internal(err error) error {
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
