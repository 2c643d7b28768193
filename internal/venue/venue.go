// Package venue defines the contract between the order engine and an
// external execution venue. Concrete clients (e.g. hyperliquid) live in
// subpackages; the engine only ever sees these types.
package venue

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors describing why a venue call failed. The orchestrator uses
// errors.Is against these to tell transient failures from hard rejections.
var (
	// ErrTimeout indicates the call did not complete within its deadline.
	// The true venue-side state may be unknown.
	ErrTimeout = errors.New("venue call timed out")

	// ErrAuth indicates the venue refused the credentials, including the
	// zero-equity case where the account cannot trade at all.
	ErrAuth = errors.New("venue authentication failed")

	// ErrMalformed indicates the venue replied with a payload that does not
	// match any known response shape.
	ErrMalformed = errors.New("malformed venue response")

	// ErrRejected indicates a venue-side business rejection (insufficient
	// margin, unknown coin). Retrying will not help.
	ErrRejected = errors.New("venue rejected the request")
)

// Retryable reports whether a failed call may be safely attempted again by a
// caller that owns idempotency. Submissions are never retried automatically
// regardless of this answer.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrRejected) || errors.Is(err, ErrMalformed) {
		return false
	}
	return true
}

// Outcome is the closed set of synchronous submit acknowledgments.
type Outcome uint8

const (
	OutcomeResting Outcome = iota + 1
	OutcomeFilled
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResting:
		return "resting"
	case OutcomeFilled:
		return "filled"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// SubmitRequest describes one order to be placed on the venue.
type SubmitRequest struct {
	Coin       string
	IsBuy      bool
	Size       float64
	LimitPrice float64
	TIF        string // "Gtc", "Ioc", "Alo"; empty defaults to Gtc
	ReduceOnly bool
}

// SubmitResult is the venue's synchronous acknowledgment, decoded into a
// tagged variant. Exactly one of the per-outcome fields is meaningful.
type SubmitResult struct {
	Outcome Outcome

	// OrderID is the venue-assigned identifier (resting and filled).
	OrderID int64

	// AvgPrice and FilledSize describe the execution (filled only).
	AvgPrice   string
	FilledSize string

	// Reason is the venue-reported rejection text (rejected only).
	Reason string
}

// OrderStatus is the venue's own view of an order, read back after a resting
// acknowledgment to confirm the order is visible venue-side.
type OrderStatus struct {
	OrderID    int64
	State      string // venue-native state, e.g. "open", "filled", "canceled"
	Coin       string
	Side       string
	LimitPrice string
	Size       string
	UpdatedAt  time.Time
}

// Client is the adapter contract for an execution venue. Implementations own
// credentials and connection state and must be safe for concurrent use.
// None of the operations retry internally: order submission is not
// idempotent at the venue and a silent retry risks double execution.
type Client interface {
	// Submit places one order and decodes the synchronous acknowledgment.
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)

	// OrderStatus queries the venue for the current state of an order.
	OrderStatus(ctx context.Context, orderID int64) (OrderStatus, error)

	// Cancel requests cancellation of a resting order. Venue-reported
	// failure is returned as an error; it is not retried.
	Cancel(ctx context.Context, coin string, orderID int64) error
}
