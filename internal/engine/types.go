package engine

import (
	"fmt"
	"time"

	"github.com/scalar-terminal/scalar/internal/market"
)

// Direction represents which side of the scalar market a trade takes.
type Direction uint8

const (
	Long Direction = iota + 1
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

// ParseDirection maps the wire representation onto a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "long":
		return Long, nil
	case "short":
		return Short, nil
	default:
		return 0, fmt.Errorf("invalid direction %q (want long or short)", s)
	}
}

// TradeIntent is a client's request to take a leveraged position on the
// scalar market. Intents are validated once, never mutated, and discarded
// after orchestration produces a result.
type TradeIntent struct {
	Size        float64
	Leverage    float64
	Direction   Direction
	ScalarValue float64
	LimitPrice  float64
}

// ValidatedIntent pairs an intent with the market it passed validation
// against. Only the Validator produces these; the Orchestrator accepts
// nothing else.
type ValidatedIntent struct {
	Intent TradeIntent
	Market market.Descriptor
}

// ResultStatus is the terminal status of an orchestrated operation.
type ResultStatus string

const (
	StatusSuccess   ResultStatus = "success"
	StatusError     ResultStatus = "error"
	StatusCancelled ResultStatus = "cancelled"
)

// Reason codes attached to error results so callers can tell outcomes apart.
const (
	// ReasonRejected: the venue definitively refused the order. It was
	// never placed.
	ReasonRejected = "rejected"

	// ReasonUnconfirmed: the venue acknowledged the order as resting but
	// the follow-up status query failed. The order may still exist
	// venue-side; remediation differs from an outright rejection.
	ReasonUnconfirmed = "unconfirmed"

	// ReasonVenueError: the submit call itself failed (network, timeout,
	// auth, malformed payload) before any acknowledgment.
	ReasonVenueError = "venue-error"
)

// TradeParams echoes the accepted trade back to the caller.
type TradeParams struct {
	Size        float64   `json:"size"`
	Leverage    float64   `json:"leverage"`
	Direction   string    `json:"direction"`
	ScalarValue float64   `json:"scalar_value"`
	LimitPrice  float64   `json:"limit_price"`
	Coin        string    `json:"coin"`
	Timestamp   time.Time `json:"timestamp"`
}

// OrderResult is the single terminal outcome produced for every validated
// intent. The HTTP status code never carries this information; Status does.
type OrderResult struct {
	OrderID     *int64       `json:"order_id,omitempty"`
	Status      ResultStatus `json:"status"`
	Reason      string       `json:"reason,omitempty"`
	Message     string       `json:"message,omitempty"`
	OrderState  string       `json:"order_state,omitempty"`
	TradeParams TradeParams  `json:"trade_params"`
}

// CancelResult is the outcome of a cancel request.
type CancelResult struct {
	OrderID int64        `json:"order_id"`
	Status  ResultStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}
