package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/scalar-terminal/scalar/internal/venue"
)

// Orchestrator drives a validated intent through submission against the
// venue and collapses the venue's ambiguous synchronous acknowledgment into
// exactly one terminal OrderResult. It never lets an adapter failure escape
// as an error: every failure becomes a typed result.
//
// Per intent the lifecycle is:
//
//	submit → resting  → status query → success | unconfirmed error
//	submit → filled   → success
//	submit → rejected → error (rejected; no status query)
//	submit → failure  → error (venue-error)
//
// The extra status round-trip after a resting acknowledgment exists to
// confirm the order is visible venue-side before reporting success.
type Orchestrator struct {
	client  venue.Client
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewOrchestrator creates an Orchestrator around the given venue client.
func NewOrchestrator(client venue.Client, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		client:  client,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Place submits the validated intent and returns its single terminal result.
// Submission is dispatched exactly once; there is no automatic retry, since
// a submit is not idempotent at the venue.
func (o *Orchestrator) Place(ctx context.Context, vi ValidatedIntent) OrderResult {
	params := o.echoParams(vi)

	req := venue.SubmitRequest{
		Coin:       vi.Market.Coin,
		IsBuy:      vi.Intent.Direction == Long,
		Size:       vi.Intent.Size,
		LimitPrice: vi.Intent.LimitPrice,
	}

	res, err := o.client.Submit(ctx, req)
	if err != nil {
		o.logger.Warn("order submit failed",
			zap.String("coin", req.Coin),
			zap.Bool("is_buy", req.IsBuy),
			zap.Error(err),
		)
		return OrderResult{
			Status:      StatusError,
			Reason:      ReasonVenueError,
			Message:     err.Error(),
			TradeParams: params,
		}
	}

	switch res.Outcome {
	case venue.OutcomeFilled:
		o.logger.Info("order filled on submit",
			zap.Int64("oid", res.OrderID),
			zap.String("avg_price", res.AvgPrice),
		)
		oid := res.OrderID
		return OrderResult{
			OrderID:     &oid,
			Status:      StatusSuccess,
			OrderState:  "filled",
			TradeParams: params,
		}

	case venue.OutcomeRejected:
		o.logger.Warn("order rejected by venue",
			zap.String("coin", req.Coin),
			zap.String("reason", res.Reason),
		)
		return OrderResult{
			Status:      StatusError,
			Reason:      ReasonRejected,
			Message:     res.Reason,
			TradeParams: params,
		}

	case venue.OutcomeResting:
		return o.confirm(ctx, res.OrderID, params)

	default:
		// Unknown outcome from the adapter is treated like a malformed
		// response, not a crash.
		return OrderResult{
			Status:      StatusError,
			Reason:      ReasonVenueError,
			Message:     venue.ErrMalformed.Error(),
			TradeParams: params,
		}
	}
}

// confirm performs the post-submit status query for a resting order. A
// failed query after a successful submit is surfaced as a distinct
// "unconfirmed" error: the order may still exist venue-side, which demands
// different remediation than an outright rejection.
func (o *Orchestrator) confirm(ctx context.Context, orderID int64, params TradeParams) OrderResult {
	status, err := o.client.OrderStatus(ctx, orderID)
	if err != nil {
		o.logger.Warn("order resting but status query failed",
			zap.Int64("oid", orderID),
			zap.Error(err),
		)
		oid := orderID
		return OrderResult{
			OrderID:     &oid,
			Status:      StatusError,
			Reason:      ReasonUnconfirmed,
			Message:     "order accepted but not confirmed: " + err.Error(),
			TradeParams: params,
		}
	}

	o.logger.Info("order resting and confirmed",
		zap.Int64("oid", orderID),
		zap.String("state", status.State),
	)
	oid := orderID
	return OrderResult{
		OrderID:     &oid,
		Status:      StatusSuccess,
		OrderState:  status.State,
		TradeParams: params,
	}
}

// Cancel requests cancellation of an already-resting order. It is always a
// separate operation, never an abort of an in-flight submission. Adapter
// failure is surfaced as an error result, never raised to the transport.
func (o *Orchestrator) Cancel(ctx context.Context, coin string, orderID int64) CancelResult {
	if err := o.client.Cancel(ctx, coin, orderID); err != nil {
		o.logger.Warn("cancel failed",
			zap.String("coin", coin),
			zap.Int64("oid", orderID),
			zap.Error(err),
		)
		return CancelResult{
			OrderID: orderID,
			Status:  StatusError,
			Message: err.Error(),
		}
	}

	o.logger.Info("order cancelled", zap.String("coin", coin), zap.Int64("oid", orderID))
	return CancelResult{
		OrderID: orderID,
		Status:  StatusCancelled,
	}
}

func (o *Orchestrator) echoParams(vi ValidatedIntent) TradeParams {
	return TradeParams{
		Size:        vi.Intent.Size,
		Leverage:    vi.Intent.Leverage,
		Direction:   vi.Intent.Direction.String(),
		ScalarValue: vi.Intent.ScalarValue,
		LimitPrice:  vi.Intent.LimitPrice,
		Coin:        vi.Market.Coin,
		Timestamp:   o.nowFunc().UTC(),
	}
}
