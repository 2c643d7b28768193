// Package hyperliquid implements the venue.Client contract against the
// Hyperliquid exchange HTTP API.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/scalar-terminal/scalar/internal/venue"
)

const (
	exchangePath = "/exchange"
	infoPath     = "/info"
)

// Config holds the venue connection parameters.
type Config struct {
	// BaseURL is the API root, e.g. https://api.hyperliquid-testnet.xyz.
	BaseURL string

	// Testnet selects the testnet signing scheme.
	Testnet bool

	// Timeout bounds each venue call. Zero disables the per-call deadline.
	Timeout time.Duration
}

// Client talks to the exchange over HTTP. It is safe for concurrent use:
// credentials are immutable and the instrument cache is mutex-guarded.
type Client struct {
	cfg    Config
	http   *http.Client
	signer *Signer
	logger *zap.Logger

	readyMu sync.Mutex
	ready   bool
	assets  map[string]int // coin → asset index
}

// New creates a Client around the given signer. Instrument metadata and the
// account equity preflight are deferred to the first venue call.
func New(cfg Config, signer *Signer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		signer: signer,
		logger: logger,
	}
}

// Submit places one limit order and decodes the synchronous acknowledgment.
// It never retries: submission is not idempotent at the venue.
func (c *Client) Submit(ctx context.Context, req venue.SubmitRequest) (venue.SubmitResult, error) {
	if err := c.ensureReady(ctx); err != nil {
		return venue.SubmitResult{}, err
	}

	asset, ok := c.assetIndex(req.Coin)
	if !ok {
		return venue.SubmitResult{}, fmt.Errorf("%w: unknown coin %q", venue.ErrRejected, req.Coin)
	}

	tif := req.TIF
	if tif == "" {
		tif = "Gtc"
	}

	action := orderAction{
		Type: "order",
		Orders: []orderWire{{
			Asset:      asset,
			IsBuy:      req.IsBuy,
			LimitPx:    formatFloat(req.LimitPrice),
			Size:       formatFloat(req.Size),
			ReduceOnly: req.ReduceOnly,
			Type:       orderTypeWire{Limit: &limitWire{TIF: tif}},
		}},
		Grouping: "na",
	}

	raw, err := c.postExchange(ctx, action)
	if err != nil {
		return venue.SubmitResult{}, err
	}

	result, err := decodeSubmitResponse(raw)
	if err != nil {
		c.logger.Warn("undecodable submit response",
			zap.String("coin", req.Coin),
			zap.Error(err),
		)
		return venue.SubmitResult{}, err
	}

	c.logger.Info("submit acknowledged",
		zap.String("coin", req.Coin),
		zap.Stringer("outcome", result.Outcome),
		zap.Int64("oid", result.OrderID),
	)
	return result, nil
}

// OrderStatus queries the venue for the current state of an order.
func (c *Client) OrderStatus(ctx context.Context, orderID int64) (venue.OrderStatus, error) {
	raw, err := c.post(ctx, infoPath, infoRequest{
		Type: "orderStatus",
		User: c.signer.Address().Hex(),
		Oid:  orderID,
	})
	if err != nil {
		return venue.OrderStatus{}, err
	}

	var resp orderStatusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return venue.OrderStatus{}, fmt.Errorf("%w: %v", venue.ErrMalformed, err)
	}

	switch resp.Status {
	case "order":
		if resp.Order == nil {
			return venue.OrderStatus{}, fmt.Errorf("%w: order status without order body", venue.ErrMalformed)
		}
		return venue.OrderStatus{
			OrderID:    resp.Order.Order.Oid,
			State:      resp.Order.Status,
			Coin:       resp.Order.Order.Coin,
			Side:       resp.Order.Order.Side,
			LimitPrice: resp.Order.Order.LimitPx,
			Size:       resp.Order.Order.Sz,
			UpdatedAt:  time.UnixMilli(resp.Order.StatusTimestamp).UTC(),
		}, nil
	case "unknownOid":
		return venue.OrderStatus{}, fmt.Errorf("%w: order %d not known to venue", venue.ErrRejected, orderID)
	default:
		return venue.OrderStatus{}, fmt.Errorf("%w: unrecognised status %q", venue.ErrMalformed, resp.Status)
	}
}

// Cancel requests cancellation of a resting order. Venue-reported failure
// surfaces as ErrRejected; it is not retried.
func (c *Client) Cancel(ctx context.Context, coin string, orderID int64) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}

	asset, ok := c.assetIndex(coin)
	if !ok {
		return fmt.Errorf("%w: unknown coin %q", venue.ErrRejected, coin)
	}

	action := cancelAction{
		Type:    "cancel",
		Cancels: []cancelWire{{Asset: asset, Oid: orderID}},
	}

	raw, err := c.postExchange(ctx, action)
	if err != nil {
		return err
	}
	if err := decodeCancelResponse(raw); err != nil {
		return err
	}

	c.logger.Info("cancel acknowledged", zap.String("coin", coin), zap.Int64("oid", orderID))
	return nil
}

// ensureReady lazily loads instrument metadata and runs the equity
// preflight exactly once. Double-checked so concurrent callers do not race
// the initial load.
func (c *Client) ensureReady(ctx context.Context) error {
	c.readyMu.Lock()
	defer c.readyMu.Unlock()

	if c.ready {
		return nil
	}

	raw, err := c.post(ctx, infoPath, infoRequest{Type: "meta"})
	if err != nil {
		return err
	}

	var meta metaResponse
	if err := json.Unmarshal(raw, &meta); err != nil {
		return fmt.Errorf("%w: %v", venue.ErrMalformed, err)
	}
	if len(meta.Universe) == 0 {
		return fmt.Errorf("%w: empty instrument universe", venue.ErrMalformed)
	}

	assets := make(map[string]int, len(meta.Universe))
	for i, inst := range meta.Universe {
		assets[inst.Name] = i
	}

	if err := c.checkEquity(ctx); err != nil {
		return err
	}

	c.assets = assets
	c.ready = true
	c.logger.Info("venue client ready",
		zap.Int("instruments", len(assets)),
		zap.String("address", c.signer.Address().Hex()),
	)
	return nil
}

// checkEquity rejects credentials whose account holds no equity: the venue
// accepts such requests but can never execute them, so they are an
// authentication-class failure here.
func (c *Client) checkEquity(ctx context.Context) error {
	raw, err := c.post(ctx, infoPath, infoRequest{
		Type: "clearinghouseState",
		User: c.signer.Address().Hex(),
	})
	if err != nil {
		return err
	}

	var state clearinghouseResponse
	if err := json.Unmarshal(raw, &state); err != nil {
		return fmt.Errorf("%w: %v", venue.ErrMalformed, err)
	}

	equity, err := strconv.ParseFloat(state.MarginSummary.AccountValue, 64)
	if err != nil {
		return fmt.Errorf("%w: unparseable account value %q", venue.ErrMalformed, state.MarginSummary.AccountValue)
	}
	if equity == 0 {
		return fmt.Errorf("%w: account %s has no equity on this network", venue.ErrAuth, c.signer.Address().Hex())
	}
	return nil
}

// assetIndex resolves a coin name under the ready lock.
func (c *Client) assetIndex(coin string) (int, bool) {
	c.readyMu.Lock()
	defer c.readyMu.Unlock()
	idx, ok := c.assets[coin]
	return idx, ok
}

// postExchange signs the action and posts it to /exchange. The signature
// commits to the msgpack encoding; the request body carries JSON.
func (c *Client) postExchange(ctx context.Context, action any) ([]byte, error) {
	actionPack, err := msgpack.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("encode action: %w", err)
	}

	nonce := uint64(time.Now().UnixMilli())
	sig, err := c.signer.SignAction(actionPack, nonce)
	if err != nil {
		return nil, fmt.Errorf("sign action: %w", err)
	}

	actionJSON, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("encode action: %w", err)
	}

	return c.post(ctx, exchangePath, exchangePayload{
		Action:    actionJSON,
		Nonce:     nonce,
		Signature: sig,
	})
}

// post issues one JSON POST with the configured deadline and classifies
// transport-level failures into the venue error taxonomy.
func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s", venue.ErrTimeout, path)
		}
		return nil, fmt.Errorf("venue request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", venue.ErrAuth, bytes.TrimSpace(raw))
	case resp.StatusCode >= 500:
		// Venue-side trouble, possibly transient. Not a business rejection.
		return nil, fmt.Errorf("venue unavailable: http %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: http %d: %s", venue.ErrRejected, resp.StatusCode, bytes.TrimSpace(raw))
	}

	return raw, nil
}

// formatFloat renders prices and sizes the way the venue expects: a plain
// decimal with no trailing zeros.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
