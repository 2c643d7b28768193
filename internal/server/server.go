// Package server exposes the terminal's HTTP API: market lookup, order
// placement, and cancellation. Handlers depend on narrow interfaces so the
// engine can be faked in tests.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scalar-terminal/scalar/internal/config"
	"github.com/scalar-terminal/scalar/internal/engine"
	"github.com/scalar-terminal/scalar/internal/market"
)

// Placer orchestrates validated intents against the venue.
// Satisfied by *engine.Orchestrator.
type Placer interface {
	Place(ctx context.Context, vi engine.ValidatedIntent) engine.OrderResult
	Cancel(ctx context.Context, coin string, orderID int64) engine.CancelResult
}

// IntentValidator runs pre-flight risk checks.
// Satisfied by *engine.Validator.
type IntentValidator interface {
	Validate(intent engine.TradeIntent, m market.Descriptor) (engine.ValidatedIntent, error)
}

// Server wires the HTTP surface to the engine.
type Server struct {
	cfg       config.ServerConfig
	logger    *zap.Logger
	markets   market.Source
	validator IntentValidator
	placer    Placer
	handler   http.Handler
}

// New constructs the Server and its route table.
func New(cfg config.ServerConfig, markets market.Source, validator IntentValidator, placer Placer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		markets:   markets,
		validator: validator,
		placer:    placer,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /market", s.handleMarket)
	mux.HandleFunc("POST /orders/place", s.handlePlace)
	mux.HandleFunc("POST /orders/{id}/cancel", s.handleCancel)

	s.handler = s.corsMiddleware(s.loggingMiddleware(mux))
	return s
}

// Handler returns the fully wrapped route handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return multierr.Append(ctx.Err(), srv.Shutdown(shutdownCtx))
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// tradeRequest is the inbound order placement body.
type tradeRequest struct {
	Size        float64 `json:"size"`
	Leverage    float64 `json:"leverage"`
	Direction   string  `json:"direction"`
	ScalarValue float64 `json:"scalar_value"`

	// LimitPrice is optional; when absent the order is priced at the
	// requested scalar value.
	LimitPrice float64 `json:"limit_price"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Scalar Market Terminal API"})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.markets.Market())
}

// handlePlace validates the trade intent and orchestrates it against the
// venue. Validation failures are 400s with a human-readable reason; every
// orchestration outcome is a 200 whose envelope carries the status — the
// HTTP code alone never indicates trade success.
func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	direction, err := engine.ParseDirection(req.Direction)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Size <= 0 {
		s.respondError(w, http.StatusBadRequest, "size must be positive")
		return
	}

	limitPrice := req.LimitPrice
	if limitPrice == 0 {
		limitPrice = req.ScalarValue
	}

	intent := engine.TradeIntent{
		Size:        req.Size,
		Leverage:    req.Leverage,
		Direction:   direction,
		ScalarValue: req.ScalarValue,
		LimitPrice:  limitPrice,
	}

	vi, err := s.validator.Validate(intent, s.markets.Market())
	if err != nil {
		s.logger.Info("trade rejected by validator",
			zap.Float64("leverage", req.Leverage),
			zap.Float64("scalar_value", req.ScalarValue),
			zap.Error(err),
		)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.placer.Place(r.Context(), vi)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	coin := s.markets.Market().Coin
	result := s.placer.Cancel(r.Context(), coin, orderID)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
