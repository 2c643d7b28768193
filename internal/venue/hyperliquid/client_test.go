package hyperliquid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/scalar-terminal/scalar/internal/venue"
)

// fakeVenueServer scripts the venue's /info and /exchange endpoints.
type fakeVenueServer struct {
	t *testing.T

	accountValue string
	exchangeBody string

	exchangeCalls int
	lastExchange  exchangePayload
}

func (f *fakeVenueServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		var req infoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Errorf("bad info request: %v", err)
		}

		switch req.Type {
		case "meta":
			w.Write([]byte(`{"universe":[{"name":"BTC","szDecimals":5},{"name":"ETH","szDecimals":4}]}`))
		case "clearinghouseState":
			w.Write([]byte(`{"marginSummary":{"accountValue":"` + f.accountValue + `","totalMarginUsed":"0.0"}}`))
		case "orderStatus":
			w.Write([]byte(`{"status":"order","order":{"order":{"coin":"BTC","side":"B","limitPx":"52.3","sz":"1","oid":` +
				jsonInt(req.Oid) + `,"timestamp":1725192000000,"origSz":"1"},"status":"open","statusTimestamp":1725192000500}}`))
		default:
			f.t.Errorf("unexpected info type %q", req.Type)
		}
	})

	mux.HandleFunc("/exchange", func(w http.ResponseWriter, r *http.Request) {
		f.exchangeCalls++
		if err := json.NewDecoder(r.Body).Decode(&f.lastExchange); err != nil {
			f.t.Errorf("bad exchange request: %v", err)
		}
		w.Write([]byte(f.exchangeBody))
	})

	return mux
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	signer, err := NewSigner(testKey, true)
	if err != nil {
		t.Fatalf("build signer: %v", err)
	}
	return New(Config{BaseURL: srv.URL, Testnet: true, Timeout: 5 * time.Second}, signer, nil)
}

func TestSubmit_Resting(t *testing.T) {
	fake := &fakeVenueServer{
		t:            t,
		accountValue: "1000.0",
		exchangeBody: `{"status":"ok","response":{"type":"order","data":{"statuses":[{"resting":{"oid":77}}]}}}`,
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := newTestClient(t, srv)
	result, err := c.Submit(context.Background(), venue.SubmitRequest{
		Coin:       "BTC",
		IsBuy:      true,
		Size:       1,
		LimitPrice: 52.3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != venue.OutcomeResting || result.OrderID != 77 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// The payload must carry a signed action with a fresh nonce.
	if fake.lastExchange.Nonce == 0 {
		t.Fatal("expected a nonzero nonce")
	}
	if fake.lastExchange.Signature.R == "" || fake.lastExchange.Signature.S == "" {
		t.Fatal("expected a signature on the exchange payload")
	}

	var action orderAction
	if err := json.Unmarshal(fake.lastExchange.Action, &action); err != nil {
		t.Fatalf("decode submitted action: %v", err)
	}
	if action.Type != "order" || len(action.Orders) != 1 {
		t.Fatalf("unexpected action: %+v", action)
	}
	ord := action.Orders[0]
	if ord.Asset != 0 || !ord.IsBuy || ord.LimitPx != "52.3" || ord.Size != "1" {
		t.Fatalf("unexpected order wire: %+v", ord)
	}
	if ord.Type.Limit == nil || ord.Type.Limit.TIF != "Gtc" {
		t.Fatalf("expected Gtc limit order, got %+v", ord.Type)
	}
}

func TestSubmit_UnknownCoin(t *testing.T) {
	fake := &fakeVenueServer{t: t, accountValue: "1000.0"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Submit(context.Background(), venue.SubmitRequest{Coin: "DOGE", Size: 1, LimitPrice: 1})
	if !errors.Is(err, venue.ErrRejected) {
		t.Fatalf("expected ErrRejected for unknown coin, got %v", err)
	}
	if fake.exchangeCalls != 0 {
		t.Fatalf("unknown coins must not reach the exchange, got %d calls", fake.exchangeCalls)
	}
}

func TestSubmit_ZeroEquityIsAuthFailure(t *testing.T) {
	fake := &fakeVenueServer{t: t, accountValue: "0.0"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Submit(context.Background(), venue.SubmitRequest{Coin: "BTC", Size: 1, LimitPrice: 52.3})
	if !errors.Is(err, venue.ErrAuth) {
		t.Fatalf("expected ErrAuth for zero equity, got %v", err)
	}
	if fake.exchangeCalls != 0 {
		t.Fatalf("failed preflight must not submit, got %d calls", fake.exchangeCalls)
	}
}

func TestSubmit_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	signer, err := NewSigner(testKey, true)
	if err != nil {
		t.Fatalf("build signer: %v", err)
	}
	c := New(Config{BaseURL: srv.URL, Testnet: true, Timeout: 20 * time.Millisecond}, signer, nil)

	_, err = c.Submit(context.Background(), venue.SubmitRequest{Coin: "BTC", Size: 1, LimitPrice: 52.3})
	if !errors.Is(err, venue.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestOrderStatus_Known(t *testing.T) {
	fake := &fakeVenueServer{t: t, accountValue: "1000.0"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := newTestClient(t, srv)
	status, err := c.OrderStatus(context.Background(), 77)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.OrderID != 77 || status.State != "open" || status.Coin != "BTC" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.UpdatedAt.IsZero() {
		t.Fatal("expected a status timestamp")
	}
}

func TestOrderStatus_UnknownOid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"unknownOid"}`))
	}))
	defer srv.Close()

	signer, err := NewSigner(testKey, true)
	if err != nil {
		t.Fatalf("build signer: %v", err)
	}
	c := New(Config{BaseURL: srv.URL, Testnet: true}, signer, nil)

	_, err = c.OrderStatus(context.Background(), 999)
	if !errors.Is(err, venue.ErrRejected) {
		t.Fatalf("expected ErrRejected for unknown oid, got %v", err)
	}
}

func TestCancel_Success(t *testing.T) {
	fake := &fakeVenueServer{
		t:            t,
		accountValue: "1000.0",
		exchangeBody: `{"status":"ok","response":{"type":"cancel","data":{"statuses":["success"]}}}`,
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.Cancel(context.Background(), "BTC", 77); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var action cancelAction
	if err := json.Unmarshal(fake.lastExchange.Action, &action); err != nil {
		t.Fatalf("decode submitted action: %v", err)
	}
	if action.Type != "cancel" || len(action.Cancels) != 1 || action.Cancels[0].Oid != 77 {
		t.Fatalf("unexpected cancel action: %+v", action)
	}
}

func TestCancel_VenueRejection(t *testing.T) {
	fake := &fakeVenueServer{
		t:            t,
		accountValue: "1000.0",
		exchangeBody: `{"status":"ok","response":{"type":"cancel","data":{"statuses":[{"error":"Order was never placed, already canceled, or filled."}]}}}`,
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := newTestClient(t, srv)
	err := c.Cancel(context.Background(), "BTC", 999)
	if !errors.Is(err, venue.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestEnsureReady_LoadsOnce(t *testing.T) {
	metaCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		var req infoRequest
		json.NewDecoder(r.Body).Decode(&req)
		switch req.Type {
		case "meta":
			metaCalls++
			w.Write([]byte(`{"universe":[{"name":"BTC","szDecimals":5}]}`))
		case "clearinghouseState":
			w.Write([]byte(`{"marginSummary":{"accountValue":"1.0","totalMarginUsed":"0.0"}}`))
		}
	})
	mux.HandleFunc("/exchange", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","response":{"type":"order","data":{"statuses":[{"resting":{"oid":1}}]}}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	for i := 0; i < 3; i++ {
		if _, err := c.Submit(context.Background(), venue.SubmitRequest{Coin: "BTC", Size: 1, LimitPrice: 52.3}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if metaCalls != 1 {
		t.Fatalf("instrument metadata should load once, got %d loads", metaCalls)
	}
}
