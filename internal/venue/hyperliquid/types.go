package hyperliquid

import (
	"encoding/json"
	"fmt"

	"github.com/scalar-terminal/scalar/internal/venue"
)

// --- Action wire types ---
//
// Field order matters: the exchange hashes the msgpack encoding of the
// action, and msgpack struct encoding follows declaration order. These
// structs mirror the venue's compact field names exactly.

type limitWire struct {
	TIF string `msgpack:"tif" json:"tif"`
}

type orderTypeWire struct {
	Limit *limitWire `msgpack:"limit,omitempty" json:"limit,omitempty"`
}

type orderWire struct {
	Asset      int           `msgpack:"a" json:"a"`
	IsBuy      bool          `msgpack:"b" json:"b"`
	LimitPx    string        `msgpack:"p" json:"p"`
	Size       string        `msgpack:"s" json:"s"`
	ReduceOnly bool          `msgpack:"r" json:"r"`
	Type       orderTypeWire `msgpack:"t" json:"t"`
}

type orderAction struct {
	Type     string      `msgpack:"type" json:"type"`
	Orders   []orderWire `msgpack:"orders" json:"orders"`
	Grouping string      `msgpack:"grouping" json:"grouping"`
}

type cancelWire struct {
	Asset int   `msgpack:"a" json:"a"`
	Oid   int64 `msgpack:"o" json:"o"`
}

type cancelAction struct {
	Type    string       `msgpack:"type" json:"type"`
	Cancels []cancelWire `msgpack:"cancels" json:"cancels"`
}

// exchangePayload is the signed envelope posted to /exchange.
type exchangePayload struct {
	Action       json.RawMessage `json:"action"`
	Nonce        uint64          `json:"nonce"`
	Signature    rsvSignature    `json:"signature"`
	VaultAddress *string         `json:"vaultAddress"`
}

// --- Response wire types ---

// exchangeResponse is the top-level /exchange reply. Response is either a
// structured body (status "ok") or a bare error string (status "err").
type exchangeResponse struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type orderResponseBody struct {
	Type string `json:"type"`
	Data struct {
		Statuses []orderStatusEntry `json:"statuses"`
	} `json:"data"`
}

// orderStatusEntry is the venue's loosely-structured per-order status: a
// union with optional nested fields. Exactly one branch should be present.
type orderStatusEntry struct {
	Resting *struct {
		Oid int64 `json:"oid"`
	} `json:"resting,omitempty"`
	Filled *struct {
		TotalSz string `json:"totalSz"`
		AvgPx   string `json:"avgPx"`
		Oid     int64  `json:"oid"`
	} `json:"filled,omitempty"`
	Error string `json:"error,omitempty"`
}

// decodeSubmitResponse collapses the venue's submit acknowledgment into the
// closed SubmitResult variant. Any unexpected shape maps to ErrMalformed
// rather than a field-access fault.
func decodeSubmitResponse(raw []byte) (venue.SubmitResult, error) {
	var resp exchangeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return venue.SubmitResult{}, fmt.Errorf("%w: %v", venue.ErrMalformed, err)
	}
	if resp.Status == "" {
		return venue.SubmitResult{}, fmt.Errorf("%w: response has no status", venue.ErrMalformed)
	}

	if resp.Status != "ok" {
		// Request-level refusal carries a bare string reason.
		var reason string
		if err := json.Unmarshal(resp.Response, &reason); err != nil || reason == "" {
			reason = string(resp.Response)
		}
		return venue.SubmitResult{
			Outcome: venue.OutcomeRejected,
			Reason:  reason,
		}, nil
	}

	var body orderResponseBody
	if err := json.Unmarshal(resp.Response, &body); err != nil {
		return venue.SubmitResult{}, fmt.Errorf("%w: %v", venue.ErrMalformed, err)
	}
	if len(body.Data.Statuses) == 0 {
		return venue.SubmitResult{}, fmt.Errorf("%w: no order status in response", venue.ErrMalformed)
	}

	status := body.Data.Statuses[0]
	switch {
	case status.Resting != nil:
		return venue.SubmitResult{
			Outcome: venue.OutcomeResting,
			OrderID: status.Resting.Oid,
		}, nil
	case status.Filled != nil:
		return venue.SubmitResult{
			Outcome:    venue.OutcomeFilled,
			OrderID:    status.Filled.Oid,
			AvgPrice:   status.Filled.AvgPx,
			FilledSize: status.Filled.TotalSz,
		}, nil
	case status.Error != "":
		return venue.SubmitResult{
			Outcome: venue.OutcomeRejected,
			Reason:  status.Error,
		}, nil
	default:
		return venue.SubmitResult{}, fmt.Errorf("%w: order status has no known branch", venue.ErrMalformed)
	}
}

// cancelStatusEntry appears in cancel acknowledgments as either the literal
// string "success" or an object carrying an error.
type cancelStatusEntry struct {
	Error string `json:"error,omitempty"`
}

// decodeCancelResponse returns nil on a confirmed cancel, ErrRejected with
// the venue's reason otherwise.
func decodeCancelResponse(raw []byte) error {
	var resp exchangeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("%w: %v", venue.ErrMalformed, err)
	}
	if resp.Status == "" {
		return fmt.Errorf("%w: response has no status", venue.ErrMalformed)
	}

	if resp.Status != "ok" {
		var reason string
		if err := json.Unmarshal(resp.Response, &reason); err != nil || reason == "" {
			reason = string(resp.Response)
		}
		return fmt.Errorf("%w: %s", venue.ErrRejected, reason)
	}

	var body struct {
		Type string `json:"type"`
		Data struct {
			Statuses []json.RawMessage `json:"statuses"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Response, &body); err != nil {
		return fmt.Errorf("%w: %v", venue.ErrMalformed, err)
	}
	if len(body.Data.Statuses) == 0 {
		return fmt.Errorf("%w: no cancel status in response", venue.ErrMalformed)
	}

	first := body.Data.Statuses[0]
	var asString string
	if err := json.Unmarshal(first, &asString); err == nil {
		if asString == "success" {
			return nil
		}
		return fmt.Errorf("%w: %s", venue.ErrRejected, asString)
	}

	var entry cancelStatusEntry
	if err := json.Unmarshal(first, &entry); err != nil {
		return fmt.Errorf("%w: %v", venue.ErrMalformed, err)
	}
	if entry.Error != "" {
		return fmt.Errorf("%w: %s", venue.ErrRejected, entry.Error)
	}
	return fmt.Errorf("%w: unrecognised cancel status", venue.ErrMalformed)
}

// --- Info endpoint wire types ---

type infoRequest struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
	Oid  int64  `json:"oid,omitempty"`
}

// metaResponse lists the venue's tradable instruments; the position of a
// coin in the universe is its asset index for order actions.
type metaResponse struct {
	Universe []struct {
		Name       string `json:"name"`
		SzDecimals int    `json:"szDecimals"`
	} `json:"universe"`
}

// orderStatusResponse is the /info orderStatus reply. Status is "order"
// when the oid is known, "unknownOid" otherwise.
type orderStatusResponse struct {
	Status string `json:"status"`
	Order  *struct {
		Order struct {
			Coin      string `json:"coin"`
			Side      string `json:"side"`
			LimitPx   string `json:"limitPx"`
			Sz        string `json:"sz"`
			Oid       int64  `json:"oid"`
			Timestamp int64  `json:"timestamp"`
			OrigSz    string `json:"origSz"`
		} `json:"order"`
		Status          string `json:"status"`
		StatusTimestamp int64  `json:"statusTimestamp"`
	} `json:"order,omitempty"`
}

// clearinghouseResponse carries the account margin summary used for the
// equity preflight.
type clearinghouseResponse struct {
	MarginSummary struct {
		AccountValue    string `json:"accountValue"`
		TotalMarginUsed string `json:"totalMarginUsed"`
	} `json:"marginSummary"`
}
