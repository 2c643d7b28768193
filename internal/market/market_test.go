package market

import (
	"testing"
	"time"
)

func TestRangeContainsBounds(t *testing.T) {
	r := Range{Min: 30.0, Max: 90.0, TickSize: 0.1}

	if !r.Contains(30.0) {
		t.Error("lower bound must be inside the range")
	}
	if !r.Contains(90.0) {
		t.Error("upper bound must be inside the range")
	}
	if !r.Contains(52.3) {
		t.Error("interior value must be inside the range")
	}
	if r.Contains(29.9) {
		t.Error("value below min must be outside the range")
	}
	if r.Contains(90.1) {
		t.Error("value above max must be outside the range")
	}
}

func TestTimeToExpiry(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	d := Descriptor{Expiry: now.Add(48 * time.Hour)}

	if got := d.TimeToExpiry(now); got != 48*time.Hour {
		t.Errorf("expected 48h, got %s", got)
	}
	if got := d.TimeToExpiry(now.Add(72 * time.Hour)); got >= 0 {
		t.Errorf("expected negative duration past expiry, got %s", got)
	}
}

func TestStaticSource(t *testing.T) {
	d := Descriptor{ID: "btc-dominance-eom", Coin: "BTC"}
	src := NewStaticSource(d)

	got := src.Market()
	if got.ID != d.ID || got.Coin != d.Coin {
		t.Errorf("expected configured descriptor back, got %+v", got)
	}
}
