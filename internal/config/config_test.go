package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Env != "development" {
		t.Errorf("expected env=development, got %s", cfg.Env)
	}

	if cfg.Server.Port != 8001 {
		t.Errorf("expected server port 8001, got %d", cfg.Server.Port)
	}

	if cfg.Venue.BaseURL != "https://api.hyperliquid-testnet.xyz" {
		t.Errorf("unexpected venue base url: %s", cfg.Venue.BaseURL)
	}
	if !cfg.Venue.Testnet {
		t.Error("expected testnet by default")
	}

	if cfg.Risk.MinLeverage != 1.0 || cfg.Risk.MaxLeverage != 3.0 {
		t.Errorf("unexpected leverage bounds: [%.1f, %.1f]",
			cfg.Risk.MinLeverage, cfg.Risk.MaxLeverage)
	}
	if cfg.Risk.MinExpiryHours != 24.0 {
		t.Errorf("expected 24h expiry floor, got %.1f", cfg.Risk.MinExpiryHours)
	}

	if cfg.Market.ID != "btc-dominance-eom" {
		t.Errorf("unexpected market id: %s", cfg.Market.ID)
	}
	if cfg.Market.RangeMin != 30.0 || cfg.Market.RangeMax != 90.0 {
		t.Errorf("unexpected market range: [%.1f, %.1f]",
			cfg.Market.RangeMin, cfg.Market.RangeMax)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("SCALAR_ENV", "production")
	os.Setenv("SCALAR_VENUE_BASE_URL", "https://api.hyperliquid.xyz")
	os.Setenv("SCALAR_RISK_MAX_LEVERAGE", "5.0")
	defer os.Unsetenv("SCALAR_ENV")
	defer os.Unsetenv("SCALAR_VENUE_BASE_URL")
	defer os.Unsetenv("SCALAR_RISK_MAX_LEVERAGE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("expected env=production, got %s", cfg.Env)
	}
	if cfg.Venue.BaseURL != "https://api.hyperliquid.xyz" {
		t.Errorf("unexpected venue base url: %s", cfg.Venue.BaseURL)
	}
	if cfg.Risk.MaxLeverage != 5.0 {
		t.Errorf("expected max leverage 5.0, got %.1f", cfg.Risk.MaxLeverage)
	}
}

func TestLoadRejectsInvertedLeverageBounds(t *testing.T) {
	os.Setenv("SCALAR_RISK_MIN_LEVERAGE", "4.0")
	defer os.Unsetenv("SCALAR_RISK_MIN_LEVERAGE")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when min leverage exceeds max")
	}
}

func TestServerAddr(t *testing.T) {
	cfg := ServerConfig{Host: "0.0.0.0", Port: 8001}
	if cfg.Addr() != "0.0.0.0:8001" {
		t.Errorf("unexpected addr: %s", cfg.Addr())
	}
}

func TestVenueTimeout(t *testing.T) {
	cfg := VenueConfig{TimeoutSec: 10}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.Timeout())
	}
}

func TestMarketDescriptorFromExpiryDays(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	cfg := MarketConfig{
		ID:         "btc-dominance-eom",
		Coin:       "BTC",
		RangeMin:   30.0,
		RangeMax:   90.0,
		TickSize:   0.1,
		ExpiryDays: 5,
	}

	d, err := cfg.Descriptor(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := now.AddDate(0, 0, 5)
	if !d.Expiry.Equal(want) {
		t.Errorf("expected expiry %s, got %s", want, d.Expiry)
	}
	if d.Range.Min != 30.0 || d.Range.Max != 90.0 {
		t.Errorf("unexpected range: %+v", d.Range)
	}
}

func TestMarketDescriptorExplicitExpiry(t *testing.T) {
	cfg := MarketConfig{
		ID:     "btc-dominance-eom",
		Expiry: "2025-09-30T23:59:59Z",
	}

	d, err := cfg.Descriptor(time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2025, 9, 30, 23, 59, 59, 0, time.UTC)
	if !d.Expiry.Equal(want) {
		t.Errorf("expected expiry %s, got %s", want, d.Expiry)
	}
}

func TestMarketDescriptorRejectsBadExpiry(t *testing.T) {
	cfg := MarketConfig{Expiry: "next tuesday"}
	if _, err := cfg.Descriptor(time.Now()); err == nil {
		t.Fatal("expected error for unparseable expiry")
	}
}
