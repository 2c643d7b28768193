package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/scalar-terminal/scalar/internal/market"
)

// Config holds all application configuration. It is loaded once at startup
// and passed explicitly to every component; nothing reads the environment
// at call time.
type Config struct {
	Env    string
	Server ServerConfig
	Venue  VenueConfig
	KMS    KMSConfig
	Risk   RiskConfig
	Market MarketConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// VenueConfig holds exchange connection and credential settings.
type VenueConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Testnet    bool   `mapstructure:"testnet"`
	TimeoutSec int    `mapstructure:"timeout_sec"`

	// PrivateKey is the hex-encoded signing key. Leave empty when the key
	// is supplied encrypted via EncryptedKey + KMS.
	PrivateKey string `mapstructure:"private_key"`

	// EncryptedKey is a base64 KMS ciphertext of the signing key.
	EncryptedKey string `mapstructure:"encrypted_key"`
}

// Timeout returns the per-call venue deadline.
func (v VenueConfig) Timeout() time.Duration {
	return time.Duration(v.TimeoutSec) * time.Second
}

// KMSConfig holds AWS KMS settings for encrypted credential material.
type KMSConfig struct {
	Region             string `mapstructure:"region"`
	LocalStackEndpoint string `mapstructure:"localstack_endpoint"`
}

// RiskConfig holds the static risk policy.
type RiskConfig struct {
	MinLeverage    float64 `mapstructure:"min_leverage"`
	MaxLeverage    float64 `mapstructure:"max_leverage"`
	MinExpiryHours float64 `mapstructure:"min_expiry_hours"`
	Profile        string  `mapstructure:"profile"`
}

// MarketConfig describes the single scalar market this terminal trades.
type MarketConfig struct {
	ID          string  `mapstructure:"id"`
	Title       string  `mapstructure:"title"`
	Coin        string  `mapstructure:"coin"`
	RangeMin    float64 `mapstructure:"range_min"`
	RangeMax    float64 `mapstructure:"range_max"`
	TickSize    float64 `mapstructure:"tick_size"`
	OracleValue float64 `mapstructure:"oracle_value"`
	MarkValue   float64 `mapstructure:"mark_value"`

	// Expiry is an RFC 3339 timestamp. When empty, the market expires
	// ExpiryDays from process start.
	Expiry     string `mapstructure:"expiry"`
	ExpiryDays int    `mapstructure:"expiry_days"`
}

// Descriptor builds the immutable market descriptor served by this process.
func (m MarketConfig) Descriptor(now time.Time) (market.Descriptor, error) {
	expiry := now.UTC().AddDate(0, 0, m.ExpiryDays)
	if m.Expiry != "" {
		parsed, err := time.Parse(time.RFC3339, m.Expiry)
		if err != nil {
			return market.Descriptor{}, fmt.Errorf("parse market expiry: %w", err)
		}
		expiry = parsed.UTC()
	}

	return market.Descriptor{
		ID:    m.ID,
		Title: m.Title,
		Coin:  m.Coin,
		Range: market.Range{
			Min:      m.RangeMin,
			Max:      m.RangeMax,
			TickSize: m.TickSize,
		},
		Expiry:      expiry,
		OracleValue: m.OracleValue,
		MarkValue:   m.MarkValue,
	}, nil
}

// Load reads configuration from environment variables prefixed with SCALAR_.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCALAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("env", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8001)
	v.SetDefault("server.cors_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:3001",
		"http://127.0.0.1:3001",
	})

	// Venue defaults
	v.SetDefault("venue.base_url", "https://api.hyperliquid-testnet.xyz")
	v.SetDefault("venue.testnet", true)
	v.SetDefault("venue.timeout_sec", 10)
	v.SetDefault("venue.private_key", "")
	v.SetDefault("venue.encrypted_key", "")

	// KMS defaults
	v.SetDefault("kms.region", "us-east-1")
	v.SetDefault("kms.localstack_endpoint", "")

	// Risk defaults
	v.SetDefault("risk.min_leverage", 1.0)
	v.SetDefault("risk.max_leverage", 3.0)
	v.SetDefault("risk.min_expiry_hours", 24.0)
	v.SetDefault("risk.profile", "full")

	// Market defaults
	v.SetDefault("market.id", "btc-dominance-eom")
	v.SetDefault("market.title", "BTC Dominance % at End Of Month")
	v.SetDefault("market.coin", "BTC")
	v.SetDefault("market.range_min", 30.0)
	v.SetDefault("market.range_max", 90.0)
	v.SetDefault("market.tick_size", 0.1)
	v.SetDefault("market.oracle_value", 52.3)
	v.SetDefault("market.mark_value", 48.1)
	v.SetDefault("market.expiry", "")
	v.SetDefault("market.expiry_days", 5)

	cfg := &Config{}

	cfg.Env = v.GetString("env")

	cfg.Server = ServerConfig{
		Host:        v.GetString("server.host"),
		Port:        v.GetInt("server.port"),
		CORSOrigins: v.GetStringSlice("server.cors_origins"),
	}

	cfg.Venue = VenueConfig{
		BaseURL:      v.GetString("venue.base_url"),
		Testnet:      v.GetBool("venue.testnet"),
		TimeoutSec:   v.GetInt("venue.timeout_sec"),
		PrivateKey:   v.GetString("venue.private_key"),
		EncryptedKey: v.GetString("venue.encrypted_key"),
	}

	cfg.KMS = KMSConfig{
		Region:             v.GetString("kms.region"),
		LocalStackEndpoint: v.GetString("kms.localstack_endpoint"),
	}

	cfg.Risk = RiskConfig{
		MinLeverage:    v.GetFloat64("risk.min_leverage"),
		MaxLeverage:    v.GetFloat64("risk.max_leverage"),
		MinExpiryHours: v.GetFloat64("risk.min_expiry_hours"),
		Profile:        v.GetString("risk.profile"),
	}

	cfg.Market = MarketConfig{
		ID:          v.GetString("market.id"),
		Title:       v.GetString("market.title"),
		Coin:        v.GetString("market.coin"),
		RangeMin:    v.GetFloat64("market.range_min"),
		RangeMax:    v.GetFloat64("market.range_max"),
		TickSize:    v.GetFloat64("market.tick_size"),
		OracleValue: v.GetFloat64("market.oracle_value"),
		MarkValue:   v.GetFloat64("market.mark_value"),
		Expiry:      v.GetString("market.expiry"),
		ExpiryDays:  v.GetInt("market.expiry_days"),
	}

	if cfg.Risk.MinLeverage > cfg.Risk.MaxLeverage {
		return nil, fmt.Errorf("risk: min leverage %.2f exceeds max %.2f",
			cfg.Risk.MinLeverage, cfg.Risk.MaxLeverage)
	}

	return cfg, nil
}
