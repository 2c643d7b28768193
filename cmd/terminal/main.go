package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"go.uber.org/zap"

	"github.com/scalar-terminal/scalar/internal/config"
	"github.com/scalar-terminal/scalar/internal/engine"
	"github.com/scalar-terminal/scalar/internal/kms"
	"github.com/scalar-terminal/scalar/internal/market"
	"github.com/scalar-terminal/scalar/internal/server"
	"github.com/scalar-terminal/scalar/internal/venue/hyperliquid"
)

func main() {
	defer memguard.Purge()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("terminal exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	signingKey, err := resolveSigningKey(ctx, cfg)
	if err != nil {
		return fmt.Errorf("resolve signing key: %w", err)
	}

	signer, err := hyperliquid.NewSigner(signingKey, cfg.Venue.Testnet)
	if err != nil {
		return fmt.Errorf("build signer: %w", err)
	}

	venueClient := hyperliquid.New(hyperliquid.Config{
		BaseURL: cfg.Venue.BaseURL,
		Testnet: cfg.Venue.Testnet,
		Timeout: cfg.Venue.Timeout(),
	}, signer, logger.Named("venue"))

	descriptor, err := cfg.Market.Descriptor(time.Now())
	if err != nil {
		return fmt.Errorf("build market descriptor: %w", err)
	}
	markets := market.NewStaticSource(descriptor)

	validator := engine.NewValidator(engine.RiskLimits{
		MinLeverage:    cfg.Risk.MinLeverage,
		MaxLeverage:    cfg.Risk.MaxLeverage,
		MinExpiryHours: cfg.Risk.MinExpiryHours,
	}, engine.Profile(cfg.Risk.Profile))

	orchestrator := engine.NewOrchestrator(venueClient, logger.Named("orchestrator"))

	srv := server.New(cfg.Server, markets, validator, orchestrator, logger.Named("http"))

	logger.Info("scalar market terminal starting",
		zap.String("env", cfg.Env),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("market", descriptor.ID),
		zap.String("venue", cfg.Venue.BaseURL),
	)

	return srv.Run(ctx)
}

// resolveSigningKey returns the venue signing key, decrypting it through KMS
// when only ciphertext is configured.
func resolveSigningKey(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Venue.PrivateKey != "" {
		return cfg.Venue.PrivateKey, nil
	}
	if cfg.Venue.EncryptedKey == "" {
		return "", fmt.Errorf("no venue signing key configured")
	}

	kmsClient, err := kms.New(ctx, cfg.KMS.Region, cfg.KMS.LocalStackEndpoint)
	if err != nil {
		return "", err
	}
	return kmsClient.DecryptSigningKey(ctx, cfg.Venue.EncryptedKey)
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
