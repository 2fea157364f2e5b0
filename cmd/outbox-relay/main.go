package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Apurer/go-gin-storefront/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN not set; the relay reads the outbox table")
	}
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.ObservabilityOptions("storefront-outbox-relay"))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()
	logger := instruments.Logger

	components, err := api.Bootstrap(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to build checkout components", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer components.Close()

	relay, err := components.OutboxRelay()
	if err != nil {
		logger.Error("outbox relay unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("outbox relay started", slog.String("topic", cfg.OutboxTopic))
	if err := relay.Run(ctx); err != nil {
		logger.Error("outbox relay exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("outbox relay stopped")
}
