package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN not set; there are no pending orders to expire")
	}
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.ObservabilityOptions("storefront-order-reaper"))
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

	result, err := api.Reap(ctx, components, time.Now())
	if err != nil {
		logger.Error("pending order sweep failed",
			slog.Int("expired_orders", result.ExpiredOrders),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("pending order sweep completed",
		slog.Int("expired_orders", result.ExpiredOrders),
		slog.Int64("purged_receipts", result.PurgedReceipts),
	)
}
