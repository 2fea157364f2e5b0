package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	storefrontserver "github.com/Apurer/go-gin-storefront/go"
	storeapp "github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	platformkafka "github.com/Apurer/go-gin-storefront/internal/platform/kafka"
	"github.com/Apurer/go-gin-storefront/internal/platform/metrics"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
)

const serviceName = "storefront-api"

// ObservabilityOptions derives telemetry settings for a named process.
func (c Config) ObservabilityOptions(service string) platformobservability.Options {
	return platformobservability.Options{
		ServiceName:  service,
		Environment:  c.Environment,
		LogLevel:     c.LogLevel,
		OTLPEndpoint: c.OTLPEndpoint,
		OTLPInsecure: c.OTLPInsecure,
		StdoutTraces: c.StdoutTraces,
	}
}

// Run boots the checkout HTTP API until ctx is cancelled. The outbox relay and
// the pending-order reaper run alongside the server when enabled.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.ObservabilityOptions(serviceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	components, err := Bootstrap(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer components.Close()

	receipts, err := components.ReceiptStore(ctx)
	if err != nil {
		return err
	}
	processor := storeapp.NewWebhookProcessor(
		components.Payments,
		components.Settlement(),
		storeapp.WithReceiptStore(receipts),
	)

	serverMetrics := metrics.NewServerMetrics("api")
	router := NewRouter(components, processor, serverMetrics, logger)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("storefront API listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.OutboxRelayInline {
		relay, err := components.OutboxRelay()
		switch {
		case errors.Is(err, platformkafka.ErrDisabled):
			logger.Warn("KAFKA_BROKERS not set, outbox relay not started")
		case err != nil:
			return err
		default:
			group.Go(func() error { return relay.Run(groupCtx) })
		}
	}
	if cfg.ReaperInterval > 0 {
		group.Go(func() error { return RunReaper(groupCtx, components, cfg.ReaperInterval) })
	}

	if err := group.Wait(); err != nil {
		logger.Error("storefront API exited", slog.String("error", err.Error()))
		return err
	}
	logger.Info("storefront API stopped")
	return nil
}

// NewRouter assembles the HTTP handlers over the bootstrapped components.
func NewRouter(components *Components, processor storefrontserver.WebhookProcessor, serverMetrics *metrics.ServerMetrics, logger *slog.Logger) *gin.Engine {
	handlers := storefrontserver.ApiHandleFunctions{
		CartAPI:     storefrontserver.NewCartAPI(components.Service),
		CheckoutAPI: storefrontserver.NewCheckoutAPI(components.Service),
		OrderAPI:    storefrontserver.NewOrderAPI(components.Service),
		WebhookAPI:  storefrontserver.NewWebhookAPI(processor, logger),
	}
	return storefrontserver.NewRouter(handlers, storefrontserver.RouterOptions{
		Middleware: []gin.HandlerFunc{otelgin.Middleware(serviceName), serverMetrics.Middleware()},
		Metrics:    serverMetrics.Handler(),
	})
}
