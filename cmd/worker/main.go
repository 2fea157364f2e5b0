package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-storefront/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
	checkoutactivities "github.com/Apurer/go-gin-storefront/internal/platform/temporal/activities/checkout"
	checkoutworkflows "github.com/Apurer/go-gin-storefront/internal/platform/temporal/workflows/checkout"
)

func main() {
	ctx := context.Background()
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.ObservabilityOptions("storefront-worker"))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	components, err := api.Bootstrap(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to build checkout components", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer components.Close()

	temporalClient, err := components.DialTemporal()
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	activities := checkoutactivities.NewActivities(components.Service)
	w := worker.New(temporalClient, checkoutworkflows.SettlementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(checkoutworkflows.PaymentSettlementWorkflow, workflow.RegisterOptions{Name: checkoutworkflows.PaymentSettlementWorkflowName})
	w.RegisterActivityWithOptions(activities.FinalizeOrder, activity.RegisterOptions{Name: checkoutactivities.FinalizeOrderActivityName})
	w.RegisterActivityWithOptions(activities.CompensateOrder, activity.RegisterOptions{Name: checkoutactivities.CompensateOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", checkoutworkflows.SettlementTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
