package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
	checkoutactivities "github.com/Apurer/go-gin-storefront/internal/platform/temporal/activities/checkout"
	checkoutworkflows "github.com/Apurer/go-gin-storefront/internal/platform/temporal/workflows/checkout"
)

var (
	_ ports.SettlementOrchestrator = (*TemporalSettlement)(nil)
	_ ports.SettlementOrchestrator = (*InlineSettlement)(nil)
)

// TemporalSettlement runs payment settlement as a Temporal workflow, one per session.
type TemporalSettlement struct {
	client    client.Client
	taskQueue string
}

// NewTemporalSettlement wires a Temporal client into the orchestrator.
func NewTemporalSettlement(c client.Client) *TemporalSettlement {
	return &TemporalSettlement{client: c, taskQueue: checkoutworkflows.SettlementTaskQueue}
}

// SettlePayment starts (or joins) the settlement workflow for the session and waits for it.
func (o *TemporalSettlement) SettlePayment(ctx context.Context, input storetypes.SettlementInput) (*storetypes.SettlementResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal settlement not configured")
	}
	workflowID := BuildSettlementWorkflowID(input.SessionID)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		checkoutworkflows.PaymentSettlementWorkflowName,
		checkoutworkflows.PaymentSettlementWorkflowInput{Settlement: input, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var result storetypes.SettlementResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, translateWorkflowError(err)
	}
	return &result, nil
}

// InlineSettlement settles payments synchronously through the service, without Temporal.
type InlineSettlement struct {
	service ports.Service
}

// NewInlineSettlement wraps the checkout service for synchronous settlement.
func NewInlineSettlement(service ports.Service) *InlineSettlement {
	return &InlineSettlement{service: service}
}

func (o *InlineSettlement) SettlePayment(ctx context.Context, input storetypes.SettlementInput) (*storetypes.SettlementResult, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline settlement not configured")
	}
	return o.service.SettlePayment(ctx, input)
}

// BuildSettlementWorkflowID derives a deterministic workflow id from the session id.
func BuildSettlementWorkflowID(sessionID string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(sessionID)))
	return fmt.Sprintf("payment-settlement-%s", hex.EncodeToString(sum[:8]))
}

// translateWorkflowError restores the application error classes lost at the activity boundary.
func translateWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case checkoutactivities.ErrTypeRefundFailed:
		return fmt.Errorf("%w: %w: %w", application.ErrExternalService, application.ErrRefundFailed, err)
	case checkoutactivities.ErrTypeOrderNotFound:
		return fmt.Errorf("%w: %w", application.ErrNotFound, err)
	}
	return err
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
