package checkout

import (
	"go.temporal.io/sdk/workflow"

	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	"github.com/Apurer/go-gin-storefront/internal/platform/temporal/sequences"
)

const (
	// PaymentSettlementWorkflowName is the public identifier for registering the workflow.
	PaymentSettlementWorkflowName = "checkout.workflows.PaymentSettlement"
	// SettlementTaskQueue is the queue consumed by the worker processing settlements.
	SettlementTaskQueue = "CHECKOUT_SETTLEMENT"
)

// PaymentSettlementWorkflowInput carries one successful provider payment.
type PaymentSettlementWorkflowInput struct {
	Settlement storetypes.SettlementInput
	TraceID    string
}

// PaymentSettlementWorkflow settles a paid checkout session durably.
func PaymentSettlementWorkflow(ctx workflow.Context, input PaymentSettlementWorkflowInput) (*storetypes.SettlementResult, error) {
	logger := workflow.GetLogger(ctx)
	sessionID := input.Settlement.SessionID
	logger.Info("PaymentSettlementWorkflow started", withTraceID(input.TraceID, "sessionId", sessionID, "eventId", input.Settlement.EventID)...)
	result, err := sequences.RunSettlementSequence(ctx, input.Settlement)
	if err != nil {
		logger.Error("PaymentSettlementWorkflow failed", withTraceID(input.TraceID, "sessionId", sessionID, "error", err)...)
		return nil, err
	}
	logger.Info("PaymentSettlementWorkflow completed", withTraceID(input.TraceID, "sessionId", sessionID, "outcome", result.Outcome)...)
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
