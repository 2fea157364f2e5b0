package sequences

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	checkoutactivities "github.com/Apurer/go-gin-storefront/internal/platform/temporal/activities/checkout"
)

// RunSettlementSequence finalizes the order for a paid session and compensates
// when the order cannot be fulfilled or was cancelled before payment settled.
func RunSettlementSequence(ctx workflow.Context, input storetypes.SettlementInput) (*storetypes.SettlementResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("settlement sequence started", "sessionId", input.SessionID)
	finalizeOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}
	// The refund is not retried automatically.
	compensateOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}

	var finalized storetypes.FinalizeResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, finalizeOptions),
		checkoutactivities.FinalizeOrderActivityName,
		storetypes.FinalizeInput{SessionID: input.SessionID},
	).Get(ctx, &finalized)

	var reason, detail string
	switch {
	case err != nil && isApplicationError(err, checkoutactivities.ErrTypeFulfilmentFailed):
		reason, detail = application.ReasonFulfilmentFailed, rootMessage(err)
	case err != nil:
		logger.Error("settlement sequence finalize failed", "sessionId", input.SessionID, "error", err)
		return nil, err
	default:
		var outcome storetypes.SettlementOutcome
		outcome, reason = application.FinalizedOutcome(&finalized)
		if reason == "" {
			logger.Info("settlement sequence finalized order", "sessionId", input.SessionID, "orderCode", finalized.Order.Code, "outcome", outcome)
			return &storetypes.SettlementResult{Order: finalized.Order, Outcome: outcome}, nil
		}
		detail = application.CancelledBeforeSettlement
	}

	var comp storetypes.CompensationResult
	err = workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, compensateOptions),
		checkoutactivities.CompensateOrderActivityName,
		storetypes.CompensateInput{SessionID: input.SessionID, PaymentIntentID: input.PaymentIntentID, Reason: reason},
	).Get(ctx, &comp)
	if err != nil {
		logger.Error("settlement sequence compensation failed", "sessionId", input.SessionID, "error", err)
		return nil, err
	}
	outcome := application.CompensationOutcome(&comp)
	logger.Info("settlement sequence compensated", "sessionId", input.SessionID, "outcome", outcome, "refundId", comp.RefundID)
	return &storetypes.SettlementResult{
		Order:    comp.Order,
		Outcome:  outcome,
		RefundID: comp.RefundID,
		Reason:   detail,
	}, nil
}

func isApplicationError(err error, errType string) bool {
	var appErr *temporal.ApplicationError
	return errors.As(err, &appErr) && appErr.Type() == errType
}

func rootMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	return err.Error()
}
