package checkout

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	storeports "github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

const (
	// FinalizeOrderActivityName moves a paid order from PENDING_PAYMENT to PLACED.
	FinalizeOrderActivityName = "checkout.activities.FinalizeOrder"
	// CompensateOrderActivityName cancels and refunds an order that cannot be fulfilled.
	CompensateOrderActivityName = "checkout.activities.CompensateOrder"
)

// Application error types crossing the activity boundary.
const (
	ErrTypeFulfilmentFailed = "FulfilmentFailed"
	ErrTypeOrderNotFound    = "OrderNotFound"
	ErrTypeRefundFailed     = "RefundFailed"
)

// Activities groups the checkout steps executed by the settlement workflow.
type Activities struct {
	service storeports.Service
}

// NewActivities wires the checkout service into the Temporal activities bundle.
func NewActivities(service storeports.Service) *Activities {
	return &Activities{service: service}
}

// FinalizeOrder finalizes the order bound to the session and reports whether
// this attempt placed it. Failures that call for a refund are returned as
// non-retryable FulfilmentFailed errors.
func (a *Activities) FinalizeOrder(ctx context.Context, input storetypes.FinalizeInput) (*storetypes.FinalizeResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		return nil, errors.New("checkout activities not initialized")
	}
	logger.Info("FinalizeOrder activity started", "sessionId", input.SessionID)
	result, err := a.service.FinalizeClaim(ctx, input)
	switch {
	case err == nil:
		logger.Info("FinalizeOrder activity completed", "sessionId", input.SessionID, "orderCode", result.Order.Code, "status", result.Order.Status, "claimed", result.Claimed)
		return result, nil
	case errors.Is(err, application.ErrNotFound):
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeOrderNotFound, err)
	case application.ShouldCompensate(err):
		logger.Warn("FinalizeOrder cannot fulfil order", "sessionId", input.SessionID, "error", err)
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeFulfilmentFailed, err)
	default:
		logger.Error("FinalizeOrder activity failed", "sessionId", input.SessionID, "error", err)
		return nil, err
	}
}

// CompensateOrder cancels the order and refunds the payment. Refund failures
// are non-retryable and need manual follow-up.
func (a *Activities) CompensateOrder(ctx context.Context, input storetypes.CompensateInput) (*storetypes.CompensationResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		return nil, errors.New("checkout activities not initialized")
	}
	logger.Info("CompensateOrder activity started", "sessionId", input.SessionID, "reason", input.Reason)
	result, err := a.service.Compensate(ctx, input)
	if err != nil {
		logger.Error("CompensateOrder activity failed", "sessionId", input.SessionID, "error", err)
		if errors.Is(err, application.ErrRefundFailed) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeRefundFailed, err)
		}
		if errors.Is(err, application.ErrNotFound) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeOrderNotFound, err)
		}
		return nil, err
	}
	logger.Info("CompensateOrder activity completed", "sessionId", input.SessionID, "refundId", result.RefundID, "superseded", result.Superseded)
	return result, nil
}
