package application

import (
	"context"

	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
)

// Compensation reasons recorded with cancelled orders and refunds.
const (
	ReasonFulfilmentFailed = "fulfilment_failed"
	ReasonOrderCancelled   = "order_cancelled"
)

// CancelledBeforeSettlement is the settlement detail for a session whose order
// was cancelled (for example by the pending-order reaper) before payment settled.
const CancelledBeforeSettlement = "order was cancelled before payment settled"

// SettlePayment finalizes the order for a paid session and compensates when it
// cannot be fulfilled. A session whose order was already cancelled is refunded.
func (s *Service) SettlePayment(ctx context.Context, input storetypes.SettlementInput) (*storetypes.SettlementResult, error) {
	order, claimed, err := s.finalize(ctx, storetypes.FinalizeInput{SessionID: input.SessionID})
	if err != nil {
		if ShouldCompensate(err) {
			return s.compensateSettlement(ctx, input, ReasonFulfilmentFailed, err.Error())
		}
		return nil, err
	}
	finalized := &storetypes.FinalizeResult{Order: order, Claimed: claimed}
	outcome, reason := FinalizedOutcome(finalized)
	if reason != "" {
		return s.compensateSettlement(ctx, input, reason, CancelledBeforeSettlement)
	}
	return &storetypes.SettlementResult{Order: order, Outcome: outcome}, nil
}

// FinalizedOutcome maps a successful finalization onto its settlement outcome.
// When the order was cancelled instead, it returns no outcome and the reason
// the payment must be compensated with.
func FinalizedOutcome(result *storetypes.FinalizeResult) (storetypes.SettlementOutcome, string) {
	switch {
	case result.Order.Status == domain.StatusCancelled:
		return "", ReasonOrderCancelled
	case result.Claimed:
		return storetypes.OutcomePlaced, ""
	default:
		return storetypes.OutcomeAlreadyFinal, ""
	}
}

// CompensationOutcome maps a compensation onto its settlement outcome.
func CompensationOutcome(result *storetypes.CompensationResult) storetypes.SettlementOutcome {
	if result.Superseded {
		return storetypes.OutcomeSuperseded
	}
	return storetypes.OutcomeCompensated
}

func (s *Service) compensateSettlement(ctx context.Context, input storetypes.SettlementInput, reason, detail string) (*storetypes.SettlementResult, error) {
	comp, err := s.Compensate(ctx, storetypes.CompensateInput{
		SessionID:       input.SessionID,
		PaymentIntentID: input.PaymentIntentID,
		Reason:          reason,
	})
	if err != nil {
		return nil, err
	}
	return &storetypes.SettlementResult{
		Order:    comp.Order,
		Outcome:  CompensationOutcome(comp),
		RefundID: comp.RefundID,
		Reason:   detail,
	}, nil
}
