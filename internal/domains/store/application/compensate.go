package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

// RefundIdempotencyKey is the provider idempotency key used for a session's refund.
func RefundIdempotencyKey(sessionID string) string {
	return "refund-" + sessionID
}

// Compensate cancels the pending order bound to a paid session and refunds the
// payment in full. The cancellation is claimed first so a concurrent successful
// finalization wins and no refund is issued for an order that will ship.
// The refund itself is claimed on the order in the same transaction, so at most
// one call ever reaches the provider for a session. A refund failure is returned
// wrapped in ErrRefundFailed and is not retried.
func (s *Service) Compensate(ctx context.Context, input storetypes.CompensateInput) (*storetypes.CompensationResult, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, mapError(domain.ErrMissingSession)
	}
	hasPayment := strings.TrimSpace(input.PaymentIntentID) != ""
	claim := RefundIdempotencyKey(input.SessionID)
	result := &storetypes.CompensationResult{}
	var refundClaimed bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		refundClaimed = false
		order, err := tx.OrderBySession(ctx, input.SessionID)
		if errors.Is(err, ports.ErrNotFound) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if order.Status == domain.StatusPendingPayment {
			cancelled, err := tx.TransitionStatus(ctx, order.ID, domain.StatusPendingPayment, domain.StatusCancelled)
			if err != nil {
				return err
			}
			if cancelled {
				order.Status = domain.StatusCancelled
				order.UpdatedAt = s.now().UTC()
				if err := tx.AppendEvents(ctx, domain.OrderCancelled{
					BaseEvent: s.event(),
					OrderCode: order.Code,
					Reason:    input.Reason,
				}); err != nil {
					return err
				}
			} else {
				current, err := tx.OrderByID(ctx, order.ID)
				if err != nil {
					return err
				}
				order = current
			}
		}
		result.Order = order
		if order.Status != domain.StatusCancelled || !hasPayment {
			return nil
		}
		won, err := tx.ClaimRefund(ctx, order.ID, claim)
		if err != nil {
			return err
		}
		if won {
			order.RefundID = claim
			refundClaimed = true
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	if result.Order.Status != domain.StatusCancelled {
		result.Superseded = true
		return result, nil
	}
	if !hasPayment {
		return result, fmt.Errorf("%w: %w: session %s has no payment reference", ErrExternalService, ErrRefundFailed, input.SessionID)
	}
	if !refundClaimed {
		// An earlier call owns the refund. Its id is only known once recorded.
		if result.Order.RefundID != claim {
			result.RefundID = result.Order.RefundID
		}
		return result, nil
	}

	refund, err := s.payments.Refund(ctx, ports.RefundRequest{
		PaymentIntentID: input.PaymentIntentID,
		IdempotencyKey:  claim,
		Reason:          input.Reason,
	})
	if err != nil {
		return result, fmt.Errorf("%w: %w: %w", ErrExternalService, ErrRefundFailed, err)
	}
	result.Refunded = true
	result.RefundID = refund.ID

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.RecordRefund(ctx, result.Order.ID, refund.ID); err != nil {
			return err
		}
		return tx.AppendEvents(ctx, domain.PaymentRefunded{
			BaseEvent: s.event(),
			OrderCode: result.Order.Code,
			SessionID: input.SessionID,
			RefundID:  refund.ID,
			Status:    refund.Status,
			Reason:    input.Reason,
		})
	})
	if err != nil {
		return result, fmt.Errorf("record refund %s: %w", refund.ID, err)
	}
	result.Order.RefundID = refund.ID
	return result, nil
}
