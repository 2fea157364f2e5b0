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

// Finalize moves the order bound to a paid session from PENDING_PAYMENT to
// PLACED exactly once. Concurrent and repeated calls observe the winner's
// result; only the caller that wins the status claim touches stock.
func (s *Service) Finalize(ctx context.Context, input storetypes.FinalizeInput) (*domain.Order, error) {
	order, _, err := s.finalize(ctx, input)
	return order, err
}

// FinalizeClaim is Finalize that also reports whether this call placed the order.
func (s *Service) FinalizeClaim(ctx context.Context, input storetypes.FinalizeInput) (*storetypes.FinalizeResult, error) {
	order, claimed, err := s.finalize(ctx, input)
	if err != nil {
		return nil, err
	}
	return &storetypes.FinalizeResult{Order: order, Claimed: claimed}, nil
}

func (s *Service) finalize(ctx context.Context, input storetypes.FinalizeInput) (*domain.Order, bool, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, false, mapError(domain.ErrMissingSession)
	}
	var (
		result  *domain.Order
		claimed bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		claimed = false
		order, err := tx.OrderBySession(ctx, input.SessionID)
		if errors.Is(err, ports.ErrNotFound) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if input.ExpectedOwnerID != "" && order.OwnerID != input.ExpectedOwnerID {
			return domain.ErrOrderNotFound
		}
		if order.Status.IsFinal() {
			result = order
			return nil
		}

		won, err := tx.TransitionStatus(ctx, order.ID, domain.StatusPendingPayment, domain.StatusPlaced)
		if err != nil {
			return err
		}
		if !won {
			current, err := tx.OrderByID(ctx, order.ID)
			if err != nil {
				return err
			}
			result = current
			return nil
		}

		// A failed reservation rolls the claim back with everything else,
		// leaving the order in PENDING_PAYMENT for the compensator.
		if err := reserveLines(ctx, tx, order); err != nil {
			return err
		}
		if _, err := tx.ClearCart(ctx, order.OwnerID); err != nil {
			return err
		}
		order.Status = domain.StatusPlaced
		order.UpdatedAt = s.now().UTC()
		if err := tx.AppendEvents(ctx, placedEvent(order, s.event())); err != nil {
			return err
		}
		result = order
		claimed = true
		return nil
	})
	if err != nil {
		return nil, false, mapError(err)
	}
	return result, claimed, nil
}

// ConfirmCheckout is the buyer's return from the hosted payment page. It asks
// the provider whether the session is paid and finalizes when it is.
func (s *Service) ConfirmCheckout(ctx context.Context, input storetypes.FinalizeInput) (*domain.Order, error) {
	if strings.TrimSpace(input.ExpectedOwnerID) == "" {
		return nil, mapError(domain.ErrMissingOwner)
	}
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, mapError(domain.ErrMissingSession)
	}
	session, err := s.payments.RetrieveSession(ctx, input.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve payment session: %w", ErrExternalService, err)
	}
	if session.Paid {
		return s.Finalize(ctx, input)
	}
	order, err := s.store.GetOrderBySession(ctx, input.SessionID)
	if err != nil {
		return nil, mapError(err)
	}
	if order.OwnerID != input.ExpectedOwnerID {
		return nil, mapError(domain.ErrOrderNotFound)
	}
	return order, nil
}
