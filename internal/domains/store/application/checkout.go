package application

import (
	"context"
	"fmt"
	"strings"

	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

// CheckoutImmediate converts the owner's cart into a PLACED order in one
// transaction: stock is reserved, the order is created and the cart cleared,
// or nothing happens at all.
func (s *Service) CheckoutImmediate(ctx context.Context, input storetypes.CheckoutInput) (*domain.Order, error) {
	if err := validateCheckout(input); err != nil {
		return nil, mapError(err)
	}
	var placed *domain.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		lines, err := tx.CartLines(ctx, input.OwnerID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}
		if err := domain.CheckStock(lines); err != nil {
			return err
		}
		order, err := domain.NewOrder(input.OwnerID, domain.StatusPlaced, lines, input.Shipping)
		if err != nil {
			return err
		}
		if err := reserveLines(ctx, tx, order); err != nil {
			return err
		}
		saved, err := s.createOrder(ctx, tx, order)
		if err != nil {
			return err
		}
		if _, err := tx.ClearCart(ctx, input.OwnerID); err != nil {
			return err
		}
		if err := tx.AppendEvents(ctx, placedEvent(saved, s.event())); err != nil {
			return err
		}
		placed = saved
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return placed, nil
}

// BeginDeferredCheckout validates the cart, opens a hosted payment session and
// records a PENDING_PAYMENT order bound to it. Stock and cart are left untouched
// until the payment is finalized.
func (s *Service) BeginDeferredCheckout(ctx context.Context, input storetypes.CheckoutInput) (*storetypes.DeferredCheckout, error) {
	if err := validateCheckout(input); err != nil {
		return nil, mapError(err)
	}
	lines, err := s.store.CartLines(ctx, input.OwnerID)
	if err != nil {
		return nil, mapError(err)
	}
	if len(lines) == 0 {
		return nil, mapError(domain.ErrEmptyCart)
	}
	if err := domain.CheckStock(lines); err != nil {
		return nil, mapError(err)
	}
	order, err := domain.NewOrder(input.OwnerID, domain.StatusPendingPayment, lines, input.Shipping)
	if err != nil {
		return nil, mapError(err)
	}

	session, err := s.payments.CreateSession(ctx, sessionRequest(order))
	if err != nil {
		return nil, fmt.Errorf("%w: create payment session: %w", ErrExternalService, err)
	}
	order.PaymentSessionID = session.ID

	var saved *domain.Order
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		created, err := s.createOrder(ctx, tx, order)
		if err != nil {
			return err
		}
		saved = created
		return tx.AppendEvents(ctx, domain.OrderPendingPayment{
			BaseEvent: s.event(),
			OrderCode: created.Code,
			OwnerID:   created.OwnerID,
			SessionID: session.ID,
			Total:     created.Total,
		})
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &storetypes.DeferredCheckout{
		Order:       saved,
		SessionID:   session.ID,
		RedirectURL: session.RedirectURL,
	}, nil
}

func sessionRequest(order *domain.Order) ports.CheckoutSessionRequest {
	items := make([]ports.PaymentLineItem, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, ports.PaymentLineItem{
			Name:       line.ProductName,
			UnitAmount: line.UnitPrice,
			Quantity:   line.Quantity,
		})
	}
	return ports.CheckoutSessionRequest{
		OwnerID:        order.OwnerID,
		CustomerEmail:  order.ShippingInfo.Email,
		Items:          items,
		ShippingAmount: order.Shipping,
	}
}

func validateCheckout(input storetypes.CheckoutInput) error {
	if strings.TrimSpace(input.OwnerID) == "" {
		return domain.ErrMissingOwner
	}
	return input.Shipping.Validate()
}

func (s *Service) event() domain.BaseEvent {
	return domain.BaseEvent{Timestamp: s.now().UTC()}
}
