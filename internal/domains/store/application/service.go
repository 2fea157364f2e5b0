package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

const defaultExpireBatch = 500

// Service orchestrates checkout, finalization and compensation.
type Service struct {
	store    ports.Store
	payments ports.PaymentProvider
	codes    ports.CodeGenerator
	now      func() time.Time
}

// Option customises the service.
type Option func(*Service)

// WithCodeGenerator replaces the random order code source.
func WithCodeGenerator(codes ports.CodeGenerator) Option {
	return func(s *Service) {
		if codes != nil {
			s.codes = codes
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the checkout service with its collaborators.
func NewService(store ports.Store, payments ports.PaymentProvider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		payments: payments,
		codes:    ports.CodeGeneratorFunc(domain.NewOrderCode),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GetOrder returns one of the owner's orders by code.
func (s *Service) GetOrder(ctx context.Context, lookup storetypes.OrderLookup) (*domain.Order, error) {
	if strings.TrimSpace(lookup.OwnerID) == "" {
		return nil, mapError(domain.ErrMissingOwner)
	}
	order, err := s.store.GetOrderByCode(ctx, lookup.Code)
	if err != nil {
		return nil, mapError(err)
	}
	if order.OwnerID != lookup.OwnerID {
		return nil, mapError(domain.ErrOrderNotFound)
	}
	return order, nil
}

// ListOrders returns the owner's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, mapError(domain.ErrMissingOwner)
	}
	orders, err := s.store.ListOrdersByOwner(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// ExpirePendingOrders cancels pending orders created before the cutoff.
// Stock is never reserved for pending orders, so there is nothing to release.
func (s *Service) ExpirePendingOrders(ctx context.Context, input storetypes.ExpireInput) (int, error) {
	if input.Before.IsZero() {
		return 0, fmt.Errorf("%w: expiry cutoff is required", ErrValidation)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultExpireBatch
	}
	expired := 0
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		expired = 0
		orders, err := tx.PendingOrdersBefore(ctx, input.Before, limit)
		if err != nil {
			return err
		}
		events := make([]domain.Event, 0, len(orders))
		for _, order := range orders {
			ok, err := tx.TransitionStatus(ctx, order.ID, domain.StatusPendingPayment, domain.StatusCancelled)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			expired++
			events = append(events, domain.OrderExpired{
				BaseEvent: domain.BaseEvent{Timestamp: s.now().UTC()},
				OrderCode: order.Code,
			})
		}
		return tx.AppendEvents(ctx, events...)
	})
	if err != nil {
		return 0, mapError(err)
	}
	return expired, nil
}

var _ ports.Service = (*Service)(nil)
