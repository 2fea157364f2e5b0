package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
)

type tx struct {
	state *state
	now   func() time.Time
	topic string
}

func (t *tx) CartLines(_ context.Context, ownerID string) ([]domain.CartLine, error) {
	return t.state.cartLines(ownerID), nil
}

func (t *tx) ReserveStock(_ context.Context, productID int64, qty int32) (bool, error) {
	product, ok := t.state.products[productID]
	if !ok || qty <= 0 || product.Stock < qty {
		return false, nil
	}
	product.Stock -= qty
	t.state.products[productID] = product
	return true, nil
}

func (t *tx) ClearCart(_ context.Context, ownerID string) (int64, error) {
	var removed int64
	for key := range t.state.cart {
		if key.owner == ownerID {
			delete(t.state.cart, key)
			removed++
		}
	}
	return removed, nil
}

func (t *tx) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if order.Code == "" {
		return nil, errors.New("order code is required")
	}
	if _, taken := t.state.byCode[order.Code]; taken {
		return nil, ports.ErrOrderCodeTaken
	}
	if order.PaymentSessionID != "" {
		if _, taken := t.state.bySession[order.PaymentSessionID]; taken {
			return nil, ports.ErrSessionTaken
		}
	}
	clone := order.Clone()
	t.state.nextOrderID++
	clone.ID = t.state.nextOrderID
	now := t.now().UTC()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	t.state.orders[clone.ID] = clone
	t.state.byCode[clone.Code] = clone.ID
	if clone.PaymentSessionID != "" {
		t.state.bySession[clone.PaymentSessionID] = clone.ID
	}
	return clone.Clone(), nil
}

func (t *tx) OrderBySession(_ context.Context, sessionID string) (*domain.Order, error) {
	return t.state.orderBySession(sessionID)
}

func (t *tx) OrderByID(_ context.Context, id int64) (*domain.Order, error) {
	order, ok := t.state.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (t *tx) TransitionStatus(_ context.Context, orderID int64, from, to domain.Status) (bool, error) {
	order, ok := t.state.orders[orderID]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = t.now().UTC()
	return true, nil
}

func (t *tx) ClaimRefund(_ context.Context, orderID int64, claim string) (bool, error) {
	order, ok := t.state.orders[orderID]
	if !ok || order.RefundID != "" {
		return false, nil
	}
	order.RefundID = claim
	order.UpdatedAt = t.now().UTC()
	return true, nil
}

func (t *tx) RecordRefund(_ context.Context, orderID int64, refundID string) error {
	order, ok := t.state.orders[orderID]
	if !ok {
		return ports.ErrNotFound
	}
	order.RefundID = refundID
	order.UpdatedAt = t.now().UTC()
	return nil
}

func (t *tx) PendingOrdersBefore(_ context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	var list []*domain.Order
	for _, order := range t.state.orders {
		if order.Status == domain.StatusPendingPayment && order.CreatedAt.Before(cutoff) {
			list = append(list, order.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (t *tx) AppendEvents(_ context.Context, events ...domain.Event) error {
	for _, event := range events {
		rec, err := outbox.NewRecord(t.topic, event)
		if err != nil {
			return err
		}
		t.state.nextOutboxID++
		rec.ID = t.state.nextOutboxID
		t.state.outbox = append(t.state.outbox, rec)
	}
	return nil
}
