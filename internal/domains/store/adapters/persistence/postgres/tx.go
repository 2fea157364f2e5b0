package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
)

const createOrderSavepoint = "create_order"

type tx struct {
	db    *gorm.DB
	topic string
	now   func() time.Time
}

func (t *tx) CartLines(_ context.Context, ownerID string) ([]domain.CartLine, error) {
	return cartLines(t.db, ownerID)
}

// ReserveStock is a single conditional decrement; the row is untouched when stock is short.
func (t *tx) ReserveStock(_ context.Context, productID int64, qty int32) (bool, error) {
	result := t.db.Model(&productRecord{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": t.now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (t *tx) ClearCart(_ context.Context, ownerID string) (int64, error) {
	result := t.db.Delete(&cartItemRecord{}, "owner_id = ?", ownerID)
	return result.RowsAffected, result.Error
}

// CreateOrder inserts the order under a savepoint so a code collision can be
// retried inside the same transaction.
func (t *tx) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if order.Code == "" {
		return nil, errors.New("order code is required")
	}
	record := toOrderRecord(order)
	record.ID = 0
	now := t.now().UTC()
	record.CreatedAt, record.UpdatedAt = now, now

	if err := t.db.SavePoint(createOrderSavepoint).Error; err != nil {
		return nil, err
	}
	if err := t.db.Create(&record).Error; err != nil {
		if rbErr := t.db.RollbackTo(createOrderSavepoint).Error; rbErr != nil {
			return nil, fmt.Errorf("rollback to savepoint: %w", rbErr)
		}
		switch violatedConstraint(err) {
		case constraintOrderCode:
			return nil, ports.ErrOrderCodeTaken
		case constraintPaymentSession:
			return nil, ports.ErrSessionTaken
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (t *tx) OrderBySession(_ context.Context, sessionID string) (*domain.Order, error) {
	if sessionID == "" {
		return nil, ports.ErrNotFound
	}
	return findOrder(t.db, "payment_session_id = ?", sessionID)
}

func (t *tx) OrderByID(_ context.Context, id int64) (*domain.Order, error) {
	return findOrder(t.db, "id = ?", id)
}

func (t *tx) TransitionStatus(_ context.Context, orderID int64, from, to domain.Status) (bool, error) {
	result := t.db.Model(&orderRecord{}).
		Where("id = ? AND status = ?", orderID, string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": t.now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClaimRefund is a conditional update; a second claim for the same order affects no row.
func (t *tx) ClaimRefund(_ context.Context, orderID int64, claim string) (bool, error) {
	result := t.db.Model(&orderRecord{}).
		Where("id = ? AND refund_id IS NULL", orderID).
		Updates(map[string]any{
			"refund_id":  claim,
			"updated_at": t.now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (t *tx) RecordRefund(_ context.Context, orderID int64, refundID string) error {
	result := t.db.Model(&orderRecord{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"refund_id":  refundID,
			"updated_at": t.now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// PendingOrdersBefore locks stale pending orders, skipping rows another reaper holds.
func (t *tx) PendingOrdersBefore(_ context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	query := t.db.
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND created_at < ?", string(domain.StatusPendingPayment), cutoff).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []orderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (t *tx) AppendEvents(_ context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]outboxRecord, 0, len(events))
	for _, event := range events {
		rec, err := outbox.NewRecord(t.topic, event)
		if err != nil {
			return fmt.Errorf("encode %s: %w", event.EventName(), err)
		}
		records = append(records, toOutboxRecord(rec))
	}
	return t.db.Create(&records).Error
}
