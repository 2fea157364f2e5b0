package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

var _ ports.ReceiptStore = (*ReceiptStore)(nil)

// ReceiptStore persists processed webhook event ids in PostgreSQL.
type ReceiptStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewReceiptStore wires a PostgreSQL-backed receipt store; ttl <= 0 keeps receipts forever.
func NewReceiptStore(db *gorm.DB, ttl time.Duration) *ReceiptStore {
	return &ReceiptStore{db: db, ttl: ttl}
}

func (s *ReceiptStore) Seen(ctx context.Context, eventID string) (bool, error) {
	if err := s.ensureDB(); err != nil {
		return false, err
	}
	query := s.db.WithContext(ctx).Where("event_id = ?", eventID)
	if s.ttl > 0 {
		query = query.Where("received_at > ?", time.Now().UTC().Add(-s.ttl))
	}
	var record receiptRecord
	if err := query.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *ReceiptStore) Remember(ctx context.Context, eventID string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := receiptRecord{EventID: eventID, ReceivedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"received_at"}),
		}).Create(&record).Error
}

// Purge deletes receipts older than the ttl.
func (s *ReceiptStore) Purge(ctx context.Context) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	if s.ttl <= 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Delete(&receiptRecord{}, "received_at < ?", time.Now().UTC().Add(-s.ttl))
	return result.RowsAffected, result.Error
}

func (s *ReceiptStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres receipt store not configured")
	}
	return nil
}
