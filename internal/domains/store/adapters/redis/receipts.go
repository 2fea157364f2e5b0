// Package redis keeps webhook receipts in Redis so every API replica shares them.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

var _ ports.ReceiptStore = (*ReceiptStore)(nil)

const defaultReceiptTTL = 72 * time.Hour

// ReceiptStore records processed webhook event ids as expiring keys.
type ReceiptStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewReceiptStore wires the store; ttl <= 0 falls back to three days.
func NewReceiptStore(client *goredis.Client, ttl time.Duration) *ReceiptStore {
	if ttl <= 0 {
		ttl = defaultReceiptTTL
	}
	return &ReceiptStore{client: client, ttl: ttl}
}

func receiptKey(eventID string) string {
	return "storefront:webhook:receipt:" + eventID
}

func (s *ReceiptStore) Seen(ctx context.Context, eventID string) (bool, error) {
	if err := s.ensureClient(); err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, receiptKey(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *ReceiptStore) Remember(ctx context.Context, eventID string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	return s.client.Set(ctx, receiptKey(eventID), time.Now().UTC().Format(time.RFC3339), s.ttl).Err()
}

func (s *ReceiptStore) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("redis receipt store not configured")
	}
	return nil
}
