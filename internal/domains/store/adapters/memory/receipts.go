package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

var _ ports.ReceiptStore = (*ReceiptStore)(nil)

// ReceiptStore keeps webhook event ids in memory for ttl.
type ReceiptStore struct {
	mu       sync.RWMutex
	received map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewReceiptStore constructs an empty store; ttl <= 0 keeps receipts forever.
func NewReceiptStore(ttl time.Duration) *ReceiptStore {
	return &ReceiptStore{
		received: map[string]time.Time{},
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *ReceiptStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *ReceiptStore) Seen(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.received[eventID]
	if !ok {
		return false, nil
	}
	if s.ttl > 0 && s.now().Sub(at) > s.ttl {
		return false, nil
	}
	return true, nil
}

func (s *ReceiptStore) Remember(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received[eventID] = s.now()
	return nil
}
