package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
)

var (
	_ ports.Store   = (*Store)(nil)
	_ ports.Tx      = (*tx)(nil)
	_ outbox.Source = (*Store)(nil)
)

// Store is an in-memory persistence adapter for development and tests.
// Transactions are serialised and work on a copy of the state that replaces
// the committed state only when the callback succeeds.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
	topic string
}

type cartKey struct {
	owner     string
	productID int64
}

type cartEntry struct {
	item domain.CartItem
	seq  int64
}

type state struct {
	products  map[int64]domain.Product
	cart      map[cartKey]cartEntry
	orders    map[int64]*domain.Order
	bySession map[string]int64
	byCode    map[string]int64
	outbox    []outbox.Record

	nextProductID int64
	nextOrderID   int64
	nextCartSeq   int64
	nextOutboxID  int64
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		state: &state{
			products:  map[int64]domain.Product{},
			cart:      map[cartKey]cartEntry{},
			orders:    map[int64]*domain.Order{},
			bySession: map[string]int64{},
			byCode:    map[string]int64{},
		},
		now:   time.Now,
		topic: outbox.DefaultTopic,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *Store) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithOutboxTopic sets the topic stamped on recorded events.
func (s *Store) WithOutboxTopic(topic string) {
	if topic != "" {
		s.topic = topic
	}
}

// WithinTx runs fn against a private copy of the state and commits it on success.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	working := s.state.clone()
	if err := fn(ctx, &tx{state: working, now: s.now, topic: s.topic}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = working
	return nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.state.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &product, nil
}

// UpsertProduct creates the product (assigning an id when zero) or replaces it.
func (s *Store) UpsertProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if product.ID == 0 {
		s.state.nextProductID++
		product.ID = s.state.nextProductID
	} else if product.ID > s.state.nextProductID {
		s.state.nextProductID = product.ID
	}
	s.state.products[product.ID] = product
	return &product, nil
}

func (s *Store) CartLines(_ context.Context, ownerID string) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.cartLines(ownerID), nil
}

func (s *Store) AddCartItem(_ context.Context, item domain.CartItem) (*domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cartKey{owner: item.OwnerID, productID: item.ProductID}
	entry, ok := s.state.cart[key]
	if ok {
		entry.item.Quantity += item.Quantity
	} else {
		s.state.nextCartSeq++
		entry = cartEntry{item: item, seq: s.state.nextCartSeq}
	}
	s.state.cart[key] = entry
	saved := entry.item
	return &saved, nil
}

func (s *Store) SetCartItem(_ context.Context, item domain.CartItem) (*domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cartKey{owner: item.OwnerID, productID: item.ProductID}
	entry, ok := s.state.cart[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	entry.item.Quantity = item.Quantity
	s.state.cart[key] = entry
	saved := entry.item
	return &saved, nil
}

func (s *Store) DeleteCartItem(_ context.Context, ownerID string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cartKey{owner: ownerID, productID: productID}
	if _, ok := s.state.cart[key]; !ok {
		return ports.ErrNotFound
	}
	delete(s.state.cart, key)
	return nil
}

func (s *Store) GetOrderByCode(_ context.Context, code string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.state.byCode[code]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return s.state.orders[id].Clone(), nil
}

func (s *Store) GetOrderBySession(_ context.Context, sessionID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.orderBySession(sessionID)
}

func (s *Store) ListOrdersByOwner(_ context.Context, ownerID string) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*domain.Order
	for _, order := range s.state.orders {
		if order.OwnerID == ownerID {
			list = append(list, order.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

// FetchPending returns unsent outbox records in insertion order.
func (s *Store) FetchPending(_ context.Context, limit int) ([]outbox.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []outbox.Record
	for _, rec := range s.state.outbox {
		if rec.SentAt != nil {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkSent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.outbox {
		if s.state.outbox[i].ID == id {
			sentAt := s.now().UTC()
			s.state.outbox[i].SentAt = &sentAt
			return nil
		}
	}
	return ports.ErrNotFound
}

// Events returns the type of every outbox record written so far.
func (s *Store) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, 0, len(s.state.outbox))
	for _, rec := range s.state.outbox {
		types = append(types, rec.Type)
	}
	return types
}

func (st *state) clone() *state {
	c := &state{
		products:      make(map[int64]domain.Product, len(st.products)),
		cart:          make(map[cartKey]cartEntry, len(st.cart)),
		orders:        make(map[int64]*domain.Order, len(st.orders)),
		bySession:     make(map[string]int64, len(st.bySession)),
		byCode:        make(map[string]int64, len(st.byCode)),
		outbox:        append([]outbox.Record(nil), st.outbox...),
		nextProductID: st.nextProductID,
		nextOrderID:   st.nextOrderID,
		nextCartSeq:   st.nextCartSeq,
		nextOutboxID:  st.nextOutboxID,
	}
	for id, product := range st.products {
		c.products[id] = product
	}
	for key, entry := range st.cart {
		c.cart[key] = entry
	}
	for id, order := range st.orders {
		c.orders[id] = order.Clone()
	}
	for session, id := range st.bySession {
		c.bySession[session] = id
	}
	for code, id := range st.byCode {
		c.byCode[code] = id
	}
	return c
}

func (st *state) cartLines(ownerID string) []domain.CartLine {
	entries := make([]cartEntry, 0)
	for key, entry := range st.cart {
		if key.owner == ownerID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	lines := make([]domain.CartLine, 0, len(entries))
	for _, entry := range entries {
		product, ok := st.products[entry.item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, domain.CartLine{Product: product, Quantity: entry.item.Quantity})
	}
	return lines
}

func (st *state) orderBySession(sessionID string) (*domain.Order, error) {
	id, ok := st.bySession[sessionID]
	if !ok || sessionID == "" {
		return nil, ports.ErrNotFound
	}
	return st.orders[id].Clone(), nil
}
