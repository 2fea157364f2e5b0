package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
)

var (
	_ ports.Store   = (*Store)(nil)
	_ outbox.Source = (*Store)(nil)
)

const uniqueViolation = "23505"

// Store persists the checkout aggregates in PostgreSQL using GORM.
// Schema is owned by platform/migrations.
type Store struct {
	db    *gorm.DB
	topic string
	now   func() time.Time
}

// Option customises the store.
type Option func(*Store)

// WithOutboxTopic sets the topic recorded on outbox rows.
func WithOutboxTopic(topic string) Option {
	return func(s *Store) {
		if topic != "" {
			s.topic = topic
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore wires a PostgreSQL-backed store. Caller manages DB lifecycle.
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, topic: outbox.DefaultTopic, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// WithinTx runs fn inside a database transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, &tx{db: db, topic: s.topic, now: s.now})
	})
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	product := record.toDomain()
	return &product, nil
}

// UpsertProduct inserts the product, or replaces name, price and stock when the id exists.
func (s *Store) UpsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	record := toProductRecord(product)
	now := s.now().UTC()
	record.CreatedAt, record.UpdatedAt = now, now
	query := s.db.WithContext(ctx)
	if record.ID != 0 {
		query = query.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "price", "stock", "updated_at"}),
		})
	}
	if err := query.Create(&record).Error; err != nil {
		return nil, err
	}
	saved := record.toDomain()
	return &saved, nil
}

func (s *Store) CartLines(ctx context.Context, ownerID string) ([]domain.CartLine, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	return cartLines(s.db.WithContext(ctx), ownerID)
}

func (s *Store) AddCartItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	record := cartItemRecord{
		OwnerID:   item.OwnerID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
				"updated_at": now,
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return s.cartItem(ctx, item.OwnerID, item.ProductID)
}

func (s *Store) SetCartItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	result := s.db.WithContext(ctx).
		Model(&cartItemRecord{}).
		Where("owner_id = ? AND product_id = ?", item.OwnerID, item.ProductID).
		Updates(map[string]any{"quantity": item.Quantity, "updated_at": s.now().UTC()})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return &domain.CartItem{OwnerID: item.OwnerID, ProductID: item.ProductID, Quantity: item.Quantity}, nil
}

func (s *Store) DeleteCartItem(ctx context.Context, ownerID string, productID int64) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Delete(&cartItemRecord{}, "owner_id = ? AND product_id = ?", ownerID, productID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) GetOrderByCode(ctx context.Context, code string) (*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	return findOrder(s.db.WithContext(ctx), "order_code = ?", code)
}

func (s *Store) GetOrderBySession(ctx context.Context, sessionID string) (*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, ports.ErrNotFound
	}
	return findOrder(s.db.WithContext(ctx), "payment_session_id = ?", sessionID)
}

// ListOrdersByOwner returns the owner's orders, newest first.
func (s *Store) ListOrdersByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := s.db.WithContext(ctx).
		Preload("Lines", orderLinesByID).
		Where("owner_id = ?", ownerID).
		Order("id DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

// FetchPending returns unsent outbox rows in insertion order.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]outbox.Record, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Where("sent_at IS NULL").Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []outboxRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]outbox.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toOutbox())
	}
	return out, nil
}

func (s *Store) MarkSent(ctx context.Context, id int64) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(&outboxRecord{}).
		Where("id = ?", id).
		Update("sent_at", s.now().UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) cartItem(ctx context.Context, ownerID string, productID int64) (*domain.CartItem, error) {
	var record cartItemRecord
	if err := s.db.WithContext(ctx).First(&record, "owner_id = ? AND product_id = ?", ownerID, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &domain.CartItem{OwnerID: record.OwnerID, ProductID: record.ProductID, Quantity: record.Quantity}, nil
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres checkout store not configured")
	}
	return nil
}

// cartLines joins the owner's cart with current product rows, oldest line first.
func cartLines(db *gorm.DB, ownerID string) ([]domain.CartLine, error) {
	var items []cartItemRecord
	if err := db.Where("owner_id = ?", ownerID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []domain.CartLine{}, nil
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	var products []productRecord
	if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]productRecord, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, domain.CartLine{Product: product.toDomain(), Quantity: item.Quantity})
	}
	return lines, nil
}

func findOrder(db *gorm.DB, query string, args ...any) (*domain.Order, error) {
	var record orderRecord
	if err := db.Preload("Lines", orderLinesByID).Where(query, args...).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func orderLinesByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// violatedConstraint returns the constraint behind a unique violation, or "".
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}
