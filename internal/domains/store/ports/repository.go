package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
)

var (
	// ErrNotFound is returned when a product, cart item or order does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOrderCodeTaken signals a uniqueness violation on the order code only.
	ErrOrderCodeTaken = errors.New("order code already in use")
	// ErrSessionTaken signals a second order for an already bound payment session.
	ErrSessionTaken = errors.New("payment session already bound to an order")
)

// Store persists products, carts and orders and opens transactions over them.
type Store interface {
	// WithinTx runs fn in a single transaction; any error rolls every write back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error)

	CartLines(ctx context.Context, ownerID string) ([]domain.CartLine, error)
	// AddCartItem increments the quantity of an existing line or creates it.
	AddCartItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error)
	// SetCartItem overwrites the quantity; ErrNotFound when the line does not exist.
	SetCartItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error)
	DeleteCartItem(ctx context.Context, ownerID string, productID int64) error

	GetOrderByCode(ctx context.Context, code string) (*domain.Order, error)
	GetOrderBySession(ctx context.Context, sessionID string) (*domain.Order, error)
	ListOrdersByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error)
}

// Tx is the set of operations that must share one transaction.
type Tx interface {
	CartLines(ctx context.Context, ownerID string) ([]domain.CartLine, error)
	// ReserveStock decrements stock only when stock >= qty and reports whether it did.
	ReserveStock(ctx context.Context, productID int64, qty int32) (bool, error)
	ClearCart(ctx context.Context, ownerID string) (int64, error)

	// CreateOrder inserts the order and its lines using order.Code.
	// It returns ErrOrderCodeTaken when only the code collided, leaving the transaction usable.
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	OrderBySession(ctx context.Context, sessionID string) (*domain.Order, error)
	OrderByID(ctx context.Context, id int64) (*domain.Order, error)
	// TransitionStatus moves the order from -> to only if it is still in from.
	TransitionStatus(ctx context.Context, orderID int64, from, to domain.Status) (bool, error)
	// ClaimRefund stores claim as the order's refund reference only if none is
	// set yet and reports whether it did.
	ClaimRefund(ctx context.Context, orderID int64, claim string) (bool, error)
	// RecordRefund replaces a claimed refund reference with the provider refund id.
	RecordRefund(ctx context.Context, orderID int64, refundID string) error
	PendingOrdersBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Order, error)

	AppendEvents(ctx context.Context, events ...domain.Event) error
}

// CodeGenerator produces candidate order codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// CodeGeneratorFunc adapts a function to CodeGenerator.
type CodeGeneratorFunc func() (string, error)

// Generate calls f.
func (f CodeGeneratorFunc) Generate() (string, error) { return f() }
