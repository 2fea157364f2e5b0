package ports

import (
	"context"

	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
)

// Service exposes checkout use cases to adapters.
type Service interface {
	Cart(ctx context.Context, ownerID string) (*storetypes.CartView, error)
	AddCartItem(ctx context.Context, input storetypes.CartItemInput) (*domain.CartItem, error)
	SetCartItemQuantity(ctx context.Context, input storetypes.CartItemInput) error
	RemoveCartItem(ctx context.Context, ownerID string, productID int64) error

	CheckoutImmediate(ctx context.Context, input storetypes.CheckoutInput) (*domain.Order, error)
	BeginDeferredCheckout(ctx context.Context, input storetypes.CheckoutInput) (*storetypes.DeferredCheckout, error)
	ConfirmCheckout(ctx context.Context, input storetypes.FinalizeInput) (*domain.Order, error)

	Finalize(ctx context.Context, input storetypes.FinalizeInput) (*domain.Order, error)
	FinalizeClaim(ctx context.Context, input storetypes.FinalizeInput) (*storetypes.FinalizeResult, error)
	Compensate(ctx context.Context, input storetypes.CompensateInput) (*storetypes.CompensationResult, error)
	SettlePayment(ctx context.Context, input storetypes.SettlementInput) (*storetypes.SettlementResult, error)

	GetOrder(ctx context.Context, lookup storetypes.OrderLookup) (*domain.Order, error)
	ListOrders(ctx context.Context, ownerID string) ([]*domain.Order, error)
	ExpirePendingOrders(ctx context.Context, input storetypes.ExpireInput) (int, error)
}
