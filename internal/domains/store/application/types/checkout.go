package types

import "github.com/Apurer/go-gin-storefront/internal/domains/store/domain"

// CheckoutInput starts either checkout flow for the owner's cart.
type CheckoutInput struct {
	OwnerID  string
	Shipping domain.ShippingInfo
}

// DeferredCheckout is returned when the buyer must complete payment with the provider.
type DeferredCheckout struct {
	Order       *domain.Order
	SessionID   string
	RedirectURL string
}

// CartItemInput adds or updates one cart line.
type CartItemInput struct {
	OwnerID   string
	ProductID int64
	Quantity  int32
}

// CartView is the owner's cart with computed totals.
type CartView struct {
	OwnerID  string
	Lines    []domain.CartLine
	Subtotal int64
	Shipping int64
	Total    int64
}

// OrderLookup identifies an order on behalf of its owner.
type OrderLookup struct {
	OwnerID string
	Code    string
}
