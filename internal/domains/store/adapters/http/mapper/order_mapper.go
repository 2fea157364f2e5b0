package mapper

import (
	"strings"
	"time"

	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	storedomain "github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
)

// Shipping is the delivery address accepted and returned by the API.
type Shipping struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Address  string `json:"address" binding:"required"`
	City     string `json:"city" binding:"required"`
	Zip      string `json:"zip" binding:"required"`
	Country  string `json:"country" binding:"required"`
}

// CheckoutRequest is the body of both checkout endpoints.
type CheckoutRequest struct {
	Shipping Shipping `json:"shipping"`
}

// CartItemRequest adds a product to the cart.
type CartItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int32 `json:"quantity" binding:"required"`
}

// CartQuantityRequest overwrites a line's quantity; zero removes it.
type CartQuantityRequest struct {
	Quantity *int32 `json:"quantity" binding:"required"`
}

type CartLine struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int32  `json:"quantity"`
	LineTotal   int64  `json:"lineTotal"`
	InStock     bool   `json:"inStock"`
}

type Cart struct {
	Lines    []CartLine `json:"lines"`
	Subtotal int64      `json:"subtotal"`
	Shipping int64      `json:"shipping"`
	Total    int64      `json:"total"`
}

type OrderLine struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int32  `json:"quantity"`
	LineTotal   int64  `json:"lineTotal"`
}

// Order is the public view of an order. Internal ids never leave the service.
type Order struct {
	Code      string      `json:"orderCode"`
	Status    string      `json:"status"`
	Subtotal  int64       `json:"subtotal"`
	Shipping  int64       `json:"shipping"`
	Total     int64       `json:"total"`
	Delivery  Shipping    `json:"delivery"`
	Lines     []OrderLine `json:"lines"`
	CreatedAt time.Time   `json:"createdAt"`
}

// CheckoutSession is returned when the buyer must pay at the provider.
type CheckoutSession struct {
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"redirectUrl"`
	Order       Order  `json:"order"`
}

// ToShippingInfo trims and converts the request address.
func ToShippingInfo(s Shipping) storedomain.ShippingInfo {
	return storedomain.ShippingInfo{
		FullName: strings.TrimSpace(s.FullName),
		Email:    strings.TrimSpace(s.Email),
		Address:  strings.TrimSpace(s.Address),
		City:     strings.TrimSpace(s.City),
		Zip:      strings.TrimSpace(s.Zip),
		Country:  strings.TrimSpace(s.Country),
	}
}

func FromShippingInfo(s storedomain.ShippingInfo) Shipping {
	return Shipping{
		FullName: s.FullName,
		Email:    s.Email,
		Address:  s.Address,
		City:     s.City,
		Zip:      s.Zip,
		Country:  s.Country,
	}
}

// FromCartView converts the cart with its computed totals.
func FromCartView(view *storetypes.CartView) Cart {
	cart := Cart{Lines: []CartLine{}}
	if view == nil {
		return cart
	}
	for _, line := range view.Lines {
		cart.Lines = append(cart.Lines, CartLine{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			UnitPrice:   line.Product.Price,
			Quantity:    line.Quantity,
			LineTotal:   line.LineTotal(),
			InStock:     line.Quantity <= line.Product.Stock,
		})
	}
	cart.Subtotal, cart.Shipping, cart.Total = view.Subtotal, view.Shipping, view.Total
	return cart
}

// FromDomainOrder converts a domain order to its public representation.
func FromDomainOrder(order *storedomain.Order) Order {
	if order == nil {
		return Order{Lines: []OrderLine{}}
	}
	out := Order{
		Code:      order.Code,
		Status:    string(order.Status),
		Subtotal:  order.Subtotal,
		Shipping:  order.Shipping,
		Total:     order.Total,
		Delivery:  FromShippingInfo(order.ShippingInfo),
		Lines:     make([]OrderLine, 0, len(order.Lines)),
		CreatedAt: order.CreatedAt,
	}
	for _, line := range order.Lines {
		out.Lines = append(out.Lines, OrderLine{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.LineTotal(),
		})
	}
	return out
}

func FromDomainOrders(orders []*storedomain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return out
}

func FromDeferredCheckout(deferred *storetypes.DeferredCheckout) CheckoutSession {
	if deferred == nil {
		return CheckoutSession{Order: FromDomainOrder(nil)}
	}
	return CheckoutSession{
		SessionID:   deferred.SessionID,
		RedirectURL: deferred.RedirectURL,
		Order:       FromDomainOrder(deferred.Order),
	}
}
