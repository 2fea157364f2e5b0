package domain

import (
	"errors"
	"strings"
	"time"
)

// Status enumerates order progression.
type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPlaced         Status = "PLACED"
	StatusFulfilled      Status = "FULFILLED"
	StatusCancelled      Status = "CANCELLED"
)

var (
	ErrInvalidStatus      = errors.New("order status is invalid")
	ErrInvalidShipping    = errors.New("shipping details are incomplete")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderCodeExhausted = errors.New("unable to allocate order code")
	ErrMissingOwner       = errors.New("owner id is required")
	ErrMissingSession     = errors.New("payment session id is required")
)

// IsFinal reports whether finalization has nothing left to do for the status.
func (s Status) IsFinal() bool {
	switch s {
	case StatusPlaced, StatusFulfilled, StatusCancelled:
		return true
	default:
		return false
	}
}

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	return s == StatusPendingPayment || s.IsFinal()
}

// ShippingInfo is the delivery snapshot captured at order creation.
type ShippingInfo struct {
	FullName string
	Email    string
	Address  string
	City     string
	Zip      string
	Country  string
}

// Validate checks that every delivery field is present.
func (s ShippingInfo) Validate() error {
	for _, field := range []string{s.FullName, s.Email, s.Address, s.City, s.Zip, s.Country} {
		if strings.TrimSpace(field) == "" {
			return ErrInvalidShipping
		}
	}
	if !strings.Contains(s.Email, "@") {
		return ErrInvalidShipping
	}
	return nil
}

// OrderLine snapshots a product at the moment the order was created.
type OrderLine struct {
	ProductID   int64
	ProductName string
	UnitPrice   int64
	Quantity    int32
}

// LineTotal is UnitPrice multiplied by Quantity.
func (l OrderLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Order models the purchase aggregate.
type Order struct {
	ID               int64
	OwnerID          string
	Code             string
	Status           Status
	Subtotal         int64
	Shipping         int64
	Total            int64
	ShippingInfo     ShippingInfo
	PaymentSessionID string
	// RefundID is set once a compensating refund has been claimed for the order.
	RefundID  string
	Lines     []OrderLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder snapshots the cart lines into an order in the given initial status.
// The order code is assigned by the store when the order is inserted.
func NewOrder(ownerID string, status Status, lines []CartLine, shipping ShippingInfo) (*Order, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	if status != StatusPendingPayment && status != StatusPlaced {
		return nil, ErrInvalidStatus
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if err := shipping.Validate(); err != nil {
		return nil, err
	}
	order := &Order{
		OwnerID:      ownerID,
		Status:       status,
		ShippingInfo: shipping,
		Lines:        make([]OrderLine, 0, len(lines)),
	}
	for _, line := range lines {
		order.Lines = append(order.Lines, OrderLine{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			UnitPrice:   line.Product.Price,
			Quantity:    line.Quantity,
		})
	}
	order.Subtotal, order.Shipping, order.Total = Totals(lines)
	return order, nil
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = append([]OrderLine(nil), o.Lines...)
	return &clone
}

// Quantities aggregates the ordered quantity per product.
func (o *Order) Quantities() map[int64]int32 {
	result := make(map[int64]int32, len(o.Lines))
	for _, line := range o.Lines {
		result[line.ProductID] += line.Quantity
	}
	return result
}

// Consistent reports whether the stored totals match the snapshotted lines.
func (o *Order) Consistent() bool {
	var subtotal int64
	for _, line := range o.Lines {
		subtotal += line.LineTotal()
	}
	return subtotal == o.Subtotal &&
		o.Shipping == ShippingFor(o.Subtotal) &&
		o.Total == o.Subtotal+o.Shipping
}
