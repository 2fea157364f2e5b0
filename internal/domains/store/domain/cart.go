package domain

import "errors"

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrInvalidProduct  = errors.New("product id must be greater than zero")
)

// CartItem is a persisted cart row; (OwnerID, ProductID) is unique.
type CartItem struct {
	OwnerID   string
	ProductID int64
	Quantity  int32
}

// CartLine joins a cart item with the product it refers to.
type CartLine struct {
	Product  Product
	Quantity int32
}

// LineTotal is the product price multiplied by the quantity.
func (l CartLine) LineTotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// CheckStock fails with a StockError naming the first line the stock cannot cover.
func CheckStock(lines []CartLine) error {
	for _, line := range lines {
		if line.Quantity > line.Product.Stock {
			return &StockError{
				ProductID:   line.Product.ID,
				ProductName: line.Product.Name,
				Requested:   line.Quantity,
				Available:   line.Product.Stock,
			}
		}
	}
	return nil
}

// Totals returns subtotal, shipping and total for the lines.
func Totals(lines []CartLine) (subtotal, shipping, total int64) {
	for _, line := range lines {
		subtotal += line.LineTotal()
	}
	shipping = ShippingFor(subtotal)
	return subtotal, shipping, subtotal + shipping
}
