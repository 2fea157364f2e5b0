package domain

import (
	"errors"
	"fmt"
)

// ErrOutOfStock is matched by every StockError.
var ErrOutOfStock = errors.New("insufficient stock")

// Product is the catalog row checkout reads and the stock ledger mutates.
type Product struct {
	ID    int64
	Name  string
	Price int64
	Stock int32
}

// StockError names the product whose stock could not cover a request.
type StockError struct {
	ProductID   int64
	ProductName string
	Requested   int32
	Available   int32
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: %s", ErrOutOfStock.Error(), e.ProductName)
}

// Is lets errors.Is(err, ErrOutOfStock) match.
func (e *StockError) Is(target error) bool {
	return target == ErrOutOfStock
}
