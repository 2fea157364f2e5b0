package application

import (
	"context"
	"errors"
	"strings"

	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

// Cart returns the owner's cart lines with totals.
func (s *Service) Cart(ctx context.Context, ownerID string) (*storetypes.CartView, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, mapError(domain.ErrMissingOwner)
	}
	lines, err := s.store.CartLines(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	subtotal, shipping, total := domain.Totals(lines)
	return &storetypes.CartView{
		OwnerID:  ownerID,
		Lines:    lines,
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    total,
	}, nil
}

// AddCartItem adds quantity of a product to the owner's cart.
func (s *Service) AddCartItem(ctx context.Context, input storetypes.CartItemInput) (*domain.CartItem, error) {
	if err := validateCartItem(input, false); err != nil {
		return nil, mapError(err)
	}
	if _, err := s.store.GetProduct(ctx, input.ProductID); err != nil {
		return nil, mapError(err)
	}
	item, err := s.store.AddCartItem(ctx, domain.CartItem{
		OwnerID:   input.OwnerID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return item, nil
}

// SetCartItemQuantity overwrites a line's quantity; zero removes the line.
func (s *Service) SetCartItemQuantity(ctx context.Context, input storetypes.CartItemInput) error {
	if err := validateCartItem(input, true); err != nil {
		return mapError(err)
	}
	if input.Quantity == 0 {
		return s.RemoveCartItem(ctx, input.OwnerID, input.ProductID)
	}
	_, err := s.store.SetCartItem(ctx, domain.CartItem{
		OwnerID:   input.OwnerID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	})
	return mapError(err)
}

// RemoveCartItem deletes a line from the owner's cart; removing a missing line is a no-op.
func (s *Service) RemoveCartItem(ctx context.Context, ownerID string, productID int64) error {
	if strings.TrimSpace(ownerID) == "" {
		return mapError(domain.ErrMissingOwner)
	}
	if productID <= 0 {
		return mapError(domain.ErrInvalidProduct)
	}
	err := s.store.DeleteCartItem(ctx, ownerID, productID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	return mapError(err)
}

func validateCartItem(input storetypes.CartItemInput, allowZero bool) error {
	if strings.TrimSpace(input.OwnerID) == "" {
		return domain.ErrMissingOwner
	}
	if input.ProductID <= 0 {
		return domain.ErrInvalidProduct
	}
	if input.Quantity < 0 || (input.Quantity == 0 && !allowZero) {
		return domain.ErrInvalidQuantity
	}
	return nil
}
