package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
)

func TestCheckoutImmediate_PlacesOrderWithFreeShipping(t *testing.T) {
	f := newFixture(t)
	chair := f.product(t, "Chair", 300, 5)
	f.addToCart(t, "owner-1", chair.ID, 1)

	order, err := f.svc.CheckoutImmediate(f.ctx, checkoutInput("owner-1"))
	require.NoError(t, err)
	require.Equal(t, domain.StatusPlaced, order.Status)
	require.Equal(t, int64(300), order.Subtotal)
	require.Equal(t, int64(0), order.Shipping)
	require.Equal(t, int64(300), order.Total)
	require.Regexp(t, `^ORD-[0-9A-F]{12}$`, order.Code)
	require.Len(t, order.Lines, 1)
	require.Equal(t, "Chair", order.Lines[0].ProductName)
	require.Equal(t, int64(300), order.Lines[0].UnitPrice)

	require.Equal(t, int32(4), f.stock(t, chair.ID))
	require.Zero(t, f.cartSize(t, "owner-1"))
	require.Equal(t, 1, f.countEvents("store.order.placed"))
}

func TestCheckoutImmediate_ChargesFlatShippingUnderThreshold(t *testing.T) {
	f := newFixture(t)
	mug := f.product(t, "Mug", 20, 10)
	f.addToCart(t, "owner-1", mug.ID, 3)

	order, err := f.svc.CheckoutImmediate(f.ctx, checkoutInput("owner-1"))
	require.NoError(t, err)
	require.Equal(t, int64(60), order.Subtotal)
	require.Equal(t, domain.FlatShippingFee, order.Shipping)
	require.Equal(t, int64(72), order.Total)
}

func TestCheckoutImmediate_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckoutImmediate(f.ctx, checkoutInput("owner-1"))
	require.ErrorIs(t, err, ErrBusinessRule)
	require.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCheckoutImmediate_InvalidShipping(t *testing.T) {
	f := newFixture(t)
	input := checkoutInput("owner-1")
	input.Shipping.City = " "

	_, err := f.svc.CheckoutImmediate(f.ctx, input)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCheckoutImmediate_OutOfStockLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t)
	lamp := f.product(t, "Lamp", 40, 5)
	rug := f.product(t, "Rug", 15, 1)
	f.addToCart(t, "owner-1", lamp.ID, 2)
	f.addToCart(t, "owner-1", rug.ID, 2)

	_, err := f.svc.CheckoutImmediate(f.ctx, checkoutInput("owner-1"))
	require.ErrorIs(t, err, ErrBusinessRule)
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr))
	require.Equal(t, "Rug", stockErr.ProductName)

	require.Equal(t, int32(5), f.stock(t, lamp.ID))
	require.Equal(t, int32(1), f.stock(t, rug.ID))
	require.Equal(t, 2, f.cartSize(t, "owner-1"))
	orders, err := f.svc.ListOrders(f.ctx, "owner-1")
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestCheckoutImmediate_TwoBuyersForLastUnit(t *testing.T) {
	f := newFixture(t)
	vase := f.product(t, "Vase", 80, 1)
	f.addToCart(t, "alice", vase.ID, 1)
	f.addToCart(t, "bob", vase.ID, 1)

	results := make([]error, 2)
	var g errgroup.Group
	for i, owner := range []string{"alice", "bob"} {
		g.Go(func() error {
			_, results[i] = f.svc.CheckoutImmediate(f.ctx, checkoutInput(owner))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded, outOfStock := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrOutOfStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, outOfStock)
	require.Equal(t, int32(0), f.stock(t, vase.ID))
}

func TestCheckoutImmediate_NoOversellUnderContention(t *testing.T) {
	f := newFixture(t)
	const stock, buyers = 7, 20
	poster := f.product(t, "Poster", 25, stock)
	for i := 0; i < buyers; i++ {
		f.addToCart(t, fmt.Sprintf("buyer-%d", i), poster.ID, 1)
	}

	results := make([]error, buyers)
	var g errgroup.Group
	for i := 0; i < buyers; i++ {
		g.Go(func() error {
			_, results[i] = f.svc.CheckoutImmediate(f.ctx, checkoutInput(fmt.Sprintf("buyer-%d", i)))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	placed := 0
	for _, err := range results {
		if err == nil {
			placed++
			continue
		}
		require.ErrorIs(t, err, domain.ErrOutOfStock)
	}
	require.Equal(t, stock, placed)
	require.Equal(t, int32(0), f.stock(t, poster.ID))
}

func TestCheckoutImmediate_RetriesOrderCodeCollisions(t *testing.T) {
	taken := []string{"ORD-TAKEN0", "ORD-TAKEN1", "ORD-TAKEN2", "ORD-TAKEN3", "ORD-TAKEN4"}
	for k := 0; k < domain.MaxOrderCodeAttempts; k++ {
		t.Run(fmt.Sprintf("%d collisions", k), func(t *testing.T) {
			codes := &scriptedCodes{script: taken[:k]}
			f := newFixture(t, WithCodeGenerator(codes))
			seedOrderCodes(t, f.store, taken...)
			desk := f.product(t, "Desk", 120, 2)
			f.addToCart(t, "owner-1", desk.ID, 1)

			order, err := f.svc.CheckoutImmediate(f.ctx, checkoutInput("owner-1"))
			require.NoError(t, err)
			require.Equal(t, k+1, codes.Calls())
			require.NotContains(t, taken, order.Code)
		})
	}
}

func TestCheckoutImmediate_FailsAfterFiveCollisions(t *testing.T) {
	taken := []string{"ORD-TAKEN0", "ORD-TAKEN1", "ORD-TAKEN2", "ORD-TAKEN3", "ORD-TAKEN4"}
	codes := &scriptedCodes{script: taken}
	f := newFixture(t, WithCodeGenerator(codes))
	seedOrderCodes(t, f.store, taken...)
	desk := f.product(t, "Desk", 120, 2)
	f.addToCart(t, "owner-1", desk.ID, 1)

	_, err := f.svc.CheckoutImmediate(f.ctx, checkoutInput("owner-1"))
	require.ErrorIs(t, err, domain.ErrOrderCodeExhausted)
	require.Equal(t, domain.MaxOrderCodeAttempts, codes.Calls())
	require.Equal(t, int32(2), f.stock(t, desk.ID))
	require.Equal(t, 1, f.cartSize(t, "owner-1"))
}

func TestBeginDeferredCheckout_CreatesPendingOrder(t *testing.T) {
	f := newFixture(t)
	lamp := f.product(t, "Lamp", 40, 3)
	f.addToCart(t, "owner-1", lamp.ID, 2)

	result := f.deferred(t, "owner-1")
	require.NotEmpty(t, result.SessionID)
	require.Contains(t, result.RedirectURL, result.SessionID)
	require.Equal(t, domain.StatusPendingPayment, result.Order.Status)
	require.Equal(t, result.SessionID, result.Order.PaymentSessionID)
	require.Equal(t, int64(92), result.Order.Total)

	require.Equal(t, int32(3), f.stock(t, lamp.ID))
	require.Equal(t, 1, f.cartSize(t, "owner-1"))
	require.Equal(t, 1, f.countEvents("store.order.pending_payment"))
}

func TestBeginDeferredCheckout_RejectsInsufficientStock(t *testing.T) {
	f := newFixture(t)
	lamp := f.product(t, "Lamp", 40, 1)
	f.addToCart(t, "owner-1", lamp.ID, 2)

	_, err := f.svc.BeginDeferredCheckout(f.ctx, checkoutInput("owner-1"))
	require.ErrorIs(t, err, domain.ErrOutOfStock)
	require.Contains(t, err.Error(), "Lamp")
}

func TestCartOperations(t *testing.T) {
	f := newFixture(t)
	lamp := f.product(t, "Lamp", 40, 3)

	_, err := f.svc.AddCartItem(f.ctx, storetypes.CartItemInput{OwnerID: "o", ProductID: lamp.ID, Quantity: 0})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.AddCartItem(f.ctx, storetypes.CartItemInput{OwnerID: "o", ProductID: 999, Quantity: 1})
	require.ErrorIs(t, err, ErrNotFound)

	f.addToCart(t, "o", lamp.ID, 1)
	f.addToCart(t, "o", lamp.ID, 1)
	view, err := f.svc.Cart(f.ctx, "o")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.Equal(t, int32(2), view.Lines[0].Quantity)
	require.Equal(t, int64(80), view.Subtotal)
	require.Equal(t, int64(92), view.Total)

	require.NoError(t, f.svc.SetCartItemQuantity(f.ctx, storetypes.CartItemInput{OwnerID: "o", ProductID: lamp.ID, Quantity: 0}))
	require.Zero(t, f.cartSize(t, "o"))
	require.NoError(t, f.svc.RemoveCartItem(f.ctx, "o", lamp.ID))
}
