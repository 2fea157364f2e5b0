package application

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/memory"
	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

const webhookSecret = "whsec_test"

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	payments *memory.PaymentProvider
	svc      *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	payments := memory.NewPaymentProvider(webhookSecret, "")
	return &fixture{
		ctx:      context.Background(),
		store:    store,
		payments: payments,
		svc:      NewService(store, payments, opts...),
	}
}

func (f *fixture) product(t *testing.T, name string, price int64, stock int32) domain.Product {
	t.Helper()
	product, err := f.store.UpsertProduct(f.ctx, domain.Product{Name: name, Price: price, Stock: stock})
	require.NoError(t, err)
	return *product
}

func (f *fixture) addToCart(t *testing.T, owner string, productID int64, qty int32) {
	t.Helper()
	_, err := f.svc.AddCartItem(f.ctx, storetypes.CartItemInput{OwnerID: owner, ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, productID int64) int32 {
	t.Helper()
	product, err := f.store.GetProduct(f.ctx, productID)
	require.NoError(t, err)
	return product.Stock
}

func (f *fixture) cartSize(t *testing.T, owner string) int {
	t.Helper()
	lines, err := f.store.CartLines(f.ctx, owner)
	require.NoError(t, err)
	return len(lines)
}

func (f *fixture) countEvents(name string) int {
	count := 0
	for _, event := range f.store.Events() {
		if event == name {
			count++
		}
	}
	return count
}

// deferred starts a deferred checkout for owner and returns the session id.
func (f *fixture) deferred(t *testing.T, owner string) *storetypes.DeferredCheckout {
	t.Helper()
	result, err := f.svc.BeginDeferredCheckout(f.ctx, checkoutInput(owner))
	require.NoError(t, err)
	return result
}

func (f *fixture) paymentIntent(t *testing.T, sessionID string) string {
	t.Helper()
	session, err := f.payments.RetrieveSession(f.ctx, sessionID)
	require.NoError(t, err)
	return session.PaymentIntentID
}

func checkoutInput(owner string) storetypes.CheckoutInput {
	return storetypes.CheckoutInput{
		OwnerID: owner,
		Shipping: domain.ShippingInfo{
			FullName: "Grace Hopper",
			Email:    owner + "@example.com",
			Address:  "1 Compiler Way",
			City:     "Arlington",
			Zip:      "22201",
			Country:  "US",
		},
	}
}

// scriptedCodes returns the scripted codes first, then fresh unique ones.
type scriptedCodes struct {
	mu     sync.Mutex
	script []string
	calls  int
}

func (s *scriptedCodes) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= len(s.script) {
		return s.script[s.calls-1], nil
	}
	return fmt.Sprintf("ORD-FRESH%04d", s.calls), nil
}

func (s *scriptedCodes) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func seedOrderCodes(t *testing.T, store *memory.Store, codes ...string) {
	t.Helper()
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx ports.Tx) error {
		for _, code := range codes {
			if _, err := tx.CreateOrder(ctx, &domain.Order{OwnerID: "seed", Code: code, Status: domain.StatusFulfilled}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}
