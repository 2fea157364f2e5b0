package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	product, err := store.UpsertProduct(ctx, domain.Product{Name: "Lamp", Price: 40, Stock: 5})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		ok, err := tx.ReserveStock(ctx, product.ID, 3)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	require.ErrorIs(t, err, boom)

	reloaded, err := store.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, int32(5), reloaded.Stock)
}

func TestReserveStock_NeverOversells(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	product, err := store.UpsertProduct(ctx, domain.Product{Name: "Lamp", Price: 40, Stock: 10})
	require.NoError(t, err)

	var reserved atomic.Int32
	var g errgroup.Group
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			return store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
				ok, err := tx.ReserveStock(ctx, product.ID, 1)
				if ok {
					reserved.Add(1)
				}
				return err
			})
		})
	}
	require.NoError(t, g.Wait())

	reloaded, err := store.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, int32(10), reserved.Load())
	require.Equal(t, int32(0), reloaded.Stock)
}

func TestCreateOrder_DetectsCodeAndSessionCollisions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	order := &domain.Order{OwnerID: "owner-1", Code: "ORD-AAA", Status: domain.StatusPendingPayment, PaymentSessionID: "cs_1"}

	err := store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		_, err := tx.CreateOrder(ctx, order)
		return err
	})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		_, err := tx.CreateOrder(ctx, &domain.Order{OwnerID: "owner-2", Code: "ORD-AAA", Status: domain.StatusPlaced})
		require.ErrorIs(t, err, ports.ErrOrderCodeTaken)
		_, err = tx.CreateOrder(ctx, &domain.Order{OwnerID: "owner-2", Code: "ORD-BBB", Status: domain.StatusPendingPayment, PaymentSessionID: "cs_1"})
		require.ErrorIs(t, err, ports.ErrSessionTaken)
		return nil
	})
	require.NoError(t, err)

	saved, err := store.GetOrderBySession(ctx, "cs_1")
	require.NoError(t, err)
	require.Equal(t, "ORD-AAA", saved.Code)
}

func TestTransitionStatus_IsConditional(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	var id int64
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		saved, err := tx.CreateOrder(ctx, &domain.Order{OwnerID: "owner", Code: "ORD-1", Status: domain.StatusPendingPayment})
		id = saved.ID
		return err
	}))

	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		ok, err := tx.TransitionStatus(ctx, id, domain.StatusPendingPayment, domain.StatusPlaced)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = tx.TransitionStatus(ctx, id, domain.StatusPendingPayment, domain.StatusCancelled)
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))

	order, err := store.GetOrderByCode(ctx, "ORD-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPlaced, order.Status)
}

func TestClaimRefund_OnlyFirstClaimWins(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	var id int64
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		saved, err := tx.CreateOrder(ctx, &domain.Order{OwnerID: "owner", Code: "ORD-1", Status: domain.StatusCancelled})
		id = saved.ID
		return err
	}))

	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		ok, err := tx.ClaimRefund(ctx, id, "refund-cs_1")
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = tx.ClaimRefund(ctx, id, "refund-cs_1")
		require.NoError(t, err)
		require.False(t, ok)
		return tx.RecordRefund(ctx, id, "re_1")
	}))

	order, err := store.GetOrderByCode(ctx, "ORD-1")
	require.NoError(t, err)
	require.Equal(t, "re_1", order.RefundID)

	require.ErrorIs(t, store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		return tx.RecordRefund(ctx, id+1, "re_2")
	}), ports.ErrNotFound)
}

func TestCartItems_AddSetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	lamp, _ := store.UpsertProduct(ctx, domain.Product{Name: "Lamp", Price: 40, Stock: 5})
	rug, _ := store.UpsertProduct(ctx, domain.Product{Name: "Rug", Price: 15, Stock: 5})

	_, err := store.AddCartItem(ctx, domain.CartItem{OwnerID: "o", ProductID: lamp.ID, Quantity: 1})
	require.NoError(t, err)
	item, err := store.AddCartItem(ctx, domain.CartItem{OwnerID: "o", ProductID: lamp.ID, Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, int32(3), item.Quantity)
	_, err = store.AddCartItem(ctx, domain.CartItem{OwnerID: "o", ProductID: rug.ID, Quantity: 1})
	require.NoError(t, err)

	lines, err := store.CartLines(ctx, "o")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, "Lamp", lines[0].Product.Name)

	_, err = store.SetCartItem(ctx, domain.CartItem{OwnerID: "o", ProductID: 999, Quantity: 1})
	require.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, store.DeleteCartItem(ctx, "o", rug.ID))
	require.ErrorIs(t, store.DeleteCartItem(ctx, "o", rug.ID), ports.ErrNotFound)
}

func TestOutbox_FetchAndMarkSent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		return tx.AppendEvents(ctx,
			domain.OrderCancelled{OrderCode: "ORD-1", Reason: "test"},
			domain.OrderExpired{OrderCode: "ORD-2"},
		)
	}))

	pending, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.NoError(t, store.MarkSent(ctx, pending[0].ID))

	pending, err = store.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "ORD-2", pending[0].Key)
	require.Equal(t, []string{"store.order.cancelled", "store.order.expired"}, store.Events())
}

func TestReceiptStore_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	receipts := NewReceiptStore(time.Hour)
	receipts.WithClock(func() time.Time { return now })

	seen, err := receipts.Seen(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, receipts.Remember(ctx, "evt_1"))
	seen, err = receipts.Seen(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, seen)

	now = now.Add(2 * time.Hour)
	seen, err = receipts.Seen(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, seen)
}
