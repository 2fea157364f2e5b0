package api

import (
	"context"
	"log/slog"
	"time"

	storepostgres "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/persistence/postgres"
	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
)

// ReapResult summarises one sweep.
type ReapResult struct {
	ExpiredOrders  int
	PurgedReceipts int64
}

// Reap cancels pending orders older than PENDING_ORDER_TTL, batch by batch,
// then drops webhook receipts past their TTL when they live in the database.
func Reap(ctx context.Context, c *Components, now time.Time) (ReapResult, error) {
	var result ReapResult
	input := storetypes.ExpireInput{
		Before: now.Add(-c.Config.PendingOrderTTL),
		Limit:  c.Config.ReaperBatchSize,
	}
	for {
		expired, err := c.Service.ExpirePendingOrders(ctx, input)
		result.ExpiredOrders += expired
		if err != nil {
			return result, err
		}
		if expired < input.Limit {
			break
		}
	}
	if c.DB != nil {
		purged, err := storepostgres.NewReceiptStore(c.DB, c.Config.ReceiptTTL).Purge(ctx)
		result.PurgedReceipts = purged
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// RunReaper sweeps every interval until ctx ends. Failed sweeps are logged and retried next tick.
func RunReaper(ctx context.Context, c *Components, interval time.Duration) error {
	logger := c.Instruments.EffectiveLogger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			result, err := Reap(ctx, c, now)
			if err != nil && ctx.Err() == nil {
				logger.Error("pending order sweep failed", slog.String("error", err.Error()))
				continue
			}
			if result.ExpiredOrders > 0 || result.PurgedReceipts > 0 {
				logger.Info("pending order sweep finished",
					slog.Int("expired_orders", result.ExpiredOrders),
					slog.Int64("purged_receipts", result.PurgedReceipts),
				)
			}
		}
	}
}
