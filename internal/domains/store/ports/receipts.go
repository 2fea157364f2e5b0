package ports

import "context"

// ReceiptStore remembers processed webhook event ids so redeliveries are skipped.
type ReceiptStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Remember(ctx context.Context, eventID string) error
}
