package ports

import (
	"context"

	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
)

// SettlementOrchestrator runs finalize-then-compensate for a paid session,
// durably when a workflow engine is available.
type SettlementOrchestrator interface {
	SettlePayment(ctx context.Context, input storetypes.SettlementInput) (*storetypes.SettlementResult, error)
}
