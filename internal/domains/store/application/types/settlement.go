package types

import (
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
)

// FinalizeInput identifies the pending order bound to a payment session.
// ExpectedOwnerID is empty for provider-initiated calls.
type FinalizeInput struct {
	SessionID       string
	ExpectedOwnerID string
}

// FinalizeResult is a finalized order and whether this call won the PLACED claim.
type FinalizeResult struct {
	Order   *domain.Order
	Claimed bool
}

// CompensateInput describes a paid session whose order cannot be fulfilled.
type CompensateInput struct {
	SessionID       string
	PaymentIntentID string
	Reason          string
}

// CompensationResult reports what the compensator did.
type CompensationResult struct {
	Order      *domain.Order
	RefundID   string
	Refunded   bool
	Superseded bool
}

// SettlementInput is emitted for a successful provider payment.
type SettlementInput struct {
	SessionID       string
	PaymentIntentID string
	EventID         string
}

// SettlementOutcome enumerates how a settlement ended.
type SettlementOutcome string

const (
	OutcomePlaced       SettlementOutcome = "placed"
	OutcomeAlreadyFinal SettlementOutcome = "already_final"
	OutcomeCompensated  SettlementOutcome = "compensated"
	OutcomeSuperseded   SettlementOutcome = "superseded"
)

// SettlementResult is the result of finalizing (and possibly compensating) a paid session.
type SettlementResult struct {
	Order    *domain.Order
	Outcome  SettlementOutcome
	RefundID string
	Reason   string
}

// ExpireInput selects pending orders abandoned before the cutoff.
type ExpireInput struct {
	Before time.Time
	Limit  int
}
