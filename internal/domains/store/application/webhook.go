package application

import (
	"context"
	"errors"
	"fmt"

	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

// WebhookOutcome describes what happened to a delivered provider event.
type WebhookOutcome string

const (
	WebhookIgnored   WebhookOutcome = "ignored"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookSettled   WebhookOutcome = "settled"
)

// WebhookResult is returned for every verified event.
type WebhookResult struct {
	EventID    string
	EventType  string
	Outcome    WebhookOutcome
	Settlement *storetypes.SettlementResult
}

// WebhookProcessor verifies provider events and settles successful payments.
type WebhookProcessor struct {
	payments   ports.PaymentProvider
	settlement ports.SettlementOrchestrator
	receipts   ports.ReceiptStore
}

// WebhookOption customises the processor.
type WebhookOption func(*WebhookProcessor)

// WithReceiptStore enables skipping of already processed event ids.
func WithReceiptStore(receipts ports.ReceiptStore) WebhookOption {
	return func(p *WebhookProcessor) {
		p.receipts = receipts
	}
}

// NewWebhookProcessor wires the processor with the provider and settlement path.
func NewWebhookProcessor(payments ports.PaymentProvider, settlement ports.SettlementOrchestrator, opts ...WebhookOption) *WebhookProcessor {
	p := &WebhookProcessor{payments: payments, settlement: settlement}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Process verifies and handles one webhook delivery. Events that fail
// verification return ErrValidation and must be rejected. Any other error is a
// settlement failure the caller logs before acknowledging the delivery.
func (p *WebhookProcessor) Process(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if p == nil || p.payments == nil || p.settlement == nil {
		return nil, errors.New("webhook processor not configured")
	}
	event, err := p.payments.ParseWebhook(payload, signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	result := &WebhookResult{EventID: event.ID, EventType: event.Type, Outcome: WebhookIgnored}

	if p.seen(ctx, event.ID) {
		result.Outcome = WebhookDuplicate
		return result, nil
	}
	if !event.PaymentSucceeded() {
		p.remember(ctx, event.ID)
		return result, nil
	}

	settlement, err := p.settlement.SettlePayment(ctx, storetypes.SettlementInput{
		SessionID:       event.Session.ID,
		PaymentIntentID: event.Session.PaymentIntentID,
		EventID:         event.ID,
	})
	if err != nil {
		return result, err
	}
	result.Outcome = WebhookSettled
	result.Settlement = settlement
	p.remember(ctx, event.ID)
	return result, nil
}

// Receipt failures are not fatal: settlement is idempotent, so a lost receipt
// only costs a redundant settlement on redelivery.
func (p *WebhookProcessor) seen(ctx context.Context, eventID string) bool {
	if p.receipts == nil || eventID == "" {
		return false
	}
	seen, err := p.receipts.Seen(ctx, eventID)
	return err == nil && seen
}

func (p *WebhookProcessor) remember(ctx context.Context, eventID string) {
	if p.receipts == nil || eventID == "" {
		return
	}
	_ = p.receipts.Remember(ctx, eventID)
}
