package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

var _ ports.PaymentProvider = (*PaymentProvider)(nil)

// PaymentProvider simulates a hosted payment provider for development and tests.
// Webhook payloads carry a Stripe-Signature style header ("t=...,v1=...").
type PaymentProvider struct {
	mu        sync.Mutex
	secret    string
	baseURL   string
	now       func() time.Time
	seq       int
	sessions  map[string]*ports.CheckoutSession
	amounts   map[string]int64
	refunds   map[string]*ports.Refund
	refundErr error
}

// WebhookPayload is the JSON body accepted by ParseWebhook.
type WebhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		SessionID       string `json:"sessionId"`
		Mode            string `json:"mode"`
		Paid            bool   `json:"paid"`
		PaymentIntentID string `json:"paymentIntentId"`
	} `json:"data"`
}

// NewPaymentProvider returns a provider that signs webhooks with secret.
func NewPaymentProvider(secret, baseURL string) *PaymentProvider {
	if baseURL == "" {
		baseURL = "http://localhost:8080/pay"
	}
	return &PaymentProvider{
		secret:   secret,
		baseURL:  baseURL,
		now:      time.Now,
		sessions: map[string]*ports.CheckoutSession{},
		amounts:  map[string]int64{},
		refunds:  map[string]*ports.Refund{},
	}
}

func (p *PaymentProvider) CreateSession(_ context.Context, req ports.CheckoutSessionRequest) (*ports.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	session := &ports.CheckoutSession{
		ID:              fmt.Sprintf("cs_mem_%06d", p.seq),
		Mode:            ports.SessionModePayment,
		PaymentIntentID: fmt.Sprintf("pi_mem_%06d", p.seq),
	}
	session.RedirectURL = p.baseURL + "/" + session.ID
	amount := req.ShippingAmount
	for _, item := range req.Items {
		amount += item.UnitAmount * int64(item.Quantity)
	}
	p.sessions[session.ID] = session
	p.amounts[session.PaymentIntentID] = amount
	clone := *session
	return &clone, nil
}

func (p *PaymentProvider) RetrieveSession(_ context.Context, sessionID string) (*ports.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	session, ok := p.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("payment session %s: %w", sessionID, ports.ErrNotFound)
	}
	clone := *session
	return &clone, nil
}

// MarkPaid records the buyer's payment for the session.
func (p *PaymentProvider) MarkPaid(sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	session, ok := p.sessions[sessionID]
	if !ok {
		return fmt.Errorf("payment session %s: %w", sessionID, ports.ErrNotFound)
	}
	session.Paid = true
	return nil
}

// Sign returns the signature header ParseWebhook expects for payload.
func (p *PaymentProvider) Sign(payload []byte) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    p.secret,
		Timestamp: p.now(),
	})
	return signed.Header
}

// CompletedEvent builds a signed checkout completion webhook for a session.
func (p *PaymentProvider) CompletedEvent(eventID, sessionID string) ([]byte, string, error) {
	p.mu.Lock()
	session, ok := p.sessions[sessionID]
	var clone ports.CheckoutSession
	if ok {
		clone = *session
	}
	p.mu.Unlock()
	if !ok {
		return nil, "", fmt.Errorf("payment session %s: %w", sessionID, ports.ErrNotFound)
	}
	var payload WebhookPayload
	payload.ID = eventID
	payload.Type = ports.EventCheckoutCompleted
	payload.Data.SessionID = clone.ID
	payload.Data.Mode = clone.Mode
	payload.Data.Paid = clone.Paid
	payload.Data.PaymentIntentID = clone.PaymentIntentID
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}
	return body, p.Sign(body), nil
}

func (p *PaymentProvider) ParseWebhook(payload []byte, signature string) (*ports.PaymentEvent, error) {
	if err := webhook.ValidatePayload(payload, signature, p.secret); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidSignature, err)
	}
	var decoded WebhookPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	return &ports.PaymentEvent{
		ID:   decoded.ID,
		Type: decoded.Type,
		Session: &ports.CheckoutSession{
			ID:              decoded.Data.SessionID,
			Mode:            decoded.Data.Mode,
			Paid:            decoded.Data.Paid,
			PaymentIntentID: decoded.Data.PaymentIntentID,
		},
	}, nil
}

// Refund is idempotent on the request's idempotency key.
func (p *PaymentProvider) Refund(_ context.Context, req ports.RefundRequest) (*ports.Refund, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	if existing, ok := p.refunds[req.IdempotencyKey]; ok {
		clone := *existing
		return &clone, nil
	}
	p.seq++
	refund := &ports.Refund{
		ID:     fmt.Sprintf("re_mem_%06d", p.seq),
		Status: "succeeded",
		Amount: p.amounts[req.PaymentIntentID],
	}
	p.refunds[req.IdempotencyKey] = refund
	clone := *refund
	return &clone, nil
}

// FailRefunds makes subsequent refunds fail with err; nil restores success.
func (p *PaymentProvider) FailRefunds(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refundErr = err
}

// RefundCount returns how many distinct refunds were issued.
func (p *PaymentProvider) RefundCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.refunds)
}
