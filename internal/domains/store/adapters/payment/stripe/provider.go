// Package stripe adapts Stripe Checkout and Refunds to the payment provider port.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

var _ ports.PaymentProvider = (*Provider)(nil)

const (
	defaultCurrency    = "usd"
	defaultAmountScale = 100
	// SessionIDPlaceholder is substituted by Stripe in the success URL.
	SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"
)

// Config configures the Stripe provider.
type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Currency      string
	// AmountScale converts catalogue prices to the currency's minor unit.
	AmountScale int64
	// BackendURL overrides the Stripe API endpoint.
	BackendURL string
}

// Provider talks to Stripe through the official client.
type Provider struct {
	api    *client.API
	config Config
}

// NewProvider validates the configuration and builds a Stripe client.
func NewProvider(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("stripe secret key is required")
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, errors.New("stripe webhook secret is required")
	}
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if cfg.AmountScale <= 0 {
		cfg.AmountScale = defaultAmountScale
	}
	var backends *stripeapi.Backends
	if cfg.BackendURL != "" {
		backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, &stripeapi.BackendConfig{
			URL:               stripeapi.String(cfg.BackendURL),
			MaxNetworkRetries: stripeapi.Int64(0),
		})
		backends = &stripeapi.Backends{API: backend, Connect: backend, Uploads: backend}
	}
	return &Provider{api: client.New(cfg.SecretKey, backends), config: cfg}, nil
}

func (p *Provider) CreateSession(ctx context.Context, req ports.CheckoutSessionRequest) (*ports.CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionParams{
		Mode:              stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SuccessURL:        stripeapi.String(p.config.SuccessURL),
		CancelURL:         stripeapi.String(p.config.CancelURL),
		ClientReferenceID: stripeapi.String(req.OwnerID),
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripeapi.String(req.CustomerEmail)
	}
	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripeapi.CheckoutSessionLineItemParams{
			Quantity: stripeapi.Int64(int64(item.Quantity)),
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripeapi.String(p.config.Currency),
				UnitAmount: stripeapi.Int64(p.minor(item.UnitAmount)),
				ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripeapi.String(item.Name),
				},
			},
		})
	}
	params.ShippingOptions = []*stripeapi.CheckoutSessionShippingOptionParams{{
		ShippingRateData: &stripeapi.CheckoutSessionShippingOptionShippingRateDataParams{
			DisplayName: stripeapi.String(shippingLabel(req.ShippingAmount)),
			Type:        stripeapi.String("fixed_amount"),
			FixedAmount: &stripeapi.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
				Amount:   stripeapi.Int64(p.minor(req.ShippingAmount)),
				Currency: stripeapi.String(p.config.Currency),
			},
		},
	}}
	params.AddMetadata("owner_id", req.OwnerID)

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return toSession(session), nil
}

func (p *Provider) RetrieveSession(ctx context.Context, sessionID string) (*ports.CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx
	session, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		var apiErr *stripeapi.Error
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 404 {
			return nil, fmt.Errorf("stripe checkout session %s: %w", sessionID, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("stripe retrieve checkout session: %w", err)
	}
	return toSession(session), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes checkout
// session events. Other event types, and checkout session objects that do not
// decode, are returned without a session so the delivery is still acknowledged.
func (p *Provider) ParseWebhook(payload []byte, signature string) (*ports.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.config.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidSignature, err)
	}
	result := &ports.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(result.Type, "checkout.session.") || event.Data == nil {
		return result, nil
	}
	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return result, nil
	}
	result.Session = toSession(&session)
	return result, nil
}

// Refund refunds the whole payment intent. Stripe deduplicates on the idempotency key.
func (p *Provider) Refund(ctx context.Context, req ports.RefundRequest) (*ports.Refund, error) {
	params := &stripeapi.RefundParams{
		PaymentIntent: stripeapi.String(req.PaymentIntentID),
		Reason:        stripeapi.String(string(stripeapi.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}
	refund, err := p.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund: %w", err)
	}
	return &ports.Refund{ID: refund.ID, Status: string(refund.Status), Amount: refund.Amount}, nil
}

func (p *Provider) minor(amount int64) int64 {
	return amount * p.config.AmountScale
}

func toSession(session *stripeapi.CheckoutSession) *ports.CheckoutSession {
	out := &ports.CheckoutSession{
		ID:          session.ID,
		RedirectURL: session.URL,
		Mode:        string(session.Mode),
		Paid:        session.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusPaid,
	}
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	return out
}

func shippingLabel(amount int64) string {
	if amount == 0 {
		return "Free shipping"
	}
	return "Standard shipping"
}
