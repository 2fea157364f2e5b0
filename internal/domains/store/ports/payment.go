package ports

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Provider event types that mean the buyer has paid.
const (
	EventCheckoutCompleted             = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"

	SessionModePayment = "payment"
)

// PaymentLineItem is one line of a hosted checkout session.
type PaymentLineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int32
}

// CheckoutSessionRequest describes the hosted payment session to create.
type CheckoutSessionRequest struct {
	OwnerID        string
	CustomerEmail  string
	Items          []PaymentLineItem
	ShippingAmount int64
}

// CheckoutSession is the provider view of a hosted payment session.
type CheckoutSession struct {
	ID              string
	RedirectURL     string
	Mode            string
	Paid            bool
	PaymentIntentID string
}

// PaymentEvent is a verified provider webhook event.
type PaymentEvent struct {
	ID      string
	Type    string
	Session *CheckoutSession
}

// PaymentSucceeded reports whether the event confirms payment of a payment-mode session.
func (e *PaymentEvent) PaymentSucceeded() bool {
	if e == nil || e.Session == nil {
		return false
	}
	if e.Type != EventCheckoutCompleted && e.Type != EventCheckoutAsyncPaymentSucceeded {
		return false
	}
	return e.Session.Mode == SessionModePayment && e.Session.Paid
}

// RefundRequest refunds the full captured amount of a payment.
type RefundRequest struct {
	PaymentIntentID string
	IdempotencyKey  string
	Reason          string
}

// Refund is the provider result of a refund call.
type Refund struct {
	ID     string
	Status string
	Amount int64
}

// PaymentProvider is the hosted payment collaborator.
type PaymentProvider interface {
	CreateSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	// ParseWebhook verifies the signature and decodes the event.
	ParseWebhook(payload []byte, signature string) (*PaymentEvent, error)
	Refund(ctx context.Context, req RefundRequest) (*Refund, error)
}
