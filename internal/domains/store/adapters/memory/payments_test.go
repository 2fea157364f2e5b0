package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
)

func TestPaymentProvider_WebhookSignature(t *testing.T) {
	payments := NewPaymentProvider("whsec_mem", "")
	session, err := payments.CreateSession(context.Background(), ports.CheckoutSessionRequest{
		OwnerID: "owner",
		Items:   []ports.PaymentLineItem{{Name: "Lamp", UnitAmount: 40, Quantity: 2}},
	})
	require.NoError(t, err)
	require.NoError(t, payments.MarkPaid(session.ID))

	payload, signature, err := payments.CompletedEvent("evt_1", session.ID)
	require.NoError(t, err)
	require.NoError(t, webhook.ValidatePayload(payload, signature, "whsec_mem"))

	event, err := payments.ParseWebhook(payload, signature)
	require.NoError(t, err)
	require.True(t, event.PaymentSucceeded())
	require.Equal(t, session.PaymentIntentID, event.Session.PaymentIntentID)

	_, err = payments.ParseWebhook(payload, NewPaymentProvider("whsec_other", "").Sign(payload))
	require.ErrorIs(t, err, ports.ErrInvalidSignature)

	payments.now = func() time.Time { return time.Now().Add(-time.Hour) }
	_, err = payments.ParseWebhook(payload, payments.Sign(payload))
	require.ErrorIs(t, err, ports.ErrInvalidSignature)
}

func TestPaymentProvider_RefundIsIdempotent(t *testing.T) {
	ctx := context.Background()
	payments := NewPaymentProvider("whsec_mem", "")
	session, err := payments.CreateSession(ctx, ports.CheckoutSessionRequest{
		Items:          []ports.PaymentLineItem{{Name: "Rug", UnitAmount: 300, Quantity: 1}},
		ShippingAmount: 12,
	})
	require.NoError(t, err)

	req := ports.RefundRequest{PaymentIntentID: session.PaymentIntentID, IdempotencyKey: "refund-" + session.ID}
	first, err := payments.Refund(ctx, req)
	require.NoError(t, err)
	second, err := payments.Refund(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, int64(312), first.Amount)
	require.Equal(t, 1, payments.RefundCount())
}
