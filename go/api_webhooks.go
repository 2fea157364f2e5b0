package storefrontserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	storeapp "github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

const maxWebhookBody = 64 << 10

// WebhookProcessor verifies and settles provider events.
type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte, signature string) (*storeapp.WebhookResult, error)
}

type WebhookAPI struct {
	processor WebhookProcessor
	logger    *slog.Logger
}

func NewWebhookAPI(processor WebhookProcessor, logger *slog.Logger) WebhookAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return WebhookAPI{processor: processor, logger: logger}
}

// Post /v1/webhooks/payments
// Unverifiable deliveries are rejected. Everything else is acknowledged so the
// provider stops retrying; settlement failures are logged for follow-up.
func (api *WebhookAPI) ReceivePaymentEvent(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail("unable to read request body"))
		return
	}
	result, err := api.processor.Process(c.Request.Context(), payload, c.GetHeader(SignatureHeader))
	if err != nil {
		if errors.Is(err, storeapp.ErrValidation) {
			api.logger.Warn("webhook rejected", slog.String("error", err.Error()))
			respondProblem(c, apierrors.ErrBadRequest.WithDetail("webhook signature verification failed"))
			return
		}
		attrs := []any{slog.String("error", err.Error())}
		if result != nil {
			attrs = append(attrs, slog.String("event_id", result.EventID), slog.String("event_type", result.EventType))
		}
		api.logger.Error("webhook settlement failed", attrs...)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	api.logger.Info("webhook processed",
		slog.String("event_id", result.EventID),
		slog.String("event_type", result.EventType),
		slog.String("outcome", string(result.Outcome)),
	)
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": result.Outcome})
}
