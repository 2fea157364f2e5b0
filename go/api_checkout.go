package storefrontserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	storehttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/http/mapper"
	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	storeports "github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// CheckoutAPI turns carts into orders, either at once or through the payment provider.
type CheckoutAPI struct {
	service storeports.Service
}

func NewCheckoutAPI(service storeports.Service) CheckoutAPI {
	return CheckoutAPI{service: service}
}

// Post /v1/checkout
// Places the order and reserves stock in one step.
func (api *CheckoutAPI) Checkout(c *gin.Context) {
	input, ok := bindCheckout(c)
	if !ok {
		return
	}
	order, err := api.service.CheckoutImmediate(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, storehttpmapper.FromDomainOrder(order))
}

// Post /v1/checkout/sessions
// Creates a pending order and a provider session the buyer is redirected to.
func (api *CheckoutAPI) BeginCheckoutSession(c *gin.Context) {
	input, ok := bindCheckout(c)
	if !ok {
		return
	}
	deferred, err := api.service.BeginDeferredCheckout(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, storehttpmapper.FromDeferredCheckout(deferred))
}

// Post /v1/checkout/sessions/:sessionId/confirm
// Called by the client after the provider redirect; finalizes the order once paid.
func (api *CheckoutAPI) ConfirmCheckoutSession(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("sessionId"))
	if sessionID == "" {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail("sessionId is required"))
		return
	}
	order, err := api.service.ConfirmCheckout(c.Request.Context(), storetypes.FinalizeInput{
		SessionID:       sessionID,
		ExpectedOwnerID: ownerID(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, storehttpmapper.FromDomainOrder(order))
}

func bindCheckout(c *gin.Context) (storetypes.CheckoutInput, bool) {
	var payload storehttpmapper.CheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return storetypes.CheckoutInput{}, false
	}
	return storetypes.CheckoutInput{
		OwnerID:  ownerID(c),
		Shipping: storehttpmapper.ToShippingInfo(payload.Shipping),
	}, true
}
