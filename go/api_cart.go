package storefrontserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	storehttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/http/mapper"
	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	storeports "github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// CartAPI exposes the buyer's cart.
type CartAPI struct {
	service storeports.Service
}

func NewCartAPI(service storeports.Service) CartAPI {
	return CartAPI{service: service}
}

// Get /v1/cart
func (api *CartAPI) GetCart(c *gin.Context) {
	api.respondCart(c, http.StatusOK)
}

// Post /v1/cart/items
// Adds quantity to the line, creating it when missing.
func (api *CartAPI) AddCartItem(c *gin.Context) {
	var payload storehttpmapper.CartItemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	_, err := api.service.AddCartItem(c.Request.Context(), storetypes.CartItemInput{
		OwnerID:   ownerID(c),
		ProductID: payload.ProductID,
		Quantity:  payload.Quantity,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	api.respondCart(c, http.StatusCreated)
}

// Put /v1/cart/items/:productId
func (api *CartAPI) SetCartItemQuantity(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	var payload storehttpmapper.CartQuantityRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	err := api.service.SetCartItemQuantity(c.Request.Context(), storetypes.CartItemInput{
		OwnerID:   ownerID(c),
		ProductID: productID,
		Quantity:  *payload.Quantity,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	api.respondCart(c, http.StatusOK)
}

// Delete /v1/cart/items/:productId
func (api *CartAPI) RemoveCartItem(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	if err := api.service.RemoveCartItem(c.Request.Context(), ownerID(c), productID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (api *CartAPI) respondCart(c *gin.Context, status int) {
	view, err := api.service.Cart(c.Request.Context(), ownerID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(status, storehttpmapper.FromCartView(view))
}

func parseProductID(c *gin.Context) (int64, bool) {
	raw := c.Param("productId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail("productId must be a positive integer"))
		return 0, false
	}
	return id, true
}
