package storefrontserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	storehttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/http/mapper"
	storeapp "github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	storetypes "github.com/Apurer/go-gin-storefront/internal/domains/store/application/types"
	storeports "github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

type OrderAPI struct {
	service storeports.Service
}

func NewOrderAPI(service storeports.Service) OrderAPI {
	return OrderAPI{service: service}
}

// Get /v1/orders
func (api *OrderAPI) ListOrders(c *gin.Context) {
	orders, err := api.service.ListOrders(c.Request.Context(), ownerID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, storehttpmapper.FromDomainOrders(orders))
}

// Get /v1/orders/:orderCode
// Orders of other owners are reported as missing.
func (api *OrderAPI) GetOrder(c *gin.Context) {
	code := c.Param("orderCode")
	order, err := api.service.GetOrder(c.Request.Context(), storetypes.OrderLookup{
		OwnerID: ownerID(c),
		Code:    code,
	})
	if errors.Is(err, storeapp.ErrNotFound) {
		respondProblem(c, apierrors.NewNotFoundProblem("order", code))
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, storehttpmapper.FromDomainOrder(order))
}
