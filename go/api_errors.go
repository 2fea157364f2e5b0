package storefrontserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	storeapp "github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	storedomain "github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

var responder = apierrors.NewResponder("", checkoutProblem)

func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

func respondServiceError(c *gin.Context, err error) {
	responder.RespondError(c, err)
}

// checkoutProblem maps application error classes onto problem documents.
// Stock and empty-cart rejections get their own types so clients can react to them.
func checkoutProblem(err error) (apierrors.ProblemDetail, bool) {
	var stock *storedomain.StockError
	switch {
	case errors.As(err, &stock):
		return apierrors.NewOutOfStockProblem(stock.ProductName, stock.Requested, stock.Available), true
	case errors.Is(err, storedomain.ErrEmptyCart):
		return apierrors.ErrEmptyCart.WithDetail(storedomain.ErrEmptyCart.Error()), true
	case errors.Is(err, storeapp.ErrValidation):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, storeapp.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, storeapp.ErrBusinessRule):
		return apierrors.ErrBusinessRule.WithDetail(err.Error()), true
	case errors.Is(err, storeapp.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, storeapp.ErrExternalService):
		return apierrors.ErrBadGateway.WithDetail("the payment provider could not complete the request"), true
	}
	return apierrors.ProblemDetail{}, false
}
