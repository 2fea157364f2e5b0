package storefrontserver

import (
	"strings"

	"github.com/gin-gonic/gin"

	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// OwnerHeader carries the authenticated buyer id set by the gateway.
const OwnerHeader = "X-Owner-ID"

const ownerKey = "storefront.owner"

// RequireOwner rejects requests without an owner id.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := strings.TrimSpace(c.GetHeader(OwnerHeader))
		if owner == "" {
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail(OwnerHeader+" header is required"))
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

func ownerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}
