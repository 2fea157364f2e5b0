package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route binds one operation to a method and path.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers served by the router.
type ApiHandleFunctions struct {
	CartAPI     CartAPI
	CheckoutAPI CheckoutAPI
	OrderAPI    OrderAPI
	WebhookAPI  WebhookAPI
}

// RouterOptions attaches process-level concerns to the engine.
type RouterOptions struct {
	Middleware []gin.HandlerFunc
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// NewRouter builds the gin engine. Buyer routes require an owner id; the
// webhook route authenticates by signature instead.
func NewRouter(handlers ApiHandleFunctions, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(opts.Middleware...)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	router.POST("/v1/webhooks/payments", handlers.WebhookAPI.ReceivePaymentEvent)

	buyer := router.Group("/v1", RequireOwner())
	for _, route := range buyerRoutes(handlers) {
		buyer.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	return router
}

func buyerRoutes(handlers ApiHandleFunctions) []Route {
	return []Route{
		{"GetCart", http.MethodGet, "/cart", handlers.CartAPI.GetCart},
		{"AddCartItem", http.MethodPost, "/cart/items", handlers.CartAPI.AddCartItem},
		{"SetCartItemQuantity", http.MethodPut, "/cart/items/:productId", handlers.CartAPI.SetCartItemQuantity},
		{"RemoveCartItem", http.MethodDelete, "/cart/items/:productId", handlers.CartAPI.RemoveCartItem},
		{"Checkout", http.MethodPost, "/checkout", handlers.CheckoutAPI.Checkout},
		{"BeginCheckoutSession", http.MethodPost, "/checkout/sessions", handlers.CheckoutAPI.BeginCheckoutSession},
		{"ConfirmCheckoutSession", http.MethodPost, "/checkout/sessions/:sessionId/confirm", handlers.CheckoutAPI.ConfirmCheckoutSession},
		{"ListOrders", http.MethodGet, "/orders", handlers.OrderAPI.ListOrders},
		{"GetOrder", http.MethodGet, "/orders/:orderCode", handlers.OrderAPI.GetOrder},
	}
}
