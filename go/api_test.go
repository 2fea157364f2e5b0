package storefrontserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storehttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/http/mapper"
	"github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/memory"
	storeworkflows "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/workflows"
	storeapp "github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	storedomain "github.com/Apurer/go-gin-storefront/internal/domains/store/domain"
	apierrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

type harness struct {
	router   *gin.Engine
	store    *memory.Store
	payments *memory.PaymentProvider
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	payments := memory.NewPaymentProvider("whsec_api", "")
	service := storeapp.NewService(store, payments)
	processor := storeapp.NewWebhookProcessor(
		payments,
		storeworkflows.NewInlineSettlement(service),
		storeapp.WithReceiptStore(memory.NewReceiptStore(time.Hour)),
	)
	router := NewRouter(ApiHandleFunctions{
		CartAPI:     NewCartAPI(service),
		CheckoutAPI: NewCheckoutAPI(service),
		OrderAPI:    NewOrderAPI(service),
		WebhookAPI:  NewWebhookAPI(processor, nil),
	}, RouterOptions{})
	return &harness{router: router, store: store, payments: payments}
}

func (h *harness) product(t *testing.T, name string, price int64, stock int32) storedomain.Product {
	t.Helper()
	product, err := h.store.UpsertProduct(context.Background(), storedomain.Product{Name: name, Price: price, Stock: stock})
	require.NoError(t, err)
	return *product
}

func (h *harness) do(t *testing.T, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) webhook(t *testing.T, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payments", bytes.NewReader(payload))
	req.Header.Set(SignatureHeader, signature)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func checkoutBody() storehttpmapper.CheckoutRequest {
	return storehttpmapper.CheckoutRequest{Shipping: storehttpmapper.Shipping{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Address:  "12 Analytical St",
		City:     "London",
		Zip:      "N1 9GU",
		Country:  "GB",
	}}
}

func TestBuyerRoutes_RequireOwner(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/v1/cart", "", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	problem := decode[apierrors.ProblemDetail](t, rec)
	assert.Equal(t, apierrors.TypeUnauthorized, problem.Type)
}

func TestCheckout_PlacesOrderAndEmptiesCart(t *testing.T) {
	h := newHarness(t)
	lamp := h.product(t, "Lamp", 300, 4)

	rec := h.do(t, http.MethodPost, "/v1/cart/items", "alice", storehttpmapper.CartItemRequest{ProductID: lamp.ID, Quantity: 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cart := decode[storehttpmapper.Cart](t, rec)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(0), cart.Shipping)
	assert.Equal(t, int64(300), cart.Total)

	rec = h.do(t, http.MethodPost, "/v1/checkout", "alice", checkoutBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[storehttpmapper.Order](t, rec)
	assert.Equal(t, string(storedomain.StatusPlaced), order.Status)
	assert.Equal(t, int64(300), order.Total)
	assert.NotEmpty(t, order.Code)

	product, err := h.store.GetProduct(context.Background(), lamp.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(3), product.Stock)

	rec = h.do(t, http.MethodGet, "/v1/cart", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[storehttpmapper.Cart](t, rec).Lines)

	rec = h.do(t, http.MethodGet, "/v1/orders/"+order.Code, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodGet, "/v1/orders/"+order.Code, "mallory", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	problem := decode[apierrors.ProblemDetail](t, rec)
	assert.Equal(t, apierrors.TypeNotFound, problem.Type)
	assert.Equal(t, "order", problem.Extensions["resourceType"])
	assert.Contains(t, problem.Detail, order.Code)

	rec = h.do(t, http.MethodGet, "/v1/orders", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]storehttpmapper.Order](t, rec), 1)
}

func TestCheckout_RejectsEmptyCartAndOutOfStock(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/v1/checkout", "bob", checkoutBody())
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierrors.TypeEmptyCart, decode[apierrors.ProblemDetail](t, rec).Type)

	vase := h.product(t, "Vase", 40, 1)
	rec = h.do(t, http.MethodPost, "/v1/cart/items", "bob", storehttpmapper.CartItemRequest{ProductID: vase.ID, Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, decode[storehttpmapper.Cart](t, rec).Lines[0].InStock)

	rec = h.do(t, http.MethodPost, "/v1/checkout", "bob", checkoutBody())
	require.Equal(t, http.StatusConflict, rec.Code)
	problem := decode[apierrors.ProblemDetail](t, rec)
	assert.Equal(t, apierrors.TypeOutOfStock, problem.Type)
	assert.Equal(t, "Vase", problem.Extensions["productName"])
}

func TestCheckout_InvalidShippingIsValidationProblem(t *testing.T) {
	h := newHarness(t)
	lamp := h.product(t, "Lamp", 300, 4)
	h.do(t, http.MethodPost, "/v1/cart/items", "carol", storehttpmapper.CartItemRequest{ProductID: lamp.ID, Quantity: 1})

	body := checkoutBody()
	body.Shipping.Email = "not-an-email"
	rec := h.do(t, http.MethodPost, "/v1/checkout", "carol", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeValidation, decode[apierrors.ProblemDetail](t, rec).Type)
}

func TestCartItems_UpdateAndRemove(t *testing.T) {
	h := newHarness(t)
	lamp := h.product(t, "Lamp", 100, 10)
	h.do(t, http.MethodPost, "/v1/cart/items", "dave", storehttpmapper.CartItemRequest{ProductID: lamp.ID, Quantity: 1})

	path := "/v1/cart/items/" + jsonNumber(lamp.ID)
	qty := int32(3)
	rec := h.do(t, http.MethodPut, path, "dave", storehttpmapper.CartQuantityRequest{Quantity: &qty})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart := decode[storehttpmapper.Cart](t, rec)
	assert.Equal(t, int32(3), cart.Lines[0].Quantity)
	assert.Equal(t, int64(300), cart.Subtotal)

	rec = h.do(t, http.MethodDelete, path, "dave", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodPut, "/v1/cart/items/abc", "dave", storehttpmapper.CartQuantityRequest{Quantity: &qty})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/cart/items", "dave", storehttpmapper.CartItemRequest{ProductID: 999, Quantity: 1})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeferredCheckout_WebhookPlacesOrder(t *testing.T) {
	h := newHarness(t)
	lamp := h.product(t, "Lamp", 120, 2)
	h.do(t, http.MethodPost, "/v1/cart/items", "erin", storehttpmapper.CartItemRequest{ProductID: lamp.ID, Quantity: 1})

	rec := h.do(t, http.MethodPost, "/v1/checkout/sessions", "erin", checkoutBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode[storehttpmapper.CheckoutSession](t, rec)
	assert.Equal(t, string(storedomain.StatusPendingPayment), session.Order.Status)
	assert.Equal(t, int64(132), session.Order.Total)
	assert.NotEmpty(t, session.RedirectURL)

	confirm := "/v1/checkout/sessions/" + session.SessionID + "/confirm"
	rec = h.do(t, http.MethodPost, confirm, "erin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(storedomain.StatusPendingPayment), decode[storehttpmapper.Order](t, rec).Status)

	require.NoError(t, h.payments.MarkPaid(session.SessionID))
	payload, signature, err := h.payments.CompletedEvent("evt_1", session.SessionID)
	require.NoError(t, err)

	rec = h.webhook(t, payload, "bogus")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	for i := 0; i < 2; i++ {
		rec = h.webhook(t, payload, signature)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = h.do(t, http.MethodPost, confirm, "erin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(storedomain.StatusPlaced), decode[storehttpmapper.Order](t, rec).Status)

	rec = h.do(t, http.MethodPost, confirm, "mallory", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	product, err := h.store.GetProduct(context.Background(), lamp.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), product.Stock)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
