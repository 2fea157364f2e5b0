//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-gin-storefront/test/pact"

	storefrontserver "github.com/Apurer/go-gin-storefront/go"
	storememory "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/memory"
	storeobs "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/observability"
	storeworkflows "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/workflows"
	storeapp "github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	storedomain "github.com/Apurer/go-gin-storefront/internal/domains/store/domain"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"
)

func TestStorefrontProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateCatalogInStock: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StateCartReady: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.addToCart(t, pacttest.BuyerID, pacttest.InStockProductID)
			}
			return nil, nil
		},
		pacttest.StateCartSoldOut: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.addToCart(t, pacttest.LateBuyerID, pacttest.SoldOutProductID)
			}
			return nil, nil
		},
		pacttest.StateNoOrders: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
	})
	require.NoError(t, err)
}

// contractProviderApp serves the real router over a store that each
// provider state replaces wholesale.
type contractProviderApp struct {
	mu     sync.Mutex
	store  *storememory.Store
	engine *gin.Engine
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.mu.Lock()
		engine := app.engine
		app.mu.Unlock()
		engine.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	app.server = server
	return app
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	store := storememory.NewStore()
	ctx := context.Background()
	for _, product := range []storedomain.Product{
		{ID: pacttest.InStockProductID, Name: pacttest.InStockProductName, Price: pacttest.InStockPrice, Stock: 10},
		{ID: pacttest.SoldOutProductID, Name: pacttest.SoldOutProductName, Price: 4500, Stock: 0},
	} {
		_, err := store.UpsertProduct(ctx, product)
		require.NoError(t, err)
	}

	payments := storememory.NewPaymentProvider("whsec_pact", "")
	service := storeobs.New(storeapp.NewService(store, payments))
	processor := storeapp.NewWebhookProcessor(
		payments,
		storeworkflows.NewInlineSettlement(service),
		storeapp.WithReceiptStore(storememory.NewReceiptStore(time.Hour)),
	)
	engine := storefrontserver.NewRouter(storefrontserver.ApiHandleFunctions{
		CartAPI:     storefrontserver.NewCartAPI(service),
		CheckoutAPI: storefrontserver.NewCheckoutAPI(service),
		OrderAPI:    storefrontserver.NewOrderAPI(service),
		WebhookAPI:  storefrontserver.NewWebhookAPI(processor, nil),
	}, storefrontserver.RouterOptions{})

	a.mu.Lock()
	a.store, a.engine = store, engine
	a.mu.Unlock()
}

func (a *contractProviderApp) addToCart(t testing.TB, ownerID string, productID int64) {
	t.Helper()
	a.mu.Lock()
	store := a.store
	a.mu.Unlock()
	_, err := store.AddCartItem(context.Background(), storedomain.CartItem{OwnerID: ownerID, ProductID: productID, Quantity: 1})
	require.NoError(t, err)
}
