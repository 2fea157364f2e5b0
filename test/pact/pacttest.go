//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "storefront-api"
	ConsumerName = "storefront-web"

	StateCatalogInStock = "product 101 is in stock"
	StateCartReady      = "buyer pact-buyer has product 101 in the cart"
	StateCartSoldOut    = "buyer pact-late-buyer has sold-out product 102 in the cart"
	StateNoOrders       = "buyer pact-buyer has no orders"
)

const (
	BuyerID     = "pact-buyer"
	LateBuyerID = "pact-late-buyer"

	InStockProductID   int64 = 101
	SoldOutProductID   int64 = 102
	InStockProductName       = "Pact Lamp"
	SoldOutProductName       = "Pact Vase"
	InStockPrice       int64 = 300
	MissingOrderCode         = "ORD-000000000000"
	OrderCodePattern         = `^ORD-[0-9A-F]{12}$`
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile is the pact written by the web consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleShipping is the delivery address both sides agree on.
func ExampleShipping() map[string]any {
	return map[string]any{
		"fullName": "Pact Buyer",
		"email":    "pact.buyer@example.com",
		"address":  "1 Contract Road",
		"city":     "Testville",
		"zip":      "10001",
		"country":  "US",
	}
}

func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
