package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bakeruu/storefront/internal/domain/cart"
	"github.com/bakeruu/storefront/internal/domain/catalog"
	"github.com/bakeruu/storefront/internal/domain/product"
	"github.com/bakeruu/storefront/internal/domain/stock"
	"github.com/bakeruu/storefront/internal/storage"
)

// --- Mock implementations ---

type mockCatalog struct {
	products     []product.Product
	testimonials []product.Testimonial
	err          error
}

func (m *mockCatalog) ListProducts(context.Context) ([]product.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (*product.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *mockCatalog) ListCategories(context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []string{"Cakes", "Snacks"}, nil
}

func (m *mockCatalog) ListTestimonials(context.Context) []product.Testimonial {
	return m.testimonials
}

func (m *mockCatalog) TestConnectivity(ctx context.Context) catalog.ConnectivityReport {
	if m.err != nil {
		return catalog.ConnectivityReport{Success: false, Message: "connection failed: " + m.err.Error()}
	}
	return catalog.ConnectivityReport{Success: true, Message: "ok", Products: m.products}
}

type mockStock struct {
	gotItems []stock.UpdateItem
	results  []stock.UpdateResult
}

func (m *mockStock) DecreaseStock(_ context.Context, items []stock.UpdateItem) []stock.UpdateResult {
	m.gotItems = items
	return m.results
}

func testProduct(id, name, category string, price int64, bestSeller bool) product.Product {
	return product.Product{
		ID:           id,
		Name:         name,
		Category:     category,
		Price:        decimal.NewFromInt(price),
		Stock:        decimal.NewFromInt(5),
		IsActive:     true,
		IsBestSeller: bestSeller,
	}
}

func newTestMux(catalogMock CatalogReader, stockMock StockAdjuster) *http.ServeMux {
	carts := cart.NewManager(storage.NewMemory(), zap.NewNop())
	mux := http.NewServeMux()
	New(catalogMock, stockMock, carts).Register(mux)
	return mux
}

func doRequest(mux *http.ServeMux, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

// --- Catalog endpoints ---

func TestListProducts(t *testing.T) {
	mux := newTestMux(&mockCatalog{products: []product.Product{
		testProduct("P001", "Brownies", "Cakes", 150000, true),
		testProduct("P002", "Cookies", "Snacks", 80000, false),
	}}, &mockStock{})

	rec := doRequest(mux, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "P001", got[0]["id"])
	assert.Equal(t, float64(150000), got[0]["price"])
	// No discount means no discountedPrice member at all.
	assert.NotContains(t, got[0], "discountedPrice")
}

func TestListProducts_CategoryFilter(t *testing.T) {
	mux := newTestMux(&mockCatalog{products: []product.Product{
		testProduct("P001", "Brownies", "Cakes", 150000, false),
		testProduct("P002", "Cookies", "Snacks", 80000, false),
	}}, &mockStock{})

	rec := doRequest(mux, http.MethodGet, "/api/products?category=Snacks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "P002", got[0]["id"])
}

func TestListProducts_Unavailable(t *testing.T) {
	mux := newTestMux(&mockCatalog{err: catalog.ErrUnavailable}, &mockStock{})

	rec := doRequest(mux, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, false, got["success"])
	assert.Equal(t, "failed to fetch catalog from sheet", got["error"])
}

func TestGetProduct(t *testing.T) {
	p := testProduct("P001", "Brownies", "Cakes", 150000, false)
	discounted := decimal.NewFromInt(120000)
	p.DiscountedPrice = &discounted
	mux := newTestMux(&mockCatalog{products: []product.Product{p}}, &mockStock{})

	rec := doRequest(mux, http.MethodGet, "/api/products/P001", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, "Brownies", got["name"])
	assert.Equal(t, float64(120000), got["discountedPrice"])
}

func TestGetProduct_NotFound(t *testing.T) {
	mux := newTestMux(&mockCatalog{}, &mockStock{})

	rec := doRequest(mux, http.MethodGet, "/api/products/P999", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", decodeBody(t, rec)["error"])
}

func TestListCategories(t *testing.T) {
	mux := newTestMux(&mockCatalog{}, &mockStock{})

	rec := doRequest(mux, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Cakes","Snacks"]`, rec.Body.String())
}

func TestStorefront(t *testing.T) {
	products := []product.Product{
		testProduct("P001", "A", "Cakes", 1, true),
		testProduct("P002", "B", "Cakes", 2, false),
		testProduct("P003", "C", "Cakes", 3, false),
		testProduct("P004", "D", "Cakes", 4, true),
		testProduct("P005", "E", "Cakes", 5, false),
	}
	mux := newTestMux(&mockCatalog{
		products: products,
		testimonials: []product.Testimonial{
			{ID: "T01", AuthorName: "Sari", Rating: decimal.NewFromInt(5)},
		},
	}, &mockStock{})

	rec := doRequest(mux, http.MethodGet, "/api/storefront", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Len(t, got["featured"], 4)
	assert.Len(t, got["bestSellers"], 2)
	assert.Len(t, got["testimonials"], 1)
}

func TestTestSheets(t *testing.T) {
	mux := newTestMux(&mockCatalog{products: []product.Product{
		testProduct("P001", "Brownies", "Cakes", 150000, false),
	}}, &mockStock{})

	rec := doRequest(mux, http.MethodGet, "/api/test-sheets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, true, got["success"])
	assert.Len(t, got["products"], 1)
}

func TestTestSheets_Failure(t *testing.T) {
	mux := newTestMux(&mockCatalog{err: catalog.ErrUnavailable}, &mockStock{})

	rec := doRequest(mux, http.MethodGet, "/api/test-sheets", "", nil)
	// The probe endpoint reports failure in the body, not the status.
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, false, got["success"])
	assert.NotContains(t, got, "products")
}

// --- Order boundary ---

func TestPlaceOrder(t *testing.T) {
	stockMock := &mockStock{results: []stock.UpdateResult{
		{ProductID: "P001", Success: true, Message: "stock updated to 6", NewStock: decimal.NewFromInt(6)},
	}}
	mux := newTestMux(&mockCatalog{}, stockMock)

	rec := doRequest(mux, http.MethodPost, "/api/order",
		`{"items":[{"productId":"P001","quantity":4}]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, stockMock.gotItems, 1)
	assert.Equal(t, stock.UpdateItem{ProductID: "P001", Quantity: 4}, stockMock.gotItems[0])

	got := decodeBody(t, rec)
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "stock updated successfully", got["message"])
	assert.NotEmpty(t, got["orderId"])

	results := got["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, true, first["success"])
	assert.Equal(t, float64(6), first["newStock"])
}

func TestPlaceOrder_PartialFailure(t *testing.T) {
	stockMock := &mockStock{results: []stock.UpdateResult{
		{ProductID: "P001", Success: true, Message: "stock updated to 6", NewStock: decimal.NewFromInt(6)},
		{ProductID: "P999", Success: false, Message: "product not found"},
	}}
	mux := newTestMux(&mockCatalog{}, stockMock)

	rec := doRequest(mux, http.MethodPost, "/api/order",
		`{"items":[{"productId":"P001","quantity":1},{"productId":"P999","quantity":1}]}`, nil)
	require.Equal(t, http.StatusMultiStatus, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, false, got["success"])
	assert.Equal(t, "some stock updates failed", got["message"])

	results := got["results"].([]any)
	require.Len(t, results, 2)
	failed := results[1].(map[string]any)
	assert.Equal(t, false, failed["success"])
	// Failed items carry no newStock member.
	assert.NotContains(t, failed, "newStock")
}

func TestPlaceOrder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "malformed json", body: `{not json`, wantErr: "invalid request body"},
		{name: "non-numeric quantity", body: `{"items":[{"productId":"P001","quantity":"two"}]}`, wantErr: "invalid request body"},
		{name: "missing items", body: `{}`, wantErr: "invalid order items"},
		{name: "empty items", body: `{"items":[]}`, wantErr: "invalid order items"},
		{name: "empty product id", body: `{"items":[{"productId":"","quantity":1}]}`, wantErr: "invalid item format"},
		{name: "zero quantity", body: `{"items":[{"productId":"P001","quantity":0}]}`, wantErr: "invalid item format"},
		{name: "negative quantity", body: `{"items":[{"productId":"P001","quantity":-2}]}`, wantErr: "invalid item format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stockMock := &mockStock{}
			mux := newTestMux(&mockCatalog{}, stockMock)

			rec := doRequest(mux, http.MethodPost, "/api/order", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantErr, decodeBody(t, rec)["error"])
			// Rejected payloads never reach the stock workflow.
			assert.Nil(t, stockMock.gotItems)
		})
	}
}

// --- Cart endpoints ---

func cartSession() map[string]string {
	return map[string]string{"Cart-Session": "session-1"}
}

func TestCart_MissingSessionHeader(t *testing.T) {
	mux := newTestMux(&mockCatalog{}, &mockStock{})

	rec := doRequest(mux, http.MethodGet, "/api/cart", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing Cart-Session header", decodeBody(t, rec)["error"])
}

func TestCart_AddAndGet(t *testing.T) {
	mux := newTestMux(&mockCatalog{products: []product.Product{
		testProduct("P001", "Brownies", "Cakes", 150000, false),
	}}, &mockStock{})

	rec := doRequest(mux, http.MethodPost, "/api/cart/items",
		`{"productId":"P001","quantity":2}`, cartSession())
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, float64(2), got["totalItems"])
	assert.Equal(t, float64(300000), got["totalPrice"])

	rec = doRequest(mux, http.MethodGet, "/api/cart", "", cartSession())
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeBody(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Brownies", items[0].(map[string]any)["productName"])
}

func TestCart_AddUnknownProduct(t *testing.T) {
	mux := newTestMux(&mockCatalog{}, &mockStock{})

	rec := doRequest(mux, http.MethodPost, "/api/cart/items",
		`{"productId":"P999","quantity":1}`, cartSession())
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_AddInvalidBody(t *testing.T) {
	mux := newTestMux(&mockCatalog{}, &mockStock{})

	rec := doRequest(mux, http.MethodPost, "/api/cart/items", `{"quantity":2}`, cartSession())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid cart item", decodeBody(t, rec)["error"])
}

func TestCart_UpdateRemoveClear(t *testing.T) {
	mux := newTestMux(&mockCatalog{products: []product.Product{
		testProduct("P001", "Brownies", "Cakes", 150000, false),
		testProduct("P002", "Cookies", "Snacks", 80000, false),
	}}, &mockStock{})

	doRequest(mux, http.MethodPost, "/api/cart/items", `{"productId":"P001","quantity":1}`, cartSession())
	doRequest(mux, http.MethodPost, "/api/cart/items", `{"productId":"P002","quantity":1}`, cartSession())

	rec := doRequest(mux, http.MethodPut, "/api/cart/items/P001", `{"quantity":5}`, cartSession())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(6), decodeBody(t, rec)["totalItems"])

	rec = doRequest(mux, http.MethodDelete, "/api/cart/items/P001", "", cartSession())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["totalItems"])

	rec = doRequest(mux, http.MethodDelete, "/api/cart", "", cartSession())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decodeBody(t, rec)["totalItems"])
}

func TestCart_SessionsAreIsolated(t *testing.T) {
	mux := newTestMux(&mockCatalog{products: []product.Product{
		testProduct("P001", "Brownies", "Cakes", 150000, false),
	}}, &mockStock{})

	doRequest(mux, http.MethodPost, "/api/cart/items",
		`{"productId":"P001","quantity":3}`, map[string]string{"Cart-Session": "a"})

	rec := doRequest(mux, http.MethodGet, "/api/cart", "", map[string]string{"Cart-Session": "b"})
	assert.Equal(t, float64(0), decodeBody(t, rec)["totalItems"])
}
