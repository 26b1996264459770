// Package handler exposes the storefront core over HTTP: catalog reads, the
// order submission boundary, and per-session cart endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/bakeruu/storefront/internal/domain/cart"
	"github.com/bakeruu/storefront/internal/domain/catalog"
	"github.com/bakeruu/storefront/internal/domain/product"
	"github.com/bakeruu/storefront/internal/domain/stock"
)

// CatalogReader is the read-side contract consumed by the handlers.
type CatalogReader interface {
	ListProducts(ctx context.Context) ([]product.Product, error)
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListTestimonials(ctx context.Context) []product.Testimonial
	TestConnectivity(ctx context.Context) catalog.ConnectivityReport
}

// StockAdjuster is the write-side contract consumed by the order boundary.
type StockAdjuster interface {
	DecreaseStock(ctx context.Context, items []stock.UpdateItem) []stock.UpdateResult
}

// Handler implements the storefront HTTP API.
type Handler struct {
	catalog CatalogReader
	stock   StockAdjuster
	carts   *cart.Manager
}

// New constructs a Handler with the required domain dependencies.
func New(catalogReader CatalogReader, stockAdjuster StockAdjuster, carts *cart.Manager) *Handler {
	return &Handler{
		catalog: catalogReader,
		stock:   stockAdjuster,
		carts:   carts,
	}
}

// Register attaches all API routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("GET /api/testimonials", h.listTestimonials)
	mux.HandleFunc("GET /api/storefront", h.storefront)
	mux.HandleFunc("GET /api/test-sheets", h.testSheets)
	mux.HandleFunc("POST /api/order", h.placeOrder)
	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PUT /api/cart/items/{productId}", h.updateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{productId}", h.removeCartItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
}

// writeJSON sends the encoder's buffer with the given status.
func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError sends {"success":false,"error":message}.
func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("success")
	e.Bool(false)
	e.FieldStart("error")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, &e)
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("price")
	e.Float64(p.Price.InexactFloat64())
	if p.DiscountedPrice != nil {
		e.FieldStart("discountedPrice")
		e.Float64(p.DiscountedPrice.InexactFloat64())
	}
	e.FieldStart("stock")
	e.Float64(p.Stock.InexactFloat64())
	e.FieldStart("imageUrl")
	e.Str(p.ImageURL)
	e.FieldStart("isBestSeller")
	e.Bool(p.IsBestSeller)
	e.ObjEnd()
}

func encodeProducts(e *jx.Encoder, products []product.Product) {
	e.ArrStart()
	for _, p := range products {
		encodeProduct(e, p)
	}
	e.ArrEnd()
}

func encodeTestimonials(e *jx.Encoder, testimonials []product.Testimonial) {
	e.ArrStart()
	for _, t := range testimonials {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(t.ID)
		e.FieldStart("authorName")
		e.Str(t.AuthorName)
		e.FieldStart("authorType")
		e.Str(t.AuthorType)
		e.FieldStart("rating")
		e.Float64(t.Rating.InexactFloat64())
		e.FieldStart("comment")
		e.Str(t.Comment)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeCartSummary(e *jx.Encoder, s cart.Summary) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range s.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID)
		e.FieldStart("productName")
		e.Str(it.ProductName)
		e.FieldStart("imageUrl")
		e.Str(it.ImageURL)
		e.FieldStart("unitPrice")
		e.Float64(it.UnitPrice.InexactFloat64())
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("totalItems")
	e.Int(s.TotalItems)
	e.FieldStart("totalPrice")
	e.Float64(s.TotalPrice.InexactFloat64())
	e.ObjEnd()
}
