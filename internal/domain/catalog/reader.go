package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bakeruu/storefront/internal/domain/product"
)

// Sentinel errors for catalog reads.
var (
	// ErrUnavailable is the uniform failure surfaced on any transport or
	// parsing problem. The underlying cause is logged, not returned: callers
	// only ever see a usable result or this one error.
	ErrUnavailable = errors.New("failed to fetch catalog from sheet")

	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
)

// RangeFetcher reads a rectangular range from the backing spreadsheet as an
// ordered sequence of rows. Rows may be ragged; missing trailing cells are
// treated as empty strings.
type RangeFetcher interface {
	FetchRange(ctx context.Context, sheetRange string) ([][]string, error)
}

// Config holds the sheet ranges the Reader fetches.
type Config struct {
	ProductRange     string
	TestimonialRange string
}

// DefaultConfig returns the conventional sheet layout.
func DefaultConfig() Config {
	return Config{
		ProductRange:     "Katalog!A:J",
		TestimonialRange: "Testimoni!A:E",
	}
}

// Reader exposes query-style access to the spreadsheet-backed catalog.
type Reader struct {
	source RangeFetcher
	cfg    Config
	lg     *zap.Logger
	group  singleflight.Group
}

// NewReader creates a Reader over the given range source. Empty config fields
// fall back to the defaults.
func NewReader(source RangeFetcher, cfg Config, lg *zap.Logger) *Reader {
	def := DefaultConfig()
	if cfg.ProductRange == "" {
		cfg.ProductRange = def.ProductRange
	}
	if cfg.TestimonialRange == "" {
		cfg.TestimonialRange = def.TestimonialRange
	}
	return &Reader{
		source: source,
		cfg:    cfg,
		lg:     lg,
	}
}

// ListProducts fetches the full product range, drops the header row, and
// returns the visible products in source order. An empty sheet yields an
// empty slice, not an error. Concurrent callers share one backend fetch; the
// fetch runs on a detached context so the caller that happened to start it
// cannot fail the whole burst by cancelling.
func (r *Reader) ListProducts(ctx context.Context) ([]product.Product, error) {
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do("products", func() (interface{}, error) {
		return r.fetchProducts(fetchCtx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]product.Product), nil
}

func (r *Reader) fetchProducts(ctx context.Context) ([]product.Product, error) {
	rows, err := r.source.FetchRange(ctx, r.cfg.ProductRange)
	if err != nil {
		r.lg.Error("Fetching product range", zap.String("range", r.cfg.ProductRange), zap.Error(err))
		return nil, ErrUnavailable
	}

	if len(rows) <= 1 {
		r.lg.Info("No product rows in sheet", zap.String("range", r.cfg.ProductRange))
		return []product.Product{}, nil
	}

	products := make([]product.Product, 0, len(rows)-1)
	for _, row := range rows[1:] {
		p := RowToProduct(row)
		if p.Visible() {
			products = append(products, p)
		}
	}

	r.lg.Debug("Loaded active products", zap.Int("count", len(products)))
	return products, nil
}

// GetProduct returns the first visible product with the given id, or
// ErrNotFound when absent.
func (r *Reader) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	products, err := r.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, ErrNotFound
}

// ListCategories returns the distinct non-empty categories of the visible
// products, lexicographically sorted.
func (r *Reader) ListCategories(ctx context.Context) ([]string, error) {
	products, err := r.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(products))
	categories := make([]string, 0, len(products))
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

// ListTestimonials returns the visible testimonials. Testimonials are
// decoration: any failure degrades to an empty result so page composition is
// never blocked on them.
func (r *Reader) ListTestimonials(ctx context.Context) []product.Testimonial {
	rows, err := r.source.FetchRange(ctx, r.cfg.TestimonialRange)
	if err != nil {
		r.lg.Warn("Fetching testimonial range", zap.String("range", r.cfg.TestimonialRange), zap.Error(err))
		return []product.Testimonial{}
	}

	if len(rows) <= 1 {
		return []product.Testimonial{}
	}

	testimonials := make([]product.Testimonial, 0, len(rows)-1)
	for _, row := range rows[1:] {
		t := RowToTestimonial(row)
		if t.Visible() {
			testimonials = append(testimonials, t)
		}
	}
	return testimonials
}

// ConnectivityReport is the result of a catalog connectivity probe.
type ConnectivityReport struct {
	Success  bool
	Message  string
	Products []product.Product
}

// TestConnectivity attempts a product fetch and reports the outcome as a
// value. It never returns an error.
func (r *Reader) TestConnectivity(ctx context.Context) ConnectivityReport {
	products, err := r.ListProducts(ctx)
	if err != nil {
		return ConnectivityReport{
			Success: false,
			Message: fmt.Sprintf("connection failed: %s", err.Error()),
		}
	}
	return ConnectivityReport{
		Success:  true,
		Message:  fmt.Sprintf("connected successfully, found %d active products", len(products)),
		Products: products,
	}
}
