package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/bakeruu/storefront/internal/domain/catalog"
	"github.com/bakeruu/storefront/internal/domain/product"
)

// catalogError maps catalog read failures onto HTTP responses.
func catalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		catalogError(w, err)
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		filtered := make([]product.Product, 0, len(products))
		for _, p := range products {
			if p.Category == category {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	var e jx.Encoder
	encodeProducts(&e, products)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		catalogError(w, err)
		return
	}

	var e jx.Encoder
	encodeProduct(&e, *p)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		catalogError(w, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, c := range categories {
		e.Str(c)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) listTestimonials(w http.ResponseWriter, r *http.Request) {
	var e jx.Encoder
	encodeTestimonials(&e, h.catalog.ListTestimonials(r.Context()))
	writeJSON(w, http.StatusOK, &e)
}

// storefront composes the home page payload: the first four visible products
// as featured, the best sellers, and the testimonials.
func (h *Handler) storefront(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		catalogError(w, err)
		return
	}

	featured := products
	if len(featured) > 4 {
		featured = featured[:4]
	}

	bestSellers := make([]product.Product, 0, len(products))
	for _, p := range products {
		if p.IsBestSeller {
			bestSellers = append(bestSellers, p)
		}
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("featured")
	encodeProducts(&e, featured)
	e.FieldStart("bestSellers")
	encodeProducts(&e, bestSellers)
	e.FieldStart("testimonials")
	encodeTestimonials(&e, h.catalog.ListTestimonials(r.Context()))
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}

// testSheets reports backend connectivity. It always answers 200 with a
// result object, even when the probe fails.
func (h *Handler) testSheets(w http.ResponseWriter, r *http.Request) {
	report := h.catalog.TestConnectivity(r.Context())

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("success")
	e.Bool(report.Success)
	e.FieldStart("message")
	e.Str(report.Message)
	if report.Success {
		e.FieldStart("products")
		encodeProducts(&e, report.Products)
	}
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}
