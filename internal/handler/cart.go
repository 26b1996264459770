package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/bakeruu/storefront/internal/domain/cart"
)

// sessionHeader identifies the client cart session. The value is chosen by
// the client and only partitions storage; it is not an authentication token.
const sessionHeader = "Cart-Session"

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing "+sessionHeader+" header")
		return nil, false
	}
	return h.carts.Session(id), true
}

func writeCartSummary(w http.ResponseWriter, s *cart.Store) {
	var e jx.Encoder
	encodeCartSummary(&e, s.Summary())
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.session(w, r)
	if !ok {
		return
	}
	writeCartSummary(w, store)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.session(w, r)
	if !ok {
		return
	}

	productID, quantity, err := decodeCartItemRequest(r.Body)
	if err != nil || productID == "" {
		writeError(w, http.StatusBadRequest, "invalid cart item")
		return
	}
	if quantity < 1 {
		quantity = 1
	}

	p, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		catalogError(w, err)
		return
	}

	store.AddItem(*p, quantity)
	writeCartSummary(w, store)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.session(w, r)
	if !ok {
		return
	}

	_, quantity, err := decodeCartItemRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cart item")
		return
	}

	store.UpdateQuantity(r.PathValue("productId"), quantity)
	writeCartSummary(w, store)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.session(w, r)
	if !ok {
		return
	}
	store.RemoveItem(r.PathValue("productId"))
	writeCartSummary(w, store)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.session(w, r)
	if !ok {
		return
	}
	store.Clear()
	writeCartSummary(w, store)
}

// decodeCartItemRequest parses {"productId":...,"quantity":...}; both fields
// are optional at this layer.
func decodeCartItemRequest(body io.Reader) (productID string, quantity int, err error) {
	data, err := io.ReadAll(io.LimitReader(body, 1<<16))
	if err != nil {
		return "", 0, err
	}

	d := jx.DecodeBytes(data)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			s, err := d.Str()
			if err != nil {
				return err
			}
			productID = s
			return nil
		case "quantity":
			n, err := d.Int()
			if err != nil {
				return err
			}
			quantity = n
			return nil
		default:
			return d.Skip()
		}
	})
	return productID, quantity, err
}
