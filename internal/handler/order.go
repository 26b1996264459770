package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/bakeruu/storefront/internal/domain/stock"
)

// placeOrder is the order submission boundary. The payload is validated
// before any backend call: a malformed or empty request never reaches the
// stock workflow. On acceptance the workflow runs and the response reports
// per-item results — 200 when every item succeeded, 207 Multi-Status when
// some failed.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items, err := decodeOrderItems(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "invalid order items")
		return
	}
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "invalid item format")
			return
		}
	}

	results := h.stock.DecreaseStock(r.Context(), items)

	allSuccess := true
	for _, res := range results {
		if !res.Success {
			allSuccess = false
			break
		}
	}

	status := http.StatusOK
	message := "stock updated successfully"
	if !allSuccess {
		status = http.StatusMultiStatus
		message = "some stock updates failed"
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("success")
	e.Bool(allSuccess)
	e.FieldStart("orderId")
	e.Str(uuid.New().String())
	e.FieldStart("message")
	e.Str(message)
	e.FieldStart("results")
	e.ArrStart()
	for _, res := range results {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(res.ProductID)
		e.FieldStart("success")
		e.Bool(res.Success)
		e.FieldStart("message")
		e.Str(res.Message)
		if res.Success {
			e.FieldStart("newStock")
			e.Float64(res.NewStock.InexactFloat64())
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	writeJSON(w, status, &e)
}

// decodeOrderItems parses {"items":[{"productId":...,"quantity":...}]}.
// Structural problems (not an object, items not an array, non-numeric
// quantity) surface as errors; value-level problems are left for the
// validation pass so they can be reported distinctly.
func decodeOrderItems(body []byte) ([]stock.UpdateItem, error) {
	var items []stock.UpdateItem
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var item stock.UpdateItem
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "productId":
					s, err := d.Str()
					if err != nil {
						return err
					}
					item.ProductID = s
					return nil
				case "quantity":
					n, err := d.Int()
					if err != nil {
						return err
					}
					item.Quantity = n
					return nil
				default:
					return d.Skip()
				}
			}); err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
