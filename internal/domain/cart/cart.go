// Package cart implements the persistent shopping cart: an ordered collection
// of line items keyed by product id, snapshotting name, image, and unit price
// at add time, persisted through an injected storage on every mutation.
package cart

import (
	"encoding/json"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bakeruu/storefront/internal/domain/product"
	"github.com/bakeruu/storefront/internal/storage"
)

// Item is one cart line. Name, image, and unit price are captured when the
// item is added and do not track later catalog changes.
type Item struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	ImageURL    string          `json:"imageUrl"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

// Summary is the derived view of a cart. It is recomputed on demand and never
// stored, so it cannot diverge from the item collection.
type Summary struct {
	Items      []Item
	TotalItems int
	TotalPrice decimal.Decimal
}

// Store is a stateful cart bound to one storage key. At most one item exists
// per product id; an item whose quantity drops to zero or below is removed.
//
// Every mutation persists the full item collection synchronously. A storage
// write failure is logged and swallowed: the in-memory cart stays correct even
// when persistence does not.
type Store struct {
	key     string
	storage storage.Storage
	lg      *zap.Logger

	mu    sync.Mutex
	items []Item
	subs  []func(Summary)
}

// NewStore loads any previously persisted snapshot under key and returns the
// store. A missing or corrupt snapshot starts the cart empty; startup never
// fails.
func NewStore(st storage.Storage, key string, lg *zap.Logger) *Store {
	s := &Store{
		key:     key,
		storage: st,
		lg:      lg,
	}
	s.load()
	return s
}

func (s *Store) load() {
	raw, ok, err := s.storage.Get(s.key)
	if err != nil {
		s.lg.Warn("Reading cart snapshot", zap.String("key", s.key), zap.Error(err))
		return
	}
	if !ok {
		return
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.lg.Warn("Corrupt cart snapshot, starting empty", zap.String("key", s.key), zap.Error(err))
		return
	}
	s.items = items
}

// persist serializes the current items back to storage. Caller holds s.mu.
func (s *Store) persist() {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.lg.Error("Encoding cart snapshot", zap.String("key", s.key), zap.Error(err))
		return
	}
	if err := s.storage.Set(s.key, string(data)); err != nil {
		s.lg.Error("Persisting cart snapshot", zap.String("key", s.key), zap.Error(err))
	}
}

// AddItem adds quantity units of the product. When the product is already in
// the cart its quantity accumulates and the original position and price
// snapshot are preserved; otherwise a new line is appended with the product's
// effective price. A non-positive quantity counts as one.
func (s *Store) AddItem(p product.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	merged := false
	for i := range s.items {
		if s.items[i].ProductID == p.ID {
			s.items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			ImageURL:    p.ImageURL,
			UnitPrice:   p.EffectivePrice(),
			Quantity:    quantity,
		})
	}
	s.persist()
	sum := s.summaryLocked()
	s.mu.Unlock()

	s.notify(sum)
}

// UpdateQuantity sets the quantity of an item, leaving its snapshots
// untouched. A quantity of zero or below removes the item.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	s.mu.Lock()
	if quantity <= 0 {
		s.removeLocked(productID)
	} else {
		for i := range s.items {
			if s.items[i].ProductID == productID {
				s.items[i].Quantity = quantity
				break
			}
		}
	}
	s.persist()
	sum := s.summaryLocked()
	s.mu.Unlock()

	s.notify(sum)
}

// RemoveItem drops the item for productID. Removing an absent item is a
// no-op.
func (s *Store) RemoveItem(productID string) {
	s.mu.Lock()
	s.removeLocked(productID)
	s.persist()
	sum := s.summaryLocked()
	s.mu.Unlock()

	s.notify(sum)
}

func (s *Store) removeLocked(productID string) {
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	s.items = kept
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.persist()
	sum := s.summaryLocked()
	s.mu.Unlock()

	s.notify(sum)
}

// Items returns a copy of the current item collection.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

// Summary recomputes the derived cart view from the current state.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Store) summaryLocked() Summary {
	items := append([]Item(nil), s.items...)
	totalItems := 0
	totalPrice := decimal.Zero
	for _, it := range items {
		totalItems += it.Quantity
		totalPrice = totalPrice.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return Summary{
		Items:      items,
		TotalItems: totalItems,
		TotalPrice: totalPrice,
	}
}

// ItemCount returns the sum of all line quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, it := range s.items {
		count += it.Quantity
	}
	return count
}

// Subscribe registers a callback invoked with the fresh summary after every
// mutation. Callbacks run on the mutating goroutine, outside the store lock.
func (s *Store) Subscribe(fn func(Summary)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) notify(sum Summary) {
	s.mu.Lock()
	subs := append(([]func(Summary))(nil), s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(sum)
	}
}
