package cart

import (
	"sync"

	"go.uber.org/zap"

	"github.com/bakeruu/storefront/internal/storage"
)

const storageKeyPrefix = "bakeruu_cart_"

// Manager hands out one Store per client session, all backed by the same
// storage. Stores are created lazily and kept for the life of the process;
// their snapshots outlive it.
type Manager struct {
	storage storage.Storage
	lg      *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager creates a Manager over the given storage.
func NewManager(st storage.Storage, lg *zap.Logger) *Manager {
	return &Manager{
		storage: st,
		lg:      lg,
		stores:  make(map[string]*Store),
	}
}

// Session returns the cart store for the given session id, creating and
// loading it on first use.
func (m *Manager) Session(id string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[id]; ok {
		return s
	}
	s := NewStore(m.storage, storageKeyPrefix+id, m.lg.With(zap.String("session", id)))
	m.stores[id] = s
	return s
}
