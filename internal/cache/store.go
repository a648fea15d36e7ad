package cache

import (
	"context"

	"github.com/sells-group/doormap/internal/store"
)

// StoreBackend keeps stages in the stage_cache table of a store.
type StoreBackend struct {
	st store.Store
}

// NewStoreBackend returns a backend over st.
func NewStoreBackend(st store.Store) *StoreBackend {
	return &StoreBackend{st: st}
}

func (s *StoreBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.st.GetStage(ctx, key)
}

func (s *StoreBackend) Put(ctx context.Context, key string, payload []byte) error {
	return s.st.PutStage(ctx, key, payload)
}
