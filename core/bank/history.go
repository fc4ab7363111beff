package bank

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// =============================================================================
// HistoryCache
// =============================================================================

// HistoryCache fronts the store's seen-item lookups with an LRU cache.
// Session starts hit this once per examinee; retakes by the same cohort
// within the cache window skip the database entirely.
type HistoryCache struct {
	store *Store
	cache *lru.Cache[string, map[string]bool]
}

// DefaultHistoryCacheSize bounds the number of examinee entries held.
const DefaultHistoryCacheSize = 4096

// NewHistoryCache constructs a HistoryCache over the store.
func NewHistoryCache(store *Store, size int) (*HistoryCache, error) {
	if size <= 0 {
		size = DefaultHistoryCacheSize
	}
	cache, err := lru.New[string, map[string]bool](size)
	if err != nil {
		return nil, err
	}
	return &HistoryCache{store: store, cache: cache}, nil
}

// SeenItemIDs returns the examinee's seen-item set, from cache when
// possible. The returned map is shared: callers must treat it as
// read-only.
func (h *HistoryCache) SeenItemIDs(ctx context.Context, examineeID string) (map[string]bool, error) {
	if seen, ok := h.cache.Get(examineeID); ok {
		return seen, nil
	}
	seen, err := h.store.SeenItemIDs(ctx, examineeID)
	if err != nil {
		return nil, err
	}
	h.cache.Add(examineeID, seen)
	return seen, nil
}

// Invalidate drops an examinee's cached entry. Call after recording new
// responses so the next session start sees them.
func (h *HistoryCache) Invalidate(examineeID string) {
	h.cache.Remove(examineeID)
}

// Len returns the number of cached examinees.
func (h *HistoryCache) Len() int { return h.cache.Len() }
