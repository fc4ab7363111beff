// Package bank supplies the adaptive engine with calibrated item pools.
// Pools are immutable snapshots published atomically: a calibration
// refresh or bank-file change builds a complete replacement pool and
// swaps it in, so a running session never observes a partial update.
package bank

import (
	"sync/atomic"

	"github.com/acumenlabs/acumen/core/irt"
)

// =============================================================================
// Pool
// =============================================================================

// Pool is an immutable calibrated-item snapshot. Build one with NewPool;
// never mutate the items after publication.
type Pool struct {
	raw      []irt.Item
	items    []irt.CalibratedItem
	byDomain map[string]int
	usable   int
}

// NewPool wraps a slice of items into a snapshot, precomputing per-domain
// counts over the usable subset.
func NewPool(items []irt.Item) *Pool {
	p := &Pool{
		raw:      items,
		items:    make([]irt.CalibratedItem, 0, len(items)),
		byDomain: make(map[string]int),
	}
	for _, it := range items {
		p.items = append(p.items, it)
		if irt.Usable(it) {
			p.usable++
			p.byDomain[it.DomainName]++
		}
	}
	return p
}

// Items returns all items, calibrated or not. Callers must not mutate.
func (p *Pool) Items() []irt.CalibratedItem { return p.items }

// RawItems returns the concrete item values, for persistence and export.
func (p *Pool) RawItems() []irt.Item { return p.raw }

// Len returns the total item count.
func (p *Pool) Len() int { return len(p.items) }

// UsableCount returns how many items are calibrated well enough to
// administer.
func (p *Pool) UsableCount() int { return p.usable }

// DomainCounts returns usable-item counts per domain. The returned map
// is shared; callers must not mutate.
func (p *Pool) DomainCounts() map[string]int { return p.byDomain }

// =============================================================================
// Provider
// =============================================================================

// Provider publishes pool snapshots to the engine. It satisfies the
// session engine's PoolProvider contract.
type Provider struct {
	current atomic.Pointer[Pool]
}

// NewProvider constructs a Provider seeded with an empty pool.
func NewProvider() *Provider {
	p := &Provider{}
	p.current.Store(NewPool(nil))
	return p
}

// Pool returns the current snapshot's items.
func (p *Provider) Pool() []irt.CalibratedItem {
	return p.current.Load().Items()
}

// Snapshot returns the current snapshot.
func (p *Provider) Snapshot() *Pool {
	return p.current.Load()
}

// Publish atomically replaces the current snapshot.
func (p *Provider) Publish(pool *Pool) {
	p.current.Store(pool)
}
