package exposure

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// Monitor
// =============================================================================

// Monitor tracks how often each item is selected across all concurrent
// sessions in this process. Rates feed periodic security alerting; they
// never block selection in real time. Scope is intentionally a single
// process — a multi-node deployment needs a shared store behind the same
// surface.
type Monitor struct {
	mu     sync.Mutex
	counts map[string]int
	total  int
}

// NewMonitor constructs an empty Monitor.
func NewMonitor() *Monitor {
	return &Monitor{counts: make(map[string]int)}
}

// Record notes that an item was selected.
func (m *Monitor) Record(itemID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[itemID]++
	m.total++
}

// Rate returns the fraction of all selections that went to the item.
// Before any selection has been recorded the rate is 0.
func (m *Monitor) Rate(itemID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.total == 0 {
		return 0
	}
	return float64(m.counts[itemID]) / float64(m.total)
}

// Total returns the number of selections recorded so far.
func (m *Monitor) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// ItemRate pairs an item with its exposure rate.
type ItemRate struct {
	ItemID string
	Rate   float64
	Count  int
}

// Overexposed returns items whose exposure rate exceeds threshold,
// sorted by descending rate. The snapshot is taken under the lock; any
// downstream logging happens on the copy.
func (m *Monitor) Overexposed(threshold float64) []ItemRate {
	m.mu.Lock()
	var out []ItemRate
	if m.total > 0 {
		for id, c := range m.counts {
			rate := float64(c) / float64(m.total)
			if rate > threshold {
				out = append(out, ItemRate{ItemID: id, Rate: rate, Count: c})
			}
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// Snapshot returns a copy of all per-item counts and the running total.
func (m *Monitor) Snapshot() (map[string]int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int, len(m.counts))
	for id, c := range m.counts {
		counts[id] = c
	}
	return counts, m.total
}

// =============================================================================
// Alerter
// =============================================================================

// Alerter periodically logs overexposed items. The monitor snapshot is
// taken under the monitor's lock; logging happens outside it.
type Alerter struct {
	monitor   *Monitor
	threshold float64
	interval  time.Duration
	logger    *slog.Logger
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewAlerter constructs an Alerter. logger may be nil.
func NewAlerter(monitor *Monitor, threshold float64, interval time.Duration, logger *slog.Logger) *Alerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Alerter{
		monitor:   monitor,
		threshold: threshold,
		interval:  interval,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

// Start begins periodic checks in a background goroutine.
func (a *Alerter) Start() {
	go func() {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.CheckNow()
			case <-a.stop:
				return
			}
		}
	}()
}

// CheckNow runs one alerting pass immediately.
func (a *Alerter) CheckNow() {
	for _, ir := range a.monitor.Overexposed(a.threshold) {
		a.logger.Warn("item overexposed",
			"item_id", ir.ItemID,
			"rate", ir.Rate,
			"count", ir.Count,
			"threshold", a.threshold,
		)
	}
}

// Stop halts periodic checks. Safe to call more than once.
func (a *Alerter) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
}
