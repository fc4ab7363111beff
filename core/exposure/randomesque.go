// Package exposure implements item-exposure security for adaptive
// testing: randomesque selection (pick uniformly among the top-K most
// informative candidates so the same items are not shown to every
// examinee) and a process-wide monitor tracking per-item exposure rates.
package exposure

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/acumenlabs/acumen/core/irt"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNoCandidates indicates an empty candidate list was supplied.
	ErrNoCandidates = errors.New("no candidates for randomesque selection")

	// ErrInvalidK indicates a non-positive randomesque K.
	ErrInvalidK = errors.New("randomesque k must be positive")
)

// =============================================================================
// Selector
// =============================================================================

// Selector performs randomesque selection. The random source is
// injectable so tests can pin outcomes; a nil source falls back to the
// package-level rand.
type Selector struct {
	rng *rand.Rand
}

// NewSelector constructs a Selector. rng may be nil.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Select picks one item uniformly at random from the top min(k, len)
// entries of ranked, which must already be sorted by descending
// information. If monitor is non-nil the pick is recorded.
func (s *Selector) Select(ranked []irt.CalibratedItem, k int, monitor *Monitor) (irt.CalibratedItem, error) {
	if len(ranked) == 0 {
		return nil, ErrNoCandidates
	}
	if k <= 0 {
		return nil, fmt.Errorf("k=%d: %w", k, ErrInvalidK)
	}

	top := k
	if top > len(ranked) {
		top = len(ranked)
	}
	chosen := ranked[s.intn(top)]

	if monitor != nil {
		monitor.Record(chosen.ID())
	}
	return chosen, nil
}

func (s *Selector) intn(n int) int {
	if n <= 1 {
		return 0
	}
	if s.rng != nil {
		return s.rng.Intn(n)
	}
	return rand.Intn(n)
}
