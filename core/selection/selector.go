// Package selection chooses the next item to administer in an adaptive
// test: it filters the pool, applies content balancing, ranks candidates
// by Fisher information at the current ability estimate, and delegates
// the final pick to randomesque exposure control.
package selection

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/acumenlabs/acumen/core/balancing"
	"github.com/acumenlabs/acumen/core/exposure"
	"github.com/acumenlabs/acumen/core/irt"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrInvalidWeights indicates domain target weights that are negative
	// or do not sum to 1.
	ErrInvalidWeights = errors.New("domain target weights must be non-negative and sum to 1")
)

// weightSumTolerance absorbs floating error in caller-supplied weights.
const weightSumTolerance = 1e-6

// ValidateWeights checks that every weight is non-negative and the
// weights sum to 1 within tolerance. Invalid weights are a configuration
// error: fail fast, never silently renormalize.
func ValidateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("%w: no domains", ErrInvalidWeights)
	}
	sum := 0.0
	for d, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: domain %q has weight %g", ErrInvalidWeights, d, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: sum is %g", ErrInvalidWeights, sum)
	}
	return nil
}

// =============================================================================
// Selector
// =============================================================================

// Config holds the session-invariant selection policy.
type Config struct {
	// TargetWeights maps each content domain to its target proportion.
	TargetWeights map[string]float64

	// MinPerDomain is the hard minimum item count per domain.
	MinPerDomain int

	// RandomesqueK is the exposure-control candidate window.
	RandomesqueK int
}

// Selector picks the next item for a session. It composes a content
// balancer and a randomesque exposure selector; both are owned by the
// caller and injected.
type Selector struct {
	cfg      Config
	balancer *balancing.Balancer
	random   *exposure.Selector
	monitor  *exposure.Monitor
}

// New constructs a Selector, validating the policy up front. monitor may
// be nil to disable exposure tracking (useful in tests and replay).
func New(cfg Config, random *exposure.Selector, monitor *exposure.Monitor) (*Selector, error) {
	if err := ValidateWeights(cfg.TargetWeights); err != nil {
		return nil, err
	}
	if cfg.RandomesqueK <= 0 {
		return nil, fmt.Errorf("randomesque k=%d: %w", cfg.RandomesqueK, exposure.ErrInvalidK)
	}
	return &Selector{
		cfg:      cfg,
		balancer: balancing.New(cfg.TargetWeights, cfg.MinPerDomain),
		random:   random,
		monitor:  monitor,
	}, nil
}

// Balancer exposes the selector's content balancer, shared with the
// stopping engine so both see one coverage policy.
func (s *Selector) Balancer() *balancing.Balancer { return s.balancer }

// Request carries the per-call selection state.
type Request struct {
	// Pool is the full calibrated-item snapshot.
	Pool []irt.CalibratedItem

	// Theta is the current ability estimate.
	Theta float64

	// Administered holds item IDs already used in this session.
	Administered map[string]bool

	// Seen holds item IDs the examinee saw in earlier sessions.
	Seen map[string]bool

	// Coverage maps domain to items administered so far this session.
	Coverage map[string]int
}

// Next returns the next item to administer, or nil if the usable pool is
// exhausted. Exhaustion is not an error: the caller treats it as a forced
// stop.
func (s *Selector) Next(req Request) (irt.CalibratedItem, error) {
	candidates := s.filter(req.Pool, req.Administered, req.Seen)
	if len(candidates) == 0 {
		return nil, nil
	}

	// Restrict to the priority domain when the balancer names one. If the
	// domain's own pool is empty, fall back to the full candidate set
	// rather than dead-ending the test.
	if domain := s.balancer.PriorityDomain(req.Coverage); domain != "" {
		restricted := candidates[:0:0]
		for _, it := range candidates {
			if it.Domain() == domain {
				restricted = append(restricted, it)
			}
		}
		if len(restricted) > 0 {
			candidates = restricted
		}
	}

	rankByInformation(candidates, req.Theta)
	return s.random.Select(candidates, s.cfg.RandomesqueK, s.monitor)
}

// filter drops uncalibrated, already-administered, and previously-seen
// items.
func (s *Selector) filter(pool []irt.CalibratedItem, administered, seen map[string]bool) []irt.CalibratedItem {
	out := make([]irt.CalibratedItem, 0, len(pool))
	for _, it := range pool {
		if !irt.Usable(it) {
			continue
		}
		if administered[it.ID()] || seen[it.ID()] {
			continue
		}
		out = append(out, it)
	}
	return out
}

// rankByInformation sorts candidates by descending Fisher information at
// theta, with item ID as a deterministic tie-break.
func rankByInformation(candidates []irt.CalibratedItem, theta float64) {
	info := make(map[string]float64, len(candidates))
	for _, it := range candidates {
		info[it.ID()] = irt.Information(theta, it.Discrimination(), it.Difficulty())
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := info[candidates[i].ID()], info[candidates[j].ID()]
		if a != b {
			return a > b
		}
		return candidates[i].ID() < candidates[j].ID()
	})
}
