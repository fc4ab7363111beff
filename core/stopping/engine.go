// Package stopping decides when an adaptive test has measured enough.
// Rules are evaluated in a fixed priority order; the first rule that
// fires wins, and a content-balance gate suppresses the convergence
// rules until domain coverage is satisfied.
package stopping

import (
	"math"

	"github.com/acumenlabs/acumen/core/balancing"
)

// =============================================================================
// Reason
// =============================================================================

// Reason identifies why a test stopped.
type Reason string

const (
	// ReasonNone indicates no stop condition has been met.
	ReasonNone Reason = ""

	// ReasonMaxItems indicates the item-count ceiling was reached.
	ReasonMaxItems Reason = "max_items"

	// ReasonSEThreshold indicates measurement precision reached target.
	ReasonSEThreshold Reason = "se_threshold"

	// ReasonThetaStable indicates the ability estimate has stabilized.
	ReasonThetaStable Reason = "theta_stable"

	// ReasonExhausted indicates the item pool ran out of candidates.
	ReasonExhausted Reason = "all_items_exhausted"
)

// =============================================================================
// Thresholds
// =============================================================================

// Thresholds configures the stopping rules.
type Thresholds struct {
	// MinItems is the floor before precision stopping is allowed.
	MinItems int `yaml:"min_items"`

	// MaxItems is the unconditional ceiling.
	MaxItems int `yaml:"max_items"`

	// SETarget is the precision target for the se_threshold rule.
	SETarget float64 `yaml:"se_target"`

	// StableDelta is the max theta movement between consecutive
	// estimates for the theta_stable rule.
	StableDelta float64 `yaml:"stable_delta"`

	// StableSE is the precision required alongside stability. Looser
	// than SETarget on purpose: a stalled estimate with near-target
	// precision is not worth more items.
	StableSE float64 `yaml:"stable_se"`
}

// DefaultThresholds returns the standard stopping configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinItems:    8,
		MaxItems:    30,
		SETarget:    0.30,
		StableDelta: 0.05,
		StableSE:    0.35,
	}
}

// =============================================================================
// Decision
// =============================================================================

// Decision is the outcome of one stopping evaluation. Details records the
// raw actual-vs-threshold values per evaluated rule so a caller can audit
// why the decision was (or was not) made.
type Decision struct {
	ShouldStop bool
	Reason     Reason
	Details    map[string]any
}

// =============================================================================
// Engine
// =============================================================================

// Engine evaluates stopping rules against session state. Stateless and
// safe for concurrent use across sessions.
type Engine struct {
	thresholds Thresholds
}

// New constructs an Engine.
func New(thresholds Thresholds) *Engine {
	return &Engine{thresholds: thresholds}
}

// Thresholds returns the engine's configuration.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// State is the per-evaluation session snapshot.
type State struct {
	SE           float64
	NumItems     int
	Coverage     map[string]int
	ThetaHistory []float64

	// PoolExhausted is set by the caller when the selector returned no
	// candidate on the previous pick.
	PoolExhausted bool
}

// Check evaluates the stopping rules in priority order.
//
//  1. Max-items ceiling: stops unconditionally.
//  2. Content-balance gate: when coverage is not yet satisfied, rules 3
//     and 4 are suppressed. The gate never stops the test itself and has
//     no reason code of its own; its verdict is recorded in Details.
//  3. SE threshold: stop once precision and the item floor are met.
//  4. Theta stabilization: stop when consecutive estimates agree within
//     StableDelta and SE is under the looser StableSE bound. Skipped
//     (reported as not evaluated) with fewer than two estimates.
//  5. Pool exhaustion: a terminal state, not an error.
func (e *Engine) Check(state State, balancer *balancing.Balancer) Decision {
	t := e.thresholds
	details := map[string]any{
		"num_items": state.NumItems,
		"max_items": t.MaxItems,
		"se":        state.SE,
	}

	// Rule 1: the ceiling overrides everything; a test must terminate.
	if state.NumItems >= t.MaxItems {
		details["rule"] = "max_items"
		return Decision{ShouldStop: true, Reason: ReasonMaxItems, Details: details}
	}

	// Rule 2: the content-balance gate.
	balanced := balancer.Balanced(state.Coverage)
	details["content_balanced"] = balanced

	// Rule 3: precision target.
	details["se_target"] = t.SETarget
	details["min_items"] = t.MinItems
	if balanced && state.SE <= t.SETarget && state.NumItems >= t.MinItems {
		details["rule"] = "se_threshold"
		return Decision{ShouldStop: true, Reason: ReasonSEThreshold, Details: details}
	}

	// Rule 4: ability stabilization.
	if n := len(state.ThetaHistory); n >= 2 {
		delta := math.Abs(state.ThetaHistory[n-1] - state.ThetaHistory[n-2])
		details["theta_delta"] = delta
		details["stable_delta"] = t.StableDelta
		details["stable_se"] = t.StableSE
		if balanced && delta < t.StableDelta && state.SE < t.StableSE {
			details["rule"] = "theta_stable"
			return Decision{ShouldStop: true, Reason: ReasonThetaStable, Details: details}
		}
	} else {
		details["theta_delta"] = "not_evaluated"
	}

	// Rule 5: exhaustion. Precision and coverage no longer matter; there
	// is nothing left to administer.
	if state.PoolExhausted {
		details["rule"] = "all_items_exhausted"
		return Decision{ShouldStop: true, Reason: ReasonExhausted, Details: details}
	}

	return Decision{ShouldStop: false, Reason: ReasonNone, Details: details}
}
