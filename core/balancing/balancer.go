// Package balancing enforces content-domain coverage during adaptive item
// selection. A two-tier policy decides which domain, if any, must be
// prioritized next: a hard minimum-items rule, then a soft proportional
// rule against target weights.
package balancing

import "sort"

// =============================================================================
// Constants
// =============================================================================

// ProportionTolerance is how far a domain's administered proportion may
// lag its target weight before the soft rule prioritizes it.
const ProportionTolerance = 0.10

// =============================================================================
// Balancer
// =============================================================================

// Balancer decides domain prioritization. It holds the session-invariant
// policy inputs; coverage is passed per call because it changes with
// every administered item.
type Balancer struct {
	targetWeights map[string]float64
	minPerDomain  int

	// domains in deterministic order, for stable tie-breaking
	domains []string
}

// New constructs a Balancer over the given target weights. Domain order
// for tie-breaking is the sorted key order, so behavior is deterministic
// across runs regardless of map iteration order.
func New(targetWeights map[string]float64, minPerDomain int) *Balancer {
	domains := make([]string, 0, len(targetWeights))
	for d := range targetWeights {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return &Balancer{
		targetWeights: targetWeights,
		minPerDomain:  minPerDomain,
		domains:       domains,
	}
}

// PriorityDomain returns the domain that must be prioritized for the next
// selection, or "" if no domain needs prioritization.
//
// Tier 1 (hard): any domain below the per-domain minimum is prioritized;
// the largest deficit wins, ties broken by sorted domain order.
//
// Tier 2 (soft): once all minimums are met, the domain whose actual
// proportion lags its target weight by more than ProportionTolerance is
// prioritized, largest gap first. Before any item has been administered
// the highest-weight domain is returned.
func (b *Balancer) PriorityDomain(coverage map[string]int) string {
	// Hard minimum rule.
	bestDomain := ""
	bestDeficit := 0
	for _, d := range b.domains {
		deficit := b.minPerDomain - coverage[d]
		if deficit > bestDeficit {
			bestDeficit = deficit
			bestDomain = d
		}
	}
	if bestDomain != "" {
		return bestDomain
	}

	// Soft proportional rule.
	total := 0
	for _, d := range b.domains {
		total += coverage[d]
	}
	if total == 0 {
		return b.highestWeightDomain()
	}

	bestGap := ProportionTolerance
	for _, d := range b.domains {
		actual := float64(coverage[d]) / float64(total)
		gap := b.targetWeights[d] - actual
		if gap > bestGap {
			bestGap = gap
			bestDomain = d
		}
	}
	return bestDomain
}

// Balanced reports whether every target domain has reached the hard
// per-domain minimum. Domains absent from coverage count as zero. This is
// the gate the stopping engine consults; the soft proportional rule never
// affects whether a test may stop.
func (b *Balancer) Balanced(coverage map[string]int) bool {
	for _, d := range b.domains {
		if coverage[d] < b.minPerDomain {
			return false
		}
	}
	return true
}

// MinPerDomain returns the hard minimum the balancer enforces.
func (b *Balancer) MinPerDomain() int { return b.minPerDomain }

// Domains returns the target domains in the balancer's deterministic order.
func (b *Balancer) Domains() []string { return b.domains }

func (b *Balancer) highestWeightDomain() string {
	best := ""
	bestW := -1.0
	for _, d := range b.domains {
		if w := b.targetWeights[d]; w > bestW {
			bestW = w
			best = d
		}
	}
	return best
}
