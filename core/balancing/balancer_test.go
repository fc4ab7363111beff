package balancing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var sixDomains = map[string]float64{
	"logic":      0.20,
	"pattern":    0.20,
	"spatial":    0.15,
	"verbal":     0.15,
	"memory":     0.15,
	"processing": 0.15,
}

func TestPriorityDomain_HardDeficit(t *testing.T) {
	b := New(sixDomains, 2)
	coverage := map[string]int{
		"logic": 2, "pattern": 2, "spatial": 2,
		"verbal": 2, "memory": 0, "processing": 1,
	}
	// memory has deficit 2, processing deficit 1.
	assert.Equal(t, "memory", b.PriorityDomain(coverage))
}

func TestPriorityDomain_DeficitTieBreaksDeterministically(t *testing.T) {
	b := New(sixDomains, 2)
	coverage := map[string]int{
		"logic": 2, "pattern": 2, "spatial": 2,
		"verbal": 0, "memory": 0, "processing": 2,
	}
	// memory and verbal both have deficit 2; sorted order puts memory first.
	for i := 0; i < 10; i++ {
		assert.Equal(t, "memory", b.PriorityDomain(coverage))
	}
}

func TestPriorityDomain_EmptyCoverageUsesHighestWeight(t *testing.T) {
	b := New(map[string]float64{"logic": 0.6, "pattern": 0.4}, 0)
	assert.Equal(t, "logic", b.PriorityDomain(map[string]int{}))
}

func TestPriorityDomain_SoftRule(t *testing.T) {
	b := New(map[string]float64{"logic": 0.5, "pattern": 0.5}, 1)
	// 9 logic vs 1 pattern: pattern's gap is 0.5-0.1=0.4 > tolerance.
	coverage := map[string]int{"logic": 9, "pattern": 1}
	assert.Equal(t, "pattern", b.PriorityDomain(coverage))
}

func TestPriorityDomain_WithinToleranceReturnsNone(t *testing.T) {
	b := New(map[string]float64{"logic": 0.5, "pattern": 0.5}, 1)
	coverage := map[string]int{"logic": 5, "pattern": 5}
	assert.Equal(t, "", b.PriorityDomain(coverage))

	// 6/4 split: gap 0.1 does not exceed the tolerance.
	coverage = map[string]int{"logic": 6, "pattern": 4}
	assert.Equal(t, "", b.PriorityDomain(coverage))
}

func TestBalanced(t *testing.T) {
	b := New(sixDomains, 2)

	assert.False(t, b.Balanced(map[string]int{}))
	assert.False(t, b.Balanced(map[string]int{
		"logic": 2, "pattern": 2, "spatial": 2,
		"verbal": 2, "memory": 1, "processing": 2,
	}))
	assert.True(t, b.Balanced(map[string]int{
		"logic": 2, "pattern": 2, "spatial": 2,
		"verbal": 2, "memory": 2, "processing": 3,
	}))
}

func TestBalanced_MissingDomainCountsAsZero(t *testing.T) {
	b := New(sixDomains, 1)
	coverage := map[string]int{
		"logic": 3, "pattern": 3, "spatial": 3, "verbal": 3, "memory": 3,
		// processing absent entirely
	}
	assert.False(t, b.Balanced(coverage))
}

func TestBalanced_ZeroMinimumAlwaysTrue(t *testing.T) {
	b := New(sixDomains, 0)
	assert.True(t, b.Balanced(map[string]int{}))
}
