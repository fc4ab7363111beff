package selection

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acumenlabs/acumen/core/exposure"
	"github.com/acumenlabs/acumen/core/irt"
)

func evenWeights(domains ...string) map[string]float64 {
	w := make(map[string]float64, len(domains))
	for _, d := range domains {
		w[d] = 1.0 / float64(len(domains))
	}
	return w
}

func newSelector(t *testing.T, cfg Config) *Selector {
	t.Helper()
	s, err := New(cfg, exposure.NewSelector(rand.New(rand.NewSource(1))), nil)
	require.NoError(t, err)
	return s
}

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights map[string]float64
		ok      bool
	}{
		{"valid pair", map[string]float64{"logic": 0.5, "pattern": 0.5}, true},
		{"valid with float error", map[string]float64{"a": 0.1, "b": 0.2, "c": 0.7}, true},
		{"sum too high", map[string]float64{"pattern": 0.5, "logic": 0.6}, false},
		{"sum too low", map[string]float64{"logic": 0.3, "pattern": 0.3}, false},
		{"negative weight", map[string]float64{"logic": -0.2, "pattern": 1.2}, false},
		{"empty", map[string]float64{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWeights(tt.weights)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidWeights)
			}
		})
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(Config{
		TargetWeights: map[string]float64{"pattern": 0.5, "logic": 0.6},
		RandomesqueK:  3,
	}, exposure.NewSelector(nil), nil)
	assert.ErrorIs(t, err, ErrInvalidWeights)

	_, err = New(Config{
		TargetWeights: evenWeights("logic", "pattern"),
		RandomesqueK:  0,
	}, exposure.NewSelector(nil), nil)
	assert.ErrorIs(t, err, exposure.ErrInvalidK)
}

func poolOf(items ...irt.Item) []irt.CalibratedItem {
	out := make([]irt.CalibratedItem, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}

func TestNext_PicksMostInformative(t *testing.T) {
	s := newSelector(t, Config{
		TargetWeights: evenWeights("logic"),
		RandomesqueK:  1,
	})
	pool := poolOf(
		irt.Item{ItemID: "far", A: 1.0, B: 3.0, DomainName: "logic"},
		irt.Item{ItemID: "near", A: 1.0, B: 0.1, DomainName: "logic"},
		irt.Item{ItemID: "weak", A: 0.3, B: 0.0, DomainName: "logic"},
	)
	got, err := s.Next(Request{Pool: pool, Theta: 0.0})
	require.NoError(t, err)
	assert.Equal(t, "near", got.ID())
}

func TestNext_SkipsAdministeredAndSeen(t *testing.T) {
	s := newSelector(t, Config{
		TargetWeights: evenWeights("logic"),
		RandomesqueK:  1,
	})
	pool := poolOf(
		irt.Item{ItemID: "a", A: 1.2, B: 0.0, DomainName: "logic"},
		irt.Item{ItemID: "b", A: 1.1, B: 0.0, DomainName: "logic"},
		irt.Item{ItemID: "c", A: 0.9, B: 0.0, DomainName: "logic"},
	)
	got, err := s.Next(Request{
		Pool:         pool,
		Theta:        0,
		Administered: map[string]bool{"a": true},
		Seen:         map[string]bool{"b": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "c", got.ID())
}

func TestNext_SkipsUncalibrated(t *testing.T) {
	s := newSelector(t, Config{
		TargetWeights: evenWeights("logic"),
		RandomesqueK:  1,
	})
	pool := poolOf(
		irt.Item{ItemID: "bad-a", A: 0, B: 0, DomainName: "logic"},
		irt.Item{ItemID: "bad-b", A: 1.0, B: math.NaN(), DomainName: "logic"},
		irt.Item{ItemID: "ok", A: 0.8, B: 0.4, DomainName: "logic"},
	)
	got, err := s.Next(Request{Pool: pool, Theta: 0})
	require.NoError(t, err)
	assert.Equal(t, "ok", got.ID())
}

func TestNext_HonorsPriorityDomain(t *testing.T) {
	s := newSelector(t, Config{
		TargetWeights: evenWeights("logic", "pattern"),
		MinPerDomain:  1,
		RandomesqueK:  1,
	})
	pool := poolOf(
		// Most informative item overall is logic, but pattern has a hard
		// deficit and must win.
		irt.Item{ItemID: "logic-best", A: 2.0, B: 0.0, DomainName: "logic"},
		irt.Item{ItemID: "pattern-ok", A: 0.8, B: 1.0, DomainName: "pattern"},
	)
	got, err := s.Next(Request{
		Pool:     pool,
		Theta:    0,
		Coverage: map[string]int{"logic": 1, "pattern": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, "pattern-ok", got.ID())
}

func TestNext_FallsBackWhenPriorityDomainExhausted(t *testing.T) {
	s := newSelector(t, Config{
		TargetWeights: evenWeights("logic", "pattern"),
		MinPerDomain:  1,
		RandomesqueK:  1,
	})
	// Pattern is the priority domain but has no remaining items.
	pool := poolOf(
		irt.Item{ItemID: "logic-1", A: 1.0, B: 0.0, DomainName: "logic"},
	)
	got, err := s.Next(Request{
		Pool:     pool,
		Theta:    0,
		Coverage: map[string]int{"logic": 1, "pattern": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, "logic-1", got.ID())
}

func TestNext_ExhaustedPoolReturnsNil(t *testing.T) {
	s := newSelector(t, Config{
		TargetWeights: evenWeights("logic"),
		RandomesqueK:  1,
	})
	pool := poolOf(irt.Item{ItemID: "only", A: 1.0, B: 0.0, DomainName: "logic"})
	got, err := s.Next(Request{
		Pool:         pool,
		Theta:        0,
		Administered: map[string]bool{"only": true},
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNext_RecordsExposure(t *testing.T) {
	monitor := exposure.NewMonitor()
	s, err := New(Config{
		TargetWeights: evenWeights("logic"),
		RandomesqueK:  1,
	}, exposure.NewSelector(rand.New(rand.NewSource(1))), monitor)
	require.NoError(t, err)

	pool := poolOf(irt.Item{ItemID: "q", A: 1.0, B: 0.0, DomainName: "logic"})
	_, err = s.Next(Request{Pool: pool, Theta: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, monitor.Total())
	assert.Equal(t, 1.0, monitor.Rate("q"))
}
