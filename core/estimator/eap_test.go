package estimator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acumenlabs/acumen/core/irt"
)

func respSet(n, correct int) []irt.Response {
	rs := make([]irt.Response, 0, n)
	for i := 0; i < n; i++ {
		rs = append(rs, irt.Response{
			ItemID:  "q",
			A:       1.0,
			B:       0.0,
			Correct: i < correct,
		})
	}
	return rs
}

func TestEstimate_EmptyReturnsPriorExactly(t *testing.T) {
	e := New()
	est, err := e.Estimate(nil, 0.7, 1.4)
	require.NoError(t, err)
	assert.Equal(t, 0.7, est.Theta)
	assert.Equal(t, 1.4, est.SE)
}

func TestEstimate_RejectsNonPositiveDiscrimination(t *testing.T) {
	e := New()
	_, err := e.Estimate([]irt.Response{{ItemID: "bad", A: -0.5, B: 0, Correct: true}}, 0, 1)
	assert.ErrorIs(t, err, irt.ErrNonPositiveDiscrimination)
}

func TestEstimate_RejectsInvalidPrior(t *testing.T) {
	e := New()
	_, err := e.Estimate(respSet(3, 2), 0, 0)
	assert.Error(t, err)
}

func TestEstimate_WithinQuadratureBounds(t *testing.T) {
	e := New()
	// All-correct and all-incorrect patterns push the posterior to the
	// tails; the estimate must stay inside the grid support.
	for _, correct := range []int{0, 20} {
		est, err := e.EstimateDefault(respSet(20, correct))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, est.Theta, irt.ThetaMin)
		assert.LessOrEqual(t, est.Theta, irt.ThetaMax)
		assert.Greater(t, est.SE, 0.0)
		assert.False(t, math.IsNaN(est.Theta))
		assert.False(t, math.IsNaN(est.SE))
	}
}

func TestEstimate_MonotoneInProportionCorrect(t *testing.T) {
	e := New()
	const n = 12
	prev := math.Inf(-1)
	for correct := 0; correct <= n; correct++ {
		est, err := e.EstimateDefault(respSet(n, correct))
		require.NoError(t, err)
		if est.Theta < prev {
			t.Fatalf("theta decreased at %d/%d correct: %v < %v", correct, n, est.Theta, prev)
		}
		prev = est.Theta
	}
}

func TestEstimate_SEDecreasesWithMoreItems(t *testing.T) {
	e := New()
	short, err := e.EstimateDefault(respSet(4, 2))
	require.NoError(t, err)
	long, err := e.EstimateDefault(respSet(24, 12))
	require.NoError(t, err)
	assert.Less(t, long.SE, short.SE)
	// And both are tighter than the prior.
	assert.Less(t, short.SE, DefaultPriorSD)
}

func TestEstimate_TighterPriorShrinksTowardMean(t *testing.T) {
	e := New()
	// A short all-correct run under a tight prior should sit closer to the
	// prior mean than under a diffuse prior.
	rs := respSet(3, 3)
	tight, err := e.Estimate(rs, 0, 0.3)
	require.NoError(t, err)
	diffuse, err := e.Estimate(rs, 0, 2.0)
	require.NoError(t, err)
	assert.Less(t, tight.Theta, diffuse.Theta)
}

func TestEstimate_PriorInfluenceFadesWithEvidence(t *testing.T) {
	e := New()
	// With mounting evidence, estimates under different priors converge.
	few := 4
	many := 40
	gap := func(n int) float64 {
		a, err := e.Estimate(respSet(n, n*3/4), 0, 0.5)
		require.NoError(t, err)
		b, err := e.Estimate(respSet(n, n*3/4), 0, 2.0)
		require.NoError(t, err)
		return math.Abs(a.Theta - b.Theta)
	}
	assert.Less(t, gap(many), gap(few))
}

func TestEstimate_MixedDifficulties(t *testing.T) {
	e := New()
	rs := []irt.Response{
		{ItemID: "easy", A: 1.2, B: -1.5, Correct: true},
		{ItemID: "mid", A: 1.0, B: 0.0, Correct: true},
		{ItemID: "hard", A: 1.4, B: 1.5, Correct: false},
		{ItemID: "hard2", A: 0.9, B: 2.0, Correct: false},
	}
	est, err := e.EstimateDefault(rs)
	require.NoError(t, err)
	// Correct on easy/mid, wrong on hard: ability near the middle.
	assert.InDelta(t, 0.4, est.Theta, 0.8)
	assert.Greater(t, est.SE, 0.0)
	assert.Less(t, est.SE, 1.0)
}
