package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acumenlabs/acumen/core/irt"
)

func TestConvert_MeanTheta(t *testing.T) {
	s := Convert(0.0, 0.3, DefaultScale())
	assert.Equal(t, 100, s.Value)
	assert.Equal(t, 50.0, s.Percentile)
	assert.InDelta(t, 4.5, s.SEScaled, 1e-9)
}

func TestConvert_OneSDAbove(t *testing.T) {
	s := Convert(1.0, 0.3, DefaultScale())
	assert.Equal(t, 115, s.Value)
	assert.InDelta(t, 84.1, s.Percentile, 0.05)
}

func TestConvert_ConfidenceInterval(t *testing.T) {
	s := Convert(0.0, 0.30, DefaultScale())
	// 100 +/- 1.96*4.5 = [91.2, 108.8] -> rounded [91, 109].
	assert.Equal(t, 91, s.CILower)
	assert.Equal(t, 109, s.CIUpper)
}

func TestConvert_ClampsDisplayRange(t *testing.T) {
	scale := DefaultScale()

	low := Convert(-4.0, 0.5, scale)
	assert.Equal(t, 40, low.Value)
	assert.Equal(t, 40, low.CILower)
	// Upper bound is computed from the unclamped score (40), not the
	// clamped display value.
	assert.Equal(t, 55, low.CIUpper)
	// Percentile comes from unclamped theta.
	assert.Less(t, low.Percentile, 0.1)

	high := Convert(4.0, 0.5, scale)
	assert.Equal(t, 160, high.Value)
	assert.Equal(t, 160, high.CIUpper)
	assert.Greater(t, high.Percentile, 99.9)
}

func TestConvert_OrderedInterval(t *testing.T) {
	for _, theta := range []float64{-4, -2.5, 0, 1.3, 4} {
		for _, se := range []float64{0.05, 0.3, 1.0} {
			s := Convert(theta, se, DefaultScale())
			assert.LessOrEqual(t, s.CILower, s.Value)
			assert.LessOrEqual(t, s.Value, s.CIUpper)
		}
	}
}

func TestDomainAccuracy(t *testing.T) {
	responses := []irt.Response{
		{Domain: "logic", Correct: true},
		{Domain: "logic", Correct: false},
		{Domain: "pattern", Correct: true},
		{Domain: "pattern", Correct: true},
		{Domain: "pattern", Correct: false},
	}
	acc := DomainAccuracy(responses)
	assert.InDelta(t, 0.5, acc["logic"], 1e-12)
	assert.InDelta(t, 2.0/3.0, acc["pattern"], 1e-12)

	// No responses in a domain: omitted, not zero.
	_, ok := acc["spatial"]
	assert.False(t, ok)
}

func TestDomainAccuracy_Empty(t *testing.T) {
	assert.Empty(t, DomainAccuracy(nil))
}

func TestEquateCTTToIRT(t *testing.T) {
	assert.Equal(t, 0.0, EquateCTTToIRT(0.5))
	assert.Greater(t, EquateCTTToIRT(0.8), 0.0)
	assert.Less(t, EquateCTTToIRT(0.2), 0.0)
	// Extreme accuracies clamp instead of diverging.
	assert.LessOrEqual(t, EquateCTTToIRT(1.0), irt.ThetaMax)
	assert.GreaterOrEqual(t, EquateCTTToIRT(0.0), irt.ThetaMin)
	// Symmetric around chance.
	assert.InDelta(t, -EquateCTTToIRT(0.3), EquateCTTToIRT(0.7), 1e-9)
}
