// Package scoring converts latent ability estimates into user-facing
// scores on a familiar IQ-style scale, with confidence intervals and
// percentiles, plus per-domain accuracy breakdowns and a rough classical
// equating helper.
package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/acumenlabs/acumen/core/irt"
)

// =============================================================================
// Scale
// =============================================================================

// Scale defines the reporting scale for converted scores.
type Scale struct {
	// Mean and SD define the linear theta transform.
	Mean float64 `yaml:"mean"`
	SD   float64 `yaml:"sd"`

	// MinScore and MaxScore clamp the displayed range.
	MinScore float64 `yaml:"min_score"`
	MaxScore float64 `yaml:"max_score"`
}

// DefaultScale is the conventional IQ scale: mean 100, sd 15, displayed
// on [40, 160].
func DefaultScale() Scale {
	return Scale{Mean: 100, SD: 15, MinScore: 40, MaxScore: 160}
}

// =============================================================================
// Score
// =============================================================================

// Score is a converted, reportable test result.
type Score struct {
	// Value is the rounded, clamped scaled score.
	Value int

	// CILower and CIUpper bound the 95% confidence interval, each clamped
	// independently of the point estimate.
	CILower int
	CIUpper int

	// SEScaled is the standard error expressed in scale units.
	SEScaled float64

	// Percentile is the standard-normal percentile of theta, rounded to
	// one decimal.
	Percentile float64
}

// Convert maps (theta, se) onto the reporting scale.
//
// The confidence interval and percentile are computed from the unclamped
// values so that clamping the display range does not distort them; each
// bound is then clamped independently, and a crossed interval (possible
// only at the clamp boundaries) collapses to the point estimate.
func Convert(theta, se float64, scale Scale) Score {
	raw := scale.Mean + theta*scale.SD
	seScaled := se * scale.SD

	value := clampRound(raw, scale)
	lower := clampRound(raw-1.96*seScaled, scale)
	upper := clampRound(raw+1.96*seScaled, scale)
	if lower > upper {
		lower, upper = value, value
	}

	percentile := distuv.UnitNormal.CDF(theta) * 100

	return Score{
		Value:      value,
		CILower:    lower,
		CIUpper:    upper,
		SEScaled:   seScaled,
		Percentile: math.Round(percentile*10) / 10,
	}
}

func clampRound(v float64, scale Scale) int {
	v = math.Round(v)
	if v < scale.MinScore {
		v = scale.MinScore
	}
	if v > scale.MaxScore {
		v = scale.MaxScore
	}
	return int(v)
}

// =============================================================================
// Domain accuracy
// =============================================================================

// DomainAccuracy aggregates proportion-correct per content domain from a
// response log. This is raw accuracy, not ability: it ignores item
// difficulty. Domains with no responses are omitted, never reported as
// zero.
func DomainAccuracy(responses []irt.Response) map[string]float64 {
	correct := make(map[string]int)
	total := make(map[string]int)
	for _, r := range responses {
		total[r.Domain]++
		if r.Correct {
			correct[r.Domain]++
		}
	}
	out := make(map[string]float64, len(total))
	for d, n := range total {
		out[d] = float64(correct[d]) / float64(n)
	}
	return out
}

// =============================================================================
// Classical equating
// =============================================================================

// EquateCTTToIRT maps a legacy proportion-correct score onto the theta
// scale via the logit of the clamped accuracy. This is a rough
// approximation that assumes items of average difficulty and
// discrimination; it is a bridge for comparing against legacy scores,
// not a substitute for anchor-based equating.
func EquateCTTToIRT(accuracy float64) float64 {
	clamped := math.Max(0.01, math.Min(0.99, accuracy))
	return irt.ClampTheta(irt.Logit(clamped))
}
