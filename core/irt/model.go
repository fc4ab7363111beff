// Package irt implements the two-parameter logistic (2PL) item response
// model used throughout the adaptive engine: response probabilities,
// Fisher information, and the calibrated-item contract that item pools
// must satisfy.
package irt

import (
	"errors"
	"fmt"
	"math"
)

// =============================================================================
// Constants
// =============================================================================

// ThetaMin and ThetaMax bound the latent ability scale. All estimation is
// performed over this support; estimates never leave it.
const (
	ThetaMin = -4.0
	ThetaMax = 4.0
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNonPositiveDiscrimination indicates an item with a <= 0 was used
	// where a calibrated item is required.
	ErrNonPositiveDiscrimination = errors.New("item discrimination must be positive")

	// ErrNonFiniteParameter indicates an item parameter is NaN or Inf.
	ErrNonFiniteParameter = errors.New("item parameter is not finite")
)

// =============================================================================
// CalibratedItem
// =============================================================================

// CalibratedItem is the structural contract an item must satisfy to be
// administered adaptively. Callers adapt their own question types to it;
// no concrete type is required.
type CalibratedItem interface {
	// ID returns the unique item identifier.
	ID() string

	// Discrimination returns the 2PL a-parameter.
	Discrimination() float64

	// Difficulty returns the 2PL b-parameter.
	Difficulty() float64

	// Domain returns the content domain the item belongs to.
	Domain() string
}

// Usable reports whether an item carries parameters the engine can score
// with: finite a and b, with a strictly positive. Items failing this are
// uncalibrated and are skipped during selection, never treated as errors.
func Usable(it CalibratedItem) bool {
	a, b := it.Discrimination(), it.Difficulty()
	if math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
		return false
	}
	return a > 0
}

// =============================================================================
// Item
// =============================================================================

// Item is the engine's own calibrated-item value, used by the bank layer,
// the simulator, and tests. External callers are free to supply any type
// implementing CalibratedItem instead.
type Item struct {
	ItemID     string  `yaml:"id"`
	A          float64 `yaml:"a"`
	B          float64 `yaml:"b"`
	DomainName string  `yaml:"domain"`

	// Anchor marks an equating anchor item carried across bank revisions.
	Anchor bool `yaml:"anchor,omitempty"`

	// ResponseCount is the number of historical responses behind the
	// current calibration. Informational only.
	ResponseCount int `yaml:"response_count,omitempty"`
}

func (it Item) ID() string              { return it.ItemID }
func (it Item) Discrimination() float64 { return it.A }
func (it Item) Difficulty() float64     { return it.B }
func (it Item) Domain() string          { return it.DomainName }

// =============================================================================
// 2PL model
// =============================================================================

// Probability returns P(correct | theta) under the 2PL model:
// 1 / (1 + exp(-a*(theta-b))).
func Probability(theta, a, b float64) float64 {
	return sigmoid(a * (theta - b))
}

// LogProbability returns (log P, log(1-P)) for a response at theta,
// computed in the numerically stable log-sigmoid form. Branching on the
// sign of the logit keeps the exp argument non-positive, so neither
// branch can overflow even for extreme theta or discrimination.
func LogProbability(theta, a, b float64) (logP, logQ float64) {
	z := a * (theta - b)
	// log sigmoid(z)  = -log1p(exp(-z))        for z >= 0
	//                 =  z - log1p(exp(z))     for z <  0
	if z >= 0 {
		logP = -math.Log1p(math.Exp(-z))
		logQ = -z + logP
	} else {
		logP = z - math.Log1p(math.Exp(z))
		logQ = logP - z
	}
	return logP, logQ
}

// Information returns the Fisher information an item provides at theta:
// a^2 * P * (1-P). Information peaks where difficulty matches ability and
// scales with discrimination squared.
func Information(theta, a, b float64) float64 {
	p := Probability(theta, a, b)
	return a * a * p * (1 - p)
}

// Logit is the inverse sigmoid: log(p / (1-p)). The caller must supply
// p strictly inside (0, 1).
func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// ClampTheta restricts theta to the supported latent scale.
func ClampTheta(theta float64) float64 {
	return math.Max(ThetaMin, math.Min(ThetaMax, theta))
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

// =============================================================================
// Response
// =============================================================================

// Response is one scored administration of an item: the parameters it was
// scored under and whether the answer was correct.
type Response struct {
	ItemID  string
	A       float64
	B       float64
	Domain  string
	Correct bool
}

// Validate rejects responses whose parameters could not have produced a
// meaningful likelihood. These are caller bugs and fail fast.
func (r Response) Validate() error {
	if math.IsNaN(r.A) || math.IsInf(r.A, 0) || math.IsNaN(r.B) || math.IsInf(r.B, 0) {
		return fmt.Errorf("item %s: %w", r.ItemID, ErrNonFiniteParameter)
	}
	if r.A <= 0 {
		return fmt.Errorf("item %s: a=%g: %w", r.ItemID, r.A, ErrNonPositiveDiscrimination)
	}
	return nil
}
