// Package estimator implements Bayesian ability estimation for adaptive
// testing. The estimator is Expected A Posteriori (EAP): the posterior
// mean of latent ability over a fixed quadrature grid, under a Gaussian
// prior and the 2PL response model.
package estimator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/acumenlabs/acumen/core/irt"
)

// =============================================================================
// Constants
// =============================================================================

// QuadraturePoints is the number of equally spaced grid points spanning
// [irt.ThetaMin, irt.ThetaMax]. 61 points gives a 0.1333 step, fine enough
// that quadrature error is dwarfed by measurement error for any realistic
// test length.
const QuadraturePoints = 61

// DefaultPriorMean and DefaultPriorSD define the population prior used
// when the caller has no better information about the examinee.
const (
	DefaultPriorMean = 0.0
	DefaultPriorSD   = 1.0
)

// =============================================================================
// Estimate
// =============================================================================

// Estimate is a point estimate of latent ability with its uncertainty.
type Estimate struct {
	// Theta is the posterior-mean ability on the standardized scale.
	Theta float64

	// SE is the posterior standard deviation (standard error of Theta).
	SE float64
}

// =============================================================================
// EAP
// =============================================================================

// EAP computes Expected A Posteriori ability estimates. The zero value is
// not usable; construct with New. EAP is stateless and safe for
// concurrent use: the quadrature grid is computed once and only read.
type EAP struct {
	grid []float64
}

// New constructs an EAP estimator with the standard quadrature grid.
func New() *EAP {
	grid := make([]float64, QuadraturePoints)
	floats.Span(grid, irt.ThetaMin, irt.ThetaMax)
	return &EAP{grid: grid}
}

// Estimate returns the posterior mean and standard deviation of ability
// given the full response history, under a Normal(priorMean, priorSD)
// prior. An empty history returns the prior unchanged. A response with
// non-positive discrimination is a data error and fails fast.
//
// Numerical edge cases (posterior mass underflowing to zero everywhere
// under an extreme response pattern) are recovered by falling back to the
// prior; the method never returns NaN or Inf.
func (e *EAP) Estimate(responses []irt.Response, priorMean, priorSD float64) (Estimate, error) {
	if priorSD <= 0 || math.IsNaN(priorMean) || math.IsInf(priorMean, 0) {
		return Estimate{}, fmt.Errorf("invalid prior (mean=%g sd=%g)", priorMean, priorSD)
	}
	if len(responses) == 0 {
		// Posterior equals the prior.
		return Estimate{Theta: priorMean, SE: priorSD}, nil
	}
	for _, r := range responses {
		if err := r.Validate(); err != nil {
			return Estimate{}, err
		}
	}

	prior := distuv.Normal{Mu: priorMean, Sigma: priorSD}

	// Unnormalized log-posterior at every quadrature point.
	logPost := make([]float64, len(e.grid))
	for i, theta := range e.grid {
		lp := prior.LogProb(theta)
		for _, r := range responses {
			logP, logQ := irt.LogProbability(theta, r.A, r.B)
			if r.Correct {
				lp += logP
			} else {
				lp += logQ
			}
		}
		logPost[i] = lp
	}

	// Normalize via log-sum-exp, then exponentiate relative to the max so
	// the best grid point carries weight exp(0)=1 and nothing underflows
	// unless the posterior has genuinely collapsed.
	logZ := floats.LogSumExp(logPost)
	weights := make([]float64, len(logPost))
	total := 0.0
	for i, lp := range logPost {
		w := math.Exp(lp - logZ)
		if math.IsNaN(w) {
			w = 0
		}
		weights[i] = w
		total += w
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		// Pathological response pattern collapsed the posterior. Fall back
		// to the prior rather than propagating NaN into a live session.
		return Estimate{Theta: priorMean, SE: priorSD}, nil
	}

	theta := 0.0
	for i, w := range weights {
		theta += e.grid[i] * w / total
	}
	variance := 0.0
	for i, w := range weights {
		d := e.grid[i] - theta
		variance += d * d * w / total
	}
	se := math.Sqrt(variance)

	return Estimate{Theta: irt.ClampTheta(theta), SE: se}, nil
}

// EstimateDefault applies the population prior.
func (e *EAP) EstimateDefault(responses []irt.Response) (Estimate, error) {
	return e.Estimate(responses, DefaultPriorMean, DefaultPriorSD)
}
