package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/acumenlabs/acumen/core/estimator"
	"github.com/acumenlabs/acumen/core/irt"
	"github.com/acumenlabs/acumen/core/scoring"
	"github.com/acumenlabs/acumen/core/selection"
	"github.com/acumenlabs/acumen/core/stopping"
)

// =============================================================================
// PoolProvider
// =============================================================================

// PoolProvider supplies the current calibrated-item snapshot. The engine
// reads a fresh snapshot per selection so a republished pool takes
// effect between items, never mid-computation.
type PoolProvider interface {
	Pool() []irt.CalibratedItem
}

// StaticPool adapts a fixed item slice to PoolProvider.
type StaticPool []irt.CalibratedItem

// Pool returns the underlying items.
func (p StaticPool) Pool() []irt.CalibratedItem { return p }

// =============================================================================
// Engine
// =============================================================================

// Engine runs the adaptive loop. All dependencies are constructor
// injected; the engine holds no per-session state and is safe for
// concurrent use across sessions.
type Engine struct {
	estimator *estimator.EAP
	selector  *selection.Selector
	stopper   *stopping.Engine
	pool      PoolProvider
	scale     scoring.Scale
	logger    *slog.Logger
}

// NewEngine constructs an Engine. logger may be nil.
func NewEngine(
	est *estimator.EAP,
	sel *selection.Selector,
	stop *stopping.Engine,
	pool PoolProvider,
	scale scoring.Scale,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		estimator: est,
		selector:  sel,
		stopper:   stop,
		pool:      pool,
		scale:     scale,
		logger:    logger,
	}
}

// Initialize creates a new in-progress session at the population-mean
// prior. sessionID may be empty, in which case one is generated. seen
// carries item IDs from the examinee's earlier attempts and may be nil.
func (e *Engine) Initialize(examineeID, sessionID string, seen map[string]bool) *Session {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if seen == nil {
		seen = map[string]bool{}
	}
	s := &Session{
		ID:              sessionID,
		ExamineeID:      examineeID,
		Status:          StatusInProgress,
		administeredSet: make(map[string]bool),
		Seen:            seen,
		Coverage:        make(map[string]int),
		Ability: AbilityState{
			Theta: estimator.DefaultPriorMean,
			SE:    estimator.DefaultPriorSD,
		},
		StartedAt: time.Now(),
	}
	e.logger.Info("session initialized",
		"session_id", s.ID,
		"examinee_id", examineeID,
		"seen_items", len(seen),
	)
	return s
}

// FirstItem selects the opening item for a fresh session, before any
// response exists, at the prior-mean ability.
func (e *Engine) FirstItem(s *Session) (irt.CalibratedItem, error) {
	if !s.Active() {
		return nil, fmt.Errorf("session %s: %w", s.ID, ErrSessionNotActive)
	}
	return e.selectNext(s)
}

// StepResult is the outcome of processing one response.
type StepResult struct {
	// Theta and SE are the refreshed ability estimate.
	Theta float64
	SE    float64

	// Done is true when the session reached a terminal state.
	Done   bool
	Reason stopping.Reason

	// Decision carries the full stopping audit trail.
	Decision stopping.Decision

	// NextItem is the item to administer next; nil when Done.
	NextItem irt.CalibratedItem
}

// ProcessResponse scores one answered item: it appends the response,
// re-estimates ability over the full history, updates coverage, runs the
// stopping rules, and selects the next item when the test continues.
//
// Calling it on a stopped session, submitting a duplicate item, or
// submitting invalid item parameters are all hard failures: each
// indicates a caller bug the engine must not paper over.
func (e *Engine) ProcessResponse(s *Session, resp irt.Response) (StepResult, error) {
	if !s.Active() {
		return StepResult{}, fmt.Errorf("session %s: %w", s.ID, ErrSessionNotActive)
	}
	if err := resp.Validate(); err != nil {
		return StepResult{}, err
	}
	if s.wasAdministered(resp.ItemID) {
		return StepResult{}, fmt.Errorf("session %s item %s: %w", s.ID, resp.ItemID, ErrDuplicateItem)
	}

	s.Responses = append(s.Responses, resp)
	s.recordAdministration(resp.ItemID, resp.Domain)

	est, err := e.estimator.EstimateDefault(s.Responses)
	if err != nil {
		return StepResult{}, err
	}
	s.Ability.Theta = est.Theta
	s.Ability.SE = est.SE
	s.Ability.ThetaHistory = append(s.Ability.ThetaHistory, est.Theta)

	decision := e.stopper.Check(stopping.State{
		SE:           s.Ability.SE,
		NumItems:     s.NumItems(),
		Coverage:     s.Coverage,
		ThetaHistory: s.Ability.ThetaHistory,
	}, e.selector.Balancer())

	result := StepResult{
		Theta:    s.Ability.Theta,
		SE:       s.Ability.SE,
		Decision: decision,
	}

	if decision.ShouldStop {
		s.stop(decision.Reason)
		result.Done = true
		result.Reason = decision.Reason
		e.logStep(s, result)
		return result, nil
	}

	next, err := e.selectNext(s)
	if err != nil {
		return StepResult{}, err
	}
	if next == nil {
		// The pool ran dry: a defined terminal state, not an error.
		decision = e.stopper.Check(stopping.State{
			SE:            s.Ability.SE,
			NumItems:      s.NumItems(),
			Coverage:      s.Coverage,
			ThetaHistory:  s.Ability.ThetaHistory,
			PoolExhausted: true,
		}, e.selector.Balancer())
		s.stop(decision.Reason)
		result.Decision = decision
		result.Done = true
		result.Reason = decision.Reason
		e.logStep(s, result)
		return result, nil
	}

	result.NextItem = next
	e.logStep(s, result)
	return result, nil
}

// Result is the frozen, reportable outcome of a session.
type Result struct {
	SessionID  string
	ExamineeID string

	Score          scoring.Score
	Theta          float64
	SE             float64
	NumItems       int
	Reason         stopping.Reason
	DomainAccuracy map[string]float64
}

// Finalize freezes the session and converts its ability estimate into a
// reportable score. An in-progress session is stopped with the supplied
// reason (caller abandonment is represented this way); finalizing twice
// is an error.
func (e *Engine) Finalize(s *Session, reason stopping.Reason) (Result, error) {
	if s.finalized {
		return Result{}, fmt.Errorf("session %s: %w", s.ID, ErrSessionFinalized)
	}
	if s.Active() {
		s.stop(reason)
	}
	s.finalized = true

	score := scoring.Convert(s.Ability.Theta, s.Ability.SE, e.scale)
	res := Result{
		SessionID:      s.ID,
		ExamineeID:     s.ExamineeID,
		Score:          score,
		Theta:          s.Ability.Theta,
		SE:             s.Ability.SE,
		NumItems:       s.NumItems(),
		Reason:         s.StoppedReason,
		DomainAccuracy: scoring.DomainAccuracy(s.Responses),
	}
	e.logger.Info("session finalized",
		"session_id", s.ID,
		"score", score.Value,
		"theta", res.Theta,
		"se", res.SE,
		"items", res.NumItems,
		"reason", string(res.Reason),
	)
	return res, nil
}

func (e *Engine) selectNext(s *Session) (irt.CalibratedItem, error) {
	return e.selector.Next(selection.Request{
		Pool:         e.pool.Pool(),
		Theta:        s.Ability.Theta,
		Administered: s.administeredSet,
		Seen:         s.Seen,
		Coverage:     s.Coverage,
	})
}

func (e *Engine) logStep(s *Session, r StepResult) {
	attrs := []any{
		"session_id", s.ID,
		"items", s.NumItems(),
		"theta", r.Theta,
		"se", r.SE,
		"done", r.Done,
	}
	if r.Done {
		attrs = append(attrs, "reason", string(r.Reason))
	} else if r.NextItem != nil {
		attrs = append(attrs, "next_item", r.NextItem.ID())
	}
	e.logger.Debug("response processed", attrs...)
}
