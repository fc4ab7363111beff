// Package session orchestrates one adaptive test: it owns the per-session
// state machine and ties the estimator, item selector, stopping engine,
// and score conversion into the estimate → stop-check → select loop run
// once per administered response.
package session

import (
	"errors"
	"time"

	"github.com/acumenlabs/acumen/core/irt"
	"github.com/acumenlabs/acumen/core/stopping"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrSessionNotActive indicates a response was processed on a session
	// that is not in progress. This is a caller bug, not a race.
	ErrSessionNotActive = errors.New("session is not in progress")

	// ErrDuplicateItem indicates a response for an item already
	// administered in this session.
	ErrDuplicateItem = errors.New("item already administered in this session")

	// ErrSessionFinalized indicates mutation of a finalized session.
	ErrSessionFinalized = errors.New("session already finalized")

	// ErrUnknownSession indicates a lookup for a session the manager does
	// not hold.
	ErrUnknownSession = errors.New("unknown session")
)

// =============================================================================
// Status
// =============================================================================

// Status is the session lifecycle state.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusStopped    Status = "stopped"
)

// =============================================================================
// AbilityState
// =============================================================================

// AbilityState is the evolving ability estimate for one session.
type AbilityState struct {
	// Theta is the current posterior-mean ability.
	Theta float64

	// SE is the current standard error.
	SE float64

	// ThetaHistory holds every estimate in administration order; the
	// stabilization stopping rule reads its tail.
	ThetaHistory []float64
}

// =============================================================================
// Session
// =============================================================================

// Session is one adaptive test instance. It is owned by a single
// examinee flow and mutated only through Engine methods; once finalized
// it is immutable.
type Session struct {
	ID         string
	ExamineeID string

	Status        Status
	StoppedReason stopping.Reason

	// Administered lists item IDs in administration order. The set view
	// enforces the no-repeat invariant.
	Administered    []string
	administeredSet map[string]bool

	// Seen holds item IDs from the examinee's earlier sessions, excluded
	// from selection for cross-session exposure suppression.
	Seen map[string]bool

	// Coverage maps content domain to items administered this session.
	Coverage map[string]int

	// Responses is the full scored response log, re-estimated in full on
	// every step.
	Responses []irt.Response

	Ability AbilityState

	StartedAt  time.Time
	FinishedAt time.Time

	finalized bool
}

// NumItems returns how many items have been administered.
func (s *Session) NumItems() int { return len(s.Administered) }

// Active reports whether the session can still accept responses.
func (s *Session) Active() bool { return s.Status == StatusInProgress }

func (s *Session) wasAdministered(itemID string) bool {
	return s.administeredSet[itemID]
}

func (s *Session) recordAdministration(itemID, domain string) {
	s.Administered = append(s.Administered, itemID)
	s.administeredSet[itemID] = true
	s.Coverage[domain]++
}

func (s *Session) stop(reason stopping.Reason) {
	s.Status = StatusStopped
	s.StoppedReason = reason
	s.FinishedAt = time.Now()
}
