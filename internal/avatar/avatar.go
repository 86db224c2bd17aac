// Package avatar defines the rendering-side collaborator interface and
// tracks the persona's visual expression state. The renderer itself is
// out of scope; the agent only drives it through Controller callbacks.
package avatar

import (
	"sync"
	"time"
)

// Controller is implemented by whatever renders the persona (the
// desktop canvas process in production, a recorder in tests).
type Controller interface {
	// PlayMotion triggers a one-shot motion by id.
	PlayMotion(id string) error

	// SetExpression switches the persistent facial expression.
	SetExpression(name string) error

	// ResetExpression returns the face to neutral.
	ResetExpression() error

	// OnStateChange is notified after the tracked state mutates.
	OnStateChange(state State)
}

// State is a snapshot of the tracked expression.
type State struct {
	Expression string    `json:"expression"` // "" = neutral
	SetAt      time.Time `json:"set_at"`     // zero when neutral
}

// Held reports how long the expression has been active.
// Zero when no expression is set.
func (s State) Held(now time.Time) time.Duration {
	if s.Expression == "" || s.SetAt.IsZero() {
		return 0
	}
	return now.Sub(s.SetAt)
}

// Tracker records the last-set expression and when it was set. Only the
// expression tool callbacks mutate it; everything else reads snapshots.
type Tracker struct {
	mu    sync.Mutex
	state State
}

// NewTracker returns a tracker in the neutral state.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Set records a new expression and its timestamp.
func (t *Tracker) Set(name string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = State{Expression: name, SetAt: at}
}

// Reset clears both the expression and its timestamp.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = State{}
}

// State returns a snapshot of the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
