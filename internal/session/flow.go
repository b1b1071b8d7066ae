package session

import (
	"fmt"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

// Flow enforces the authentication state machine:
//
//	anonymous -> authenticating -> authenticated -> (logout) -> anonymous
//
// A failed attempt returns to the state held before Begin.
type Flow struct {
	state domain.SessionState
	prev  domain.SessionState
}

// NewFlow starts a flow in state; the empty state means anonymous.
func NewFlow(state domain.SessionState) *Flow {
	if state == "" {
		state = domain.StateAnonymous
	}
	return &Flow{state: state}
}

// State is the current state.
func (f *Flow) State() domain.SessionState {
	return f.state
}

// Begin moves to authenticating. Re-authenticating from authenticated is
// allowed (switching accounts); a second concurrent attempt is not.
func (f *Flow) Begin() error {
	if f.state == domain.StateAuthenticating {
		return fmt.Errorf("session: authentication already in progress")
	}
	f.prev = f.state
	f.state = domain.StateAuthenticating
	return nil
}

// Succeed completes an attempt.
func (f *Flow) Succeed() error {
	if f.state != domain.StateAuthenticating {
		return fmt.Errorf("session: cannot complete from %s", f.state)
	}
	f.state = domain.StateAuthenticated
	return nil
}

// Fail abandons an attempt and restores the previous state.
func (f *Flow) Fail() {
	if f.state == domain.StateAuthenticating {
		f.state = f.prev
	}
}

// Logout returns to anonymous from any state.
func (f *Flow) Logout() {
	f.state = domain.StateAnonymous
}
