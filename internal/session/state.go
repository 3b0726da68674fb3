package session

import "shopsearch/internal/domain"

// State holds the opaque session token and the turn counter.
// The token is never inspected; it is stored and forwarded verbatim.
// State is not safe for concurrent use; its owner serialises access.
type State struct {
	current domain.Session
}

// New returns a state with no session.
func New() *State { return &State{} }

// Current returns a copy of the current session.
func (s *State) Current() domain.Session { return s.current }

// Update replaces the session token and counts a turn. An empty token leaves
// the session unchanged, since the backend did not assert an identity.
func (s *State) Update(token string) domain.Session {
	if token == "" {
		return s.current
	}
	s.current = domain.Session{ID: token, TurnCount: s.current.TurnCount + 1}
	return s.current
}

// Clear drops the session.
func (s *State) Clear() { s.current = domain.Session{} }
