package oauthflow

import "sync"

// Phase is the lifecycle of one authorization attempt.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingRedirect
	PhaseResolved
	PhaseFailed
)

// Session holds the PKCE parameters for one authorization attempt.
// It lives in memory only and is consumed exactly once by
// HandleRedirect, whatever the outcome.
type Session struct {
	CodeVerifier  string
	CodeChallenge string
	State         string
	AuthURL       string

	mu    sync.Mutex
	phase Phase
}

// Phase reports the session's current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}
