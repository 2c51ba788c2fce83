package portal

import "sync"

// Session holds the authentication state of exactly one logical portal
// session. Each Backend owns its own Session; there is no process-wide one.
//
// Protocol calls on a Backend are expected to be serialized by the caller.
// The lock only makes reads from a presentation goroutine safe.
type Session struct {
	mu            sync.RWMutex
	authenticated bool
	username      string
}

// NewSession returns an unauthenticated session.
func NewSession() *Session {
	return &Session{}
}

// MarkAuthenticated records a successful login for username.
func (s *Session) MarkAuthenticated(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.username = username
}

// Clear resets the session to its initial state. Safe to call repeatedly.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.username = ""
}

// IsAuthenticated reports whether a login succeeded and no Clear followed.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Username returns the authenticated user, or "" when logged out.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}
