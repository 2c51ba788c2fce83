// Package session wraps a portal Backend with the message-oriented facade
// used by the interactive frontends.
package session

import (
	"context"
	"fmt"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
)

// Messages returned by Manager.Login.
const (
	MsgLoginOK        = "Login erfolgreich"
	MsgInvalidLogin   = "Falsche Anmeldedaten"
	msgLoginFailedFmt = "Login fehlgeschlagen: %v"
)

// Manager turns Backend login outcomes into user facing messages. It keeps
// no state of its own; authentication is always read from the backend.
type Manager struct {
	backend portal.Backend
}

// NewManager returns a Manager for backend.
func NewManager(backend portal.Backend) *Manager {
	return &Manager{backend: backend}
}

// Login authenticates and reports the outcome as (ok, message). Errors of
// the backend are folded into the message.
func (m *Manager) Login(ctx context.Context, username, password string) (bool, string) {
	ok, err := m.backend.Login(ctx, username, password)
	switch {
	case err != nil:
		return false, fmt.Sprintf(msgLoginFailedFmt, err)
	case !ok:
		return false, MsgInvalidLogin
	default:
		return true, MsgLoginOK
	}
}

// Logout ends the session.
func (m *Manager) Logout(ctx context.Context) {
	m.backend.Logout(ctx)
}

// IsAuthenticated reports the backend's authentication state.
func (m *Manager) IsAuthenticated() bool {
	return m.backend.IsAuthenticated()
}

// Username returns the logged in user.
func (m *Manager) Username() string {
	return m.backend.Username()
}
