// Package portal implements the session client for the FW portal.
//
// The portal has no public API. A client logs in through the HTML login form,
// lists pending Einsatzberichte through an internal JSON endpoint, and confirms
// individual reports through a two-step status update that is protected by an
// anti-forgery token scraped out of server-rendered HTML.
//
// Two Backend variants are provided:
//
//   - Client talks to the real portal over HTTP.
//   - MemoryBackend is a deterministic in-memory stand-in for tests and
//     offline development.
//
// Both honor the same state machine (LoggedOut -> LoggedIn -> LoggedOut) so
// callers and tests can be written once against Backend.
package portal

import (
	"context"
	"errors"
)

var (
	// ErrNotAuthenticated is returned by ListItems and ConfirmItem when no
	// successful login preceded the call.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrTokenNotFound means an HTML page did not contain the anti-forgery
	// field. Usually the session expired or the portal redirected somewhere
	// unexpected.
	ErrTokenNotFound = errors.New("anti-forgery token not found")

	// ErrPatternNotFound means the organisation id pattern was absent from a
	// status page.
	ErrPatternNotFound = errors.New("organisation id not found")
)

// WorkItem is one Einsatzbericht as listed by the portal. It is a snapshot;
// nothing caches it between list calls.
type WorkItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// Backend is the capability set shared by the real portal client and the
// in-memory stand-in.
type Backend interface {
	// Login authenticates the session. Wrong credentials yield (false, nil);
	// an error means the portal could not be talked to or returned an
	// unexpected page.
	Login(ctx context.Context, username, password string) (bool, error)

	// Logout ends the session. Local state is always cleared, even if the
	// portal could not be reached.
	Logout(ctx context.Context)

	// ListItems returns the reports currently listed by the portal.
	ListItems(ctx context.Context) ([]WorkItem, error)

	// ConfirmItem moves one report to the confirmed status. (false, nil)
	// means the portal refused the transition for this item.
	ConfirmItem(ctx context.Context, id int) (bool, error)

	// IsAuthenticated reports whether the last login succeeded and no logout
	// followed.
	IsAuthenticated() bool

	// Username returns the logged in user, or "" when logged out.
	Username() string
}
