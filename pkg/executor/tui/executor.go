// Package tui provides a terminal user interface executor for confirming
// Einsatzberichte interactively.
//
// The TUI codebase is split into multiple files for better organization:
// - executor.go: Main executor implementation and program lifecycle
// - model.go: Core model structure and state
// - commands.go: Background portal operations and their messages
// - update.go: Bubble Tea Update function and message handling
// - view.go: Bubble Tea View function and rendering
// - keys.go: Key bindings and help
// - markdown.go: Batch summary rendering
// - styles.go: Color schemes and styling
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/config"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	tea "github.com/charmbracelet/bubbletea"
)

// Executor is a TUI-based executor around a portal Backend.
type Executor struct {
	backend  portal.Backend
	ui       *config.UISection
	username string
	program  *tea.Program
}

// Option configures an Executor.
type Option func(*Executor)

// WithUISettings uses ui instead of the default UI settings.
func WithUISettings(ui *config.UISection) Option {
	return func(e *Executor) {
		e.ui = ui
	}
}

// WithUsername prefills the login form.
func WithUsername(username string) Option {
	return func(e *Executor) {
		e.username = username
	}
}

// NewExecutor creates a new TUI executor for the given backend.
func NewExecutor(backend portal.Backend, opts ...Option) *Executor {
	e := &Executor{backend: backend}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run starts the TUI executor and blocks until the user exits. An open
// portal session is closed on the way out.
func (e *Executor) Run(ctx context.Context) error {
	debugLog.Infof("TUI Executor starting...")

	m := newModel(ctx, e.backend, e.ui, e.username)
	e.program = tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := e.program.Run()

	if e.backend.IsAuthenticated() {
		logoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		e.backend.Logout(logoutCtx)
		cancel()
		debugLog.Infof("Logged out on exit")
	}

	if err != nil {
		return fmt.Errorf("failed to run TUI program: %w", err)
	}
	return nil
}
