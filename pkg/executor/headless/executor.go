package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/action"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/logging"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	"github.com/google/uuid"
)

const (
	statusSuccess        = "success"
	statusFailed         = "failed"
	statusPartialSuccess = "partial_success"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("headless")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		debugLog.Warnf("Failed to initialize headless logger, using stderr fallback: %v", err)
	}
}

// Executor runs one unattended confirm batch against a Backend.
type Executor struct {
	backend        portal.Backend
	config         *Config
	selector       *Selector
	processor      *action.Processor
	artifactWriter *ArtifactWriter
	logger         *Logger

	summary *ExecutionSummary
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithConsole replaces the console logger derived from the config.
func WithConsole(l *Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

// NewExecutor creates a headless executor for backend. The backend must be
// logged out; the executor owns the whole session.
func NewExecutor(backend portal.Backend, config *Config, opts ...ExecutorOption) (*Executor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	selector, err := NewSelector(config.Selection)
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}

	e := &Executor{
		backend:        backend,
		config:         config,
		selector:       selector,
		processor:      action.NewProcessor(backend),
		artifactWriter: NewArtifactWriter(config.Artifacts.OutputDir),
		logger:         NewLogger(parseLogLevel(config.Logging.Verbosity)),
		summary: &ExecutionSummary{
			RunID:    uuid.New().String(),
			Portal:   config.Portal.BaseURL,
			Username: config.Portal.Username,
			Status:   "running",
			DryRun:   config.DryRun,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Summary returns the summary of the last Run.
func (e *Executor) Summary() *ExecutionSummary {
	return e.summary
}

// Run logs in, selects reports, confirms them, and logs out again. Logout
// happens whenever a login was attempted. The returned error is non-nil only
// when the run failed as a whole; individual report failures lead to
// partial_success.
func (e *Executor) Run(ctx context.Context) error {
	e.summary.StartTime = time.Now()
	debugLog.Infof("Starting run %s for %s", e.summary.RunID, e.config.Portal.Username)
	e.logger.Header("Erfassinator headless run")

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	password, err := e.config.Password()
	if err != nil {
		return e.fail(err)
	}

	e.logger.Step(fmt.Sprintf("Login as %s", e.config.Portal.Username))
	ok, err := e.backend.Login(ctx, e.config.Portal.Username, password)
	defer e.logout()
	if err != nil {
		return e.fail(fmt.Errorf("login failed: %w", err))
	}
	if !ok {
		return e.fail(fmt.Errorf("login rejected for user %q", e.config.Portal.Username))
	}
	e.logger.Successf("Logged in")

	e.logger.Step("Fetch reports")
	items, err := e.backend.ListItems(ctx)
	if err != nil {
		return e.fail(fmt.Errorf("failed to fetch data: %w", err))
	}
	e.summary.Listed = len(items)
	e.logger.Successf("%d reports listed", len(items))

	e.logger.Step("Select reports")
	sel := e.selector.Select(items)
	e.summary.Selected = sel.IDs()
	e.summary.Skipped = sel.Skipped
	for _, it := range sel.Items {
		e.logger.Selected(it.ID, it.Title, it.Date)
	}
	for _, s := range sel.Skipped {
		e.logger.Verbosef("Skipping %d: %s", s.ID, s.Reason)
	}
	e.logger.Infof("%d selected, %d skipped", len(sel.Items), len(sel.Skipped))

	switch {
	case len(sel.Items) == 0:
		e.logger.Warningf("No reports to confirm")
	case e.config.DryRun:
		e.logger.Warningf("Dry run: %d reports would be confirmed", len(sel.Items))
	default:
		e.logger.Step("Confirm reports")
		e.confirm(ctx, sel.Items)
	}

	return e.finalize()
}

// confirm runs the batch and records one ItemResult per selected report,
// in selection order, printing each one as soon as the portal answered.
func (e *Executor) confirm(ctx context.Context, items []portal.WorkItem) {
	ids := make([]int, 0, len(items))
	titles := make(map[int]string, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
		titles[it.ID] = it.Title
	}

	results := e.processor.ProcessEach(ctx, ids, func(id int, r action.Result, done, total int) {
		item := ItemResult{ID: id, Title: titles[id], Success: r.Success, Message: r.Message}
		e.summary.Results = append(e.summary.Results, item)
		e.logger.Item(done, total, item)
	})
	e.summary.Metrics = action.Summarize(results)
}

func (e *Executor) logout() {
	// Logout must run even if the run context is already done.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	e.backend.Logout(ctx)
	debugLog.Infof("Run %s logged out", e.summary.RunID)
}

// finalize sets the final status and writes artifacts
func (e *Executor) finalize() error {
	e.summary.EndTime = time.Now()
	e.summary.Duration = e.summary.EndTime.Sub(e.summary.StartTime)

	m := e.summary.Metrics
	switch {
	case m.Total == 0 || m.Failed == 0:
		e.summary.Status = statusSuccess
	case m.Succeeded == 0:
		e.summary.Status = statusFailed
		e.summary.Error = fmt.Sprintf("all %d reports failed", m.Total)
	default:
		e.summary.Status = statusPartialSuccess
	}

	e.writeArtifacts()
	e.logger.Summary(e.summary)
	debugLog.Infof("Run %s completed: %s (duration: %s)", e.summary.RunID, e.summary.Status, e.summary.Duration)

	// Return error only for complete failures, not partial success
	if e.summary.Status == statusFailed {
		return fmt.Errorf("execution failed: %s", e.summary.Error)
	}
	return nil
}

// fail marks the execution as failed and returns an error
func (e *Executor) fail(err error) error {
	e.summary.Status = statusFailed
	e.summary.Error = err.Error()
	e.summary.EndTime = time.Now()
	e.summary.Duration = e.summary.EndTime.Sub(e.summary.StartTime)

	e.logger.Errorf("%v", err)
	debugLog.Errorf("Run %s failed: %v", e.summary.RunID, err)

	// Try to generate artifacts even on failure
	e.writeArtifacts()
	e.logger.Summary(e.summary)
	return err
}

func (e *Executor) writeArtifacts() {
	if !e.config.Artifacts.Enabled {
		return
	}
	if err := e.artifactWriter.WriteAll(e.summary); err != nil {
		e.logger.Warningf("Failed to write artifacts: %v", err)
		debugLog.Warnf("Failed to write artifacts: %v", err)
		return
	}
	e.logger.Verbosef("Artifacts written to %s", e.artifactWriter.OutputDir())
}
