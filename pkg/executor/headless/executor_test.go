package headless

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/action"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portalsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingBackend records whether Logout ran.
type trackingBackend struct {
	*portal.MemoryBackend
	logouts int
	listErr error
}

func (b *trackingBackend) Logout(ctx context.Context) {
	b.logouts++
	b.MemoryBackend.Logout(ctx)
}

func (b *trackingBackend) ListItems(ctx context.Context) ([]portal.WorkItem, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.MemoryBackend.ListItems(ctx)
}

func newTestExecutor(t *testing.T, backend portal.Backend, mutate func(*Config)) (*Executor, *bytes.Buffer) {
	t.Helper()
	t.Setenv(DefaultPasswordEnv, "admin")

	cfg := validConfig()
	cfg.Artifacts.OutputDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}

	var out bytes.Buffer
	e, err := NewExecutor(backend, cfg, WithConsole(NewLogger(LogLevelVerbose).WithWriter(&out)))
	require.NoError(t, err)
	return e, &out
}

func readExecutionJSON(t *testing.T, dir string) ExecutionSummary {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "execution.json"))
	require.NoError(t, err)
	var s ExecutionSummary
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func TestNewExecutorRejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Portal.Username = ""

	_, err := NewExecutor(portal.NewMemoryBackend(), cfg)
	assert.Error(t, err)
}

func TestExecutor_RunAllPending(t *testing.T) {
	backend := &trackingBackend{MemoryBackend: portal.NewMemoryBackend()}
	e, out := newTestExecutor(t, backend, nil)

	require.NoError(t, e.Run(context.Background()))

	s := e.Summary()
	assert.Equal(t, statusSuccess, s.Status)
	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, 5, s.Listed)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.Selected)
	assert.Equal(t, action.Summary{Total: 5, Succeeded: 5, Failed: 0}, s.Metrics)
	require.Len(t, s.Results, 5)
	assert.Equal(t, "Einsatz Brand", s.Results[0].Title)
	assert.Equal(t, "Action applied to entry 1", s.Results[0].Message)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, backend.ConfirmCalls())
	assert.Equal(t, 1, backend.logouts)
	assert.False(t, backend.IsAuthenticated())

	assert.Contains(t, out.String(), "[5/5] ✓ 5 Einsatz Brand")
	assert.Contains(t, out.String(), "SUCCESS")
}

func TestExecutor_RunWritesArtifacts(t *testing.T) {
	e, _ := newTestExecutor(t, portal.NewMemoryBackend(), nil)
	require.NoError(t, e.Run(context.Background()))

	dir := e.config.Artifacts.OutputDir
	s := readExecutionJSON(t, dir)
	assert.Equal(t, statusSuccess, s.Status)
	assert.Equal(t, e.Summary().RunID, s.RunID)
	assert.FileExists(t, filepath.Join(dir, "summary.md"))
}

func TestExecutor_RunArtifactsDisabled(t *testing.T) {
	e, _ := newTestExecutor(t, portal.NewMemoryBackend(), func(c *Config) {
		c.Artifacts.Enabled = false
	})
	require.NoError(t, e.Run(context.Background()))

	entries, err := os.ReadDir(e.config.Artifacts.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecutor_RunPartialSuccess(t *testing.T) {
	backend := portal.NewMemoryBackend(portal.WithConfirmFunc(func(id int) (bool, error) {
		switch id {
		case 2:
			return false, errors.New("boom")
		case 4:
			return false, nil
		}
		return true, nil
	}))
	e, _ := newTestExecutor(t, backend, nil)

	// Partial success is not an error
	require.NoError(t, e.Run(context.Background()))

	s := e.Summary()
	assert.Equal(t, statusPartialSuccess, s.Status)
	assert.Equal(t, action.Summary{Total: 5, Succeeded: 3, Failed: 2}, s.Metrics)
	assert.Equal(t, "Error: boom", s.Results[1].Message)
	assert.Equal(t, "Failed to apply action to entry 4", s.Results[3].Message)
	assert.Empty(t, s.Error)
}

func TestExecutor_RunPrintsItemsWhileConfirming(t *testing.T) {
	var out *bytes.Buffer
	var seen []string
	backend := portal.NewMemoryBackend(portal.WithConfirmFunc(func(id int) (bool, error) {
		seen = append(seen, out.String())
		return id != 2, nil
	}))
	e, buf := newTestExecutor(t, backend, nil)
	out = buf

	require.NoError(t, e.Run(context.Background()))
	require.Len(t, seen, 5)

	// Earlier reports are on the console before the next one is confirmed
	assert.NotContains(t, seen[0], "[1/5]")
	assert.Contains(t, seen[1], "[1/5] ✓ 1")
	assert.Contains(t, seen[2], "[2/5] ✗ 2")
	assert.Contains(t, seen[4], "[4/5]")
	assert.NotContains(t, seen[4], "[5/5]")

	s := e.Summary()
	require.Len(t, s.Results, 5)
	for i, r := range s.Results {
		assert.Equal(t, i+1, r.ID)
		assert.NotEmpty(t, r.Title)
	}
}

func TestExecutor_RunAllFailed(t *testing.T) {
	backend := portal.NewMemoryBackend(portal.WithConfirmFunc(func(int) (bool, error) {
		return false, nil
	}))
	e, _ := newTestExecutor(t, backend, nil)

	err := e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 5 reports failed")
	assert.Equal(t, statusFailed, e.Summary().Status)

	s := readExecutionJSON(t, e.config.Artifacts.OutputDir)
	assert.Equal(t, statusFailed, s.Status)
}

func TestExecutor_RunExplicitIDsAndFilters(t *testing.T) {
	backend := portal.NewMemoryBackend()
	e, _ := newTestExecutor(t, backend, func(c *Config) {
		c.Selection.AllPending = false
		c.Selection.IDs = []int{5, 4, 42, 1}
		c.Selection.Exclude = []string{"Fehlalarm"}
	})

	require.NoError(t, e.Run(context.Background()))

	s := e.Summary()
	assert.Equal(t, []int{5, 1}, s.Selected)
	assert.Equal(t, []int{5, 1}, backend.ConfirmCalls())
	assert.ElementsMatch(t, []SkippedItem{
		{ID: 42, Reason: "not listed by portal"},
		{ID: 4, Title: "Fehlalarm", Reason: "title excluded"},
	}, s.Skipped)
}

func TestExecutor_RunDryRun(t *testing.T) {
	backend := portal.NewMemoryBackend()
	e, out := newTestExecutor(t, backend, func(c *Config) {
		c.DryRun = true
	})

	require.NoError(t, e.Run(context.Background()))

	s := e.Summary()
	assert.Equal(t, statusSuccess, s.Status)
	assert.True(t, s.DryRun)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.Selected)
	assert.Empty(t, s.Results)
	assert.Empty(t, backend.ConfirmCalls())
	assert.Contains(t, out.String(), "Dry run: 5 reports would be confirmed")
}

func TestExecutor_RunNothingSelected(t *testing.T) {
	backend := portal.NewMemoryBackend(portal.WithItems(nil))
	e, out := newTestExecutor(t, backend, nil)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, statusSuccess, e.Summary().Status)
	assert.Empty(t, backend.ConfirmCalls())
	assert.Contains(t, out.String(), "No reports to confirm")
}

func TestExecutor_RunLoginRejected(t *testing.T) {
	backend := &trackingBackend{MemoryBackend: portal.NewMemoryBackend()}
	e, _ := newTestExecutor(t, backend, nil)
	t.Setenv(DefaultPasswordEnv, "wrong")

	err := e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login rejected")
	assert.Equal(t, statusFailed, e.Summary().Status)
	assert.Equal(t, 1, backend.logouts)

	// Artifacts are written for failed runs too
	s := readExecutionJSON(t, e.config.Artifacts.OutputDir)
	assert.Equal(t, statusFailed, s.Status)
	assert.Contains(t, s.Error, "login rejected")
}

func TestExecutor_RunMissingPassword(t *testing.T) {
	backend := &trackingBackend{MemoryBackend: portal.NewMemoryBackend()}
	e, _ := newTestExecutor(t, backend, nil)
	t.Setenv(DefaultPasswordEnv, "")

	err := e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), DefaultPasswordEnv)

	// No login attempt, so no logout either
	assert.Equal(t, 0, backend.logouts)
}

func TestExecutor_RunListFails(t *testing.T) {
	backend := &trackingBackend{
		MemoryBackend: portal.NewMemoryBackend(),
		listErr:       errors.New("portal down"),
	}
	e, _ := newTestExecutor(t, backend, nil)

	err := e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch data")
	assert.Contains(t, err.Error(), "portal down")
	assert.Equal(t, 1, backend.logouts)
}

func TestExecutor_RunCancelled(t *testing.T) {
	backend := portal.NewMemoryBackend()
	e, _ := newTestExecutor(t, backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, statusFailed, e.Summary().Status)
}

func TestExecutor_RunAgainstPortalSimulator(t *testing.T) {
	sim, srv := portalsim.NewServer(portalsim.WithSaveCode(3, 500))
	defer srv.Close()

	client, err := portal.NewClient(portal.DefaultEndpoints(srv.URL))
	require.NoError(t, err)

	e, _ := newTestExecutor(t, client, func(c *Config) {
		c.Portal.BaseURL = srv.URL
	})

	require.NoError(t, e.Run(context.Background()))

	s := e.Summary()
	assert.Equal(t, statusPartialSuccess, s.Status)
	assert.Equal(t, action.Summary{Total: 5, Succeeded: 4, Failed: 1}, s.Metrics)
	assert.False(t, s.Results[2].Success)

	items := sim.Items()
	assert.Equal(t, portal.StatusPending, items[2].Status)
	assert.Equal(t, portal.StatusConfirmed, items[0].Status)
	assert.Equal(t, 0, sim.ActiveSessions())
}
