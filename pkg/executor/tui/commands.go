package tui

import (
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/action"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// loginResultMsg carries the outcome of a login attempt
type loginResultMsg struct {
	ok      bool
	message string
}

// itemsLoadedMsg carries a fresh report listing
type itemsLoadedMsg struct {
	items []portal.WorkItem
	err   error
}

// batchProgressMsg reports one processed report of a running batch
type batchProgressMsg struct {
	done  int
	total int
}

// batchDoneMsg carries the results of a finished batch
type batchDoneMsg struct {
	ids     []int
	results map[int]action.Result
}

// loggedOutMsg signals that the session was closed
type loggedOutMsg struct{}

// clipboardMsg reports the outcome of a clipboard copy
type clipboardMsg struct {
	err error
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

func (m *model) loginCmd(username, password string) tea.Cmd {
	ctx, manager := m.ctx, m.manager
	return func() tea.Msg {
		ok, message := manager.Login(ctx, username, password)
		debugLog.Infof("Login for %s: %v", username, ok)
		return loginResultMsg{ok: ok, message: message}
	}
}

func (m *model) loadItemsCmd() tea.Cmd {
	ctx, collector := m.ctx, m.collector
	return func() tea.Msg {
		items, err := collector.FetchAll(ctx)
		if err != nil {
			debugLog.Errorf("Listing failed: %v", err)
		}
		return itemsLoadedMsg{items: items, err: err}
	}
}

func (m *model) logoutCmd() tea.Cmd {
	ctx, manager := m.ctx, m.manager
	return func() tea.Msg {
		manager.Logout(ctx)
		return loggedOutMsg{}
	}
}

// startBatchCmd runs the batch in the background. Progress and the final
// result arrive as messages through a buffered channel that waitForBatch
// drains one message at a time.
func (m *model) startBatchCmd(ids []int) tea.Cmd {
	ids = action.Distinct(ids)
	ch := make(chan tea.Msg, len(ids)+1)
	m.batchCh = ch
	m.batchDone, m.batchTotal = 0, len(ids)

	ctx, processor := m.ctx, m.processor
	go func() {
		defer close(ch)
		results := processor.ProcessAll(ctx, ids, func(done, total int) {
			ch <- batchProgressMsg{done: done, total: total}
		})
		ch <- batchDoneMsg{ids: ids, results: results}
	}()

	debugLog.Infof("Batch started for %d reports", len(ids))
	return waitForBatch(ch)
}

func waitForBatch(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{err: writeClipboard(text)}
	}
}
