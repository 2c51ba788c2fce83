package tui

import (
	"fmt"
	"strings"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/action"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/logging"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("tui")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		debugLog.Warnf("Failed to initialize TUI logger, using stderr fallback: %v", err)
	}
}

// Update handles all state updates for the TUI model.
// This is the main event loop handler for Bubble Tea.
//
//nolint:gocyclo
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.shouldQuit {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case itemsLoadedMsg:
		return m.handleItemsLoaded(msg)

	case batchProgressMsg:
		m.batchDone, m.batchTotal = msg.done, msg.total
		return m, waitForBatch(m.batchCh)

	case batchDoneMsg:
		return m.handleBatchDone(msg)

	case loggedOutMsg:
		return m.handleLoggedOut()

	case clipboardMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Kopieren fehlgeschlagen: %v", msg.err), true)
		} else {
			m.setStatus("Ergebnis in die Zwischenablage kopiert", false)
		}
		return m, nil

	case tea.KeyMsg:
		debugLog.Debugf("Key: %s", msg.String())
		if m.screen == screenLogin {
			return m.handleLoginKey(msg)
		}
		return m.handleListKey(msg)
	}

	return m, nil
}

// handleWindowResize processes window size change events
func (m *model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.table.SetColumns(m.columns())
	m.table.SetWidth(m.width - 4)
	m.table.SetHeight(m.tableHeight())
	m.progress.Width = m.width - 8
	m.help.Width = m.width
	for i := range m.inputs {
		m.inputs[i].Width = m.width / 2
	}
	return m, nil
}

// tableHeight leaves room for the header, the status lines and the help
func (m *model) tableHeight() int {
	h := m.height - 12
	if m.showSummary {
		h -= summaryHeight
	}
	if h < 3 {
		h = 3
	}
	return h
}

func (m *model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.shouldQuit = true
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.inputs)
		m.focusInputs()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.inputs) - 1) % len(m.inputs)
		m.focusInputs()
		return m, nil
	case "enter":
		return m.submitLogin()
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *model) submitLogin() (tea.Model, tea.Cmd) {
	username := strings.TrimSpace(m.inputs[inputUsername].Value())
	password := m.inputs[inputPassword].Value()

	if username == "" || password == "" {
		m.setStatus("Bitte Benutzername und Passwort eingeben", true)
		return m, nil
	}

	m.setStatus("Anmeldung läuft...", false)
	m.setBusy("Anmeldung läuft...")
	return m, tea.Batch(m.loginCmd(username, password), m.spinner.Tick)
}

func (m *model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.setBusy("")
	m.inputs[inputPassword].Reset()

	if !msg.ok {
		m.setStatus(fmt.Sprintf("Anmeldung fehlgeschlagen: %s", msg.message), true)
		m.focusIndex = inputPassword
		m.focusInputs()
		return m, nil
	}

	m.screen = screenList
	m.setStatus(fmt.Sprintf("Angemeldet als %s", m.manager.Username()), false)
	return m.refresh()
}

func (m *model) refresh() (tea.Model, tea.Cmd) {
	if !m.manager.IsAuthenticated() {
		m.setStatus("Bitte zuerst anmelden", true)
		return m, nil
	}
	m.setBusy("Daten werden geladen...")
	return m, tea.Batch(m.loadItemsCmd(), m.spinner.Tick)
}

func (m *model) handleItemsLoaded(msg itemsLoadedMsg) (tea.Model, tea.Cmd) {
	m.setBusy("")
	if msg.err != nil {
		m.setStatus(fmt.Sprintf("Daten konnten nicht geladen werden: %v", msg.err), true)
		return m, nil
	}

	m.items = msg.items
	known := make(map[int]bool, len(m.items))
	for _, it := range m.items {
		known[it.ID] = true
	}
	for id := range m.marked {
		if !known[id] {
			delete(m.marked, id)
		}
	}
	m.syncRows()
	m.setStatus(fmt.Sprintf("%d Einträge geladen", len(m.items)), false)
	return m, nil
}

func (m *model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.shouldQuit = true
		return m, tea.Quit
	}

	if m.pendingIDs != nil {
		return m.handlePromptKey(msg)
	}

	if key.Matches(msg, m.keys.Quit) {
		m.shouldQuit = true
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if id, ok := m.cursorID(); ok {
			if m.marked[id] {
				delete(m.marked, id)
			} else {
				m.marked[id] = true
			}
			m.syncRows()
		}
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		ids := m.selectedIDs()
		if len(ids) == 0 {
			m.setStatus("Bitte mindestens eine Zeile auswählen", true)
			return m, nil
		}
		return m, m.runBatch(ids)

	case key.Matches(msg, m.keys.ConfirmAll):
		if len(m.items) == 0 {
			m.setStatus("Keine Daten zum Verarbeiten vorhanden", true)
			return m, nil
		}
		ids := make([]int, 0, len(m.items))
		for _, it := range m.items {
			ids = append(ids, it.ID)
		}
		if m.ui.ShouldConfirmAll() {
			m.pendingIDs = ids
			return m, nil
		}
		return m, m.runBatch(ids)

	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()

	case key.Matches(msg, m.keys.Copy):
		if m.summaryMD == "" {
			m.setStatus("Noch kein Ergebnis vorhanden", true)
			return m, nil
		}
		return m, copyCmd(m.summaryMD)

	case key.Matches(msg, m.keys.Summary):
		if m.summaryMD == "" {
			return m, nil
		}
		m.showSummary = !m.showSummary
		m.table.SetHeight(m.tableHeight())
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		m.setBusy("Abmelden...")
		return m, m.logoutCmd()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "j", "y", "enter":
		ids := m.pendingIDs
		m.pendingIDs = nil
		return m, m.runBatch(ids)
	case "n", "esc":
		m.pendingIDs = nil
		m.setStatus("Abgebrochen", false)
	}
	return m, nil
}

func (m *model) runBatch(ids []int) tea.Cmd {
	m.showSummary = false
	m.resultLine = ""
	m.setBusy("Berichte werden erfasst...")
	return tea.Batch(m.startBatchCmd(ids), m.spinner.Tick)
}

func (m *model) handleBatchDone(msg batchDoneMsg) (tea.Model, tea.Cmd) {
	m.setBusy("")
	m.batchCh = nil
	m.batchDone, m.batchTotal = 0, 0

	for i := range m.items {
		if r, ok := msg.results[m.items[i].ID]; ok && r.Success {
			m.items[i].Status = portal.StatusConfirmed
			delete(m.marked, m.items[i].ID)
		}
	}
	m.syncRows()

	summary := action.Summarize(msg.results)
	m.resultLine = summary.String()
	m.summaryMD = m.buildSummaryMarkdown(msg.ids, msg.results)
	m.setStatus(m.resultLine, summary.Failed > 0)
	debugLog.Infof("Batch finished: %s", m.resultLine)
	return m, nil
}

func (m *model) handleLoggedOut() (tea.Model, tea.Cmd) {
	m.setBusy("")
	m.screen = screenLogin
	m.items = nil
	m.marked = make(map[int]bool)
	m.summaryMD = ""
	m.resultLine = ""
	m.showSummary = false
	m.syncRows()
	m.focusIndex = inputPassword
	m.focusInputs()
	m.setStatus("Nicht angemeldet", false)
	return m, nil
}

// syncRows rebuilds the table rows from the report state.
func (m *model) syncRows() {
	showDescription := m.ui.ShouldShowDescription()
	rows := make([]table.Row, 0, len(m.items))
	for _, it := range m.items {
		mark := " "
		if m.marked[it.ID] {
			mark = "●"
		}
		row := table.Row{mark, fmt.Sprint(it.ID), it.Title, it.Date, it.Status}
		if showDescription {
			row = append(row, it.Description)
		}
		rows = append(rows, row)
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m *model) cursorID() (int, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.items) {
		return 0, false
	}
	return m.items[i].ID, true
}

// selectedIDs returns the marked reports in table order, or the report
// under the cursor when nothing is marked.
func (m *model) selectedIDs() []int {
	var ids []int
	for _, it := range m.items {
		if m.marked[it.ID] {
			ids = append(ids, it.ID)
		}
	}
	if len(ids) > 0 {
		return ids
	}
	if id, ok := m.cursorID(); ok {
		return []int{id}
	}
	return nil
}

func (m *model) buildSummaryMarkdown(ids []int, results map[int]action.Result) string {
	titles := make(map[int]string, len(m.items))
	for _, it := range m.items {
		titles[it.ID] = it.Title
	}

	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", m.resultLine)
	md.WriteString("| ID | Titel | Ergebnis | Meldung |\n")
	md.WriteString("|---|---|---|---|\n")
	for _, id := range ids {
		r := results[id]
		mark := "✅"
		if !r.Success {
			mark = "❌"
		}
		fmt.Fprintf(&md, "| %d | %s | %s | %s |\n", id, titles[id], mark, r.Message)
	}
	return md.String()
}
