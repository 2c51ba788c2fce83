package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI interface.
// This is called by Bubble Tea whenever the UI needs to be redrawn.
func (m *model) View() string {
	if m.shouldQuit {
		return ""
	}

	sections := []string{m.buildHeader(), m.buildTopStatus()}
	if m.screen == screenLogin {
		sections = append(sections, m.buildLoginForm())
	} else {
		sections = append(sections, m.buildTable())
		if m.showSummary && m.summaryMD != "" {
			sections = append(sections, m.buildSummaryPanel())
		}
		sections = append(sections, m.buildProgress())
	}
	sections = append(sections, m.buildLoadingIndicator(), m.buildStatusLine(), m.buildBottomBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// buildHeader renders the application title
func (m *model) buildHeader() string {
	return headerStyle.Render("  🚒 Erfassinator") + tipsStyle.Render("  FW Portal Berichte erfassen")
}

// buildTopStatus renders the session status bar
func (m *model) buildTopStatus() string {
	user := "nicht angemeldet"
	if m.manager.IsAuthenticated() {
		user = m.manager.Username()
	}
	return statusBarStyle.Render(fmt.Sprintf(" Benutzer: %s • %d Einträge • %d markiert", user, len(m.items), len(m.marked)))
}

// buildLoginForm renders the username and password fields
func (m *model) buildLoginForm() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Anmeldung"))
	b.WriteString("\n\n")
	for i, input := range m.inputs {
		style := inputBoxStyle
		if i == m.focusIndex {
			style = focusedInputBoxStyle
		}
		b.WriteString(style.Render(input.View()))
		b.WriteString("\n")
	}
	b.WriteString(tipsStyle.Render("Tab wechselt das Feld • Enter meldet an • Esc beendet"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// buildTable renders the report table or the confirmation prompt
func (m *model) buildTable() string {
	view := m.table.View()
	if len(m.items) == 0 && !m.busy {
		view = tipsStyle.Render("  Keine Einträge")
	}
	if m.pendingIDs != nil {
		prompt := promptStyle.Render(fmt.Sprintf("Berichte für alle %d Einträge erfassen? (j/n)", len(m.pendingIDs)))
		view = lipgloss.JoinVertical(lipgloss.Left, view, panelStyle.Render(prompt))
	}
	return view
}

// buildSummaryPanel renders the last batch result as markdown
func (m *model) buildSummaryPanel() string {
	rendered := renderMarkdown(m.summaryMD, m.width-8)
	lines := strings.Split(rendered, "\n")
	if len(lines) > summaryHeight {
		lines = append(lines[:summaryHeight-1], tipsStyle.Render("…"))
	}
	return panelStyle.Width(m.width - 4).Render(strings.Join(lines, "\n"))
}

// buildProgress renders the batch progress bar and the last result
func (m *model) buildProgress() string {
	if m.batchTotal > 0 {
		percent := float64(m.batchDone) / float64(m.batchTotal)
		return fmt.Sprintf("  %s %d/%d", m.progress.ViewAs(percent), m.batchDone, m.batchTotal)
	}
	if m.resultLine != "" {
		return "  " + successStyle.Render(m.resultLine)
	}
	return ""
}

// buildLoadingIndicator renders the loading spinner when busy
func (m *model) buildLoadingIndicator() string {
	if !m.busy {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(salmonPink).
		Padding(0, 2).
		Render(fmt.Sprintf("%s %s", m.spinner.View(), m.loadingMessage))
}

// buildStatusLine renders the last status or error message
func (m *model) buildStatusLine() string {
	if m.status == "" {
		return ""
	}
	if m.statusIsError {
		return errorStyle.Render("  ⚠ " + m.status)
	}
	return tipsStyle.Render("  " + m.status)
}

// buildBottomBar renders the key help
func (m *model) buildBottomBar() string {
	if m.screen == screenLogin {
		return ""
	}
	return statusBarStyle.Render(m.help.View(m.keys))
}
