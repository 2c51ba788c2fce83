package tui

import (
	"context"
	"strings"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/action"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/config"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/session"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// screen is the top level view the model shows.
type screen int

const (
	screenLogin screen = iota
	screenList
)

const (
	inputUsername = iota
	inputPassword
)

// model represents the state of the TUI application.
type model struct {
	ctx context.Context

	// Portal integration
	backend   portal.Backend
	manager   *session.Manager
	collector *session.Collector
	processor *action.Processor
	ui        *config.UISection

	// Bubble Tea components
	inputs   []textinput.Model
	table    table.Model
	spinner  spinner.Model
	progress progress.Model
	help     help.Model
	keys     keyMap

	screen     screen
	focusIndex int

	// Report state
	items  []portal.WorkItem
	marked map[int]bool

	// Busy state
	busy           bool
	loadingMessage string
	batchCh        <-chan tea.Msg
	batchDone      int
	batchTotal     int

	// pendingIDs holds the batch waiting for a yes/no answer.
	pendingIDs []int

	// Last batch outcome
	resultLine  string
	summaryMD   string
	showSummary bool

	// Status line
	status        string
	statusIsError bool

	// Window dimensions
	width  int
	height int

	// Application state
	shouldQuit bool
}

func newModel(ctx context.Context, backend portal.Backend, ui *config.UISection, username string) *model {
	if ui == nil {
		ui = config.NewUISection()
	}

	user := textinput.New()
	user.Placeholder = "Benutzername"
	user.Prompt = "Benutzername: "
	user.CharLimit = 64
	user.SetValue(username)

	pass := textinput.New()
	pass.Placeholder = "Passwort"
	pass.Prompt = "Passwort:     "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 128

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = headerStyle

	m := &model{
		ctx:       ctx,
		backend:   backend,
		manager:   session.NewManager(backend),
		collector: session.NewCollector(backend),
		processor: action.NewProcessor(backend),
		ui:        ui,
		inputs:    []textinput.Model{user, pass},
		spinner:   s,
		progress:  progress.New(progress.WithGradient(string(coralPink), string(salmonPink))),
		help:      help.New(),
		keys:      defaultKeyMap(),
		marked:    make(map[int]bool),
		status:    "Nicht angemeldet",
		width:     100,
		height:    30,
	}

	m.table = table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithStyles(tableStyles()),
	)

	// Start on the password field when the username is already known
	if strings.TrimSpace(username) != "" {
		m.focusIndex = inputPassword
	}
	m.focusInputs()
	return m
}

// Init implements tea.Model.
func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// columns returns the report table columns for the current width.
func (m *model) columns() []table.Column {
	cols := []table.Column{
		{Title: " ", Width: 1},
		{Title: "ID", Width: 6},
		{Title: "Titel", Width: 22},
		{Title: "Datum", Width: 10},
		{Title: "Status", Width: 12},
	}
	if m.ui.ShouldShowDescription() {
		used := 0
		for _, c := range cols {
			used += c.Width + 2
		}
		width := m.width - used - 6
		if width < 12 {
			width = 12
		}
		cols = append(cols, table.Column{Title: "Beschreibung", Width: width})
	}
	return cols
}

// focusInputs moves the text cursor to the focused login field.
func (m *model) focusInputs() {
	for i := range m.inputs {
		if i == m.focusIndex {
			m.inputs[i].Focus()
			continue
		}
		m.inputs[i].Blur()
	}
}

// setStatus replaces the status line.
func (m *model) setStatus(text string, isError bool) {
	m.status = text
	m.statusIsError = isError
}

// setBusy shows the spinner with message. An empty message clears it.
func (m *model) setBusy(message string) {
	m.busy = message != ""
	m.loadingMessage = message
}
