package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// summaryHeight is the number of lines reserved for the batch summary panel.
const summaryHeight = 12

var (
	mdRendererMu sync.Mutex
	// Renderers are cached by wrap width. A fixed style avoids the terminal
	// background query of WithAutoStyle.
	mdRenderers = map[int]*glamour.TermRenderer{}
)

// renderMarkdown renders md for the terminal, falling back to the raw text
// when glamour fails.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	mdRendererMu.Lock()
	defer mdRendererMu.Unlock()

	r := mdRenderers[width]
	if r == nil {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			debugLog.Warnf("Markdown renderer unavailable: %v", err)
			return md
		}
		mdRenderers[width] = r
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
