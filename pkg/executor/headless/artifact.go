package headless

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/action"
)

// ArtifactWriter handles writing execution artifacts
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
	}
}

// OutputDir returns the directory artifacts are written to.
func (w *ArtifactWriter) OutputDir() string {
	return w.outputDir
}

// WriteAll writes execution.json and summary.md.
func (w *ArtifactWriter) WriteAll(summary *ExecutionSummary) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.WriteExecutionJSON(summary); err != nil {
		return fmt.Errorf("failed to write execution JSON: %w", err)
	}

	if err := w.WriteSummaryMarkdown(summary); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}

	return nil
}

// WriteExecutionJSON writes the full execution summary as JSON
func (w *ArtifactWriter) WriteExecutionJSON(summary *ExecutionSummary) error {
	path := filepath.Join(w.outputDir, "execution.json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write execution JSON: %w", writeErr)
	}

	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *ExecutionSummary) error {
	path := filepath.Join(w.outputDir, "summary.md")

	var md strings.Builder

	md.WriteString("# Erfassinator Run Summary\n\n")
	fmt.Fprintf(&md, "**Run:** %s\n\n", summary.RunID)
	fmt.Fprintf(&md, "**Portal:** %s (user %s)\n\n", summary.Portal, summary.Username)
	fmt.Fprintf(&md, "**Status:** %s\n\n", summary.Status)
	fmt.Fprintf(&md, "**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339))
	fmt.Fprintf(&md, "**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339))
	fmt.Fprintf(&md, "**Duration:** %s\n\n", summary.Duration)
	if summary.DryRun {
		md.WriteString("**Dry run:** nothing was confirmed\n\n")
	}

	md.WriteString("## Result\n\n")
	if summary.Error != "" {
		fmt.Fprintf(&md, "❌ **Error:** %s\n\n", summary.Error)
	} else {
		fmt.Fprintf(&md, "✅ **%s**\n\n", summary.Metrics.String())
	}

	if len(summary.Results) > 0 {
		md.WriteString("## Reports\n\n")
		md.WriteString("| ID | Titel | Ergebnis | Meldung |\n")
		md.WriteString("|---|---|---|---|\n")
		for _, r := range summary.Results {
			status := "✅"
			if !r.Success {
				status = "❌"
			}
			fmt.Fprintf(&md, "| %d | %s | %s | %s |\n", r.ID, escapeCell(r.Title), status, escapeCell(r.Message))
		}
		md.WriteString("\n")
	} else if len(summary.Selected) > 0 {
		md.WriteString("## Selected Reports\n\n")
		for _, id := range summary.Selected {
			fmt.Fprintf(&md, "- %d\n", id)
		}
		md.WriteString("\n")
	}

	if len(summary.Skipped) > 0 {
		md.WriteString("## Skipped\n\n")
		for _, s := range summary.Skipped {
			fmt.Fprintf(&md, "- %d: %s\n", s.ID, s.Reason)
		}
		md.WriteString("\n")
	}

	md.WriteString("## Metrics\n\n")
	fmt.Fprintf(&md, "- **Listed:** %d\n", summary.Listed)
	fmt.Fprintf(&md, "- **Selected:** %d\n", len(summary.Selected))
	fmt.Fprintf(&md, "- **Succeeded:** %d\n", summary.Metrics.Succeeded)
	fmt.Fprintf(&md, "- **Failed:** %d\n", summary.Metrics.Failed)

	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

// ItemResult is the outcome for one selected report.
type ItemResult struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ExecutionSummary contains a complete summary of a headless run
type ExecutionSummary struct {
	RunID     string         `json:"run_id"`
	Portal    string         `json:"portal"`
	Username  string         `json:"username"`
	Status    string         `json:"status"`
	Error     string         `json:"error,omitempty"`
	DryRun    bool           `json:"dry_run"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  time.Duration  `json:"duration"`
	Listed    int            `json:"listed"`
	Selected  []int          `json:"selected"`
	Skipped   []SkippedItem  `json:"skipped,omitempty"`
	Results   []ItemResult   `json:"results,omitempty"`
	Metrics   action.Summary `json:"metrics"`
}
