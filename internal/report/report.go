// Package report renders run summaries and journal history for the terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/go-scripts/providercrawl/internal/journal"
	"github.com/go-scripts/providercrawl/internal/types"
)

var (
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("110"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

const timeLayout = "2006-01-02 15:04:05"

// Stats is what a finished crawl reports
type Stats struct {
	Locations  int
	Pairs      int
	Completed  int
	Skipped    int
	Errored    int
	Saved      int
	Elapsed    time.Duration
	OutputFile string
	RunID      string
}

// Summary renders the end-of-run panel
func Summary(s Stats) string {
	rows := []struct {
		label string
		value string
	}{
		{"Locations", fmt.Sprintf("%d", s.Locations)},
		{"Searches", fmt.Sprintf("%d (%d completed, %d skipped, %d errored)", s.Pairs, s.Completed, s.Skipped, s.Errored)},
		{"New records", fmt.Sprintf("%d", s.Saved)},
		{"Output", s.OutputFile},
		{"Elapsed", formatElapsed(s.Elapsed)},
	}
	if s.RunID != "" {
		rows = append(rows, struct {
			label string
			value string
		}{"Run", s.RunID})
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("Crawl Summary") + "\n\n")
	for _, r := range rows {
		fmt.Fprintf(&content, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", r.label+":")), valueStyle.Render(r.value))
	}
	return borderStyle.Render(strings.TrimRight(content.String(), "\n"))
}

// Runs renders recent runs, newest first
func Runs(runs []journal.Run) string {
	if len(runs) == 0 {
		return borderStyle.Render(infoStyle.Render("No runs recorded yet"))
	}

	header := headerStyle.Render(fmt.Sprintf("%-36s  %-19s  %8s  %7s  %9s  %7s  %7s",
		"Run", "Started", "Duration", "Records", "Completed", "Skipped", "Errored"))

	lines := []string{header}
	for _, r := range runs {
		duration := "running"
		if !r.FinishedAt.IsZero() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		row := fmt.Sprintf("%-36s  %-19s  %8s  %7d  %9d  %7d  %7d",
			r.ID, r.StartedAt.Local().Format(timeLayout), duration,
			r.Records, r.Completed, r.Skipped, r.Errored)

		switch {
		case r.Error != "":
			row = errorStyle.Render(row + "  " + r.Error)
		case r.Errored > 0:
			row = warningStyle.Render(row)
		}
		lines = append(lines, row)
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

// Pairs renders the outcome of every search in one run
func Pairs(runID string, pairs []journal.Pair) string {
	if len(pairs) == 0 {
		return borderStyle.Render(infoStyle.Render("No searches recorded for run " + runID))
	}

	header := headerStyle.Render(fmt.Sprintf("%-30s  %-18s  %-18s  %7s",
		"Location", "Category", "Outcome", "Scraped"))

	lines := []string{titleStyle.Render("Run "+runID) + "\n", header}
	for _, p := range pairs {
		scraped := "-"
		if p.Outcome == types.OutcomeCompleted {
			scraped = fmt.Sprintf("%d/%d", p.Succeeded, p.Attempted)
		}
		row := fmt.Sprintf("%-30s  %-18s  %-18s  %7s",
			truncate(p.Location, 30), truncate(p.Category, 18), p.Outcome, scraped)
		if p.Outcome == types.OutcomeErrored {
			row = errorStyle.Render(row + "  " + p.Error)
		}
		lines = append(lines, row)
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

func truncate(s string, w int) string {
	if len(s) <= w {
		return s
	}
	return s[:w-3] + "..."
}
