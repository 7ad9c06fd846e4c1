// Package tui implements the live coverage dashboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ocha-dataviz/ghotrack/internal/cli"
	"github.com/ocha-dataviz/ghotrack/internal/model"
	"github.com/ocha-dataviz/ghotrack/internal/pipeline"
)

const refreshTimeout = 2 * time.Minute

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(cli.ColorText)
	labelStyle = lipgloss.NewStyle().Foreground(cli.ColorTextMuted)
	valueStyle = lipgloss.NewStyle().Foreground(cli.ColorText)
	errStyle   = lipgloss.NewStyle().Foreground(cli.ColorRed)
	keyStyle   = lipgloss.NewStyle().Foreground(cli.ColorAccent)
)

// refreshDoneMsg carries the result of a background merge run.
type refreshDoneMsg struct {
	rows   []model.PlanCoverage
	totals model.Totals
	err    error
}

// App is the bubbletea model for the coverage dashboard.
type App struct {
	job *pipeline.Job

	rows      []model.PlanCoverage
	totals    model.Totals
	refreshed time.Time

	bar     progress.Model
	spin    spinner.Model
	loading bool
	err     error
	width   int
}

// NewApp creates the dashboard around a dry-run job (no file writes).
func NewApp(job *pipeline.Job) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)

	return App{
		job:  job,
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spin: sp,
	}
}

// Init kicks off the first refresh.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, a.refreshCmd())
}

func (a App) refreshCmd() tea.Cmd {
	job := a.job
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		result, err := job.Run(ctx)
		if err != nil {
			return refreshDoneMsg{err: err}
		}
		return refreshDoneMsg{rows: result.Rows, totals: result.Summary.Totals}
	}
}

// Update handles key, window, and refresh messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return a, tea.Quit
		case "r":
			if !a.loading {
				a.loading = true
				return a, tea.Batch(a.spin.Tick, a.refreshCmd())
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.bar.Width = barWidth(msg.Width)

	case refreshDoneMsg:
		a.loading = false
		a.err = msg.err
		if msg.err == nil {
			a.rows = msg.rows
			a.totals = msg.totals
			a.refreshed = time.Now()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		if a.loading {
			return a, cmd
		}
	}

	return a, nil
}

func barWidth(termWidth int) int {
	w := termWidth - 46
	if w < 10 {
		w = 10
	}
	if w > 40 {
		w = 40
	}
	return w
}

// View renders the dashboard.
func (a App) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  GHO %d Prioritized Coverage", a.job.Year)))
	b.WriteString("\n\n")

	switch {
	case a.loading && len(a.rows) == 0:
		b.WriteString(fmt.Sprintf("  %s fetching FTS data...\n", a.spin.View()))
	case a.err != nil && len(a.rows) == 0:
		b.WriteString(errStyle.Render(fmt.Sprintf("  refresh failed: %v", a.err)))
		b.WriteString("\n")
	default:
		a.renderRows(&b)
	}

	b.WriteString("\n")
	if a.err != nil && len(a.rows) > 0 {
		b.WriteString(errStyle.Render(fmt.Sprintf("  last refresh failed: %v", a.err)))
		b.WriteString(labelStyle.Render("  (showing previous data)"))
		b.WriteString("\n")
	}
	if a.loading && len(a.rows) > 0 {
		b.WriteString(fmt.Sprintf("  %s refreshing...\n", a.spin.View()))
	} else if !a.refreshed.IsZero() {
		b.WriteString(labelStyle.Render(fmt.Sprintf("  updated %s", a.refreshed.Format("15:04:05"))))
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("  "))
	b.WriteString(keyStyle.Render("r"))
	b.WriteString(labelStyle.Render(" refresh  "))
	b.WriteString(keyStyle.Render("q"))
	b.WriteString(labelStyle.Render(" quit"))
	b.WriteString("\n")

	return b.String()
}

func (a App) renderRows(b *strings.Builder) {
	nameWidth := 0
	for _, r := range a.rows {
		if len(r.Name) > nameWidth {
			nameWidth = len(r.Name)
		}
	}
	if nameWidth > 34 {
		nameWidth = 34
	}

	for _, r := range a.rows {
		name := r.Name
		if len(name) > nameWidth {
			name = name[:nameWidth-1] + "…"
		}

		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			valueStyle.Render(fmt.Sprintf("%-*s", nameWidth, name)),
			a.bar.ViewAs(r.CoveragePct/100),
			labelStyle.Render(fmt.Sprintf("%6s of %s",
				cli.FormatPercent(r.CoveragePct),
				cli.FormatUSD(float64(r.Requirement)))),
		))
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("  Total "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%s funded of %s prioritized (%s)",
		cli.FormatUSD(a.totals.Funding),
		cli.FormatUSD(float64(a.totals.Requirement)),
		cli.FormatPercent(a.totals.CoveragePct))))
	b.WriteString("\n")
}
