package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(60).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
// A row of the single cell "---" renders as a separator line.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		if len(h) > widths[i] {
			widths[i] = len(h)
		}
	}
	for _, row := range t.Rows {
		for i, c := range row {
			if i < numCols && len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(fmt.Sprintf(" %-*s ", widths[i], h)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		rule("├", "┼", "┤")
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			c := ""
			if i < len(row) {
				c = row[i]
			}

			// Right-align numeric columns (all except first)
			var padded string
			if i == 0 {
				padded = fmt.Sprintf(" %-*s ", widths[i], c)
			} else {
				padded = fmt.Sprintf(" %*s ", widths[i], c)
			}
			b.WriteString(valueStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╰", "┴", "╯")

	return b.String()
}

// RenderCoverageBar renders a fixed-width coverage bar for a 0-100 pct.
func RenderCoverageBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}

	p := pct / 100
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}

	filled := int(p * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := mutedStyle
	switch {
	case pct >= 50:
		style = lipgloss.NewStyle().Foreground(ColorGreen)
	case pct >= 20:
		style = lipgloss.NewStyle().Foreground(ColorOrange)
	case pct > 0:
		style = lipgloss.NewStyle().Foreground(ColorRed)
	}

	return style.Render(bar)
}
