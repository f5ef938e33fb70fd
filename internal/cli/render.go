package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/bizlens/internal/tui/theme"
)

// palette is the set of styles for command output, taken from the active
// theme so [appearance] theme applies outside the dashboard as well.
type palette struct {
	title  lipgloss.Style
	header lipgloss.Style
	value  lipgloss.Style
	strong lipgloss.Style
	muted  lipgloss.Style
	rule   lipgloss.Style
	good   lipgloss.Style
	bad    lipgloss.Style
	warn   lipgloss.Style
	border lipgloss.Color
}

func styles() palette {
	t := theme.Active
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return palette{
		title:  fg(t.TextPrimary).Bold(true).Align(lipgloss.Center),
		header: fg(t.Accent).Bold(true),
		value:  fg(t.TextPrimary),
		strong: fg(t.TextPrimary).Bold(true),
		muted:  fg(t.TextMuted),
		rule:   fg(t.TextDim),
		good:   fg(t.Trend(1)),
		bad:    fg(t.Trend(-1)),
		warn:   fg(t.Orange),
		border: t.BorderBright,
	}
}

// Table is a bordered text table. A row holding the single cell "---" draws
// a separator line. Body cells that read as numbers are right-aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// titleMinWidth keeps short report titles from producing a cramped box.
const titleMinWidth = 55

// RenderTitle renders title centered in a rounded box that grows with the title.
func RenderTitle(title string) string {
	p := styles()
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Width(max(titleMinWidth, lipgloss.Width(title)+4)).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(p.title.Render(title))
}

func (t Table) columns() int {
	if len(t.Headers) > 0 {
		return len(t.Headers)
	}
	n := 0
	for _, row := range t.Rows {
		if !isSeparator(row) {
			n = max(n, len(row))
		}
	}
	return n
}

func (t Table) columnWidths() []int {
	widths := make([]int, t.columns())
	if t.Widths != nil {
		copy(widths, t.Widths)
		return widths
	}
	measure := func(cells []string) {
		for i, c := range cells {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		if !isSeparator(row) {
			measure(row)
		}
	}
	return widths
}

func isSeparator(row []string) bool {
	return len(row) == 1 && row[0] == "---"
}

// looksNumeric reports whether a formatted cell holds a number, allowing
// thousands separators, a sign and a trailing percent.
func looksNumeric(s string) bool {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func padCell(s string, w int, right bool) string {
	gap := strings.Repeat(" ", max(w-lipgloss.Width(s), 0))
	if right {
		return gap + s
	}
	return s + gap
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}
	p := styles()
	widths := t.columnWidths()

	rule := func(left, mid, right string) string {
		segs := make([]string, len(widths))
		for i, w := range widths {
			segs[i] = strings.Repeat("─", w+2)
		}
		return p.rule.Render(left+strings.Join(segs, mid)+right) + "\n"
	}
	line := func(cells []string, style lipgloss.Style, body bool) string {
		bar := p.rule.Render("│")
		var b strings.Builder
		b.WriteString(bar)
		for i, w := range widths {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(style.Render(" " + padCell(cell, w, body && i > 0 && looksNumeric(cell)) + " "))
			b.WriteString(bar)
		}
		b.WriteString("\n")
		return b.String()
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + p.header.Render(t.Title) + "\n")
	}
	b.WriteString(rule("╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(line(t.Headers, p.header, false))
		b.WriteString(rule("├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			b.WriteString(rule("├", "┼", "┤"))
			continue
		}
		b.WriteString(line(row, p.value, true))
	}
	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

// RenderProgressBar renders a file-count progress bar such as "[███░░] 3/5".
func RenderProgressBar(current, total int, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	current = min(max(current, 0), total)
	filled := current * width / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s/%s", styles().muted.Render(bar),
		FormatNumber(int64(current)), FormatNumber(int64(total)))
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// RenderSparkline maps values onto block characters scaled between their
// minimum and maximum.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	out := make([]rune, len(values))
	top := len(sparkBlocks) - 1
	for i, v := range values {
		idx := int((v - lo) / span * float64(top))
		out[i] = sparkBlocks[min(max(idx, 0), top)]
	}
	return string(out)
}

// RenderHorizontalBar renders one labeled bar of a monthly totals chart.
func RenderHorizontalBar(label string, value, maxValue float64, maxWidth int) string {
	if maxValue <= 0 {
		return "  " + label
	}
	n := min(max(int(value/maxValue*float64(maxWidth)), 0), maxWidth)
	p := styles()
	return fmt.Sprintf("  %s %s %s", label, p.good.Render(strings.Repeat("█", n)), p.muted.Render(FormatCompact(value)))
}

// RenderMessage renders a warning or error line, e.g. a forecast or insight
// failure that should not abort the command.
func RenderMessage(msg string, isError bool) string {
	p := styles()
	if isError {
		return p.bad.Render("  ✗ " + msg)
	}
	return p.warn.Render("  ! " + msg)
}

// RenderDelta colors a signed percentage change by its direction.
func RenderDelta(pct float64) string {
	return lipgloss.NewStyle().Foreground(theme.Active.Trend(pct)).Render(FormatDelta(pct))
}
