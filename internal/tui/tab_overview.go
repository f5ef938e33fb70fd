package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/bizlens/internal/cli"
	"github.com/theirongolddev/bizlens/internal/kpi"
	"github.com/theirongolddev/bizlens/internal/table"
	"github.com/theirongolddev/bizlens/internal/tui/components"
	"github.com/theirongolddev/bizlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// headlineMetrics picks up to four KPIs for the card row: revenue totals and
// growth first, then whatever else was extracted.
func headlineMetrics(s kpi.Set) []components.Metric {
	var out []components.Metric
	seen := make(map[string]bool)
	add := func(m kpi.Metric) {
		if len(out) >= 4 || seen[m.Name] {
			return
		}
		seen[m.Name] = true
		cm := components.Metric{Label: cli.FormatMetricName(m.Name), Value: cli.MetricValue(m)}
		if m.Name == "last_month_growth_%" {
			cm.Good = m.Value >= 0
			if last, ok := s.Get("last_month"); ok {
				cm.Delta = "in " + last.Text
			}
		}
		out = append(out, cm)
	}

	for _, m := range s.Metrics() {
		if strings.HasPrefix(m.Name, "total_") || strings.HasSuffix(m.Name, "_%") || strings.Contains(m.Name, "margin") {
			add(m)
		}
	}
	for _, m := range s.Metrics() {
		if !m.IsText() {
			add(m)
		}
	}
	return out
}

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	an := a.analysis
	var b strings.Builder

	if cards := headlineMetrics(an.KPIs); len(cards) > 0 {
		b.WriteString(components.MetricCardRow(cards, cw))
		b.WriteString("\n")
	}

	var kpiBody strings.Builder
	if an.KPIs.Len() == 0 {
		kpiBody.WriteString(mutedStyle.Render("No numeric columns found."))
	}
	for i, m := range an.KPIs.Metrics() {
		if i > 0 {
			kpiBody.WriteString("\n")
		}
		kpiBody.WriteString(labelStyle.Render(fmt.Sprintf("%-28s", cli.FormatMetricName(m.Name))))
		kpiBody.WriteString(valueStyle.Render(cli.MetricValue(m)))
	}

	var colBody strings.Builder
	for i, n := range an.Table.Names() {
		if i > 0 {
			colBody.WriteString("\n")
		}
		colBody.WriteString(labelStyle.Render(fmt.Sprintf("%-20s", cli.Truncate(n, 19))))
		colBody.WriteString(mutedStyle.Render(fmt.Sprintf("%-9s", an.Table.Kind(n).String())))
		colBody.WriteString(components.ProgressBar(fillRate(an.Table, n), 10))
	}

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Key Metrics", kpiBody.String(), cw))
		b.WriteString("\n")
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Key Metrics", kpiBody.String(), halves[0]),
			components.ContentCard("Columns", colBody.String(), halves[1]),
		}))
		b.WriteString("\n")
	}

	b.WriteString(components.ContentCard(
		fmt.Sprintf("Preview (first %d rows)", an.Preview.Nrow()),
		renderGrid(an.Preview, components.CardInnerWidth(cw)),
		cw,
	))
	return b.String()
}

// fillRate is the share of non-missing values in column n.
func fillRate(t *table.Table, n string) float64 {
	if t.Nrow() == 0 {
		return 0
	}
	present := 0
	if t.Kind(n) == table.Numeric {
		present = len(table.Present(t.Floats(n)))
	} else {
		for _, v := range t.Strings(n) {
			if v != "" {
				present++
			}
		}
	}
	return float64(present) / float64(t.Nrow())
}

// renderGrid lays out t as aligned text columns, dropping columns that do
// not fit in width.
func renderGrid(t *table.Table, width int) string {
	th := theme.Active
	headStyle := lipgloss.NewStyle().Foreground(th.Accent).Background(th.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(th.TextPrimary).Background(th.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(th.TextDim).Background(th.Surface)

	const maxCell = 18
	names := t.Names()
	cols := make([][]string, len(names))
	widths := make([]int, len(names))
	for i, n := range names {
		cols[i] = t.Strings(n)
		widths[i] = min(lipgloss.Width(n), maxCell)
		for _, v := range cols[i] {
			widths[i] = min(max(widths[i], lipgloss.Width(v)), maxCell)
		}
	}

	shown, used := 0, 0
	for shown < len(names) && used+widths[shown]+2 <= width {
		used += widths[shown] + 2
		shown++
	}

	cell := func(s string, w int) string {
		s = cli.Truncate(s, w)
		return s + strings.Repeat(" ", w-lipgloss.Width(s)+2)
	}

	var b strings.Builder
	for i := 0; i < shown; i++ {
		b.WriteString(headStyle.Render(cell(names[i], widths[i])))
	}
	for r := 0; r < t.Nrow(); r++ {
		b.WriteString("\n")
		for i := 0; i < shown; i++ {
			v := cols[i][r]
			if v == "" {
				b.WriteString(dimStyle.Render(cell("NaN", widths[i])))
				continue
			}
			b.WriteString(cellStyle.Render(cell(v, widths[i])))
		}
	}
	if shown < len(names) {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("… %d more columns", len(names)-shown)))
	}
	return b.String()
}
