package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/bizlens/internal/forecast"
	"github.com/theirongolddev/bizlens/internal/kpi"
	"github.com/theirongolddev/bizlens/internal/table"
)

// maxCellWidth caps preview cells so wide text columns stay readable.
const maxCellWidth = 24

// MetricValue formats a KPI for display, rounded to 2 decimals.
func MetricValue(m kpi.Metric) string {
	switch {
	case m.IsText():
		return m.Text
	case strings.HasSuffix(m.Name, "_%"):
		return FormatDelta(m.Value)
	case IsPercentMetric(m.Name):
		return FormatPercent(m.Value)
	default:
		return FormatValue(m.Value)
	}
}

// KPITable lays out a KPI set as a two-column table.
func KPITable(s kpi.Set) Table {
	t := Table{Title: "Key Metrics", Headers: []string{"Metric", "Value"}}
	for _, m := range s.Metrics() {
		t.Rows = append(t.Rows, []string{FormatMetricName(m.Name), MetricValue(m)})
	}
	return t
}

// PreviewTable lays out the rows of t, showing at most maxCols columns.
func PreviewTable(t *table.Table, maxCols int) Table {
	names := t.Names()
	if maxCols > 0 && len(names) > maxCols {
		names = names[:maxCols]
	}
	out := Table{
		Title:   fmt.Sprintf("Preview of %s (%d rows x %d columns)", t.Name, t.Nrow(), t.Ncol()),
		Headers: names,
	}
	cols := make([][]string, len(names))
	for i, n := range names {
		cols[i] = t.Strings(n)
	}
	for r := 0; r < t.Nrow(); r++ {
		row := make([]string, len(names))
		for c := range names {
			row[c] = Truncate(cols[c][r], maxCellWidth)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// RenderForecast renders a forecast result with a sparkline of the fitted and
// projected values.
func RenderForecast(res *forecast.Result) string {
	p := styles()
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(p.header.Render(fmt.Sprintf("Next-month forecast for %s", res.Column)))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  %s %s\n", p.muted.Render("Point estimate:"),
		p.strong.Render(FormatValue(res.Point)))
	fmt.Fprintf(&b, "  %s %s\n", p.muted.Render("Window:        "),
		p.value.Render(fmt.Sprintf("%d days after %s (mean of daily predictions)",
			forecast.Horizon, res.LastObserved.Format("2006-01-02"))))
	fmt.Fprintf(&b, "  %s %s\n", p.muted.Render("Observations:  "),
		p.value.Render(FormatNumber(int64(res.Observations))))
	if len(res.Seasonality) > 0 {
		fmt.Fprintf(&b, "  %s %s\n", p.muted.Render("Seasonality:   "),
			p.value.Render(strings.Join(res.Seasonality, ", ")))
	}

	var hist, future []float64
	for _, pt := range res.Series {
		if pt.Future {
			future = append(future, pt.Yhat)
		} else {
			hist = append(hist, pt.Yhat)
		}
	}
	hist = Downsample(hist, 60)
	all := append(append([]float64{}, hist...), future...)
	spark := []rune(RenderSparkline(all))
	b.WriteString("\n  ")
	b.WriteString(p.rule.Render(string(spark[:len(hist)])))
	b.WriteString(p.good.Render(string(spark[len(hist):])))
	b.WriteString("\n  ")
	b.WriteString(p.muted.Render("fitted history, then projection"))
	b.WriteString("\n")
	return b.String()
}

// Downsample averages values into at most n buckets.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	size := float64(len(values)) / float64(n)
	for i := range out {
		lo := int(math.Floor(float64(i) * size))
		hi := int(math.Floor(float64(i+1) * size))
		hi = max(hi, lo+1)
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// RenderAnswer renders model output inside a rounded box of the given width.
func RenderAnswer(title, text string, width int) string {
	p := styles()
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Padding(0, 1).
		Width(width)
	return "  " + p.header.Render(title) + "\n" + box.Render(p.value.Render(strings.TrimSpace(text))) + "\n"
}
