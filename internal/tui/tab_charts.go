package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/bizlens/internal/chart"
	"github.com/theirongolddev/bizlens/internal/tui/components"
	"github.com/theirongolddev/bizlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderChartsTab(cw int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	specs := a.analysis.Charts
	if len(specs) == 0 {
		return components.ContentCard("Charts",
			mutedStyle.Render("Nothing to plot: need a date column with a numeric column,\nor at least two numeric columns."), cw)
	}

	chartH := 12
	if a.isCompactLayout() {
		chartH = 8
	}
	inner := components.CardInnerWidth(cw)
	colors := t.Series()

	var b strings.Builder
	for i, s := range specs {
		if i > 0 {
			b.WriteString("\n")
		}
		pts := chart.Points(a.table, s)
		if len(pts) == 0 {
			b.WriteString(components.ContentCard(s.Title, mutedStyle.Render("No plottable rows."), cw))
			continue
		}
		color := colors[i%len(colors)]

		var body string
		switch s.Kind {
		case chart.TimeSeries:
			vals, dates := dailySeries(pts, inner)
			body = components.BarChart(vals, dateLabels(dates), color, inner, chartH)
		case chart.Scatter:
			xs := make([]float64, len(pts))
			ys := make([]float64, len(pts))
			for j, p := range pts {
				xs[j], ys[j] = p.X, p.Y
			}
			body = components.ScatterPlot(xs, ys, s.X, s.Y, color, inner, chartH)
		}
		title := fmt.Sprintf("%s (%d points)", s.Title, len(pts))
		b.WriteString(components.ContentCard(title, body, cw))
	}
	return b.String()
}

// dailySeries sums time series points per calendar day and, when there are
// more days than fit in width, averages them into equal buckets.
func dailySeries(pts []chart.Point, width int) ([]float64, []time.Time) {
	var vals []float64
	var dates []time.Time
	for _, p := range pts {
		d := time.Unix(int64(p.X), 0).UTC().Truncate(24 * time.Hour)
		if n := len(dates); n > 0 && dates[n-1].Equal(d) {
			vals[n-1] += p.Y
			continue
		}
		dates = append(dates, d)
		vals = append(vals, p.Y)
	}

	buckets := max(width/3, 2)
	if len(vals) <= buckets {
		return vals, dates
	}
	outV := make([]float64, buckets)
	outD := make([]time.Time, buckets)
	size := float64(len(vals)) / float64(buckets)
	for i := range outV {
		lo := int(float64(i) * size)
		hi := max(int(float64(i+1)*size), lo+1)
		var sum float64
		for _, v := range vals[lo:hi] {
			sum += v
		}
		outV[i] = sum / float64(hi-lo)
		outD[i] = dates[lo]
	}
	return outV, outD
}

// dateLabels builds compact X-axis labels for a chronological date series.
// First label and month boundaries: month abbreviation (e.g. "Feb"); year
// boundaries add the year. Everything else: the day number.
func dateLabels(dates []time.Time) []string {
	labels := make([]string, len(dates))
	for i, dt := range dates {
		switch {
		case i == 0:
			labels[i] = dt.Format("Jan")
		case dt.Year() != dates[i-1].Year():
			labels[i] = dt.Format("Jan06")
		case dt.Month() != dates[i-1].Month():
			labels[i] = dt.Format("Jan")
		default:
			labels[i] = strconv.Itoa(dt.Day())
		}
	}
	return labels
}
