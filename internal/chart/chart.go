// Package chart decides which charts a table supports and renders them to PNG.
package chart

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/theirongolddev/bizlens/internal/table"
)

// Kind is a chart type.
type Kind int

const (
	TimeSeries Kind = iota
	Scatter
)

func (k Kind) String() string {
	if k == Scatter {
		return "scatter"
	}
	return "timeseries"
}

// Spec describes one chart.
type Spec struct {
	Kind  Kind
	Title string
	X     string
	Y     string
}

// Point is one plotted value. For time series X is a Unix timestamp.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// dateColumn is the column time series are plotted against.
const dateColumn = "date"

// Plan returns the charts t supports: the first numeric column over time when a
// date column exists, and a scatter of the first two numeric columns.
func Plan(t *table.Table) []Spec {
	nums := t.NumericColumns()
	var out []Spec
	if t.Has(dateColumn) && len(nums) > 0 {
		out = append(out, Spec{
			Kind:  TimeSeries,
			Title: nums[0] + " Over Time",
			X:     dateColumn,
			Y:     nums[0],
		})
	}
	if len(nums) > 1 {
		out = append(out, Spec{
			Kind:  Scatter,
			Title: "Correlation Plot",
			X:     nums[0],
			Y:     nums[1],
		})
	}
	return out
}

// Points extracts the plotted values. Rows with a missing value or an
// unparseable date are dropped; time series come back sorted by date.
func Points(t *table.Table, s Spec) []Point {
	ys := t.Floats(s.Y)
	var out []Point

	switch s.Kind {
	case TimeSeries:
		dates := t.Dates(s.X)
		for i := range dates {
			if i >= len(ys) || dates[i].IsZero() || math.IsNaN(ys[i]) {
				continue
			}
			out = append(out, Point{X: float64(dates[i].Unix()), Y: ys[i]})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	case Scatter:
		xs := t.Floats(s.X)
		for i := range xs {
			if i >= len(ys) || math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
				continue
			}
			out = append(out, Point{X: xs[i], Y: ys[i]})
		}
	}
	return out
}

// Render builds the plot for s.
func Render(t *table.Table, s Spec) (*plot.Plot, error) {
	pts := Points(t, s)
	if len(pts) == 0 {
		return nil, fmt.Errorf("chart %q: no plottable rows", s.Title)
	}
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i].X, xys[i].Y = p.X, p.Y
	}

	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = s.X
	p.Y.Label.Text = s.Y
	p.Add(plotter.NewGrid())

	switch s.Kind {
	case TimeSeries:
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("chart %q: %w", s.Title, err)
		}
		p.Add(line)
	case Scatter:
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("chart %q: %w", s.Title, err)
		}
		p.Add(sc)
	}
	return p, nil
}

// SavePNG renders s into dir and returns the written file path.
func SavePNG(t *table.Table, s Spec, dir string) (string, error) {
	p, err := Render(t, s)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(s))
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}

// FileName returns a filesystem-safe PNG name derived from the chart title.
func FileName(s Spec) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s.Title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String() + ".png"
}
