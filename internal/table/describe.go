package table

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// describeRows are the statistic labels in output order.
var describeRows = []string{"count", "unique", "top", "freq", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Present drops NaN values.
func Present(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Describe renders summary statistics for every column as a plain-text grid: count,
// unique/top/freq for text columns and mean/std/quartiles for numeric ones.
func (t *Table) Describe() string {
	names := t.Names()
	cells := make([][]string, len(describeRows))
	for i := range cells {
		cells[i] = make([]string, len(names))
	}

	for j, name := range names {
		var col map[string]string
		if t.Kind(name) == Numeric {
			col = describeNumeric(t.Floats(name))
		} else {
			col = describeText(t.Strings(name))
		}
		for i, stat := range describeRows {
			v, ok := col[stat]
			if !ok {
				v = "NaN"
			}
			cells[i][j] = v
		}
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "\t%s\t\n", strings.Join(names, "\t"))
	for i, stat := range describeRows {
		fmt.Fprintf(w, "%s\t%s\t\n", stat, strings.Join(cells[i], "\t"))
	}
	_ = w.Flush()
	return b.String()
}

func describeNumeric(raw []float64) map[string]string {
	vals := Present(raw)
	out := map[string]string{"count": formatStat(float64(len(vals)))}
	if len(vals) == 0 {
		return out
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	out["mean"] = formatStat(stat.Mean(vals, nil))
	if len(vals) > 1 {
		out["std"] = formatStat(stat.StdDev(vals, nil))
	}
	out["min"] = formatStat(floats.Min(vals))
	out["25%"] = formatStat(stat.Quantile(0.25, stat.LinInterp, sorted, nil))
	out["50%"] = formatStat(stat.Quantile(0.50, stat.LinInterp, sorted, nil))
	out["75%"] = formatStat(stat.Quantile(0.75, stat.LinInterp, sorted, nil))
	out["max"] = formatStat(floats.Max(vals))
	return out
}

func describeText(vals []string) map[string]string {
	counts := make(map[string]int)
	n := 0
	for _, v := range vals {
		if v == "" {
			continue
		}
		n++
		counts[v]++
	}
	out := map[string]string{"count": strconv.Itoa(n)}
	if n == 0 {
		return out
	}
	top, freq := "", 0
	for v, c := range counts {
		if c > freq || (c == freq && v < top) {
			top, freq = v, c
		}
	}
	out["unique"] = strconv.Itoa(len(counts))
	out["top"] = top
	out["freq"] = strconv.Itoa(freq)
	return out
}

func formatStat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
