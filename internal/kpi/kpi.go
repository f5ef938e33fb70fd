// Package kpi derives headline business metrics from a loaded table using
// column-name heuristics. Metrics whose source columns are absent are omitted.
package kpi

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/theirongolddev/bizlens/internal/table"
)

// Recognized column names.
const (
	ColRevenue = "revenue"
	ColSales   = "sales"
	ColProfit  = "profit"
	ColDate    = "date"
)

// Resolve picks the revenue-like column: revenue, else sales.
func Resolve(t *table.Table) (string, bool) {
	for _, c := range []string{ColRevenue, ColSales} {
		if t.Has(c) {
			return c, true
		}
	}
	return "", false
}

// Extract computes the KPI set for t. It never fails; metrics that cannot be
// computed are left out.
func Extract(t *table.Table) Set {
	var s Set
	col, ok := Resolve(t)
	if ok {
		addRevenue(&s, t, col)
	}
	if t.Has(ColProfit) {
		addProfit(&s, t, col, ok)
	}
	if ok && t.Has(ColDate) {
		addGrowth(&s, t, col)
	}
	for _, n := range t.NumericColumns() {
		vals := table.Present(t.Floats(n))
		if len(vals) == 0 {
			continue
		}
		s.Add(n+"_mean", Round2(stat.Mean(vals, nil)))
	}
	return s
}

func addRevenue(s *Set, t *table.Table, col string) {
	vals := table.Present(t.Floats(col))
	if len(vals) == 0 {
		return
	}
	s.Add("total_"+col, floats.Sum(vals))
	s.Add("average_"+col, stat.Mean(vals, nil))
	s.Add("max_"+col, floats.Max(vals))
}

func addProfit(s *Set, t *table.Table, col string, resolved bool) {
	profit := t.Floats(ColProfit)
	if p := table.Present(profit); len(p) > 0 {
		s.Add("total_profit", floats.Sum(p))
	}
	if !resolved {
		return
	}

	rev := t.Floats(col)
	ratios := make([]float64, 0, len(profit))
	for i := range profit {
		r := profit[i] / rev[i]
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		ratios = append(ratios, r)
	}
	if len(ratios) > 0 {
		s.Add("profit_margin_avg", stat.Mean(ratios, nil)*100)
	}
}

func addGrowth(s *Set, t *table.Table, col string) {
	months := MonthlyTotals(t, col)
	if len(months) < 2 {
		return
	}
	last, prev := months[len(months)-1], months[len(months)-2]
	if prev.Total == 0 {
		return
	}
	s.Add("last_month_growth_%", Round2((last.Total-prev.Total)/prev.Total*100))
	s.AddText("last_month", last.Month.Format("2006-01"))
}

// MonthTotal is the sum of a column over one calendar month.
type MonthTotal struct {
	Month time.Time
	Total float64
}

// MonthlyTotals buckets col by the calendar month of the date column, oldest
// first. Rows with an unparseable date are dropped; missing values count as zero.
func MonthlyTotals(t *table.Table, col string) []MonthTotal {
	dates := t.Dates(ColDate)
	vals := t.Floats(col)
	if dates == nil || vals == nil {
		return nil
	}

	sums := make(map[time.Time]float64)
	for i, d := range dates {
		if d.IsZero() {
			continue
		}
		k := table.MonthKey(d)
		v := vals[i]
		if math.IsNaN(v) {
			v = 0
		}
		sums[k] += v
	}

	out := make([]MonthTotal, 0, len(sums))
	for m, total := range sums {
		out = append(out, MonthTotal{Month: m, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
