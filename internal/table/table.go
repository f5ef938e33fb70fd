package table

import (
	"bytes"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind is the inferred type of a column.
type Kind int

const (
	Text Kind = iota
	Numeric
	Bool
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Bool:
		return "bool"
	default:
		return "text"
	}
}

// Table is an immutable collection of named, typed columns whose rows correspond by position.
type Table struct {
	Name string
	df   dataframe.DataFrame
}

// Nrow returns the number of data rows.
func (t *Table) Nrow() int { return t.df.Nrow() }

// Ncol returns the number of columns.
func (t *Table) Ncol() int { return t.df.Ncol() }

// Names returns the normalized column names in file order.
func (t *Table) Names() []string { return t.df.Names() }

// Has reports whether a column with the given normalized name exists.
func (t *Table) Has(name string) bool {
	return slices.Contains(t.df.Names(), name)
}

// Kind returns the inferred type of a column. Unknown columns report Text.
func (t *Table) Kind(name string) Kind {
	if !t.Has(name) {
		return Text
	}
	switch t.df.Col(name).Type() {
	case series.Int, series.Float:
		return Numeric
	case series.Bool:
		return Bool
	default:
		return Text
	}
}

// NumericColumns returns the names of integer and float columns in file order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, n := range t.df.Names() {
		if t.Kind(n) == Numeric {
			out = append(out, n)
		}
	}
	return out
}

// Floats returns the column as float64 values, NaN where a value is missing or
// not numeric. Returns nil for unknown columns.
func (t *Table) Floats(name string) []float64 {
	if !t.Has(name) {
		return nil
	}
	return t.df.Col(name).Float()
}

// Strings returns the column as text, "" where a value is missing.
func (t *Table) Strings(name string) []string {
	if !t.Has(name) {
		return nil
	}
	col := t.df.Col(name)
	recs := col.Records()
	nan := col.IsNaN()
	for i := range recs {
		if nan[i] {
			recs[i] = ""
		}
	}
	return recs
}

// Dates parses a column with ParseDate. Unparseable or missing values are the zero time.
func (t *Table) Dates(name string) []time.Time {
	raw := t.Strings(name)
	if raw == nil {
		return nil
	}
	out := make([]time.Time, len(raw))
	for i, s := range raw {
		out[i], _ = ParseDate(s)
	}
	return out
}

// Rows returns every data row as text, header excluded.
func (t *Table) Rows() [][]string {
	recs := t.df.Records()
	if len(recs) == 0 {
		return nil
	}
	return recs[1:]
}

// Head returns a table holding the first n rows.
func (t *Table) Head(n int) *Table {
	n = min(max(n, 0), t.Nrow())
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.subset(idx, nil)
}

// Sample returns up to rows randomly chosen rows restricted to the first cols columns.
func (t *Table) Sample(rng *rand.Rand, rows, cols int) *Table {
	n := min(max(rows, 0), t.Nrow())
	idx := rng.Perm(t.Nrow())[:n]

	names := t.Names()
	if cols > 0 && cols < len(names) {
		names = names[:cols]
	}
	return t.subset(idx, names)
}

func (t *Table) subset(idx []int, cols []string) *Table {
	df := t.df
	if len(idx) == 0 {
		empty := make([]series.Series, 0, df.Ncol())
		for _, n := range df.Names() {
			empty = append(empty, series.New([]string{}, df.Col(n).Type(), n))
		}
		df = dataframe.New(empty...)
	} else {
		df = df.Subset(idx)
	}
	if cols != nil {
		df = df.Select(cols)
	}
	return &Table{Name: t.Name, df: df}
}

// CSV serializes the table, header included.
func (t *Table) CSV() (string, error) {
	var buf bytes.Buffer
	if err := t.df.WriteCSV(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
