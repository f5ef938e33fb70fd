// Package table loads uploaded business data into an immutable, column-normalized table.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// nanValues are the cell contents treated as missing, mirroring common spreadsheet exports.
var nanValues = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "null", "NULL", "None", "#N/A", "<nil>"}

// ErrEmpty is wrapped by LoadError when the input has no header row.
var ErrEmpty = errors.New("no columns found")

// LoadError reports input that could not be parsed as tabular data.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("error loading %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads CSV data from r.
func Load(r io.Reader) (*Table, error) {
	return LoadNamed("upload", r)
}

// LoadNamed reads CSV data from r, using name for error messages and display.
func LoadNamed(name string, r io.Reader) (*Table, error) {
	if r == nil {
		return nil, &LoadError{Source: name, Err: errors.New("nil reader")}
	}
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	return fromRecords(name, records)
}

// LoadFile opens path and loads it. Files ending in .xlsx or .xlsm are read from
// their first sheet; everything else is parsed as CSV.
func LoadFile(path string) (*Table, error) {
	name := filepath.Base(path)
	if IsWorkbook(path) {
		return loadWorkbook(name, path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-supplied input file
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	return LoadNamed(name, bytes.NewReader(data))
}

func loadWorkbook(name, path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	defer func() { _ = f.Close() }()
	return fromWorkbook(name, f)
}

// LoadWorkbook reads the first sheet of an .xlsx workbook from r.
func LoadWorkbook(name string, r io.Reader) (*Table, error) {
	if r == nil {
		return nil, &LoadError{Source: name, Err: errors.New("nil reader")}
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	defer func() { _ = f.Close() }()
	return fromWorkbook(name, f)
}

// IsWorkbook reports whether name has a spreadsheet extension.
func IsWorkbook(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

func fromWorkbook(name string, f *excelize.File) (*Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &LoadError{Source: name, Err: errors.New("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &LoadError{Source: name, Err: fmt.Errorf("reading sheet %q: %w", sheets[0], err)}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &LoadError{Source: name, Err: ErrEmpty}
	}

	// excelize drops trailing empty cells, so pad every row to the header width.
	width := len(rows[0])
	records := make([][]string, 0, len(rows))
	for i, row := range rows {
		if len(row) > width {
			return nil, &LoadError{
				Source: name,
				Err:    fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), width),
			}
		}
		padded := make([]string, width)
		copy(padded, row)
		records = append(records, padded)
	}

	return fromRecords(name, records)
}

// fromRecords builds a table from a header row followed by data rows. Header
// names are normalized before type detection so duplicates and blanks follow
// NormalizeNames. A header without data rows gives a zero-row text table.
func fromRecords(name string, records [][]string) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, &LoadError{Source: name, Err: ErrEmpty}
	}
	header := NormalizeNames(records[0])
	if len(records) == 1 {
		cols := make([]series.Series, 0, len(header))
		for _, n := range header {
			cols = append(cols, series.New([]string{}, series.String, n))
		}
		return &Table{Name: name, df: dataframe.New(cols...)}, nil
	}

	body := make([][]string, 0, len(records))
	body = append(body, header)
	body = append(body, records[1:]...)
	df := dataframe.LoadRecords(body,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, &LoadError{Source: name, Err: df.Err}
	}
	return &Table{Name: name, df: df}, nil
}

// NormalizeName trims, lowercases and replaces spaces with underscores.
func NormalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// NormalizeNames normalizes every name and suffixes later duplicates (_2, _3, ...)
// so the result stays unique.
func NormalizeNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]int, len(names))
	for i, n := range names {
		base := NormalizeName(n)
		if base == "" {
			base = "column_" + strconv.Itoa(i+1)
		}
		candidate := base
		for k := seen[base]; ; k++ {
			if k > 0 {
				candidate = base + "_" + strconv.Itoa(k+1)
			}
			if _, taken := seen[candidate]; !taken {
				seen[base] = k
				break
			}
		}
		seen[candidate] = 0
		out[i] = candidate
	}
	return out
}
