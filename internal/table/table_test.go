package table

import (
	"errors"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

const salesCSV = `Date, Revenue ,Net Profit,Region
2024-01-05,100,10,North
2024-01-20,200,20,South
2024-02-03,300,30,NA
`

func mustLoad(t *testing.T, data string) *Table {
	t.Helper()
	tbl, err := Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tbl
}

func TestLoad_NormalizesColumnNames(t *testing.T) {
	tbl := mustLoad(t, salesCSV)

	want := []string{"date", "revenue", "net_profit", "region"}
	got := tbl.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if tbl.Nrow() != 3 {
		t.Errorf("Nrow() = %d, want 3", tbl.Nrow())
	}
}

func TestLoad_DetectsKinds(t *testing.T) {
	tbl := mustLoad(t, salesCSV)

	if k := tbl.Kind("revenue"); k != Numeric {
		t.Errorf("Kind(revenue) = %v, want numeric", k)
	}
	if k := tbl.Kind("region"); k != Text {
		t.Errorf("Kind(region) = %v, want text", k)
	}
	if k := tbl.Kind("missing"); k != Text {
		t.Errorf("Kind(missing) = %v, want text", k)
	}

	nums := tbl.NumericColumns()
	if len(nums) != 2 || nums[0] != "revenue" || nums[1] != "net_profit" {
		t.Errorf("NumericColumns() = %v, want [revenue net_profit]", nums)
	}
}

func TestLoad_MissingValues(t *testing.T) {
	tbl := mustLoad(t, "a,b\n1,x\nNA,\n3,z\n")

	vals := tbl.Floats("a")
	if !math.IsNaN(vals[1]) {
		t.Errorf("Floats(a)[1] = %v, want NaN", vals[1])
	}
	if vals[0] != 1 || vals[2] != 3 {
		t.Errorf("Floats(a) = %v, want [1 NaN 3]", vals)
	}

	strs := tbl.Strings("b")
	if strs[1] != "" {
		t.Errorf("Strings(b)[1] = %q, want empty", strs[1])
	}
	if got := Present(vals); len(got) != 2 {
		t.Errorf("Present() len = %d, want 2", len(got))
	}
}

func TestLoad_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"ragged rows": "a,b\n1,2,3\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(data))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("error %T is not *LoadError", err)
			}
			if !strings.Contains(err.Error(), "error loading") {
				t.Errorf("Error() = %q, want prefix 'error loading'", err.Error())
			}
		})
	}
}

func TestLoad_NilReader(t *testing.T) {
	_, err := Load(nil)
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Load(nil) error = %v, want *LoadError", err)
	}
}

func TestNormalizeNames(t *testing.T) {
	got := NormalizeNames([]string{" Sales ", "sales", "Unit Price", "", "SALES"})
	want := []string{"sales", "sales_2", "unit_price", "column_4", "sales_3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoad_DuplicateAndBlankHeaders(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{"exact duplicates", "revenue,revenue\n1,2\n", []string{"revenue", "revenue_2"}},
		{"duplicates after normalizing", "Revenue, revenue ,REVENUE\n1,2,3\n", []string{"revenue", "revenue_2", "revenue_3"}},
		{"blank header", "a,,b\n1,2,3\n", []string{"a", "column_2", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := mustLoad(t, tt.data)
			got := tbl.Names()
			if len(got) != len(tt.want) {
				t.Fatalf("Names() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Names()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}

	tbl := mustLoad(t, "revenue,revenue\n1,2\n5,6\n")
	if k := tbl.Kind("revenue"); k != Numeric {
		t.Errorf("Kind(revenue) = %v, want numeric", k)
	}
	if vals := tbl.Floats("revenue"); len(vals) != 2 || vals[0] != 1 || vals[1] != 5 {
		t.Errorf("Floats(revenue) = %v, want [1 5]", vals)
	}
}

func TestLoad_HeaderOnly(t *testing.T) {
	tbl := mustLoad(t, "Date,Revenue\n")
	if tbl.Nrow() != 0 || tbl.Ncol() != 2 {
		t.Fatalf("shape = %dx%d, want 0x2", tbl.Nrow(), tbl.Ncol())
	}
	if !tbl.Has("revenue") {
		t.Errorf("Names() = %v, want revenue present", tbl.Names())
	}
	if got := tbl.Head(5).Nrow(); got != 0 {
		t.Errorf("Head(5).Nrow() = %d, want 0", got)
	}
}

func TestHead(t *testing.T) {
	tbl := mustLoad(t, salesCSV)

	h := tbl.Head(2)
	if h.Nrow() != 2 {
		t.Fatalf("Head(2).Nrow() = %d, want 2", h.Nrow())
	}
	if got := h.Floats("revenue"); got[1] != 200 {
		t.Errorf("Head(2) revenue = %v, want [100 200]", got)
	}
	if got := tbl.Head(50).Nrow(); got != 3 {
		t.Errorf("Head(50).Nrow() = %d, want 3", got)
	}
	empty := tbl.Head(0)
	if empty.Nrow() != 0 || empty.Ncol() != 4 {
		t.Errorf("Head(0) = %dx%d, want 0x4", empty.Nrow(), empty.Ncol())
	}
}

func TestSample_Limits(t *testing.T) {
	tbl := mustLoad(t, salesCSV)
	rng := rand.New(rand.NewPCG(1, 2))

	s := tbl.Sample(rng, 2, 3)
	if s.Nrow() != 2 {
		t.Errorf("Sample rows = %d, want 2", s.Nrow())
	}
	if s.Ncol() != 3 {
		t.Errorf("Sample cols = %d, want 3", s.Ncol())
	}

	all := tbl.Sample(rng, 10, 10)
	if all.Nrow() != 3 || all.Ncol() != 4 {
		t.Errorf("Sample(10, 10) = %dx%d, want 3x4", all.Nrow(), all.Ncol())
	}
}

func TestCSV_RoundTripHeader(t *testing.T) {
	tbl := mustLoad(t, salesCSV)
	out, err := tbl.Head(1).CSV()
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	first := strings.SplitN(out, "\n", 2)[0]
	if first != "date,revenue,net_profit,region" {
		t.Errorf("CSV header = %q", first)
	}
}

func TestDates(t *testing.T) {
	tbl := mustLoad(t, salesCSV)
	dates := tbl.Dates("date")
	want := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	if !dates[2].Equal(want) {
		t.Errorf("Dates()[2] = %v, want %v", dates[2], want)
	}
	if got := MonthKey(dates[1]); got.Day() != 1 || got.Month() != time.January {
		t.Errorf("MonthKey = %v, want 2024-01-01", got)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"03/15/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-15T10:30:00Z", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"Mar 15, 2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024-03", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !got.Equal(tc.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	tbl := mustLoad(t, salesCSV)
	out := tbl.Describe()
	for _, want := range []string{"count", "mean", "75%", "revenue", "region", "200.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("Describe() missing %q:\n%s", want, out)
		}
	}
}

func TestLoadFile_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	f := excelize.NewFile()
	rows := [][]any{
		{"Order Date", "Sales"},
		{"2024-01-01", 10},
		{"2024-01-02", 20},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	tbl, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !tbl.Has("order_date") || tbl.Kind("sales") != Numeric {
		t.Errorf("workbook columns = %v, sales kind = %v", tbl.Names(), tbl.Kind("sales"))
	}
	if tbl.Name != "sales.xlsx" {
		t.Errorf("Name = %q, want sales.xlsx", tbl.Name)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}
