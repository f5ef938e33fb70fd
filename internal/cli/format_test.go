package cli

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/bizlens/internal/kpi"
)

func TestFormatValue(t *testing.T) {
	cases := map[float64]string{
		600:          "600",
		1234567.891:  "1,234,567.89",
		-1500.5:      "-1,500.50",
		0.004:        "0",
		12.3:         "12.30",
		math.NaN():   "n/a",
		math.Inf(-1): "n/a",
	}
	for in, want := range cases {
		if got := FormatValue(in); got != want {
			t.Errorf("FormatValue(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	cases := map[float64]string{
		999:        "999",
		1234:       "1.2K",
		1234567:    "1.2M",
		2500000000: "2.5B",
	}
	for in, want := range cases {
		if got := FormatCompact(in); got != want {
			t.Errorf("FormatCompact(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(50); got != "+50.00%" {
		t.Errorf("FormatDelta(50) = %q", got)
	}
	if got := FormatDelta(-3.5); got != "-3.50%" {
		t.Errorf("FormatDelta(-3.5) = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "0s",
		250 * time.Millisecond:  "250ms",
		1500 * time.Millisecond: "1.5s",
		125 * time.Second:       "2m 5s",
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatMetricName(t *testing.T) {
	if got := FormatMetricName("last_month_growth_%"); got != "Last Month Growth %" {
		t.Errorf("FormatMetricName = %q", got)
	}
}

func TestMetricValue(t *testing.T) {
	cases := []struct {
		m    kpi.Metric
		want string
	}{
		{kpi.Metric{Name: "total_revenue", Value: 600}, "600"},
		{kpi.Metric{Name: "profit_margin_avg", Value: 10}, "10.00%"},
		{kpi.Metric{Name: "last_month_growth_%", Value: 50}, "+50.00%"},
		{kpi.Metric{Name: "last_month", Value: math.NaN(), Text: "2024-02"}, "2024-02"},
	}
	for _, tc := range cases {
		if got := MetricValue(tc.m); got != tc.want {
			t.Errorf("MetricValue(%s) = %q, want %q", tc.m.Name, got, tc.want)
		}
	}
}

func TestRenderTable_SeparatorAndWidths(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Metric", "Value"},
		Rows:    [][]string{{"Total Revenue", "600"}, {"---"}, {"Revenue Mean", "200"}},
	})
	if !strings.Contains(out, "Total Revenue") || !strings.Contains(out, "Revenue Mean") {
		t.Errorf("RenderTable output missing rows:\n%s", out)
	}
	if strings.Count(out, "┼") != 2 {
		t.Errorf("expected header and separator rows, got:\n%s", out)
	}
}

func TestRenderTable_AlignsNumbersRight(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Region", "Revenue"},
		Rows:    [][]string{{"North", "1,200"}, {"South", "35"}, {"West", "n/a"}},
	})
	for _, want := range []string{"│ Region │ Revenue │", "│ South  │      35 │", "│ West   │ n/a     │"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderTable missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTable_WideRunesStayAligned(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"City", "Share"},
		Rows:    [][]string{{"Zürich", "12.5%"}, {"Köln", "-3%"}, {"---"}, {"Total", "100%"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	want := lipgloss.Width(lines[0])
	for i, l := range lines {
		if w := lipgloss.Width(l); w != want {
			t.Errorf("line %d width = %d, want %d:\n%s", i, w, want, out)
		}
	}
}

func TestLooksNumeric(t *testing.T) {
	for s, want := range map[string]bool{
		"1,234":  true,
		"-3.5%":  true,
		"+12.0%": true,
		"0":      true,
		"n/a":    false,
		"":       false,
		"North":  false,
	} {
		if got := looksNumeric(s); got != want {
			t.Errorf("looksNumeric(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestRenderTitle_GrowsWithTitle(t *testing.T) {
	short := lipgloss.Width(strings.Split(RenderTitle("KPIS"), "\n")[0])
	title := strings.Repeat("x", 80)
	long := RenderTitle(title)
	if !strings.Contains(long, title) {
		t.Errorf("long title wrapped or cut:\n%s", long)
	}
	if w := lipgloss.Width(strings.Split(long, "\n")[0]); w <= short {
		t.Errorf("title box width = %d, want wider than %d", w, short)
	}
}

func TestRenderProgressBar(t *testing.T) {
	if got := RenderProgressBar(3, 4, 8); !strings.Contains(got, "██████░░") || !strings.HasSuffix(got, "3/4") {
		t.Errorf("RenderProgressBar = %q", got)
	}
	if got := RenderProgressBar(9, 4, 4); !strings.HasSuffix(got, "4/4") {
		t.Errorf("overflow not clamped: %q", got)
	}
	if got := RenderProgressBar(1, 0, 8); got != "" {
		t.Errorf("zero total = %q, want empty", got)
	}
}

func TestDownsample(t *testing.T) {
	got := Downsample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Errorf("Downsample = %v, want [2 6]", got)
	}
	if got := Downsample([]float64{1}, 5); len(got) != 1 {
		t.Errorf("Downsample short input = %v", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	got := []rune(RenderSparkline([]float64{10, 20, 30}))
	if len(got) != 3 || got[0] != '▁' || got[2] != '█' {
		t.Errorf("RenderSparkline = %q", string(got))
	}
}
