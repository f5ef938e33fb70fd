package components

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/theirongolddev/bizlens/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	if shortLines >= tallLines {
		t.Fatal("test setup error: short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Errorf("joined height = %d, want %d", len(lines), tallLines)
	}

	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no ANSI codes: %q", i, lines[i])
		}
	}
}

func TestCardRowWidthConsistency(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "A", 30)
	tallCard := ContentCard("Tall", "A\nB\nC\nD\nE\nF", 20)

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	want := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestMetricCardRowSumsToWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	row := MetricCardRow([]Metric{
		{Label: "Total Revenue", Value: "600"},
		{Label: "Growth", Value: "+50.00%", Delta: "vs 2024-01", Good: true},
		{Label: "Margin", Value: "10.00%"},
	}, 91)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 91 {
			t.Errorf("line %d width = %d, want 91", i, w)
		}
	}
}

func TestLayoutRow(t *testing.T) {
	got := LayoutRow(10, 3)
	if len(got) != 3 || got[0] != 4 || got[1] != 3 || got[2] != 3 {
		t.Errorf("LayoutRow(10, 3) = %v, want [4 3 3]", got)
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow with n=0 should be nil")
	}
}

func TestSparklineScalesMinToMax(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	defer lipgloss.SetColorProfile(termenv.TrueColor)

	got := []rune(Sparkline([]float64{-5, 0, 5, math.NaN()}, theme.Active.Blue))
	if len(got) != 4 {
		t.Fatalf("Sparkline length = %d, want 4", len(got))
	}
	if got[0] != '▁' || got[2] != '█' || got[3] != ' ' {
		t.Errorf("Sparkline = %q", string(got))
	}
}

func TestBarChartIgnoresNegatives(t *testing.T) {
	out := BarChart([]float64{-10, 5, math.NaN(), 10}, []string{"a", "b", "c", "d"}, theme.Active.Blue, 40, 6)
	if out == "" || !strings.Contains(out, "└") {
		t.Errorf("BarChart missing axis:\n%s", out)
	}
}

func TestScatterPlotMarksPoints(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	defer lipgloss.SetColorProfile(termenv.TrueColor)

	out := ScatterPlot([]float64{1, 2, 3}, []float64{10, 20, 30}, "revenue", "profit", theme.Active.Blue, 30, 5)
	if strings.Count(out, "•") != 3 {
		t.Errorf("expected 3 points:\n%s", out)
	}
	if !strings.Contains(out, "x: revenue") || !strings.Contains(out, "y: profit") {
		t.Errorf("axis names missing:\n%s", out)
	}
}

func TestTabVisualWidth(t *testing.T) {
	if got := TabVisualWidth(Tabs[0], true); got != len("Overview")+2 {
		t.Errorf("active Overview width = %d", got)
	}
	if got := TabVisualWidth(Tabs[4], false); got != len("Settings")+5 {
		t.Errorf("inactive Settings width = %d", got)
	}
	if TabIdxByKey('f') != 2 || TabIdxByKey('z') != -1 {
		t.Error("TabIdxByKey mismatch")
	}
}

func TestBudgetBarNoLimit(t *testing.T) {
	if out := BudgetBar("Prompt", 120, 0, 8, 20); !strings.Contains(out, "no limit") {
		t.Errorf("BudgetBar = %q", out)
	}
}
