// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatCompact formats a number with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M", 1234567890 -> "1.2B"
func FormatCompact(v float64) string {
	abs := math.Abs(v)

	switch {
	case math.IsNaN(v):
		return "n/a"
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return FormatValue(v)
	}
}

// FormatValue rounds to 2 decimals and adds comma separators. Whole numbers
// print without decimals.
// e.g., 1234567.891 -> "1,234,567.89", 600 -> "600"
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	r := math.Round(v*100) / 100
	whole, frac := math.Modf(math.Abs(r))
	s := FormatNumber(int64(whole))
	if r < 0 {
		s = "-" + s
	}
	if frac == 0 {
		return s
	}
	return s + "." + fmt.Sprintf("%02d", int64(math.Round(frac*100)))
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a value already expressed in percent.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

// FormatDelta formats a signed percentage change.
// e.g., 50 -> "+50.00%", -3.5 -> "-3.50%"
func FormatDelta(p float64) string {
	if p >= 0 {
		return "+" + FormatPercent(p)
	}
	return FormatPercent(p)
}

// FormatDuration formats an elapsed time.
// e.g., 1.5s -> "1.5s", 250ms -> "250ms", 2m5s -> "2m 5s"
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// FormatMetricName turns a metric key into a display label.
// e.g., "total_revenue" -> "Total Revenue", "last_month_growth_%" -> "Last Month Growth %"
func FormatMetricName(name string) string {
	parts := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// IsPercentMetric reports whether a metric key holds a percentage.
func IsPercentMetric(name string) bool {
	return strings.HasSuffix(name, "_%") || strings.Contains(name, "margin")
}

// Truncate shortens s to max runes, ending with an ellipsis when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
