package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/bizlens/internal/cli"
	"github.com/theirongolddev/bizlens/internal/forecast"
	"github.com/theirongolddev/bizlens/internal/tui/components"
	"github.com/theirongolddev/bizlens/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// forecastState tracks the Forecast tab.
type forecastState struct {
	column  string // empty when no column can be forecast
	running bool
	seq     int
	cancel  context.CancelFunc
	result  *forecast.Result
	message string
	elapsed time.Duration
}

func (s *forecastState) begin(cancel context.CancelFunc) {
	s.seq++
	s.running = true
	s.cancel = cancel
	s.message = ""
}

func (s *forecastState) finish(msg ForecastDoneMsg) {
	s.stop()
	s.elapsed = msg.Elapsed
	if msg.Err != nil {
		s.message = forecast.Message(msg.Err)
		return
	}
	s.result = msg.Result
}

// cancelRun aborts the running forecast. Its result, if any, is discarded.
func (s *forecastState) cancelRun() {
	s.stop()
	s.seq++
	s.message = forecast.Message(context.Canceled)
}

func (s *forecastState) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
}

func (a App) renderForecastTab(cw int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	if a.fc.column == "" {
		return components.ContentCard("Forecast",
			mutedStyle.Render("No revenue or sales column to forecast.\nRestart with --column NAME to pick one."), cw)
	}

	var status strings.Builder
	fmt.Fprintf(&status, "%s %s\n",
		mutedStyle.Render("Column:"), accentStyle.Render(a.fc.column))
	switch {
	case a.fc.running:
		status.WriteString(a.spinner.View())
		status.WriteString(mutedStyle.Render(fmt.Sprintf(" Fitting model and projecting %d days… [esc] to cancel", forecast.Horizon)))
	case a.fc.message != "":
		status.WriteString(warnStyle.Render(a.fc.message))
		status.WriteString("\n")
		status.WriteString(mutedStyle.Render("Press f to try again."))
	case a.fc.result == nil:
		status.WriteString(mutedStyle.Render(fmt.Sprintf(
			"Press f to forecast the mean %s over the next %d days.", a.fc.column, forecast.Horizon)))
	default:
		status.WriteString(mutedStyle.Render(fmt.Sprintf("Finished in %s. Press f to run again.",
			cli.FormatDuration(a.fc.elapsed))))
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("Next-Month Forecast", status.String(), cw))

	res := a.fc.result
	if res == nil || a.fc.running {
		return b.String()
	}

	b.WriteString("\n")
	season := "none"
	if len(res.Seasonality) > 0 {
		season = strings.Join(res.Seasonality, ", ")
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Point Estimate", Value: cli.FormatValue(res.Point)},
		{Label: "Last Observed", Value: res.LastObserved.Format("2006-01-02")},
		{Label: "Observations", Value: cli.FormatNumber(int64(res.Observations))},
		{Label: "Seasonality", Value: season},
	}, cw))
	b.WriteString("\n")

	var hist, future []float64
	var futureDates []time.Time
	for _, p := range res.Series {
		if p.Future {
			future = append(future, p.Yhat)
			futureDates = append(futureDates, p.Date)
		} else {
			hist = append(hist, p.Yhat)
		}
	}

	inner := components.CardInnerWidth(cw)
	histW := max(inner-len(future)-2, 10)
	spark := components.Sparkline(cli.Downsample(hist, histW), t.TextMuted) + "  " +
		components.Sparkline(future, t.GreenBright)
	b.WriteString(components.ContentCard("Fitted History → Projection", spark, cw))
	b.WriteString("\n")

	chartH := 10
	if a.isCompactLayout() {
		chartH = 6
	}
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Projected %s (next %d days)", res.Column, forecast.Horizon),
		components.BarChart(future, dateLabels(futureDates), t.Green, inner, chartH),
		cw,
	))
	return b.String()
}
