// Package forecast projects a numeric column 30 days past the last observed date
// with an additive trend and seasonality model.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/bizlens/internal/table"
)

// Horizon is the number of daily periods predicted past the last observation.
const Horizon = 30

// DateColumn is the column the forecaster reads timestamps from.
const DateColumn = "date"

var (
	// ErrNoDateColumn is returned when the table has no date column. It is an
	// expected condition; callers show its message rather than aborting.
	ErrNoDateColumn = errors.New("no 'date' column found for forecasting")

	// ErrTooFewRows is returned when fewer than two usable dated rows remain.
	ErrTooFewRows = errors.New("not enough dated rows to fit a forecast (need at least 2 distinct dates)")
)

// MissingColumnError reports a target column that does not exist.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

// Observation is one usable (date, value) pair from the table.
type Observation struct {
	Date  time.Time
	Value float64
}

// Prediction is a fitted or projected value for one date.
type Prediction struct {
	Date   time.Time `json:"date"`
	Yhat   float64   `json:"yhat"`
	Future bool      `json:"future"`
}

// Result is a one-month forecast. Point is the mean of the trailing Horizon
// predictions, not the terminal value.
type Result struct {
	Column       string       `json:"column"`
	Point        float64      `json:"point"`
	Observations int          `json:"observations"`
	LastObserved time.Time    `json:"last_observed"`
	Seasonality  []string     `json:"seasonality"`
	Series       []Prediction `json:"series"`
}

// Message describes a forecast outcome for display. It never fails.
func Message(err error) string {
	var mc *MissingColumnError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoDateColumn), errors.Is(err, ErrTooFewRows):
		return err.Error()
	case errors.As(err, &mc):
		return "Cannot forecast: " + mc.Error()
	case errors.Is(err, context.Canceled):
		return "Forecast cancelled."
	default:
		return "Forecast failed: " + err.Error()
	}
}

// NextMonth fits the model on the date and target columns of t and returns the
// mean predicted value over the Horizon days after the last observation.
func NextMonth(ctx context.Context, t *table.Table, target string) (*Result, error) {
	if !t.Has(DateColumn) {
		return nil, ErrNoDateColumn
	}
	if !t.Has(target) {
		return nil, &MissingColumnError{Column: target}
	}

	obs := Observations(t, target)
	if distinctDates(obs) < 2 {
		return nil, ErrTooFewRows
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := newModel(obs)
	if err != nil {
		return nil, err
	}
	if err := m.fit(obs); err != nil {
		return nil, fmt.Errorf("fitting %s: %w", target, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	series := make([]Prediction, 0, len(obs)+Horizon)
	for _, d := range uniqueDates(obs) {
		series = append(series, Prediction{Date: d, Yhat: m.predict(d)})
	}
	last := obs[len(obs)-1].Date
	var sum float64
	for i := 1; i <= Horizon; i++ {
		d := last.Add(time.Duration(i) * day)
		y := m.predict(d)
		sum += y
		series = append(series, Prediction{Date: d, Yhat: y, Future: true})
	}

	return &Result{
		Column:       target,
		Point:        sum / Horizon,
		Observations: len(obs),
		LastObserved: last,
		Seasonality:  m.seasonalityNames(),
		Series:       series,
	}, nil
}

// Observations returns the rows of t with a parseable date and a present
// numeric target value, sorted by date.
func Observations(t *table.Table, target string) []Observation {
	dates := t.Dates(DateColumn)
	vals := t.Floats(target)
	out := make([]Observation, 0, len(dates))
	for i := range dates {
		if i >= len(vals) || dates[i].IsZero() || math.IsNaN(vals[i]) {
			continue
		}
		out = append(out, Observation{Date: dates[i], Value: vals[i]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func uniqueDates(obs []Observation) []time.Time {
	var out []time.Time
	for i, o := range obs {
		if i == 0 || !o.Date.Equal(obs[i-1].Date) {
			out = append(out, o.Date)
		}
	}
	return out
}

func distinctDates(obs []Observation) int {
	return len(uniqueDates(obs))
}
