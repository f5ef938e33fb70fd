package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/bizlens/internal/chart"
	"github.com/theirongolddev/bizlens/internal/forecast"
	"github.com/theirongolddev/bizlens/internal/kpi"
	"github.com/theirongolddev/bizlens/internal/table"
)

// Analysis is everything derived from a table without calling external services.
type Analysis struct {
	Table    *table.Table
	KPIs     kpi.Set
	Charts   []chart.Spec
	Preview  *table.Table
	Forecast string // default forecast column, empty when none applies
}

// Analyze computes KPIs, chart plans and a preview for t. Nothing is cached;
// call it again to refresh.
func Analyze(t *table.Table, previewRows int) *Analysis {
	col, _ := ForecastColumn(t, "")
	return &Analysis{
		Table:    t,
		KPIs:     kpi.Extract(t),
		Charts:   chart.Plan(t),
		Preview:  t.Head(previewRows),
		Forecast: col,
	}
}

// ForecastColumn picks the column to forecast: override when set, else the
// revenue-like column. The boolean is false when neither applies.
func ForecastColumn(t *table.Table, override string) (string, bool) {
	if override != "" {
		return table.NormalizeName(override), true
	}
	return kpi.Resolve(t)
}

// RunForecast runs the forecaster and logs its timing.
func RunForecast(ctx context.Context, log *zap.Logger, t *table.Table, column string) (*forecast.Result, error) {
	start := time.Now()
	res, err := forecast.NextMonth(ctx, t, column)
	log.Debug("forecast",
		zap.String("dataset", t.Name),
		zap.String("column", column),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return res, err
}
