package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	maxChangepoints  = 25
	changepointRange = 0.8

	yearlyPeriod = 365.25
	yearlyOrder  = 10
	weeklyPeriod = 7.0
	weeklyOrder  = 3

	// Ridge weights in scaled units.
	changepointPenalty = 10.0
	seasonPenalty      = 0.1
	basePenalty        = 1e-6

	day = 24 * time.Hour
)

// seasonality is a Fourier block with the given period in days.
type seasonality struct {
	name   string
	period float64
	order  int
}

// model is an additive trend + seasonality regression fitted by penalized least
// squares: y(t) = k*t + m + sum(delta_j * (t - s_j)+) + fourier terms.
type model struct {
	start   time.Time
	span    float64 // days between first and last observation
	yScale  float64
	cps     []float64 // changepoints on the scaled [0,1] axis
	seasons []seasonality
	beta    []float64
}

func (m *model) scaledT(ts time.Time) float64 {
	return ts.Sub(m.start).Hours() / 24 / m.span
}

func (m *model) seasonalityNames() []string {
	out := make([]string, len(m.seasons))
	for i, s := range m.seasons {
		out[i] = s.name
	}
	return out
}

func (m *model) nFeatures() int {
	n := 2 + len(m.cps)
	for _, s := range m.seasons {
		n += 2 * s.order
	}
	return n
}

// features writes the design row for ts into row, which must be nFeatures long.
func (m *model) features(ts time.Time, row []float64) {
	t := m.scaledT(ts)
	row[0] = 1
	row[1] = t
	i := 2
	for _, cp := range m.cps {
		row[i] = math.Max(t-cp, 0)
		i++
	}
	days := float64(ts.Unix()) / 86400
	for _, s := range m.seasons {
		for k := 1; k <= s.order; k++ {
			x := 2 * math.Pi * float64(k) * days / s.period
			row[i] = math.Sin(x)
			row[i+1] = math.Cos(x)
			i += 2
		}
	}
}

func (m *model) penalties() []float64 {
	out := make([]float64, m.nFeatures())
	for i := range out {
		out[i] = seasonPenalty
	}
	out[0], out[1] = basePenalty, basePenalty
	for j := range m.cps {
		out[2+j] = changepointPenalty
	}
	return out
}

// newModel sizes the model for the observed points, which must be sorted by
// date and span at least two distinct dates.
func newModel(obs []Observation) (*model, error) {
	first, last := obs[0].Date, obs[len(obs)-1].Date
	span := last.Sub(first).Hours() / 24
	if span <= 0 {
		return nil, ErrTooFewRows
	}

	m := &model{start: first, span: span, yScale: 1}
	for _, o := range obs {
		m.yScale = math.Max(m.yScale, math.Abs(o.Value))
	}

	histSize := int(math.Floor(float64(len(obs)) * changepointRange))
	n := maxChangepoints
	if n+1 > histSize {
		n = histSize - 1
	}
	for j := 1; j <= n; j++ {
		idx := int(math.Round(float64(j) * float64(histSize-1) / float64(n)))
		m.cps = append(m.cps, m.scaledT(obs[idx].Date))
	}

	if span >= 2*yearlyPeriod {
		m.seasons = append(m.seasons, seasonality{"yearly", yearlyPeriod, yearlyOrder})
	}
	if span >= 2*weeklyPeriod && minGapDays(obs) < weeklyPeriod {
		m.seasons = append(m.seasons, seasonality{"weekly", weeklyPeriod, weeklyOrder})
	}
	return m, nil
}

func minGapDays(obs []Observation) float64 {
	gap := math.Inf(1)
	for i := 1; i < len(obs); i++ {
		d := obs[i].Date.Sub(obs[i-1].Date).Hours() / 24
		if d > 0 && d < gap {
			gap = d
		}
	}
	return gap
}

// fit solves the ridge system by stacking sqrt(penalty) rows under the design
// matrix and taking the least-squares solution.
func (m *model) fit(obs []Observation) error {
	p := m.nFeatures()
	n := len(obs)
	a := mat.NewDense(n+p, p, nil)
	b := mat.NewVecDense(n+p, nil)

	row := make([]float64, p)
	for i, o := range obs {
		m.features(o.Date, row)
		a.SetRow(i, row)
		b.SetVec(i, o.Value/m.yScale)
	}
	for j, pen := range m.penalties() {
		a.Set(n+j, j, math.Sqrt(pen))
	}

	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("solving trend: %w", err)
		}
	}
	m.beta = make([]float64, p)
	for j := range m.beta {
		m.beta[j] = beta.AtVec(j)
	}
	return nil
}

func (m *model) predict(ts time.Time) float64 {
	row := make([]float64, len(m.beta))
	m.features(ts, row)
	return mat.Dot(mat.NewVecDense(len(row), row), mat.NewVecDense(len(m.beta), m.beta)) * m.yScale
}
