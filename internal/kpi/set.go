package kpi

import (
	"encoding/json"
	"math"
)

// Metric is a single named KPI. Text is set for non-numeric values, in which
// case Value is NaN.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Text  string  `json:"text,omitempty"`
}

// IsText reports whether the metric carries a textual value.
func (m Metric) IsText() bool { return m.Text != "" }

// Set is an ordered mapping from metric name to value. Insertion order is
// preserved and re-adding a name replaces its value in place.
type Set struct {
	metrics []Metric
	index   map[string]int
}

func (s *Set) put(m Metric) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[m.Name]; ok {
		s.metrics[i] = m
		return
	}
	s.index[m.Name] = len(s.metrics)
	s.metrics = append(s.metrics, m)
}

// Add records a numeric metric.
func (s *Set) Add(name string, v float64) {
	s.put(Metric{Name: name, Value: v})
}

// AddText records a textual metric.
func (s *Set) AddText(name, text string) {
	s.put(Metric{Name: name, Value: math.NaN(), Text: text})
}

// Get returns the metric with the given name.
func (s Set) Get(name string) (Metric, bool) {
	i, ok := s.index[name]
	if !ok {
		return Metric{}, false
	}
	return s.metrics[i], true
}

// Value returns the numeric value for name, or false when absent or textual.
func (s Set) Value(name string) (float64, bool) {
	m, ok := s.Get(name)
	if !ok || m.IsText() {
		return 0, false
	}
	return m.Value, true
}

// Keys returns metric names in insertion order.
func (s Set) Keys() []string {
	out := make([]string, len(s.metrics))
	for i, m := range s.metrics {
		out[i] = m.Name
	}
	return out
}

// Metrics returns a copy of the metrics in insertion order.
func (s Set) Metrics() []Metric {
	out := make([]Metric, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// Len returns the number of metrics.
func (s Set) Len() int { return len(s.metrics) }

// MarshalJSON encodes the set as an ordered array. Textual metrics carry their
// text as the value and non-finite numbers encode as null.
func (s Set) MarshalJSON() ([]byte, error) {
	type entry struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
	out := make([]entry, len(s.metrics))
	for i, m := range s.metrics {
		var v any = m.Value
		switch {
		case m.IsText():
			v = m.Text
		case math.IsNaN(m.Value) || math.IsInf(m.Value, 0):
			v = nil
		}
		out[i] = entry{Name: m.Name, Value: v}
	}
	return json.Marshal(out)
}
