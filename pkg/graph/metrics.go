package graph

import (
	"bytes"
	"math"

	json "github.com/goccy/go-json"
)

// MetricKey identifies one of the eight per-node graph metrics.
type MetricKey int

// Metric keys in canonical order.
const (
	InDegreeCentrality MetricKey = iota
	OutDegreeCentrality
	InDegreeCentralityVariance
	OutDegreeCentralityVariance
	InDegreeComponentAvg
	InDegreeDeviation
	OutDegreeComponentAvg
	OutDegreeDeviation
)

// NumMetrics is the number of metric keys.
const NumMetrics = 8

var metricNames = [NumMetrics]string{
	"in_degree_centrality",
	"out_degree_centrality",
	"in_degree_centrality_variance",
	"out_degree_centrality_variance",
	"in_degree_component_avg",
	"in_degree_deviation",
	"out_degree_component_avg",
	"out_degree_deviation",
}

var metricLabels = [NumMetrics]string{
	"In-Degree Centrality",
	"Out-Degree Centrality",
	"In-Degree Centrality Variance",
	"Out-Degree Centrality Variance",
	"Avg. Component In-Degree",
	"In-Degree Deviation from Comp. Avg.",
	"Avg. Component Out-Degree",
	"Out-Degree Dev. from Comp. Avg.",
}

// MetricKeys returns every metric key in canonical order.
func MetricKeys() []MetricKey {
	keys := make([]MetricKey, NumMetrics)
	for i := range keys {
		keys[i] = MetricKey(i)
	}
	return keys
}

// String returns the wire name, e.g. "in_degree_centrality".
func (k MetricKey) String() string {
	if k < 0 || int(k) >= NumMetrics {
		return "unknown"
	}
	return metricNames[k]
}

// Label returns the human-readable name.
func (k MetricKey) Label() string {
	if k < 0 || int(k) >= NumMetrics {
		return "Unknown"
	}
	return metricLabels[k]
}

// ParseMetricKey looks up a metric key by wire name.
func ParseMetricKey(s string) (MetricKey, bool) {
	for i, name := range metricNames {
		if name == s {
			return MetricKey(i), true
		}
	}
	return 0, false
}

// Metrics holds one value per MetricKey. NaN marks a missing or malformed value.
type Metrics [NumMetrics]float64

// MissingMetrics returns a record with every value absent.
func MissingMetrics() Metrics {
	var m Metrics
	for i := range m {
		m[i] = math.NaN()
	}
	return m
}

// Value returns the value for k and whether it is present.
func (m Metrics) Value(k MetricKey) (float64, bool) {
	if k < 0 || int(k) >= NumMetrics {
		return math.NaN(), false
	}
	v := m[k]
	return v, !math.IsNaN(v)
}

// MarshalJSON encodes the record as an object keyed by wire name, with
// absent values as null.
func (m Metrics) MarshalJSON() ([]byte, error) {
	obj := make(map[string]*float64, NumMetrics)
	for i, name := range metricNames {
		if math.IsNaN(m[i]) || math.IsInf(m[i], 0) {
			obj[name] = nil
			continue
		}
		v := m[i]
		obj[name] = &v
	}
	return json.Marshal(obj)
}

// UnmarshalJSON decodes an object keyed by wire name. Missing keys and nulls
// become NaN.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	*m = MissingMetrics()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var obj map[string]*float64
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	for name, v := range obj {
		if k, ok := ParseMetricKey(name); ok && v != nil {
			m[k] = *v
		}
	}
	return nil
}
