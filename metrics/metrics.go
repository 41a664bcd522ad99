// Package metrics provides the typed metric handles that dashboards are built from.
//
// A Handle describes a CloudWatch time series query or a metric math expression
// over other handles. Handles are values: every adaptation returns a copy.
//
//	factory := metrics.NewFactory(metrics.Defaults{Namespace: "svc"})
//	latency, err := factory.CreateMetric("Latency", metrics.Average)
package metrics

import (
	"maps"
	"time"
)

// DefaultPeriod is the metric period used when neither the call nor the
// factory defaults specify one.
const DefaultPeriod = time.Minute

// Statistic is the aggregation CloudWatch applies to data points in a period.
type Statistic string

const (
	// P50 is the 50th percentile of all data points.
	P50 Statistic = "p50"
	// P75 is the 75th percentile of all data points.
	P75 Statistic = "p75"
	// P90 is the 90th percentile of all data points.
	P90 Statistic = "p90"
	// P95 is the 95th percentile of all data points.
	P95 Statistic = "p95"
	// P99 is the 99th percentile of all data points.
	P99 Statistic = "p99"
	// Minimum of all data points.
	Minimum Statistic = "Minimum"
	// Maximum of all data points.
	Maximum Statistic = "Maximum"
	// Sum of all data points.
	Sum Statistic = "Sum"
	// Average of all data points.
	Average Statistic = "Average"
	// SampleCount is the number of data points.
	SampleCount Statistic = "SampleCount"
)

// Valid reports whether s is one of the supported statistics.
func (s Statistic) Valid() bool {
	switch s {
	case P50, P75, P90, P95, P99, Minimum, Maximum, Sum, Average, SampleCount:
		return true
	}
	return false
}

// Expression is a metric math formula over named operand handles.
type Expression struct {
	// Formula is stored opaquely, e.g. "100 * (m1 / m2)".
	Formula string
	// Operands maps metric ids used in Formula to their handles.
	Operands map[string]Handle
}

// Handle is an immutable description of a queryable time series.
//
// A handle is either a raw metric (Name, Statistic, Dimensions set) or a
// derived expression (Expression set), never both.
type Handle struct {
	Namespace  string
	Name       string
	Statistic  Statistic
	Dimensions map[string]string
	Period     time.Duration
	Label      string
	Color      string
	Region     string
	Expression *Expression
}

// IsExpression reports whether the handle is a metric math expression.
func (h Handle) IsExpression() bool {
	return h.Expression != nil
}

// Clone returns a deep copy of the handle.
func (h Handle) Clone() Handle {
	c := h
	if h.Dimensions != nil {
		c.Dimensions = maps.Clone(h.Dimensions)
	}
	if h.Expression != nil {
		ops := make(map[string]Handle, len(h.Expression.Operands))
		for id, op := range h.Expression.Operands {
			ops[id] = op.Clone()
		}
		c.Expression = &Expression{Formula: h.Expression.Formula, Operands: ops}
	}
	return c
}

// WithPeriod returns a copy of the handle with the period replaced.
func (h Handle) WithPeriod(period time.Duration) Handle {
	c := h.Clone()
	c.Period = period
	return c
}

// WithColor returns a copy of the handle with the color replaced.
func (h Handle) WithColor(color string) Handle {
	c := h.Clone()
	c.Color = color
	return c
}

// WithLabel returns a copy of the handle with the label replaced.
func (h Handle) WithLabel(label string) Handle {
	c := h.Clone()
	c.Label = label
	return c
}

// Annotation is a horizontal line drawn on a graph at a threshold value.
type Annotation struct {
	Value float64
	Label string
	Color string
}

// Options are per-metric overrides supplied by callers of resource monitors.
type Options struct {
	// Annotations drawn on the metric's graph.
	Annotations []Annotation
	// Period overrides the metric period when non-zero.
	Period time.Duration
	// Color overrides the metric color when non-empty.
	Color string
	// Region overrides the metric region when non-empty.
	Region string
	// ExcludeWidget suppresses the graph built solely for this metric.
	ExcludeWidget bool
	// Dimensions are merged into the metric's dimensions. Empty values are
	// dropped. Ignored for math expressions.
	Dimensions map[string]string
	// Statistic replaces the metric statistic when valid. Ignored for math
	// expressions.
	Statistic Statistic
}

// AnnotationsOf returns the annotations configured in opts, or an empty
// non-nil slice when opts is nil or has none.
func AnnotationsOf(opts *Options) []Annotation {
	if opts == nil || len(opts.Annotations) == 0 {
		return []Annotation{}
	}
	out := make([]Annotation, len(opts.Annotations))
	copy(out, opts.Annotations)
	return out
}
