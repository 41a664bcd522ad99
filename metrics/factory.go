package metrics

import (
	"maps"
	"time"
)

// Defaults are the factory-wide values applied when a call does not set them.
type Defaults struct {
	// Namespace in which metrics are created unless a call overrides it.
	Namespace string
	// Period of metric granularity; DefaultPeriod when zero.
	Period time.Duration
}

// Factory builds metric handles with shared defaults.
// A Factory owns a copy of its defaults and is never mutated after creation.
type Factory struct {
	defaults Defaults
}

// NewFactory creates a factory seeded with the given defaults.
func NewFactory(defaults Defaults) *Factory {
	return &Factory{defaults: defaults}
}

// Defaults returns the factory defaults.
func (f *Factory) Defaults() Defaults {
	return f.defaults
}

// DefaultPeriod returns the period handles get when the caller does not set one.
func (f *Factory) DefaultPeriod() time.Duration {
	return Resolve(f.defaults.Period, DefaultPeriod)
}

// MetricOption customizes a raw metric created by CreateMetric.
type MetricOption func(*Handle)

// WithLabel sets the legend label.
func WithLabel(label string) MetricOption {
	return func(h *Handle) { h.Label = label }
}

// WithDimensions sets the metric dimensions. Entries with an empty value are dropped.
func WithDimensions(dims map[string]string) MetricOption {
	return func(h *Handle) { h.Dimensions = Sanitize(dims) }
}

// WithColor sets the series color (hex).
func WithColor(color string) MetricOption {
	return func(h *Handle) { h.Color = color }
}

// WithNamespace overrides the factory namespace.
func WithNamespace(namespace string) MetricOption {
	return func(h *Handle) { h.Namespace = namespace }
}

// WithPeriod overrides the factory period.
func WithPeriod(period time.Duration) MetricOption {
	return func(h *Handle) { h.Period = period }
}

// WithRegion sets the region the metric is read from.
func WithRegion(region string) MetricOption {
	return func(h *Handle) { h.Region = region }
}

// CreateMetric creates a raw metric handle.
//
// Namespace resolves to the call value, then the factory namespace. Period
// resolves to the call value, then the factory period, then DefaultPeriod.
func (f *Factory) CreateMetric(name string, statistic Statistic, opts ...MetricOption) (Handle, error) {
	if name == "" {
		return Handle{}, NewConfigurationError("metric factory", "metric name is required")
	}
	if !statistic.Valid() {
		return Handle{}, NewConfigurationError("metric factory", "metric %q has unsupported statistic %q", name, statistic)
	}

	var call Handle
	for _, opt := range opts {
		opt(&call)
	}

	h := Handle{
		Name:       name,
		Statistic:  statistic,
		Label:      call.Label,
		Color:      call.Color,
		Region:     call.Region,
		Dimensions: call.Dimensions,
		Namespace:  Resolve(call.Namespace, f.defaults.Namespace),
		Period:     Resolve(call.Period, f.defaults.Period, DefaultPeriod),
	}
	if h.Dimensions == nil {
		h.Dimensions = map[string]string{}
	}
	if h.Namespace == "" {
		return Handle{}, NewConfigurationError("metric factory", "metric %q has no namespace and the factory has no default", name)
	}
	return h, nil
}

// MathOption customizes a metric math handle.
type MathOption func(*Handle)

// WithMathColor sets the expression series color.
func WithMathColor(color string) MathOption {
	return func(h *Handle) { h.Color = color }
}

// WithMathPeriod overrides the factory period for the expression.
func WithMathPeriod(period time.Duration) MathOption {
	return func(h *Handle) { h.Period = period }
}

// CreateMetricMath creates a derived handle evaluating expression over operands.
//
// Every metric id referenced in expression must be an operand key; the
// returned error is a *ConfigurationError otherwise.
func (f *Factory) CreateMetricMath(expression string, operands map[string]Handle, label string, opts ...MathOption) (Handle, error) {
	if err := ValidateExpression(expression, operands); err != nil {
		return Handle{}, err
	}

	var call Handle
	for _, opt := range opts {
		opt(&call)
	}

	ops := make(map[string]Handle, len(operands))
	for id, op := range operands {
		ops[id] = op.Clone()
	}

	return Handle{
		Label:  label,
		Color:  call.Color,
		Period: Resolve(call.Period, f.defaults.Period, DefaultPeriod),
		Expression: &Expression{
			Formula:  expression,
			Operands: ops,
		},
	}, nil
}

// AdaptMetric normalizes a handle obtained elsewhere to the factory period.
// The handle's own period is ignored.
func (f *Factory) AdaptMetric(h Handle) Handle {
	return h.WithPeriod(f.DefaultPeriod())
}

// AdaptMetricWithOptions applies per-metric overrides. Period, color,
// region and statistic come from opts when set, otherwise they stay as on h.
// Dimensions from opts are merged over h's. Factory defaults are not
// consulted, unlike AdaptMetric.
func (f *Factory) AdaptMetricWithOptions(h Handle, opts *Options) Handle {
	c := h.Clone()
	if opts == nil {
		return c
	}
	c.Period = Resolve(opts.Period, h.Period)
	c.Color = Resolve(opts.Color, h.Color)
	c.Region = Resolve(opts.Region, h.Region)
	if c.IsExpression() {
		return c
	}
	if opts.Statistic.Valid() {
		c.Statistic = opts.Statistic
	}
	if extra := Sanitize(opts.Dimensions); len(extra) > 0 {
		if c.Dimensions == nil {
			c.Dimensions = make(map[string]string, len(extra))
		}
		maps.Copy(c.Dimensions, extra)
	}
	return c
}

// Sanitize returns a copy of dims without entries whose value is missing
// (empty). It returns an empty map for nil input.
func Sanitize(dims map[string]string) map[string]string {
	out := make(map[string]string, len(dims))
	for k, v := range dims {
		if v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Resolve returns the first non-zero value, in precedence order. It is used
// for every call value / default / fallback chain in this module.
func Resolve[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
