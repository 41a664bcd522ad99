// Package monitoring provides the Facade, the entry point for composing a
// monitoring dashboard out of segments.
//
//	facade, err := monitoring.New(monitoring.Props{
//		DashboardName:  "api",
//		MetricDefaults: metrics.Defaults{Namespace: "api"},
//	})
//	facade.AddLargeHeader("API")
//	_, err = facade.MonitorAlbFargateService(fargate.AlbServiceProps{...})
package monitoring

import (
	"time"

	"go.uber.org/zap"

	"github.com/lex00/wetwire-monitoring-go/dashboard"
	"github.com/lex00/wetwire-monitoring-go/logs"
	"github.com/lex00/wetwire-monitoring-go/metrics"
	"github.com/lex00/wetwire-monitoring-go/monitoring/fargate"
)

// Props configure a Facade.
type Props struct {
	// DashboardName is required.
	DashboardName string
	// DashboardDurationRange defaults to dashboard.DefaultDurationRange.
	DashboardDurationRange time.Duration
	// PeriodOverride defaults to dashboard.PeriodOverrideAuto.
	PeriodOverride dashboard.PeriodOverride
	// Region of metric widgets; the stack region when empty.
	Region string
	// MetricDefaults seed every metric factory built by the facade.
	// Namespace is required.
	MetricDefaults metrics.Defaults
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Facade accumulates dashboard segments in render order and forwards each
// one to the dashboard as it is added. Segments are never removed or
// reordered. A Facade is not safe for concurrent use.
type Facade struct {
	defaults  metrics.Defaults
	segments  []dashboard.Segment
	dashboard *dashboard.Dashboard
	logger    *zap.Logger
}

// New creates a facade and its dashboard.
func New(props Props) (*Facade, error) {
	if props.MetricDefaults.Namespace == "" {
		return nil, metrics.NewConfigurationError("monitoring facade", "metric defaults must specify a namespace")
	}
	d, err := dashboard.New(dashboard.Props{
		Name:           props.DashboardName,
		DurationRange:  props.DashboardDurationRange,
		PeriodOverride: props.PeriodOverride,
		Region:         props.Region,
	})
	if err != nil {
		return nil, err
	}

	logger := props.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Facade{
		defaults:  props.MetricDefaults,
		dashboard: d,
		logger:    logger.With(zap.String("dashboard", props.DashboardName)),
	}, nil
}

// BuildMetricFactory returns a metric factory seeded with the facade defaults.
func (f *Facade) BuildMetricFactory() *metrics.Factory {
	return metrics.NewFactory(f.defaults)
}

// AddSegment appends segment and renders its widgets into the dashboard.
func (f *Facade) AddSegment(segment dashboard.Segment) *Facade {
	before := len(f.dashboard.Widgets())
	f.segments = append(f.segments, segment)
	f.dashboard.AddSegment(segment)
	total := len(f.dashboard.Widgets())
	f.logger.Debug("added segment",
		zap.Int("index", len(f.segments)-1),
		zap.Int("widgets", total-before),
		zap.Int("totalWidgets", total))
	return f
}

// AddHeader adds a text header of the given level.
func (f *Facade) AddHeader(text string, level dashboard.HeaderLevel) *Facade {
	return f.AddWidget(dashboard.NewHeaderWidget(text, level))
}

// AddLargeHeader adds a "#" header.
func (f *Facade) AddLargeHeader(text string) *Facade {
	return f.AddHeader(text, dashboard.HeaderLarge)
}

// AddMediumHeader adds a "##" header.
func (f *Facade) AddMediumHeader(text string) *Facade {
	return f.AddHeader(text, dashboard.HeaderMedium)
}

// AddSmallHeader adds a "###" header.
func (f *Facade) AddSmallHeader(text string) *Facade {
	return f.AddHeader(text, dashboard.HeaderSmall)
}

// AddWidget adds a single widget as its own segment.
func (f *Facade) AddWidget(widget dashboard.Widget) *Facade {
	return f.AddSegment(dashboard.NewSingleWidgetSegment(widget))
}

// AddWidgets adds each widget as its own segment, in order.
func (f *Facade) AddWidgets(widgets ...dashboard.Widget) *Facade {
	for _, w := range widgets {
		f.AddWidget(w)
	}
	return f
}

// MonitorAlbFargateService adds the monitoring segment of an ALB-fronted
// Fargate service.
func (f *Facade) MonitorAlbFargateService(props fargate.AlbServiceProps) (*Facade, error) {
	segment, err := fargate.NewAlbServiceMonitoring(f.BuildMetricFactory(), props)
	if err != nil {
		f.logger.Debug("rejected alb fargate service", zap.String("title", props.Title), zap.Error(err))
		return f, err
	}
	return f.AddSegment(segment), nil
}

// MonitorInsightRules adds a segment graphing the unique contributors of
// each rule. The rules themselves are created by the stack.
func (f *Facade) MonitorInsightRules(title string, rules []logs.InsightRule) (*Facade, error) {
	segment, err := logs.NewInsightRulesSegment(f.BuildMetricFactory(), title, rules)
	if err != nil {
		f.logger.Debug("rejected insight rules", zap.String("title", title), zap.Error(err))
		return f, err
	}
	return f.AddSegment(segment), nil
}

// Segments returns the added segments in render order.
func (f *Facade) Segments() []dashboard.Segment {
	out := make([]dashboard.Segment, len(f.segments))
	copy(out, f.segments)
	return out
}

// Dashboard returns the dashboard the segments are rendered into.
func (f *Facade) Dashboard() *dashboard.Dashboard {
	return f.dashboard
}
