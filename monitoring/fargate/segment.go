package fargate

import (
	"github.com/lex00/wetwire-monitoring-go/dashboard"
	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// AlbServiceMonitoring is the dashboard segment of an ALB-fronted Fargate
// service: a linked title header, then CPU, memory, task and host health
// and request graphs at quarter width, then the HTTP response class graphs
// at half width.
type AlbServiceMonitoring struct {
	props   AlbServiceProps
	catalog *AlbServiceMetricFactory

	cpu          metrics.Handle
	memory       metrics.Handle
	runningTasks metrics.Handle
	healthy      metrics.Handle
	unhealthy    metrics.Handle
	requests     metrics.Handle
	target2xx    metrics.Handle
	target3xx    metrics.Handle
	target4xx    metrics.Handle
	target5xx    metrics.Handle
	lb4xx        metrics.Handle
	lb5xx        metrics.Handle
}

// NewAlbServiceMonitoring builds the metrics of the service described by
// props using factory for period and default resolution.
func NewAlbServiceMonitoring(factory *metrics.Factory, props AlbServiceProps) (*AlbServiceMonitoring, error) {
	catalog, err := NewAlbServiceMetricFactory(factory, props)
	if err != nil {
		return nil, err
	}
	return &AlbServiceMonitoring{
		props:        props,
		catalog:      catalog,
		cpu:          catalog.MetricCPUUtilizationPercent(),
		memory:       catalog.MetricMemoryUtilizationPercent(),
		runningTasks: catalog.MetricRunningTaskCount(),
		healthy:      catalog.MetricHealthyHostsCount(),
		unhealthy:    catalog.MetricUnhealthyHostsCount(),
		requests:     catalog.MetricRequestCount(),
		target2xx:    catalog.MetricTargetHTTP2xxCount(),
		target3xx:    catalog.MetricTargetHTTP3xxCount(),
		target4xx:    catalog.MetricTargetHTTP4xxCount(),
		target5xx:    catalog.MetricTargetHTTP5xxCount(),
		lb4xx:        catalog.MetricLoadBalancerHTTP4xxCount(),
		lb5xx:        catalog.MetricLoadBalancerHTTP5xxCount(),
	}, nil
}

// MetricFactory returns the catalog the segment was built from.
func (s *AlbServiceMonitoring) MetricFactory() *AlbServiceMetricFactory {
	return s.catalog
}

// Title returns the segment title.
func (s *AlbServiceMonitoring) Title() string {
	return s.props.Title
}

// BuildWidgets implements dashboard.Segment.
func (s *AlbServiceMonitoring) BuildWidgets() []dashboard.Widget {
	p := s.props
	widgets := []dashboard.Widget{
		dashboard.NewLinkHeaderWidget(p.Title, p.ReferenceURL),
	}

	add := func(opts *metrics.Options, props dashboard.GraphProps) {
		if opts != nil && opts.ExcludeWidget {
			return
		}
		props.Height = dashboard.DefaultGraphWidgetHeight
		props.LeftAnnotations = metrics.AnnotationsOf(opts)
		widgets = append(widgets, dashboard.NewGraphWidget(props))
	}

	add(p.CPUUtilizationPercent, dashboard.GraphProps{
		Title:     "CPU Utilization",
		Width:     dashboard.QuarterWidth,
		Left:      []metrics.Handle{s.cpu},
		LeftYAxis: &dashboard.PercentageAxis,
	})
	add(p.MemoryUtilizationPercent, dashboard.GraphProps{
		Title:     "Memory Utilization",
		Width:     dashboard.QuarterWidth,
		Left:      []metrics.Handle{s.memory},
		LeftYAxis: &dashboard.PercentageAxis,
	})
	add(nil, dashboard.GraphProps{
		Title: "Task & Host Health",
		Width: dashboard.QuarterWidth,
		Left:  []metrics.Handle{s.runningTasks, s.healthy, s.unhealthy},
	})
	add(p.Requests, dashboard.GraphProps{
		Title: "Requests (Count)",
		Width: dashboard.QuarterWidth,
		Left:  []metrics.Handle{s.requests},
	})
	add(nil, dashboard.GraphProps{
		Title: "Target HTTP Requests Overview",
		Width: dashboard.HalfWidth,
		Left:  []metrics.Handle{s.target2xx, s.target3xx, s.target4xx, s.target5xx},
	})
	add(p.Requests4xxErrors, dashboard.GraphProps{
		Title: "Target HTTP Requests 4xx Errors",
		Width: dashboard.HalfWidth,
		Left:  []metrics.Handle{s.target4xx},
	})
	add(p.Requests5xxErrors, dashboard.GraphProps{
		Title: "Target HTTP Requests 5xx Errors",
		Width: dashboard.HalfWidth,
		Left:  []metrics.Handle{s.target5xx},
	})
	add(p.LoadBalancer4xxErrors, dashboard.GraphProps{
		Title: "Load Balancer HTTP Requests 4xx Errors",
		Width: dashboard.HalfWidth,
		Left:  []metrics.Handle{s.lb4xx},
	})
	add(p.LoadBalancer5xxErrors, dashboard.GraphProps{
		Title: "Load Balancer HTTP Requests 5xx Errors",
		Width: dashboard.HalfWidth,
		Left:  []metrics.Handle{s.lb5xx},
	})
	return widgets
}
