package fargate

import (
	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// Metric namespaces.
const (
	ECSNamespace               = "AWS/ECS"
	ContainerInsightsNamespace = "ECS/ContainerInsights"
	ApplicationELBNamespace    = "AWS/ApplicationELB"
)

// ServiceProps configure a ServiceMetricFactory.
type ServiceProps struct {
	Service ServiceRef

	CPUUtilizationPercent    *metrics.Options
	MemoryUtilizationPercent *metrics.Options

	// RunningTasksStatistic defaults to metrics.Average.
	RunningTasksStatistic metrics.Statistic
}

// ServiceMetricFactory is the metric catalog of a bare Fargate service.
type ServiceMetricFactory struct {
	factory *metrics.Factory
	props   ServiceProps
	dims    map[string]string
}

// NewServiceMetricFactory creates the catalog for the service in props.
func NewServiceMetricFactory(factory *metrics.Factory, props ServiceProps) (*ServiceMetricFactory, error) {
	if props.RunningTasksStatistic != "" && !props.RunningTasksStatistic.Valid() {
		return nil, metrics.NewConfigurationError("fargate service metrics", "unsupported running tasks statistic %q", props.RunningTasksStatistic)
	}
	return &ServiceMetricFactory{
		factory: factory,
		props:   props,
		dims: metrics.Sanitize(map[string]string{
			"ClusterName": props.Service.ClusterName,
			"ServiceName": props.Service.ServiceName,
		}),
	}, nil
}

// Service returns the monitored service.
func (f *ServiceMetricFactory) Service() ServiceRef {
	return f.props.Service
}

// MetricCPUUtilizationPercent is the average CPU utilization of the service.
func (f *ServiceMetricFactory) MetricCPUUtilizationPercent() metrics.Handle {
	m := resourceMetric(ECSNamespace, "CPUUtilization", metrics.Average, f.dims, "CPU Utilization", "")
	return f.factory.AdaptMetricWithOptions(m, f.props.CPUUtilizationPercent)
}

// MetricMemoryUtilizationPercent is the average memory utilization of the service.
func (f *ServiceMetricFactory) MetricMemoryUtilizationPercent() metrics.Handle {
	m := resourceMetric(ECSNamespace, "MemoryUtilization", metrics.Average, f.dims, "Memory Utilization", "")
	return f.factory.AdaptMetricWithOptions(m, f.props.MemoryUtilizationPercent)
}

// MetricRunningTaskCount is the number of running tasks reported by Container Insights.
func (f *ServiceMetricFactory) MetricRunningTaskCount() metrics.Handle {
	stat := metrics.Resolve(f.props.RunningTasksStatistic, metrics.Average)
	m := resourceMetric(ContainerInsightsNamespace, "RunningTaskCount", stat, f.dims, "Running Tasks", metrics.NeutralColor)
	return f.factory.AdaptMetric(m)
}

// resourceMetric builds a handle the way a resource would expose it, with
// DefaultPeriod. Callers adapt it through the metric factory.
func resourceMetric(namespace, name string, stat metrics.Statistic, dims map[string]string, label, color string) metrics.Handle {
	return metrics.Handle{
		Namespace:  namespace,
		Name:       name,
		Statistic:  stat,
		Dimensions: metrics.Sanitize(dims),
		Period:     metrics.DefaultPeriod,
		Label:      label,
		Color:      color,
	}
}
