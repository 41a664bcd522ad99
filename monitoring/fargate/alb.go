package fargate

import (
	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// AlbServiceProps configure monitoring of an ALB-fronted Fargate service.
//
// Exactly one of PatternService and Service must be set.
type AlbServiceProps struct {
	// Title of the dashboard segment.
	Title string
	// ReferenceURL is linked from the segment header when set.
	ReferenceURL string

	PatternService *PatternService
	Service        *AlbFargateService

	CPUUtilizationPercent    *metrics.Options
	MemoryUtilizationPercent *metrics.Options
	Requests                 *metrics.Options
	Requests4xxErrors        *metrics.Options
	Requests5xxErrors        *metrics.Options
	LoadBalancer4xxErrors    *metrics.Options
	LoadBalancer5xxErrors    *metrics.Options

	// RunningTasksStatistic defaults to metrics.Average.
	RunningTasksStatistic metrics.Statistic
}

// AlbServiceMetricFactory extends the Fargate service catalog with the
// load balancer and target group metrics.
type AlbServiceMetricFactory struct {
	*ServiceMetricFactory

	props      AlbServiceProps
	lb         LoadBalancerRef
	targetDims map[string]string
	lbDims     map[string]string
}

// NewAlbServiceMetricFactory resolves the service reference in props and
// creates the catalog.
func NewAlbServiceMetricFactory(factory *metrics.Factory, props AlbServiceProps) (*AlbServiceMetricFactory, error) {
	source, err := SourceOf(props.PatternService, props.Service)
	if err != nil {
		return nil, err
	}
	service, err := NewServiceMetricFactory(factory, ServiceProps{
		Service:                  source.service(),
		CPUUtilizationPercent:    props.CPUUtilizationPercent,
		MemoryUtilizationPercent: props.MemoryUtilizationPercent,
		RunningTasksStatistic:    props.RunningTasksStatistic,
	})
	if err != nil {
		return nil, err
	}

	lb := source.loadBalancer()
	return &AlbServiceMetricFactory{
		ServiceMetricFactory: service,
		props:                props,
		lb:                   lb,
		targetDims: metrics.Sanitize(map[string]string{
			"TargetGroup":  lb.TargetGroupFullName,
			"LoadBalancer": lb.FullName,
		}),
		lbDims: metrics.Sanitize(map[string]string{
			"LoadBalancer": lb.FullName,
		}),
	}, nil
}

// LoadBalancer returns the monitored load balancer.
func (f *AlbServiceMetricFactory) LoadBalancer() LoadBalancerRef {
	return f.lb
}

// MetricHealthyHostsCount is the number of healthy targets.
func (f *AlbServiceMetricFactory) MetricHealthyHostsCount() metrics.Handle {
	return f.factory.AdaptMetric(f.target("HealthyHostCount", metrics.Average, "Healthy Hosts", metrics.HealthyColor))
}

// MetricUnhealthyHostsCount is the number of unhealthy targets.
func (f *AlbServiceMetricFactory) MetricUnhealthyHostsCount() metrics.Handle {
	return f.factory.AdaptMetric(f.target("UnHealthyHostCount", metrics.Average, "Unhealthy Hosts", metrics.UnhealthyColor))
}

// MetricRequestCount is the number of requests routed to the target group.
func (f *AlbServiceMetricFactory) MetricRequestCount() metrics.Handle {
	m := f.target("RequestCount", metrics.Sum, "Requests (Count)", "")
	return f.factory.AdaptMetricWithOptions(m, f.props.Requests)
}

// MetricTargetHTTP2xxCount counts 2XX responses originating from the targets.
func (f *AlbServiceMetricFactory) MetricTargetHTTP2xxCount() metrics.Handle {
	return f.factory.AdaptMetric(f.target("HTTPCode_Target_2XX_Count", metrics.Sum, "Target HTTP 2xx Requests (Count)", metrics.SuccessColor))
}

// MetricTargetHTTP3xxCount counts 3XX responses originating from the targets.
func (f *AlbServiceMetricFactory) MetricTargetHTTP3xxCount() metrics.Handle {
	return f.factory.AdaptMetric(f.target("HTTPCode_Target_3XX_Count", metrics.Sum, "Target HTTP 3xx Requests (Count)", metrics.NeutralColor))
}

// MetricTargetHTTP4xxCount counts 4XX responses originating from the targets.
func (f *AlbServiceMetricFactory) MetricTargetHTTP4xxCount() metrics.Handle {
	m := f.target("HTTPCode_Target_4XX_Count", metrics.Sum, "Target HTTP 4xx Requests (Count)", metrics.ErrorColor)
	return f.factory.AdaptMetricWithOptions(m, f.props.Requests4xxErrors)
}

// MetricTargetHTTP5xxCount counts 5XX responses originating from the targets.
func (f *AlbServiceMetricFactory) MetricTargetHTTP5xxCount() metrics.Handle {
	m := f.target("HTTPCode_Target_5XX_Count", metrics.Sum, "Target HTTP 5xx Requests (Count)", metrics.FaultColor)
	return f.factory.AdaptMetricWithOptions(m, f.props.Requests5xxErrors)
}

// MetricLoadBalancerHTTP4xxCount counts 4XX responses generated by the load
// balancer itself, not including target responses.
func (f *AlbServiceMetricFactory) MetricLoadBalancerHTTP4xxCount() metrics.Handle {
	m := resourceMetric(ApplicationELBNamespace, "HTTPCode_ELB_4XX_Count", metrics.Sum, f.lbDims, "Load Balancer HTTP 4xx Requests (Count)", metrics.ErrorColor)
	return f.factory.AdaptMetricWithOptions(m, f.props.LoadBalancer4xxErrors)
}

// MetricLoadBalancerHTTP5xxCount counts 5XX responses generated by the load
// balancer itself, not including target responses.
func (f *AlbServiceMetricFactory) MetricLoadBalancerHTTP5xxCount() metrics.Handle {
	m := resourceMetric(ApplicationELBNamespace, "HTTPCode_ELB_5XX_Count", metrics.Sum, f.lbDims, "Load Balancer HTTP 5xx Requests (Count)", metrics.FaultColor)
	return f.factory.AdaptMetricWithOptions(m, f.props.LoadBalancer5xxErrors)
}

// MetricAvailability is the percentage of requests not answered with a 5XX,
// by either the targets or the load balancer.
func (f *AlbServiceMetricFactory) MetricAvailability() (metrics.Handle, error) {
	return f.factory.CreateMetricMath(
		"100 * (1 - (target5xx + lb5xx) / requests)",
		map[string]metrics.Handle{
			"requests":  f.MetricRequestCount(),
			"target5xx": f.MetricTargetHTTP5xxCount(),
			"lb5xx":     f.MetricLoadBalancerHTTP5xxCount(),
		},
		"Availability (%)",
		metrics.WithMathColor(metrics.HealthyColor),
	)
}

func (f *AlbServiceMetricFactory) target(name string, stat metrics.Statistic, label, color string) metrics.Handle {
	return resourceMetric(ApplicationELBNamespace, name, stat, f.targetDims, label, color)
}
