package config

import (
	"fmt"

	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-monitoring-go"
	"github.com/lex00/wetwire-monitoring-go/dashboard"
	"github.com/lex00/wetwire-monitoring-go/logs"
	"github.com/lex00/wetwire-monitoring-go/metrics"
	"github.com/lex00/wetwire-monitoring-go/monitoring"
	"github.com/lex00/wetwire-monitoring-go/monitoring/fargate"
	"github.com/lex00/wetwire-monitoring-go/stack"
)

// Assembled is the result of turning a stack file into builders.
type Assembled struct {
	Stack  *stack.Stack
	Facade *monitoring.Facade // nil when no dashboard is configured
}

// Assemble builds the facade, rules, queries and stack described by s.
func (s *Stack) Assemble(logger *zap.Logger) (*Assembled, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := &Assembled{Stack: stack.New(stack.Props{Description: s.Description, Logger: logger})}

	for _, p := range s.Parameters {
		var def any
		if p.Default != "" {
			def = p.Default
		}
		if err := out.Stack.AddParameter(p.Name, wetwire.Parameter{
			Type:        p.Type,
			Description: p.Description,
			Default:     def,
		}); err != nil {
			return nil, err
		}
	}

	rules := s.InsightRules.rules()
	if err := out.Stack.AddInsightRules(rules...); err != nil {
		return nil, err
	}

	queries, err := logs.QueryDefinitions(s.Queries.props())
	if err != nil {
		return nil, err
	}
	if err := out.Stack.AddQueryDefinitions(queries...); err != nil {
		return nil, err
	}

	if s.Dashboard.Name == "" {
		return out, nil
	}

	facade, err := monitoring.New(monitoring.Props{
		DashboardName:          s.Dashboard.Name,
		DashboardDurationRange: s.Dashboard.DurationRange,
		PeriodOverride:         dashboard.PeriodOverride(s.Dashboard.PeriodOverride),
		Region:                 s.Dashboard.Region,
		MetricDefaults:         metrics.Defaults{Namespace: s.MetricDefaults.Namespace, Period: s.MetricDefaults.Period},
		Logger:                 logger,
	})
	if err != nil {
		return nil, err
	}
	if s.Dashboard.Title != "" {
		facade.AddLargeHeader(s.Dashboard.Title)
	}
	for i, svc := range s.Services {
		if _, err := facade.MonitorAlbFargateService(svc.props()); err != nil {
			return nil, fmt.Errorf("services[%d] (%s): %w", i, svc.Title, err)
		}
	}
	if s.InsightRules.Graph && len(rules) > 0 {
		if _, err := facade.MonitorInsightRules("Top contributors", rules); err != nil {
			return nil, err
		}
	}
	if err := out.Stack.SetDashboard(facade.Dashboard()); err != nil {
		return nil, err
	}
	out.Facade = facade
	return out, nil
}

func (r InsightRules) rules() []logs.InsightRule {
	var rules []logs.InsightRule
	if r.EmfLogGroupName != "" {
		rules = logs.DefaultTopCallerRules(r.EmfLogGroupName)
	}
	for _, c := range r.Custom {
		filters := make([]logs.Filter, len(c.Filters))
		for i, f := range c.Filters {
			filters[i] = logs.Filter{
				Match:      f.Match,
				EqualTo:    f.EqualTo,
				In:         f.In,
				NotIn:      f.NotIn,
				StartsWith: f.StartsWith,
				IsPresent:  f.IsPresent,
			}
		}
		rules = append(rules, logs.InsightRule{
			Name:          c.Name,
			LogGroupNames: c.LogGroupNames,
			Contribution:  logs.Contribution{Keys: c.Keys, ValueOf: c.ValueOf, Filters: filters},
			AggregateOn:   logs.AggregateOn(c.AggregateOn),
			Disabled:      c.Disabled,
		})
	}
	if r.Disabled {
		for i := range rules {
			rules[i].Disabled = true
		}
	}
	return rules
}

func (q QueryDefinitions) props() logs.QueryDefinitionsProps {
	props := logs.QueryDefinitionsProps{
		ApplicationLogGroupName: q.ApplicationLogGroupName,
		ServiceLogGroupName:     q.ServiceLogGroupName,
	}
	for _, c := range q.Custom {
		props.Custom = append(props.Custom, logs.QueryDefinition{
			Name:          c.Name,
			QueryString:   c.Query,
			LogGroupNames: c.LogGroupNames,
		})
	}
	return props
}

func (a AlbService) props() fargate.AlbServiceProps {
	props := fargate.AlbServiceProps{
		Title:                    a.Title,
		ReferenceURL:             a.ReferenceURL,
		RunningTasksStatistic:    metrics.Statistic(a.RunningTasksStatistic),
		CPUUtilizationPercent:    a.CPUUtilization.options(),
		MemoryUtilizationPercent: a.MemoryUtilization.options(),
		Requests:                 a.Requests.options(),
		Requests4xxErrors:        a.Requests4xxErrors.options(),
		Requests5xxErrors:        a.Requests5xxErrors.options(),
		LoadBalancer4xxErrors:    a.LoadBalancer4xxErrors.options(),
		LoadBalancer5xxErrors:    a.LoadBalancer5xxErrors.options(),
	}
	if a.Pattern != nil {
		props.PatternService = &fargate.PatternService{
			ClusterName:          a.Pattern.ClusterName,
			ServiceName:          a.Pattern.ServiceName,
			LoadBalancerFullName: a.Pattern.LoadBalancerName,
			TargetGroupFullName:  a.Pattern.TargetGroupFullName,
		}
	}
	if a.Service != nil {
		props.Service = &fargate.AlbFargateService{
			Service: fargate.ServiceRef{
				ClusterName: a.Service.ClusterName,
				ServiceName: a.Service.ServiceName,
			},
			LoadBalancer: fargate.LoadBalancerRef{
				FullName:            a.Service.LoadBalancerName,
				TargetGroupFullName: a.Service.TargetGroupFullName,
			},
		}
	}
	return props
}

func (o *MetricOptions) options() *metrics.Options {
	if o == nil {
		return nil
	}
	annotations := make([]metrics.Annotation, len(o.Annotations))
	for i, a := range o.Annotations {
		annotations[i] = metrics.Annotation{Value: a.Value, Label: a.Label, Color: a.Color}
	}
	var dims map[string]string
	if len(o.Dimensions) > 0 {
		dims = make(map[string]string, len(o.Dimensions))
		for _, d := range o.Dimensions {
			dims[d.Name] = d.Value
		}
	}
	return &metrics.Options{
		Period:        o.Period,
		Color:         o.Color,
		Region:        o.Region,
		ExcludeWidget: o.ExcludeWidget,
		Annotations:   annotations,
		Dimensions:    dims,
		Statistic:     metrics.Statistic(o.Statistic),
	}
}
