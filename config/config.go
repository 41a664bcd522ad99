// Package config loads the monitoring stack description from YAML and the
// environment.
//
// Values are read from a YAML file (monitoring.yaml by default) and may be
// overridden by environment variables prefixed with WETWIRE_MONITORING_,
// with dots replaced by underscores, e.g. WETWIRE_MONITORING_DASHBOARD_NAME.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// DefaultFileName is the stack file looked up when no path is given.
const DefaultFileName = "monitoring.yaml"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "WETWIRE_MONITORING"

// Stack is the decoded stack file.
type Stack struct {
	Description    string           `mapstructure:"description"`
	Dashboard      Dashboard        `mapstructure:"dashboard"`
	MetricDefaults MetricDefaults   `mapstructure:"metricDefaults"`
	Parameters     []Parameter      `mapstructure:"parameters"`
	Services       []AlbService     `mapstructure:"services"`
	InsightRules   InsightRules     `mapstructure:"insightRules"`
	Queries        QueryDefinitions `mapstructure:"queries"`
}

// Dashboard configures the dashboard resource.
type Dashboard struct {
	Name           string        `mapstructure:"name"`
	Title          string        `mapstructure:"title"`
	DurationRange  time.Duration `mapstructure:"durationRange"`
	PeriodOverride string        `mapstructure:"periodOverride"`
	Region         string        `mapstructure:"region"`
}

// MetricDefaults seed every metric factory.
type MetricDefaults struct {
	Namespace string        `mapstructure:"namespace"`
	Period    time.Duration `mapstructure:"period"`
}

// Parameter declares a template parameter. Parameters are a list because
// map keys lose their case when read.
type Parameter struct {
	Name        string `mapstructure:"name"`
	Type        string `mapstructure:"type"`
	Description string `mapstructure:"description"`
	Default     string `mapstructure:"default"`
}

// AlbService describes an ALB-fronted Fargate service. Exactly one of
// Pattern and Service must be set.
type AlbService struct {
	Title                 string      `mapstructure:"title"`
	ReferenceURL          string      `mapstructure:"referenceUrl"`
	Pattern               *ServiceRef `mapstructure:"pattern"`
	Service               *ServiceRef `mapstructure:"service"`
	RunningTasksStatistic string      `mapstructure:"runningTasksStatistic"`

	CPUUtilization        *MetricOptions `mapstructure:"cpuUtilization"`
	MemoryUtilization     *MetricOptions `mapstructure:"memoryUtilization"`
	Requests              *MetricOptions `mapstructure:"requests"`
	Requests4xxErrors     *MetricOptions `mapstructure:"requests4xxErrors"`
	Requests5xxErrors     *MetricOptions `mapstructure:"requests5xxErrors"`
	LoadBalancer4xxErrors *MetricOptions `mapstructure:"loadBalancer4xxErrors"`
	LoadBalancer5xxErrors *MetricOptions `mapstructure:"loadBalancer5xxErrors"`
}

// ServiceRef names the ECS service and its load balancer.
type ServiceRef struct {
	ClusterName         string `mapstructure:"clusterName"`
	ServiceName         string `mapstructure:"serviceName"`
	LoadBalancerName    string `mapstructure:"loadBalancerFullName"`
	TargetGroupFullName string `mapstructure:"targetGroupFullName"`
}

// MetricOptions are per-metric overrides.
type MetricOptions struct {
	Period        time.Duration `mapstructure:"period"`
	Color         string        `mapstructure:"color"`
	Region        string        `mapstructure:"region"`
	ExcludeWidget bool          `mapstructure:"excludeWidget"`
	Annotations   []Annotation  `mapstructure:"annotations"`
	Dimensions    []Dimension   `mapstructure:"dimensions"`
	Statistic     string        `mapstructure:"statistic"`
}

// Dimension is an extra metric dimension. It is a list entry rather than a
// map key because viper lowercases keys.
type Dimension struct {
	Name  string `mapstructure:"name"`
	Value string `mapstructure:"value"`
}

// Annotation is a horizontal threshold line.
type Annotation struct {
	Value float64 `mapstructure:"value"`
	Label string  `mapstructure:"label"`
	Color string  `mapstructure:"color"`
}

// InsightRules configures Contributor Insights rules.
type InsightRules struct {
	// EmfLogGroupName enables the top callers rules when set.
	EmfLogGroupName string `mapstructure:"emfLogGroupName"`
	// Graph adds a dashboard segment for the rules.
	Graph    bool          `mapstructure:"graph"`
	Disabled bool          `mapstructure:"disabled"`
	Custom   []InsightRule `mapstructure:"custom"`
}

// InsightRule is a custom Contributor Insights rule.
type InsightRule struct {
	Name          string   `mapstructure:"name"`
	LogGroupNames []string `mapstructure:"logGroupNames"`
	Keys          []string `mapstructure:"keys"`
	ValueOf       string   `mapstructure:"valueOf"`
	AggregateOn   string   `mapstructure:"aggregateOn"`
	Filters       []Filter `mapstructure:"filters"`
	Disabled      bool     `mapstructure:"disabled"`
}

// Filter narrows the log events of a custom rule.
type Filter struct {
	Match      string   `mapstructure:"match"`
	EqualTo    any      `mapstructure:"equalTo"`
	In         []any    `mapstructure:"in"`
	NotIn      []any    `mapstructure:"notIn"`
	StartsWith []string `mapstructure:"startsWith"`
	IsPresent  *bool    `mapstructure:"isPresent"`
}

// QueryDefinitions configures Logs Insights query definitions.
type QueryDefinitions struct {
	ApplicationLogGroupName string  `mapstructure:"applicationLogGroupName"`
	ServiceLogGroupName     string  `mapstructure:"serviceLogGroupName"`
	Custom                  []Query `mapstructure:"custom"`
}

// Query is a custom query definition.
type Query struct {
	Name          string   `mapstructure:"name"`
	Query         string   `mapstructure:"query"`
	LogGroupNames []string `mapstructure:"logGroupNames"`
}

// envKeys are bound explicitly so overrides apply even when the file omits them.
var envKeys = []string{
	"description",
	"dashboard.name",
	"dashboard.title",
	"dashboard.durationRange",
	"dashboard.periodOverride",
	"dashboard.region",
	"metricDefaults.namespace",
	"metricDefaults.period",
	"insightRules.emfLogGroupName",
	"queries.applicationLogGroupName",
	"queries.serviceLogGroupName",
}

// Load reads the stack file at path, or DefaultFileName in the working
// directory when path is empty, and applies environment overrides.
func Load(path string) (*Stack, error) {
	v := viper.New()
	if path == "" {
		path = DefaultFileName
	}
	v.SetConfigFile(path)
	v.SetConfigType(configType(path))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stack file %s not found: %w", path, err)
		}
		return nil, fmt.Errorf("reading stack file %s: %w", path, err)
	}

	var cfg Stack
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding stack file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

// Validate checks the fields that cannot be checked by the builders.
func (s *Stack) Validate() error {
	if s.Dashboard.Name == "" && (len(s.Services) > 0 || s.InsightRules.Graph) {
		return errors.New("dashboard.name is required when services or rule graphs are configured")
	}
	seen := make(map[string]bool, len(s.Parameters))
	for i, p := range s.Parameters {
		if p.Name == "" {
			return fmt.Errorf("parameters[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("parameters[%d]: duplicate parameter %s", i, p.Name)
		}
		seen[p.Name] = true
	}
	for i, svc := range s.Services {
		if svc.Title == "" {
			return fmt.Errorf("services[%d]: title is required", i)
		}
		for _, m := range svc.metricOptions() {
			if m.opts != nil && m.opts.Statistic != "" && !metrics.Statistic(m.opts.Statistic).Valid() {
				return fmt.Errorf("services[%d].%s: unsupported statistic %q", i, m.key, m.opts.Statistic)
			}
		}
	}
	return nil
}

type namedOptions struct {
	key  string
	opts *MetricOptions
}

func (s AlbService) metricOptions() []namedOptions {
	return []namedOptions{
		{"cpuUtilization", s.CPUUtilization},
		{"memoryUtilization", s.MemoryUtilization},
		{"requests", s.Requests},
		{"requests4xxErrors", s.Requests4xxErrors},
		{"requests5xxErrors", s.Requests5xxErrors},
		{"loadBalancer4xxErrors", s.LoadBalancer4xxErrors},
		{"loadBalancer5xxErrors", s.LoadBalancer5xxErrors},
	}
}
