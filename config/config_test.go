package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-monitoring-go"
	"github.com/lex00/wetwire-monitoring-go/metrics"
)

func writeStack(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Sample(t *testing.T) {
	cfg, err := Load(writeStack(t, Sample))
	require.NoError(t, err)

	assert.Equal(t, "api-service", cfg.Dashboard.Name)
	assert.Equal(t, 8*time.Hour, cfg.Dashboard.DurationRange)
	assert.Equal(t, time.Minute, cfg.MetricDefaults.Period)
	require.Len(t, cfg.Parameters, 3)
	assert.Equal(t, "EmfLogGroupName", cfg.Parameters[1].Name)

	require.Len(t, cfg.Services, 1)
	svc := cfg.Services[0]
	require.NotNil(t, svc.Service)
	assert.Nil(t, svc.Pattern)
	assert.Equal(t, "${LoadBalancer.LoadBalancerFullName}", svc.Service.LoadBalancerName)
	require.NotNil(t, svc.CPUUtilization)
	assert.Equal(t, []Annotation{{Value: 80, Label: "High CPU"}}, svc.CPUUtilization.Annotations)
	assert.Equal(t, "#d62728", svc.Requests5xxErrors.Color)

	assert.True(t, cfg.InsightRules.Graph)
	assert.Equal(t, "${AppLogGroupName}", cfg.Queries.ApplicationLogGroupName)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WETWIRE_MONITORING_DASHBOARD_NAME", "from-env")
	t.Setenv("WETWIRE_MONITORING_METRICDEFAULTS_NAMESPACE", "EnvNamespace")

	cfg, err := Load(writeStack(t, Sample))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Dashboard.Name)
	assert.Equal(t, "EnvNamespace", cfg.MetricDefaults.Namespace)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = Load(writeStack(t, "dashboard: [unclosed"))
	require.Error(t, err)

	_, err = Load(writeStack(t, "services:\n  - title: API\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard.name is required")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Stack
		wantErr string
	}{
		{"empty is valid", Stack{}, ""},
		{"rules only", Stack{InsightRules: InsightRules{EmfLogGroupName: "/emf"}}, ""},
		{"graph without dashboard", Stack{InsightRules: InsightRules{Graph: true}}, "dashboard.name"},
		{"unnamed parameter", Stack{Parameters: []Parameter{{}}}, "name is required"},
		{"duplicate parameter", Stack{Parameters: []Parameter{{Name: "A"}, {Name: "A"}}}, "duplicate parameter A"},
		{"untitled service", Stack{Dashboard: Dashboard{Name: "d"}, Services: []AlbService{{}}}, "title is required"},
		{"unsupported statistic", Stack{Dashboard: Dashboard{Name: "d"}, Services: []AlbService{{
			Title:          "API",
			CPUUtilization: &MetricOptions{Statistic: "Median"},
		}}}, `services[0].cpuUtilization: unsupported statistic "Median"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssemble_Sample(t *testing.T) {
	cfg, err := Load(writeStack(t, Sample))
	require.NoError(t, err)

	assembled, err := cfg.Assemble(nil)
	require.NoError(t, err)
	require.NotNil(t, assembled.Facade)

	// title header, service segment, rules segment
	assert.Len(t, assembled.Facade.Segments(), 3)
	assert.Len(t, assembled.Stack.InsightRules(), 6)
	assert.Len(t, assembled.Stack.QueryDefinitions(), 2)

	tmpl, err := assembled.Stack.Build()
	require.NoError(t, err)
	assert.Len(t, tmpl.ResourceNames(wetwire.DashboardType), 1)
	assert.Len(t, tmpl.ResourceNames(wetwire.InsightRuleType), 6)
	assert.Len(t, tmpl.ResourceNames(wetwire.QueryDefinitionType), 2)
	assert.Len(t, tmpl.Parameters, 3)
}

func TestAssemble_RulesOnly(t *testing.T) {
	cfg := Stack{
		Parameters: []Parameter{{Name: "Emf", Default: "/ecs/api/emf"}},
		InsightRules: InsightRules{
			EmfLogGroupName: "${Emf}",
			Disabled:        true,
			Custom: []InsightRule{{
				Name:          "bytes-per-user",
				LogGroupNames: []string{"${Emf}"},
				Keys:          []string{"$.User"},
				ValueOf:       "$.Bytes",
				AggregateOn:   "Sum",
				Filters:       []Filter{{Match: "$.Operation", In: []any{"Get", "Put"}}},
			}},
		},
	}

	assembled, err := cfg.Assemble(nil)
	require.NoError(t, err)
	assert.Nil(t, assembled.Facade)

	rules := assembled.Stack.InsightRules()
	require.Len(t, rules, 7)
	for _, r := range rules {
		assert.Equal(t, "DISABLED", r.State())
	}

	tmpl, err := assembled.Stack.Build()
	require.NoError(t, err)
	assert.Equal(t, "/ecs/api/emf", tmpl.Parameters["Emf"].Default)
	assert.Empty(t, tmpl.ResourceNames(wetwire.DashboardType))
}

func TestAssemble_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Stack
	}{
		{"missing namespace", Stack{Dashboard: Dashboard{Name: "d"}}},
		{"unknown period override", Stack{
			Dashboard:      Dashboard{Name: "d", PeriodOverride: "sometimes"},
			MetricDefaults: MetricDefaults{Namespace: "ns"},
		}},
		{"service without reference", Stack{
			Dashboard:      Dashboard{Name: "d"},
			MetricDefaults: MetricDefaults{Namespace: "ns"},
			Services:       []AlbService{{Title: "API"}},
		}},
		{"invalid custom rule", Stack{InsightRules: InsightRules{Custom: []InsightRule{{Name: "r"}}}}},
		{"invalid custom query", Stack{Queries: QueryDefinitions{Custom: []Query{{Name: "q"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Assemble(nil)
			require.Error(t, err)
			assert.True(t, metrics.IsConfigurationError(err))
		})
	}
}

func TestMetricOptions(t *testing.T) {
	var missing *MetricOptions
	assert.Nil(t, missing.options())

	opts := (&MetricOptions{Period: 5 * time.Minute, ExcludeWidget: true, Annotations: []Annotation{{Value: 1}}}).options()
	assert.Equal(t, 5*time.Minute, opts.Period)
	assert.True(t, opts.ExcludeWidget)
	assert.Equal(t, []metrics.Annotation{{Value: 1}}, opts.Annotations)
	assert.Nil(t, opts.Dimensions)

	opts = (&MetricOptions{
		Statistic:  "Maximum",
		Dimensions: []Dimension{{Name: "Stage", Value: "beta"}},
	}).options()
	assert.Equal(t, metrics.Maximum, opts.Statistic)
	assert.Equal(t, map[string]string{"Stage": "beta"}, opts.Dimensions)
}

func TestLoad_MetricOptionDimensions(t *testing.T) {
	cfg, err := Load(writeStack(t, `dashboard:
  name: api
metricDefaults:
  namespace: Api
services:
  - title: API
    pattern:
      clusterName: prod
      serviceName: api
      loadBalancerFullName: app/api/1
      targetGroupFullName: targetgroup/api/1
    cpuUtilization:
      statistic: Maximum
      dimensions:
        - name: Stage
          value: beta
`))
	require.NoError(t, err)

	assembled, err := cfg.Assemble(nil)
	require.NoError(t, err)

	var cpu metrics.Handle
	for _, w := range assembled.Facade.Dashboard().Widgets() {
		if w.Title == "CPU Utilization" {
			cpu = w.Left[0]
		}
	}
	assert.Equal(t, metrics.Maximum, cpu.Statistic)
	assert.Equal(t, "beta", cpu.Dimensions["Stage"])
}
