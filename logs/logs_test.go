package logs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-monitoring-go/dashboard"
	"github.com/lex00/wetwire-monitoring-go/metrics"
)

func TestDefaultTopCallerRules(t *testing.T) {
	rules := DefaultTopCallerRules("${EmfLogGroupName}")
	require.Len(t, rules, 6)

	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
		require.NoError(t, r.Validate(), r.Name)
		assert.Equal(t, []string{"${EmfLogGroupName}"}, r.LogGroupNames)
	}
	assert.Equal(t, []string{
		"top-callers",
		"top-callers-with-client-errors",
		"top-callers-with-server-errors",
		"top-callers-per-api",
		"top-callers-with-client-errors-per-api",
		"top-callers-with-server-errors-per-api",
	}, names)

	assert.Equal(t, []string{"$.User", "$.Operation"}, rules[5].Contribution.Keys)
	assert.Equal(t, []Filter{{Match: "$.Fault", EqualTo: 1}}, rules[5].Contribution.Filters)
}

func TestInsightRule_Body(t *testing.T) {
	rule := DefaultTopCallerRules("/ecs/api/emf")[1]

	body, err := rule.Body()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Schema": {"Name": "CloudWatchLogRule", "Version": 1},
		"LogGroupNames": ["/ecs/api/emf"],
		"LogFormat": "JSON",
		"Contribution": {"Keys": ["$.User"], "Filters": [{"Match": "$.Error", "EqualTo": 1}]},
		"AggregateOn": "Count"
	}`, string(body))
}

func TestInsightRule_BodyEmptyFilters(t *testing.T) {
	body, err := DefaultTopCallerRules("/ecs/api/emf")[0].Body()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, []any{}, decoded["Contribution"].(map[string]any)["Filters"])
}

func TestInsightRule_Validate(t *testing.T) {
	valid := InsightRule{
		Name:          "bytes-per-user",
		LogGroupNames: []string{"/ecs/api"},
		Contribution:  Contribution{Keys: []string{"$.User"}, ValueOf: "$.Bytes"},
		AggregateOn:   AggregateSum,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(r *InsightRule)
	}{
		{"missing name", func(r *InsightRule) { r.Name = "" }},
		{"no log groups", func(r *InsightRule) { r.LogGroupNames = nil }},
		{"no keys", func(r *InsightRule) { r.Contribution.Keys = nil }},
		{"too many keys", func(r *InsightRule) { r.Contribution.Keys = []string{"a", "b", "c", "d", "e"} }},
		{"sum without value", func(r *InsightRule) { r.Contribution.ValueOf = "" }},
		{"unknown aggregate", func(r *InsightRule) { r.AggregateOn = "Max" }},
		{"filter without match", func(r *InsightRule) { r.Contribution.Filters = []Filter{{EqualTo: 1}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, metrics.IsConfigurationError(err))
		})
	}
}

func TestInsightRule_State(t *testing.T) {
	assert.Equal(t, "ENABLED", InsightRule{}.State())
	assert.Equal(t, "DISABLED", InsightRule{Disabled: true}.State())
}

func TestInsightRule_RuleMetric(t *testing.T) {
	rule := DefaultTopCallerRules("/ecs/api/emf")[0]
	assert.Equal(t, "INSIGHT_RULE_METRIC('top-callers', 'UniqueContributors')", rule.MetricExpression(UniqueContributors))

	h, err := rule.RuleMetric(metrics.NewFactory(metrics.Defaults{Namespace: "api"}), MaxContributorValue, "")
	require.NoError(t, err)
	require.True(t, h.IsExpression())
	assert.Equal(t, "INSIGHT_RULE_METRIC('top-callers', 'MaxContributorValue')", h.Expression.Formula)
	assert.Equal(t, "top-callers MaxContributorValue", h.Label)
	assert.Empty(t, h.Expression.Operands)
}

func TestQueryDefinitions(t *testing.T) {
	custom := QueryDefinition{
		Name:          "ApplicationLog.Slow",
		QueryString:   "fields @timestamp | filter latency > 1000",
		LogGroupNames: []string{"/ecs/api"},
	}

	queries, err := QueryDefinitions(QueryDefinitionsProps{
		ApplicationLogGroupName: "${AppLogGroupName}",
		ServiceLogGroupName:     "/ecs/api/service",
		Custom:                  []QueryDefinition{custom},
	})
	require.NoError(t, err)
	require.Len(t, queries, 3)

	assert.Equal(t, ApplicationLogErrorsQuery, queries[0].Name)
	assert.Equal(t, []string{"${AppLogGroupName}"}, queries[0].LogGroupNames)
	assert.Contains(t, queries[0].QueryString, `filter loggingType = "ERROR"`)

	assert.Equal(t, ServiceLogFaultsQuery, queries[1].Name)
	assert.Contains(t, queries[1].QueryString, "filter Fault = 1")

	assert.Equal(t, custom, queries[2])
}

func TestQueryDefinitions_OnlyConfigured(t *testing.T) {
	queries, err := QueryDefinitions(QueryDefinitionsProps{ServiceLogGroupName: "/ecs/api/service"})
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, ServiceLogFaultsQuery, queries[0].Name)

	queries, err = QueryDefinitions(QueryDefinitionsProps{})
	require.NoError(t, err)
	assert.Empty(t, queries)
}

func TestQueryDefinitions_Errors(t *testing.T) {
	tests := []struct {
		name  string
		props QueryDefinitionsProps
	}{
		{"empty name", QueryDefinitionsProps{Custom: []QueryDefinition{{QueryString: "fields @message"}}}},
		{"empty query", QueryDefinitionsProps{Custom: []QueryDefinition{{Name: "q", QueryString: "  "}}}},
		{"duplicate builtin", QueryDefinitionsProps{
			ApplicationLogGroupName: "/ecs/api",
			Custom:                  []QueryDefinition{{Name: ApplicationLogErrorsQuery, QueryString: "fields @message"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := QueryDefinitions(tt.props)
			require.Error(t, err)
			assert.True(t, metrics.IsConfigurationError(err))
		})
	}
}

func TestInsightRulesSegment(t *testing.T) {
	factory := metrics.NewFactory(metrics.Defaults{Namespace: "api"})
	seg, err := NewInsightRulesSegment(factory, "Top callers", DefaultTopCallerRules("/ecs/api/emf")[:3])
	require.NoError(t, err)

	widgets := seg.BuildWidgets()
	require.Len(t, widgets, 4)
	assert.Equal(t, "## Top callers", widgets[0].Markdown)
	for _, w := range widgets[1:] {
		assert.Equal(t, dashboard.KindGraph, w.Kind)
		assert.Equal(t, dashboard.ThirdWidth, w.Width)
		require.Len(t, w.Left, 1)
		assert.True(t, w.Left[0].IsExpression())
	}
	assert.Equal(t, "top-callers-with-client-errors", widgets[2].Title)

	_, err = NewInsightRulesSegment(factory, "bad", []InsightRule{{Name: "x"}})
	require.Error(t, err)
}
