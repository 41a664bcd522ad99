package linter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-monitoring-go/dashboard"
	"github.com/lex00/wetwire-monitoring-go/logs"
	"github.com/lex00/wetwire-monitoring-go/metrics"
	"github.com/lex00/wetwire-monitoring-go/stack"
)

func metric(t *testing.T, name string, opts ...metrics.MetricOption) metrics.Handle {
	t.Helper()
	h, err := metrics.NewFactory(metrics.Defaults{Namespace: "api"}).CreateMetric(name, metrics.Sum, opts...)
	require.NoError(t, err)
	return h
}

func graph(title string, handles ...metrics.Handle) dashboard.Widget {
	return dashboard.NewGraphWidget(dashboard.GraphProps{Title: title, Left: handles})
}

func ruleWidget(t *testing.T, rule logs.InsightRule) dashboard.Widget {
	t.Helper()
	h, err := rule.RuleMetric(metrics.NewFactory(metrics.Defaults{Namespace: "api"}), logs.UniqueContributors, "Callers")
	require.NoError(t, err)
	return graph(rule.Name, h)
}

func TestHardcodedRegion(t *testing.T) {
	subject := Subject{Widgets: []dashboard.Widget{
		dashboard.NewHeaderWidget("API", dashboard.HeaderLarge),
		graph("Requests",
			metric(t, "Requests", metrics.WithRegion("us-east-1")),
			metric(t, "Faults", metrics.WithRegion("us-east-1")),
			metric(t, "Errors", metrics.WithRegion("${AWS::Region}")),
		),
		graph("Latency", metric(t, "Latency", metrics.WithRegion("us-gov-west-1"))),
	}}

	issues := HardcodedRegion{}.Check(subject)

	require.Len(t, issues, 2)
	assert.Equal(t, "widgets[1]", issues[0].Location)
	assert.Contains(t, issues[0].Message, `"us-east-1"`)
	assert.Equal(t, "${AWS::Region}", issues[0].Suggestion)
	assert.Equal(t, "widgets[2]", issues[1].Location)
}

func TestHardcodedRegion_Operands(t *testing.T) {
	faults := metric(t, "Faults", metrics.WithRegion("eu-west-1"))
	requests := metric(t, "Requests")
	rate, err := metrics.NewFactory(metrics.Defaults{Namespace: "api"}).CreateMetricMath(
		"faults / requests", map[string]metrics.Handle{"faults": faults, "requests": requests}, "Fault rate")
	require.NoError(t, err)

	issues := HardcodedRegion{}.Check(Subject{Widgets: []dashboard.Widget{graph("Fault rate", rate)}})

	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "api/Faults")
}

func TestUntitledWidget(t *testing.T) {
	subject := Subject{Widgets: []dashboard.Widget{
		dashboard.NewHeaderWidget("API", dashboard.HeaderLarge),
		graph("", metric(t, "Requests")),
		graph("Faults", metric(t, "Faults")),
	}}

	issues := UntitledWidget{}.Check(subject)

	require.Len(t, issues, 1)
	assert.Equal(t, "WMN002", issues[0].Rule)
	assert.Equal(t, "widgets[1]", issues[0].Location)
}

func TestCrowdedWidget(t *testing.T) {
	var handles []metrics.Handle
	for _, name := range []string{"A", "B", "C", "D"} {
		handles = append(handles, metric(t, name))
	}
	subject := Subject{Widgets: []dashboard.Widget{graph("Many", handles...), graph("Few", handles[0])}}

	tests := []struct {
		name       string
		maxMetrics int
		want       int
	}{
		{"default limit", DefaultMaxMetrics, 0},
		{"low limit", 3, 1},
		{"exact limit", 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := CrowdedWidget{MaxMetrics: tt.maxMetrics}.Check(subject)
			assert.Len(t, issues, tt.want)
		})
	}
}

func TestGraphedRules(t *testing.T) {
	rules := logs.DefaultTopCallerRules("/ecs/api/emf")
	enabled, disabled := rules[0], rules[1]
	disabled.Disabled = true
	undefined := rules[2]

	subject := Subject{
		Widgets: []dashboard.Widget{
			ruleWidget(t, enabled),
			ruleWidget(t, disabled),
			ruleWidget(t, undefined),
		},
		Rules: []logs.InsightRule{enabled, disabled},
	}

	issues := DisabledRuleGraphed{}.Check(subject)
	require.Len(t, issues, 1)
	assert.Equal(t, "widgets[1]", issues[0].Location)
	assert.Contains(t, issues[0].Message, disabled.Name)

	issues = UndefinedRuleGraphed{}.Check(subject)
	require.Len(t, issues, 1)
	assert.Equal(t, "widgets[2]", issues[0].Location)
	assert.Equal(t, SeverityInfo, issues[0].Severity)
}

func TestLint(t *testing.T) {
	subject := Subject{Widgets: []dashboard.Widget{
		graph("", metric(t, "Requests", metrics.WithRegion("us-east-1"))),
	}}

	result := Lint(subject, Options{})
	assert.True(t, result.Success, "warnings do not fail the lint")
	assert.Len(t, result.Issues, 2)

	result = Lint(subject, Options{EnabledRules: []string{"WMN002"}})
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "WMN002", result.Issues[0].Rule)

	result = Lint(Subject{Widgets: []dashboard.Widget{graph("Pair", metric(t, "A"), metric(t, "B"))}}, Options{MaxMetrics: 1})
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "WMN003", result.Issues[0].Rule)
}

func TestIssue_String(t *testing.T) {
	issue := Issue{Rule: "WMN002", Message: "graph widget has no title", Location: "widgets[4]"}
	assert.Equal(t, "WMN002: graph widget has no title (at widgets[4])", issue.String())

	issue.Location = ""
	assert.Equal(t, "WMN002: graph widget has no title", issue.String())
}

func TestSubjectOf(t *testing.T) {
	rules := logs.DefaultTopCallerRules("/ecs/api/emf")
	s := stack.New(stack.Props{})
	require.NoError(t, s.AddInsightRules(rules...))

	subject := SubjectOf(s)
	assert.Len(t, subject.Rules, len(rules))
	assert.Empty(t, subject.Widgets)

	d, err := dashboard.New(dashboard.Props{Name: "api"})
	require.NoError(t, err)
	d.AddWidgets(graph("Requests", metric(t, "Requests")))
	require.NoError(t, s.SetDashboard(d))

	assert.Len(t, SubjectOf(s).Widgets, 1)
}
