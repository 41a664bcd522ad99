package template

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-monitoring-go"
	"github.com/lex00/wetwire-monitoring-go/intrinsics"
)

type testRule struct {
	RuleName  string `json:"RuleName"`
	RuleState string `json:"RuleState"`
	RuleBody  any    `json:"RuleBody"`
}

func (testRule) ResourceType() string { return wetwire.InsightRuleType }

type testDashboard struct {
	DashboardName string `json:"DashboardName,omitempty"`
	DashboardBody any    `json:"DashboardBody"`
}

func (testDashboard) ResourceType() string { return wetwire.DashboardType }

func indexOf(slice []string, item string) int {
	for i, s := range slice {
		if s == item {
			return i
		}
	}
	return -1
}

func TestBuilder_Build_SimpleResource(t *testing.T) {
	builder := NewBuilder()
	require.NoError(t, builder.AddResource("Dashboard", testDashboard{
		DashboardName: "api",
		DashboardBody: intrinsics.Sub{String: `{"widgets":[]}`},
	}))

	template, err := builder.Build()
	require.NoError(t, err)

	assert.Equal(t, "2010-09-09", template.AWSTemplateFormatVersion)
	require.Len(t, template.Resources, 1)

	dash := template.Resources["Dashboard"]
	assert.Equal(t, "AWS::CloudWatch::Dashboard", dash.Type)
	assert.Equal(t, "api", dash.Properties["DashboardName"])
	assert.Equal(t, map[string]any{"Fn::Sub": `{"widgets":[]}`}, dash.Properties["DashboardBody"])
	assert.Nil(t, dash.DependsOn)
}

func TestBuilder_Build_WithDependencies(t *testing.T) {
	builder := NewBuilder()
	require.NoError(t, builder.AddResource("Dashboard", testDashboard{DashboardBody: "{}"}, "RuleB", "RuleA"))
	require.NoError(t, builder.AddResource("RuleA", testRule{RuleName: "a", RuleState: "ENABLED", RuleBody: "{}"}))
	require.NoError(t, builder.AddResource("RuleB", testRule{RuleName: "b", RuleState: "DISABLED", RuleBody: "{}"}))

	template, err := builder.Build()
	require.NoError(t, err)

	assert.Len(t, template.Resources, 3)
	assert.Equal(t, []string{"RuleA", "RuleB"}, template.Resources["Dashboard"].DependsOn)
	assert.Equal(t, "DISABLED", template.Resources["RuleB"].Properties["RuleState"])
}

func TestBuilder_TopologicalSort(t *testing.T) {
	builder := NewBuilder()
	require.NoError(t, builder.AddResource("C", testRule{RuleName: "c"}, "B"))
	require.NoError(t, builder.AddResource("B", testRule{RuleName: "b"}, "A"))
	require.NoError(t, builder.AddResource("A", testRule{RuleName: "a"}))

	order, err := builder.topologicalSort()
	require.NoError(t, err)

	assert.Less(t, indexOf(order, "A"), indexOf(order, "B"))
	assert.Less(t, indexOf(order, "B"), indexOf(order, "C"))
}

func TestBuilder_DetectCycle(t *testing.T) {
	builder := NewBuilder()
	require.NoError(t, builder.AddResource("A", testRule{RuleName: "a"}, "B"))
	require.NoError(t, builder.AddResource("B", testRule{RuleName: "b"}, "C"))
	require.NoError(t, builder.AddResource("C", testRule{RuleName: "c"}, "A"))

	_, err := builder.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency detected")
	assert.Contains(t, err.Error(), "A → B → C → A")
}

func TestBuilder_UnknownDependency(t *testing.T) {
	builder := NewBuilder()
	require.NoError(t, builder.AddResource("Dashboard", testDashboard{}, "Missing"))

	_, err := builder.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown resource Missing")
}

func TestBuilder_DuplicateNames(t *testing.T) {
	builder := NewBuilder()
	require.NoError(t, builder.AddResource("Shared", testRule{}))

	assert.Error(t, builder.AddResource("Shared", testRule{}))
	assert.Error(t, builder.AddParameter("Shared", wetwire.Parameter{}))
	assert.Error(t, builder.AddResource("", testRule{}))
	assert.Error(t, builder.AddResource("Nil", nil))

	require.NoError(t, builder.AddOutput("Out", wetwire.Output{Value: "x"}))
	assert.Error(t, builder.AddOutput("Out", wetwire.Output{Value: "y"}))
	assert.Error(t, builder.AddOutput("", wetwire.Output{}))
}

func TestBuilder_Build_WithParametersAndOutputs(t *testing.T) {
	builder := NewBuilder()
	builder.SetDescription("api monitoring")
	require.NoError(t, builder.AddParameter("AppLogGroupName", wetwire.Parameter{Description: "application log group"}))
	require.NoError(t, builder.AddResource("Dashboard", testDashboard{DashboardName: "api"}))
	require.NoError(t, builder.AddOutput("DashboardName", wetwire.Output{
		Description: "dashboard name",
		Value:       intrinsics.Ref{LogicalName: "Dashboard"},
	}))

	assert.True(t, builder.HasParameter("AppLogGroupName"))
	assert.True(t, builder.HasResource("Dashboard"))
	assert.False(t, builder.HasResource("AppLogGroupName"))

	template, err := builder.Build()
	require.NoError(t, err)

	assert.Equal(t, "api monitoring", template.Description)
	assert.Equal(t, "String", template.Parameters["AppLogGroupName"].Type)
	assert.Equal(t, "dashboard name", template.Outputs["DashboardName"].Description)
}

func TestToJSON(t *testing.T) {
	builder := NewBuilder()
	require.NoError(t, builder.AddResource("Rule", testRule{RuleName: "top-callers", RuleState: "ENABLED", RuleBody: "{}"}))
	template, err := builder.Build()
	require.NoError(t, err)

	data, err := ToJSON(template)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "2010-09-09", parsed["AWSTemplateFormatVersion"])
	assert.Contains(t, string(data), "\n  \"Resources\"")
	assert.NotContains(t, string(data), "Parameters")
}

func TestToYAML(t *testing.T) {
	builder := NewBuilder()
	require.NoError(t, builder.AddResource("Rule", testRule{RuleName: "top-callers", RuleState: "ENABLED", RuleBody: "{}"}))
	template, err := builder.Build()
	require.NoError(t, err)

	data, err := ToYAML(template)
	require.NoError(t, err)

	var parsed wetwire.Template
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, "AWS::CloudWatch::InsightRule", parsed.Resources["Rule"].Type)
	assert.Equal(t, "top-callers", parsed.Resources["Rule"].Properties["RuleName"])
}
