package stack

import (
	"strings"

	wetwire "github.com/lex00/wetwire-monitoring-go"
	"github.com/lex00/wetwire-monitoring-go/intrinsics"
)

// DashboardResource is an AWS::CloudWatch::Dashboard.
type DashboardResource struct {
	DashboardName string         `json:"DashboardName,omitempty"`
	DashboardBody intrinsics.Sub `json:"DashboardBody"`
}

// ResourceType implements wetwire.Resource.
func (DashboardResource) ResourceType() string { return wetwire.DashboardType }

// InsightRuleResource is an AWS::CloudWatch::InsightRule.
type InsightRuleResource struct {
	RuleName  string         `json:"RuleName"`
	RuleState string         `json:"RuleState"`
	RuleBody  intrinsics.Sub `json:"RuleBody"`
}

// ResourceType implements wetwire.Resource.
func (InsightRuleResource) ResourceType() string { return wetwire.InsightRuleType }

// QueryDefinitionResource is an AWS::Logs::QueryDefinition.
type QueryDefinitionResource struct {
	Name          string `json:"Name"`
	QueryString   string `json:"QueryString"`
	LogGroupNames []any  `json:"LogGroupNames,omitempty"`
}

// ResourceType implements wetwire.Resource.
func (QueryDefinitionResource) ResourceType() string { return wetwire.QueryDefinitionType }

// subIfPlaceholder wraps names that contain "${" in Fn::Sub.
func subIfPlaceholder(names []string) []any {
	out := make([]any, len(names))
	for i, name := range names {
		if strings.Contains(name, "${") {
			out[i] = intrinsics.Sub{String: name}
			continue
		}
		out[i] = name
	}
	return out
}
