// Package logs provides CloudWatch Contributor Insights rules and Logs
// Insights query definitions over the log groups of a monitored service.
package logs

import (
	"encoding/json"
	"fmt"

	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// AggregateOn selects how contributors are ranked.
type AggregateOn string

const (
	// AggregateCount ranks contributors by number of matching log events.
	AggregateCount AggregateOn = "Count"
	// AggregateSum ranks contributors by the sum of Contribution.ValueOf.
	AggregateSum AggregateOn = "Sum"
)

// Metrics exposed by INSIGHT_RULE_METRIC.
const (
	UniqueContributors  = "UniqueContributors"
	MaxContributorValue = "MaxContributorValue"
	SampleCount         = "SampleCount"
	Sum                 = "Sum"
	Minimum             = "Minimum"
	Maximum             = "Maximum"
	Average             = "Average"
)

// Limits of the Contributor Insights rule syntax.
const (
	MaxContributionKeys    = 4
	MaxContributionFilters = 4
)

// Filter narrows the log events a rule considers. Match is a JSON path into
// the log event; exactly one condition should be set.
type Filter struct {
	Match      string   `json:"Match"`
	EqualTo    any      `json:"EqualTo,omitempty"`
	In         []any    `json:"In,omitempty"`
	NotIn      []any    `json:"NotIn,omitempty"`
	StartsWith []string `json:"StartsWith,omitempty"`
	IsPresent  *bool    `json:"IsPresent,omitempty"`
}

// Contribution defines the keys contributors are grouped by.
type Contribution struct {
	Keys    []string `json:"Keys"`
	ValueOf string   `json:"ValueOf,omitempty"`
	Filters []Filter `json:"Filters"`
}

// InsightRule is a Contributor Insights rule over JSON log events.
type InsightRule struct {
	Name          string
	LogGroupNames []string
	Contribution  Contribution
	// AggregateOn defaults to AggregateCount.
	AggregateOn AggregateOn
	Disabled    bool
}

// Validate checks the rule against the rule syntax limits.
func (r InsightRule) Validate() error {
	component := "insight rule"
	if r.Name != "" {
		component = fmt.Sprintf("insight rule %q", r.Name)
	}
	switch {
	case r.Name == "":
		return metrics.NewConfigurationError(component, "rule name is required")
	case len(r.LogGroupNames) == 0:
		return metrics.NewConfigurationError(component, "at least one log group is required")
	case len(r.Contribution.Keys) == 0 || len(r.Contribution.Keys) > MaxContributionKeys:
		return metrics.NewConfigurationError(component, "contribution needs between 1 and %d keys, got %d", MaxContributionKeys, len(r.Contribution.Keys))
	case len(r.Contribution.Filters) > MaxContributionFilters:
		return metrics.NewConfigurationError(component, "at most %d filters are allowed, got %d", MaxContributionFilters, len(r.Contribution.Filters))
	}

	agg := r.aggregate()
	if agg != AggregateCount && agg != AggregateSum {
		return metrics.NewConfigurationError(component, "unknown aggregation %q", r.AggregateOn)
	}
	if agg == AggregateSum && r.Contribution.ValueOf == "" {
		return metrics.NewConfigurationError(component, "aggregation Sum requires Contribution.ValueOf")
	}
	for i, f := range r.Contribution.Filters {
		if f.Match == "" {
			return metrics.NewConfigurationError(component, "filter %d has no Match path", i)
		}
	}
	return nil
}

// State returns the CloudFormation RuleState.
func (r InsightRule) State() string {
	if r.Disabled {
		return "DISABLED"
	}
	return "ENABLED"
}

func (r InsightRule) aggregate() AggregateOn {
	return metrics.Resolve(r.AggregateOn, AggregateCount)
}

type ruleSchema struct {
	Name    string `json:"Name"`
	Version int    `json:"Version"`
}

type ruleBody struct {
	Schema        ruleSchema   `json:"Schema"`
	LogGroupNames []string     `json:"LogGroupNames"`
	LogFormat     string       `json:"LogFormat"`
	Contribution  Contribution `json:"Contribution"`
	AggregateOn   AggregateOn  `json:"AggregateOn"`
}

// Body renders the rule definition JSON.
func (r InsightRule) Body() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	contribution := r.Contribution
	if contribution.Filters == nil {
		contribution.Filters = []Filter{}
	}
	return json.Marshal(ruleBody{
		Schema:        ruleSchema{Name: "CloudWatchLogRule", Version: 1},
		LogGroupNames: r.LogGroupNames,
		LogFormat:     "JSON",
		Contribution:  contribution,
		AggregateOn:   r.aggregate(),
	})
}

// MetricExpression returns the metric math expression reading metricName
// (e.g. UniqueContributors) from the rule.
func (r InsightRule) MetricExpression(metricName string) string {
	return fmt.Sprintf("INSIGHT_RULE_METRIC('%s', '%s')", r.Name, metricName)
}

// RuleMetric returns a metric math handle reading metricName from the rule.
func (r InsightRule) RuleMetric(factory *metrics.Factory, metricName, label string, opts ...metrics.MathOption) (metrics.Handle, error) {
	if r.Name == "" {
		return metrics.Handle{}, metrics.NewConfigurationError("insight rule", "rule name is required")
	}
	return factory.CreateMetricMath(r.MetricExpression(metricName), nil, metrics.Resolve(label, r.Name+" "+metricName), opts...)
}

// DefaultTopCallerRules returns the top callers rules over an embedded
// metric format log group whose events carry User, Operation, Error and
// Fault fields.
func DefaultTopCallerRules(emfLogGroupName string) []InsightRule {
	groups := []string{emfLogGroupName}
	clientErrors := []Filter{{Match: "$.Error", EqualTo: 1}}
	serverErrors := []Filter{{Match: "$.Fault", EqualTo: 1}}
	byUser := []string{"$.User"}
	byUserAndOperation := []string{"$.User", "$.Operation"}

	rule := func(name string, keys []string, filters []Filter) InsightRule {
		return InsightRule{
			Name:          name,
			LogGroupNames: groups,
			Contribution:  Contribution{Keys: keys, Filters: filters},
		}
	}

	return []InsightRule{
		rule("top-callers", byUser, nil),
		rule("top-callers-with-client-errors", byUser, clientErrors),
		rule("top-callers-with-server-errors", byUser, serverErrors),
		rule("top-callers-per-api", byUserAndOperation, nil),
		rule("top-callers-with-client-errors-per-api", byUserAndOperation, clientErrors),
		rule("top-callers-with-server-errors-per-api", byUserAndOperation, serverErrors),
	}
}
