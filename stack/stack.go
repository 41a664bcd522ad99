// Package stack assembles a monitoring dashboard, Contributor Insights rules
// and Logs Insights query definitions into one CloudFormation template.
//
// Dashboard and rule bodies are wrapped in Fn::Sub so that resource names
// may be placeholders such as ${AppLogGroupName} or
// ${MyAlb.LoadBalancerFullName}.
package stack

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-monitoring-go"
	"github.com/lex00/wetwire-monitoring-go/dashboard"
	"github.com/lex00/wetwire-monitoring-go/internal/serialize"
	"github.com/lex00/wetwire-monitoring-go/internal/template"
	"github.com/lex00/wetwire-monitoring-go/intrinsics"
	"github.com/lex00/wetwire-monitoring-go/logs"
	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// Logical IDs of the fixed stack members.
const (
	DashboardLogicalID       = "Dashboard"
	DashboardNameOutput      = "DashboardName"
	insightRuleLogicalPrefix = "InsightRule"
	queryLogicalPrefix       = "Query"
)

// placeholderPattern matches Fn::Sub variables; "${!" escapes are excluded.
var placeholderPattern = regexp.MustCompile(`\$\{([^!}][^}]*)\}`)

// pseudoParameters may be used in Fn::Sub strings without being declared.
var pseudoParameters = map[string]bool{
	intrinsics.AWS_ACCOUNT_ID.LogicalName: true,
	intrinsics.AWS_PARTITION.LogicalName:  true,
	intrinsics.AWS_REGION.LogicalName:     true,
	intrinsics.AWS_STACK_ID.LogicalName:   true,
	intrinsics.AWS_STACK_NAME.LogicalName: true,
	intrinsics.AWS_URL_SUFFIX.LogicalName: true,
}

// Props configure a Stack.
type Props struct {
	Description string
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Stack collects the members of a monitoring stack. A Stack is not safe for
// concurrent use.
type Stack struct {
	description string
	dashboard   *dashboard.Dashboard
	rules       []logs.InsightRule
	queries     []logs.QueryDefinition
	paramNames  []string
	params      map[string]wetwire.Parameter
	logger      *zap.Logger
}

// New creates an empty stack.
func New(props Props) *Stack {
	logger := props.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stack{
		description: props.Description,
		params:      make(map[string]wetwire.Parameter),
		logger:      logger,
	}
}

// SetDashboard sets the dashboard of the stack. A stack has at most one.
func (s *Stack) SetDashboard(d *dashboard.Dashboard) error {
	if s.dashboard != nil {
		return metrics.NewConfigurationError("stack", "dashboard %q is already set", s.dashboard.Name())
	}
	s.dashboard = d
	return nil
}

// Dashboard returns the dashboard, or nil when none was set.
func (s *Stack) Dashboard() *dashboard.Dashboard {
	return s.dashboard
}

// AddInsightRules validates and adds Contributor Insights rules. Rule names
// must be unique within the stack.
func (s *Stack) AddInsightRules(rules ...logs.InsightRule) error {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
		for _, existing := range s.rules {
			if existing.Name == r.Name {
				return metrics.NewConfigurationError("stack", "duplicate insight rule %q", r.Name)
			}
		}
		s.rules = append(s.rules, r)
	}
	return nil
}

// AddQueryDefinitions validates and adds Logs Insights query definitions.
func (s *Stack) AddQueryDefinitions(queries ...logs.QueryDefinition) error {
	for _, q := range queries {
		if err := q.Validate(); err != nil {
			return err
		}
		for _, existing := range s.queries {
			if existing.Name == q.Name {
				return metrics.NewConfigurationError("stack", "duplicate query definition %q", q.Name)
			}
		}
		s.queries = append(s.queries, q)
	}
	return nil
}

// AddParameter declares a template parameter, typically a log group name
// referenced as ${Name} by rules and queries.
func (s *Stack) AddParameter(name string, param wetwire.Parameter) error {
	if name == "" {
		return metrics.NewConfigurationError("stack", "parameter name is required")
	}
	if _, ok := s.params[name]; ok {
		return metrics.NewConfigurationError("stack", "duplicate parameter %q", name)
	}
	s.params[name] = param
	s.paramNames = append(s.paramNames, name)
	return nil
}

// InsightRules returns the added rules in order.
func (s *Stack) InsightRules() []logs.InsightRule {
	return append([]logs.InsightRule(nil), s.rules...)
}

// QueryDefinitions returns the added query definitions in order.
func (s *Stack) QueryDefinitions() []logs.QueryDefinition {
	return append([]logs.QueryDefinition(nil), s.queries...)
}

// InsightRuleLogicalID returns the logical ID of the rule named name.
func InsightRuleLogicalID(name string) string {
	return serialize.LogicalID(insightRuleLogicalPrefix, name)
}

// QueryLogicalID returns the logical ID of the query definition named name.
func QueryLogicalID(name string) string {
	return serialize.LogicalID(queryLogicalPrefix, name)
}

// Build renders the stack into a CloudFormation template.
func (s *Stack) Build() (*wetwire.Template, error) {
	if s.dashboard == nil && len(s.rules) == 0 && len(s.queries) == 0 {
		return nil, metrics.NewConfigurationError("stack", "nothing to build: no dashboard, insight rules or query definitions")
	}

	b := template.NewBuilder()
	b.SetDescription(s.description)

	for _, name := range s.paramNames {
		if err := b.AddParameter(name, s.params[name]); err != nil {
			return nil, fmt.Errorf("adding parameter %s: %w", name, err)
		}
	}

	var ruleIDs []string
	for _, r := range s.rules {
		id := InsightRuleLogicalID(r.Name)
		body, err := r.Body()
		if err != nil {
			return nil, err
		}
		if err := b.AddResource(id, InsightRuleResource{
			RuleName:  r.Name,
			RuleState: r.State(),
			RuleBody:  intrinsics.Sub{String: string(body)},
		}); err != nil {
			return nil, fmt.Errorf("adding insight rule %q: %w", r.Name, err)
		}
		ruleIDs = append(ruleIDs, id)
	}

	for _, q := range s.queries {
		id := QueryLogicalID(q.Name)
		if err := b.AddResource(id, QueryDefinitionResource{
			Name:          q.Name,
			QueryString:   q.QueryString,
			LogGroupNames: subIfPlaceholder(q.LogGroupNames),
		}); err != nil {
			return nil, fmt.Errorf("adding query definition %q: %w", q.Name, err)
		}
	}

	if s.dashboard != nil {
		if err := s.dashboard.Validate(); err != nil {
			return nil, err
		}
		body, err := s.dashboard.Body()
		if err != nil {
			return nil, fmt.Errorf("rendering dashboard %q: %w", s.dashboard.Name(), err)
		}
		// Widgets may read rule metrics, which only exist once the rules do.
		if err := b.AddResource(DashboardLogicalID, DashboardResource{
			DashboardName: s.dashboard.Name(),
			DashboardBody: intrinsics.Sub{String: string(body)},
		}, ruleIDs...); err != nil {
			return nil, fmt.Errorf("adding dashboard: %w", err)
		}
		if err := b.AddOutput(DashboardNameOutput, wetwire.Output{
			Description: "Name of the monitoring dashboard",
			Value:       intrinsics.Ref{LogicalName: DashboardLogicalID},
		}); err != nil {
			return nil, err
		}
	}

	tmpl, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := checkPlaceholders(tmpl); err != nil {
		return nil, err
	}

	s.logger.Debug("built stack",
		zap.Int("resources", len(tmpl.Resources)),
		zap.Int("parameters", len(tmpl.Parameters)))
	return tmpl, nil
}

// checkPlaceholders verifies that every undotted ${Name} in an Fn::Sub
// string names a parameter, a resource or a pseudo parameter. Dotted
// placeholders (${Res.Attr}) may point outside the template and are not
// checked.
func checkPlaceholders(tmpl *wetwire.Template) error {
	names := make([]string, 0, len(tmpl.Resources))
	for name := range tmpl.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, sub := range subStrings(tmpl.Resources[name].Properties) {
			for _, m := range placeholderPattern.FindAllStringSubmatch(sub, -1) {
				v := m[1]
				if pseudoParameters[v] || strings.Contains(v, ".") {
					continue
				}
				if _, ok := tmpl.Parameters[v]; ok {
					continue
				}
				if _, ok := tmpl.Resources[v]; ok {
					continue
				}
				return metrics.NewConfigurationError("stack", "resource %s references undefined placeholder ${%s}", name, v)
			}
		}
	}
	return nil
}

// subStrings collects the string arguments of every Fn::Sub in v.
func subStrings(v any) []string {
	var out []string
	switch t := v.(type) {
	case map[string]any:
		if s, ok := t["Fn::Sub"].(string); ok {
			out = append(out, s)
		}
		for _, child := range t {
			out = append(out, subStrings(child)...)
		}
	case []any:
		for _, child := range t {
			out = append(out, subStrings(child)...)
		}
	}
	return out
}
