// Package linter provides lint rules for monitoring stacks.
//
// Rules inspect the widgets of the dashboard and the insight rules of a
// stack for patterns that build fine but produce a poor or misleading
// dashboard.
//
// Rules:
//
//	WMN001: Use ${AWS::Region} instead of a hardcoded metric region
//	WMN002: Give every graph and single value widget a title
//	WMN003: Split widgets that plot too many metrics
//	WMN004: Do not graph disabled insight rules
//	WMN005: Graphed insight rules should be defined by the stack
package linter

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/lex00/wetwire-monitoring-go/dashboard"
	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// Rule is the interface for lint rules.
type Rule interface {
	ID() string
	Description() string
	Check(subject Subject) []Issue
}

// AllRules returns every rule with its default settings.
func AllRules() []Rule {
	return []Rule{
		HardcodedRegion{},
		UntitledWidget{},
		CrowdedWidget{MaxMetrics: DefaultMaxMetrics},
		DisabledRuleGraphed{},
		UndefinedRuleGraphed{},
	}
}

// HardcodedRegion detects metrics pinned to a literal region.
//
// Detects: Region: "us-east-1"
// Suggests: ${AWS::Region}
type HardcodedRegion struct{}

var regionPattern = regexp.MustCompile(`^[a-z]{2}(-gov|-iso[a-z]*)?-[a-z]+-\d$`)

func (r HardcodedRegion) ID() string { return "WMN001" }
func (r HardcodedRegion) Description() string {
	return "Use ${AWS::Region} instead of a hardcoded metric region"
}

func (r HardcodedRegion) Check(subject Subject) []Issue {
	var issues []Issue
	for i, w := range subject.Widgets {
		seen := make(map[string]bool)
		eachMetric(w.Metrics(), func(h metrics.Handle) {
			if !regionPattern.MatchString(h.Region) || seen[h.Region] {
				return
			}
			seen[h.Region] = true
			issues = append(issues, Issue{
				Rule:       r.ID(),
				Message:    fmt.Sprintf("metric %s uses hardcoded region %q", handleName(h), h.Region),
				Suggestion: "${AWS::Region}",
				Location:   widgetLocation(i),
				Severity:   SeverityWarning,
			})
		})
	}
	return issues
}

// UntitledWidget detects metric widgets without a title.
type UntitledWidget struct{}

func (r UntitledWidget) ID() string { return "WMN002" }
func (r UntitledWidget) Description() string {
	return "Give every graph and single value widget a title"
}

func (r UntitledWidget) Check(subject Subject) []Issue {
	var issues []Issue
	for i, w := range subject.Widgets {
		if w.Kind == dashboard.KindText || w.Title != "" {
			continue
		}
		issues = append(issues, Issue{
			Rule:     r.ID(),
			Message:  fmt.Sprintf("%s widget has no title", w.Kind),
			Location: widgetLocation(i),
			Severity: SeverityWarning,
		})
	}
	return issues
}

// DefaultMaxMetrics is the default limit of the CrowdedWidget rule.
const DefaultMaxMetrics = 10

// CrowdedWidget detects widgets plotting more metrics than can be told apart.
type CrowdedWidget struct {
	MaxMetrics int
}

func (r CrowdedWidget) ID() string { return "WMN003" }
func (r CrowdedWidget) Description() string {
	return "Split widgets that plot too many metrics"
}

func (r CrowdedWidget) Check(subject Subject) []Issue {
	var issues []Issue
	for i, w := range subject.Widgets {
		if n := len(w.Metrics()); n > r.MaxMetrics {
			issues = append(issues, Issue{
				Rule:     r.ID(),
				Message:  fmt.Sprintf("widget %q plots %d metrics, more than %d", w.Title, n, r.MaxMetrics),
				Location: widgetLocation(i),
				Severity: SeverityInfo,
			})
		}
	}
	return issues
}

var insightRuleMetric = regexp.MustCompile(`INSIGHT_RULE_METRIC\(\s*'([^']+)'`)

// DisabledRuleGraphed detects graphs of rules that are created disabled and
// therefore never have data.
type DisabledRuleGraphed struct{}

func (r DisabledRuleGraphed) ID() string { return "WMN004" }
func (r DisabledRuleGraphed) Description() string {
	return "Do not graph disabled insight rules"
}

func (r DisabledRuleGraphed) Check(subject Subject) []Issue {
	disabled := make(map[string]bool)
	for _, rule := range subject.Rules {
		if rule.Disabled {
			disabled[rule.Name] = true
		}
	}
	return checkGraphedRules(subject, func(name string, i int) *Issue {
		if !disabled[name] {
			return nil
		}
		return &Issue{
			Rule:       r.ID(),
			Message:    fmt.Sprintf("insight rule %q is disabled; the widget will stay empty", name),
			Suggestion: "enable the rule or remove the widget",
			Location:   widgetLocation(i),
			Severity:   SeverityWarning,
		}
	})
}

// UndefinedRuleGraphed detects graphs of rules the stack does not define.
// The rule may live in another stack, so this is informational.
type UndefinedRuleGraphed struct{}

func (r UndefinedRuleGraphed) ID() string { return "WMN005" }
func (r UndefinedRuleGraphed) Description() string {
	return "Graphed insight rules should be defined by the stack"
}

func (r UndefinedRuleGraphed) Check(subject Subject) []Issue {
	defined := make(map[string]bool, len(subject.Rules))
	for _, rule := range subject.Rules {
		defined[rule.Name] = true
	}
	return checkGraphedRules(subject, func(name string, i int) *Issue {
		if defined[name] {
			return nil
		}
		return &Issue{
			Rule:     r.ID(),
			Message:  fmt.Sprintf("insight rule %q is not defined in this stack", name),
			Location: widgetLocation(i),
			Severity: SeverityInfo,
		}
	})
}

// checkGraphedRules calls check once per rule name graphed by each widget.
func checkGraphedRules(subject Subject, check func(name string, widget int) *Issue) []Issue {
	var issues []Issue
	for i, w := range subject.Widgets {
		seen := make(map[string]bool)
		eachMetric(w.Metrics(), func(h metrics.Handle) {
			if !h.IsExpression() {
				return
			}
			for _, m := range insightRuleMetric.FindAllStringSubmatch(h.Expression.Formula, -1) {
				if seen[m[1]] {
					continue
				}
				seen[m[1]] = true
				if issue := check(m[1], i); issue != nil {
					issues = append(issues, *issue)
				}
			}
		})
	}
	return issues
}

// eachMetric visits handles and the operands of expressions, depth first.
func eachMetric(handles []metrics.Handle, visit func(metrics.Handle)) {
	for _, h := range handles {
		visit(h)
		if !h.IsExpression() {
			continue
		}
		ids := make([]string, 0, len(h.Expression.Operands))
		for id := range h.Expression.Operands {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			eachMetric([]metrics.Handle{h.Expression.Operands[id]}, visit)
		}
	}
}

func handleName(h metrics.Handle) string {
	if h.IsExpression() {
		return metrics.Resolve(h.Label, h.Expression.Formula)
	}
	return h.Namespace + "/" + h.Name
}

func widgetLocation(i int) string {
	return fmt.Sprintf("widgets[%d]", i)
}
