package linter

import (
	"fmt"

	"github.com/lex00/wetwire-monitoring-go/dashboard"
	"github.com/lex00/wetwire-monitoring-go/logs"
	"github.com/lex00/wetwire-monitoring-go/stack"
)

// Severity of an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a single finding of a rule.
type Issue struct {
	Rule       string
	Message    string
	Suggestion string
	// Location is the path of the offending element, e.g. "widgets[3]".
	Location string
	Severity Severity
}

// String formats the issue for display.
func (i Issue) String() string {
	if i.Location == "" {
		return fmt.Sprintf("%s: %s", i.Rule, i.Message)
	}
	return fmt.Sprintf("%s: %s (at %s)", i.Rule, i.Message, i.Location)
}

// Subject is what the rules inspect.
type Subject struct {
	// Widgets in render order.
	Widgets []dashboard.Widget
	// Rules defined by the stack.
	Rules []logs.InsightRule
}

// SubjectOf collects the dashboard widgets and insight rules of s.
func SubjectOf(s *stack.Stack) Subject {
	subject := Subject{Rules: s.InsightRules()}
	if d := s.Dashboard(); d != nil {
		subject.Widgets = d.Widgets()
	}
	return subject
}

// Result contains the outcome of linting.
type Result struct {
	Success bool
	Issues  []Issue
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
	// MaxMetrics for the CrowdedWidget rule.
	MaxMetrics int
}

// Lint runs the enabled rules against subject. Success is false only when
// an issue of SeverityError is found.
func Lint(subject Subject, opts Options) Result {
	result := Result{Success: true}
	for _, rule := range getRules(opts) {
		for _, issue := range rule.Check(subject) {
			if issue.Severity == SeverityError {
				result.Success = false
			}
			result.Issues = append(result.Issues, issue)
		}
	}
	return result
}

// getRules returns the rules to use based on options.
func getRules(opts Options) []Rule {
	all := AllRules()

	if opts.MaxMetrics > 0 {
		for i, r := range all {
			if cw, ok := r.(CrowdedWidget); ok {
				cw.MaxMetrics = opts.MaxMetrics
				all[i] = cw
			}
		}
	}

	if len(opts.EnabledRules) == 0 {
		return all
	}

	enabled := make(map[string]bool)
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}

	var filtered []Rule
	for _, r := range all {
		if enabled[r.ID()] {
			filtered = append(filtered, r)
		}
	}

	return filtered
}
