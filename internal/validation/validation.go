// Package validation validates monitoring stacks.
//
// A stack is built into a CloudFormation template, which is then checked by
// the offline resource schemas and by cfn-lint-go (library dependency). The
// dashboard widgets and insight rules,
// which cfn-lint only sees as Fn::Sub strings, are checked by the linter
// rules.
package validation

import (
	"fmt"
	"os"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	wetwire "github.com/lex00/wetwire-monitoring-go"
	"github.com/lex00/wetwire-monitoring-go/internal/linter"
	"github.com/lex00/wetwire-monitoring-go/internal/schema"
	"github.com/lex00/wetwire-monitoring-go/internal/template"
	"github.com/lex00/wetwire-monitoring-go/stack"
)

// MaxDashboardWidgets is the CloudWatch limit of widgets per dashboard.
const MaxDashboardWidgets = 500

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// LintTemplate writes tmpl to a temporary JSON file and lints it.
func LintTemplate(tmpl *wetwire.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(tmpl)
	if err != nil {
		return nil, fmt.Errorf("serializing template: %w", err)
	}

	f, err := os.CreateTemp("", "wetwire-monitoring-*.json")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("writing temp file: %w", err)
	}

	return RunCfnLint(f.Name())
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// ValidateStack builds s and lints the result. Build failures are reported
// in the result, not as an error.
func ValidateStack(s *stack.Stack) (*wetwire.ValidateResult, error) {
	result := &wetwire.ValidateResult{}

	if d := s.Dashboard(); d != nil {
		result.Widgets = len(d.Widgets())
		if result.Widgets > MaxDashboardWidgets {
			result.Errors = append(result.Errors, fmt.Sprintf("dashboard %q has %d widgets, CloudWatch allows %d", d.Name(), result.Widgets, MaxDashboardWidgets))
		}
		if result.Widgets == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("dashboard %q has no widgets", d.Name()))
		}
	}

	for _, issue := range linter.Lint(linter.SubjectOf(s), linter.Options{}).Issues {
		if issue.Severity == linter.SeverityError {
			result.Errors = append(result.Errors, issue.String())
		} else {
			result.Warnings = append(result.Warnings, issue.String())
		}
	}

	tmpl, err := s.Build()
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}
	result.Resources = len(tmpl.Resources)

	schemaResult := schema.ValidateTemplate(tmpl, schema.Options{})
	for _, e := range schemaResult.Errors {
		result.Errors = append(result.Errors, e.String())
	}
	for _, w := range schemaResult.Warnings {
		result.Warnings = append(result.Warnings, w.String())
	}

	lintResult, err := LintTemplate(tmpl)
	if err != nil {
		return nil, fmt.Errorf("running cfn-lint: %w", err)
	}
	result.Errors = append(result.Errors, lintResult.Errors...)
	result.Warnings = append(result.Warnings, lintResult.Warnings...)
	result.Warnings = append(result.Warnings, lintResult.Informational...)

	result.Success = len(result.Errors) == 0
	return result, nil
}
