package metrics

import (
	"regexp"
	"sort"
	"strings"
)

// metricIDPattern is the CloudWatch rule for metric ids in math expressions.
var metricIDPattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9_]*$`)

// ValidMetricID reports whether id can be referenced from a math expression.
func ValidMetricID(id string) bool {
	return metricIDPattern.MatchString(id)
}

// ValidateExpression checks that expression only references ids present in
// operands and that every operand key is a valid metric id.
//
// Identifiers are tokens starting with a lowercase letter outside quoted
// strings. Math functions (SUM, METRICS, INSIGHT_RULE_METRIC, ...) are upper
// case and never treated as identifiers.
func ValidateExpression(expression string, operands map[string]Handle) error {
	if strings.TrimSpace(expression) == "" {
		return NewConfigurationError("metric math", "expression is empty")
	}
	for id, op := range operands {
		if !ValidMetricID(id) {
			return NewConfigurationError("metric math", "operand id %q must start with a lowercase letter and contain only letters, digits and underscores", id)
		}
		if op.IsExpression() && op.Expression.Formula == "" {
			return NewConfigurationError("metric math", "operand %q is an empty expression", id)
		}
	}

	var missing []string
	seen := map[string]bool{}
	for _, ident := range ExpressionIdentifiers(expression) {
		if _, ok := operands[ident]; ok || seen[ident] {
			continue
		}
		seen[ident] = true
		missing = append(missing, ident)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return NewConfigurationError("metric math", "expression %q references unknown operands: %s", expression, strings.Join(missing, ", "))
	}
	return nil
}

// ExpressionIdentifiers returns the metric ids referenced by expression in
// order of appearance.
func ExpressionIdentifiers(expression string) []string {
	var (
		idents []string
		token  strings.Builder
		quote  rune
	)

	flush := func() {
		if token.Len() == 0 {
			return
		}
		t := token.String()
		token.Reset()
		if t[0] >= 'a' && t[0] <= 'z' {
			idents = append(idents, t)
		}
	}

	for _, r := range expression {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch {
		case r == '"' || r == '\'':
			flush()
			quote = r
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			token.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return idents
}
