// Package differ provides semantic comparison of monitoring stack templates.
//
// Dashboard and insight rule bodies are JSON documents inside Fn::Sub; they
// are decoded and compared widget by widget rather than as opaque strings.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-monitoring-go"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    wetwire.TemplateDiff
	Summary wetwire.DiffSummary
}

// bodyProperties hold JSON documents, possibly wrapped in Fn::Sub.
var bodyProperties = map[string]string{
	wetwire.DashboardType:   "DashboardBody",
	wetwire.InsightRuleType: "RuleBody",
}

// Compare compares two CloudFormation templates and returns differences.
func Compare(template1, template2 *wetwire.Template, opts Options) (*Result, error) {
	res1, err := normalizeResources(template1.Resources)
	if err != nil {
		return nil, err
	}
	res2, err := normalizeResources(template2.Resources)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	// Find added resources (in template2 but not in template1)
	for name, def := range res2 {
		if _, exists := res1[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, wetwire.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	// Find removed resources (in template1 but not in template2)
	for name, def := range res1 {
		if _, exists := res2[name]; !exists {
			result.Diff.Removed = append(result.Diff.Removed, wetwire.DiffEntry{
				Resource: name,
				Type:     def.Type,
			})
		}
	}

	for name, def1 := range res1 {
		if def2, exists := res2[name]; exists {
			changes := compareResources(def1, def2, opts)
			if len(changes) > 0 {
				result.Diff.Modified = append(result.Diff.Modified, wetwire.DiffEntry{
					Resource: name,
					Type:     def1.Type,
					Changes:  changes,
				})
			}
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = wetwire.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// LoadTemplate loads a CloudFormation template from a JSON or YAML file.
func LoadTemplate(path string) (*wetwire.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var template wetwire.Template
	if err := json.Unmarshal(data, &template); err != nil {
		if err := yaml.Unmarshal(data, &template); err != nil {
			return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
		}
	}

	return &template, nil
}

// normalizeResources round-trips properties through JSON so that templates
// built in memory and templates loaded from files compare equal, then
// decodes the JSON bodies.
func normalizeResources(resources map[string]wetwire.ResourceDef) (map[string]wetwire.ResourceDef, error) {
	out := make(map[string]wetwire.ResourceDef, len(resources))
	for name, def := range resources {
		data, err := json.Marshal(def.Properties)
		if err != nil {
			return nil, fmt.Errorf("normalizing %s: %w", name, err)
		}
		var props map[string]any
		if err := json.Unmarshal(data, &props); err != nil {
			return nil, fmt.Errorf("normalizing %s: %w", name, err)
		}
		if key, ok := bodyProperties[def.Type]; ok {
			if body, ok := decodeBody(props[key]); ok {
				props[key] = body
			}
		}
		def.Properties = props
		out[name] = def
	}
	return out, nil
}

// decodeBody parses a JSON body given as a string or as {"Fn::Sub": string}.
func decodeBody(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		sub, isMap := v.(map[string]any)
		if !isMap || len(sub) != 1 {
			return nil, false
		}
		if s, ok = sub["Fn::Sub"].(string); !ok {
			return nil, false
		}
	}
	var body any
	if err := json.Unmarshal([]byte(s), &body); err != nil {
		return nil, false
	}
	return body, true
}

// compareResources compares two resource definitions and returns changes.
func compareResources(def1, def2 wetwire.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	if def1.Type == wetwire.DashboardType && def2.Type == wetwire.DashboardType {
		changes = append(changes, compareDashboards(def1.Properties, def2.Properties, opts)...)
	} else {
		changes = append(changes, compareProperties("", def1.Properties, def2.Properties, opts)...)
	}

	if !equalStringSlices(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}

	return changes
}

// compareDashboards reports widget level changes of the dashboard body and
// property changes of everything else.
func compareDashboards(props1, props2 map[string]any, opts Options) []string {
	body1, ok1 := props1["DashboardBody"].(map[string]any)
	body2, ok2 := props2["DashboardBody"].(map[string]any)
	if !ok1 || !ok2 {
		return compareProperties("", props1, props2, opts)
	}

	rest1 := without(props1, "DashboardBody")
	rest2 := without(props2, "DashboardBody")
	changes := compareProperties("", rest1, rest2, opts)

	widgets1, _ := body1["widgets"].([]any)
	widgets2, _ := body2["widgets"].([]any)
	changes = append(changes, compareProperties("DashboardBody", without(body1, "widgets"), without(body2, "widgets"), opts)...)

	n := max(len(widgets1), len(widgets2))
	for i := 0; i < n; i++ {
		switch {
		case i >= len(widgets1):
			changes = append(changes, fmt.Sprintf("DashboardBody.widgets[%d] added (%s)", i, widgetTitle(widgets2[i])))
		case i >= len(widgets2):
			changes = append(changes, fmt.Sprintf("DashboardBody.widgets[%d] removed (%s)", i, widgetTitle(widgets1[i])))
		case !deepEqual(widgets1[i], widgets2[i], opts):
			changes = append(changes, fmt.Sprintf("DashboardBody.widgets[%d] modified (%s)", i, widgetTitle(widgets2[i])))
		}
	}
	return changes
}

func widgetTitle(w any) string {
	m, _ := w.(map[string]any)
	props, _ := m["properties"].(map[string]any)
	if title, ok := props["title"].(string); ok && title != "" {
		return title
	}
	if md, ok := props["markdown"].(string); ok {
		return md
	}
	return fmt.Sprint(m["type"])
}

func without(m map[string]any, key string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// compareProperties recursively compares property maps.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	for key, val2 := range props2 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if val1, exists := props1[key]; exists {
			if !deepEqual(val1, val2, opts) {
				changes = append(changes, fmt.Sprintf("%s modified", path))
			}
		} else {
			changes = append(changes, fmt.Sprintf("%s added", path))
		}
	}

	for key := range props1 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if _, exists := props2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s removed", path))
		}
	}

	sort.Strings(changes)
	return changes
}

// deepEqual compares two values deeply, optionally ignoring order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts every slice by the JSON encoding of its elements.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		keys := make(map[int]string, len(val))
		for i, elem := range val {
			result[i] = normalizeValue(elem)
		}
		for i, elem := range result {
			data, _ := json.Marshal(elem)
			keys[i] = string(data)
		}
		idx := make([]int, len(result))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(i, j int) bool { return keys[idx[i]] < keys[idx[j]] })
		sorted := make([]any, len(result))
		for i, k := range idx {
			sorted[i] = result[k]
		}
		return sorted
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

// equalStringSlices compares two string slices for equality.
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sortEntries sorts diff entries by resource name.
func sortEntries(entries []wetwire.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
