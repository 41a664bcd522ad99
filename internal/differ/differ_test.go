package differ

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	wetwire "github.com/lex00/wetwire-monitoring-go"
)

func dashboardDef(body string) wetwire.ResourceDef {
	return wetwire.ResourceDef{
		Type: wetwire.DashboardType,
		Properties: map[string]any{
			"DashboardName": "api",
			"DashboardBody": map[string]any{"Fn::Sub": body},
		},
	}
}

func TestCompare(t *testing.T) {
	t1 := &wetwire.Template{
		Resources: map[string]wetwire.ResourceDef{
			"QueryErrors": {Type: wetwire.QueryDefinitionType, Properties: map[string]any{"Name": "errors", "QueryString": "fields @message"}},
			"QueryFaults": {Type: wetwire.QueryDefinitionType, Properties: map[string]any{"Name": "faults"}},
		},
	}

	t2 := &wetwire.Template{
		Resources: map[string]wetwire.ResourceDef{
			"QueryErrors": {Type: wetwire.QueryDefinitionType, Properties: map[string]any{"Name": "errors", "QueryString": "fields @timestamp"}},
			"QuerySlow":   {Type: wetwire.QueryDefinitionType, Properties: map[string]any{"Name": "slow"}},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Diff.Removed) != 1 {
		t.Errorf("Removed = %d, want 1", len(result.Diff.Removed))
	} else if result.Diff.Removed[0].Resource != "QueryFaults" {
		t.Errorf("Removed[0].Resource = %s, want QueryFaults", result.Diff.Removed[0].Resource)
	}

	if len(result.Diff.Added) != 1 {
		t.Errorf("Added = %d, want 1", len(result.Diff.Added))
	} else if result.Diff.Added[0].Resource != "QuerySlow" {
		t.Errorf("Added[0].Resource = %s, want QuerySlow", result.Diff.Added[0].Resource)
	}

	if len(result.Diff.Modified) != 1 {
		t.Errorf("Modified = %d, want 1", len(result.Diff.Modified))
	} else if got := result.Diff.Modified[0].Changes; len(got) != 1 || got[0] != "QueryString modified" {
		t.Errorf("Modified[0].Changes = %v, want [QueryString modified]", got)
	}

	if result.Summary.Total != 3 {
		t.Errorf("Summary.Total = %d, want 3", result.Summary.Total)
	}
}

func TestCompareIdentical(t *testing.T) {
	template := &wetwire.Template{
		Resources: map[string]wetwire.ResourceDef{
			"Dashboard": dashboardDef(`{"widgets":[]}`),
		},
	}

	result, err := Compare(template, template, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.Summary.Total != 0 {
		t.Errorf("Summary.Total = %d, want 0", result.Summary.Total)
	}
}

func TestCompareDashboardWidgets(t *testing.T) {
	before := `{"start":"-PT8H","widgets":[
		{"type":"text","properties":{"markdown":"# API"}},
		{"type":"metric","properties":{"title":"CPU","stat":"Average"}}]}`
	after := `{"start":"-PT3H","widgets":[
		{"type":"text","properties":{"markdown":"# API"}},
		{"type":"metric","properties":{"title":"CPU","stat":"Maximum"}},
		{"type":"metric","properties":{"title":"Memory"}}]}`

	t1 := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{"Dashboard": dashboardDef(before)}}
	t2 := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{"Dashboard": dashboardDef(after)}}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(result.Diff.Modified) != 1 {
		t.Fatalf("Modified = %d, want 1", len(result.Diff.Modified))
	}

	want := []string{
		"DashboardBody.start modified",
		"DashboardBody.widgets[1] modified (CPU)",
		"DashboardBody.widgets[2] added (Memory)",
	}
	got := result.Diff.Modified[0].Changes
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Changes = %v, want %v", got, want)
	}
}

func TestCompareIgnoreOrder(t *testing.T) {
	t1 := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{
		"Query": {Type: wetwire.QueryDefinitionType, Properties: map[string]any{"LogGroupNames": []any{"a", "b"}}},
	}}
	t2 := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{
		"Query": {Type: wetwire.QueryDefinitionType, Properties: map[string]any{"LogGroupNames": []any{"b", "a"}}},
	}}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.Summary.Modified != 1 {
		t.Errorf("Modified = %d, want 1 without IgnoreOrder", result.Summary.Modified)
	}

	result, err = Compare(t1, t2, Options{IgnoreOrder: true})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.Summary.Modified != 0 {
		t.Errorf("Modified = %d, want 0 with IgnoreOrder", result.Summary.Modified)
	}
}

func TestCompareNumbersFromMemoryAndFile(t *testing.T) {
	built := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{
		"Query": {Type: wetwire.QueryDefinitionType, Properties: map[string]any{"Limit": int64(100)}},
	}}
	loaded := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{
		"Query": {Type: wetwire.QueryDefinitionType, Properties: map[string]any{"Limit": float64(100)}},
	}}

	result, err := Compare(built, loaded, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.Summary.Total != 0 {
		t.Errorf("Summary.Total = %d, want 0", result.Summary.Total)
	}
}

func TestCompareDependsOn(t *testing.T) {
	def := dashboardDef(`{"widgets":[]}`)
	withDeps := def
	withDeps.DependsOn = []string{"InsightRuleTopCallers"}

	result, err := Compare(
		&wetwire.Template{Resources: map[string]wetwire.ResourceDef{"Dashboard": def}},
		&wetwire.Template{Resources: map[string]wetwire.ResourceDef{"Dashboard": withDeps}},
		Options{},
	)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(result.Diff.Modified) != 1 || result.Diff.Modified[0].Changes[0] != "DependsOn changed" {
		t.Errorf("expected DependsOn change, got %+v", result.Diff.Modified)
	}
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "a.json")
	yamlPath := filepath.Join(dir, "b.yaml")

	jsonTemplate := `{"AWSTemplateFormatVersion":"2010-09-09","Resources":{
		"InsightRuleTopCallers":{"Type":"AWS::CloudWatch::InsightRule","Properties":{"RuleName":"top-callers","RuleState":"ENABLED"}}}}`
	yamlTemplate := `AWSTemplateFormatVersion: "2010-09-09"
Resources:
  InsightRuleTopCallers:
    Type: AWS::CloudWatch::InsightRule
    Properties:
      RuleName: top-callers
      RuleState: DISABLED
`
	if err := os.WriteFile(jsonPath, []byte(jsonTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte(yamlTemplate), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := CompareFiles(jsonPath, yamlPath, Options{})
	if err != nil {
		t.Fatalf("CompareFiles() error = %v", err)
	}
	if result.Summary.Modified != 1 {
		t.Errorf("Modified = %d, want 1", result.Summary.Modified)
	}

	if _, err := CompareFiles(filepath.Join(dir, "missing.json"), yamlPath, Options{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecodeBody(t *testing.T) {
	if _, ok := decodeBody(map[string]any{"Fn::Sub": `{"a":1}`}); !ok {
		t.Error("expected Fn::Sub body to decode")
	}
	if _, ok := decodeBody(`{"a":1}`); !ok {
		t.Error("expected string body to decode")
	}
	if _, ok := decodeBody("not json"); ok {
		t.Error("expected invalid body to be left alone")
	}
}
