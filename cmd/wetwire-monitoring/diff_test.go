package main

import (
	"bytes"
	"strings"
	"testing"

	wetwire "github.com/lex00/wetwire-monitoring-go"
)

func TestNewDiffCmd(t *testing.T) {
	cmd := newDiffCmd()

	if cmd.Use != "diff <template1> <template2>" {
		t.Errorf("Use = %q, want 'diff <template1> <template2>'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	if cmd.Flags().Lookup("format") == nil {
		t.Error("missing --format flag")
	}

	if cmd.Flags().Lookup("ignore-order") == nil {
		t.Error("missing --ignore-order flag")
	}
}

func TestOutputDiffResult_Text(t *testing.T) {
	result := wetwire.DiffResult{
		Success: true,
		Diff: wetwire.TemplateDiff{
			Added: []wetwire.DiffEntry{{Resource: "QuerySlow", Type: wetwire.QueryDefinitionType}},
			Modified: []wetwire.DiffEntry{{
				Resource: "Dashboard",
				Type:     wetwire.DashboardType,
				Changes:  []string{"DashboardBody.widgets[1] modified (CPU)"},
			}},
		},
		Summary: wetwire.DiffSummary{Added: 1, Modified: 1, Total: 2},
	}

	var out bytes.Buffer
	if err := outputDiffResult(&out, result, "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"+ QuerySlow (AWS::Logs::QueryDefinition)",
		"~ Dashboard (AWS::CloudWatch::Dashboard)",
		"    DashboardBody.widgets[1] modified (CPU)",
		"1 added, 0 removed, 1 modified",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestOutputDiffResult_NoDifferences(t *testing.T) {
	var out bytes.Buffer
	if err := outputDiffResult(&out, wetwire.DiffResult{Success: true}, "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "No differences" {
		t.Errorf("output = %q", out.String())
	}

	if err := outputDiffResult(&out, wetwire.DiffResult{}, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
