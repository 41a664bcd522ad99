// Package wetwire_monitoring provides the shared types of wetwire-monitoring:
// the CloudFormation template produced for a monitoring stack and the JSON
// results of the CLI commands.
//
// Dashboards are composed with the monitoring, dashboard and metrics
// packages:
//
//	facade, _ := monitoring.New(monitoring.Props{
//	    DashboardName:  "api",
//	    MetricDefaults: metrics.Defaults{Namespace: "api"},
//	})
//	facade.MonitorAlbFargateService(fargate.AlbServiceProps{...})
//
// The stack package renders them, together with Contributor Insights rules
// and Logs Insights query definitions, into a Template.
package wetwire_monitoring

// CloudFormation resource types emitted by a monitoring stack.
const (
	DashboardType       = "AWS::CloudWatch::Dashboard"
	InsightRuleType     = "AWS::CloudWatch::InsightRule"
	QueryDefinitionType = "AWS::Logs::QueryDefinition"
)

// TemplateFormatVersion is the only CloudFormation template format version.
const TemplateFormatVersion = "2010-09-09"

// Resource is implemented by everything the stack renders into a template.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::CloudWatch::Dashboard")
	ResourceType() string
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceNames returns the logical names of all resources of the given type.
func (t *Template) ResourceNames(resourceType string) []string {
	var names []string
	for name, def := range t.Resources {
		if def.Type == resourceType {
			names = append(names, name)
		}
	}
	return names
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Parameter is a CloudFormation template parameter. Log group names are
// usually passed in as parameters.
type Parameter struct {
	Type        string `json:"Type" yaml:"Type" mapstructure:"type"`
	Description string `json:"Description,omitempty" yaml:"Description,omitempty" mapstructure:"description"`
	Default     any    `json:"Default,omitempty" yaml:"Default,omitempty" mapstructure:"default"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any    `json:"Value" yaml:"Value"`
	Export      *struct {
		Name string `json:"Name" yaml:"Name"`
	} `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// BuildResult is the JSON output from `wetwire-monitoring build`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Template  Template `json:"template,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Widgets   int      `json:"widgets"`
	Errors    []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `wetwire-monitoring validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Widgets   int      `json:"widgets"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// DiffEntry is a resource that differs between two templates.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// TemplateDiff lists the differing resources of two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// DiffResult is the JSON output from `wetwire-monitoring diff`.
type DiffResult struct {
	Success bool         `json:"success"`
	Diff    TemplateDiff `json:"diff"`
	Summary DiffSummary  `json:"summary"`
}
