// Package schema provides offline validation of the resources of a
// monitoring template against the CloudFormation schemas of the three
// resource types a monitoring stack emits.
package schema

import (
	"fmt"
	"sort"
	"strings"

	wetwire "github.com/lex00/wetwire-monitoring-go"
)

// Options configures schema validation.
type Options struct {
	// Strict reports unknown properties as warnings.
	Strict bool
}

// Error is a schema violation of one resource property.
type Error struct {
	Resource string
	Property string
	Message  string
}

func (e Error) String() string {
	return fmt.Sprintf("%s.%s: %s", e.Resource, e.Property, e.Message)
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []Error
	Warnings []Error
}

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property.
type PropertySchema struct {
	Type          string
	AllowedValues []string
	MaxLength     int
}

// resourceSchemas covers the resource types of a monitoring stack.
var resourceSchemas = map[string]ResourceSchema{
	wetwire.DashboardType: {
		Required: []string{"DashboardBody"},
		Properties: map[string]PropertySchema{
			"DashboardName": {Type: "String", MaxLength: 255},
			"DashboardBody": {Type: "String"},
		},
	},
	wetwire.InsightRuleType: {
		Required: []string{"RuleBody", "RuleName", "RuleState"},
		Properties: map[string]PropertySchema{
			"RuleName":  {Type: "String", MaxLength: 128},
			"RuleState": {Type: "String", AllowedValues: []string{"ENABLED", "DISABLED"}},
			"RuleBody":  {Type: "String"},
			"Tags":      {Type: "List"},
		},
	},
	wetwire.QueryDefinitionType: {
		Required: []string{"Name", "QueryString"},
		Properties: map[string]PropertySchema{
			"Name":          {Type: "String", MaxLength: 255},
			"QueryString":   {Type: "String", MaxLength: 10000},
			"LogGroupNames": {Type: "List"},
		},
	},
}

// ValidateTemplate validates the resources of template. Resource names are
// visited in sorted order.
func ValidateTemplate(template *wetwire.Template, opts Options) *Result {
	result := &Result{Valid: true}

	names := make([]string, 0, len(template.Resources))
	for name := range template.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errors, warnings := validateResource(name, template.Resources[name], opts)
		result.Errors = append(result.Errors, errors...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// validateResource validates a single resource.
func validateResource(name string, resource wetwire.ResourceDef, opts Options) ([]Error, []Error) {
	var errors, warnings []Error

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		warnings = append(warnings, Error{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s (schema not available for validation)", resource.Type),
		})
		return errors, warnings
	}

	for _, required := range schema.Required {
		if _, exists := resource.Properties[required]; !exists {
			errors = append(errors, Error{
				Resource: name,
				Property: required,
				Message:  fmt.Sprintf("missing required property: %s", required),
			})
		}
	}

	props := make([]string, 0, len(resource.Properties))
	for propName := range resource.Properties {
		props = append(props, propName)
	}
	sort.Strings(props)

	for _, propName := range props {
		propSchema, ok := schema.Properties[propName]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, Error{
					Resource: name,
					Property: propName,
					Message:  fmt.Sprintf("unknown property: %s", propName),
				})
			}
			continue
		}
		errors = append(errors, validateProperty(name, propName, resource.Properties[propName], propSchema)...)
	}

	return errors, warnings
}

// validateProperty validates a property value against its schema.
func validateProperty(resource, property string, value any, schema PropertySchema) []Error {
	if isIntrinsic(value) {
		return nil
	}

	var errors []Error
	if !isValidType(value, schema.Type) {
		return append(errors, Error{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("expected type %s", schema.Type),
		})
	}

	strVal, isString := value.(string)
	if !isString {
		return nil
	}

	if schema.MaxLength > 0 && len(strVal) > schema.MaxLength {
		errors = append(errors, Error{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("length %d exceeds maximum %d", len(strVal), schema.MaxLength),
		})
	}

	if len(schema.AllowedValues) > 0 {
		found := false
		for _, allowed := range schema.AllowedValues {
			if strVal == allowed {
				found = true
				break
			}
		}
		if !found {
			errors = append(errors, Error{
				Resource: resource,
				Property: property,
				Message:  fmt.Sprintf("value %q not in allowed values: %v", strVal, schema.AllowedValues),
			})
		}
	}

	return errors
}

// isIntrinsic reports whether value is a Ref or Fn:: call, which is
// resolved at deploy time.
func isIntrinsic(value any) bool {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	for key := range m {
		return key == "Ref" || strings.HasPrefix(key, "Fn::")
	}
	return false
}

// isValidType checks if a value matches the expected type.
func isValidType(value any, expectedType string) bool {
	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	default:
		return true
	}
}
