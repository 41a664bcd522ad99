// Package template provides CloudFormation template building from monitoring resources.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-monitoring-go"
	"github.com/lex00/wetwire-monitoring-go/internal/serialize"
)

type entry struct {
	value        wetwire.Resource
	dependencies []string
}

// Builder constructs CloudFormation templates from resources added by logical name.
type Builder struct {
	description string
	resources   map[string]entry
	parameters  map[string]wetwire.Parameter
	outputs     map[string]wetwire.Output
}

// NewBuilder creates an empty template builder.
func NewBuilder() *Builder {
	return &Builder{
		resources:  make(map[string]entry),
		parameters: make(map[string]wetwire.Parameter),
		outputs:    make(map[string]wetwire.Output),
	}
}

// SetDescription sets the template description.
func (b *Builder) SetDescription(description string) {
	b.description = description
}

// AddResource registers a resource under a logical name. Dependencies are the
// logical names of resources that must be created first.
func (b *Builder) AddResource(name string, value wetwire.Resource, dependencies ...string) error {
	if err := b.checkName(name); err != nil {
		return err
	}
	if value == nil {
		return fmt.Errorf("resource %s has no value", name)
	}
	b.resources[name] = entry{value: value, dependencies: dependencies}
	return nil
}

// AddParameter registers a template parameter. Type defaults to String.
func (b *Builder) AddParameter(name string, param wetwire.Parameter) error {
	if err := b.checkName(name); err != nil {
		return err
	}
	if param.Type == "" {
		param.Type = "String"
	}
	b.parameters[name] = param
	return nil
}

// AddOutput registers a template output.
func (b *Builder) AddOutput(name string, output wetwire.Output) error {
	if name == "" {
		return errors.New("output name is required")
	}
	if _, ok := b.outputs[name]; ok {
		return fmt.Errorf("duplicate output %s", name)
	}
	b.outputs[name] = output
	return nil
}

// HasParameter reports whether a parameter with the given name was added.
func (b *Builder) HasParameter(name string) bool {
	_, ok := b.parameters[name]
	return ok
}

// HasResource reports whether a resource with the given name was added.
func (b *Builder) HasResource(name string) bool {
	_, ok := b.resources[name]
	return ok
}

// Parameters and resources share one logical name space.
func (b *Builder) checkName(name string) error {
	if name == "" {
		return errors.New("logical name is required")
	}
	if _, ok := b.resources[name]; ok {
		return fmt.Errorf("duplicate logical name %s", name)
	}
	if _, ok := b.parameters[name]; ok {
		return fmt.Errorf("duplicate logical name %s", name)
	}
	return nil
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*wetwire.Template, error) {
	for name, res := range b.resources {
		for _, dep := range res.dependencies {
			if _, ok := b.resources[dep]; !ok {
				return nil, fmt.Errorf("resource %s depends on unknown resource %s", name, dep)
			}
		}
	}

	// Get resources in dependency order
	order, err := b.topologicalSort()
	if err != nil {
		return nil, err
	}

	template := &wetwire.Template{
		AWSTemplateFormatVersion: wetwire.TemplateFormatVersion,
		Description:              b.description,
		Resources:                make(map[string]wetwire.ResourceDef, len(b.resources)),
	}

	if len(b.parameters) > 0 {
		template.Parameters = make(map[string]wetwire.Parameter, len(b.parameters))
		for name, param := range b.parameters {
			template.Parameters[name] = param
		}
	}

	for _, name := range order {
		res := b.resources[name]

		props, err := serialize.Properties(res.value)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}

		var dependsOn []string
		if len(res.dependencies) > 0 {
			dependsOn = append(dependsOn, res.dependencies...)
			sort.Strings(dependsOn)
		}

		template.Resources[name] = wetwire.ResourceDef{
			Type:       res.value.ResourceType(),
			Properties: props,
			DependsOn:  dependsOn,
		}
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]wetwire.Output, len(b.outputs))
		for name, output := range b.outputs {
			template.Outputs[name] = output
		}
	}

	return template, nil
}

// topologicalSort returns resources in dependency order.
func (b *Builder) topologicalSort() ([]string, error) {
	// Build adjacency list
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range b.resources {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name, res := range b.resources {
		for _, dep := range res.dependencies {
			graph[dep] = append(graph[dep], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(b.resources) {
		return nil, b.detectCycle()
	}

	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func (b *Builder) detectCycle() error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var stack, cycle []string

	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		onPath[node] = true
		stack = append(stack, node)

		for _, dep := range b.resources[node].dependencies {
			if onPath[dep] {
				for i, name := range stack {
					if name == dep {
						cycle = append(append(cycle, stack[i:]...), dep)
						break
					}
				}
				return true
			}
			if !visited[dep] && findCycle(dep) {
				return true
			}
		}

		stack = stack[:len(stack)-1]
		onPath[node] = false
		return false
	}

	names := make([]string, 0, len(b.resources))
	for name := range b.resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("circular dependency detected: %s", strings.Join(cycle, " → "))
	}
	return errors.New("circular dependency detected")
}

// ToJSON serializes the template to JSON.
func ToJSON(t *wetwire.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *wetwire.Template) ([]byte, error) {
	return yaml.Marshal(t)
}
