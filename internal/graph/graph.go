// Package graph generates DOT and Mermaid format graphs of a dashboard:
// segments, their widgets, the metrics each widget plots and the operands of
// metric math expressions.
package graph

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	"github.com/lex00/wetwire-monitoring-go/dashboard"
	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

var insightRulePattern = regexp.MustCompile(`INSIGHT_RULE_METRIC\(\s*'([^']+)'`)

// Generator creates graphs from dashboard segments.
type Generator struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterBySegment draws each segment and its widgets as a cluster.
	ClusterBySegment bool

	// HideOperands omits the operands of metric math expressions.
	HideOperands bool
}

// Generate creates the graph of segments and writes it to w.
func (g *Generator) Generate(segments []dashboard.Segment, w io.Writer) error {
	graph := g.buildGraph(segments)

	var output string
	switch g.Format {
	case "", FormatDOT:
		output = graph.String()
	case FormatMermaid:
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	default:
		return fmt.Errorf("unknown graph format %q", g.Format)
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(segments []dashboard.Segment) (string, error) {
	var sb strings.Builder
	if err := g.Generate(segments, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// builder tracks the nodes already added so shared metrics appear once.
// Node ids are sequential; metricKey only indexes them.
type builder struct {
	graph        *dot.Graph
	hideOperands bool
	nodes        map[string]dot.Node
	edges        map[string]bool
}

func (g *Generator) buildGraph(segments []dashboard.Segment) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	b := &builder{
		graph:        graph,
		hideOperands: g.HideOperands,
		nodes:        make(map[string]dot.Node),
		edges:        make(map[string]bool),
	}

	for i, segment := range segments {
		widgets := segment.BuildWidgets()
		parent := graph
		if g.ClusterBySegment {
			parent = graph.Subgraph(fmt.Sprintf("cluster_segment_%d", i), dot.ClusterOption{})
			parent.Attr("label", segmentLabel(i, widgets))
			parent.Attr("style", "rounded")
			parent.Attr("bgcolor", "lightyellow")
		}

		segNode := parent.Node(fmt.Sprintf("segment_%d", i))
		segNode.Label(segmentLabel(i, widgets))
		segNode.Attr("shape", "folder")

		for j, w := range widgets {
			wNode := parent.Node(fmt.Sprintf("widget_%d_%d", i, j))
			wNode.Label(widgetLabel(w))
			if w.Kind == dashboard.KindText {
				wNode.Attr("style", "dashed")
			}
			graph.Edge(segNode, wNode)

			for _, h := range w.Metrics() {
				b.edge(wNode, b.metric(h), "")
			}
		}
	}

	return graph
}

// metric returns the node of h, adding it and its operands on first use.
func (b *builder) metric(h metrics.Handle) dot.Node {
	key := metricKey(h)
	if n, ok := b.nodes[key]; ok {
		return n
	}

	n := b.graph.Node(fmt.Sprintf("metric_%d", len(b.nodes)))
	b.nodes[key] = n

	if !h.IsExpression() {
		n.Label(fmt.Sprintf("%s\\n%s (%s)", h.Namespace, h.Name, h.Statistic))
		n.Attr("shape", "ellipse")
		return n
	}

	n.Label(metrics.Resolve(h.Label, h.Expression.Formula) + "\\n= " + h.Expression.Formula)
	n.Attr("shape", "hexagon")

	for _, m := range insightRulePattern.FindAllStringSubmatch(h.Expression.Formula, -1) {
		rule := b.rule(m[1])
		e := b.edge(n, rule, "")
		if e != nil {
			e.Attr("color", "blue")
		}
	}

	if b.hideOperands {
		return n
	}
	ids := make([]string, 0, len(h.Expression.Operands))
	for id := range h.Expression.Operands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		b.edge(n, b.metric(h.Expression.Operands[id]), id)
	}
	return n
}

func (b *builder) rule(name string) dot.Node {
	key := "rule:" + name
	if n, ok := b.nodes[key]; ok {
		return n
	}
	n := b.graph.Node(fmt.Sprintf("rule_%d", len(b.nodes)))
	n.Label("InsightRule\\n" + name)
	n.Attr("shape", "cylinder")
	b.nodes[key] = n
	return n
}

// edge adds from -> to once and returns nil when it already existed.
func (b *builder) edge(from, to dot.Node, label string) *dot.Edge {
	key := from.ID() + "->" + to.ID() + ":" + label
	if b.edges[key] {
		return nil
	}
	b.edges[key] = true
	e := b.graph.Edge(from, to)
	if label != "" {
		e.Label(label)
	}
	return &e
}

// metricKey identifies a handle regardless of its presentation.
func metricKey(h metrics.Handle) string {
	if h.IsExpression() {
		ids := make([]string, 0, len(h.Expression.Operands))
		for id, op := range h.Expression.Operands {
			ids = append(ids, id+"="+metricKey(op))
		}
		sort.Strings(ids)
		return "expr:" + h.Expression.Formula + "{" + strings.Join(ids, ",") + "}"
	}
	dims := make([]string, 0, len(h.Dimensions))
	for k, v := range h.Dimensions {
		dims = append(dims, k+"="+v)
	}
	sort.Strings(dims)
	return fmt.Sprintf("metric:%s/%s/%s{%s}", h.Namespace, h.Name, h.Statistic, strings.Join(dims, ","))
}

// segmentLabel uses the leading header of the segment when it has one.
func segmentLabel(i int, widgets []dashboard.Widget) string {
	if len(widgets) > 0 && widgets[0].Kind == dashboard.KindText {
		return strings.TrimSpace(strings.TrimLeft(widgets[0].Markdown, "#"))
	}
	return fmt.Sprintf("Segment %d", i)
}

func widgetLabel(w dashboard.Widget) string {
	if w.Kind == dashboard.KindText {
		return strings.TrimSpace(strings.TrimLeft(w.Markdown, "#"))
	}
	return fmt.Sprintf("%s\\n[%s]", w.Title, w.Kind)
}
