package dashboard

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// CloudWatch widget types.
const (
	cwTypeText   = "text"
	cwTypeMetric = "metric"
)

func renderWidget(p Placement, region string) (map[string]any, error) {
	w := p.Widget
	out := map[string]any{
		"x":      p.X,
		"y":      p.Y,
		"width":  w.Width,
		"height": w.Height,
	}

	if w.Kind == KindText {
		out["type"] = cwTypeText
		out["properties"] = map[string]any{"markdown": EscapeSub(w.Markdown)}
		return out, nil
	}

	rows, err := renderMetricRows(w)
	if err != nil {
		return nil, err
	}

	props := map[string]any{
		"title":   EscapeSub(w.Title),
		"region":  region,
		"metrics": rows,
	}
	switch w.Kind {
	case KindGraph:
		props["view"] = "timeSeries"
		props["stacked"] = w.Stacked
		props["annotations"] = map[string]any{
			"horizontal": renderAnnotations(w.LeftAnnotations),
		}
		if axes := renderAxes(w); len(axes) > 0 {
			props["yAxis"] = axes
		}
	case KindSingleValue:
		props["view"] = "singleValue"
	default:
		return nil, fmt.Errorf("unknown widget kind %q", w.Kind)
	}

	out["type"] = cwTypeMetric
	out["properties"] = props
	return out, nil
}

func renderAnnotations(annotations []metrics.Annotation) []any {
	out := make([]any, 0, len(annotations))
	for _, a := range annotations {
		entry := map[string]any{"value": a.Value}
		if a.Label != "" {
			entry["label"] = EscapeSub(a.Label)
		}
		if a.Color != "" {
			entry["color"] = a.Color
		}
		out = append(out, entry)
	}
	return out
}

func renderAxes(w Widget) map[string]any {
	axes := map[string]any{}
	if w.LeftYAxis != nil {
		axes["left"] = renderAxis(*w.LeftYAxis)
	}
	if w.RightYAxis != nil {
		axes["right"] = renderAxis(*w.RightYAxis)
	}
	return axes
}

func renderAxis(a YAxis) map[string]any {
	out := map[string]any{}
	if a.Min != nil {
		out["min"] = *a.Min
	}
	if a.Max != nil {
		out["max"] = *a.Max
	}
	if a.Label != "" {
		out["label"] = a.Label
	}
	if a.ShowUnits != nil {
		out["showUnits"] = *a.ShowUnits
	}
	return out
}

// metricRows collects the "metrics" array of one widget. Expression operands
// are emitted once as hidden rows keyed by their operand id.
type metricRows struct {
	rows     []any
	ids      map[string]metrics.Handle
	exprSeq  int
	reserved map[string]bool
}

func renderMetricRows(w Widget) ([]any, error) {
	r := &metricRows{
		ids:      map[string]metrics.Handle{},
		reserved: map[string]bool{},
	}
	for _, h := range w.Metrics() {
		collectOperandIDs(h, r.reserved)
	}
	for _, h := range w.Left {
		if err := r.add(h, ""); err != nil {
			return nil, err
		}
	}
	for _, h := range w.Right {
		if err := r.add(h, "right"); err != nil {
			return nil, err
		}
	}
	if r.rows == nil {
		r.rows = []any{}
	}
	return r.rows, nil
}

func collectOperandIDs(h metrics.Handle, into map[string]bool) {
	if !h.IsExpression() {
		return
	}
	for id, op := range h.Expression.Operands {
		into[id] = true
		collectOperandIDs(op, into)
	}
}

func (r *metricRows) nextExpressionID() string {
	for {
		r.exprSeq++
		id := "expr_" + strconv.Itoa(r.exprSeq)
		if !r.reserved[id] {
			return id
		}
	}
}

func (r *metricRows) add(h metrics.Handle, axis string) error {
	if h.IsExpression() {
		return r.addExpression(r.nextExpressionID(), h, axis, true)
	}
	r.rows = append(r.rows, metricRow(h, rowOptions(h, axis, "", true)))
	return nil
}

func (r *metricRows) addOperand(id string, h metrics.Handle) error {
	if prev, ok := r.ids[id]; ok {
		if reflect.DeepEqual(prev, h) {
			return nil
		}
		return metrics.NewConfigurationError("dashboard", "metric id %q is bound to different metrics in one widget", id)
	}
	r.ids[id] = h
	if h.IsExpression() {
		return r.addExpression(id, h, "", false)
	}
	r.rows = append(r.rows, metricRow(h, rowOptions(h, "", id, false)))
	return nil
}

func (r *metricRows) addExpression(id string, h metrics.Handle, axis string, visible bool) error {
	for _, opID := range sortedKeys(h.Expression.Operands) {
		if err := r.addOperand(opID, h.Expression.Operands[opID]); err != nil {
			return err
		}
	}
	opts := map[string]any{
		"expression": h.Expression.Formula,
		"id":         id,
	}
	if h.Label != "" {
		opts["label"] = EscapeSub(h.Label)
	}
	if h.Color != "" {
		opts["color"] = h.Color
	}
	if h.Period > 0 {
		opts["period"] = seconds(h.Period)
	}
	if h.Region != "" {
		opts["region"] = h.Region
	}
	if !visible {
		opts["visible"] = false
	}
	if axis != "" {
		opts["yAxis"] = axis
	}
	r.rows = append(r.rows, []any{opts})
	return nil
}

// metricRow renders [namespace, name, dimKey, dimValue, ..., options].
// Dimension keys are sorted so the body is stable.
func metricRow(h metrics.Handle, opts map[string]any) []any {
	row := []any{h.Namespace, h.Name}
	for _, k := range sortedKeys(h.Dimensions) {
		row = append(row, k, h.Dimensions[k])
	}
	return append(row, opts)
}

func rowOptions(h metrics.Handle, axis, id string, visible bool) map[string]any {
	opts := map[string]any{
		"stat":   string(h.Statistic),
		"period": seconds(h.Period),
	}
	if h.Label != "" {
		opts["label"] = EscapeSub(h.Label)
	}
	if h.Color != "" {
		opts["color"] = h.Color
	}
	if h.Region != "" {
		opts["region"] = h.Region
	}
	if id != "" {
		opts["id"] = id
	}
	if !visible {
		opts["visible"] = false
	}
	if axis != "" {
		opts["yAxis"] = axis
	}
	return opts
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EscapeSub escapes "${" so a literal survives Fn::Sub substitution. The
// body is always wrapped in Fn::Sub, so markdown, titles and labels are
// escaped on render. Dimension values are not: they carry placeholders.
func EscapeSub(s string) string {
	return strings.ReplaceAll(s, "${", "${!")
}
