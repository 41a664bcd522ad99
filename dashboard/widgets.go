// Package dashboard provides CloudWatch dashboard widgets, segments and the
// dashboard that renders them to a CloudWatch dashboard body.
package dashboard

import (
	"strings"

	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// Grid widths. A dashboard row is FullWidth units wide.
const (
	FullWidth         = 24
	HalfWidth         = FullWidth / 2
	ThirdWidth        = FullWidth / 3
	QuarterWidth      = FullWidth / 4
	EighthWidth       = QuarterWidth / 2
	SixthWidth        = FullWidth / 6
	TwoThirdsWidth    = 2 * ThirdWidth
	ThreeQuarterWidth = 3 * QuarterWidth
)

// Default heights.
const (
	DefaultGraphWidgetHeight = 5
	DefaultAlarmWidgetHeight = 4
	HeaderWidgetHeight       = 1
)

// WidgetKind is the type of a dashboard widget.
type WidgetKind string

const (
	// KindText renders markdown.
	KindText WidgetKind = "text"
	// KindGraph renders time series.
	KindGraph WidgetKind = "graph"
	// KindSingleValue renders the latest value of each metric.
	KindSingleValue WidgetKind = "singleValue"
)

// YAxis configures a graph axis. Nil bounds are left to CloudWatch.
type YAxis struct {
	Min       *float64
	Max       *float64
	Label     string
	ShowUnits *bool
}

func float(v float64) *float64 { return &v }
func boolean(v bool) *bool { return &v }

// Axis presets.
var (
	PercentageAxis  = YAxis{Min: float(0), Max: float(100), Label: "%"}
	TimeAxisMillis  = YAxis{Min: float(0), Label: "ms"}
	TimeAxisSeconds = YAxis{Min: float(0), Label: "sec"}
	CountAxis       = YAxis{Min: float(0), ShowUnits: boolean(false)}
	SizeAxisBytes   = YAxis{Min: float(0), Label: "bytes"}
	RateAxis        = YAxis{Min: float(0), ShowUnits: boolean(false)}
	RateToOneAxis   = YAxis{Min: float(0), Max: float(1), ShowUnits: boolean(false)}
)

// Widget is a self-contained dashboard widget description.
type Widget struct {
	Kind   WidgetKind
	Width  int
	Height int
	Title  string

	// Markdown is the payload of text widgets.
	Markdown string

	// Left and Right are the metrics of graph and single value widgets.
	Left  []metrics.Handle
	Right []metrics.Handle

	LeftYAxis  *YAxis
	RightYAxis *YAxis

	// LeftAnnotations is never nil for graph widgets.
	LeftAnnotations []metrics.Annotation

	Stacked bool
}

// Metrics returns all handles on both axes, left first.
func (w Widget) Metrics() []metrics.Handle {
	out := make([]metrics.Handle, 0, len(w.Left)+len(w.Right))
	out = append(out, w.Left...)
	return append(out, w.Right...)
}

// NewTextWidget creates a markdown widget.
func NewTextWidget(markdown string, width, height int) Widget {
	return Widget{
		Kind:     KindText,
		Width:    width,
		Height:   height,
		Markdown: markdown,
	}
}

// GraphProps configures a graph widget.
type GraphProps struct {
	Title           string
	Width           int
	Height          int
	Left            []metrics.Handle
	Right           []metrics.Handle
	LeftYAxis       *YAxis
	RightYAxis      *YAxis
	LeftAnnotations []metrics.Annotation
	Stacked         bool
}

// NewGraphWidget creates a time series graph. Width defaults to QuarterWidth
// and height to DefaultGraphWidgetHeight.
func NewGraphWidget(props GraphProps) Widget {
	annotations := props.LeftAnnotations
	if annotations == nil {
		annotations = []metrics.Annotation{}
	}
	return Widget{
		Kind:            KindGraph,
		Width:           orDefault(props.Width, QuarterWidth),
		Height:          orDefault(props.Height, DefaultGraphWidgetHeight),
		Title:           props.Title,
		Left:            props.Left,
		Right:           props.Right,
		LeftYAxis:       props.LeftYAxis,
		RightYAxis:      props.RightYAxis,
		LeftAnnotations: annotations,
		Stacked:         props.Stacked,
	}
}

// SingleValueProps configures a single value widget.
type SingleValueProps struct {
	Title   string
	Width   int
	Height  int
	Metrics []metrics.Handle
}

// NewSingleValueWidget creates a widget showing the latest value of each metric.
func NewSingleValueWidget(props SingleValueProps) Widget {
	return Widget{
		Kind:   KindSingleValue,
		Width:  orDefault(props.Width, QuarterWidth),
		Height: orDefault(props.Height, DefaultAlarmWidgetHeight),
		Title:  props.Title,
		Left:   props.Metrics,
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// HeaderLevel is the semantic size of a header widget.
type HeaderLevel int

const (
	// HeaderLarge renders as "# text".
	HeaderLarge HeaderLevel = iota
	// HeaderMedium renders as "## text".
	HeaderMedium
	// HeaderSmall renders as "### text".
	HeaderSmall
)

// NewHeaderWidget creates a full width, one unit high markdown header.
func NewHeaderWidget(text string, level HeaderLevel) Widget {
	if level < HeaderLarge || level > HeaderSmall {
		level = HeaderLarge
	}
	markdown := strings.Repeat("#", int(level)+1) + " " + text
	return NewTextWidget(markdown, FullWidth, HeaderWidgetHeight)
}

// NewLinkHeaderWidget creates a large header whose title links to referenceURL
// when one is given.
func NewLinkHeaderWidget(title, referenceURL string) Widget {
	if referenceURL != "" {
		title = "[" + title + "](" + referenceURL + ")"
	}
	return NewHeaderWidget(title, HeaderLarge)
}
