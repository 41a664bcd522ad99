package dashboard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// DefaultDurationRange is the time range widgets render when none is configured.
const DefaultDurationRange = 8 * time.Hour

// RegionPlaceholder resolves to the stack region once the body is wrapped in Fn::Sub.
const RegionPlaceholder = "${AWS::Region}"

// PeriodOverride controls whether widget periods follow the selected time range.
type PeriodOverride string

const (
	// PeriodOverrideAuto lets CloudWatch pick the period from the time range.
	PeriodOverrideAuto PeriodOverride = "auto"
	// PeriodOverrideInherit keeps the period of each metric.
	PeriodOverrideInherit PeriodOverride = "inherit"
)

// Valid reports whether p is a known policy.
func (p PeriodOverride) Valid() bool {
	return p == PeriodOverrideAuto || p == PeriodOverrideInherit
}

// Props configure a Dashboard.
type Props struct {
	// Name of the dashboard (required).
	Name string
	// DurationRange is how far back widgets render. Defaults to DefaultDurationRange.
	DurationRange time.Duration
	// PeriodOverride defaults to PeriodOverrideAuto.
	PeriodOverride PeriodOverride
	// Region of metric widgets. Defaults to RegionPlaceholder.
	Region string
}

// Placement is a widget positioned on the dashboard grid.
type Placement struct {
	Widget Widget
	X      int
	Y      int
}

// Dashboard is the sink that segments are rendered into.
//
// Each added segment starts on a new row. Widgets flow left to right and
// wrap to the next row when the next widget does not fit in FullWidth.
type Dashboard struct {
	name           string
	durationRange  time.Duration
	periodOverride PeriodOverride
	region         string

	placements []Placement
	nextY      int
}

// New creates a dashboard.
func New(props Props) (*Dashboard, error) {
	if props.Name == "" {
		return nil, metrics.NewConfigurationError("dashboard", "dashboard name is required")
	}
	if props.DurationRange < 0 {
		return nil, metrics.NewConfigurationError("dashboard", "duration range must be positive, got %s", props.DurationRange)
	}
	override := metrics.Resolve(props.PeriodOverride, PeriodOverrideAuto)
	if !override.Valid() {
		return nil, metrics.NewConfigurationError("dashboard", "unknown period override %q", props.PeriodOverride)
	}
	return &Dashboard{
		name:           props.Name,
		durationRange:  metrics.Resolve(props.DurationRange, DefaultDurationRange),
		periodOverride: override,
		region:         metrics.Resolve(props.Region, RegionPlaceholder),
	}, nil
}

// Name returns the dashboard name.
func (d *Dashboard) Name() string { return d.name }

// PeriodOverride returns the period override policy.
func (d *Dashboard) PeriodOverride() PeriodOverride { return d.periodOverride }

// Start returns the ISO 8601 start of the rendered time range, e.g. "-PT8H".
func (d *Dashboard) Start() string {
	return "-" + ISODuration(d.durationRange)
}

// AddSegment places all widgets of segment below the existing ones.
func (d *Dashboard) AddSegment(segment Segment) {
	d.AddWidgets(segment.BuildWidgets()...)
}

// AddWidgets places widgets as a new row group.
func (d *Dashboard) AddWidgets(widgets ...Widget) {
	if len(widgets) == 0 {
		return
	}
	x, y, rowHeight := 0, d.nextY, 0
	for _, w := range widgets {
		if x > 0 && x+w.Width > FullWidth {
			y += rowHeight
			x, rowHeight = 0, 0
		}
		d.placements = append(d.placements, Placement{Widget: w, X: x, Y: y})
		x += w.Width
		rowHeight = max(rowHeight, w.Height)
	}
	d.nextY = y + rowHeight
}

// Placements returns the positioned widgets in render order.
func (d *Dashboard) Placements() []Placement {
	out := make([]Placement, len(d.placements))
	copy(out, d.placements)
	return out
}

// Widgets returns the widgets in render order.
func (d *Dashboard) Widgets() []Widget {
	out := make([]Widget, len(d.placements))
	for i, p := range d.placements {
		out[i] = p.Widget
	}
	return out
}

// Validate checks that every widget can be rendered by CloudWatch.
func (d *Dashboard) Validate() error {
	for i, p := range d.placements {
		w := p.Widget
		switch {
		case w.Width <= 0 || w.Width > FullWidth:
			return metrics.NewConfigurationError("dashboard", "widget %d (%q) has width %d, must be between 1 and %d", i, widgetName(w), w.Width, FullWidth)
		case w.Height <= 0:
			return metrics.NewConfigurationError("dashboard", "widget %d (%q) has height %d", i, widgetName(w), w.Height)
		case w.Kind != KindText && len(w.Metrics()) == 0:
			return metrics.NewConfigurationError("dashboard", "widget %d (%q) has no metrics", i, widgetName(w))
		}
	}
	return nil
}

// Body renders the CloudWatch dashboard body JSON.
func (d *Dashboard) Body() ([]byte, error) {
	widgets := make([]any, 0, len(d.placements))
	for i, p := range d.placements {
		rendered, err := renderWidget(p, d.region)
		if err != nil {
			return nil, fmt.Errorf("rendering widget %d (%q): %w", i, widgetName(p.Widget), err)
		}
		widgets = append(widgets, rendered)
	}
	return json.Marshal(map[string]any{
		"start":          d.Start(),
		"periodOverride": string(d.periodOverride),
		"widgets":        widgets,
	})
}

func widgetName(w Widget) string {
	if w.Kind == KindText {
		return w.Markdown
	}
	return w.Title
}

// ISODuration formats d as an ISO 8601 duration, e.g. "PT8H" or "P1DT12H".
// Sub-second precision is dropped.
func ISODuration(d time.Duration) string {
	if d < time.Second {
		return "PT0S"
	}
	var sb strings.Builder
	sb.WriteString("P")

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		sb.WriteString(strconv.FormatInt(int64(days), 10) + "D")
	}
	if d < time.Second {
		return sb.String()
	}

	sb.WriteString("T")
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	if hours > 0 {
		sb.WriteString(strconv.FormatInt(int64(hours), 10) + "H")
	}
	if minutes > 0 {
		sb.WriteString(strconv.FormatInt(int64(minutes), 10) + "M")
	}
	if seconds > 0 {
		sb.WriteString(strconv.FormatInt(int64(seconds), 10) + "S")
	}
	return sb.String()
}
