package dashboard

// Segment is a building block of a dashboard: an ordered group of widgets,
// usually the monitoring view of one resource.
type Segment interface {
	// BuildWidgets returns the segment's widgets in render order.
	BuildWidgets() []Widget
}

// SingleWidgetSegment is a segment holding exactly one widget.
type SingleWidgetSegment struct {
	widget Widget
}

// NewSingleWidgetSegment wraps widget in a segment.
func NewSingleWidgetSegment(widget Widget) *SingleWidgetSegment {
	return &SingleWidgetSegment{widget: widget}
}

// BuildWidgets implements Segment.
func (s *SingleWidgetSegment) BuildWidgets() []Widget {
	return []Widget{s.widget}
}

// SegmentFunc adapts a function to the Segment interface.
type SegmentFunc func() []Widget

// BuildWidgets implements Segment.
func (f SegmentFunc) BuildWidgets() []Widget {
	return f()
}
