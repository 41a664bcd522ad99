package logs

import (
	"github.com/lex00/wetwire-monitoring-go/dashboard"
	"github.com/lex00/wetwire-monitoring-go/metrics"
)

// InsightRulesSegment graphs the number of unique contributors of each rule.
type InsightRulesSegment struct {
	title   string
	handles []metrics.Handle
	titles  []string
}

// NewInsightRulesSegment builds a segment with a medium header and one
// third-width graph per rule.
func NewInsightRulesSegment(factory *metrics.Factory, title string, rules []InsightRule) (*InsightRulesSegment, error) {
	s := &InsightRulesSegment{title: title}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		h, err := r.RuleMetric(factory, UniqueContributors, "Unique contributors", metrics.WithMathColor(metrics.BlueColor))
		if err != nil {
			return nil, err
		}
		s.handles = append(s.handles, h)
		s.titles = append(s.titles, r.Name)
	}
	return s, nil
}

// BuildWidgets implements dashboard.Segment.
func (s *InsightRulesSegment) BuildWidgets() []dashboard.Widget {
	widgets := []dashboard.Widget{dashboard.NewHeaderWidget(s.title, dashboard.HeaderMedium)}
	for i, h := range s.handles {
		widgets = append(widgets, dashboard.NewGraphWidget(dashboard.GraphProps{
			Title:     s.titles[i],
			Width:     dashboard.ThirdWidth,
			Left:      []metrics.Handle{h},
			LeftYAxis: &dashboard.CountAxis,
		}))
	}
	return widgets
}
