package schema

import "fmt"

// WaterfallSegment is one feature laid out on the shared axis.
type WaterfallSegment struct {
	Feature FeatureRecord `json:"feature"`
	Start   float64       `json:"start"`
	End     float64       `json:"end"`
	Risky   bool          `json:"risky"`
}

// Key is the identifier shared by the legend entry and the bar of a feature.
func (s WaterfallSegment) Key() string {
	return FeatureKey(s.Feature.Index)
}

// FeatureKey returns the shared identifier for a feature index.
func FeatureKey(index int) string {
	return fmt.Sprintf("feature_%d", index)
}

// WaterfallLabel is a directional label anchored on the axis.
type WaterfallLabel struct {
	Text   string  `json:"text"`
	Anchor float64 `json:"anchor"`
	Color  string  `json:"color"`
}

// WaterfallLayout is the divergent cumulative bar for the explained features.
type WaterfallLayout struct {
	Segments   []WaterfallSegment `json:"segments"`
	DomainMin  float64            `json:"domain_min"`
	DomainMax  float64            `json:"domain_max"`
	Increasing *WaterfallLabel    `json:"increasing,omitempty"`
	Decreasing *WaterfallLabel    `json:"decreasing,omitempty"`
}

// Chart geometry used by the SVG renderer.
const (
	ChartHeight       = 90
	ChartMarginTop    = 30
	ChartMarginRight  = 20
	ChartMarginBottom = 30
	ChartMarginLeft   = 20
	ChartBarGap       = 3
	IncreasingOffset  = -8
	DecreasingOffset  = 5
)

// Scale maps a domain value onto [0, width]. A zero-width domain maps to 0.
func (l WaterfallLayout) Scale(v, width float64) float64 {
	span := l.DomainMax - l.DomainMin
	if span <= 0 {
		return 0
	}
	return (v - l.DomainMin) / span * width
}

// BarWidth returns the pixel width of a segment, never negative.
func (l WaterfallLayout) BarWidth(s WaterfallSegment, width float64) float64 {
	w := l.Scale(s.End, width) - l.Scale(s.Start, width) - ChartBarGap
	if w < 0 {
		return 0
	}
	return w
}
