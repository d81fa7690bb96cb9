package algo

import (
	"math"
	"sort"

	"github.com/huangsam/patchrisk/schema"
)

// LayoutWaterfall lays the features end to end on a shared axis.
// Risk-increasing features come first, then the rest, each group ascending
// by SHAP value. Every segment is as long as the absolute SHAP value.
// The input slice is not modified.
func LayoutWaterfall(features []schema.FeatureRecord) schema.WaterfallLayout {
	sorted := make([]schema.FeatureRecord, len(features))
	copy(sorted, features)
	sort.SliceStable(sorted, func(i, j int) bool {
		gi, gj := signGroup(sorted[i].ShapValue), signGroup(sorted[j].ShapValue)
		if gi != gj {
			return gi < gj
		}
		return sorted[i].ShapValue < sorted[j].ShapValue
	})

	layout := schema.WaterfallLayout{Segments: make([]schema.WaterfallSegment, 0, len(sorted))}

	cursor := 0.0
	for _, f := range sorted {
		end := cursor + math.Abs(f.ShapValue)
		layout.Segments = append(layout.Segments, schema.WaterfallSegment{
			Feature: f,
			Start:   cursor,
			End:     end,
			Risky:   f.ShapValue > 0,
		})
		cursor = end
	}

	var (
		maxEnd        float64
		maxRiskyEnd   float64
		minSafeStart  float64
		haveRisky     bool
		haveDecreased bool
	)
	for _, s := range layout.Segments {
		maxEnd = math.Max(maxEnd, s.End)
		switch {
		case s.Feature.ShapValue > 0:
			if !haveRisky || s.End > maxRiskyEnd {
				maxRiskyEnd = s.End
			}
			haveRisky = true
		case s.Feature.ShapValue < 0:
			if !haveDecreased || s.Start < minSafeStart {
				minSafeStart = s.Start
			}
			haveDecreased = true
		}
	}

	layout.DomainMin = 0
	layout.DomainMax = maxEnd

	if haveRisky {
		layout.Increasing = &schema.WaterfallLabel{
			Text:   schema.IncreasingRiskText,
			Anchor: maxRiskyEnd,
			Color:  schema.RiskColor,
		}
	}
	if haveDecreased {
		layout.Decreasing = &schema.WaterfallLabel{
			Text:   schema.DecreasingRiskText,
			Anchor: minSafeStart,
			Color:  schema.SafeColor,
		}
	}

	return layout
}

// signGroup puts positive contributions first and everything else after.
func signGroup(shap float64) int {
	if shap > 0 {
		return 0
	}
	return 1
}
