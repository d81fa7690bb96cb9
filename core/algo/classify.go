// Package algo has the pure interpretation, layout and matching logic.
package algo

import (
	"math"
	"strconv"

	"github.com/huangsam/patchrisk/schema"
)

// Classify interprets a classification result as a verdict.
// The patch is risky only when the risky probability is strictly greater,
// so an exact tie reads as not risky.
func Classify(result schema.ClassificationResult) schema.Verdict {
	if result.Risky > result.NonRisky {
		return schema.Verdict{
			Label:             schema.RiskyLabel,
			ConfidencePercent: toPercent(result.Risky),
			IsRisky:           true,
			Color:             schema.RiskColor,
		}
	}
	return schema.Verdict{
		Label:             schema.NotRiskyLabel,
		ConfidencePercent: toPercent(result.NonRisky),
		IsRisky:           false,
		Color:             schema.SafeColor,
	}
}

// Heading returns the plain verdict heading shown above the explanations.
func Heading(v schema.Verdict) string {
	return "Diff Risk Analysis - " + v.Label + " with " + strconv.Itoa(v.ConfidencePercent) + "% confidence"
}

// roundHalfUp rounds to the nearest integer with halves going toward +Inf.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// toPercent converts a probability in [0,1] to a rounded percentage.
func toPercent(p float64) int {
	if math.IsNaN(p) {
		return 0
	}
	return int(roundHalfUp(100 * p))
}

// ConfidencePercent converts a probability to the rounded percentage shown to readers.
func ConfidencePercent(p float64) int {
	return toPercent(p)
}
