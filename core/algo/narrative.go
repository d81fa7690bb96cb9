package algo

import (
	"fmt"
	"math"
	"strconv"

	"github.com/huangsam/patchrisk/schema"
)

const (
	riskyPopulation = "introducing regressions"
	safePopulation  = "not introducing regressions"
)

// SelectNarratives walks the ranked features and explains at most
// cfg.MaxExplained of them. A feature is explained only when the sign of its
// contribution, the sign of its historical trend and the closer population
// median all agree, and the corroborating percentile reaches the threshold.
// Features below the threshold are skipped without using up a slot.
//
// A non-positive MaxExplained falls back to the default.
func SelectNarratives(features []schema.FeatureRecord, cfg schema.NarrativeConfig) schema.NarrativeSelection {
	remaining := cfg.MaxExplained
	if remaining <= 0 {
		remaining = schema.DefaultMaxExplained
	}
	minPercent := thresholdPercent(cfg.PercentileThreshold)

	sel := schema.NarrativeSelection{
		Explanations: []schema.Explanation{},
		Chosen:       map[int]bool{},
		Explained:    []schema.FeatureRecord{},
	}

	for _, f := range features {
		e, ok := explain(f)
		if !ok {
			continue
		}
		if e.Percent < minPercent {
			continue
		}

		sel.Explanations = append(sel.Explanations, e)
		sel.Chosen[f.Index] = f.ShapValue > 0

		remaining--
		if remaining == 0 {
			break
		}
	}

	for _, f := range features {
		if sel.IsChosen(f.Index) {
			sel.Explained = append(sel.Explained, f)
		}
	}

	return sel
}

// explain classifies a feature into one of the four narrative branches.
// It reports false when the evidence does not line up, including an exact
// tie between the two medians.
func explain(f schema.FeatureRecord) (schema.Explanation, bool) {
	value := roundHalfUp(f.Value)
	toBuggy := math.Abs(value - f.MedianBugIntroducing)
	toClean := math.Abs(value - f.MedianClean)

	var (
		branch     schema.Branch
		qualifier  string
		percentile float64
	)
	switch {
	case f.ShapValue > 0 && f.Monotonicity > 0 && toBuggy < toClean:
		branch, qualifier, percentile = schema.BranchTooLarge, "too large", f.PercentileBuggyHigher
	case f.ShapValue > 0 && f.Monotonicity < 0 && toBuggy < toClean:
		branch, qualifier, percentile = schema.BranchTooSmall, "too small", f.PercentileBuggyLower
	case f.ShapValue < 0 && f.Monotonicity > 0 && toClean < toBuggy:
		branch, qualifier, percentile = schema.BranchSmall, "small", f.PercentileCleanLower
	case f.ShapValue < 0 && f.Monotonicity < 0 && toClean < toBuggy:
		branch, qualifier, percentile = schema.BranchLarge, "large", f.PercentileCleanHigher
	default:
		return schema.Explanation{}, false
	}

	risky := f.ShapValue > 0
	population := safePopulation
	if risky {
		population = riskyPopulation
	}
	percent := toPercent(percentile)

	return schema.Explanation{
		Feature:    f,
		Branch:     branch,
		Qualifier:  qualifier,
		Value:      value,
		Percent:    percent,
		Population: population,
		Risky:      risky,
		Text:       fmt.Sprintf("%s is %s (%s), as in %d%% of patches %s.", f.Name, qualifier, FormatValue(value), percent, population),
	}, true
}

// FormatValue prints a rounded feature value without a trailing fraction.
func FormatValue(v float64) string {
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// thresholdPercent is the smallest whole percentage that meets the threshold.
// The epsilon absorbs float noise such as 0.55*100 = 55.000000000000007.
func thresholdPercent(threshold float64) int {
	return int(math.Ceil(threshold*100 - 1e-9))
}
