package algo

import (
	"testing"

	"github.com/huangsam/patchrisk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// riskyFeature builds a feature that lands in branch A with the given percentile.
func riskyFeature(index int, shap, percentile float64) schema.FeatureRecord {
	return schema.FeatureRecord{
		Index:                 index,
		Name:                  "feature " + FormatValue(float64(index)),
		Value:                 10,
		ShapValue:             shap,
		Monotonicity:          0.3,
		MedianBugIntroducing:  9,
		MedianClean:           2,
		PercentileBuggyHigher: percentile,
	}
}

func TestSelectNarrativesBranches(t *testing.T) {
	tests := []struct {
		name      string
		feature   schema.FeatureRecord
		branch    schema.Branch
		qualifier string
		risky     bool
		text      string
	}{
		{
			name: "too large",
			feature: schema.FeatureRecord{
				Index: 1, Name: "Number of lines added", Value: 412.4, ShapValue: 0.2, Monotonicity: 0.1,
				MedianBugIntroducing: 300, MedianClean: 40, PercentileBuggyHigher: 0.72,
			},
			branch:    schema.BranchTooLarge,
			qualifier: "too large",
			risky:     true,
			text:      "Number of lines added is too large (412), as in 72% of patches introducing regressions.",
		},
		{
			name: "too small",
			feature: schema.FeatureRecord{
				Index: 2, Name: "Reviewer experience", Value: 1.6, ShapValue: 0.05, Monotonicity: -0.4,
				MedianBugIntroducing: 3, MedianClean: 25, PercentileBuggyLower: 0.6,
			},
			branch:    schema.BranchTooSmall,
			qualifier: "too small",
			risky:     true,
			text:      "Reviewer experience is too small (2), as in 60% of patches introducing regressions.",
		},
		{
			name: "small",
			feature: schema.FeatureRecord{
				Index: 3, Name: "Number of files touched", Value: 1, ShapValue: -0.3, Monotonicity: 0.2,
				MedianBugIntroducing: 8, MedianClean: 2, PercentileCleanLower: 0.81,
			},
			branch:    schema.BranchSmall,
			qualifier: "small",
			risky:     false,
			text:      "Number of files touched is small (1), as in 81% of patches not introducing regressions.",
		},
		{
			name: "large",
			feature: schema.FeatureRecord{
				Index: 4, Name: "Author experience", Value: 540, ShapValue: -0.11, Monotonicity: -0.25,
				MedianBugIntroducing: 40, MedianClean: 500, PercentileCleanHigher: 0.555,
			},
			branch:    schema.BranchLarge,
			qualifier: "large",
			risky:     false,
			text:      "Author experience is large (540), as in 56% of patches not introducing regressions.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := SelectNarratives([]schema.FeatureRecord{tt.feature}, schema.DefaultNarrativeConfig())
			require.Len(t, sel.Explanations, 1)
			e := sel.Explanations[0]
			assert.Equal(t, tt.branch, e.Branch)
			assert.Equal(t, tt.qualifier, e.Qualifier)
			assert.Equal(t, tt.risky, e.Risky)
			assert.Equal(t, tt.text, e.Text)
			assert.Equal(t, map[int]bool{tt.feature.Index: tt.risky}, sel.Chosen)
			assert.Equal(t, []schema.FeatureRecord{tt.feature}, sel.Explained)
		})
	}
}

func TestSelectNarrativesSkips(t *testing.T) {
	tests := []struct {
		name    string
		feature schema.FeatureRecord
	}{
		{
			name: "positive shap but closer to clean median",
			feature: schema.FeatureRecord{
				Index: 1, Value: 3, ShapValue: 0.2, Monotonicity: 0.5,
				MedianBugIntroducing: 20, MedianClean: 2, PercentileBuggyHigher: 0.9,
			},
		},
		{
			name: "negative shap but closer to buggy median",
			feature: schema.FeatureRecord{
				Index: 2, Value: 19, ShapValue: -0.2, Monotonicity: 0.5,
				MedianBugIntroducing: 20, MedianClean: 2, PercentileCleanLower: 0.9,
			},
		},
		{
			name: "zero monotonicity",
			feature: schema.FeatureRecord{
				Index: 3, Value: 19, ShapValue: 0.2, Monotonicity: 0,
				MedianBugIntroducing: 20, MedianClean: 2, PercentileBuggyHigher: 0.9,
			},
		},
		{
			name: "zero shap",
			feature: schema.FeatureRecord{
				Index: 4, Value: 19, ShapValue: 0, Monotonicity: 0.4,
				MedianBugIntroducing: 20, MedianClean: 2, PercentileBuggyHigher: 0.9,
			},
		},
		{
			name: "equidistant medians",
			feature: schema.FeatureRecord{
				Index: 5, Value: 10, ShapValue: 0.2, Monotonicity: 0.4,
				MedianBugIntroducing: 12, MedianClean: 8, PercentileBuggyHigher: 0.9,
			},
		},
		{
			name: "rounded value becomes equidistant",
			feature: schema.FeatureRecord{
				Index: 6, Value: 9.6, ShapValue: 0.2, Monotonicity: 0.4,
				MedianBugIntroducing: 11, MedianClean: 9, PercentileBuggyHigher: 0.9,
			},
		},
		{
			name:    "below percentile threshold",
			feature: riskyFeature(7, 0.4, 0.54),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := SelectNarratives([]schema.FeatureRecord{tt.feature}, schema.DefaultNarrativeConfig())
			assert.Empty(t, sel.Explanations)
			assert.Empty(t, sel.Chosen)
			assert.Empty(t, sel.Explained)
		})
	}
}

func TestSelectNarrativesThresholdBoundary(t *testing.T) {
	// 0.545 rounds to 55% and is kept; 0.544 rounds to 54% and is not.
	kept := SelectNarratives([]schema.FeatureRecord{riskyFeature(1, 0.1, 0.545)}, schema.DefaultNarrativeConfig())
	assert.Len(t, kept.Explanations, 1)
	assert.Equal(t, 55, kept.Explanations[0].Percent)

	dropped := SelectNarratives([]schema.FeatureRecord{riskyFeature(1, 0.1, 0.544)}, schema.DefaultNarrativeConfig())
	assert.Empty(t, dropped.Explanations)
}

func TestSelectNarrativesLimit(t *testing.T) {
	var features []schema.FeatureRecord
	for i := range 8 {
		features = append(features, riskyFeature(i, 0.1*float64(i+1), 0.7))
	}

	sel := SelectNarratives(features, schema.DefaultNarrativeConfig())
	require.Len(t, sel.Explanations, schema.DefaultMaxExplained)
	for i, e := range sel.Explanations {
		assert.Equal(t, i, e.Feature.Index, "explanations keep ranking order")
	}
	assert.Len(t, sel.Explained, schema.DefaultMaxExplained)
	assert.False(t, sel.IsChosen(5))

	custom := SelectNarratives(features, schema.NarrativeConfig{MaxExplained: 2, PercentileThreshold: 0.55})
	assert.Len(t, custom.Explanations, 2)

	fallback := SelectNarratives(features, schema.NarrativeConfig{MaxExplained: 0, PercentileThreshold: 0.55})
	assert.Len(t, fallback.Explanations, schema.DefaultMaxExplained)
}

func TestSelectNarrativesDiscardDoesNotUseSlot(t *testing.T) {
	features := []schema.FeatureRecord{
		riskyFeature(10, 0.5, 0.3), // discarded
		riskyFeature(11, 0.4, 0.9),
		riskyFeature(12, 0.3, 0.1), // discarded
		riskyFeature(13, 0.2, 0.9),
	}

	sel := SelectNarratives(features, schema.NarrativeConfig{MaxExplained: 2, PercentileThreshold: 0.55})
	require.Len(t, sel.Explanations, 2)
	assert.Equal(t, 11, sel.Explanations[0].Feature.Index)
	assert.Equal(t, 13, sel.Explanations[1].Feature.Index)
}

func TestSelectNarrativesExplainedKeepsOriginalOrder(t *testing.T) {
	safe := schema.FeatureRecord{
		Index: 20, Name: "safe", Value: 1, ShapValue: -0.3, Monotonicity: 0.2,
		MedianBugIntroducing: 8, MedianClean: 2, PercentileCleanLower: 0.81,
	}
	features := []schema.FeatureRecord{riskyFeature(21, 0.2, 0.9), safe, riskyFeature(22, 0.1, 0.2)}

	sel := SelectNarratives(features, schema.DefaultNarrativeConfig())
	require.Len(t, sel.Explained, 2)
	assert.Equal(t, 21, sel.Explained[0].Index)
	assert.Equal(t, 20, sel.Explained[1].Index)
	assert.Equal(t, map[int]bool{21: true, 20: false}, sel.Chosen)
}

func TestSelectNarrativesEmpty(t *testing.T) {
	sel := SelectNarratives(nil, schema.DefaultNarrativeConfig())
	assert.NotNil(t, sel.Explanations)
	assert.Empty(t, sel.Explanations)
	assert.Empty(t, sel.Explained)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "22052", FormatValue(22052))
	assert.Equal(t, "-3", FormatValue(-3))
	assert.Equal(t, "0", FormatValue(roundHalfUp(-0.4)))
}

// FuzzSelectNarratives checks the slot bound and the percentile floor on random input.
func FuzzSelectNarratives(f *testing.F) {
	f.Add(10.0, 0.2, 0.3, 9.0, 2.0, 0.7, 3)
	f.Add(1.0, -0.3, 0.2, 8.0, 2.0, 0.54, 5)
	f.Add(10.0, 0.2, 0.4, 12.0, 8.0, 0.9, 1)
	f.Fuzz(func(t *testing.T, value, shap, mono, medBug, medClean, perc float64, n int) {
		if n < 0 || n > 50 {
			return
		}
		features := make([]schema.FeatureRecord, n)
		for i := range features {
			features[i] = schema.FeatureRecord{
				Index: i, Value: value + float64(i), ShapValue: shap, Monotonicity: mono,
				MedianBugIntroducing: medBug, MedianClean: medClean,
				PercentileBuggyHigher: perc, PercentileBuggyLower: perc,
				PercentileCleanHigher: perc, PercentileCleanLower: perc,
			}
		}
		sel := SelectNarratives(features, schema.DefaultNarrativeConfig())
		if len(sel.Explanations) > schema.DefaultMaxExplained {
			t.Fatalf("explained %d features", len(sel.Explanations))
		}
		for _, e := range sel.Explanations {
			if e.Percent < 55 {
				t.Fatalf("explanation below threshold: %d", e.Percent)
			}
		}
		if len(sel.Explained) != len(sel.Explanations) {
			t.Fatalf("explained set %d != explanations %d", len(sel.Explained), len(sel.Explanations))
		}
	})
}
