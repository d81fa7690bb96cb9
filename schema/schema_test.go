package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterPredicted(t *testing.T) {
	records := []MethodRiskRecord{
		{FileName: "a.cpp", MethodName: "f", Predicted: true},
		{FileName: "a.cpp", MethodName: "g", Predicted: false},
		{FileName: "b.cpp", MethodName: "h", Predicted: true},
	}
	got := FilterPredicted(records)
	assert.Len(t, got, 2)
	assert.Equal(t, "f", got[0].MethodName)
	assert.Equal(t, "h", got[1].MethodName)

	assert.Empty(t, FilterPredicted(nil))
}

func TestWaterfallScale(t *testing.T) {
	layout := WaterfallLayout{DomainMin: 0, DomainMax: 2}
	assert.Equal(t, 0.0, layout.Scale(0, 100))
	assert.Equal(t, 50.0, layout.Scale(1, 100))
	assert.Equal(t, 100.0, layout.Scale(2, 100))

	seg := WaterfallSegment{Start: 0, End: 1}
	assert.Equal(t, 47.0, layout.BarWidth(seg, 100))

	tiny := WaterfallSegment{Start: 0, End: 0.01}
	assert.Equal(t, 0.0, layout.BarWidth(tiny, 100), "bar width never goes negative")

	empty := WaterfallLayout{}
	assert.Equal(t, 0.0, empty.Scale(5, 100), "empty domain maps to zero")
}

func TestEnrichExplanations(t *testing.T) {
	explanations := []Explanation{
		{Feature: FeatureRecord{Index: 7}, Risky: true},
		{Feature: FeatureRecord{Index: 2}, Risky: false},
	}
	got := EnrichExplanations(explanations)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, "feature_7", got[0].Key)
	assert.Equal(t, RiskColor, got[0].Color)
	assert.Equal(t, 2, got[1].Rank)
	assert.Equal(t, SafeColor, got[1].Color)
}

func TestNarrativeSelectionIsChosen(t *testing.T) {
	sel := NarrativeSelection{Chosen: map[int]bool{3: false}}
	assert.True(t, sel.IsChosen(3))
	assert.False(t, sel.IsChosen(4))
}
