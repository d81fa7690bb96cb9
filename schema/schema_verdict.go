package schema

// Verdict is the interpreted classification result.
type Verdict struct {
	Label             string `json:"label"`
	ConfidencePercent int    `json:"confidence_percent"`
	IsRisky           bool   `json:"is_risky"`
	Color             string `json:"color"`
}

// Default narrative settings.
const (
	DefaultMaxExplained        = 5
	DefaultPercentileThreshold = 0.55
)

// NarrativeConfig bounds how many features are explained and how much
// historical corroboration an explanation needs.
type NarrativeConfig struct {
	MaxExplained        int
	PercentileThreshold float64
}

// DefaultNarrativeConfig returns the settings used by the review page.
func DefaultNarrativeConfig() NarrativeConfig {
	return NarrativeConfig{
		MaxExplained:        DefaultMaxExplained,
		PercentileThreshold: DefaultPercentileThreshold,
	}
}

// Explanation is the narrative emitted for one feature.
type Explanation struct {
	Feature    FeatureRecord `json:"feature"`
	Branch     Branch        `json:"branch"`
	Qualifier  string        `json:"qualifier"`  // "too large", "too small", "small" or "large"
	Value      float64       `json:"value"`      // rounded value shown to the reader
	Percent    int           `json:"percent"`    // corroborating percentile, 0..100
	Population string        `json:"population"` // patches the percentile was measured on
	Risky      bool          `json:"risky"`      // direction of the contribution
	Text       string        `json:"text"`
}

// NarrativeSelection is the result of narrating a ranked feature list.
type NarrativeSelection struct {
	Explanations []Explanation   `json:"explanations"`
	Chosen       map[int]bool    `json:"chosen"`    // index -> risk direction
	Explained    []FeatureRecord `json:"explained"` // chosen records in original order
}

// IsChosen reports whether the feature index was explained.
func (s NarrativeSelection) IsChosen(index int) bool {
	_, ok := s.Chosen[index]
	return ok
}
