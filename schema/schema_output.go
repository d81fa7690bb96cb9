package schema

// VerdictReport is everything the overall pass produces for one diff.
type VerdictReport struct {
	DiffID        string             `json:"diff_id"`
	Verdict       Verdict            `json:"verdict"`
	Heading       string             `json:"heading"`
	Selection     NarrativeSelection `json:"selection"`
	Layout        WaterfallLayout    `json:"layout"`
	ImportanceURL string             `json:"importance_url,omitempty"`
	FeatureError  string             `json:"feature_error,omitempty"`
}

// MethodReport is everything the method pass produces for one diff.
type MethodReport struct {
	DiffID      string             `json:"diff_id"`
	Annotations []MethodAnnotation `json:"annotations"`
	Unmatched   []MethodRiskRecord `json:"unmatched"`
}

// EnrichedExplanation adds presentation data to an Explanation.
type EnrichedExplanation struct {
	Rank  int    `json:"rank"`
	Key   string `json:"key"`
	Color string `json:"color"`
	Explanation
}

// EnrichExplanations adds rank, key and color to explanations.
func EnrichExplanations(explanations []Explanation) []EnrichedExplanation {
	output := make([]EnrichedExplanation, len(explanations))
	for i, e := range explanations {
		output[i] = EnrichedExplanation{
			Rank:        i + 1,
			Key:         FeatureKey(e.Feature.Index),
			Color:       ColorFor(e.Risky),
			Explanation: e,
		}
	}
	return output
}
