// Package schema has the models shared by every part of patchrisk.
package schema

// ClassificationResult is the model output for a whole patch.
// The two probabilities are not required to sum to 1.
type ClassificationResult struct {
	NonRisky float64 `json:"non_risky"`
	Risky    float64 `json:"risky"`
}

// FeatureRecord is one measured feature of a patch together with the
// historical statistics used to narrate it.
//
// A slice of FeatureRecord is ordered by importance, most important first.
type FeatureRecord struct {
	Index                 int     `json:"index"`
	Name                  string  `json:"name"`
	Value                 float64 `json:"value"`
	ShapValue             float64 `json:"shap"`
	Monotonicity          float64 `json:"monotonicity"`
	MedianBugIntroducing  float64 `json:"median_bug_introducing"`
	MedianClean           float64 `json:"median_clean"`
	PercentileBuggyHigher float64 `json:"perc_buggy_values_higher_than_median"`
	PercentileBuggyLower  float64 `json:"perc_buggy_values_lower_than_median"`
	PercentileCleanHigher float64 `json:"perc_clean_values_higher_than_median"`
	PercentileCleanLower  float64 `json:"perc_clean_values_lower_than_median"`
	Plot                  string  `json:"plot,omitempty"` // base64 PNG, passed through
}

// MethodRiskRecord is the per-function prediction for a patch.
type MethodRiskRecord struct {
	FileName   string  `json:"file_name"`
	MethodName string  `json:"method_name"`
	StartLine  int     `json:"start_line"`
	Confidence float64 `json:"confidence"`
	Predicted  bool    `json:"predicted"`
}

// FilterPredicted keeps only the records flagged as positively predicted.
func FilterPredicted(records []MethodRiskRecord) []MethodRiskRecord {
	out := make([]MethodRiskRecord, 0, len(records))
	for _, r := range records {
		if r.Predicted {
			out = append(out, r)
		}
	}
	return out
}
