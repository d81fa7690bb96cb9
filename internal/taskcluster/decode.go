package taskcluster

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
)

// Record kinds used in MalformedRecordError.
const (
	resultKind  = "result"
	featureKind = "feature"
	methodKind  = "method"
)

// predictedTrue is how the classification task flags a risky method.
const predictedTrue = "TRUE"

type rawRecord map[string]json.RawMessage

// DecodeResult decodes probs.json: a [non-risky, risky] probability pair.
func DecodeResult(data []byte) (schema.ClassificationResult, error) {
	var probs []json.RawMessage
	if err := json.Unmarshal(data, &probs); err != nil {
		return schema.ClassificationResult{}, fmt.Errorf("decode %s: %w", schema.ResultArtifact, err)
	}
	if len(probs) < 2 {
		return schema.ClassificationResult{}, &contract.MalformedRecordError{Kind: resultKind, Position: len(probs), Field: "probability"}
	}

	var out [2]float64
	for i := range out {
		var n schema.Number
		if err := json.Unmarshal(probs[i], &n); err != nil {
			return schema.ClassificationResult{}, &contract.MalformedRecordError{Kind: resultKind, Position: i, Field: "probability"}
		}
		out[i] = n.Float64()
	}
	return schema.ClassificationResult{NonRisky: out[0], Risky: out[1]}, nil
}

// DecodeFeatures decodes importances.json, keeping the published order.
// Numeric fields may arrive as numbers or numeric strings. The four
// percentile fields are optional and default to zero.
func DecodeFeatures(data []byte) ([]schema.FeatureRecord, error) {
	records, err := decodeRecords(data, schema.FeatureArtifact)
	if err != nil {
		return nil, err
	}

	features := make([]schema.FeatureRecord, 0, len(records))
	for pos, rec := range records {
		f, err := decodeFeature(rec)
		if err != nil {
			return nil, &contract.MalformedRecordError{Kind: featureKind, Position: pos, Field: err.Error()}
		}
		features = append(features, f)
	}
	return features, nil
}

func decodeFeature(rec rawRecord) (schema.FeatureRecord, error) {
	var f schema.FeatureRecord
	var err error

	index, err := requireNumber(rec, "index")
	if err != nil {
		return f, err
	}
	if index != math.Trunc(index) || index < 0 {
		return f, fmt.Errorf("index")
	}
	f.Index = int(index)

	if f.Name, err = requireString(rec, "name"); err != nil {
		return f, err
	}
	if f.Value, err = requireNumber(rec, "value"); err != nil {
		return f, err
	}
	if f.ShapValue, err = requireNumber(rec, "shap"); err != nil {
		return f, err
	}
	if f.Monotonicity, err = decodeSpearman(rec); err != nil {
		return f, err
	}
	if f.MedianBugIntroducing, err = requireNumber(rec, "median_bug_introducing"); err != nil {
		return f, err
	}
	if f.MedianClean, err = requireNumber(rec, "median_clean"); err != nil {
		return f, err
	}

	optional := []struct {
		field string
		dst   *float64
	}{
		{"perc_buggy_values_higher_than_median", &f.PercentileBuggyHigher},
		{"perc_buggy_values_lower_than_median", &f.PercentileBuggyLower},
		{"perc_clean_values_higher_than_median", &f.PercentileCleanHigher},
		{"perc_clean_values_lower_than_median", &f.PercentileCleanLower},
	}
	for _, o := range optional {
		if *o.dst, err = optionalNumber(rec, o.field); err != nil {
			return f, err
		}
	}

	if raw, ok := rec["plot"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &f.Plot); err != nil {
			return f, fmt.Errorf("plot")
		}
	}
	return f, nil
}

// decodeSpearman reads the monotonicity coefficient. The task publishes
// [coefficient, p-value] but a bare number is accepted too.
func decodeSpearman(rec rawRecord) (float64, error) {
	raw, ok := rec["spearman"]
	if !ok || isNull(raw) {
		return 0, fmt.Errorf("spearman")
	}

	var pair []schema.Number
	if err := json.Unmarshal(raw, &pair); err == nil {
		if len(pair) == 0 {
			return 0, fmt.Errorf("spearman")
		}
		return pair[0].Float64(), nil
	}

	var n schema.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("spearman")
	}
	return n.Float64(), nil
}

// DecodeMethods decodes method_level.json. Every method the model looked
// at is returned; use schema.FilterPredicted to keep the risky ones.
func DecodeMethods(data []byte) ([]schema.MethodRiskRecord, error) {
	records, err := decodeRecords(data, schema.MethodArtifact)
	if err != nil {
		return nil, err
	}

	methods := make([]schema.MethodRiskRecord, 0, len(records))
	for pos, rec := range records {
		m, err := decodeMethod(rec)
		if err != nil {
			return nil, &contract.MalformedRecordError{Kind: methodKind, Position: pos, Field: err.Error()}
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func decodeMethod(rec rawRecord) (schema.MethodRiskRecord, error) {
	var m schema.MethodRiskRecord
	var err error

	if m.FileName, err = requireString(rec, "file_name"); err != nil {
		return m, err
	}
	if m.MethodName, err = requireString(rec, "method_name"); err != nil {
		return m, err
	}

	start, err := requireNumber(rec, "method_start_line")
	if err != nil {
		return m, err
	}
	if start != math.Trunc(start) {
		return m, fmt.Errorf("method_start_line")
	}
	m.StartLine = int(start)

	if m.Confidence, err = requireNumber(rec, "prediction_true"); err != nil {
		return m, err
	}

	if raw, ok := rec["prediction"]; ok && !isNull(raw) {
		var prediction string
		if err := json.Unmarshal(raw, &prediction); err != nil {
			return m, fmt.Errorf("prediction")
		}
		m.Predicted = prediction == predictedTrue
	}
	return m, nil
}

func decodeRecords(data []byte, artifact schema.Artifact) ([]rawRecord, error) {
	var records []rawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", artifact, err)
	}
	return records, nil
}

func requireNumber(rec rawRecord, field string) (float64, error) {
	raw, ok := rec[field]
	if !ok || isNull(raw) {
		return 0, fmt.Errorf("%s", field)
	}
	var n schema.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%s", field)
	}
	return n.Float64(), nil
}

func optionalNumber(rec rawRecord, field string) (float64, error) {
	raw, ok := rec[field]
	if !ok || isNull(raw) {
		return 0, nil
	}
	return requireNumber(rec, field)
}

func requireString(rec rawRecord, field string) (string, error) {
	raw, ok := rec[field]
	if !ok || isNull(raw) {
		return "", fmt.Errorf("%s", field)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s", field)
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
