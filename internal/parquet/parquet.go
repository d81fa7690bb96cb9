// Package parquet provides data structures and functions for exporting tracked
// review runs to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/patchrisk/schema"
	"github.com/parquet-go/parquet-go"
)

// ReviewRun represents one review of a diff with its verdict.
// This struct maps to the patchrisk_review_runs database table.
type ReviewRun struct {
	// RunID is the unique identifier for this review run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID correlates the run with its log lines
	RunUUID string `parquet:"run_uuid,snappy"`

	// DiffID is the Phabricator diff that was reviewed
	DiffID string `parquet:"diff_id,snappy"`

	// StartTime is when the review began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the review completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the review in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// Label is "Risky" or "Not risky" (nullable when the overall pass failed)
	Label *string `parquet:"label,optional,snappy"`

	// Confidence is the verdict confidence in percent (nullable)
	Confidence *int32 `parquet:"confidence,optional,snappy"`

	// TotalAnnotations is the number of inline annotations placed
	TotalAnnotations int32 `parquet:"total_annotations,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ExplainedFeature is one narrated feature of a review run.
// This struct maps to the patchrisk_explained_features database table.
type ExplainedFeature struct {
	RunID        int64   `parquet:"run_id,snappy"`
	FeatureIndex int32   `parquet:"feature_index,snappy"`
	Name         string  `parquet:"name,snappy"`
	ShapValue    float64 `parquet:"shap_value,snappy"`
	Value        float64 `parquet:"value,snappy"`
	Qualifier    string  `parquet:"qualifier,snappy"`
	Percent      int32   `parquet:"percent,snappy"`
	Risky        bool    `parquet:"risky,snappy"`

	// SegmentStart and SegmentEnd place the feature on the waterfall axis
	SegmentStart float64 `parquet:"segment_start,snappy"`
	SegmentEnd   float64 `parquet:"segment_end,snappy"`
}

// MethodAnnotation is one inline note placed by a review run.
// This struct maps to the patchrisk_method_annotations database table.
type MethodAnnotation struct {
	RunID      int64  `parquet:"run_id,snappy"`
	FileName   string `parquet:"file_name,snappy"`
	MethodName string `parquet:"method_name,snappy"`
	StartLine  int32  `parquet:"start_line,snappy"`
	AnchorLine int32  `parquet:"anchor_line,snappy"`
	Confidence int32  `parquet:"confidence,snappy"`
}

// WriteReviewRunsParquet writes a slice of ReviewRun structs to a Parquet file.
func WriteReviewRunsParquet(data []ReviewRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteExplainedFeaturesParquet writes a slice of ExplainedFeature structs to a Parquet file.
func WriteExplainedFeaturesParquet(data []ExplainedFeature, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteMethodAnnotationsParquet writes a slice of MethodAnnotation structs to a Parquet file.
func WriteMethodAnnotationsParquet(data []MethodAnnotation, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet derives the schema from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	// Close flushes the row groups and the footer
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertReviewRunRecords converts schema.ReviewRunRecord to ReviewRun for Parquet export.
func ConvertReviewRunRecords(records []schema.ReviewRunRecord) []ReviewRun {
	result := make([]ReviewRun, len(records))
	for i, record := range records {
		result[i] = ReviewRun{
			RunID:            record.RunID,
			RunUUID:          record.RunUUID,
			DiffID:           record.DiffID,
			StartTime:        record.StartTime,
			EndTime:          record.EndTime,
			RunDurationMs:    record.RunDurationMs,
			Label:            record.Label,
			Confidence:       record.Confidence,
			TotalAnnotations: record.TotalAnnotations,
			ConfigParams:     record.ConfigParams,
		}
	}
	return result
}

// ConvertExplainedFeatureRecords converts schema.ExplainedFeatureRecord to ExplainedFeature for Parquet export.
func ConvertExplainedFeatureRecords(records []schema.ExplainedFeatureRecord) []ExplainedFeature {
	result := make([]ExplainedFeature, len(records))
	for i, record := range records {
		result[i] = ExplainedFeature{
			RunID:        record.RunID,
			FeatureIndex: record.FeatureIndex,
			Name:         record.Name,
			ShapValue:    record.ShapValue,
			Value:        record.Value,
			Qualifier:    record.Qualifier,
			Percent:      record.Percent,
			Risky:        record.Risky,
			SegmentStart: record.SegmentStart,
			SegmentEnd:   record.SegmentEnd,
		}
	}
	return result
}

// ConvertMethodAnnotationRecords converts schema.MethodAnnotationRecord to MethodAnnotation for Parquet export.
func ConvertMethodAnnotationRecords(records []schema.MethodAnnotationRecord) []MethodAnnotation {
	result := make([]MethodAnnotation, len(records))
	for i, record := range records {
		result[i] = MethodAnnotation(record)
	}
	return result
}

// MockFetchReviewRuns generates sample ReviewRun data for demonstration.
func MockFetchReviewRuns() []ReviewRun {
	now := time.Now()
	start1 := now.Add(-2 * time.Hour)
	end1 := start1.Add(1800 * time.Millisecond)
	duration1 := int32(1800)
	risky := schema.RiskyLabel
	confidence1 := int32(80)
	config1 := `{"max_explained":5,"percentile_threshold":0.55}`

	start2 := now.Add(-10 * time.Minute)

	return []ReviewRun{
		{
			RunID:            1,
			RunUUID:          "0d6f5a8e-7c55-4b1e-a0c6-3f2e9d8a1b47",
			DiffID:           "1234",
			StartTime:        start1,
			EndTime:          &end1,
			RunDurationMs:    &duration1,
			Label:            &risky,
			Confidence:       &confidence1,
			TotalAnnotations: 2,
			ConfigParams:     &config1,
		},
		{
			RunID:     2,
			RunUUID:   "5b2c9e41-1f3a-4d7b-8e60-b4a2c7d9e013",
			DiffID:    "5678",
			StartTime: start2,
			// Still running - nullable fields stay nil
		},
	}
}

// MockFetchExplainedFeatures generates sample ExplainedFeature data for demonstration.
func MockFetchExplainedFeatures() []ExplainedFeature {
	return []ExplainedFeature{
		{RunID: 1, FeatureIndex: 3, Name: "Number of lines added", ShapValue: 0.4, Value: 412, Qualifier: "too large", Percent: 72, Risky: true, SegmentStart: 0, SegmentEnd: 0.4},
		{RunID: 1, FeatureIndex: 8, Name: "Author experience", ShapValue: -0.1, Value: 540, Qualifier: "large", Percent: 56, Risky: false, SegmentStart: 0.4, SegmentEnd: 0.5},
	}
}
