package schema

import "time"

// ReviewRunRecord represents a row from the patchrisk_review_runs table.
type ReviewRunRecord struct {
	RunID            int64
	RunUUID          string
	DiffID           string
	StartTime        time.Time
	EndTime          *time.Time
	RunDurationMs    *int32
	Label            *string
	Confidence       *int32
	TotalAnnotations int32
	ConfigParams     *string
}

// ExplainedFeatureRecord represents a row from the patchrisk_explained_features table.
type ExplainedFeatureRecord struct {
	RunID        int64
	FeatureIndex int32
	Name         string
	ShapValue    float64
	Value        float64
	Qualifier    string
	Percent      int32
	Risky        bool
	SegmentStart float64
	SegmentEnd   float64
}

// MethodAnnotationRecord represents a row from the patchrisk_method_annotations table.
type MethodAnnotationRecord struct {
	RunID      int64
	FileName   string
	MethodName string
	StartLine  int32
	AnchorLine int32
	Confidence int32
}
