// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"io"
	"time"

	"github.com/huangsam/patchrisk/schema"
)

// RiskSource retrieves the artifacts published by the classification task for a diff.
// This allows the passes to be tested without a network.
type RiskSource interface {
	// FetchResult returns the two-class probability for the diff.
	FetchResult(ctx context.Context, diffID string) (schema.ClassificationResult, error)

	// FetchFeatures returns the feature records ranked by importance.
	FetchFeatures(ctx context.Context, diffID string) ([]schema.FeatureRecord, error)

	// FetchMethods returns every method the model looked at, predicted risky or not.
	FetchMethods(ctx context.Context, diffID string) ([]schema.MethodRiskRecord, error)
}

// Document is a read-only view of a review page or a patch.
type Document interface {
	// Headings returns the page headings in document order.
	Headings() []schema.Heading

	// FileBlocks returns the changed files in display order.
	FileBlocks() []schema.FileBlock
}

// MutableDocument is a Document the passes can write into.
type MutableDocument interface {
	Document

	// InsertVerdictBox places the verdict box right after the box holding the anchor heading.
	InsertVerdictBox(anchor schema.Heading, box schema.VerdictBox) error

	// InsertAnnotation places an inline row right after the annotation's anchor line.
	InsertAnnotation(a schema.MethodAnnotation) error

	// Render writes the document back out.
	Render(w io.Writer) error
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetArtifactStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking review runs.
type AnalysisStore interface {
	// BeginReview creates a new review run and returns its ID
	BeginReview(startTime time.Time, runUUID, diffID string, configParams map[string]any) (int64, error)

	// EndReview updates the review run with completion data
	EndReview(runID int64, endTime time.Time, totalAnnotations int) error

	// RecordVerdict stores the verdict of the overall pass
	RecordVerdict(runID int64, verdict schema.Verdict) error

	// RecordExplanations stores the explained features with their waterfall segments
	RecordExplanations(runID int64, explanations []schema.Explanation, layout schema.WaterfallLayout) error

	// RecordAnnotations stores the annotations placed by the method pass
	RecordAnnotations(runID int64, annotations []schema.MethodAnnotation) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllReviewRuns returns every tracked review run
	GetAllReviewRuns() ([]schema.ReviewRunRecord, error)

	// GetAllExplainedFeatures returns every tracked explanation
	GetAllExplainedFeatures() ([]schema.ExplainedFeatureRecord, error)

	// GetAllMethodAnnotations returns every tracked annotation
	GetAllMethodAnnotations() ([]schema.MethodAnnotationRecord, error)

	// Close closes the underlying connection
	Close() error
}
