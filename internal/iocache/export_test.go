package iocache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/patchrisk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAnalysis(t *testing.T) {
	label := schema.RiskyLabel
	store := new(MockAnalysisStore)
	store.On("GetStatus").Return(schema.AnalysisStatus{
		Backend:    "sqlite",
		Connected:  true,
		TotalRuns:  1,
		TableSizes: map[string]int64{explainedFeaturesTable: 1},
	}, nil)
	store.On("GetAllReviewRuns").Return([]schema.ReviewRunRecord{
		{RunID: 1, RunUUID: "u", DiffID: "1234", StartTime: time.Now(), Label: &label},
	}, nil)
	store.On("GetAllExplainedFeatures").Return([]schema.ExplainedFeatureRecord{
		{RunID: 1, FeatureIndex: 3, Name: "Number of lines added", Qualifier: "too large", Percent: 72, Risky: true},
	}, nil)
	store.On("GetAllMethodAnnotations").Return([]schema.MethodAnnotationRecord(nil), nil)

	out := filepath.Join(t.TempDir(), "export")
	require.NoError(t, ExportAnalysis(store, out))

	for _, suffix := range []string{".review_runs.parquet", ".explained_features.parquet", ".method_annotations.parquet"} {
		_, err := os.Stat(out + suffix)
		assert.NoError(t, err, suffix)
	}
	store.AssertExpectations(t)
}

func TestExportAnalysisErrors(t *testing.T) {
	t.Run("missing output file", func(t *testing.T) {
		assert.ErrorContains(t, ExportAnalysis(new(MockAnalysisStore), ""), "--output-file")
	})

	t.Run("tracking disabled", func(t *testing.T) {
		assert.ErrorContains(t, ExportAnalysis(nil, "x"), "not configured")
	})

	t.Run("no runs", func(t *testing.T) {
		store := new(MockAnalysisStore)
		store.On("GetStatus").Return(schema.AnalysisStatus{}, nil)
		assert.ErrorContains(t, ExportAnalysis(store, "x"), "no analysis data")
	})

	t.Run("status failure", func(t *testing.T) {
		store := new(MockAnalysisStore)
		store.On("GetStatus").Return(schema.AnalysisStatus{}, errors.New("boom"))
		assert.ErrorContains(t, ExportAnalysis(store, "x"), "boom")
	})
}

func TestExportAnalysisFromSQLite(t *testing.T) {
	store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runID, err := store.BeginReview(time.Now(), "u", "1234", nil)
	require.NoError(t, err)
	explanations, layout := sampleExplanations()
	require.NoError(t, store.RecordExplanations(runID, explanations, layout))
	require.NoError(t, store.EndReview(runID, time.Now(), 0))

	out := filepath.Join(t.TempDir(), "export")
	require.NoError(t, ExportAnalysis(store, out))

	info, err := os.Stat(out + ".explained_features.parquet")
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
