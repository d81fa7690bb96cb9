package iocache

import (
	"time"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetArtifactStore implements the CacheManager interface.
func (m *MockCacheManager) GetArtifactStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetAnalysisStore implements the CacheManager interface.
func (m *MockCacheManager) GetAnalysisStore() contract.AnalysisStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.AnalysisStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockAnalysisStore is a mock implementation of AnalysisStore for testing.
type MockAnalysisStore struct {
	mock.Mock
}

var _ contract.AnalysisStore = &MockAnalysisStore{} // Compile-time check

// BeginReview implements the AnalysisStore interface.
func (m *MockAnalysisStore) BeginReview(startTime time.Time, runUUID, diffID string, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, runUUID, diffID, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndReview implements the AnalysisStore interface.
func (m *MockAnalysisStore) EndReview(runID int64, endTime time.Time, totalAnnotations int) error {
	args := m.Called(runID, endTime, totalAnnotations)
	return args.Error(0)
}

// RecordVerdict implements the AnalysisStore interface.
func (m *MockAnalysisStore) RecordVerdict(runID int64, verdict schema.Verdict) error {
	args := m.Called(runID, verdict)
	return args.Error(0)
}

// RecordExplanations implements the AnalysisStore interface.
func (m *MockAnalysisStore) RecordExplanations(runID int64, explanations []schema.Explanation, layout schema.WaterfallLayout) error {
	args := m.Called(runID, explanations, layout)
	return args.Error(0)
}

// RecordAnnotations implements the AnalysisStore interface.
func (m *MockAnalysisStore) RecordAnnotations(runID int64, annotations []schema.MethodAnnotation) error {
	args := m.Called(runID, annotations)
	return args.Error(0)
}

// GetStatus implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetStatus() (schema.AnalysisStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.AnalysisStatus), args.Error(1)
}

// GetAllReviewRuns implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetAllReviewRuns() ([]schema.ReviewRunRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.ReviewRunRecord)
	return records, args.Error(1)
}

// GetAllExplainedFeatures implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetAllExplainedFeatures() ([]schema.ExplainedFeatureRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.ExplainedFeatureRecord)
	return records, args.Error(1)
}

// GetAllMethodAnnotations implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetAllMethodAnnotations() ([]schema.MethodAnnotationRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.MethodAnnotationRecord)
	return records, args.Error(1)
}

// Close implements the AnalysisStore interface.
func (m *MockAnalysisStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
