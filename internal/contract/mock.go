package contract

import (
	"context"

	"github.com/huangsam/patchrisk/schema"
	"github.com/stretchr/testify/mock"
)

// MockRiskSource is a mock type for the RiskSource type.
type MockRiskSource struct {
	mock.Mock
}

var _ RiskSource = &MockRiskSource{} // Compile-time check

// FetchResult implements the RiskSource interface.
func (m *MockRiskSource) FetchResult(ctx context.Context, diffID string) (schema.ClassificationResult, error) {
	ret := m.Called(ctx, diffID)
	result, _ := ret.Get(0).(schema.ClassificationResult)
	return result, ret.Error(1)
}

// FetchFeatures implements the RiskSource interface.
func (m *MockRiskSource) FetchFeatures(ctx context.Context, diffID string) ([]schema.FeatureRecord, error) {
	ret := m.Called(ctx, diffID)
	features, _ := ret.Get(0).([]schema.FeatureRecord)
	return features, ret.Error(1)
}

// FetchMethods implements the RiskSource interface.
func (m *MockRiskSource) FetchMethods(ctx context.Context, diffID string) ([]schema.MethodRiskRecord, error) {
	ret := m.Called(ctx, diffID)
	methods, _ := ret.Get(0).([]schema.MethodRiskRecord)
	return methods, ret.Error(1)
}
