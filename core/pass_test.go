package core

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// sampleFeatures has two explainable features and one whose evidence is too weak.
func sampleFeatures() []schema.FeatureRecord {
	return []schema.FeatureRecord{
		{
			Index: 3, Name: "Number of lines added", Value: 412, ShapValue: 0.3, Monotonicity: 0.2,
			MedianBugIntroducing: 300, MedianClean: 40, PercentileBuggyHigher: 0.72,
		},
		{
			Index: 9, Name: "Files touched", Value: 9, ShapValue: 0.1, Monotonicity: 0.4,
			MedianBugIntroducing: 8, MedianClean: 2, PercentileBuggyHigher: 0.4,
		},
		{
			Index: 5, Name: "Author experience", Value: 540, ShapValue: -0.05, Monotonicity: -0.3,
			MedianBugIntroducing: 12, MedianClean: 480, PercentileCleanHigher: 0.61,
		},
	}
}

func testPassConfig() *contract.Config {
	return &contract.Config{
		ArtifactURL:   "https://artifacts.example.com/{diff}/{artifact}",
		ImportanceURL: "https://artifacts.example.com/importance.png",
		Narrative:     schema.DefaultNarrativeConfig(),
		Workers:       2,
	}
}

func TestRunOverallPass(t *testing.T) {
	src := &contract.MockRiskSource{}
	src.On("FetchResult", mock.Anything, "1234").Return(schema.ClassificationResult{NonRisky: 0.2, Risky: 0.8}, nil)
	src.On("FetchFeatures", mock.Anything, "1234").Return(sampleFeatures(), nil)

	var early []schema.VerdictReport
	report, err := RunOverallPass(context.Background(), testPassConfig(), src, "1234", func(r schema.VerdictReport) {
		early = append(early, r)
	})
	require.NoError(t, err)

	assert.Equal(t, "1234", report.DiffID)
	assert.Equal(t, schema.RiskyLabel, report.Verdict.Label)
	assert.Equal(t, 80, report.Verdict.ConfidencePercent)
	assert.Equal(t, "Diff Risk Analysis - Risky with 80% confidence", report.Heading)
	assert.Equal(t, "https://artifacts.example.com/importance.png", report.ImportanceURL)
	assert.Empty(t, report.FeatureError)

	require.Len(t, report.Selection.Explanations, 2)
	assert.Equal(t, 3, report.Selection.Explanations[0].Feature.Index)
	assert.Equal(t, 5, report.Selection.Explanations[1].Feature.Index)
	assert.False(t, report.Selection.IsChosen(9))
	require.Len(t, report.Layout.Segments, 2)
	assert.Equal(t, 3, report.Layout.Segments[0].Feature.Index, "risk-increasing segments come first")

	require.Len(t, early, 1, "verdict should be announced once")
	assert.Equal(t, report.Heading, early[0].Heading)
	assert.Empty(t, early[0].Selection.Explanations, "verdict is announced before explanations")

	src.AssertExpectations(t)
}

func TestRunOverallPassResultFailure(t *testing.T) {
	src := &contract.MockRiskSource{}
	retrievalErr := &contract.RetrievalError{Artifact: schema.ResultArtifact, DiffID: "1234", StatusCode: 404}
	src.On("FetchResult", mock.Anything, "1234").Return(schema.ClassificationResult{}, retrievalErr)
	src.On("FetchFeatures", mock.Anything, "1234").Return(nil, context.Canceled).Maybe()

	called := false
	report, err := RunOverallPass(context.Background(), testPassConfig(), src, "1234", func(schema.VerdictReport) {
		called = true
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrResultRetrieval)
	assert.Empty(t, report.Heading)
	assert.False(t, called)
}

func TestRunOverallPassFeatureFailure(t *testing.T) {
	src := &contract.MockRiskSource{}
	featureErr := &contract.RetrievalError{Artifact: schema.FeatureArtifact, DiffID: "1234", StatusCode: 500}
	src.On("FetchResult", mock.Anything, "1234").Return(schema.ClassificationResult{NonRisky: 0.7, Risky: 0.3}, nil)
	src.On("FetchFeatures", mock.Anything, "1234").Return(nil, featureErr)

	report, err := RunOverallPass(context.Background(), testPassConfig(), src, "1234", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrFeatureRetrieval)
	assert.Equal(t, "Diff Risk Analysis - Not risky with 70% confidence", report.Heading)
	assert.Contains(t, report.FeatureError, contract.ErrFeatureRetrieval.Error())
	assert.Empty(t, report.Selection.Explanations)
	assert.Empty(t, report.Layout.Segments)
}

func TestRunOverallPassMissingDiffID(t *testing.T) {
	src := &contract.MockRiskSource{}
	_, err := RunOverallPass(context.Background(), testPassConfig(), src, "", nil)

	var precondition *contract.PreconditionError
	require.True(t, errors.As(err, &precondition))
	assert.Equal(t, contract.MissingDiffID, precondition.What)
	src.AssertNotCalled(t, "FetchResult", mock.Anything, mock.Anything)
}

// stubDocument is a fixed Document for the method pass.
type stubDocument struct {
	blocks []schema.FileBlock
}

func (d stubDocument) Headings() []schema.Heading     { return nil }
func (d stubDocument) FileBlocks() []schema.FileBlock { return d.blocks }

func numbered(numbers ...int) []schema.DisplayLine {
	lines := make([]schema.DisplayLine, len(numbers))
	for i, n := range numbers {
		lines[i] = schema.DisplayLine{Number: n, HasNumber: true, Ref: i}
	}
	return lines
}

func TestRunMethodPass(t *testing.T) {
	src := &contract.MockRiskSource{}
	src.On("FetchMethods", mock.Anything, "1234").Return([]schema.MethodRiskRecord{
		{FileName: "a.cpp", MethodName: "foo", StartLine: 14, Confidence: 0.81, Predicted: true},
		{FileName: "a.cpp", MethodName: "bar", StartLine: 2, Confidence: 0.2, Predicted: false},
		{FileName: "c.cpp", MethodName: "gone", StartLine: 5, Confidence: 0.66, Predicted: true},
	}, nil)

	doc := stubDocument{blocks: []schema.FileBlock{
		{FileName: "a.cpp", Lines: numbered(3, 15, 20)},
	}}

	report, err := RunMethodPass(context.Background(), src, "1234", doc)
	require.NoError(t, err)

	require.Len(t, report.Annotations, 1)
	a := report.Annotations[0]
	assert.Equal(t, "foo", a.MethodName)
	assert.Equal(t, 15, a.AnchorLine)
	assert.Equal(t, 81, a.ConfidencePercent)
	assert.Equal(t, "The function 'foo' is risky (81% confidence).", a.Text)

	require.Len(t, report.Unmatched, 1)
	assert.Equal(t, "gone", report.Unmatched[0].MethodName)
	src.AssertExpectations(t)
}

func TestRunMethodPassFailure(t *testing.T) {
	src := &contract.MockRiskSource{}
	methodErr := &contract.RetrievalError{Artifact: schema.MethodArtifact, DiffID: "1234"}
	src.On("FetchMethods", mock.Anything, "1234").Return(nil, methodErr)

	report, err := RunMethodPass(context.Background(), src, "1234", stubDocument{})
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrMethodRetrieval)
	assert.Empty(t, report.Annotations)
}
