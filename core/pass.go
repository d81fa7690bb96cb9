package core

import (
	"context"
	"fmt"

	"github.com/huangsam/patchrisk/core/algo"
	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
)

// RunOverallPass fetches the classification result and the feature records
// together, then interprets them.
//
// onVerdict, when not nil, receives the report as soon as the verdict is
// known and before the features are awaited. If only the features fail, the
// returned report still carries the verdict, FeatureError is set and the
// error is returned alongside it.
func RunOverallPass(ctx context.Context, cfg *contract.Config, src contract.RiskSource, diffID string, onVerdict func(schema.VerdictReport)) (schema.VerdictReport, error) {
	report := schema.VerdictReport{DiffID: diffID}
	if diffID == "" {
		return report, &contract.PreconditionError{What: contract.MissingDiffID}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultFuture := prefetch(ctx, func(ctx context.Context) (schema.ClassificationResult, error) {
		return src.FetchResult(ctx, diffID)
	})
	featureFuture := prefetch(ctx, func(ctx context.Context) ([]schema.FeatureRecord, error) {
		return src.FetchFeatures(ctx, diffID)
	})

	result, err := resultFuture.await(ctx)
	if err != nil {
		return report, fmt.Errorf("overall pass for diff %s: %w", diffID, err)
	}

	report.Verdict = algo.Classify(result)
	report.Heading = algo.Heading(report.Verdict)
	report.ImportanceURL = cfg.ImportanceURL
	if onVerdict != nil {
		onVerdict(report)
	}

	features, err := featureFuture.await(ctx)
	if err != nil {
		report.FeatureError = err.Error()
		return report, fmt.Errorf("overall pass for diff %s: %w", diffID, err)
	}

	report.Selection = algo.SelectNarratives(features, cfg.Narrative)
	report.Layout = algo.LayoutWaterfall(report.Selection.Explained)
	return report, nil
}

// RunMethodPass fetches the method-level predictions and places the risky
// ones on the numbered lines of doc.
func RunMethodPass(ctx context.Context, src contract.RiskSource, diffID string, doc contract.Document) (schema.MethodReport, error) {
	report := schema.MethodReport{DiffID: diffID}
	if diffID == "" {
		return report, &contract.PreconditionError{What: contract.MissingDiffID}
	}

	methodFuture := prefetch(ctx, func(ctx context.Context) ([]schema.MethodRiskRecord, error) {
		return src.FetchMethods(ctx, diffID)
	})
	methods, err := methodFuture.await(ctx)
	if err != nil {
		return report, fmt.Errorf("method pass for diff %s: %w", diffID, err)
	}

	report.Annotations, report.Unmatched = algo.MatchMethods(schema.FilterPredicted(methods), doc.FileBlocks())
	return report, nil
}
