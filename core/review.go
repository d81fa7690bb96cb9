package core

import (
	"context"
	"fmt"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/internal/outwriter"
	"github.com/huangsam/patchrisk/internal/page"
	"github.com/huangsam/patchrisk/schema"
)

// ReviewSummary is what a review did to a page.
type ReviewSummary struct {
	Target    schema.Target
	RunUUID   string
	Verdict   *schema.VerdictReport // nil when the overall pass produced nothing
	Methods   *schema.MethodReport  // nil when the method pass failed
	Inserted  int                   // annotations placed on the page
	PassError []error
}

// ReviewDocument runs both passes against a review page and writes their
// results into it. The page must name a diff and carry a "Diff Detail" box.
//
// The passes are independent. A failing pass is logged and leaves the page
// as it was, and the other pass still runs. A verdict whose features failed
// is still inserted with its heading and an empty graph.
func ReviewDocument(ctx context.Context, cfg *contract.Config, src contract.RiskSource, store contract.AnalysisStore, doc contract.MutableDocument) (ReviewSummary, error) {
	target, err := page.DiscoverTarget(doc)
	if err != nil {
		return ReviewSummary{}, err
	}

	summary := ReviewSummary{Target: target}
	tracker := beginTracking(store, cfg, target.DiffID, reviewPass)
	summary.RunUUID = tracker.UUID()
	if summary.RunUUID != "" {
		ctx = withRunUUID(ctx, summary.RunUUID)
	}

	if !shouldSuppressHeader(ctx) {
		outwriter.LogReviewHeader(cfg, target.DiffID, reviewPass)
	}

	if err := reviewOverall(ctx, cfg, src, doc, target, tracker, &summary); err != nil {
		logPassFailure(ctx, "Overall pass", err)
		summary.PassError = append(summary.PassError, err)
	}
	if err := reviewMethods(ctx, src, doc, target, tracker, &summary); err != nil {
		logPassFailure(ctx, "Method pass", err)
		summary.PassError = append(summary.PassError, err)
	}

	tracker.end(summary.Inserted)
	return summary, nil
}

func reviewOverall(ctx context.Context, cfg *contract.Config, src contract.RiskSource, doc contract.MutableDocument, target schema.Target, tracker *reviewTracker, summary *ReviewSummary) error {
	onVerdict := outwriter.LogVerdict
	if shouldSuppressHeader(ctx) {
		onVerdict = nil
	}

	report, passErr := RunOverallPass(ctx, cfg, src, target.DiffID, onVerdict)
	if report.Heading == "" {
		return passErr
	}
	summary.Verdict = &report
	tracker.recordVerdict(report)

	box, err := outwriter.RenderVerdictBox(report)
	if err != nil {
		return err
	}
	if err := doc.InsertVerdictBox(target.Anchor, box); err != nil {
		return fmt.Errorf("failed to insert verdict box: %w", err)
	}
	return passErr
}

func reviewMethods(ctx context.Context, src contract.RiskSource, doc contract.MutableDocument, target schema.Target, tracker *reviewTracker, summary *ReviewSummary) error {
	report, err := RunMethodPass(ctx, src, target.DiffID, doc)
	if err != nil {
		return err
	}
	summary.Methods = &report

	placed := make([]schema.MethodAnnotation, 0, len(report.Annotations))
	for _, a := range report.Annotations {
		if err := doc.InsertAnnotation(a); err != nil {
			logPassFailure(ctx, "Annotation for "+a.MethodName, err)
			continue
		}
		placed = append(placed, a)
	}
	summary.Inserted = len(placed)
	tracker.recordAnnotations(placed)
	return nil
}

// logPassFailure logs a pass error, tagged with the run UUID when tracked.
func logPassFailure(ctx context.Context, what string, err error) {
	if runUUID, ok := getRunUUID(ctx); ok {
		what = fmt.Sprintf("%s (run %s)", what, runUUID)
	}
	contract.LogWarn(what+" failed", err)
}
