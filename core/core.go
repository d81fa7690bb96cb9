// Package core runs the overall and method passes over diffs and review pages.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/internal/outwriter"
	"github.com/huangsam/patchrisk/internal/page"
	"github.com/huangsam/patchrisk/internal/taskcluster"
	"github.com/huangsam/patchrisk/schema"
	"golang.org/x/sync/errgroup"
)

// ExecutorFunc defines the function signature for executing different review modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, args []string) error

var (
	_ ExecutorFunc = ExecuteVerdict
	_ ExecutorFunc = ExecuteMethods
	_ ExecutorFunc = ExecuteReview
)

// ErrNoDocument is returned when the method pass has neither a patch nor a page to annotate.
var ErrNoDocument = errors.New("--patch or --page is required")

// ExecuteVerdict runs the overall pass for every diff and prints the reports
// in argument order. It serves as the main entry point for the 'verdict' mode.
//
// A diff whose result cannot be retrieved fails the whole run. A diff whose
// features cannot be retrieved is reported with its verdict only.
func ExecuteVerdict(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, diffIDs []string) error {
	if len(diffIDs) == 0 {
		return &contract.PreconditionError{What: contract.MissingDiffID}
	}

	start := time.Now()
	src := taskcluster.NewClient(cfg, mgr.GetArtifactStore())
	store := mgr.GetAnalysisStore()

	if !shouldSuppressHeader(ctx) {
		for _, diffID := range diffIDs {
			outwriter.LogReviewHeader(cfg, diffID, verdictPass)
		}
	}

	reports := make([]schema.VerdictReport, len(diffIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, diffID := range diffIDs {
		g.Go(func() error {
			report, err := runTrackedVerdict(gctx, cfg, src, store, diffID)
			if report.Heading == "" {
				return err
			}
			if err != nil {
				contract.LogWarn("Explanations unavailable for diff "+diffID, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	duration := time.Since(start)
	return outwriter.NewOutWriter().WriteVerdicts(reports, cfg, duration)
}

// runTrackedVerdict is RunOverallPass with the run recorded in store.
func runTrackedVerdict(ctx context.Context, cfg *contract.Config, src contract.RiskSource, store contract.AnalysisStore, diffID string) (schema.VerdictReport, error) {
	tracker := beginTracking(store, cfg, diffID, verdictPass)
	defer tracker.end(0)

	report, err := RunOverallPass(ctx, cfg, src, diffID, nil)
	if report.Heading != "" {
		tracker.recordVerdict(report)
	}
	return report, err
}

// GetVerdictResults runs the tracked overall pass for one diff without printing.
// A report is returned whenever the verdict is known, even if err is set.
func GetVerdictResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, diffID string) (schema.VerdictReport, error) {
	src := taskcluster.NewClient(cfg, mgr.GetArtifactStore())
	return runTrackedVerdict(ctx, cfg, src, mgr.GetAnalysisStore(), diffID)
}

// GetMethodResults runs the tracked method pass for one diff against doc without printing.
func GetMethodResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, diffID string, doc contract.Document) (schema.MethodReport, error) {
	src := taskcluster.NewClient(cfg, mgr.GetArtifactStore())
	tracker := beginTracking(mgr.GetAnalysisStore(), cfg, diffID, methodsPass)
	report, err := RunMethodPass(ctx, src, diffID, doc)
	if err != nil {
		tracker.end(0)
		return report, err
	}
	tracker.recordAnnotations(report.Annotations)
	tracker.end(len(report.Annotations))
	return report, nil
}

// ExecuteMethods runs the method pass for one diff against the patch or
// saved page named in cfg, then prints where each risky method landed.
// It serves as the main entry point for the 'methods' mode.
func ExecuteMethods(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, args []string) error {
	start := time.Now()
	diffID := firstArg(args)
	if diffID == "" {
		return &contract.PreconditionError{What: contract.MissingDiffID}
	}

	doc, err := loadDocument(cfg)
	if err != nil {
		return err
	}

	if !shouldSuppressHeader(ctx) {
		outwriter.LogReviewHeader(cfg, diffID, methodsPass)
	}

	report, err := GetMethodResults(ctx, cfg, mgr, diffID, doc)
	if err != nil {
		return err
	}

	duration := time.Since(start)
	return outwriter.NewOutWriter().WriteMethods(report, cfg, duration)
}

// loadDocument opens the patch or, failing that, the saved page from cfg.
func loadDocument(cfg *contract.Config) (contract.Document, error) {
	switch {
	case cfg.PatchFile != "":
		f, err := os.Open(cfg.PatchFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open patch: %w", err)
		}
		defer func() { _ = f.Close() }()
		doc, err := page.ParsePatch(f)
		if err != nil {
			return nil, err
		}
		return doc, nil
	case cfg.PageFile != "":
		f, err := os.Open(cfg.PageFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open page: %w", err)
		}
		defer func() { _ = f.Close() }()
		doc, err := page.ParseHTML(f)
		if err != nil {
			return nil, err
		}
		return doc, nil
	default:
		return nil, ErrNoDocument
	}
}

// ExecuteReview augments a saved review page with the verdict box and the
// method annotations, then writes the page out. It serves as the main entry
// point for the 'review' mode.
func ExecuteReview(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, args []string) error {
	start := time.Now()
	pagePath := firstArg(args)
	if pagePath == "" {
		return errors.New("a saved review page is required")
	}

	f, err := os.Open(pagePath)
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	doc, err := page.ParseHTML(f)
	_ = f.Close()
	if err != nil {
		return err
	}

	src := taskcluster.NewClient(cfg, mgr.GetArtifactStore())
	summary, err := ReviewDocument(ctx, cfg, src, mgr.GetAnalysisStore(), doc)
	if err != nil {
		return err
	}

	if err := outwriter.WriteDocument(doc, cfg); err != nil {
		return err
	}

	if !shouldSuppressHeader(ctx) {
		contract.LogInfo(summaryLine(summary, time.Since(start)))
	}
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func summaryLine(s ReviewSummary, duration time.Duration) string {
	verdict := "no verdict"
	if s.Verdict != nil {
		verdict = s.Verdict.Verdict.Label
	}
	unmatched := 0
	if s.Methods != nil {
		unmatched = len(s.Methods.Unmatched)
	}
	return fmt.Sprintf("Diff %s reviewed in %v: %s, %d annotations (%d unmatched), %d pass errors",
		s.Target.DiffID, duration, verdict, s.Inserted, unmatched, len(s.PassError))
}
