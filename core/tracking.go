package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
)

// Pass names recorded with each run.
const (
	verdictPass = "verdict"
	methodsPass = "methods"
	reviewPass  = "review"
)

// reviewTracker records one review run. A nil tracker records nothing, so
// callers do not need to check whether tracking is configured.
type reviewTracker struct {
	store   contract.AnalysisStore
	runID   int64
	runUUID string
}

// beginTracking starts a tracked run for a diff. It returns nil when no
// analysis store is configured or the run could not be created.
func beginTracking(store contract.AnalysisStore, cfg *contract.Config, diffID, pass string) *reviewTracker {
	if store == nil {
		return nil
	}

	runUUID := uuid.NewString()
	configParams := map[string]any{
		"pass":                 pass,
		"artifact_url":         cfg.ArtifactURL,
		"max_explained":        cfg.Narrative.MaxExplained,
		"percentile_threshold": cfg.Narrative.PercentileThreshold,
		"workers":              cfg.Workers,
	}
	runID, err := store.BeginReview(time.Now(), runUUID, diffID, configParams)
	if err != nil {
		contract.LogWarn("Review tracking initialization failed", err)
		return nil
	}
	if runID <= 0 {
		return nil
	}
	return &reviewTracker{store: store, runID: runID, runUUID: runUUID}
}

// UUID returns the run UUID, or an empty string when untracked.
func (t *reviewTracker) UUID() string {
	if t == nil {
		return ""
	}
	return t.runUUID
}

func (t *reviewTracker) recordVerdict(report schema.VerdictReport) {
	if t == nil {
		return
	}
	if err := t.store.RecordVerdict(t.runID, report.Verdict); err != nil {
		t.warn("RecordVerdict", err)
	}
	if report.FeatureError != "" {
		return
	}
	if err := t.store.RecordExplanations(t.runID, report.Selection.Explanations, report.Layout); err != nil {
		t.warn("RecordExplanations", err)
	}
}

func (t *reviewTracker) recordAnnotations(annotations []schema.MethodAnnotation) {
	if t == nil || len(annotations) == 0 {
		return
	}
	if err := t.store.RecordAnnotations(t.runID, annotations); err != nil {
		t.warn("RecordAnnotations", err)
	}
}

func (t *reviewTracker) end(totalAnnotations int) {
	if t == nil {
		return
	}
	if err := t.store.EndReview(t.runID, time.Now(), totalAnnotations); err != nil {
		t.warn("EndReview", err)
	}
}

func (t *reviewTracker) warn(op string, err error) {
	contract.LogWarn(fmt.Sprintf("Failed to track %s (run %s)", op, t.runUUID), err)
}
