package outwriter

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
)

// LogReviewHeader prints a concise, 2-line header for a review pass to stderr.
func LogReviewHeader(cfg *contract.Config, diffID, pass string) {
	writeReviewHeader(os.Stderr, cfg, diffID, pass)
}

func writeReviewHeader(w io.Writer, cfg *contract.Config, diffID, pass string) {
	host := "unknown"
	if u, err := url.Parse(cfg.ArtifactURL); err == nil && u.Host != "" {
		host = u.Host
	}

	// Line 1: The diff and where its artifacts come from
	_, _ = fmt.Fprintf(w, "🔎 Diff: %s (Pass: %s, Source: %s)\n", diffID, pass, host)

	// Line 2: The narrative settings in effect
	_, _ = fmt.Fprintf(w, "🧾 Narrative: up to %d features, evidence ≥ %.0f%%\n",
		cfg.Narrative.MaxExplained, cfg.Narrative.PercentileThreshold*100)
}

// LogVerdict prints the verdict heading as soon as it is known, before explanations arrive.
func LogVerdict(report schema.VerdictReport) {
	_, _ = fmt.Fprintf(os.Stderr, "⚖️  %s\n", report.Heading)
}

// WriteDocument renders an augmented page to the configured output file, or stdout.
func WriteDocument(doc contract.MutableDocument, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, doc.Render, "Wrote page")
}
