package outwriter

import (
	"encoding/csv"
	"html/template"
	"io"
	"strconv"

	"github.com/huangsam/patchrisk/core/algo"
	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
)

// jsonVerdictResult is the machine-readable form of one overall pass.
type jsonVerdictResult struct {
	DiffID        string                       `json:"diff_id"`
	Heading       string                       `json:"heading"`
	Verdict       schema.Verdict               `json:"verdict"`
	Explanations  []schema.EnrichedExplanation `json:"explanations"`
	Layout        schema.WaterfallLayout       `json:"layout"`
	ImportanceURL string                       `json:"importance_url,omitempty"`
	FeatureError  string                       `json:"feature_error,omitempty"`
}

// writeJSONResultsForVerdicts marshals the reports to JSON with ranked explanations.
func writeJSONResultsForVerdicts(w io.Writer, reports []schema.VerdictReport) error {
	output := make([]jsonVerdictResult, len(reports))
	for i, r := range reports {
		output[i] = jsonVerdictResult{
			DiffID:        r.DiffID,
			Heading:       r.Heading,
			Verdict:       r.Verdict,
			Explanations:  schema.EnrichExplanations(r.Selection.Explanations),
			Layout:        r.Layout,
			ImportanceURL: r.ImportanceURL,
			FeatureError:  r.FeatureError,
		}
	}
	return writeJSON(w, output)
}

// writeHTMLResultsForVerdicts writes a standalone page with one verdict box per diff.
func writeHTMLResultsForVerdicts(w io.Writer, reports []schema.VerdictReport) error {
	entries := make([]verdictPageEntry, 0, len(reports))
	for _, r := range reports {
		box, err := RenderVerdictBox(r)
		if err != nil {
			return err
		}
		entries = append(entries, verdictPageEntry{
			DiffID:  r.DiffID,
			Heading: template.HTML(box.HeadingHTML),
			Body:    template.HTML(box.BodyHTML),
		})
	}
	return verdictPageTemplate.Execute(w, entries)
}

// writeCSVResultsForVerdicts writes one row per explanation. A diff without
// explanations still gets a row carrying its verdict.
func writeCSVResultsForVerdicts(w io.Writer, reports []schema.VerdictReport) error {
	header := []string{
		"diff_id",
		"label",
		"confidence",
		"rank",
		"feature_index",
		"feature",
		"value",
		"shap",
		"branch",
		"qualifier",
		"percent",
		"population",
		"direction",
		"segment_start",
		"segment_end",
		"feature_error",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range reports {
			base := []string{r.DiffID, r.Verdict.Label, strconv.Itoa(r.Verdict.ConfidencePercent)}
			explanations := schema.EnrichExplanations(r.Selection.Explanations)
			if len(explanations) == 0 {
				row := append(base, make([]string, len(header)-len(base)-1)...)
				row = append(row, r.FeatureError)
				if err := cw.Write(row); err != nil {
					return err
				}
				continue
			}
			for _, e := range explanations {
				var start, end string
				if s, ok := findSegment(r.Layout, e.Feature.Index); ok {
					start, end = fmtShap(s.Start), fmtShap(s.End)
				}
				row := append(append([]string{}, base...),
					strconv.Itoa(e.Rank),
					strconv.Itoa(e.Feature.Index),
					e.Feature.Name,
					algo.FormatValue(e.Value),
					fmtShap(e.Feature.ShapValue),
					string(e.Branch),
					e.Qualifier,
					strconv.Itoa(e.Percent),
					e.Population,
					contract.DirectionLabel(e.Risky),
					start,
					end,
					r.FeatureError,
				)
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
