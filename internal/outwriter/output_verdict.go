package outwriter

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/patchrisk/core/algo"
	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var verdictPageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Diff Risk Analysis</title></head>
<body>
{{- range .}}
<div class="phui-object-box" data-diff-id="{{.DiffID}}">
<div class="phui-header-shell"><h1 class="phui-header-view"><span class="phui-header-header">{{.Heading}}</span></h1></div>
<div data-sigil="phui-tab-group-view">{{.Body}}</div>
</div>
{{- end}}
</body>
</html>
`))

type verdictPageEntry struct {
	DiffID  string
	Heading template.HTML
	Body    template.HTML
}

// PrintVerdictResults outputs the overall pass reports, dispatching based on the output format configured.
func PrintVerdictResults(reports []schema.VerdictReport, cfg *contract.Config, duration time.Duration) error {
	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := printJSONResultsForVerdicts(reports, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := printCSVResultsForVerdicts(reports, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.HTMLOut:
		if err := printHTMLResultsForVerdicts(reports, cfg); err != nil {
			return fmt.Errorf("error writing HTML output: %w", err)
		}
	default:
		// Default to human-readable table
		if err := printVerdictTables(os.Stdout, reports, cfg, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

// printJSONResultsForVerdicts handles opening the file and calling the JSON writer.
func printJSONResultsForVerdicts(reports []schema.VerdictReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSONResultsForVerdicts(w, reports)
	}, "Wrote JSON")
}

// printCSVResultsForVerdicts handles opening the file and calling the CSV writer.
func printCSVResultsForVerdicts(reports []schema.VerdictReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVResultsForVerdicts(w, reports)
	}, "Wrote CSV")
}

// printHTMLResultsForVerdicts handles opening the file and calling the HTML writer.
func printHTMLResultsForVerdicts(reports []schema.VerdictReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeHTMLResultsForVerdicts(w, reports)
	}, "Wrote HTML")
}

// printVerdictTables prints each verdict followed by its explanation table.
func printVerdictTables(w io.Writer, reports []schema.VerdictReport, cfg *contract.Config, duration time.Duration) error {
	nameWidth := GetMaxFeatureNameWidth(cfg)
	explained := 0
	risky := 0

	for i, r := range reports {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		if r.Verdict.IsRisky {
			risky++
		}
		explained += len(r.Selection.Explanations)

		_, _ = fmt.Fprintf(w, "Diff %s: Diff Risk Analysis - %s with %d%% confidence\n",
			r.DiffID, contract.GetColorLabel(r.Verdict.Label, r.Verdict.IsRisky), r.Verdict.ConfidencePercent)

		if r.FeatureError != "" {
			_, _ = fmt.Fprintf(w, "⚠️  %s\n", r.FeatureError)
			continue
		}
		if len(r.Selection.Explanations) == 0 {
			_, _ = fmt.Fprintln(w, "No feature met the evidence threshold.")
			continue
		}

		if err := printExplanationTable(w, r, nameWidth); err != nil {
			return err
		}
		if line := directionLine(r.Layout); line != "" {
			_, _ = fmt.Fprintln(w, line)
		}
		if r.ImportanceURL != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", importanceLinkText, contract.InfoColor.Sprint(r.ImportanceURL))
		}
	}

	_, _ = fmt.Fprintf(w, "Reviewed %d diffs (%d risky, %d features explained)\n", len(reports), risky, explained)
	_, _ = fmt.Fprintf(w, "Review completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend)
	return nil
}

// printExplanationTable renders the explanations of one report using the tablewriter API.
func printExplanationTable(w io.Writer, r schema.VerdictReport, nameWidth int) error {
	table := tablewriter.NewWriter(w)

	// 1. Define Headers
	table.Header([]string{"Rank", "Feature", "Value", "Qualifier", "Evidence", "Direction", "Segment"})

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Prepare Data Rows
	var data [][]string
	for _, e := range schema.EnrichExplanations(r.Selection.Explanations) {
		data = append(data, []string{
			strconv.Itoa(e.Rank),                                              // Rank
			truncateText(e.Feature.Name, nameWidth),                           // Feature
			algo.FormatValue(e.Value),                                         // Value
			contract.GetColorLabel(e.Qualifier, e.Risky),                      // Qualifier
			fmt.Sprintf("%d%% of patches %s", e.Percent, e.Population),        // Evidence
			contract.GetColorLabel(contract.DirectionLabel(e.Risky), e.Risky), // Direction
			formatSegment(r.Layout, e.Feature.Index),                          // Segment
		})
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// directionLine prints the waterfall labels next to where they sit on the axis.
func directionLine(layout schema.WaterfallLayout) string {
	var line string
	if l := layout.Decreasing; l != nil {
		line = contract.GetColorLabel(l.Text, false) + " from " + fmtShap(l.Anchor)
	}
	if l := layout.Increasing; l != nil {
		if line != "" {
			line += "  "
		}
		line += contract.GetColorLabel(l.Text, true) + " up to " + fmtShap(l.Anchor)
	}
	if line == "" {
		return ""
	}
	return line + " (axis 0 to " + fmtShap(layout.DomainMax) + ")"
}
