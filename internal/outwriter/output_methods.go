package outwriter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintMethodResults outputs the method pass report, dispatching based on the output format configured.
func PrintMethodResults(report schema.MethodReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := printJSONResultsForMethods(report, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := printCSVResultsForMethods(report, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.HTMLOut:
		if err := printHTMLResultsForMethods(report, cfg); err != nil {
			return fmt.Errorf("error writing HTML output: %w", err)
		}
	default:
		if err := printMethodTable(os.Stdout, report, cfg, duration); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

func printJSONResultsForMethods(report schema.MethodReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSONResultsForMethods(w, report)
	}, "Wrote JSON")
}

func printCSVResultsForMethods(report schema.MethodReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVResultsForMethods(w, report)
	}, "Wrote CSV")
}

func printHTMLResultsForMethods(report schema.MethodReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeHTMLResultsForMethods(w, report)
	}, "Wrote HTML")
}

// printMethodTable prints the placed annotations using the tablewriter API,
// followed by the risky methods that found no line.
func printMethodTable(w io.Writer, report schema.MethodReport, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"File", "Line", "Function", "Confidence"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := GetMaxTablePathWidth(cfg)
	var data [][]string
	for _, a := range report.Annotations {
		data = append(data, []string{
			contract.TruncatePath(a.FileName, pathWidth),
			strconv.Itoa(a.AnchorLine),
			a.MethodName,
			contract.GetColorLabel(strconv.Itoa(a.ConfidencePercent)+"%", true),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, m := range report.Unmatched {
		_, _ = fmt.Fprintf(w, "⚠️  No line found for %s in %s (starts at line %d)\n", m.MethodName, m.FileName, m.StartLine)
	}
	_, _ = fmt.Fprintf(w, "Diff %s: %d risky methods annotated, %d unmatched\n", report.DiffID, len(report.Annotations), len(report.Unmatched))
	_, _ = fmt.Fprintf(w, "Review completed in %v. Cache backend: %s\n", duration, cfg.CacheBackend)
	return nil
}
