package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
)

// shapPrecision is the number of decimals shown for SHAP values and segment bounds.
const shapPrecision = 4

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// fmtShap formats a SHAP value or a segment bound.
func fmtShap(v float64) string {
	return strconv.FormatFloat(v, 'f', shapPrecision, 64)
}

// findSegment returns the waterfall segment laid out for a feature index.
func findSegment(layout schema.WaterfallLayout, index int) (schema.WaterfallSegment, bool) {
	for _, s := range layout.Segments {
		if s.Feature.Index == index {
			return s, true
		}
	}
	return schema.WaterfallSegment{}, false
}

// formatSegment renders a segment as a half-open interval.
func formatSegment(layout schema.WaterfallLayout, index int) string {
	s, ok := findSegment(layout, index)
	if !ok {
		return "-"
	}
	return "[" + fmtShap(s.Start) + ", " + fmtShap(s.End) + ")"
}
