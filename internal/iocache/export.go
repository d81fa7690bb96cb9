package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/internal/parquet"
)

// ExecuteAnalysisExport writes the tracked review data of the global store to Parquet files.
func ExecuteAnalysisExport(outputFile string) error {
	return ExportAnalysis(Manager.GetAnalysisStore(), outputFile)
}

// ExportAnalysis exports from the given store.
func ExportAnalysis(store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis tracking is not configured. Set --analysis-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total review runs: %d\n", status.TotalRuns)
	fmt.Printf("Total explained features: %d\n", status.TableSizes[explainedFeaturesTable])

	runs, err := store.GetAllReviewRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve review runs: %w", err)
	}

	features, err := store.GetAllExplainedFeatures()
	if err != nil {
		return fmt.Errorf("failed to retrieve explained features: %w", err)
	}

	annotations, err := store.GetAllMethodAnnotations()
	if err != nil {
		return fmt.Errorf("failed to retrieve method annotations: %w", err)
	}

	parquetRuns := parquet.ConvertReviewRunRecords(runs)
	parquetFeatures := parquet.ConvertExplainedFeatureRecords(features)
	parquetAnnotations := parquet.ConvertMethodAnnotationRecords(annotations)

	runsFile := outputFile + ".review_runs.parquet"
	if err := parquet.WriteReviewRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write review runs: %w", err)
	}
	fmt.Printf("Exported %d review runs to: %s\n", len(parquetRuns), runsFile)

	featuresFile := outputFile + ".explained_features.parquet"
	if err := parquet.WriteExplainedFeaturesParquet(parquetFeatures, featuresFile); err != nil {
		return fmt.Errorf("failed to write explained features: %w", err)
	}
	fmt.Printf("Exported %d explained features to: %s\n", len(parquetFeatures), featuresFile)

	annotationsFile := outputFile + ".method_annotations.parquet"
	if err := parquet.WriteMethodAnnotationsParquet(parquetAnnotations, annotationsFile); err != nil {
		return fmt.Errorf("failed to write method annotations: %w", err)
	}
	fmt.Printf("Exported %d method annotations to: %s\n", len(parquetAnnotations), annotationsFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
