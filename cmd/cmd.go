// Package cmd defines the command-line interface for patchrisk.
package cmd

import (
	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(verdictCmd)
	rootCmd.AddCommand(methodsCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("artifact-url", contract.DefaultArtifactURL, "Artifact URL template with {diff} and {artifact} placeholders")
	rootCmd.PersistentFlags().String("importance-url", contract.DefaultImportanceURL, "Link to the most important features considered by the model")
	rootCmd.PersistentFlags().IntP("max-explained", "n", schema.DefaultMaxExplained, "Maximum number of features to explain")
	rootCmd.PersistentFlags().Float64("percentile-threshold", schema.DefaultPercentileThreshold, "Minimum corroborating percentile (0 to 1) for a feature to be explained")
	rootCmd.PersistentFlags().String("timeout", contract.DefaultTimeout.String(), "HTTP timeout for artifact downloads")
	rootCmd.PersistentFlags().Float64("rate-limit", contract.DefaultRateLimit, "Maximum artifact requests per second")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or html")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "How long downloaded artifacts stay fresh in the cache")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Review tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for review tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of methodsCmd to Viper
	methodsCmd.Flags().String("patch", "", "Unified diff of the change to place risky functions on")
	methodsCmd.Flags().String("page", "", "Saved review page to place risky functions on")
	if err := viper.BindPFlags(methodsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding methods flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
