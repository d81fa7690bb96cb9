package contract

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/patchrisk/schema"
)

// Default values for configuration.
const (
	DefaultArtifactURL   = "https://community-tc.services.mozilla.com/api/index/v1/task/project.relman.bugbug.classify_patch.diff.{diff}/artifacts/public/{artifact}"
	DefaultImportanceURL = "https://community-tc.services.mozilla.com/api/index/v1/task/project.relman.bugbug.train_regressor.latest/artifacts/public/feature_importance.png"
	DefaultTimeout       = 30 * time.Second
	DefaultRateLimit     = 10.0
	DefaultCacheTTL      = time.Hour
	MaxExplainedLimit    = 50
)

// Placeholders substituted into the artifact URL template.
const (
	DiffPlaceholder     = "{diff}"
	ArtifactPlaceholder = "{artifact}"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a review.
// This struct is the "final, validated" config.
type Config struct {
	ArtifactURL   string
	ImportanceURL string
	Narrative     schema.NarrativeConfig
	Timeout       time.Duration
	RateLimit     float64 // requests per second to the artifact host
	Workers       int
	Output        schema.OutputMode
	OutputFile    string
	UseColors     bool
	Width         int // Terminal width override (0 = auto-detect)

	PatchFile string // unified diff used by the method pass
	PageFile  string // saved review page used by the method pass

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	ArtifactURL         string  `mapstructure:"artifact-url"`
	ImportanceURL       string  `mapstructure:"importance-url"`
	MaxExplained        int     `mapstructure:"max-explained"`
	PercentileThreshold float64 `mapstructure:"percentile-threshold"`
	Timeout             string  `mapstructure:"timeout"`
	RateLimit           float64 `mapstructure:"rate-limit"`
	Workers             int     `mapstructure:"workers"`
	Output              string  `mapstructure:"output"`
	OutputFile          string  `mapstructure:"output-file"`
	Color               string  `mapstructure:"color"`
	Width               int     `mapstructure:"width"`
	CacheBackend        string  `mapstructure:"cache-backend"`
	CacheDBConnect      string  `mapstructure:"cache-db-connect"`
	CacheTTL            string  `mapstructure:"cache-ttl"`
	AnalysisBackend     string  `mapstructure:"analysis-backend"`
	AnalysisDBConnect   string  `mapstructure:"analysis-db-connect"`

	// --- Fields from methodsCmd.Flags() ---
	Patch string `mapstructure:"patch"`
	Page  string `mapstructure:"page"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ArtifactLocation expands the artifact URL template for one diff and artifact.
func (c *Config) ArtifactLocation(diffID string, artifact schema.Artifact) string {
	return ExpandArtifactURL(c.ArtifactURL, diffID, artifact)
}

// ExpandArtifactURL substitutes the diff ID and artifact name into a URL template.
func ExpandArtifactURL(template, diffID string, artifact schema.Artifact) string {
	r := strings.NewReplacer(
		DiffPlaceholder, url.PathEscape(diffID),
		ArtifactPlaceholder, url.PathEscape(string(artifact)),
	)
	return r.Replace(template)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processSource(cfg, input); err != nil {
		return err
	}
	if err := processNarrative(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// validateSimpleInputs processes and validates the output and concurrency fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, html", input.Output)
	}

	return nil
}

// processSource validates where artifacts and diffs come from.
func processSource(cfg *Config, input *ConfigRawInput) error {
	cfg.ArtifactURL = strings.TrimSpace(input.ArtifactURL)
	if cfg.ArtifactURL == "" {
		cfg.ArtifactURL = DefaultArtifactURL
	}
	if err := validateArtifactURL(cfg.ArtifactURL); err != nil {
		return err
	}

	cfg.ImportanceURL = strings.TrimSpace(input.ImportanceURL)
	if cfg.ImportanceURL == "" {
		cfg.ImportanceURL = DefaultImportanceURL
	}

	cfg.Timeout = DefaultTimeout
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout '%s': %w", input.Timeout, err)
		}
		cfg.Timeout = d
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (received %s)", cfg.Timeout)
	}

	if input.RateLimit <= 0 {
		return fmt.Errorf("rate-limit must be greater than 0 (received %g)", input.RateLimit)
	}
	cfg.RateLimit = input.RateLimit

	cfg.PatchFile = strings.TrimSpace(input.Patch)
	cfg.PageFile = strings.TrimSpace(input.Page)
	if cfg.PatchFile != "" && cfg.PageFile != "" {
		return fmt.Errorf("--patch and --page cannot be used together")
	}

	return nil
}

// validateArtifactURL checks that the template is an absolute HTTP URL with both placeholders.
func validateArtifactURL(template string) error {
	for _, p := range []string{DiffPlaceholder, ArtifactPlaceholder} {
		if !strings.Contains(template, p) {
			return fmt.Errorf("artifact-url must contain the %s placeholder", p)
		}
	}
	u, err := url.Parse(ExpandArtifactURL(template, "0", schema.ResultArtifact))
	if err != nil {
		return fmt.Errorf("invalid artifact-url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("artifact-url must use http or https (received %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("artifact-url must include a host")
	}
	return nil
}

// processNarrative validates the explanation settings.
func processNarrative(cfg *Config, input *ConfigRawInput) error {
	if input.MaxExplained < 1 || input.MaxExplained > MaxExplainedLimit {
		return fmt.Errorf("max-explained must be between 1 and %d (received %d)", MaxExplainedLimit, input.MaxExplained)
	}
	if input.PercentileThreshold < 0 || input.PercentileThreshold > 1 {
		return fmt.Errorf("percentile-threshold must be between 0 and 1 (received %g)", input.PercentileThreshold)
	}
	cfg.Narrative = schema.NarrativeConfig{
		MaxExplained:        input.MaxExplained,
		PercentileThreshold: input.PercentileThreshold,
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		d, err := time.ParseDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache-ttl '%s': %w", input.CacheTTL, err)
		}
		cfg.CacheTTL = d
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("cache-ttl must be positive (received %s)", cfg.CacheTTL)
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}

	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// GetCacheDBFilePath returns the path to the SQLite DB file for artifact caching.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".patchrisk_cache.db"
	}
	return filepath.Join(homeDir, ".patchrisk_cache.db")
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for review tracking.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".patchrisk_analysis.db"
	}
	return filepath.Join(homeDir, ".patchrisk_analysis.db")
}
