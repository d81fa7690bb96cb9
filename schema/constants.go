package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and tracking.
	DatabaseBackend string

	// Artifact names a payload published by the classification task.
	Artifact string

	// Branch identifies which narrative rule explained a feature.
	Branch string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
	HTMLOut OutputMode = "html"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Artifacts published per diff.
const (
	ResultArtifact  Artifact = "probs.json"
	FeatureArtifact Artifact = "importances.json"
	MethodArtifact  Artifact = "method_level.json"
)

// Narrative branches. A and B push toward risky, C and D toward not risky.
const (
	BranchTooLarge Branch = "A"
	BranchTooSmall Branch = "B"
	BranchSmall    Branch = "C"
	BranchLarge    Branch = "D"
)

// Verdict labels.
const (
	RiskyLabel    = "Risky"
	NotRiskyLabel = "Not risky"
)

// Palette shared by the heading, the legend, the bars and hover highlighting.
const (
	RiskColor = "rgb(255, 13, 87)"
	SafeColor = "rgb(30, 136, 229)"
)

// Directional label text for the waterfall chart.
const (
	IncreasingRiskText = "increasing risk →"
	DecreasingRiskText = "← decreasing risk"
)

// AnnotationAuthor is shown as the head of every inline annotation.
const AnnotationAuthor = "Risk Analysis Bot"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
	HTMLOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ColorFor returns the palette color for a risk direction.
func ColorFor(risky bool) string {
	if risky {
		return RiskColor
	}
	return SafeColor
}
