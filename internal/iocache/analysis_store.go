package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
)

// Table names for review tracking.
const (
	reviewRunsTable        = "patchrisk_review_runs"
	explainedFeaturesTable = "patchrisk_explained_features"
	methodAnnotationsTable = "patchrisk_method_annotations"
)

// analysisTables lists every tracking table, children first.
var analysisTables = []string{methodAnnotationsTable, explainedFeaturesTable, reviewRunsTable}

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled tracking
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	driverName, err := driverFor(backend)
	if err != nil {
		return nil, err
	}

	dsn := connStr
	if backend == schema.SQLiteBackend && dsn == "" {
		dsn = GetAnalysisDBFilePath()
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file location is writable."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
	}, nil
}

// createAnalysisTables creates the tracking tables when they do not exist yet.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{reviewRunsTable, getCreateReviewRunsQuery(backend)},
		{explainedFeaturesTable, getCreateExplainedFeaturesQuery(backend)},
		{methodAnnotationsTable, getCreateMethodAnnotationsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateReviewRunsQuery returns the CREATE TABLE query for patchrisk_review_runs.
func getCreateReviewRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(reviewRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				diff_id VARCHAR(64) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				label VARCHAR(32),
				confidence INT,
				total_annotations INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				diff_id TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				label TEXT,
				confidence INT,
				total_annotations INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				diff_id TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				label TEXT,
				confidence INTEGER,
				total_annotations INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateExplainedFeaturesQuery returns the CREATE TABLE query for patchrisk_explained_features.
func getCreateExplainedFeaturesQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(explainedFeaturesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				feature_index INT NOT NULL,
				name VARCHAR(255) NOT NULL,
				shap_value DOUBLE NOT NULL,
				value DOUBLE NOT NULL,
				qualifier VARCHAR(16) NOT NULL,
				percent INT NOT NULL,
				risky BOOLEAN NOT NULL,
				segment_start DOUBLE NOT NULL,
				segment_end DOUBLE NOT NULL,
				PRIMARY KEY (run_id, feature_index)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				feature_index INT NOT NULL,
				name TEXT NOT NULL,
				shap_value DOUBLE PRECISION NOT NULL,
				value DOUBLE PRECISION NOT NULL,
				qualifier TEXT NOT NULL,
				percent INT NOT NULL,
				risky BOOLEAN NOT NULL,
				segment_start DOUBLE PRECISION NOT NULL,
				segment_end DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (run_id, feature_index)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				feature_index INTEGER NOT NULL,
				name TEXT NOT NULL,
				shap_value REAL NOT NULL,
				value REAL NOT NULL,
				qualifier TEXT NOT NULL,
				percent INTEGER NOT NULL,
				risky BOOLEAN NOT NULL,
				segment_start REAL NOT NULL,
				segment_end REAL NOT NULL,
				PRIMARY KEY (run_id, feature_index)
			);
		`, quotedTableName)
	}
}

// getCreateMethodAnnotationsQuery returns the CREATE TABLE query for patchrisk_method_annotations.
func getCreateMethodAnnotationsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(methodAnnotationsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				position INT NOT NULL,
				file_name VARCHAR(512) NOT NULL,
				method_name VARCHAR(255) NOT NULL,
				start_line INT NOT NULL,
				anchor_line INT NOT NULL,
				confidence INT NOT NULL,
				PRIMARY KEY (run_id, position)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				position INT NOT NULL,
				file_name TEXT NOT NULL,
				method_name TEXT NOT NULL,
				start_line INT NOT NULL,
				anchor_line INT NOT NULL,
				confidence INT NOT NULL,
				PRIMARY KEY (run_id, position)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				position INTEGER NOT NULL,
				file_name TEXT NOT NULL,
				method_name TEXT NOT NULL,
				start_line INTEGER NOT NULL,
				anchor_line INTEGER NOT NULL,
				confidence INTEGER NOT NULL,
				PRIMARY KEY (run_id, position)
			);
		`, quotedTableName)
	}
}

// disabled reports whether tracking is a no-op.
func (as *AnalysisStoreImpl) disabled() bool {
	return as.backend == schema.NoneBackend || as.db == nil
}

// table returns the quoted name of a tracking table.
func (as *AnalysisStoreImpl) table(name string) string {
	return quoteTableName(name, as.backend)
}

// params returns a comma-separated list of n placeholders.
func (as *AnalysisStoreImpl) params(n int) string {
	return strings.Join(placeholders(as.backend, n), ", ")
}

// BeginReview creates a new review run and returns its ID.
func (as *AnalysisStoreImpl) BeginReview(startTime time.Time, runUUID, diffID string, configParams map[string]any) (int64, error) {
	if as.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_uuid, diff_id, start_time, config_params) VALUES (%s)`,
		as.table(reviewRunsTable), as.params(4))
	args := []any{runUUID, diffID, formatTime(startTime, as.backend), string(configJSON)}

	var runID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		err = as.db.QueryRow(query+" RETURNING run_id", args...).Scan(&runID)
	default: // SQLite and MySQL
		var result sql.Result
		result, err = as.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert review run: %w", err)
	}

	return runID, nil
}

// EndReview records the completion time, duration and annotation count of a run.
func (as *AnalysisStoreImpl) EndReview(runID int64, endTime time.Time, totalAnnotations int) error {
	if as.disabled() {
		return nil
	}

	p := placeholders(as.backend, 4)

	var startTime nullTime
	selectQuery := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, as.table(reviewRunsTable), p[0])
	if err := as.db.QueryRow(selectQuery, runID).Scan(&startTime); err != nil {
		return fmt.Errorf("failed to get start_time for review run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime.Time).Milliseconds()

	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_annotations = %s WHERE run_id = %s`,
		as.table(reviewRunsTable), p[0], p[1], p[2], p[3])
	if _, err := as.db.Exec(updateQuery, formatTime(endTime, as.backend), durationMs, totalAnnotations, runID); err != nil {
		return fmt.Errorf("failed to update review run: %w", err)
	}

	return nil
}

// RecordVerdict stores the label and confidence of the overall pass.
func (as *AnalysisStoreImpl) RecordVerdict(runID int64, verdict schema.Verdict) error {
	if as.disabled() {
		return nil
	}

	p := placeholders(as.backend, 3)
	query := fmt.Sprintf(`UPDATE %s SET label = %s, confidence = %s WHERE run_id = %s`, as.table(reviewRunsTable), p[0], p[1], p[2])
	if _, err := as.db.Exec(query, verdict.Label, verdict.ConfidencePercent, runID); err != nil {
		return fmt.Errorf("failed to record verdict: %w", err)
	}
	return nil
}

// RecordExplanations stores each explanation next to its waterfall segment.
func (as *AnalysisStoreImpl) RecordExplanations(runID int64, explanations []schema.Explanation, layout schema.WaterfallLayout) error {
	if as.disabled() || len(explanations) == 0 {
		return nil
	}

	segments := make(map[int]schema.WaterfallSegment, len(layout.Segments))
	for _, s := range layout.Segments {
		segments[s.Feature.Index] = s
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, feature_index, name, shap_value, value, qualifier, percent, risky, segment_start, segment_end)
		VALUES (%s)`, as.table(explainedFeaturesTable), as.params(10))

	return as.inTx("explanations", query, len(explanations), func(i int) []any {
		e := explanations[i]
		seg := segments[e.Feature.Index]
		return []any{runID, e.Feature.Index, e.Feature.Name, e.Feature.ShapValue, e.Value, e.Qualifier, e.Percent, e.Risky, seg.Start, seg.End}
	})
}

// RecordAnnotations stores the annotations placed by the method pass, in placement order.
func (as *AnalysisStoreImpl) RecordAnnotations(runID int64, annotations []schema.MethodAnnotation) error {
	if as.disabled() || len(annotations) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, position, file_name, method_name, start_line, anchor_line, confidence)
		VALUES (%s)`, as.table(methodAnnotationsTable), as.params(7))

	return as.inTx("annotations", query, len(annotations), func(i int) []any {
		a := annotations[i]
		return []any{runID, i, a.FileName, a.MethodName, a.StartLine, a.AnchorLine, a.ConfidencePercent}
	})
}

// inTx runs one prepared insert per row inside a single transaction.
func (as *AnalysisStoreImpl) inTx(what, query string, n int, row func(i int) []any) error {
	tx, err := as.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", what, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", what, err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range n {
		if _, err := stmt.Exec(row(i)...); err != nil {
			return fmt.Errorf("failed to insert %s row %d: %w", what, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", what, err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}

	if as.disabled() {
		return status, nil
	}

	runs := as.table(reviewRunsTable)

	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastRunTime, oldestRunTime nullTime

		lastRunQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", runs)
		if err := as.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, &lastRunTime); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = lastRunTime.Time

		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runs)
		if err := as.db.QueryRow(oldestRunQuery).Scan(&oldestRunTime); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRunTime.Time

		annotationsQuery := fmt.Sprintf("SELECT COALESCE(SUM(total_annotations), 0) FROM %s", runs)
		if err := as.db.QueryRow(annotationsQuery).Scan(&status.TotalAnnotations); err != nil {
			return status, fmt.Errorf("failed to get total annotations: %w", err)
		}
	}

	for _, table := range analysisTables {
		var count int64
		if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", as.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllReviewRuns retrieves all review runs from the store.
func (as *AnalysisStoreImpl) GetAllReviewRuns() ([]schema.ReviewRunRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, diff_id, start_time, end_time, run_duration_ms,
		label, confidence, total_annotations, config_params FROM %s ORDER BY run_id`, as.table(reviewRunsTable))

	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query review runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ReviewRunRecord
	for rows.Next() {
		var record schema.ReviewRunRecord
		var startTime, endTime nullTime
		if err := rows.Scan(&record.RunID, &record.RunUUID, &record.DiffID, &startTime, &endTime, &record.RunDurationMs,
			&record.Label, &record.Confidence, &record.TotalAnnotations, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan review run: %w", err)
		}
		record.StartTime = startTime.Time
		record.EndTime = endTime.Ptr()
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review runs: %w", err)
	}
	return results, nil
}

// GetAllExplainedFeatures retrieves all explained features from the store.
func (as *AnalysisStoreImpl) GetAllExplainedFeatures() ([]schema.ExplainedFeatureRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, feature_index, name, shap_value, value, qualifier, percent, risky,
		segment_start, segment_end FROM %s ORDER BY run_id, segment_start`, as.table(explainedFeaturesTable))

	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query explained features: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ExplainedFeatureRecord
	for rows.Next() {
		var record schema.ExplainedFeatureRecord
		if err := rows.Scan(&record.RunID, &record.FeatureIndex, &record.Name, &record.ShapValue, &record.Value,
			&record.Qualifier, &record.Percent, &record.Risky, &record.SegmentStart, &record.SegmentEnd); err != nil {
			return nil, fmt.Errorf("failed to scan explained feature: %w", err)
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating explained features: %w", err)
	}
	return results, nil
}

// GetAllMethodAnnotations retrieves all method annotations from the store.
func (as *AnalysisStoreImpl) GetAllMethodAnnotations() ([]schema.MethodAnnotationRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, file_name, method_name, start_line, anchor_line, confidence
		FROM %s ORDER BY run_id, position`, as.table(methodAnnotationsTable))

	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query method annotations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.MethodAnnotationRecord
	for rows.Next() {
		var record schema.MethodAnnotationRecord
		if err := rows.Scan(&record.RunID, &record.FileName, &record.MethodName, &record.StartLine,
			&record.AnchorLine, &record.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan method annotation: %w", err)
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating method annotations: %w", err)
	}
	return results, nil
}
