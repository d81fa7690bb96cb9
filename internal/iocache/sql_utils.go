package iocache

import (
	"fmt"
	"regexp"
	"time"

	"github.com/huangsam/patchrisk/schema"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName guards the table names interpolated into queries.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern %s)", name, tableNamePattern)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// driverFor maps a backend to its database/sql driver name.
func driverFor(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// placeholders returns n bind parameters in the style of the backend.
func placeholders(backend schema.DatabaseBackend, n int) []string {
	out := make([]string, n)
	for i := range out {
		if backend == schema.PostgreSQLBackend {
			out[i] = fmt.Sprintf("$%d", i+1)
		} else {
			out[i] = "?"
		}
	}
	return out
}

// formatTime converts a time.Time to the appropriate format for the backend.
// SQLite stores text, the others store native datetimes.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// sqlTimeLayouts are the text forms a datetime column may come back in.
// MySQL returns raw bytes unless the DSN sets parseTime=true.
var sqlTimeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05"}

// nullTime scans a datetime column stored natively or as text.
type nullTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (nt *nullTime) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case nil:
		nt.Time, nt.Valid = time.Time{}, false
		return nil
	case time.Time:
		nt.Time, nt.Valid = v, true
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("cannot scan %T into a time", src)
	}

	for _, layout := range sqlTimeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			nt.Time, nt.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("cannot parse time %q", text)
}

// Ptr returns nil for a NULL column.
func (nt nullTime) Ptr() *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
