package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// timeFormat is a fixed-width UTC timestamp layout. Fixed width keeps
// lexicographic comparison of stored timestamps consistent with time
// ordering, which the deadline sweeps rely on in their WHERE clauses.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders a time for storage. Zero times are stored as the
// empty string and round-trip back to the zero value.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

// ParseTime parses a stored timestamp in the storage layout, RFC3339 or
// "2006-01-02" format.
func ParseTime(str string) (time.Time, error) {
	if str == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{timeFormat, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse time %q", str)
}

// nullableTime converts a nullable column value.
func nullableTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid {
		return time.Time{}, nil
	}
	return ParseTime(ns.String)
}

// nullString stores empty strings as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullTime stores zero times as NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}
