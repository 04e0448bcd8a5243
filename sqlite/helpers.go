package sqlite

import (
	"time"

	"github.com/fwojciec/lectern"
)

// Timestamps are stored as UTC RFC3339 text so they sort lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(column, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, lectern.Errorf(lectern.EINTERNAL, "corrupt %s %q", column, value)
	}
	return t, nil
}

// limitClause renders LIMIT/OFFSET for non-zero values. SQLite requires a
// LIMIT before OFFSET, so an offset alone uses LIMIT -1.
func limitClause(limit, offset int) (string, []any) {
	switch {
	case limit > 0 && offset > 0:
		return " LIMIT ? OFFSET ?", []any{limit, offset}
	case limit > 0:
		return " LIMIT ?", []any{limit}
	case offset > 0:
		return " LIMIT -1 OFFSET ?", []any{offset}
	}
	return "", nil
}
