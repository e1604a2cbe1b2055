package sqlite

import (
	"strings"
	"time"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// dbTime normalizes timestamps to UTC so stored values order correctly as text.
func dbTime(t time.Time) time.Time {
	return t.UTC()
}
