package db

import "strings"

// IsUniqueViolation reports whether err came from a unique constraint, for
// either the postgres or the sqlite dialect. When constraintName is provided the
// helper also requires the constraint (or column) text to be present.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	unique := strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return true
}
