package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-index failure from Postgres
// or SQLite. A non-empty index narrows the match to that column or constraint.
func IsUniqueViolation(err error, index string) bool {
	if err == nil {
		return false
	}
	dump := pkgerrors.Dump(err)
	unique := dump.DBCode == pgUniqueViolation ||
		strings.Contains(dump.TopMessage, "duplicate key value") ||
		strings.Contains(dump.TopMessage, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if index == "" {
		return true
	}
	return strings.Contains(dump.DBConstraint, index) || strings.Contains(dump.TopMessage, index)
}
