// Package datastore provides error handling helpers for database operations
package datastore

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/edulearn/edulearn-api/internal/errors"
)

const mysqlDuplicateEntry = 1062

// dbError creates a properly categorized database error with context
func dbError(err error, operation string, context ...any) error {
	priority := errors.PriorityMedium
	if isDatabaseCorruption(err) {
		priority = errors.PriorityCritical
	}

	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Priority(priority).
		Context("operation", operation)

	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// notFoundError creates a not-found error for a missing record
func notFoundError(resource string, identifier any) error {
	return errors.Newf("%s not found", resource).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Context("resource", resource).
		Context("identifier", fmt.Sprint(identifier)).
		Build()
}

// validationError creates a validation error for a rejected model value
func validationError(message, field string, value any) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryValidation).
		Context("field", field).
		Context("value", fmt.Sprintf("%v", value)).
		Build()
}

// isDatabaseCorruption reports SQLite errors that indicate a damaged file
func isDatabaseCorruption(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrCorrupt || sqliteErr.Code == sqlite3.ErrNotADB
	}
	return false
}

// isUniqueViolation reports duplicate-key failures from either backend
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}
