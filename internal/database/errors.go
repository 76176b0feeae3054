package database

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories for database operations
const (
	CategoryConnection  = "connection"
	CategoryQuery       = "query"
	CategoryConstraint  = "constraint"
	CategoryTransaction = "transaction"
	CategoryBusy        = "busy"
	CategoryUnknown     = "unknown"
)

// DatabaseError represents a categorized database error with context.
//
//nolint:revive // DatabaseError is a clear, descriptive name that doesn't stutter in practice
type DatabaseError struct {
	Category    string // Error category (connection, query, constraint, etc.)
	Operation   string // Operation that failed (open, create, insert, commit, ...)
	Message     string // User-friendly error message
	Query       string // The statement that caused the error (truncated, no params)
	OriginalErr error  // The underlying driver error
}

func (e *DatabaseError) Error() string {
	msg := fmt.Sprintf("database %s error in %s: %s", e.Category, e.Operation, e.Message)
	if e.OriginalErr != nil {
		msg += fmt.Sprintf(" (original: %v)", e.OriginalErr)
	}
	return msg
}

func (e *DatabaseError) Unwrap() error {
	return e.OriginalErr
}

// NewDatabaseError creates a new database error with the given details.
func NewDatabaseError(category, operation, message string, originalErr error) *DatabaseError {
	return &DatabaseError{
		Category:    category,
		Operation:   operation,
		Message:     message,
		OriginalErr: originalErr,
	}
}

// ClassifyDatabaseError classifies a raw driver error.
// SQLite reports failures as text such as "SQL logic error: near \"x\": syntax error (1)".
func ClassifyDatabaseError(err error, operation, query string) *DatabaseError {
	if err == nil {
		return nil
	}

	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr
	}

	msg := strings.ToLower(err.Error())
	classified := &DatabaseError{
		Category:    CategoryUnknown,
		Operation:   operation,
		Message:     err.Error(),
		Query:       truncateQuery(query),
		OriginalErr: err,
	}

	switch {
	case containsAny(msg, "database is locked", "sqlite_busy", "database table is locked"):
		classified.Category = CategoryBusy
		classified.Message = "database is locked by another connection"
	case containsAny(msg, "unable to open database", "out of memory", "disk i/o error", "readonly database", "not a database"):
		classified.Category = CategoryConnection
		classified.Message = "cannot open or write the database file"
	case containsAny(msg, "constraint failed", "unique constraint", "not null constraint"):
		classified.Category = CategoryConstraint
		classified.Message = "constraint violation"
	case containsAny(msg, "syntax error", "no such table", "no such column", "has no column"):
		classified.Category = CategoryQuery
		classified.Message = "invalid statement"
	case operation == "commit" || operation == "begin":
		classified.Category = CategoryTransaction
	}

	return classified
}

func containsAny(s string, indicators ...string) bool {
	for _, indicator := range indicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

// truncateQuery shortens a statement for error messages.
func truncateQuery(query string) string {
	if len(query) > 500 {
		return query[:500] + "... (truncated)"
	}
	return query
}

// GetDatabaseError extracts the DatabaseError from an error chain.
func GetDatabaseError(err error) *DatabaseError {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr
	}
	return nil
}
