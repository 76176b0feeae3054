// Package database opens SQLite files and replaces whole tables in them.
// It uses the pure Go modernc.org/sqlite driver, registered as "sqlite".
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DriverSQLite is the database/sql driver name.
const DriverSQLite = "sqlite"

// Open opens (creating if needed) the SQLite database at path and checks the connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, NewDatabaseError(CategoryConnection, "open", "database path is required", nil)
	}

	db, err := sql.Open(DriverSQLite, path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, ClassifyDatabaseError(err, "open", "")
	}
	// One writer; a single connection also keeps the transaction on one handle.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, ClassifyDatabaseError(err, "open", "")
	}
	return db, nil
}

// QuoteIdentifier quotes a table or column name for SQLite.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ReplaceTable drops and recreates table with TEXT columns and inserts rows, in one transaction.
// A nil cell is stored as NULL. Returns the number of rows inserted.
func ReplaceTable(ctx context.Context, db *sql.DB, table string, columns []string, rows [][]any) (int, error) {
	if len(columns) == 0 {
		return 0, NewDatabaseError(CategoryQuery, "create", fmt.Sprintf("table %q has no columns", table), nil)
	}

	quoted := make([]string, len(columns))
	defs := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdentifier(c)
		defs[i] = quoted[i] + " TEXT"
		placeholders[i] = "?"
	}
	tableName := QuoteIdentifier(table)

	dropStmt := "DROP TABLE IF EXISTS " + tableName
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", tableName, strings.Join(defs, ", "))
	insertStmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, ClassifyDatabaseError(err, "begin", "")
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if _, err := tx.ExecContext(ctx, dropStmt); err != nil {
		_ = tx.Rollback()
		return 0, ClassifyDatabaseError(err, "drop", dropStmt)
	}
	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		_ = tx.Rollback()
		return 0, ClassifyDatabaseError(err, "create", createStmt)
	}

	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		_ = tx.Rollback()
		return 0, ClassifyDatabaseError(err, "prepare", insertStmt)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, ClassifyDatabaseError(err, "insert", insertStmt)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, ClassifyDatabaseError(err, "commit", "")
	}
	return inserted, nil
}
