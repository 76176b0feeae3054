package output

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/actorwatch/runtime/internal/database"
	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/table"
)

// SQLiteSink replaces a table in a SQLite database file. Every column is TEXT.
type SQLiteSink struct {
	path      string
	tableName string
	db        *sql.DB
}

// NewSQLiteSink creates a SQLite output module. The database is opened on first Send.
func NewSQLiteSink(path, tableName string) (*SQLiteSink, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errhandling.NewConfigError("sqlite output requires a table name", nil)
	}
	return &SQLiteSink{path: path, tableName: tableName}, nil
}

// Send drops, recreates and fills the table in one transaction.
func (s *SQLiteSink) Send(ctx context.Context, t *table.Table) (int, error) {
	if t == nil {
		return 0, ErrNilTable
	}
	start := time.Now()

	if s.db == nil {
		db, err := database.Open(ctx, s.path)
		if err != nil {
			return 0, errhandling.NewIOError("opening "+s.path, err)
		}
		s.db = db
	}

	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		values := make([]any, len(row.Values))
		for j, v := range row.Values {
			values[j] = v.Any()
		}
		rows[i] = values
	}

	n, err := database.ReplaceTable(ctx, s.db, s.tableName, t.Columns, rows)
	if err != nil {
		logger.Error("sqlite output failed",
			slog.String("module_type", FormatSQLite),
			slog.String("path", s.path),
			slog.String("table", s.tableName),
			slog.String("error", err.Error()),
		)
		return 0, errhandling.NewIOError("writing table "+s.tableName, err)
	}

	logger.Debug("sqlite table written",
		slog.String("path", s.path),
		slog.String("table", s.tableName),
		slog.Int("record_count", n),
		slog.Duration("duration", time.Since(start)),
	)
	return n, nil
}

// Close closes the database if it was opened.
func (s *SQLiteSink) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Verify SQLiteSink implements Module
var _ Module = (*SQLiteSink)(nil)
