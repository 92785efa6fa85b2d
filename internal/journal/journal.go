// Package journal keeps an audit trail of every external command the tool
// runs (or would run, for dry runs) in a local SQLite database. It is
// optional; when disabled the dispatcher simply runs without it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Journal records external command executions in SQLite.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at dbPath.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) initSchema() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS commands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tag TEXT NOT NULL,
			kind TEXT NOT NULL,
			command TEXT NOT NULL,
			dry_run INTEGER NOT NULL,
			exit_code INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			error_message TEXT,
			executed_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	_, err = j.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_commands_executed
		ON commands(executed_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Record is one journaled command execution.
type Record struct {
	ID           int64
	Tag          string
	Kind         string
	Command      string
	DryRun       bool
	ExitCode     int
	DurationMS   int64
	ErrorMessage *string // nullable
	ExecutedAt   time.Time
}

// Append inserts a record and returns its ID.
func (j *Journal) Append(ctx context.Context, rec *Record) (int64, error) {
	executedAt := rec.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now().UTC()
	}

	result, err := j.db.ExecContext(ctx, `
		INSERT INTO commands
		(tag, kind, command, dry_run, exit_code, duration_ms, error_message, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Tag,
		rec.Kind,
		rec.Command,
		rec.DryRun,
		rec.ExitCode,
		rec.DurationMS,
		rec.ErrorMessage,
		executedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert journal record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// Recent returns up to limit records, most recent first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, tag, kind, command, dry_run, exit_code, duration_ms,
		       error_message, executed_at
		FROM commands
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal record: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var rec Record
	var errMsg sql.NullString
	var executedAtStr string

	err := rows.Scan(
		&rec.ID,
		&rec.Tag,
		&rec.Kind,
		&rec.Command,
		&rec.DryRun,
		&rec.ExitCode,
		&rec.DurationMS,
		&errMsg,
		&executedAtStr,
	)
	if err != nil {
		return nil, err
	}

	if errMsg.Valid {
		rec.ErrorMessage = &errMsg.String
	}

	executedAt, err := time.Parse(time.RFC3339, executedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse executed_at timestamp: %w", err)
	}
	rec.ExecutedAt = executedAt

	return &rec, nil
}
