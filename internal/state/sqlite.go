// Package state persists rebuild journals in a local SQLite database so
// an interrupted primary-key rebuild can be inspected and resumed from
// another process.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // register the "sqlite" driver

	"github.com/leapstack-labs/kudusql/pkg/rebuild"
)

// SQLiteStore implements rebuild.Journal using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ rebuild.Journal = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new store. A nil logger discards output.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens the database at path and runs pending migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	s.logger.Debug("opened state store", slog.String("path", path))
	return nil
}

// Path returns the database path passed to Open.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Begin implements rebuild.Journal.
func (s *SQLiteStore) Begin(ctx context.Context, plan *rebuild.Plan) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	encoded, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	now := formatTime(time.Now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rebuilds (id, table_name, column_name, kind, plan, next_step, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		plan.ID, plan.Table, plan.Column, string(plan.Kind), string(encoded), string(rebuild.StatusPending),
		formatTime(plan.CreatedAt), now,
	)
	if err != nil {
		return fmt.Errorf("failed to journal rebuild %s: %w", plan.ID, err)
	}
	s.logger.Debug("journaled rebuild", slog.String("id", plan.ID), slog.String("table", plan.Table))
	return nil
}

// Advance implements rebuild.Journal.
func (s *SQLiteStore) Advance(ctx context.Context, id string, step, statement int) error {
	return s.update(ctx, id,
		`UPDATE rebuilds SET next_step = ?, next_statement = ?, status = ?, last_error = '', updated_at = ? WHERE id = ?`,
		step, statement, string(rebuild.StatusRunning), formatTime(time.Now()), id)
}

// Fail implements rebuild.Journal.
func (s *SQLiteStore) Fail(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.update(ctx, id,
		`UPDATE rebuilds SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		string(rebuild.StatusFailed), msg, formatTime(time.Now()), id)
}

// Complete implements rebuild.Journal.
func (s *SQLiteStore) Complete(ctx context.Context, id string) error {
	return s.update(ctx, id,
		`UPDATE rebuilds SET next_step = (SELECT json_array_length(plan, '$.steps') FROM rebuilds WHERE id = ?),
		 next_statement = 0, status = ?, last_error = '', updated_at = ? WHERE id = ?`,
		id, string(rebuild.StatusCompleted), formatTime(time.Now()), id)
}

func (s *SQLiteStore) update(ctx context.Context, id, query string, args ...any) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update rebuild %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update rebuild %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", rebuild.ErrRecordNotFound, id)
	}
	return nil
}

const selectRecord = `SELECT plan, next_step, next_statement, status, last_error, updated_at FROM rebuilds`

// Load implements rebuild.Journal.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*rebuild.Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", rebuild.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rebuild %s: %w", id, err)
	}
	return rec, nil
}

// List implements rebuild.Journal.
func (s *SQLiteStore) List(ctx context.Context) ([]rebuild.Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rows, err := s.db.QueryContext(ctx, selectRecord+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rebuilds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []rebuild.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rebuild: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rebuilds: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*rebuild.Record, error) {
	var (
		encoded, status, lastErr, updated string
		next, nextStmt                    int
	)
	if err := row.Scan(&encoded, &next, &nextStmt, &status, &lastErr, &updated); err != nil {
		return nil, err
	}
	rec := &rebuild.Record{NextStep: next, NextStatement: nextStmt, Status: rebuild.Status(status), LastError: lastErr}
	if err := json.Unmarshal([]byte(encoded), &rec.Plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	t, err := time.Parse(timeLayout, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	rec.UpdatedAt = t
	return rec, nil
}

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
