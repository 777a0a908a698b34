// Package sqlite implements the rotation control store on a local SQLite file.
// It mirrors pkg/postgres and is used for single-user installs and tests.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339Nano
)

// DB provides rotation control storage backed by SQLite
type DB struct {
	conn   *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewDB opens (creating if needed) the SQLite database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func NewDB(ctx context.Context, path string, logger *zap.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps :memory: databases shared and serialises writers
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug("SQLite database ready", zap.String("path", path))

	return &DB{conn: conn, logger: logger, now: time.Now}, nil
}

// Close closes the database connection
func (d *DB) Close() {
	if err := d.conn.Close(); err != nil {
		d.logger.Warn("Failed to close database", zap.Error(err))
	}
}

// SchemaSQL returns the schema applied by NewDB
func SchemaSQL() string {
	return schemaSQL
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateLayout)
}

func parseDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s.String, err)
	}
	return &t, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
