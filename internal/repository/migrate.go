package repository

import (
	"context"
	"fmt"
)

var schemas = map[string][]string{
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS extractions (
			id           TEXT PRIMARY KEY,
			budget_id    TEXT NOT NULL,
			file_name    TEXT NOT NULL,
			content_hash BLOB NOT NULL,
			status       TEXT NOT NULL,
			format       TEXT NOT NULL DEFAULT '',
			confidence   REAL NOT NULL DEFAULT 0,
			item_count   INTEGER NOT NULL DEFAULT 0,
			warnings     TEXT NOT NULL DEFAULT '[]',
			total        TEXT,
			error        TEXT NOT NULL DEFAULT '',
			created_at   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS line_items (
			extraction_id TEXT NOT NULL REFERENCES extractions(id) ON DELETE CASCADE,
			position      INTEGER NOT NULL,
			code          TEXT NOT NULL,
			description   TEXT NOT NULL,
			unit          TEXT NOT NULL DEFAULT '',
			quantity      TEXT,
			unit_price    TEXT,
			total_price   TEXT,
			PRIMARY KEY (extraction_id, position)
		)`,
	},
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS extractions (
			id           TEXT PRIMARY KEY,
			budget_id    TEXT NOT NULL,
			file_name    TEXT NOT NULL,
			content_hash BYTEA NOT NULL,
			status       TEXT NOT NULL,
			format       TEXT NOT NULL DEFAULT '',
			confidence   DOUBLE PRECISION NOT NULL DEFAULT 0,
			item_count   INTEGER NOT NULL DEFAULT 0,
			warnings     TEXT NOT NULL DEFAULT '[]',
			total        NUMERIC,
			error        TEXT NOT NULL DEFAULT '',
			created_at   BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS line_items (
			extraction_id TEXT NOT NULL REFERENCES extractions(id) ON DELETE CASCADE,
			position      INTEGER NOT NULL,
			code          TEXT NOT NULL,
			description   TEXT NOT NULL,
			unit          TEXT NOT NULL DEFAULT '',
			quantity      NUMERIC,
			unit_price    NUMERIC,
			total_price   NUMERIC,
			PRIMARY KEY (extraction_id, position)
		)`,
	},
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_extractions_hash ON extractions(content_hash)`,
	`CREATE INDEX IF NOT EXISTS idx_extractions_budget ON extractions(budget_id, created_at)`,
}

// Migrate creates the tables if they do not exist. It is safe to run on every start.
func Migrate(ctx context.Context, db *DB) error {
	stmts, ok := schemas[db.Dialect]
	if !ok {
		return fmt.Errorf("migrate: unknown dialect %q", db.Dialect)
	}
	for _, stmt := range append(stmts, indexes...) {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
