package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the idempotent DDL per driver. published_at is stored as text and
// ordered lexicographically; it is never parsed.
var schema = map[string][]string{
	DriverSQLite: {
		`
CREATE TABLE IF NOT EXISTS articles (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    title        TEXT NOT NULL,
    author       TEXT,
    image_url    TEXT,
    published_at TEXT NOT NULL,
    content      TEXT,
    url          TEXT NOT NULL UNIQUE,
    source_name  TEXT NOT NULL DEFAULT '',
    bookmarked   INTEGER NOT NULL DEFAULT 0 CHECK (bookmarked IN (0, 1))
)`,
		// ORDER BY published_at DESC で使用
		`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_bookmarked ON articles(bookmarked) WHERE bookmarked = 1`,
	},
	DriverPostgres: {
		`
CREATE TABLE IF NOT EXISTS articles (
    id           BIGSERIAL PRIMARY KEY,
    title        TEXT NOT NULL,
    author       TEXT,
    image_url    TEXT,
    published_at TEXT NOT NULL,
    content      TEXT,
    url          TEXT NOT NULL UNIQUE,
    source_name  TEXT NOT NULL DEFAULT '',
    bookmarked   BOOLEAN NOT NULL DEFAULT FALSE
)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at COLLATE "C" DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_bookmarked ON articles(bookmarked) WHERE bookmarked = TRUE`,
	},
}

// teardown reverses schema. It is the same for both drivers.
var teardown = []string{
	`DROP INDEX IF EXISTS idx_articles_bookmarked`,
	`DROP INDEX IF EXISTS idx_articles_published_at`,
	`DROP TABLE IF EXISTS articles`,
}

// Migrate creates the articles table and its indexes. Safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts, ok := schema[driver]
	if !ok {
		return fmt.Errorf("Migrate: %w: %q", ErrUnknownDriver, driver)
	}
	return execAll(ctx, db, "Migrate", stmts)
}

// MigrateDown drops the articles table, including all bookmarks.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	return execAll(ctx, db, "MigrateDown", teardown)
}

func execAll(ctx context.Context, db *sql.DB, op string, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: statement %d: %w", op, i+1, err)
		}
	}
	return nil
}
