package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateProperties, downCreateProperties)
}

func upCreateProperties(ctx context.Context, tx *sql.Tx) error {
	exec := func(stmt string) error {
		_, err := tx.ExecContext(ctx, stmt)
		return err
	}
	if err := execAll(exec, createPropertiesStmts()); err != nil {
		return fmt.Errorf("create properties table: %w", err)
	}
	return nil
}

func downCreateProperties(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS properties`)
	return err
}

func createPropertiesStmts() []string {
	switch dialect {
	case "postgres":
		return []string{
			`CREATE TABLE IF NOT EXISTS properties (
    id                TEXT PRIMARY KEY,
    owner_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title             TEXT NOT NULL DEFAULT '',
    description       TEXT NOT NULL DEFAULT '',
    images            TEXT NOT NULL DEFAULT '[]',
    property_type     TEXT NOT NULL,
    property_standard TEXT NOT NULL,
    city              TEXT NOT NULL,
    neighborhood      TEXT NOT NULL,
    investment_value  TEXT NOT NULL,
    built_area_m2     DOUBLE PRECISION NOT NULL,
    highlights        TEXT NOT NULL DEFAULT '',
    caption_ai        TEXT,
    caption_final     TEXT NOT NULL DEFAULT '',
    template_tag      TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'pending',
    generation_error  TEXT NOT NULL DEFAULT '',
    social_post_id    TEXT NOT NULL DEFAULT '',
    published_at      TIMESTAMPTZ,
    created_at        TIMESTAMPTZ NOT NULL,
    updated_at        TIMESTAMPTZ NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_properties_owner_status ON properties (owner_id, status)`,
		}
	case "mysql":
		return []string{
			`CREATE TABLE IF NOT EXISTS properties (
    id                VARCHAR(36) PRIMARY KEY,
    owner_id          VARCHAR(36) NOT NULL,
    title             VARCHAR(255) NOT NULL DEFAULT '',
    description       TEXT NOT NULL,
    images            TEXT NOT NULL,
    property_type     VARCHAR(64) NOT NULL,
    property_standard VARCHAR(64) NOT NULL,
    city              VARCHAR(255) NOT NULL,
    neighborhood      VARCHAR(255) NOT NULL,
    investment_value  VARCHAR(64) NOT NULL,
    built_area_m2     DOUBLE NOT NULL,
    highlights        TEXT NOT NULL,
    caption_ai        TEXT,
    caption_final     TEXT NOT NULL,
    template_tag      VARCHAR(32) NOT NULL DEFAULT '',
    status            VARCHAR(16) NOT NULL DEFAULT 'pending',
    generation_error  TEXT NOT NULL,
    social_post_id    VARCHAR(64) NOT NULL DEFAULT '',
    published_at      DATETIME(6) NULL,
    created_at        DATETIME(6) NOT NULL,
    updated_at        DATETIME(6) NOT NULL,
    INDEX idx_properties_owner_status (owner_id, status),
    CONSTRAINT fk_properties_owner FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
)`,
		}
	default: // sqlite3
		return []string{
			`CREATE TABLE IF NOT EXISTS properties (
    id                TEXT PRIMARY KEY,
    owner_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title             TEXT NOT NULL DEFAULT '',
    description       TEXT NOT NULL DEFAULT '',
    images            TEXT NOT NULL DEFAULT '[]',
    property_type     TEXT NOT NULL,
    property_standard TEXT NOT NULL,
    city              TEXT NOT NULL,
    neighborhood      TEXT NOT NULL,
    investment_value  TEXT NOT NULL,
    built_area_m2     REAL NOT NULL,
    highlights        TEXT NOT NULL DEFAULT '',
    caption_ai        TEXT,
    caption_final     TEXT NOT NULL DEFAULT '',
    template_tag      TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'pending',
    generation_error  TEXT NOT NULL DEFAULT '',
    social_post_id    TEXT NOT NULL DEFAULT '',
    published_at      DATETIME,
    created_at        DATETIME NOT NULL,
    updated_at        DATETIME NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_properties_owner_status ON properties (owner_id, status)`,
		}
	}
}
