package db

import "database/sql"

func MigrateUp(db *sql.DB) error {
	// The UNIQUE constraint on slug is what surfaces duplicate slugs as
	// SQLSTATE 23505 in the repository layer.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS entries (
    id        SERIAL PRIMARY KEY,
    author    TEXT NOT NULL,
    title     TEXT NOT NULL,
    slug      TEXT NOT NULL UNIQUE,
    body      TEXT NOT NULL DEFAULT '',
    html      TEXT NOT NULL DEFAULT '',
    published TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated   TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	// パフォーマンス最適化: インデックス追加
	indexes := []string{
		// ORDER BY published DESC で使用(ホーム・アーカイブ・フィード)
		`CREATE INDEX IF NOT EXISTS idx_entries_published ON entries(published DESC)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown rolls back the database schema.
// Use with caution: this deletes every entry.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_entries_published`,
		`DROP TABLE IF EXISTS entries CASCADE`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
