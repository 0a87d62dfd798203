package sqlstore

import (
	"context"
	"fmt"
)

// Migrate creates or updates the schema. It is idempotent: every statement is
// CREATE … IF NOT EXISTS, and columns added after the first release go through
// addColumnIfNotExists.
func (db *DB) Migrate(ctx context.Context) error {
	ts := db.dialect.timestamp

	tables := []struct {
		name string
		ddl  string
	}{
		{"users", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS users (
				id         TEXT PRIMARY KEY,
				email      TEXT NOT NULL DEFAULT '',
				name       TEXT NOT NULL DEFAULT '',
				role       TEXT NOT NULL DEFAULT 'user',
				created_at %[1]s NOT NULL,
				updated_at %[1]s NOT NULL
			)`, ts)},
		{"card_features", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS card_features (
				id           TEXT PRIMARY KEY,
				title        TEXT NOT NULL,
				description  TEXT NOT NULL,
				tech         TEXT NOT NULL DEFAULT '',
				language     TEXT NOT NULL DEFAULT '',
				card_type    TEXT NOT NULL,
				content_type TEXT NOT NULL,
				category     TEXT NOT NULL DEFAULT '',
				tags         TEXT NOT NULL DEFAULT '[]',
				user_id      TEXT,
				screens      TEXT NOT NULL DEFAULT '[]',
				created_at   %[1]s NOT NULL,
				updated_at   %[1]s NOT NULL
			)`, ts)},
		{"saved_items", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS saved_items (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				item_type  TEXT NOT NULL,
				item_id    TEXT NOT NULL,
				created_at %[1]s NOT NULL,
				UNIQUE (user_id, item_type, item_id)
			)`, ts)},
		{"contents", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS contents (
				id               TEXT PRIMARY KEY,
				title            TEXT NOT NULL,
				description      TEXT NOT NULL DEFAULT '',
				content_type     TEXT NOT NULL,
				slug             TEXT NOT NULL UNIQUE,
				youtube_url      TEXT,
				video_id         TEXT,
				thumbnail        TEXT,
				file_url         TEXT,
				file_type        TEXT,
				file_size        BIGINT,
				markdown_content TEXT,
				card_feature_id  TEXT REFERENCES card_features(id) ON DELETE SET NULL,
				category         TEXT NOT NULL DEFAULT '',
				tags             TEXT NOT NULL DEFAULT '[]',
				created_at       %[1]s NOT NULL,
				updated_at       %[1]s NOT NULL
			)`, ts)},
		{"reviews", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS reviews (
				id         TEXT PRIMARY KEY,
				card_id    TEXT NOT NULL REFERENCES card_features(id) ON DELETE CASCADE,
				user_id    TEXT NOT NULL,
				rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
				comment    TEXT NOT NULL DEFAULT '',
				created_at %[1]s NOT NULL,
				updated_at %[1]s NOT NULL,
				UNIQUE (card_id, user_id)
			)`, ts)},
	}

	for _, t := range tables {
		if _, err := db.conn.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("creating %s table: %w", t.name, err)
		}
	}

	// Sharing arrived after the first card_features release.
	for _, c := range []struct{ column, definition string }{
		{"visibility", "TEXT NOT NULL DEFAULT 'public'"},
		{"shared_with", "TEXT NOT NULL DEFAULT '[]'"},
	} {
		if err := db.addColumnIfNotExists(ctx, "card_features", c.column, c.definition); err != nil {
			return fmt.Errorf("adding %s to card_features: %w", c.column, err)
		}
	}

	for _, idx := range []string{
		`CREATE INDEX IF NOT EXISTS idx_card_features_created_at ON card_features(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_card_features_tech ON card_features(tech)`,
		`CREATE INDEX IF NOT EXISTS idx_card_features_user_id ON card_features(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_items_user ON saved_items(user_id, item_type)`,
		`CREATE INDEX IF NOT EXISTS idx_contents_type ON contents(content_type)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_card ON reviews(card_id)`,
	} {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// addColumnIfNotExists adds a column only if the table lacks it, so ALTER TABLE
// migrations are safe to rerun.
func (db *DB) addColumnIfNotExists(ctx context.Context, table, column, definition string) error {
	if !db.dialect.sqlite {
		_, err := db.conn.ExecContext(ctx, fmt.Sprintf(
			`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s`, table, column, definition,
		))
		return err
	}

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.ExecContext(ctx, fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
