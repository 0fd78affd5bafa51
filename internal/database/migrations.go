package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    source_name TEXT,
    source_kind TEXT,
    slide_count INTEGER NOT NULL,
    degraded_count INTEGER DEFAULT 0,
    generated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS deck_slides (
    deck_id TEXT NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    outline_index INTEGER NOT NULL,
    title TEXT NOT NULL,
    bullets TEXT NOT NULL,
    presenter_notes TEXT,
    detail TEXT,
    context TEXT,
    example TEXT,
    suggested_questions TEXT,
    degraded_reason TEXT,
    PRIMARY KEY (deck_id, outline_index)
);

CREATE INDEX IF NOT EXISTS idx_decks_generated ON decks(generated_at);
CREATE INDEX IF NOT EXISTS idx_deck_slides_deck ON deck_slides(deck_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
