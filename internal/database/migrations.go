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
//
// The seen_entry layout is fixed: ledgers created by earlier releases use
// exactly these columns and must keep opening without a rewrite.
var migrations = []Migration{
	{
		Version:     1,
		Description: "seen entry ledger",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS seen_entry (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hashed TEXT,
    pub_date TIMESTAMP,
    feed_id TEXT,
    podcast_title TEXT,
    podcast_status INT
);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "index fingerprints",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_seen_entry_hashed ON seen_entry(hashed);`)
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
