package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestMigrateNewDB(t *testing.T) {
	db := openTestDB(t)

	version, err := getSchemaVersion(db.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}

func TestMigrateLegacyDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	// A ledger written before the migration system: table present, no user_version.
	raw, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	_, err = raw.Exec(`CREATE TABLE seen_entry (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hashed TEXT,
		pub_date TIMESTAMP,
		feed_id TEXT,
		podcast_title TEXT,
		podcast_status INT
	)`)
	if err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	_, err = raw.Exec(`INSERT INTO seen_entry (hashed, pub_date, feed_id, podcast_title, podcast_status)
		VALUES ('deadbeef', '2019-05-01 08:00:00', 'tech', 'Old Episode', 0)`)
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}
	raw.Close()

	db, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	version, err := getSchemaVersion(db.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d after legacy migration, got %d", latestVersion(), version)
	}

	count, err := db.CountFingerprint("deadbeef")
	if err != nil {
		t.Fatalf("CountFingerprint: %v", err)
	}
	if count != 1 {
		t.Errorf("expected legacy row to be readable, got count %d", count)
	}

	entries, _ := db.ListEntries(EntryFilter{})
	if len(entries) != 1 || entries[0].PublishedAt.Year() != 2019 {
		t.Errorf("expected legacy pub_date to parse, got %+v", entries)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "idem.db")

	db1, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	db1.Close()

	db2, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db2.Close()

	version, err := getSchemaVersion(db2.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}

func TestGetSchemaVersionNewDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	version, err := getSchemaVersion(conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 on new db, got %d", version)
	}
}

func TestIsLegacyDBFalseOnNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	legacy, err := isLegacyDB(conn)
	if err != nil {
		t.Fatalf("isLegacyDB: %v", err)
	}
	if legacy {
		t.Error("expected isLegacyDB=false on empty database")
	}
}
