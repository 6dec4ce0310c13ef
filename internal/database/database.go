package database

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite ledger connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the ledger database at the given path.
// A nil logger discards migration messages.
func Open(dbPath string, logger *log.Logger) (*DB, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer, one run: a single connection keeps appends strictly ordered.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA synchronous=FULL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting synchronous mode: %w", err)
	}

	if err := migrate(conn, logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}
