package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// pubDateLayout is the timestamp text format stored in pub_date.
const pubDateLayout = "2006-01-02 15:04:05"

var pubDateLayouts = []string{
	pubDateLayout,
	"2006-01-02 15:04:05.999999",
	time.RFC3339Nano,
	"2006-01-02",
}

// AppendSeen appends a ledger row and returns its ID. Rows are never
// updated or deleted.
func (db *DB) AppendSeen(e SeenEntry) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO seen_entry (hashed, pub_date, feed_id, podcast_title, podcast_status)
		VALUES (?, ?, ?, ?, ?)`,
		e.Fingerprint, e.PublishedAt.UTC().Format(pubDateLayout), e.FeedID, e.Title, int(e.Status),
	)
	if err != nil {
		return 0, fmt.Errorf("appending seen entry %q: %w", e.Title, err)
	}
	return result.LastInsertId()
}

// CountFingerprint returns how many ledger rows carry the exact fingerprint.
func (db *DB) CountFingerprint(fingerprint string) (int, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM seen_entry WHERE hashed = ?", fingerprint,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting fingerprint: %w", err)
	}
	return count, nil
}

// ListEntries returns ledger rows, newest first.
func (db *DB) ListEntries(f EntryFilter) ([]SeenEntry, error) {
	query := `SELECT id, hashed, pub_date, feed_id, podcast_title, podcast_status FROM seen_entry`
	var where []string
	var args []any
	if f.FeedID != "" {
		where = append(where, "feed_id = ?")
		args = append(args, f.FeedID)
	}
	if f.FaultyOnly {
		where = append(where, "podcast_status = ?")
		args = append(args, int(StatusFaulty))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []SeenEntry
	for rows.Next() {
		var (
			e                   SeenEntry
			pubDate             any
			hashed, feed, title sql.NullString
			status              sql.NullInt64
		)
		// Legacy ledgers allow NULL in every column.
		if err := rows.Scan(&e.ID, &hashed, &pubDate, &feed, &title, &status); err != nil {
			return nil, err
		}
		e.Fingerprint = hashed.String
		e.FeedID = feed.String
		e.Title = title.String
		e.PublishedAt = parsePubDate(pubDate)
		e.Status = Status(status.Int64)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetStats returns counts per status and per feed.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{Feeds: make(map[string]int)}

	rows, err := db.conn.Query(
		"SELECT feed_id, podcast_status, COUNT(*) FROM seen_entry GROUP BY feed_id, podcast_status",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			feedID sql.NullString
			status sql.NullInt64
			count  int
		)
		if err := rows.Scan(&feedID, &status, &count); err != nil {
			return nil, err
		}
		s.Total += count
		s.Feeds[feedID.String] += count
		if Status(status.Int64) == StatusOK {
			s.OK += count
		} else {
			s.Faulty += count
		}
	}
	return s, rows.Err()
}

// parsePubDate accepts whatever the driver hands back for pub_date: the
// driver may already have converted the TIMESTAMP column to time.Time.
func parsePubDate(v any) time.Time {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return time.Time{}
	}
	for _, layout := range pubDateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
