package database

import "time"

// Status is the outcome recorded for a processed feed entry.
type Status int

const (
	StatusOK     Status = 0
	StatusFaulty Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFaulty:
		return "faulty"
	default:
		return "unknown"
	}
}

// SeenEntry is one ledger row: a feed entry that has been processed,
// successfully or not.
type SeenEntry struct {
	ID          int64
	Fingerprint string
	PublishedAt time.Time
	FeedID      string
	Title       string
	Status      Status
}

// EntryFilter narrows ListEntries results. Zero values mean no restriction.
type EntryFilter struct {
	FeedID     string
	FaultyOnly bool
	Limit      int
}

// Stats contains aggregate ledger statistics.
type Stats struct {
	Total  int
	OK     int
	Faulty int
	Feeds  map[string]int
}
