package collect

import (
	"time"

	"github.com/TobiSchelling/podcatcher/internal/tags"
)

// CandidateItem is a feed entry selected for download. It lives for one
// run: built during feed parsing, consumed by the item processor.
type CandidateItem struct {
	ID          string
	PublishedAt time.Time
	Title       string
	Summary     string
	Author      string
	Link        string

	FileLink      string
	FileLength    int64
	FileType      string
	FileExtension string

	Fingerprint string

	// Set while processing.
	LocalTempPath string
	TagSnapshot   tags.Tags
}

// NewCandidateItem builds a CandidateItem from a parsed entry and the
// enclosure chosen for it.
func NewCandidateItem(e Entry, enc Enclosure) CandidateItem {
	return CandidateItem{
		ID:            e.ID,
		PublishedAt:   e.Published,
		Title:         e.Title,
		Summary:       e.Summary,
		Author:        e.Author,
		Link:          e.Link,
		FileLink:      enc.URL,
		FileLength:    enc.Length,
		FileType:      enc.Type,
		FileExtension: enc.Extension,
		Fingerprint:   Fingerprint(e.Title),
	}
}
