package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Tech Talk</title>
  <item>
    <title>Episode 2</title>
    <guid>ep-2</guid>
    <link>https://example.com/ep2</link>
    <description>Second episode</description>
    <author>host@example.com (Host)</author>
    <pubDate>Wed, 06 Mar 2024 10:00:00 +0000</pubDate>
    <enclosure url="https://example.com/ep2.mp3" length="2048" type="audio/mpeg"/>
  </item>
  <item>
    <title>Episode 1</title>
    <guid>ep-1</guid>
    <link>https://example.com/ep1</link>
    <pubDate>Tue, 05 Mar 2024 10:00:00 +0000</pubDate>
    <enclosure url="https://example.com/ep1.m4a" length="1024" type="audio/mp4"/>
  </item>
  <item>
    <title>Undated</title>
    <guid>ep-0</guid>
  </item>
</channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Cast</title>
  <entry>
    <title>Atom Episode</title>
    <id>urn:atom:1</id>
    <updated>2024-03-05T10:00:00Z</updated>
    <link rel="alternate" type="text/html" href="https://example.com/atom/1"/>
    <link rel="enclosure" type="audio/mpeg" length="99" href="https://example.com/atom1.mp3"/>
  </entry>
</feed>`

func serveFixture(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRSS(t *testing.T) {
	srv := serveFixture(t, rssFixture)
	parser := NewFeedParser(srv.Client(), "podcatcher-test")
	fetched := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	parser.now = func() time.Time { return fetched }

	entries, err := parser.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Title != "Episode 2" || first.ID != "ep-2" {
		t.Errorf("expected feed order to be kept, got %+v", first)
	}
	if !first.Published.Equal(time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected published time %v", first.Published)
	}
	if len(first.Links) != 1 || first.Links[0].Href != "https://example.com/ep2.mp3" || first.Links[0].Length != 2048 {
		t.Errorf("unexpected links %+v", first.Links)
	}
	if first.Summary != "Second episode" {
		t.Errorf("expected summary, got %q", first.Summary)
	}

	if !entries[2].Published.Equal(fetched) {
		t.Errorf("expected undated entry to use fetch time, got %v", entries[2].Published)
	}
	if len(entries[2].Links) != 0 {
		t.Errorf("expected no links for undated entry, got %+v", entries[2].Links)
	}
}

func TestFetchAtomEnclosureLinks(t *testing.T) {
	srv := serveFixture(t, atomFixture)
	entries, err := NewFeedParser(srv.Client(), "").Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	enc, ok := SelectEnclosure(entries[0].Links)
	if !ok || enc.URL != "https://example.com/atom1.mp3" {
		t.Errorf("expected atom enclosure link, got %+v (ok=%v)", enc, ok)
	}
	if !entries[0].Published.Equal(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("expected updated time as fallback, got %v", entries[0].Published)
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	if _, err := NewFeedParser(srv.Client(), "").Fetch(context.Background(), srv.URL); err == nil {
		t.Error("expected error for missing feed")
	}
}

func TestNewCandidateItem(t *testing.T) {
	e := Entry{ID: "1", Title: "Hello World", Published: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}
	enc := Enclosure{URL: "https://example.com/a.mp3", Length: 10, Type: "audio/mpeg", Extension: "mp3"}
	item := NewCandidateItem(e, enc)
	if item.Fingerprint != Fingerprint("Hello World") {
		t.Errorf("expected UTF-8 fingerprint, got %q", item.Fingerprint)
	}
	if item.FileLink != enc.URL || item.FileExtension != "mp3" || item.FileLength != 10 {
		t.Errorf("unexpected enclosure fields %+v", item)
	}
	if item.LocalTempPath != "" || item.TagSnapshot != nil {
		t.Error("expected processing fields to start empty")
	}
}
