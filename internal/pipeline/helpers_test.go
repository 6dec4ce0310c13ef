package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/TobiSchelling/podcatcher/internal/catalog"
	"github.com/TobiSchelling/podcatcher/internal/collect"
	"github.com/TobiSchelling/podcatcher/internal/database"
	"github.com/TobiSchelling/podcatcher/internal/fetch"
	"github.com/TobiSchelling/podcatcher/internal/logging"
	"github.com/TobiSchelling/podcatcher/internal/tags"
	"github.com/TobiSchelling/podcatcher/internal/testsupport"
)

// mediaServer serves fixture enclosures and counts requests per path.
type mediaServer struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func newMediaServer(t *testing.T) *mediaServer {
	t.Helper()
	ms := &mediaServer{hits: map[string]int{}}

	tagged := testsupport.MP3(t, map[string]string{"TIT2": "Original", "TRCK": "3", "TPE1": "Host"})
	untagged := testsupport.MP3(t, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/tagged.mp3", func(w http.ResponseWriter, r *http.Request) { w.Write(tagged) })
	mux.HandleFunc("/untagged.mp3", func(w http.ResponseWriter, r *http.Request) { w.Write(untagged) })
	mux.HandleFunc("/empty.mp3", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/notes.m4v", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("just some show notes")) })
	mux.HandleFunc("/gone.mp3", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
	mux.HandleFunc("/stall.mp3", func(w http.ResponseWriter, r *http.Request) { <-r.Context().Done() })

	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms.mu.Lock()
		ms.hits[r.URL.Path]++
		ms.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(ms.Close)
	return ms
}

func (ms *mediaServer) total() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	n := 0
	for _, v := range ms.hits {
		n += v
	}
	return n
}

func (ms *mediaServer) downloader() *fetch.Downloader {
	return fetch.NewDownloader(ms.Client(), "podcatcher-test", nil)
}

// fakeSource serves canned entries per feed URL.
type fakeSource struct {
	entries map[string][]collect.Entry
	err     error
}

func (f *fakeSource) Fetch(ctx context.Context, feedURL string) ([]collect.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]collect.Entry(nil), f.entries[feedURL]...), nil
}

// fakeInterrupter interrupts every download immediately.
type fakeInterrupter struct{ begun int }

func (f *fakeInterrupter) Begin() <-chan struct{} {
	f.begun++
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (f *fakeInterrupter) End() {}

func mp3Entry(title, href string, published time.Time) collect.Entry {
	return collect.Entry{
		ID:        href,
		Title:     title,
		Published: published,
		Links:     []collect.Link{{Type: "audio/mpeg", Href: href}},
	}
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "seen.db"), nil)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type dirs struct {
	temp    string
	podcast string
}

func newDirs(t *testing.T) dirs {
	root := t.TempDir()
	return dirs{temp: filepath.Join(root, "tmp"), podcast: filepath.Join(root, "podcasts")}
}

func newTestProcessor(t *testing.T, ms *mediaServer, d dirs, interrupts Interrupter) *Processor {
	t.Helper()
	for _, dir := range []string{d.temp, d.podcast} {
		if err := mkdir(dir); err != nil {
			t.Fatal(err)
		}
	}
	return NewProcessor(ms.downloader(), tags.ID3Codec{}, interrupts, d.temp, d.podcast, logging.Discard())
}

func feedDef(id string) catalog.FeedDefinition {
	return catalog.FeedDefinition{ID: id, URL: "https://example.com/" + id + ".xml", Active: true}
}
