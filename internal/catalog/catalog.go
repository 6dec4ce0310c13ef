// Package catalog loads the list of podcast feeds to poll.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// SampleYAML is a starter catalog written by `podcatcher init`.
//
//go:embed default.yaml
var SampleYAML []byte

var (
	// ErrCatalogUnavailable means the catalog could neither be fetched nor
	// found locally.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrMalformedCatalog means the catalog document could not be parsed or
	// holds an invalid feed definition.
	ErrMalformedCatalog = errors.New("malformed catalog")
)

// OverwriteRules selects which tags are replaced in downloaded files.
// Album, Artist and AlbumArtist write the literal values; Date writes the
// entry's publish date and Title the entry title.
type OverwriteRules struct {
	Album       bool `yaml:"overwrite_id3_album"`
	Artist      bool `yaml:"overwrite_id3_artist"`
	AlbumArtist bool `yaml:"overwrite_id3_albumartist"`
	Date        bool `yaml:"overwrite_id3_date"`
	Title       bool `yaml:"overwrite_id3_title"`

	AlbumValue       string `yaml:"album"`
	ArtistValue      string `yaml:"artist"`
	AlbumArtistValue string `yaml:"albumartist"`
}

// FeedDefinition is one podcast feed from the catalog.
type FeedDefinition struct {
	ID         string         `yaml:"id"`
	URL        string         `yaml:"url"`
	Active     bool           `yaml:"active"`
	MaxAgeDays int            `yaml:"maxage"`
	Overwrite  OverwriteRules `yaml:",inline"`
}

type document struct {
	Podcasts []FeedDefinition `yaml:"podcasts"`
}

// Parse decodes a catalog document and validates every feed definition.
func Parse(data []byte) ([]FeedDefinition, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCatalog, err)
	}
	if doc.Podcasts == nil {
		return nil, fmt.Errorf("%w: no podcasts list", ErrMalformedCatalog)
	}

	for i, f := range doc.Podcasts {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("%w: podcast %d: %w", ErrMalformedCatalog, i+1, err)
		}
	}
	return doc.Podcasts, nil
}

func (f FeedDefinition) validate() error {
	switch {
	case strings.TrimSpace(f.ID) == "":
		return errors.New("missing id")
	case f.ID == "." || f.ID == ".." || strings.ContainsAny(f.ID, `/\`):
		return fmt.Errorf("id %q must be a single directory name", f.ID)
	case strings.TrimSpace(f.URL) == "":
		return fmt.Errorf("feed %q: missing url", f.ID)
	case f.MaxAgeDays < 0:
		return fmt.Errorf("feed %q: maxage must not be negative", f.ID)
	}
	return nil
}

// Active returns the definitions marked active, in catalog order.
func Active(defs []FeedDefinition) []FeedDefinition {
	var active []FeedDefinition
	for _, f := range defs {
		if f.Active {
			active = append(active, f)
		}
	}
	return active
}

// Fetcher downloads a URL to a local file.
type Fetcher interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// Loader resolves the catalog source and loads its active feeds.
type Loader struct {
	source  string
	tempDir string
	fetcher Fetcher
	logger  *log.Logger
}

// NewLoader creates a Loader. source is a local path or an http(s) URL;
// remote catalogs are cached in tempDir.
func NewLoader(source, tempDir string, fetcher Fetcher, logger *log.Logger) *Loader {
	return &Loader{source: source, tempDir: tempDir, fetcher: fetcher, logger: logger}
}

// Load resolves the catalog and returns its active feed definitions.
func (l *Loader) Load(ctx context.Context) ([]FeedDefinition, error) {
	local, err := l.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("loading feed catalog", "path", local)
	data, err := os.ReadFile(local)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, err
	}

	active := Active(defs)
	for _, f := range active {
		l.logger.Debug("feed is active", "feed", f.ID)
	}
	return active, nil
}

// Resolve returns a local path holding the catalog. Remote catalogs are
// downloaded to the temp directory; when the download fails a previously
// cached copy is used instead.
func (l *Loader) Resolve(ctx context.Context) (string, error) {
	u, err := url.Parse(l.source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		if _, statErr := os.Stat(l.source); statErr != nil {
			return "", fmt.Errorf("%w: %s does not exist", ErrCatalogUnavailable, l.source)
		}
		return l.source, nil
	}

	cached := filepath.Join(l.tempDir, cacheName(u))
	if err := l.download(ctx, cached); err != nil {
		if _, statErr := os.Stat(cached); statErr == nil {
			l.logger.Warn("catalog download failed, using cached copy", "url", l.source, "path", cached, "err", err)
			return cached, nil
		}
		return "", fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return cached, nil
}

// download fetches the catalog next to its cache path and swaps it in only
// once complete, so a failed transfer never clobbers the cached copy.
func (l *Loader) download(ctx context.Context, cached string) error {
	if err := os.MkdirAll(l.tempDir, 0o755); err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	l.logger.Debug("downloading feed catalog", "url", l.source, "path", cached)

	part := cached + ".part"
	if _, err := l.fetcher.Download(ctx, l.source, part); err != nil {
		return err
	}
	if err := os.Rename(part, cached); err != nil {
		os.Remove(part)
		return err
	}
	return nil
}

func cacheName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "podcatcher.yaml"
	}
	return name
}
