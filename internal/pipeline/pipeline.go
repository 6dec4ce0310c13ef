// Package pipeline turns new feed entries into tagged files in the podcast
// library and records every processed entry in the ledger.
package pipeline

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/TobiSchelling/podcatcher/internal/catalog"
	"github.com/TobiSchelling/podcatcher/internal/collect"
	"github.com/TobiSchelling/podcatcher/internal/config"
	"github.com/TobiSchelling/podcatcher/internal/fetch"
	"github.com/TobiSchelling/podcatcher/internal/fileutil"
	"github.com/TobiSchelling/podcatcher/internal/tags"
)

// Result holds the results of a full pipeline run.
type Result struct {
	RunID string
	Feeds []FeedResult
}

// Totals sums the per-feed counts.
func (r *Result) Totals() FeedResult {
	var t FeedResult
	for _, f := range r.Feeds {
		t.Entries += f.Entries
		t.TooOld += f.TooOld
		t.Seen += f.Seen
		t.NoEnclosure += f.NoEnclosure
		t.Downloaded += f.Downloaded
		t.Faulty += f.Faulty
	}
	return t
}

// Deps overrides the collaborators a Pipeline builds by default.
type Deps struct {
	Source      collect.FeedSource
	Downloader  Downloader
	Codec       TagCodec
	Interrupter Interrupter
	OnInterrupt InterruptHandler
}

// Pipeline loads the catalog and runs every active feed in order.
type Pipeline struct {
	cfg    *config.Config
	ledger Ledger
	deps   Deps
	logger *log.Logger
}

// New creates a new pipeline. Zero fields in deps get the HTTP feed parser,
// downloader and ID3 codec configured from cfg.
func New(cfg *config.Config, ledger Ledger, logger *log.Logger, deps Deps) *Pipeline {
	if deps.Source == nil || deps.Downloader == nil {
		client := fetch.NewClient(config.DownloadTimeout, cfg.InsecureTLS)
		if deps.Source == nil {
			deps.Source = collect.NewFeedParser(client, cfg.UserAgent)
		}
		if deps.Downloader == nil {
			deps.Downloader = fetch.NewDownloader(client, cfg.UserAgent, nil)
		}
	}
	if deps.Codec == nil {
		deps.Codec = tags.ID3Codec{}
	}
	return &Pipeline{cfg: cfg, ledger: ledger, deps: deps, logger: logger}
}

// Run executes one pass over the catalog. Catalog errors, ledger failures,
// an aborted run and ctx cancellation are returned; everything else is
// recorded per item or per feed in the result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	r := &Result{RunID: uuid.NewString()}
	logger := p.logger.With("run", r.RunID[:8])

	for _, dir := range []string{p.cfg.PodcastDir, p.cfg.TempDir} {
		if err := fileutil.EnsureDir(dir); err != nil {
			return r, err
		}
	}

	loader := catalog.NewLoader(p.cfg.Catalog, p.cfg.TempDir, p.deps.Downloader, logger)
	feeds, err := loader.Load(ctx)
	if err != nil {
		return r, fmt.Errorf("loading catalog: %w", err)
	}
	logger.Info("starting run", "feeds", len(feeds))

	processor := NewProcessor(p.deps.Downloader, p.deps.Codec, p.deps.Interrupter, p.cfg.TempDir, p.cfg.PodcastDir, logger)
	runner := NewRunner(p.deps.Source, p.ledger, processor, p.deps.OnInterrupt, logger)
	for _, feed := range feeds {
		fr, err := runner.RunFeed(ctx, feed)
		r.Feeds = append(r.Feeds, fr)
		if err != nil {
			return r, err
		}
	}

	t := r.Totals()
	logger.Info("run complete", "feeds", len(r.Feeds), "downloaded", t.Downloaded, "faulty", t.Faulty)
	return r, nil
}
