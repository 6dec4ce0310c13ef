package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/TobiSchelling/podcatcher/internal/catalog"
	"github.com/TobiSchelling/podcatcher/internal/collect"
	"github.com/TobiSchelling/podcatcher/internal/fileutil"
	"github.com/TobiSchelling/podcatcher/internal/tags"
	"github.com/TobiSchelling/podcatcher/internal/textutil"
)

// State is a step of an item's processing.
type State int

const (
	StatePending State = iota
	StateDownloading
	StateDownloaded
	StateTagsRead
	StateTagsOverwritten
	StateRelocated
	StateRecorded
	StateFaulty
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDownloading:
		return "downloading"
	case StateDownloaded:
		return "downloaded"
	case StateTagsRead:
		return "tags-read"
	case StateTagsOverwritten:
		return "tags-overwritten"
	case StateRelocated:
		return "relocated"
	case StateRecorded:
		return "recorded"
	case StateFaulty:
		return "faulty"
	default:
		return "unknown"
	}
}

// Downloader streams a URL to a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// TagCodec reads and writes the embedded tags of a media file.
type TagCodec interface {
	Read(path string) (tags.Tags, error)
	Write(path string, values tags.Tags) error
}

// Interrupter signals a user request to cancel the running download.
// Begin is called when a download starts and returns a channel that is
// closed or sent on when the download should stop; End is called when the
// download finishes.
type Interrupter interface {
	Begin() <-chan struct{}
	End()
}

// Outcome reports how far an item got. On failure State is StateFaulty,
// Failed names the step that failed and Err holds the cause.
type Outcome struct {
	State  State
	Failed State
	Path   string
	Err    error
}

// Processor runs the download, tag and relocate steps for one item.
type Processor struct {
	downloader Downloader
	codec      TagCodec
	interrupts Interrupter
	tempDir    string
	podcastDir string
	logger     *log.Logger
}

// NewProcessor creates a Processor. interrupts may be nil.
func NewProcessor(downloader Downloader, codec TagCodec, interrupts Interrupter, tempDir, podcastDir string, logger *log.Logger) *Processor {
	return &Processor{
		downloader: downloader,
		codec:      codec,
		interrupts: interrupts,
		tempDir:    tempDir,
		podcastDir: podcastDir,
		logger:     logger,
	}
}

// Process moves item from Pending to Relocated. It does not touch the
// ledger; recording the outcome is left to the caller.
func (p *Processor) Process(ctx context.Context, feed catalog.FeedDefinition, item *collect.CandidateItem) Outcome {
	fail := func(step State, err error) Outcome {
		if item.LocalTempPath != "" {
			os.Remove(item.LocalTempPath)
		}
		return Outcome{State: StateFaulty, Failed: step, Err: err}
	}

	if err := p.download(ctx, item); err != nil {
		return fail(StateDownloading, err)
	}
	p.readTags(item)
	if err := p.overwriteTags(feed.Overwrite, item); err != nil {
		return fail(StateTagsRead, err)
	}
	dest, err := p.relocate(feed.ID, item)
	if err != nil {
		return fail(StateTagsOverwritten, err)
	}
	return Outcome{State: StateRelocated, Path: dest}
}

func (p *Processor) download(ctx context.Context, item *collect.CandidateItem) error {
	dest := filepath.Join(p.tempDir, item.Fingerprint+"."+item.FileExtension)
	p.logger.Info("downloading", "title", item.Title, "url", item.FileLink)
	if item.FileLength > 0 {
		p.logger.Debug("announced size", "size", humanize.Bytes(uint64(item.FileLength)))
	}

	dctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var interrupted atomic.Bool
	if p.interrupts != nil {
		stop := p.interrupts.Begin()
		defer p.interrupts.End()
		go func() {
			select {
			case <-stop:
				interrupted.Store(true)
				cancel()
			case <-dctx.Done():
			}
		}()
	}

	n, err := p.downloader.Download(dctx, item.FileLink, dest)
	if err != nil {
		os.Remove(dest)
		switch {
		case interrupted.Load():
			return ErrInterrupted
		case ctx.Err() != nil:
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	item.LocalTempPath = dest
	if n == 0 {
		return fmt.Errorf("%w: %s is empty", ErrDownload, item.FileLink)
	}

	p.logger.Debug("downloaded", "path", dest, "size", humanize.Bytes(uint64(n)))
	return nil
}

// readTags loads the current tags. Files without a readable tag get an
// empty snapshot; processing continues either way.
func (p *Processor) readTags(item *collect.CandidateItem) {
	snapshot := tags.Empty()
	current, err := p.codec.Read(item.LocalTempPath)
	if err != nil {
		if errors.Is(err, tags.ErrNoTagHeader) {
			p.logger.Warn("file has no tags", "title", item.Title)
		} else {
			p.logger.Warn("could not read tags", "title", item.Title, "err", err)
		}
	}
	for k, v := range current {
		snapshot[k] = v
	}
	item.TagSnapshot = snapshot
	p.logger.Debug("read tags", "album", snapshot[tags.Album], "title", snapshot[tags.Title],
		"track", snapshot[tags.TrackNumber], "artist", snapshot[tags.Artist], "albumartist", snapshot[tags.AlbumArtist])
}

func (p *Processor) overwriteTags(rules catalog.OverwriteRules, item *collect.CandidateItem) error {
	values := overwriteValues(rules, item)
	if len(values) == 0 {
		return nil
	}
	if err := p.codec.Write(item.LocalTempPath, values); err != nil {
		return fmt.Errorf("%w: %w", ErrTagWrite, err)
	}
	for k, v := range values {
		item.TagSnapshot[k] = v
		p.logger.Debug("overwrote tag", "tag", k, "value", v)
	}
	return nil
}

func overwriteValues(rules catalog.OverwriteRules, item *collect.CandidateItem) tags.Tags {
	values := tags.Tags{}
	if rules.Album {
		values[tags.Album] = rules.AlbumValue
	}
	if rules.Artist {
		values[tags.Artist] = rules.ArtistValue
	}
	if rules.AlbumArtist {
		values[tags.AlbumArtist] = rules.AlbumArtistValue
	}
	if rules.Date {
		values[tags.Date] = publishedDate(item)
	}
	if rules.Title {
		values[tags.Title] = item.Title
	}
	return values
}

func (p *Processor) relocate(feedID string, item *collect.CandidateItem) (string, error) {
	dir := filepath.Join(p.podcastDir, feedID)
	if err := fileutil.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRelocation, err)
	}

	want := filepath.Join(dir, Filename(feedID, item))
	dest, err := fileutil.FreePath(want)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRelocation, err)
	}
	if dest != want {
		p.logger.Warn("target name taken, keeping both files", "title", item.Title, "path", dest)
	}
	p.logger.Debug("moving file", "from", item.LocalTempPath, "to", dest)
	if err := fileutil.Move(item.LocalTempPath, dest); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRelocation, err)
	}
	item.LocalTempPath = ""
	return dest, nil
}

// Filename is the library file name for item:
// slug(YYYY-MM-DD_feedID_[track_]title).ext
func Filename(feedID string, item *collect.CandidateItem) string {
	name := publishedDate(item) + "_" + feedID + "_"
	if track := item.TagSnapshot[tags.TrackNumber]; track != "" {
		name += track + "_"
	}
	name += item.Title
	return textutil.Slugify(name) + "." + item.FileExtension
}

func publishedDate(item *collect.CandidateItem) string {
	return item.PublishedAt.UTC().Format("2006-01-02")
}
