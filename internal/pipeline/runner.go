package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/TobiSchelling/podcatcher/internal/catalog"
	"github.com/TobiSchelling/podcatcher/internal/collect"
	"github.com/TobiSchelling/podcatcher/internal/database"
)

// Ledger is the seen store the runner reads and appends to.
type Ledger interface {
	collect.Lookup
	AppendSeen(e database.SeenEntry) (int64, error)
}

// Decision is the answer to an interrupted download.
type Decision int

const (
	// SkipAndMarkSeen records the item as faulty and moves on.
	SkipAndMarkSeen Decision = iota
	// AbortRun stops the run without recording the item.
	AbortRun
)

// InterruptHandler decides what happens after a download was interrupted.
type InterruptHandler func(item *collect.CandidateItem) Decision

// FeedResult counts what happened to the entries of one feed.
type FeedResult struct {
	FeedID      string
	Entries     int
	TooOld      int
	Seen        int
	NoEnclosure int
	Downloaded  int
	Faulty      int
	Err         error
}

// Runner processes the entries of one feed at a time.
type Runner struct {
	source      collect.FeedSource
	ledger      Ledger
	dedup       *collect.Deduplicator
	processor   *Processor
	onInterrupt InterruptHandler
	now         func() time.Time
	logger      *log.Logger
}

// NewRunner creates a Runner. A nil onInterrupt aborts the run on interrupt.
func NewRunner(source collect.FeedSource, ledger Ledger, processor *Processor, onInterrupt InterruptHandler, logger *log.Logger) *Runner {
	return &Runner{
		source:      source,
		ledger:      ledger,
		dedup:       collect.NewDeduplicator(ledger),
		processor:   processor,
		onInterrupt: onInterrupt,
		now:         time.Now,
		logger:      logger,
	}
}

// RunFeed fetches the feed and processes its new entries oldest first.
// A feed that cannot be fetched is reported in the result's Err and is
// not fatal. The returned error is non-nil only when the run must stop:
// the ledger failed, the user aborted, or ctx was cancelled.
func (r *Runner) RunFeed(ctx context.Context, feed catalog.FeedDefinition) (FeedResult, error) {
	res := FeedResult{FeedID: feed.ID}
	logger := r.logger.With("feed", feed.ID)

	logger.Info("checking feed", "url", feed.URL)
	entries, err := r.source.Fetch(ctx, feed.URL)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		logger.Error("could not read feed", "err", err)
		res.Err = err
		return res, nil
	}
	res.Entries = len(entries)

	slices.Reverse(entries)
	now := r.now()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if tooOld(now, e.Published, feed.MaxAgeDays) {
			logger.Debug("entry too old", "title", e.Title, "published", e.Published.Format(time.DateOnly))
			res.TooOld++
			continue
		}

		seen, err := r.dedup.IsSeen(e.Title)
		if err != nil {
			return res, err
		}
		if seen {
			logger.Debug("entry already seen", "title", e.Title)
			res.Seen++
			continue
		}

		enc, ok := collect.SelectEnclosure(e.Links)
		if !ok {
			logger.Debug("no supported enclosure", "title", e.Title)
			res.NoEnclosure++
			continue
		}

		item := collect.NewCandidateItem(e, enc)
		if err := r.processItem(ctx, logger, feed, &item, &res); err != nil {
			return res, err
		}
	}

	logger.Info("feed done", "downloaded", res.Downloaded, "faulty", res.Faulty, "seen", res.Seen)
	return res, nil
}

func (r *Runner) processItem(ctx context.Context, logger *log.Logger, feed catalog.FeedDefinition, item *collect.CandidateItem, res *FeedResult) error {
	out := r.processor.Process(ctx, feed, item)
	if out.State != StateFaulty {
		if err := r.record(feed.ID, item, database.StatusOK); err != nil {
			return err
		}
		logger.Info("saved episode", "title", item.Title, "path", out.Path)
		res.Downloaded++
		return nil
	}

	switch {
	case errors.Is(out.Err, ErrInterrupted):
		if r.decide(item) == AbortRun {
			logger.Warn("run aborted", "title", item.Title)
			return ErrAborted
		}
	case ctx.Err() != nil:
		return ctx.Err()
	}

	logger.Error("episode failed", "title", item.Title, "step", out.Failed, "err", out.Err)
	if err := r.record(feed.ID, item, database.StatusFaulty); err != nil {
		return err
	}
	res.Faulty++
	return nil
}

func (r *Runner) decide(item *collect.CandidateItem) Decision {
	if r.onInterrupt == nil {
		return AbortRun
	}
	return r.onInterrupt(item)
}

func (r *Runner) record(feedID string, item *collect.CandidateItem, status database.Status) error {
	_, err := r.ledger.AppendSeen(database.SeenEntry{
		Fingerprint: item.Fingerprint,
		PublishedAt: item.PublishedAt,
		FeedID:      feedID,
		Title:       item.Title,
		Status:      status,
	})
	if err != nil {
		return fmt.Errorf("recording %q: %w", item.Title, err)
	}
	return nil
}

// tooOld reports whether published lies more than maxAgeDays whole days
// before now. Zero disables the check.
func tooOld(now, published time.Time, maxAgeDays int) bool {
	if maxAgeDays <= 0 {
		return false
	}
	days := int(now.Sub(published).Hours() / 24)
	return days > maxAgeDays
}
