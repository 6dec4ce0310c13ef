package collect

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is a parsed feed entry, in feed declaration order.
type Entry struct {
	ID        string
	Title     string
	Summary   string
	Author    string
	Link      string
	Published time.Time
	Links     []Link
}

// FeedSource fetches and parses a feed into its entries.
type FeedSource interface {
	Fetch(ctx context.Context, feedURL string) ([]Entry, error)
}

// FeedParser parses RSS/Atom feeds over HTTP.
type FeedParser struct {
	parser *gofeed.Parser
	now    func() time.Time
}

// NewFeedParser creates a FeedParser. A nil client uses gofeed's default.
func NewFeedParser(client *http.Client, userAgent string) *FeedParser {
	p := gofeed.NewParser()
	if client != nil {
		p.Client = client
	}
	if userAgent != "" {
		p.UserAgent = userAgent
	}
	return &FeedParser{parser: p, now: time.Now}
}

// Fetch downloads and parses the feed at feedURL.
func (fp *FeedParser) Fetch(ctx context.Context, feedURL string) ([]Entry, error) {
	feed, err := fp.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}

	fetched := fp.now()
	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, parseItem(item, fetched))
	}
	return entries, nil
}

func parseItem(item *gofeed.Item, fetched time.Time) Entry {
	// Entries without any date are treated as published when fetched.
	published := fetched
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	id := item.GUID
	if id == "" {
		id = item.Link
	}

	author := ""
	if item.Author != nil {
		author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		author = item.Authors[0].Name
	}

	links := make([]Link, 0, len(item.Enclosures))
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		length, _ := strconv.ParseInt(strings.TrimSpace(enc.Length), 10, 64)
		links = append(links, Link{
			Type:   enc.Type,
			Href:   strings.TrimSpace(enc.URL),
			Length: length,
		})
	}

	return Entry{
		ID:        id,
		Title:     item.Title,
		Summary:   item.Description,
		Author:    author,
		Link:      item.Link,
		Published: published,
		Links:     links,
	}
}
