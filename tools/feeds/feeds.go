package feeds

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
)

// Entry is one feed item. Published is zero when the feed carries no date.
type Entry struct {
	Title     string
	Link      string
	Summary   string
	Published time.Time
}

// Parser reads RSS/Atom/JSON feeds.
type Parser interface {
	Parse(ctx context.Context, feedURL string) ([]Entry, error)
}

// GofeedParser downloads with the shared HTTP client and parses with gofeed.
type GofeedParser struct {
	client *httpclient.Client
}

func NewParser(client *httpclient.Client) *GofeedParser {
	if client == nil {
		client = httpclient.New(0, 1, 0)
	}
	return &GofeedParser{client: client}
}

func (p *GofeedParser) Parse(ctx context.Context, feedURL string) ([]Entry, error) {
	body, err := p.client.Get(ctx, feedURL, map[string]string{"Accept": "application/rss+xml, application/atom+xml, application/xml, text/xml, */*"})
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		e := Entry{Title: it.Title, Link: it.Link, Summary: helpers.StripHTML(it.Description)}
		if e.Summary == "" {
			e.Summary = helpers.StripHTML(it.Content)
		}
		switch {
		case it.PublishedParsed != nil:
			e.Published = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			e.Published = *it.UpdatedParsed
		}
		out = append(out, e)
	}
	return out, nil
}
