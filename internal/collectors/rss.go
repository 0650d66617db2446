package collectors

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
	"github.com/mohammad-safakhou/ctxmerge/tools/feeds"
)

const (
	defaultRSSDays    = 14
	maxEntriesPerFeed = 100
)

type rssParams struct {
	Feeds    []string `mapstructure:"feeds"`
	Keywords []string `mapstructure:"keywords"`
	Days     int      `mapstructure:"days"`
}

type rssCollector struct {
	parser feeds.Parser
	log    *zap.Logger
	p      rssParams
	now    func() time.Time
}

func newRSS(deps Deps, params Params) (Collector, error) {
	p := rssParams{Days: defaultRSSDays}
	if err := decodeParams(SourceRSS, params, &p); err != nil {
		return nil, err
	}
	if p.Days <= 0 {
		p.Days = defaultRSSDays
	}
	return &rssCollector{parser: deps.Feeds, log: deps.logger(), p: p, now: time.Now}, nil
}

func (c *rssCollector) ID() SourceID { return SourceRSS }

func (c *rssCollector) Collect(ctx context.Context) []merger.ContextChunk {
	if len(c.p.Feeds) == 0 {
		return nil
	}
	if c.parser == nil {
		return errorChunk("rss", merger.CategoryRSS, "feed parser not configured", nil)
	}
	now := c.now()
	earliest := now.Add(-time.Duration(c.p.Days) * 24 * time.Hour)
	keywords := make([]string, 0, len(c.p.Keywords))
	for _, k := range c.p.Keywords {
		keywords = append(keywords, strings.ToLower(k))
	}

	var out []merger.ContextChunk
	for _, feed := range c.p.Feeds {
		source := "rss:" + feed
		entries, err := c.parser.Parse(ctx, feed)
		if err != nil {
			c.log.Warn("feed failed", zap.String("feed", feed), zap.Error(err))
			out = append(out, failure(source, merger.CategoryRSS, "rss error", err, nil))
			continue
		}
		if len(entries) > maxEntriesPerFeed {
			entries = entries[:maxEntriesPerFeed]
		}
		for _, e := range entries {
			published := e.Published
			if published.IsZero() {
				published = now
			}
			if published.Before(earliest) {
				continue
			}
			text := e.Title + "\n" + e.Summary + "\n" + e.Link
			if !matchesAny(text, keywords) {
				continue
			}
			out = append(out, merger.NewChunk(source, merger.CategoryRSS, text, map[string]any{"url": e.Link}))
		}
	}
	return out
}

// matchesAny reports whether text contains any of the lowercased keywords.
// No keywords means everything matches.
func matchesAny(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
