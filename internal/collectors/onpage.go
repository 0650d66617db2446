package collectors

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_fetch"
)

type onpageParams struct {
	URL  string   `mapstructure:"url"`
	URLs []string `mapstructure:"urls"`
}

// targets returns url followed by urls, without blanks or repeats.
func (p onpageParams) targets() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, u := range append([]string{p.URL}, p.URLs...) {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

type onpageCollector struct {
	fetcher web_fetch.Fetcher
	urls    []string
}

func newOnpage(deps Deps, params Params) (Collector, error) {
	var p onpageParams
	if err := decodeParams(SourceOnpage, params, &p); err != nil {
		return nil, err
	}
	return &onpageCollector{fetcher: deps.Fetcher, urls: p.targets()}, nil
}

func (c *onpageCollector) ID() SourceID { return SourceOnpage }

func (c *onpageCollector) Collect(ctx context.Context) []merger.ContextChunk {
	out := make([]merger.ContextChunk, 0, len(c.urls))
	for _, u := range c.urls {
		out = append(out, c.one(ctx, u))
	}
	return out
}

func (c *onpageCollector) one(ctx context.Context, target string) merger.ContextChunk {
	source := "onpage:" + target
	if c.fetcher == nil {
		err := &ConfigurationError{Source: SourceOnpage, Missing: []string{"sources.web_fetch"}}
		return failure(source, merger.CategoryOnpage, "onpage error", err, nil)
	}
	raw, err := c.fetcher.Fetch(ctx, target)
	if err != nil {
		return failure(source, merger.CategoryOnpage, "onpage error", err, nil)
	}
	sig, err := web_fetch.ExtractSignals(target, raw)
	if err != nil {
		return failure(source, merger.CategoryOnpage, "onpage error", err, nil)
	}
	body, err := json.MarshalIndent(sig, "", "  ")
	if err != nil {
		return failure(source, merger.CategoryOnpage, "onpage error", err, nil)
	}
	return merger.NewChunk(source, merger.CategoryOnpage, string(body), map[string]any{"url": target})
}
