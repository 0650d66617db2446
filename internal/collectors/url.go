package collectors

import (
	"context"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
)

type urlParams struct {
	URL string `mapstructure:"url"`
}

type urlCollector struct {
	deps Deps
	p    urlParams
}

func newURL(deps Deps, params Params) (Collector, error) {
	var p urlParams
	if err := decodeParams(SourceURL, params, &p); err != nil {
		return nil, err
	}
	p.URL = strings.TrimSpace(p.URL)
	return &urlCollector{deps: deps, p: p}, nil
}

func (c *urlCollector) ID() SourceID { return SourceURL }

func (c *urlCollector) Collect(ctx context.Context) []merger.ContextChunk {
	if c.p.URL == "" {
		return nil
	}
	source := "url:" + c.p.URL
	text, err := fetchText(ctx, c.deps, c.p.URL)
	if err != nil {
		return []merger.ContextChunk{failure(source, merger.CategoryURL, "error loading url", err, nil)}
	}
	return []merger.ContextChunk{merger.NewChunk(source, merger.CategoryURL, text, nil)}
}

// fetchText fetches a page and joins its extracted text blocks by newline.
func fetchText(ctx context.Context, deps Deps, target string) (string, error) {
	if deps.Fetcher == nil || deps.Extractor == nil {
		return "", &ConfigurationError{Source: SourceURL, Missing: []string{"sources.web_fetch"}}
	}
	raw, err := deps.Fetcher.Fetch(ctx, target)
	if err != nil {
		return "", err
	}
	return strings.Join(deps.Extractor.ExtractBlocks(raw), "\n"), nil
}
