package collectors

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
)

const minSitemapChars = 50

var sitemapPaths = []string{"/sitemap.xml", "/sitemap_index.xml"}

type sitemapParams struct {
	URL string `mapstructure:"url"`
}

type sitemapCollector struct {
	http *httpclient.Client
	base string
}

func newSitemap(deps Deps, params Params) (Collector, error) {
	var p sitemapParams
	if err := decodeParams(SourceSitemap, params, &p); err != nil {
		return nil, err
	}
	return &sitemapCollector{http: deps.HTTP, base: strings.TrimRight(helpers.EnsureScheme(p.URL), "/")}, nil
}

func (c *sitemapCollector) ID() SourceID { return SourceSitemap }

func (c *sitemapCollector) Collect(ctx context.Context) []merger.ContextChunk {
	if c.base == "" {
		return nil
	}
	if c.http == nil {
		err := &ConfigurationError{Source: SourceSitemap, Missing: []string{"http client"}}
		return []merger.ContextChunk{failure("sitemap", merger.CategorySitemap, "sitemap error", err, nil)}
	}
	var out []merger.ContextChunk
	for _, p := range sitemapPaths {
		candidate := c.base + p
		resp, err := c.http.Do(ctx, httpclient.Request{Method: http.MethodGet, URL: candidate})
		if err != nil {
			out = append(out, failure("sitemap:"+candidate, merger.CategorySitemap, "sitemap error", err, nil))
			continue
		}
		if resp.StatusCode == http.StatusOK && utf8.RuneCount(resp.Body) > minSitemapChars {
			out = append(out, merger.NewChunk("sitemap:"+candidate, merger.CategorySitemap, string(resp.Body), nil))
		}
	}
	return out
}
