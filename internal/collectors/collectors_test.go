package collectors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
	"github.com/mohammad-safakhou/ctxmerge/tools/feeds"
	"github.com/mohammad-safakhou/ctxmerge/tools/statistics"
	"github.com/mohammad-safakhou/ctxmerge/tools/trends"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search/models"
)

func collect(t *testing.T, id SourceID, deps Deps, params Params) []merger.ContextChunk {
	t.Helper()
	c, err := NewRegistry().Build(id, deps, params)
	require.NoError(t, err)
	require.Equal(t, id, c.ID())
	return c.Collect(context.Background())
}

func TestRegistryCoversEverySourceID(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	require.Len(t, reg, len(AllSourceIDs))
	for _, id := range AllSourceIDs {
		c, err := reg.Build(id, Deps{}, Params{})
		require.NoError(t, err, id)
		assert.Equal(t, id, c.ID())
	}
	_, err := reg.Build("notion", Deps{}, Params{})
	require.Error(t, err)
}

func TestParseSourceID(t *testing.T) {
	t.Parallel()
	tests := map[string]SourceID{
		"memory":          SourceMemory,
		" RSS ":           SourceRSS,
		"customer_memory": SourceMemory,
		"pdf":             SourceDocument,
		"destatis":        SourceStatistics,
	}
	for in, want := range tests {
		got, ok := ParseSourceID(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseSourceID("gdrive")
	assert.False(t, ok)
}

func TestMissingInputsYieldNothing(t *testing.T) {
	t.Parallel()
	for _, id := range AllSourceIDs {
		if id == SourceGuidelines {
			continue
		}
		assert.Empty(t, collect(t, id, Deps{}, Params{}), id)
	}
}

func TestParamsDecodeCoercesLooseTypes(t *testing.T) {
	t.Parallel()
	var p rssParams
	require.NoError(t, Params{"feeds": "a, b", "keywords": []any{"x", 3, "y"}, "days": "7"}.Decode(&p))
	assert.Equal(t, []string{"a", "b"}, p.Feeds)
	assert.Equal(t, []string{"x", "y"}, p.Keywords)
	assert.Equal(t, 7, p.Days)

	_, err := NewRegistry().Build(SourceRSS, Deps{}, Params{"days": "soon"})
	require.Error(t, err)
}

func TestMemoryCollector(t *testing.T) {
	t.Parallel()
	deps := Deps{Memory: stubMemory{"acme": "Prefers informal tone."}}

	got := collect(t, SourceMemory, deps, Params{"customer_id": "acme"})
	require.Len(t, got, 1)
	assert.Equal(t, "customer:acme", got[0].Source)
	assert.Equal(t, merger.CategoryCustomer, got[0].Category())
	assert.False(t, got[0].IsError())

	assert.Empty(t, collect(t, SourceMemory, deps, Params{"customer_id": "unknown"}))

	got = collect(t, SourceMemory, deps, Params{"customer_id": "broken"})
	require.Len(t, got, 1)
	assert.True(t, got[0].IsError())
	assert.Contains(t, got[0].Content, "boom")
}

func TestURLCollector(t *testing.T) {
	t.Parallel()
	deps := Deps{Fetcher: stubFetcher{"https://example.com": "Headline\n\nBody text"}, Extractor: lineExtractor{}}

	got := collect(t, SourceURL, deps, Params{"url": " https://example.com "})
	require.Len(t, got, 1)
	assert.Equal(t, "url:https://example.com", got[0].Source)
	assert.Equal(t, "Headline\nBody text", got[0].Content)

	got = collect(t, SourceURL, deps, Params{"url": "https://down.example"})
	require.Len(t, got, 1)
	assert.True(t, got[0].IsError())

	got = collect(t, SourceURL, Deps{}, Params{"url": "https://example.com"})
	require.Len(t, got, 1)
	assert.True(t, got[0].IsError())
}

func TestDocumentCollectorAcceptsLegacyKey(t *testing.T) {
	t.Parallel()
	deps := Deps{Documents: stubDocs{"brief.pdf": "Launch brief"}}

	got := collect(t, SourceDocument, deps, Params{"pdf_path": "brief.pdf"})
	require.Len(t, got, 1)
	assert.Equal(t, "document:brief.pdf", got[0].Source)
	assert.Equal(t, "Launch brief", got[0].Content)

	got = collect(t, SourceDocument, deps, Params{"document_path": "missing.pdf", "pdf_path": "brief.pdf"})
	require.Len(t, got, 1)
	assert.True(t, got[0].IsError())
}

func TestGuidelinesCollector(t *testing.T) {
	t.Parallel()
	got := collect(t, SourceGuidelines, Deps{}, Params{})
	require.Len(t, got, 1)
	assert.Equal(t, DefaultGuidelines, got[0].Content)

	got = collect(t, SourceGuidelines, Deps{Guidelines: "configured"}, Params{})
	assert.Equal(t, "configured", got[0].Content)

	got = collect(t, SourceGuidelines, Deps{Guidelines: "configured"}, Params{"guidelines": "override"})
	assert.Equal(t, "override", got[0].Content)
	assert.Equal(t, "guidelines", got[0].Source)
}

func TestRSSCollector(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	deps := Deps{Feeds: stubFeeds{
		"https://news.example/feed": {
			{Title: "Dog food trends", Summary: "Grain-free grows", Link: "https://news.example/1", Published: now.Add(-48 * time.Hour)},
			{Title: "Old news", Summary: "dog food", Link: "https://news.example/2", Published: now.Add(-30 * 24 * time.Hour)},
			{Title: "Undated dog story", Link: "https://news.example/3"},
			{Title: "Cats only", Summary: "nothing relevant", Link: "https://news.example/4", Published: now},
		},
	}}
	c, err := NewRegistry().Build(SourceRSS, deps, Params{
		"feeds":    []string{"https://news.example/feed", "https://broken.example/feed"},
		"keywords": []string{"DOG"},
	})
	require.NoError(t, err)
	c.(*rssCollector).now = func() time.Time { return now }

	got := c.Collect(context.Background())
	require.Len(t, got, 3)
	assert.Equal(t, "Dog food trends\nGrain-free grows\nhttps://news.example/1", got[0].Content)
	assert.Equal(t, "https://news.example/1", got[0].Meta["url"])
	assert.Equal(t, "rss:https://news.example/feed", got[0].Source)
	assert.Contains(t, got[1].Content, "Undated dog story")
	assert.True(t, got[2].IsError())
	assert.Equal(t, "rss:https://broken.example/feed", got[2].Source)
}

func TestRSSCollectorCapsEntriesPerFeed(t *testing.T) {
	t.Parallel()
	entries := make([]feeds.Entry, 150)
	for i := range entries {
		entries[i] = feeds.Entry{Title: fmt.Sprintf("item %d", i)}
	}
	got := collect(t, SourceRSS, Deps{Feeds: stubFeeds{"f": entries}}, Params{"feeds": "f"})
	assert.Len(t, got, maxEntriesPerFeed)
}

func TestTrendsCollector(t *testing.T) {
	t.Parallel()
	series := trends.Series{Keywords: []string{"hundefutter", "katzenfutter"}}
	for i := 0; i < 20; i++ {
		series.Rows = append(series.Rows, trends.Row{Date: fmt.Sprintf("2024-01-%02d", i+1), Values: []int{i, 100 - i}})
	}
	p := &stubTrends{series: series}

	got := collect(t, SourceTrends, Deps{Trends: p}, Params{"keywords": "hundefutter,katzenfutter"})
	require.Len(t, got, 1)
	assert.Equal(t, []string{"DE", "today 3-m", "hundefutter", "katzenfutter"}, p.got)
	lines := strings.Split(strings.TrimSpace(got[0].Content), "\n")
	require.Len(t, lines, 14)
	assert.Equal(t, "Google Trends: interest over time", lines[0])
	assert.Equal(t, "date,hundefutter,katzenfutter", lines[1])
	assert.Equal(t, "2024-01-09,8,92", lines[2])
	assert.Equal(t, "DE", got[0].Meta["geo"])

	got = collect(t, SourceTrends, Deps{Trends: &stubTrends{err: trends.ErrMissingAPIKey}}, Params{"keywords": "x"})
	require.Len(t, got, 1)
	assert.True(t, got[0].IsError())

	assert.Empty(t, collect(t, SourceTrends, Deps{Trends: &stubTrends{}}, Params{"keywords": "x"}))
}

func TestStatisticsCollector(t *testing.T) {
	t.Parallel()
	ok := stubStatistics{table: statistics.Table{Body: strings.Repeat("x", 20000)}}
	got := collect(t, SourceStatistics, Deps{Statistics: ok}, Params{"query": "12411-0001"})
	require.Len(t, got, 1)
	assert.Equal(t, "statistics:12411-0001", got[0].Source)
	assert.Len(t, got[0].Content, statisticsMaxChars)
	assert.Equal(t, "12411-0001", got[0].Meta["table"])

	want := "[statistics error: statistics not configured: set sources.statistics.token or sources.statistics.username/password]"
	for _, deps := range []Deps{{}, {Statistics: stubStatistics{err: statistics.ErrNotConfigured}}} {
		got = collect(t, SourceStatistics, deps, Params{"table": "t1"})
		require.Len(t, got, 1)
		assert.Equal(t, "statistics", got[0].Source)
		assert.True(t, got[0].IsError())
		assert.Equal(t, want, got[0].Content)
		assert.Equal(t, "t1", got[0].Meta["table"])
	}

	authErr := &statistics.AuthError{TokenOnly: true, Last: &httpclient.StatusError{Code: 401, Body: strings.Repeat("y", 1000)}}
	got = collect(t, SourceStatistics, Deps{Statistics: stubStatistics{err: authErr}}, Params{"table": "t1"})
	require.Len(t, got, 1)
	assert.True(t, got[0].IsError())
	assert.True(t, strings.HasPrefix(got[0].Content, "[statistics token could not be used, HTTP 401] "))
	assert.Equal(t, strings.Repeat("y", 400), strings.TrimPrefix(got[0].Content, "[statistics token could not be used, HTTP 401] "))
}

func TestAdsCollector(t *testing.T) {
	t.Parallel()
	got := collect(t, SourceAds, Deps{}, Params{"terms": []any{"hundefutter", "bio"}})
	require.Len(t, got, 1)
	assert.Equal(t, "ads:meta", got[0].Source)
	assert.Equal(t, "[ads placeholder] search terms: hundefutter, bio", got[0].Content)

	got = collect(t, SourceAds, Deps{}, Params{"terms": "x", "platform": "linkedin"})
	assert.Equal(t, "linkedin", got[0].Meta["platform"])
}

func TestOnpageCollectorOneChunkPerURL(t *testing.T) {
	t.Parallel()
	deps := Deps{Fetcher: stubFetcher{
		"https://a.example": `<html><head><title>A page</title></head><body><h1>A</h1></body></html>`,
		"https://b.example": `<html><head><title>B page</title></head><body><h1>B</h1></body></html>`,
	}}
	got := collect(t, SourceOnpage, deps, Params{
		"url":  "https://a.example",
		"urls": []string{"https://b.example", "https://a.example", "https://c.example"},
	})
	require.Len(t, got, 3)
	assert.Equal(t, "onpage:https://a.example", got[0].Source)
	assert.Contains(t, got[0].Content, `"title": "A page"`)
	assert.Contains(t, got[1].Content, `"title": "B page"`)
	assert.True(t, got[2].IsError())
}

func TestSitemapCollector(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sitemap.xml":
			_, _ = w.Write([]byte(`<?xml version="1.0"?><urlset><url><loc>https://example.com/a</loc></url></urlset>`))
		case "/sitemap_index.xml":
			_, _ = w.Write([]byte("<tiny/>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	deps := Deps{HTTP: httpclient.New(2*time.Second, 0, 0)}
	got := collect(t, SourceSitemap, deps, Params{"url": srv.URL + "/"})
	require.Len(t, got, 1)
	assert.Equal(t, "sitemap:"+srv.URL+"/sitemap.xml", got[0].Source)
	assert.Contains(t, got[0].Content, "<loc>")
}

func TestSERPCollector(t *testing.T) {
	t.Parallel()
	res := models.Result{Questions: []models.Question{{Question: "Is grain-free better?", Answer: "It depends."}}}
	for i := 0; i < 8; i++ {
		res.Organic = append(res.Organic, models.Organic{Title: fmt.Sprintf("T%d", i), Snippet: "s", URL: fmt.Sprintf("https://r%d.example", i)})
	}
	deps := Deps{
		Searchers:      map[web_search.Provider]web_search.Searcher{web_search.SerperProvider: stubSearcher{name: "serper", res: res}},
		SearchProvider: web_search.SerperProvider,
	}

	got := collect(t, SourceSERP, deps, Params{"query": "hundefutter"})
	require.Len(t, got, 1)
	assert.Equal(t, "serp:serper", got[0].Source)
	assert.True(t, strings.HasPrefix(got[0].Content, "• T0\ns\nhttps://r0.example\n\n"))
	assert.NotContains(t, got[0].Content, "T6")
	assert.Contains(t, got[0].Content, "\n\n\nPeople also ask:\n\n? Is grain-free better?\n→ It depends.")
	assert.Equal(t, "hundefutter", got[0].Meta["query"])

	got = collect(t, SourceSERP, deps, Params{SessionQueryKey: "fallback"})
	assert.Equal(t, "fallback", got[0].Meta["query"])

	empty := Deps{Searchers: map[web_search.Provider]web_search.Searcher{web_search.BraveProvider: stubSearcher{name: "brave"}}}
	got = collect(t, SourceSERP, empty, Params{"query": "nichts", "provider": "Brave"})
	assert.Equal(t, "[no results for nichts]", got[0].Content)

	got = collect(t, SourceSERP, deps, Params{"query": "q", "provider": "brave"})
	require.Len(t, got, 1)
	assert.Equal(t, "serp", got[0].Source)
	assert.True(t, got[0].IsError())
	assert.Equal(t, "brave", got[0].Meta["provider"])
}

func TestCompetitorsCollector(t *testing.T) {
	t.Parallel()
	pages := stubFetcher{"https://rival.example": strings.Repeat("a", 25000)}
	deps := Deps{Fetcher: pages, Extractor: lineExtractor{}, Policy: denyHosts{"blocked.example": true}}

	domains := []string{"rival.example", "www.blocked.example", "https://down.example"}
	for i := 0; i < 12; i++ {
		domains = append(domains, fmt.Sprintf("extra%d.example", i))
	}
	got := collect(t, SourceCompetitors, deps, Params{"domains": domains})
	require.Len(t, got, maxCompetitors)

	assert.Equal(t, "competitor:rival.example", got[0].Source)
	assert.Equal(t, competitorMaxChars, len(got[0].Content))
	assert.Equal(t, "rival.example", got[0].Meta["domain"])

	assert.True(t, got[1].IsError())
	assert.Equal(t, "[crawl policy disallows blocked.example]", got[1].Content)
	assert.True(t, got[2].IsError())
}
