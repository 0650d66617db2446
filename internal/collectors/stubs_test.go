package collectors

import (
	"context"
	"errors"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/tools/feeds"
	"github.com/mohammad-safakhou/ctxmerge/tools/statistics"
	"github.com/mohammad-safakhou/ctxmerge/tools/trends"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search/models"
)

var errBoom = errors.New("boom")

type stubMemory map[string]string

func (s stubMemory) Read(_ context.Context, id string) (string, error) {
	if id == "broken" {
		return "", errBoom
	}
	return s[id], nil
}

type stubFetcher map[string]string

func (s stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	body, ok := s[url]
	if !ok {
		return "", errBoom
	}
	return body, nil
}

// lineExtractor treats every non-empty line as a block.
type lineExtractor struct{}

func (lineExtractor) ExtractBlocks(raw string) []string {
	var out []string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

type stubDocs map[string]string

func (s stubDocs) Read(_ context.Context, path string) (string, error) {
	text, ok := s[path]
	if !ok {
		return "", errBoom
	}
	return text, nil
}

type stubFeeds map[string][]feeds.Entry

func (s stubFeeds) Parse(_ context.Context, url string) ([]feeds.Entry, error) {
	entries, ok := s[url]
	if !ok {
		return nil, errBoom
	}
	return entries, nil
}

type stubTrends struct {
	series trends.Series
	err    error
	got    []string
}

func (s *stubTrends) InterestOverTime(_ context.Context, keywords []string, geo, timeframe string) (trends.Series, error) {
	s.got = append([]string{geo, timeframe}, keywords...)
	return s.series, s.err
}

type stubStatistics struct {
	table statistics.Table
	err   error
}

func (s stubStatistics) Table(_ context.Context, name string) (statistics.Table, error) {
	if s.err != nil {
		return statistics.Table{}, s.err
	}
	t := s.table
	t.Name = name
	return t, nil
}

type stubSearcher struct {
	name string
	res  models.Result
	err  error
}

func (s stubSearcher) Search(_ context.Context, q string) (models.Result, error) {
	r := s.res
	r.Query = q
	return r, s.err
}

func (s stubSearcher) Provider() string { return s.name }

type denyHosts map[string]bool

func (d denyHosts) Allows(host string) bool { return !d[host] }
