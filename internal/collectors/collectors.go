// Package collectors adapts each external context source to the chunk model.
// A collector never returns an error: failures become error chunks and
// missing inputs yield no chunks at all.
package collectors

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
	"github.com/mohammad-safakhou/ctxmerge/tools/feeds"
	"github.com/mohammad-safakhou/ctxmerge/tools/statistics"
	"github.com/mohammad-safakhou/ctxmerge/tools/trends"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_fetch"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search"
)

// SourceID identifies a collector.
type SourceID string

const (
	SourceMemory      SourceID = "memory"
	SourceURL         SourceID = "url"
	SourceDocument    SourceID = "document"
	SourceGuidelines  SourceID = "guidelines"
	SourceRSS         SourceID = "rss"
	SourceTrends      SourceID = "trends"
	SourceStatistics  SourceID = "statistics"
	SourceAds         SourceID = "ads"
	SourceOnpage      SourceID = "onpage"
	SourceSitemap     SourceID = "sitemap"
	SourceSERP        SourceID = "serp"
	SourceCompetitors SourceID = "competitors"
)

// AllSourceIDs lists every collector in suggestion order.
var AllSourceIDs = []SourceID{
	SourceMemory, SourceURL, SourceDocument, SourceGuidelines,
	SourceRSS, SourceTrends, SourceStatistics, SourceAds,
	SourceOnpage, SourceSitemap, SourceSERP, SourceCompetitors,
}

var legacyAliases = map[string]SourceID{
	"customer_memory": SourceMemory,
	"pdf":             SourceDocument,
	"destatis":        SourceStatistics,
}

// ParseSourceID resolves an id or legacy alias, case-insensitively.
func ParseSourceID(raw string) (SourceID, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if id, ok := legacyAliases[key]; ok {
		return id, true
	}
	for _, id := range AllSourceIDs {
		if string(id) == key {
			return id, true
		}
	}
	return "", false
}

// Collector gathers chunks from one source.
type Collector interface {
	ID() SourceID
	Collect(ctx context.Context) []merger.ContextChunk
}

// MemoryReader loads stored customer text.
type MemoryReader interface {
	Read(ctx context.Context, id string) (string, error)
}

// DocumentReader extracts text from a document path.
type DocumentReader interface {
	Read(ctx context.Context, path string) (string, error)
}

// StatisticsClient fetches an official statistics table.
type StatisticsClient interface {
	Table(ctx context.Context, name string) (statistics.Table, error)
}

// HostPolicy decides whether a host may be fetched.
type HostPolicy interface {
	Allows(host string) bool
}

// Deps carries the shared, pre-built capabilities. Nil members disable the
// collectors that need them; those collectors report a configuration error.
type Deps struct {
	Memory     MemoryReader
	Fetcher    web_fetch.Fetcher
	Extractor  web_fetch.BlockExtractor
	Documents  DocumentReader
	Feeds      feeds.Parser
	Trends     trends.Provider
	Statistics StatisticsClient
	// Searchers holds one searcher per configured provider.
	Searchers      map[web_search.Provider]web_search.Searcher
	SearchProvider web_search.Provider
	HTTP           *httpclient.Client
	Policy         HostPolicy
	Guidelines     string
	Logger         *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Params is the merged, loosely typed parameter bag for one collector.
type Params map[string]any

// SessionQueryKey carries the session query in the base bag. Sources that take
// a "query" param fall back to it.
const SessionQueryKey = "session_query"

// Merge layers bags left to right; later keys win.
func Merge(bags ...map[string]any) Params {
	out := Params{}
	for _, b := range bags {
		for k, v := range b {
			out[k] = v
		}
	}
	return out
}

var stringSliceType = reflect.TypeOf([]string(nil))

func stringListHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != stringSliceType {
		return data, nil
	}
	return helpers.StringList(data), nil
}

// Decode fills a typed params struct from the bag.
func (p Params) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(stringListHook),
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(p))
}

// Factory builds a collector for one session.
type Factory func(deps Deps, params Params) (Collector, error)

// Registry maps source ids to factories.
type Registry map[SourceID]Factory

// NewRegistry returns the full set of built-in collectors.
func NewRegistry() Registry {
	return Registry{
		SourceMemory:      newMemory,
		SourceURL:         newURL,
		SourceDocument:    newDocument,
		SourceGuidelines:  newGuidelines,
		SourceRSS:         newRSS,
		SourceTrends:      newTrends,
		SourceStatistics:  newStatistics,
		SourceAds:         newAds,
		SourceOnpage:      newOnpage,
		SourceSitemap:     newSitemap,
		SourceSERP:        newSERP,
		SourceCompetitors: newCompetitors,
	}
}

// IDs returns the registered ids, sorted.
func (r Registry) IDs() []SourceID {
	out := make([]SourceID, 0, len(r))
	for id := range r {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Build instantiates a collector. An undecodable params bag is returned as an
// error so the caller can render it as an error chunk.
func (r Registry) Build(id SourceID, deps Deps, params Params) (Collector, error) {
	f, ok := r[id]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", id)
	}
	return f(deps, params)
}

func decodeParams(id SourceID, params Params, out any) error {
	if err := params.Decode(out); err != nil {
		return fmt.Errorf("%s params: %w", id, err)
	}
	return nil
}
