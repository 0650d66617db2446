package collectors

import (
	"context"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
)

type adsParams struct {
	Terms    []string `mapstructure:"terms"`
	Platform string   `mapstructure:"platform"`
}

// adsCollector only echoes the requested terms; no ad library is queried.
type adsCollector struct {
	p adsParams
}

func newAds(_ Deps, params Params) (Collector, error) {
	p := adsParams{Platform: "meta"}
	if err := decodeParams(SourceAds, params, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Platform) == "" {
		p.Platform = "meta"
	}
	return &adsCollector{p: p}, nil
}

func (c *adsCollector) ID() SourceID { return SourceAds }

func (c *adsCollector) Collect(context.Context) []merger.ContextChunk {
	if len(c.p.Terms) == 0 {
		return nil
	}
	content := "[ads placeholder] search terms: " + strings.Join(c.p.Terms, ", ")
	return []merger.ContextChunk{merger.NewChunk("ads:"+c.p.Platform, merger.CategoryAds, content, map[string]any{"platform": c.p.Platform})}
}
