package collectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
)

const (
	maxCompetitors     = 10
	competitorMaxChars = 20000
)

type competitorsParams struct {
	Domains []string `mapstructure:"domains"`
}

type competitorsCollector struct {
	deps    Deps
	domains []string
}

func newCompetitors(deps Deps, params Params) (Collector, error) {
	var p competitorsParams
	if err := decodeParams(SourceCompetitors, params, &p); err != nil {
		return nil, err
	}
	domains := p.Domains
	if len(domains) > maxCompetitors {
		domains = domains[:maxCompetitors]
	}
	return &competitorsCollector{deps: deps, domains: domains}, nil
}

func (c *competitorsCollector) ID() SourceID { return SourceCompetitors }

func (c *competitorsCollector) Collect(ctx context.Context) []merger.ContextChunk {
	out := make([]merger.ContextChunk, 0, len(c.domains))
	for _, d := range c.domains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		source := "competitor:" + d
		meta := map[string]any{"domain": d}
		target := helpers.EnsureScheme(d)
		if c.deps.Policy != nil && !c.deps.Policy.Allows(helpers.HostOf(target)) {
			out = append(out, merger.ErrorChunk(source, merger.CategoryCompetitors,
				fmt.Sprintf("[crawl policy disallows %s]", helpers.HostOf(target)), meta))
			continue
		}
		text, err := fetchText(ctx, c.deps, target)
		if err != nil {
			out = append(out, failure(source, merger.CategoryCompetitors, "error loading competitor", err, meta))
			continue
		}
		out = append(out, merger.NewChunk(source, merger.CategoryCompetitors, helpers.TruncateRunes(text, competitorMaxChars), meta))
	}
	return out
}
