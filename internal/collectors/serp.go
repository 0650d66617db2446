package collectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search/models"
)

const (
	serpMaxOrganic   = 6
	serpMaxQuestions = 6
)

type serpParams struct {
	Query        string `mapstructure:"query"`
	SessionQuery string `mapstructure:"session_query"`
	Provider     string `mapstructure:"provider"`
}

type serpCollector struct {
	searcher web_search.Searcher
	provider string
	query    string
}

func newSERP(deps Deps, params Params) (Collector, error) {
	var p serpParams
	if err := decodeParams(SourceSERP, params, &p); err != nil {
		return nil, err
	}
	provider := web_search.Provider(strings.ToLower(strings.TrimSpace(p.Provider)))
	if provider == "" {
		provider = deps.SearchProvider
	}
	query := strings.TrimSpace(p.Query)
	if query == "" {
		query = strings.TrimSpace(p.SessionQuery)
	}
	return &serpCollector{
		searcher: deps.Searchers[provider],
		provider: string(provider),
		query:    query,
	}, nil
}

func (c *serpCollector) ID() SourceID { return SourceSERP }

func (c *serpCollector) Collect(ctx context.Context) []merger.ContextChunk {
	if c.query == "" {
		return nil
	}
	if c.searcher == nil {
		err := &ConfigurationError{Source: SourceSERP, Missing: []string{fmt.Sprintf("sources.web_search api key for %q", c.provider)}}
		return errorChunk("serp", merger.CategorySERP, err.Error(), map[string]any{"provider": c.provider})
	}
	source := "serp:" + c.provider
	res, err := c.searcher.Search(ctx, c.query)
	if err != nil {
		return []merger.ContextChunk{failure(source, merger.CategorySERP, "serp error", err, map[string]any{"provider": c.provider})}
	}
	meta := map[string]any{"provider": c.provider, "query": c.query}
	return []merger.ContextChunk{merger.NewChunk(source, merger.CategorySERP, formatSERP(c.query, res), meta)}
}

func formatSERP(query string, res models.Result) string {
	var lines []string
	for i, o := range res.Organic {
		if i == serpMaxOrganic {
			break
		}
		lines = append(lines, fmt.Sprintf("• %s\n%s\n%s", o.Title, o.Snippet, o.URL))
	}
	if len(res.Questions) > 0 {
		lines = append(lines, "\nPeople also ask:")
		for i, q := range res.Questions {
			if i == serpMaxQuestions {
				break
			}
			lines = append(lines, fmt.Sprintf("? %s\n→ %s", q.Question, q.Answer))
		}
	}
	if len(lines) == 0 {
		return fmt.Sprintf("[no results for %s]", query)
	}
	return strings.Join(lines, "\n\n")
}
