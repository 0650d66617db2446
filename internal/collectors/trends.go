package collectors

import (
	"context"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
	"github.com/mohammad-safakhou/ctxmerge/tools/trends"
)

const (
	trendsHeader   = "Google Trends: interest over time"
	trendsTailRows = 12
	trendsMaxChars = 4000
)

type trendsParams struct {
	Keywords  []string `mapstructure:"keywords"`
	Geo       string   `mapstructure:"geo"`
	Timeframe string   `mapstructure:"timeframe"`
}

type trendsCollector struct {
	provider trends.Provider
	p        trendsParams
}

func newTrends(deps Deps, params Params) (Collector, error) {
	p := trendsParams{Geo: "DE", Timeframe: "today 3-m"}
	if err := decodeParams(SourceTrends, params, &p); err != nil {
		return nil, err
	}
	return &trendsCollector{provider: deps.Trends, p: p}, nil
}

func (c *trendsCollector) ID() SourceID { return SourceTrends }

func (c *trendsCollector) Collect(ctx context.Context) []merger.ContextChunk {
	if len(c.p.Keywords) == 0 {
		return nil
	}
	meta := map[string]any{"geo": c.p.Geo, "timeframe": c.p.Timeframe, "keywords": c.p.Keywords}
	if c.provider == nil {
		err := &ConfigurationError{Source: SourceTrends, Missing: []string{"sources.trends.api_key"}}
		return []merger.ContextChunk{failure("trends", merger.CategoryTrends, "trends error", err, nil)}
	}
	series, err := c.provider.InterestOverTime(ctx, c.p.Keywords, c.p.Geo, c.p.Timeframe)
	if err != nil {
		return []merger.ContextChunk{failure("trends", merger.CategoryTrends, "trends error", err, nil)}
	}
	if len(series.Rows) == 0 {
		return nil
	}
	table, err := tailCSV(series, trendsTailRows)
	if err != nil {
		return []merger.ContextChunk{failure("trends", merger.CategoryTrends, "trends error", err, nil)}
	}
	content := trendsHeader + "\n" + helpers.TruncateRunes(table, trendsMaxChars)
	return []merger.ContextChunk{merger.NewChunk("trends", merger.CategoryTrends, content, meta)}
}

// tailCSV renders the last n rows with a date column plus one column per keyword.
func tailCSV(s trends.Series, n int) (string, error) {
	rows := s.Rows
	if len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(append([]string{"date"}, s.Keywords...)); err != nil {
		return "", err
	}
	for _, r := range rows {
		rec := make([]string, 0, len(r.Values)+1)
		rec = append(rec, r.Date)
		for _, v := range r.Values {
			rec = append(rec, strconv.Itoa(v))
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}
