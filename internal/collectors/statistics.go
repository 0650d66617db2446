package collectors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
	"github.com/mohammad-safakhou/ctxmerge/tools/statistics"
)

const (
	statisticsMaxChars  = 18000
	statisticsBodyChars = 400
)

type statisticsParams struct {
	Table string `mapstructure:"table"`
	Query string `mapstructure:"query"`
}

type statisticsCollector struct {
	client StatisticsClient
	table  string
}

func newStatistics(deps Deps, params Params) (Collector, error) {
	var p statisticsParams
	if err := decodeParams(SourceStatistics, params, &p); err != nil {
		return nil, err
	}
	table := strings.TrimSpace(p.Table)
	if table == "" {
		table = strings.TrimSpace(p.Query)
	}
	return &statisticsCollector{client: deps.Statistics, table: table}, nil
}

func (c *statisticsCollector) ID() SourceID { return SourceStatistics }

func (c *statisticsCollector) Collect(ctx context.Context) []merger.ContextChunk {
	if c.table == "" {
		return nil
	}
	meta := map[string]any{"table": c.table}
	notConfigured := &ConfigurationError{
		Source:  SourceStatistics,
		Missing: []string{"sources.statistics.token", "sources.statistics.username/password"},
	}
	if c.client == nil {
		return []merger.ContextChunk{failure("statistics", merger.CategoryStatistics, "statistics error", notConfigured, meta)}
	}
	source := "statistics:" + c.table
	t, err := c.client.Table(ctx, c.table)
	if err == nil {
		content := helpers.TruncateRunes(t.Body, statisticsMaxChars)
		return []merger.ContextChunk{merger.NewChunk(source, merger.CategoryStatistics, content, meta)}
	}
	if errors.Is(err, statistics.ErrNotConfigured) {
		return []merger.ContextChunk{failure("statistics", merger.CategoryStatistics, "statistics error", notConfigured, meta)}
	}

	var authErr *statistics.AuthError
	var statusErr *httpclient.StatusError
	if errors.As(err, &authErr) && errors.As(err, &statusErr) {
		prefix := "statistics HTTP"
		if authErr.TokenOnly {
			prefix = "statistics token could not be used, HTTP"
		}
		content := fmt.Sprintf("[%s %d] %s", prefix, statusErr.Code, helpers.TruncateRunes(statusErr.Body, statisticsBodyChars))
		return []merger.ContextChunk{merger.ErrorChunk(source, merger.CategoryStatistics, content, meta)}
	}
	return []merger.ContextChunk{failure(source, merger.CategoryStatistics, "statistics error", err, meta)}
}
