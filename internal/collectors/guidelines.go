package collectors

import (
	"context"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
)

// DefaultGuidelines is used when neither config nor params provide rules.
const DefaultGuidelines = `Editorial guidelines:
- Write for the stated target audience and keep one clear message per section.
- Back claims with sources or figures; never invent statistics.
- Use the focus keyword naturally in title, intro and at least one heading.
- Prefer short paragraphs, active voice and concrete examples.
- End with a clear, specific call to action.
- Respect legal constraints: no health promises, no misleading comparisons.`

type guidelinesParams struct {
	Guidelines string `mapstructure:"guidelines"`
}

type guidelinesCollector struct {
	text string
}

func newGuidelines(deps Deps, params Params) (Collector, error) {
	var p guidelinesParams
	if err := decodeParams(SourceGuidelines, params, &p); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(p.Guidelines)
	if text == "" {
		text = strings.TrimSpace(deps.Guidelines)
	}
	if text == "" {
		text = DefaultGuidelines
	}
	return &guidelinesCollector{text: text}, nil
}

func (c *guidelinesCollector) ID() SourceID { return SourceGuidelines }

func (c *guidelinesCollector) Collect(context.Context) []merger.ContextChunk {
	return []merger.ContextChunk{merger.NewChunk("guidelines", merger.CategoryGuidelines, c.text, nil)}
}
