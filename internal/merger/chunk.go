// Package merger holds the context chunk model and the pure ranking steps
// (dedup, scoring, budgeted selection) applied to collected chunks.
package merger

import "github.com/mohammad-safakhou/ctxmerge/internal/helpers"

// Category classifies where a chunk came from; it drives the category weight.
type Category string

const (
	CategoryCustomer    Category = "customer"
	CategoryURL         Category = "url"
	CategoryDocument    Category = "document"
	CategoryGuidelines  Category = "guidelines"
	CategoryRSS         Category = "rss"
	CategoryTrends      Category = "trends"
	CategoryStatistics  Category = "statistics"
	CategoryAds         Category = "ads"
	CategoryOnpage      Category = "onpage"
	CategorySitemap     Category = "sitemap"
	CategorySERP        Category = "serp"
	CategoryCompetitors Category = "competitors"
)

const (
	MetaCategory = "category"
	MetaType     = "type"
	TypeError    = "error"

	previewChars = 240
)

// ContextChunk is one unit of retrieved context.
type ContextChunk struct {
	Source  string         `json:"source"`
	Content string         `json:"content"`
	Score   float64        `json:"score"`
	Meta    map[string]any `json:"meta"`
}

// NewChunk builds a chunk tagged with category plus extra meta pairs.
func NewChunk(source string, category Category, content string, meta map[string]any) ContextChunk {
	m := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		m[k] = v
	}
	m[MetaCategory] = string(category)
	return ContextChunk{Source: source, Content: content, Meta: m}
}

// ErrorChunk renders a failed fetch as a visible, low-priority chunk.
func ErrorChunk(source string, category Category, content string, meta map[string]any) ContextChunk {
	c := NewChunk(source, category, content, meta)
	c.Meta[MetaType] = TypeError
	return c
}

// Category returns the chunk's category, or "" when unset.
func (c ContextChunk) Category() Category {
	if c.Meta == nil {
		return ""
	}
	switch v := c.Meta[MetaCategory].(type) {
	case Category:
		return v
	case string:
		return Category(v)
	}
	return ""
}

// IsError reports whether the chunk stands in for a failed source.
func (c ContextChunk) IsError() bool {
	if c.Meta == nil {
		return false
	}
	t, _ := c.Meta[MetaType].(string)
	return t == TypeError
}

// Provenance is the audit record of one selected chunk.
type Provenance struct {
	Source   string  `json:"source"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Preview  string  `json:"preview"`
}

// ProvenanceOf records selected chunks in order.
func ProvenanceOf(selected []ContextChunk) []Provenance {
	out := make([]Provenance, 0, len(selected))
	for _, c := range selected {
		out = append(out, Provenance{
			Source:   c.Source,
			Category: string(c.Category()),
			Score:    c.Score,
			Preview:  helpers.TruncateRunes(c.Content, previewChars),
		})
	}
	return out
}
