package merger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
)

const (
	// DefaultTokenBudget is used when a session does not set one.
	DefaultTokenBudget = 6000
	// FallbackChars caps the single-chunk fallback when nothing fits.
	FallbackChars = 16000

	blockSeparator = "\n\n"
)

// Selection is the budgeted merge output.
type Selection struct {
	Merged   string
	Selected []ContextChunk
	// Fallback marks the oversized-top-chunk path.
	Fallback bool
}

// FormatBlock renders a chunk as it appears in the merged text.
func FormatBlock(c ContextChunk) string {
	return fmt.Sprintf("\n\n--- source:%s [%s] ---\n\n%s", c.Source, c.Category(), c.Content)
}

// Select ranks chunks by score (stable) and greedily packs formatted blocks
// under budget tokens. A block that would overflow is skipped and the scan
// continues. When nothing fits the top chunk is returned truncated to
// FallbackChars.
func Select(chunks []ContextChunk, budget int) Selection {
	if len(chunks) == 0 {
		return Selection{}
	}
	ranked := append([]ContextChunk(nil), chunks...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	var parts []string
	var selected []ContextChunk
	for _, c := range ranked {
		candidate := FormatBlock(c)
		if EstimateTokens(strings.Join(append(parts[:len(parts):len(parts)], candidate), blockSeparator)) > budget {
			continue
		}
		parts = append(parts, candidate)
		selected = append(selected, c)
	}
	if len(parts) == 0 {
		top := ranked[0]
		return Selection{
			Merged:   strings.TrimSpace(helpers.TruncateRunes(top.Content, FallbackChars)),
			Selected: []ContextChunk{top},
			Fallback: true,
		}
	}
	return Selection{Merged: strings.TrimSpace(strings.Join(parts, blockSeparator)), Selected: selected}
}

// Rank runs the full pipeline: dedup in collector order, score, then select.
func Rank(chunks []ContextChunk, scorer Scorer, budget int) Selection {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return Select(scorer.Apply(Dedup(chunks)), budget)
}
