package merger

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
)

// ContentKey is the 16-hex-character digest of the whitespace-collapsed,
// lowercased content.
func ContentKey(content string) string {
	norm := strings.ToLower(helpers.CollapseWhitespace(content))
	sum := sha1.Sum([]byte(norm))
	return hex.EncodeToString(sum[:])[:16]
}

// Dedup keeps the first chunk per ContentKey, preserving input order.
func Dedup(chunks []ContextChunk) []ContextChunk {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]ContextChunk, 0, len(chunks))
	for _, c := range chunks {
		key := ContentKey(c.Content)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
