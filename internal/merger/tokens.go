package merger

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
)

// EstimateTokens approximates a token count as ceil(chars/4).
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// TruncateToBudget keeps whole paragraphs while the joined text stays within
// maxTokens and stops before the first paragraph that would overflow. When no
// paragraph with content fits, the first one is cut to maxTokens*4 runes.
func TruncateToBudget(text string, maxTokens int) string {
	if EstimateTokens(text) <= maxTokens {
		return text
	}
	if maxTokens <= 0 {
		return ""
	}
	paragraphs := paragraphBreak.Split(text, -1)
	var kept []string
	for _, p := range paragraphs {
		next := append(kept, p)
		if EstimateTokens(strings.Join(next, "\n\n")) > maxTokens {
			break
		}
		kept = next
	}
	out := strings.Join(kept, "\n\n")
	if strings.TrimSpace(out) != "" {
		return out
	}
	for _, p := range paragraphs {
		if strings.TrimSpace(p) != "" {
			return helpers.TruncateRunes(strings.TrimSpace(p), maxTokens*4)
		}
	}
	return out
}

// TokenCounter reports model token counts for telemetry. Selection always
// uses EstimateTokens.
type TokenCounter interface {
	Count(text string) int
}

// EstimateCounter is the TokenCounter backed by EstimateTokens.
type EstimateCounter struct{}

func (EstimateCounter) Count(text string) int { return EstimateTokens(text) }

// TiktokenCounter counts with a BPE encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter resolves the encoding for model, falling back to cl100k_base.
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	if c == nil || c.enc == nil {
		return EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}
