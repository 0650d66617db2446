package merger

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// RefLength is the content length at which the length score starts to decay.
	RefLength = 20000

	keywordWeight = 0.6
	lengthWeight  = 0.4
)

// KeywordFields are the session fields mined for keywords besides the query.
var KeywordFields = []string{"zielgruppe", "thema", "keyword_fokus", "produktname", "plattform"}

var keywordToken = regexp.MustCompile(`[\p{L}\p{N}_-]{3,}`)

// ExtractKeywords returns the distinct, lowercased tokens (length >= 3) of
// query and the string values of KeywordFields, in first-seen order.
func ExtractKeywords(query string, fields map[string]any) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(text string) {
		for _, tok := range keywordToken.FindAllString(text, -1) {
			tok = strings.ToLower(tok)
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	add(query)
	for _, key := range KeywordFields {
		if v, ok := fields[key].(string); ok {
			add(v)
		}
	}
	return out
}

// Scorer assigns relevance scores in [0,1].
type Scorer struct {
	Keywords []string
	Weights  CategoryWeights
}

func NewScorer(keywords []string, weights CategoryWeights) Scorer {
	if weights == nil {
		weights = DefaultCategoryWeights()
	}
	return Scorer{Keywords: keywords, Weights: weights}
}

// Score computes the relevance of a single chunk.
func (s Scorer) Score(c ContextChunk) float64 {
	kw := KeywordScore(c.Content, s.Keywords)
	length := LengthScore(c.Content)
	cw := s.Weights.Weight(c.Category())
	score := (keywordWeight*kw + lengthWeight*length) * (0.6 + 0.4*cw)
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	return math.Min(score, 1)
}

// Apply scores every chunk in place and returns the slice.
func (s Scorer) Apply(chunks []ContextChunk) []ContextChunk {
	for i := range chunks {
		chunks[i].Score = s.Score(chunks[i])
	}
	return chunks
}

// KeywordScore is the share of distinct keywords found in text.
func KeywordScore(text string, keywords []string) float64 {
	if text == "" || len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	distinct := map[string]struct{}{}
	hits := 0
	for _, k := range keywords {
		k = strings.ToLower(k)
		if k == "" {
			continue
		}
		if _, dup := distinct[k]; dup {
			continue
		}
		distinct[k] = struct{}{}
		if strings.Contains(lower, k) {
			hits++
		}
	}
	return float64(hits) / math.Max(1, float64(len(distinct)))
}

// LengthScore rewards concise chunks: min(1, RefLength/len).
func LengthScore(text string) float64 {
	n := utf8.RuneCountInString(text)
	if n < 1 {
		n = 1
	}
	return math.Min(1, float64(RefLength)/float64(n))
}
