package web_fetch

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BlockExtractor turns raw HTML into readable text blocks.
type BlockExtractor interface {
	ExtractBlocks(rawHTML string) []string
}

// ExtractorType selects the BlockExtractor implementation.
type ExtractorType string

const (
	TagExtractorType         ExtractorType = "blocks"
	ReadabilityExtractorType ExtractorType = "readability"
)

func NewExtractor(t ExtractorType) (BlockExtractor, error) {
	switch t {
	case TagExtractorType, "":
		return TagExtractor{MinChars: MinBlockChars}, nil
	case ReadabilityExtractorType:
		return ReadabilityExtractor{Fallback: TagExtractor{MinChars: MinBlockChars}}, nil
	default:
		return nil, &Error{"unsupported extractor type"}
	}
}

var blockTags = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true, atom.P: true, atom.Li: true,
}

var skippedTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
}

// TagExtractor keeps the text of h1/h2/h3/p/li elements that reach MinChars.
type TagExtractor struct {
	MinChars int
}

func (e TagExtractor) ExtractBlocks(rawHTML string) []string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	var blocks []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedTags[n.DataAtom] {
				return
			}
			if blockTags[n.DataAtom] {
				text := helpers.CollapseWhitespace(nodeText(n))
				if len([]rune(text)) >= e.MinChars {
					blocks = append(blocks, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return blocks
}

// ReadabilityExtractor keeps the main article body, one block per paragraph.
type ReadabilityExtractor struct {
	Fallback BlockExtractor
}

func (e ReadabilityExtractor) ExtractBlocks(rawHTML string) []string {
	article, err := readability.FromReader(strings.NewReader(rawHTML), &url.URL{})
	if err == nil {
		var blocks []string
		for _, line := range strings.Split(article.TextContent, "\n") {
			if line = helpers.CollapseWhitespace(line); line != "" {
				blocks = append(blocks, line)
			}
		}
		if len(blocks) > 0 {
			return blocks
		}
	}
	if e.Fallback != nil {
		return e.Fallback.ExtractBlocks(rawHTML)
	}
	return nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case html.ElementNode:
			if skippedTags[n.DataAtom] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
