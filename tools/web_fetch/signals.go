package web_fetch

import (
	"net/url"
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/helpers"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PageSignals are the on-page SEO facts of one document.
type PageSignals struct {
	URL             string              `json:"url"`
	Title           string              `json:"title"`
	MetaDescription string              `json:"meta_description"`
	Canonical       string              `json:"canonical,omitempty"`
	Robots          string              `json:"robots,omitempty"`
	Lang            string              `json:"lang,omitempty"`
	Headings        map[string][]string `json:"headings"`
	InternalLinks   int                 `json:"internal_links"`
	ExternalLinks   int                 `json:"external_links"`
	Images          int                 `json:"images"`
	ImagesNoAlt     int                 `json:"images_without_alt"`
	WordCount       int                 `json:"word_count"`
}

// ExtractSignals parses rawHTML fetched from pageURL.
func ExtractSignals(pageURL, rawHTML string) (PageSignals, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return PageSignals{}, err
	}
	sig := PageSignals{URL: pageURL, Headings: map[string][]string{"h1": {}, "h2": {}, "h3": {}}}
	host := helpers.HostOf(pageURL)
	base, _ := url.Parse(pageURL)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.Html:
				sig.Lang = attr(n, "lang")
			case atom.Title:
				if sig.Title == "" {
					sig.Title = helpers.CollapseWhitespace(nodeText(n))
				}
				return
			case atom.Meta:
				switch strings.ToLower(attr(n, "name")) {
				case "description":
					sig.MetaDescription = strings.TrimSpace(attr(n, "content"))
				case "robots":
					sig.Robots = strings.TrimSpace(attr(n, "content"))
				}
			case atom.Link:
				if strings.EqualFold(attr(n, "rel"), "canonical") {
					sig.Canonical = strings.TrimSpace(attr(n, "href"))
				}
			case atom.H1, atom.H2, atom.H3:
				if text := helpers.CollapseWhitespace(nodeText(n)); text != "" {
					sig.Headings[n.Data] = append(sig.Headings[n.Data], text)
				}
			case atom.A:
				countLink(&sig, base, host, attr(n, "href"))
			case atom.Img:
				sig.Images++
				if strings.TrimSpace(attr(n, "alt")) == "" {
					sig.ImagesNoAlt++
				}
			}
		}
		if n.Type == html.TextNode {
			sig.WordCount += len(strings.Fields(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sig, nil
}

func countLink(sig *PageSignals, base *url.URL, host, href string) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "javascript:") {
		return
	}
	u, err := url.Parse(href)
	if err != nil {
		return
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Host == "" || strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.") == host {
		sig.InternalLinks++
		return
	}
	sig.ExternalLinks++
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
