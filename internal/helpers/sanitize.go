package helpers

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// StrictHTMLPolicy returns a shared bluemonday policy that strips every
// element and attribute.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// StripHTML turns an HTML fragment (feed summaries, snippets) into plain
// text. Tags become spaces so adjacent words do not merge, entities are
// decoded and whitespace is collapsed.
func StripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("<", " <", ">", "> ").Replace(s)
	return CollapseWhitespace(html.UnescapeString(StrictHTMLPolicy().Sanitize(s)))
}
