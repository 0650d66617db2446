package orchestrator

import (
	"strings"

	"github.com/mohammad-safakhou/ctxmerge/internal/collectors"
)

type sourceRule struct {
	id     collectors.SourceID
	label  string
	reason string
	// tasks enabling the source by default; nil means the predicate decides
	tasks map[string]bool
	on    func(Request) bool
}

func taskSet(tasks ...string) map[string]bool {
	m := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		m[t] = true
	}
	return m
}

func present(s string) bool { return strings.TrimSpace(s) != "" }

var sourceRules = []sourceRule{
	{id: collectors.SourceMemory, label: "Customer memory", reason: "customer knowledge & history", on: func(r Request) bool { return present(r.CustomerID) }},
	{id: collectors.SourceURL, label: "Website content", reason: "primary website source", on: func(r Request) bool { return present(r.URL) }},
	{id: collectors.SourceDocument, label: "Document", reason: "stored documents", on: func(r Request) bool { return present(r.DocumentPath) }},
	{id: collectors.SourceGuidelines, label: "Guidelines / playbooks", reason: "quality rules", on: func(Request) bool { return true }},
	{id: collectors.SourceRSS, label: "RSS / news", reason: "current industry signals",
		tasks: taskSet("content_writing", "content_analysis", "campaign_plan", "tactical_actions")},
	{id: collectors.SourceTrends, label: "Google Trends", reason: "search interest & angles",
		tasks: taskSet("content_writing", "campaign_plan")},
	{id: collectors.SourceStatistics, label: "Official statistics", reason: "facts & magnitudes",
		tasks: taskSet("campaign_plan", "content_writing", "seo_optimization")},
	{id: collectors.SourceAds, label: "Ad libraries", reason: "message-market fit & CTAs",
		tasks: taskSet("competitive_analysis", "campaign_plan", "landingpage_strategy")},
	{id: collectors.SourceOnpage, label: "On-page signals", reason: "title/meta/heading structure",
		tasks: taskSet("seo_audit", "seo_optimization", "landingpage_strategy")},
	{id: collectors.SourceSitemap, label: "Sitemap", reason: "page inventory",
		tasks: taskSet("seo_audit", "seo_optimization")},
	{id: collectors.SourceSERP, label: "Search snippets & PAA", reason: "PAA & SERP snippets",
		tasks: taskSet("content_writing", "seo_optimization", "content_analysis")},
	{id: collectors.SourceCompetitors, label: "Competitor context", reason: "competitive benchmarks",
		tasks: taskSet("competitive_analysis", "landingpage_strategy")},
}

// SuggestSources applies the task and locator rules to a request.
func SuggestSources(req Request) []SourceSuggestion {
	task := strings.ToLower(strings.TrimSpace(req.Task))
	out := make([]SourceSuggestion, 0, len(sourceRules))
	for _, r := range sourceRules {
		def := r.tasks[task]
		if r.on != nil {
			def = r.on(req)
		}
		out = append(out, SourceSuggestion{ID: r.id, Label: r.label, Default: def, Reason: r.reason})
	}
	return out
}

func defaultIDs(suggestions []SourceSuggestion) []string {
	var ids []string
	for _, s := range suggestions {
		if s.Default {
			ids = append(ids, string(s.ID))
		}
	}
	return ids
}
