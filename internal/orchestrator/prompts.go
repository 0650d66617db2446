package orchestrator

import (
	"fmt"
	"sort"
	"strings"
)

// promptFields are echoed to the model in a fixed order when present.
var promptFields = []string{
	"zielgruppe", "thema", "tonalitaet", "keyword_fokus", "plattform",
	"produktname", "gliederungspunkte", "formatwunsch",
}

func planPrompt(req Request, suggestions []SourceSuggestion) string {
	var b strings.Builder
	b.WriteString("You plan which context sources to gather before a writing task.\n")
	b.WriteString("Reply with a single JSON object: {\"goal\": string, \"steps\": [string], \"source_notes\": {source_id: string}, \"open_questions\": [string]}.\n\n")
	fmt.Fprintf(&b, "User input: %s\n", req.Query)
	fmt.Fprintf(&b, "Task: %s\n", req.Task)
	writeFields(&b, req.Fields)
	b.WriteString("\nAvailable sources:\n")
	for _, s := range suggestions {
		fmt.Fprintf(&b, "- %s (%s), default=%t: %s\n", s.ID, s.Label, s.Default, s.Reason)
	}
	return b.String()
}

func finalizePrompt(req Request, merged string) string {
	var b strings.Builder
	b.WriteString("You condense gathered context for a downstream writing step.\n")
	b.WriteString("Reply with a single JSON object: {\"final_context_summary\": string, \"field_suggestions\": {field: value}}.\n")
	b.WriteString("Keep facts, figures and source names. Do not invent anything.\n\n")
	fmt.Fprintf(&b, "User input: %s\n", req.Query)
	fmt.Fprintf(&b, "Task: %s\n", req.Task)
	writeFields(&b, req.Fields)
	b.WriteString("\nMerged context:\n")
	b.WriteString(merged)
	b.WriteString("\n")
	return b.String()
}

func writeFields(b *strings.Builder, fields map[string]any) {
	if len(fields) == 0 {
		return
	}
	known := make(map[string]bool, len(promptFields))
	for _, k := range promptFields {
		known[k] = true
		if v, ok := fields[k]; ok && v != nil && fmt.Sprint(v) != "" {
			fmt.Fprintf(b, "%s: %v\n", k, v)
		}
	}
	var rest []string
	for k := range fields {
		if !known[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		fmt.Fprintf(b, "%s: %v\n", k, fields[k])
	}
}
