package helpers

import (
	"testing"
)

func TestLenientParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		wantKey string
		wantVal any
	}{
		{
			name:    "plain object",
			in:      `{"status":"ok"}`,
			wantKey: "status",
			wantVal: "ok",
		},
		{
			name:    "fenced with language tag",
			in:      "```json\n{\"status\": \"ok\"}\n```",
			wantKey: "status",
			wantVal: "ok",
		},
		{
			name:    "prose around object",
			in:      "Here is the plan:\n{\"steps\": 3}\nThanks!",
			wantKey: "steps",
			wantVal: float64(3),
		},
		{
			name:    "trailing commas",
			in:      `{"a": [1, 2,], "b": {"c": "d",},}`,
			wantKey: "a",
			wantVal: []any{float64(1), float64(2)},
		},
		{
			name:    "comma inside string survives",
			in:      `{"text": "x, }"}`,
			wantKey: "text",
			wantVal: "x, }",
		},
		{
			name:    "braces inside strings ignored",
			in:      `noise {"k": "{not a brace}"} more {"other": 1}`,
			wantKey: "k",
			wantVal: "{not a brace}",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := LenientParse(tt.in)
			if IsRawResponse(got) {
				t.Fatalf("LenientParse(%q) fell back to raw response", tt.in)
			}
			v, ok := got[tt.wantKey]
			if !ok {
				t.Fatalf("LenientParse(%q) missing key %q: %v", tt.in, tt.wantKey, got)
			}
			if !equalJSON(v, tt.wantVal) {
				t.Fatalf("LenientParse(%q)[%q] = %#v, want %#v", tt.in, tt.wantKey, v, tt.wantVal)
			}
		})
	}
}

func TestLenientParseFallsBackToRaw(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"",
		"no json here",
		"{broken: json",
		`["array", "only"]`,
		"```\nnot json either\n```",
	}
	for _, in := range inputs {
		got := LenientParse(in)
		if !IsRawResponse(got) {
			t.Fatalf("LenientParse(%q) = %v, want raw fallback", in, got)
		}
		if got[RawResponseKey] != in {
			t.Fatalf("raw_response = %q, want original input %q", got[RawResponseKey], in)
		}
	}
}

func TestExtractJSONObjectUnterminatedFence(t *testing.T) {
	t.Parallel()
	out, err := ExtractJSONObject("```json\n{\"a\": 1}")
	if err != nil {
		t.Fatalf("ExtractJSONObject() error = %v", err)
	}
	if out != `{"a": 1}` {
		t.Fatalf("ExtractJSONObject() = %q", out)
	}
}

func equalJSON(a, b any) bool {
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalJSON(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
