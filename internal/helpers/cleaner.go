package helpers

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// RawResponseKey holds the untouched model output when it could not be decoded.
const RawResponseKey = "raw_response"

// LenientParse extracts a JSON object from free-form generated text.
// It never fails: when nothing decodes, the raw text is returned under
// RawResponseKey.
func LenientParse(raw string) map[string]any {
	candidate, err := ExtractJSONObject(raw)
	if err != nil {
		return map[string]any{RawResponseKey: raw}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(dropTrailingCommas(candidate)), &out); err != nil || out == nil {
		return map[string]any{RawResponseKey: raw}
	}
	return out
}

// IsRawResponse reports whether v is the fallback wrapper produced by LenientParse.
func IsRawResponse(v map[string]any) bool {
	if len(v) != 1 {
		return false
	}
	_, ok := v[RawResponseKey]
	return ok
}

// ExtractJSONObject returns the first top-level {...} block of s after
// unwrapping a surrounding code fence. Braces inside strings are ignored.
// An unbalanced block falls back to the span between the first '{' and
// the last '}'.
func ExtractJSONObject(s string) (string, error) {
	s = trimBOM(strings.TrimSpace(s))
	if inner, ok := stripCodeFence(s); ok {
		s = strings.TrimSpace(inner)
	}
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", errors.New("no JSON object found")
	}
	if out, ok := balancedObjectFrom(s, start); ok {
		return out, nil
	}
	if end := strings.LastIndexByte(s, '}'); end > start {
		return s[start : end+1], nil
	}
	return "", errors.New("unterminated JSON object")
}

// stripCodeFence unwraps s when it starts with ``` or ~~~, with an optional
// language tag. A missing closing fence keeps the remainder.
func stripCodeFence(s string) (string, bool) {
	trim := strings.TrimLeft(s, "\n\r\t ")
	fence := ""
	switch {
	case strings.HasPrefix(trim, "```"):
		fence = "```"
	case strings.HasPrefix(trim, "~~~"):
		fence = "~~~"
	default:
		return "", false
	}
	rest := trim[len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		return "", false
	}
	rest = rest[nl+1:]
	if end := strings.LastIndex(rest, fence); end != -1 {
		return rest[:end], true
	}
	return rest, true
}

// balancedObjectFrom scans from s[start]=='{' to its matching '}'.
func balancedObjectFrom(s string, start int) (string, bool) {
	depth := 0
	inString, escape := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escape:
				escape = false
			case c == '\\':
				escape = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				if c != '}' {
					return "", false
				}
				return s[start : i+1], true
			}
			if depth < 0 {
				return "", false
			}
		}
	}
	return "", false
}

// dropTrailingCommas removes a comma when only whitespace separates it from
// a closing '}' or ']'. Commas inside strings are left alone.
func dropTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escape := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escape:
				escape = false
			case c == '\\':
				escape = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// trimBOM removes an optional UTF-8 BOM.
func trimBOM(s string) string {
	if strings.HasPrefix(s, "\uFEFF") {
		return strings.TrimPrefix(s, "\uFEFF")
	}
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF && utf8.ValidString(s[3:]) {
		return s[3:]
	}
	return s
}
