// Package normalize cleans raw model output before parsing. Models wrap
// answers in markdown fences, escape quotes, and pad with prose; the
// grammar cascade expects none of that.
package normalize

import "strings"

// Strip removes markdown code fences and escape noise but keeps the full
// text. The batch path uses this form so a multi-line JSON array survives.
// Only doubled backslash-quote sequences are unescaped; a single
// backslash before a quote is a legitimate JSON escape and must survive
// for the structured grammar to parse.
func Strip(raw string) string {
	s := strings.TrimSpace(raw)
	s = stripFences(s)
	s = strings.ReplaceAll(s, `\\'`, `'`)
	s = strings.ReplaceAll(s, `\\"`, `"`)
	return strings.TrimSpace(s)
}

// Line fully normalizes raw output for single-action parsing: fences and
// escapes removed, then truncated to the first non-empty line. A model
// that answers with an action and a paragraph of explanation yields just
// the action.
func Line(raw string) string {
	s := Strip(raw)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// stripFences removes a leading ```lang marker and a trailing ``` when
// both are present, or either alone. The language tag after the opening
// fence is discarded.
func stripFences(s string) string {
	if strings.HasPrefix(s, "```") {
		rest := s[3:]
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			// Drop the fence line, language tag included.
			s = rest[i+1:]
		} else {
			s = strings.TrimLeft(rest, "`")
			// Single-line fence like ```json {...} ```.
			s = strings.TrimPrefix(strings.TrimSpace(s), "json")
		}
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}
	return s
}
