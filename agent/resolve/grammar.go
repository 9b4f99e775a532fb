package resolve

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/nathoo/craftmind/types"
)

// A grammar tries to read one candidate action out of a normalized line.
// Returning false means "not my shape"; the cascade moves on.
type grammar func(line string) (types.Candidate, bool)

// grammars in cascade order. Structured JSON is the format the prompt
// asks for; the others absorb the ways models drift from it.
var grammars = []grammar{
	parseStructured,
	parseFunctionCall,
	parseBareCommand,
}

// parseStructured reads a single JSON object with a "type" (or "kind")
// discriminator.
func parseStructured(line string) (types.Candidate, bool) {
	if !strings.HasPrefix(line, "{") {
		return types.Candidate{}, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return types.Candidate{}, false
	}
	return candidateFromMap(m)
}

// candidateFromMap splits a decoded JSON object into kind and fields.
// "type" wins over "kind" when both appear.
func candidateFromMap(m map[string]any) (types.Candidate, bool) {
	kind, ok := m["type"].(string)
	if !ok {
		kind, ok = m["kind"].(string)
		if !ok {
			return types.Candidate{}, false
		}
	}
	fields := make(map[string]any, len(m))
	for k, v := range m {
		if k == "type" || k == "kind" {
			continue
		}
		fields[k] = v
	}
	return types.Candidate{Kind: kind, Fields: fields}, true
}

var funcCallRe = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\((.*)\)$`)

// parseFunctionCall reads ident(key=value, ...). Commas inside quotes or
// nested parens do not split arguments.
func parseFunctionCall(line string) (types.Candidate, bool) {
	m := funcCallRe.FindStringSubmatch(line)
	if m == nil {
		return types.Candidate{}, false
	}
	kind, argText := m[1], strings.TrimSpace(m[2])

	fields := map[string]any{}
	if argText != "" {
		for _, arg := range splitArgs(argText) {
			key, value, ok := strings.Cut(arg, "=")
			if !ok {
				return types.Candidate{}, false
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return types.Candidate{}, false
			}
			fields[key] = coerce(strings.TrimSpace(value))
		}
	}
	return types.Candidate{Kind: kind, Fields: fields}, true
}

// splitArgs splits an argument list on top-level commas. Quoted strings
// (either quote style) and parenthesized groups are kept whole.
func splitArgs(s string) []string {
	var (
		args  []string
		start int
		depth int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			args = append(args, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	args = append(args, strings.TrimSpace(s[start:]))
	return args
}

// coerce turns a function-call argument value into its natural Go type.
// Order matters: bool (any casing, models emit True/False), then float
// when a dot is present, then int, then string with quotes stripped.
func coerce(v string) any {
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.Contains(v, ".") {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if len(v) >= 2 {
		if (v[0] == '\'' && v[len(v)-1] == '\'') || (v[0] == '"' && v[len(v)-1] == '"') {
			v = v[1 : len(v)-1]
		}
	}
	return v
}

// bareFields maps the kinds the bare grammar accepts to the field the
// rest of the line fills. Kinds with several required fields (placeBlock
// and friends) are absent: one token cannot say which field it is.
var bareFields = map[string]string{
	"chat":       "message",
	"attack":     "target",
	"jumpAttack": "target",
	"collect":    "blockType",
	"equip":      "itemName",
	"craft":      "itemName",
}

var bareCommandRe = regexp.MustCompile(`^([A-Za-z]\w*)\s+(\S.*)$`)

// parseBareCommand reads "ident rest-of-line" for the allow-listed kinds.
func parseBareCommand(line string) (types.Candidate, bool) {
	m := bareCommandRe.FindStringSubmatch(line)
	if m == nil {
		return types.Candidate{}, false
	}
	field, ok := bareFields[m[1]]
	if !ok {
		return types.Candidate{}, false
	}
	value := strings.TrimSpace(m[2])
	if len(value) >= 2 {
		if (value[0] == '\'' && value[len(value)-1] == '\'') || (value[0] == '"' && value[len(value)-1] == '"') {
			value = value[1 : len(value)-1]
		}
	}
	return types.Candidate{Kind: m[1], Fields: map[string]any{field: value}}, true
}
