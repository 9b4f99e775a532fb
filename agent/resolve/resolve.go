// Package resolve turns raw model text into validated actions. A cascade
// of grammars handles the formats models actually produce; when nothing
// parses, the text becomes an in-game chat message so a decision step
// always yields exactly one action.
package resolve

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nathoo/craftmind/agent/normalize"
	"github.com/nathoo/craftmind/agent/schema"
	"github.com/nathoo/craftmind/types"
)

// emptyFallback is the chat text used when the model produced nothing
// usable at all.
const emptyFallback = "[unparseable response]"

// Resolve normalizes raw model output and runs the grammar cascade.
// A grammar only wins if its candidate also validates; a parse that
// fails validation falls through to the next grammar. The terminal
// fallback is a chat action carrying the text itself, so Resolve never
// fails. Warnings collect validation failures from losing grammars plus
// any tolerated-extra-field notes from the winner.
func Resolve(raw string) (types.Action, []string) {
	line := normalize.Line(raw)

	var warnings []string
	if line != "" {
		for _, parse := range grammars {
			c, ok := parse(line)
			if !ok {
				continue
			}
			act, extra, err := schema.Validate(c)
			if err != nil {
				warnings = append(warnings, err.Error())
				continue
			}
			return act, append(warnings, extra...)
		}
	}

	msg := line
	if msg == "" {
		msg = emptyFallback
	}
	return types.Chat{Message: msg}, warnings
}

// ResolveBatch reads a short batch of actions: a JSON array, an
// {"actions": [...]} envelope, or an {"action": {...}} envelope. The
// text keeps its newlines (arrays usually span lines). When the whole
// text is not valid JSON, the first balanced embedded JSON value that
// yields at least one valid action is used. Invalid batch members are
// skipped with a warning. If no batch survives, the single-action
// Resolve path takes over.
func ResolveBatch(raw string) ([]types.Action, []string) {
	text := normalize.Strip(raw)

	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		if acts, warnings, ok := batchFromValue(v); ok {
			return acts, warnings
		}
	}

	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var embedded any
		if err := dec.Decode(&embedded); err != nil {
			continue
		}
		if acts, warnings, ok := batchFromValue(embedded); ok {
			return acts, warnings
		}
	}

	act, warnings := Resolve(raw)
	return []types.Action{act}, warnings
}

// batchFromValue extracts validated actions from a decoded JSON value.
// ok is false when the value has no batch shape or every member failed.
func batchFromValue(v any) ([]types.Action, []string, bool) {
	var members []any
	switch t := v.(type) {
	case []any:
		members = t
	case map[string]any:
		if list, ok := t["actions"].([]any); ok {
			members = list
		} else if one, ok := t["action"].(map[string]any); ok {
			members = []any{one}
		} else {
			members = []any{t}
		}
	default:
		return nil, nil, false
	}

	var (
		acts     []types.Action
		warnings []string
	)
	for i, member := range members {
		m, ok := member.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("batch member %d: not an object", i))
			continue
		}
		c, ok := candidateFromMap(m)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("batch member %d: no action type", i))
			continue
		}
		act, extra, err := schema.Validate(c)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("batch member %d: %v", i, err))
			continue
		}
		acts = append(acts, act)
		warnings = append(warnings, extra...)
	}
	if len(acts) == 0 {
		return nil, nil, false
	}
	return acts, warnings, true
}
