// Package schema enforces the action schema. It is the only path from an
// untyped Candidate to a typed Action: if a types.Action value exists, it
// passed Validate.
package schema

import (
	"fmt"
	"math"
	"sort"

	"github.com/nathoo/craftmind/types"
)

// requiredFields maps every known kind to its required field names.
// A kind absent from this table does not exist.
var requiredFields = map[types.ActionKind][]string{
	types.KindMoveTo:             {"x", "y", "z"},
	types.KindCollect:            {"blockType"},
	types.KindPlaceBlock:         {"itemName", "x", "y", "z"},
	types.KindDig:                {"x", "y", "z"},
	types.KindAttack:             {"target"},
	types.KindJumpAttack:         {"target"},
	types.KindLookAt:             {"x", "y", "z"},
	types.KindEquip:              {"itemName"},
	types.KindUnequip:            {},
	types.KindUseHeldItem:        {},
	types.KindCraft:              {"itemName"},
	types.KindChat:               {"message"},
	types.KindSetControlState:    {"control", "state"},
	types.KindClearControlStates: {},
	types.KindWait:               {},
}

// optionalFields maps each optional field name to the kinds that accept
// it. Checked in the fixed order below so error reporting is stable.
var optionalFields = map[string][]types.ActionKind{
	"ticks":       {types.KindWait},
	"count":       {types.KindCollect, types.KindCraft},
	"radius":      {types.KindCollect},
	"destination": {types.KindEquip, types.KindUnequip},
}

var optionalOrder = []string{"ticks", "count", "radius", "destination"}

// Kinds returns every known action kind, sorted.
func Kinds() []types.ActionKind {
	kinds := make([]types.ActionKind, 0, len(requiredFields))
	for k := range requiredFields {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// RequiredFields returns the required field names for a kind and whether
// the kind is known.
func RequiredFields(kind types.ActionKind) ([]string, bool) {
	f, ok := requiredFields[kind]
	return f, ok
}

// Validate checks a Candidate against the schema and, on success, promotes
// it to a typed Action. The returned strings are warnings about tolerated
// extra fields; they never block acceptance. Rules run in fixed order:
// known kind, required fields present, field types, optional-field
// placement, extra-field warnings.
func Validate(c types.Candidate) (types.Action, []string, error) {
	kind := types.ActionKind(c.Kind)
	required, known := requiredFields[kind]
	if !known {
		return nil, nil, &UnknownKindError{Kind: c.Kind}
	}

	for _, name := range required {
		if _, present := c.Fields[name]; !present {
			return nil, nil, &MissingFieldError{Kind: c.Kind, Field: name}
		}
	}

	r := &reader{kind: c.Kind, fields: c.Fields}
	act := build(kind, r, c.Fields)
	if r.err != nil {
		return nil, nil, r.err
	}

	for _, name := range optionalOrder {
		if _, present := c.Fields[name]; !present {
			continue
		}
		if !optionalAllowed(kind, name) {
			return nil, nil, &MisplacedFieldError{Kind: c.Kind, Field: name}
		}
	}

	return act, extraFieldWarnings(kind, c.Fields), nil
}

// build constructs the typed variant for a kind, reading required fields
// and any allowed optional fields that are present. Type errors accumulate
// in the reader; the first one wins.
func build(kind types.ActionKind, r *reader, fields map[string]any) types.Action {
	switch kind {
	case types.KindMoveTo:
		return types.MoveTo{X: r.num("x"), Y: r.num("y"), Z: r.num("z")}

	case types.KindCollect:
		a := types.Collect{BlockType: r.nonEmptyStr("blockType")}
		if _, ok := fields["count"]; ok {
			a.Count = r.positiveInt("count")
		}
		if _, ok := fields["radius"]; ok {
			a.Radius = r.positiveNum("radius")
		}
		return a

	case types.KindPlaceBlock:
		return types.PlaceBlock{
			ItemName: r.nonEmptyStr("itemName"),
			X:        r.num("x"), Y: r.num("y"), Z: r.num("z"),
		}

	case types.KindDig:
		return types.Dig{X: r.num("x"), Y: r.num("y"), Z: r.num("z")}

	case types.KindAttack:
		return types.Attack{Target: r.nonEmptyStr("target")}

	case types.KindJumpAttack:
		return types.JumpAttack{Target: r.nonEmptyStr("target")}

	case types.KindLookAt:
		return types.LookAt{X: r.num("x"), Y: r.num("y"), Z: r.num("z")}

	case types.KindEquip:
		a := types.Equip{ItemName: r.nonEmptyStr("itemName")}
		if _, ok := fields["destination"]; ok {
			a.Destination = r.nonEmptyStr("destination")
		}
		return a

	case types.KindUnequip:
		a := types.Unequip{}
		if _, ok := fields["destination"]; ok {
			a.Destination = r.nonEmptyStr("destination")
		}
		return a

	case types.KindUseHeldItem:
		return types.UseHeldItem{}

	case types.KindCraft:
		a := types.Craft{ItemName: r.nonEmptyStr("itemName")}
		if _, ok := fields["count"]; ok {
			a.Count = r.positiveInt("count")
		}
		return a

	case types.KindChat:
		return types.Chat{Message: r.str("message")}

	case types.KindSetControlState:
		return types.SetControlState{
			Control: r.nonEmptyStr("control"),
			State:   r.boolean("state"),
		}

	case types.KindClearControlStates:
		return types.ClearControlStates{}

	case types.KindWait:
		a := types.Wait{}
		if _, ok := fields["ticks"]; ok {
			a.Ticks = r.nonNegativeInt("ticks")
		}
		return a
	}
	return nil
}

func optionalAllowed(kind types.ActionKind, field string) bool {
	for _, k := range optionalFields[field] {
		if k == kind {
			return true
		}
	}
	return false
}

// extraFieldWarnings reports fields outside the required-or-optional set
// for the kind. Models sometimes add harmless keys ("description",
// "reason"); those pass through with a warning instead of a rejection.
func extraFieldWarnings(kind types.ActionKind, fields map[string]any) []string {
	allowed := map[string]bool{}
	for _, name := range requiredFields[kind] {
		allowed[name] = true
	}
	for name := range optionalFields {
		if optionalAllowed(kind, name) {
			allowed[name] = true
		}
	}

	var extras []string
	for name := range fields {
		if !allowed[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)

	var warnings []string
	for _, name := range extras {
		warnings = append(warnings, fmt.Sprintf("%s: ignoring unrecognized field %q", kind, name))
	}
	return warnings
}

// reader extracts typed field values from a candidate's field map.
// The first type error sticks; later reads return zero values.
type reader struct {
	kind   string
	fields map[string]any
	err    error
}

func (r *reader) fail(field, want string) {
	if r.err == nil {
		r.err = &TypeMismatchError{Kind: r.kind, Field: field, Want: want}
	}
}

// num accepts int or float64 (JSON numbers decode as float64, the
// function-call grammar produces int or float64).
func (r *reader) num(field string) float64 {
	switch v := r.fields[field].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		r.fail(field, "a number")
		return 0
	}
}

// integer accepts int, or a float64 with no fractional part.
func (r *reader) integer(field string) (int, bool) {
	switch v := r.fields[field].(type) {
	case int:
		return v, true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v), true
		}
	}
	return 0, false
}

func (r *reader) nonNegativeInt(field string) int {
	n, ok := r.integer(field)
	if !ok || n < 0 {
		r.fail(field, "a non-negative integer")
		return 0
	}
	return n
}

func (r *reader) positiveInt(field string) int {
	n, ok := r.integer(field)
	if !ok || n <= 0 {
		r.fail(field, "a positive integer")
		return 0
	}
	return n
}

func (r *reader) positiveNum(field string) float64 {
	switch v := r.fields[field].(type) {
	case float64:
		if v > 0 {
			return v
		}
	case int:
		if v > 0 {
			return float64(v)
		}
	}
	r.fail(field, "a positive number")
	return 0
}

func (r *reader) str(field string) string {
	if s, ok := r.fields[field].(string); ok {
		return s
	}
	r.fail(field, "a string")
	return ""
}

func (r *reader) nonEmptyStr(field string) string {
	s, ok := r.fields[field].(string)
	if !ok || s == "" {
		r.fail(field, "a non-empty string")
		return ""
	}
	return s
}

func (r *reader) boolean(field string) bool {
	if b, ok := r.fields[field].(bool); ok {
		return b
	}
	r.fail(field, "a boolean")
	return false
}
