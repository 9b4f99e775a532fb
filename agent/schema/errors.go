package schema

import "fmt"

// UnknownKindError indicates a candidate named a kind outside the closed set.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	if e.Kind == "" {
		return "action has no kind"
	}
	return fmt.Sprintf("unknown action kind %q", e.Kind)
}

// MissingFieldError indicates a required field was absent.
type MissingFieldError struct {
	Kind  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Kind, e.Field)
}

// MisplacedFieldError indicates an optional field appeared on a kind
// that does not accept it.
type MisplacedFieldError struct {
	Kind  string
	Field string
}

func (e *MisplacedFieldError) Error() string {
	return fmt.Sprintf("%s: field %q is not valid for this action", e.Kind, e.Field)
}

// TypeMismatchError indicates a field had the wrong type or an
// out-of-range value.
type TypeMismatchError struct {
	Kind  string
	Field string
	Want  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: field %q must be %s", e.Kind, e.Field, e.Want)
}
