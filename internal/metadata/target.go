package metadata

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrInvalidSource is returned when a declaration or lookup target cannot be
// reduced to a struct type or a non-empty name.
var ErrInvalidSource = errors.New("translatable: source must be a struct type or a name")

// Target is the canonical identity of a translatable source. Typed targets
// are keyed by their struct reflect.Type so that values, pointers, typed nil
// pointers and slices of the same model all resolve to the same entry.
// Name-only targets have a nil Type.
type Target struct {
	Type reflect.Type
	Name string
}

// Key returns the map key used by the registry.
func (t Target) Key() any {
	if t.Type != nil {
		return t.Type
	}
	return t.Name
}

// Named reports whether the target was declared by name only.
func (t Target) Named() bool {
	return t.Type == nil
}

func (t Target) String() string {
	if t.Type != nil {
		return t.Type.String()
	}
	return t.Name
}

// TargetOf canonicalizes source. Accepted inputs: a reflect.Type, a string
// name, or any value whose type is (a pointer to / slice of) a struct.
func TargetOf(source any) (Target, error) {
	switch v := source.(type) {
	case nil:
		return Target{}, ErrInvalidSource
	case Target:
		if v.Type == nil && strings.TrimSpace(v.Name) == "" {
			return Target{}, ErrInvalidSource
		}
		return v, nil
	case string:
		name := strings.TrimSpace(v)
		if name == "" {
			return Target{}, ErrInvalidSource
		}
		return Target{Name: name}, nil
	case reflect.Type:
		typ, ok := StructType(v)
		if !ok {
			return Target{}, fmt.Errorf("%w: %s", ErrInvalidSource, v)
		}
		return Target{Type: typ, Name: typ.Name()}, nil
	default:
		typ, ok := StructType(reflect.TypeOf(source))
		if !ok {
			return Target{}, fmt.Errorf("%w: %T", ErrInvalidSource, source)
		}
		return Target{Type: typ, Name: typ.Name()}, nil
	}
}

// StructType strips pointers, slices and arrays until it reaches a struct.
func StructType(typ reflect.Type) (reflect.Type, bool) {
	for typ != nil {
		switch typ.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			typ = typ.Elem()
		case reflect.Struct:
			return typ, true
		default:
			return nil, false
		}
	}
	return nil, false
}
