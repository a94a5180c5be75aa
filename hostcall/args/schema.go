// Package args decodes script call arguments against a declarative field
// table. Defaults and required fields live in the table, not in the code
// that consumes the decoded values.
package args

import (
	"fmt"
	"math"

	"github.com/wippyai/jsbridge/errors"
)

// Type is the Go shape a field decodes into.
type Type uint8

const (
	String Type = iota
	Bytes
	Uint64
	Any
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Bytes:
		return "[]byte"
	case Uint64:
		return "uint64"
	case Any:
		return "any"
	default:
		return "unknown"
	}
}

// Field describes one named argument.
//
// A field that is neither Required nor given a Default decodes to an absent
// value, which Values reports through the ok result of its getters.
type Field struct {
	Default  any
	Name     string
	Type     Type
	Required bool
}

// Schema is an ordered field table.
type Schema []Field

// Values holds decoded fields. Absent optional fields have no entry.
type Values map[string]any

// Decode validates raw against the schema. raw must be a string-keyed map
// as produced by the script engine's export of a plain object. Unknown keys
// are ignored.
func (s Schema) Decode(path string, raw any) (Values, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseDecode, []string{path}, "map[string]any", jsTypeOf(raw))
	}

	out := make(Values, len(s))
	for _, f := range s {
		v, present := obj[f.Name]
		if !present || v == nil {
			if f.Required {
				return nil, errors.FieldMissing(errors.PhaseDecode, []string{path}, f.Name)
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}
		decoded, err := decodeField(f, []string{path, f.Name}, v)
		if err != nil {
			return nil, err
		}
		out[f.Name] = decoded
	}
	return out, nil
}

func decodeField(f Field, path []string, v any) (any, error) {
	switch f.Type {
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseDecode, path, "string", jsTypeOf(v))
		}
		return s, nil
	case Bytes:
		return ToBytes(path, v)
	case Uint64:
		return ToUint64(path, v)
	default:
		return v, nil
	}
}

// ToBytes accepts byte slices, strings (as UTF-8) and arrays of numbers in
// the 0..255 range.
func ToBytes(path []string, v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case []any:
		out := make([]byte, len(b))
		for i, item := range b {
			n, err := ToUint64(append(path, fmt.Sprint(i)), item)
			if err != nil {
				return nil, err
			}
			if n > math.MaxUint8 {
				return nil, errors.Overflow(errors.PhaseDecode, append(path, fmt.Sprint(i)), n, "uint8")
			}
			out[i] = byte(n)
		}
		return out, nil
	default:
		return nil, errors.TypeMismatch(errors.PhaseDecode, path, "[]byte", jsTypeOf(v))
	}
}

// ToUint64 accepts integral, non-negative numbers.
func ToUint64(path []string, v any) (uint64, error) {
	switch n := v.(type) {
	case int64:
		if n < 0 {
			return 0, errors.Overflow(errors.PhaseDecode, path, n, "uint64")
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, errors.Overflow(errors.PhaseDecode, path, n, "uint64")
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	case float64:
		if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || n >= math.MaxUint64 {
			return 0, errors.Overflow(errors.PhaseDecode, path, n, "uint64")
		}
		return uint64(n), nil
	default:
		return 0, errors.TypeMismatch(errors.PhaseDecode, path, "uint64", jsTypeOf(v))
	}
}

// String returns a decoded string field.
func (v Values) String(name string) (string, bool) {
	s, ok := v[name].(string)
	return s, ok
}

// Bytes returns a decoded byte field.
func (v Values) Bytes(name string) ([]byte, bool) {
	b, ok := v[name].([]byte)
	return b, ok
}

// Uint64 returns a decoded integer field.
func (v Values) Uint64(name string) (uint64, bool) {
	n, ok := v[name].(uint64)
	return n, ok
}

// Any returns a field as decoded.
func (v Values) Any(name string) (any, bool) {
	a, ok := v[name]
	return a, ok
}

func jsTypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "undefined"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	case []any:
		return "array"
	case []byte:
		return "Uint8Array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
