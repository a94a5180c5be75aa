package http

import (
	"fmt"
	"sort"

	"github.com/wippyai/jsbridge/errors"
)

// Header is one name/value pair.
type Header struct {
	Name  string
	Value string
}

// Headers is an immutable ordered list of header pairs. Duplicate names are
// allowed and order is significant.
type Headers struct {
	pairs []Header
}

// NewHeaders copies pairs into a Headers value.
func NewHeaders(pairs ...Header) Headers {
	if len(pairs) == 0 {
		return Headers{}
	}
	return Headers{pairs: append([]Header(nil), pairs...)}
}

// Pairs returns a copy of the header pairs in order.
func (h Headers) Pairs() []Header {
	return append([]Header(nil), h.pairs...)
}

// Len returns the number of pairs.
func (h Headers) Len() int { return len(h.pairs) }

// Has reports whether a pair with exactly this name exists. The match is
// case-sensitive: "host" does not match "Host".
func (h Headers) Has(name string) bool {
	for _, p := range h.pairs {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Get returns the first value stored under exactly this name.
func (h Headers) Get(name string) (string, bool) {
	for _, p := range h.pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Append returns a new Headers with the pair added at the end.
func (h Headers) Append(name, value string) Headers {
	pairs := make([]Header, len(h.pairs), len(h.pairs)+1)
	copy(pairs, h.pairs)
	return Headers{pairs: append(pairs, Header{Name: name, Value: value})}
}

// Array renders the pairs as [[name, value], ...] for script code.
func (h Headers) Array() [][]string {
	out := make([][]string, len(h.pairs))
	for i, p := range h.pairs {
		out[i] = []string{p.Name, p.Value}
	}
	return out
}

// HeadersInput is one of the two accepted script-side header shapes.
// Both convert into the canonical ordered pair list.
type HeadersInput interface {
	Canonical() Headers
}

// OrderedPairs keeps caller order and duplicates verbatim.
type OrderedPairs []Header

// Canonical implements HeadersInput.
func (p OrderedPairs) Canonical() Headers {
	return NewHeaders(p...)
}

// KeyedMapping cannot express duplicates; it is emitted in key sort order.
type KeyedMapping map[string]string

// Canonical implements HeadersInput.
func (m KeyedMapping) Canonical() Headers {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Header, len(keys))
	for i, k := range keys {
		pairs[i] = Header{Name: k, Value: m[k]}
	}
	return Headers{pairs: pairs}
}

// DecodeHeaders classifies an exported script value into a HeadersInput.
// Arrays must hold [name, value] string pairs; objects must map names to
// strings.
func DecodeHeaders(path []string, v any) (HeadersInput, error) {
	switch raw := v.(type) {
	case nil:
		return OrderedPairs(nil), nil
	case []any:
		pairs := make(OrderedPairs, 0, len(raw))
		for i, item := range raw {
			p, err := decodePair(append(path, fmt.Sprint(i)), item)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, p)
		}
		return pairs, nil
	case [][]string:
		pairs := make(OrderedPairs, 0, len(raw))
		for i, item := range raw {
			if len(item) != 2 {
				return nil, errors.InvalidInput(errors.PhaseDecode, fmt.Sprintf("header %d must be a [name, value] pair", i))
			}
			pairs = append(pairs, Header{Name: item[0], Value: item[1]})
		}
		return pairs, nil
	case map[string]any:
		m := make(KeyedMapping, len(raw))
		for k, item := range raw {
			s, ok := item.(string)
			if !ok {
				return nil, errors.TypeMismatch(errors.PhaseDecode, append(path, k), "string", fmt.Sprintf("%T", item))
			}
			m[k] = s
		}
		return m, nil
	case map[string]string:
		return KeyedMapping(raw), nil
	default:
		return nil, errors.TypeMismatch(errors.PhaseDecode, path, "headers", fmt.Sprintf("%T", v))
	}
}

func decodePair(path []string, item any) (Header, error) {
	pair, ok := item.([]any)
	if !ok || len(pair) != 2 {
		return Header{}, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			Path(path...).
			GoType("[2]string").
			Detail("header must be a [name, value] pair").
			Build()
	}
	name, ok := pair[0].(string)
	if !ok {
		return Header{}, errors.TypeMismatch(errors.PhaseDecode, append(path, "0"), "string", fmt.Sprintf("%T", pair[0]))
	}
	value, ok := pair[1].(string)
	if !ok {
		return Header{}, errors.TypeMismatch(errors.PhaseDecode, append(path, "1"), "string", fmt.Sprintf("%T", pair[1]))
	}
	return Header{Name: name, Value: value}, nil
}
