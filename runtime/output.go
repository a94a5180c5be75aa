package runtime

import (
	"github.com/dop251/goja"
)

// OutputKind classifies a script result.
type OutputKind uint8

const (
	OutputUndefined OutputKind = iota
	OutputNull
	OutputString
	OutputBytes
	OutputOther
)

func (k OutputKind) String() string {
	switch k {
	case OutputUndefined:
		return "undefined"
	case OutputNull:
		return "null"
	case OutputString:
		return "string"
	case OutputBytes:
		return "bytes"
	case OutputOther:
		return "other"
	default:
		return "unknown"
	}
}

// Output is the value a script run produced. Text holds the string form
// for String and Other kinds.
type Output struct {
	Text  string
	Bytes []byte
	Kind  OutputKind
}

// String renders the output for display.
func (o Output) String() string {
	switch o.Kind {
	case OutputUndefined:
		return "undefined"
	case OutputNull:
		return "null"
	case OutputBytes:
		return string(o.Bytes)
	default:
		return o.Text
	}
}

// convertOutput must run on the loop goroutine.
func convertOutput(v goja.Value) Output {
	switch {
	case v == nil || goja.IsUndefined(v):
		return Output{Kind: OutputUndefined}
	case goja.IsNull(v):
		return Output{Kind: OutputNull}
	}
	if s, ok := v.Export().(string); ok {
		return Output{Kind: OutputString, Text: s}
	}
	if obj, ok := v.(*goja.Object); ok {
		if b, ok := obj.Export().([]byte); ok {
			return Output{Kind: OutputBytes, Bytes: append([]byte(nil), b...)}
		}
	}
	return Output{Kind: OutputOther, Text: v.String()}
}
