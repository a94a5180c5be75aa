package runtime

import (
	"github.com/dop251/goja"

	httpcall "github.com/wippyai/jsbridge/hostcall/http"
)

// scriptFunc is a script function passed to a host call. It is only ever
// invoked on the loop goroutine.
type scriptFunc struct {
	fn goja.Callable
}

func (*scriptFunc) ScriptFunction() {}

// exportArg converts a call argument to the Go shape host functions
// expect. Functions are wrapped so they can be stored as callbacks.
func exportArg(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	if fn, ok := goja.AssertFunction(v); ok {
		return &scriptFunc{fn: fn}
	}
	return v.Export()
}

// toValue converts an event payload to a script value. Must run on the
// loop goroutine.
func toValue(vm *goja.Runtime, v any) goja.Value {
	switch p := v.(type) {
	case nil:
		return goja.Undefined()
	case goja.Value:
		return p
	case []byte:
		return uint8Array(vm, p)
	case httpcall.Headers:
		return headersArray(vm, p)
	case httpcall.ResponseHead:
		obj := vm.NewObject()
		_ = obj.Set("status", p.Status)
		_ = obj.Set("statusText", p.StatusText)
		_ = obj.Set("version", p.Version)
		_ = obj.Set("headers", headersArray(vm, p.Headers))
		return obj
	default:
		return vm.ToValue(v)
	}
}

func uint8Array(vm *goja.Runtime, b []byte) goja.Value {
	buf := vm.NewArrayBuffer(append([]byte(nil), b...))
	arr, err := vm.New(vm.Get("Uint8Array"), vm.ToValue(buf))
	if err != nil {
		return vm.ToValue(buf)
	}
	return arr
}

func headersArray(vm *goja.Runtime, h httpcall.Headers) goja.Value {
	pairs := h.Pairs()
	items := make([]any, len(pairs))
	for i, p := range pairs {
		items[i] = vm.NewArray(p.Name, p.Value)
	}
	return vm.NewArray(items...)
}
