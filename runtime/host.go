package runtime

import (
	"sort"
	"sync"

	"github.com/dop251/goja"

	"github.com/wippyai/jsbridge/errors"
	"github.com/wippyai/jsbridge/host"
)

// GlobalHost is implemented by namespaces that also expose some of their
// functions as globals.
type GlobalHost interface {
	host.Namespace
	Globals() []string
}

// HostRegistry collects host functions by namespace. Namespaces registered
// more than once are merged.
type HostRegistry struct {
	funcs   map[string]map[string]host.Func
	globals map[string]host.Func
	mu      sync.RWMutex
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{
		funcs:   make(map[string]map[string]host.Func),
		globals: make(map[string]host.Func),
	}
}

func (r *HostRegistry) RegisterHost(h host.Namespace) error {
	ns := h.Namespace()
	if ns == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}

	funcs := h.Functions()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[ns] == nil {
		r.funcs[ns] = make(map[string]host.Func)
	}
	for name, fn := range funcs {
		r.funcs[ns][name] = fn
	}

	if gh, ok := h.(GlobalHost); ok {
		for _, name := range gh.Globals() {
			fn, ok := funcs[name]
			if !ok {
				return errors.NotFound(errors.PhaseHost, "function", ns+"."+name)
			}
			r.globals[name] = fn
		}
	}
	return nil
}

func (r *HostRegistry) RegisterFunc(namespace, name string, fn host.Func) error {
	if namespace == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}
	if fn == nil {
		return errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			Path(namespace, name).
			Detail("handler must be a function").
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]host.Func)
	}
	r.funcs[namespace][name] = fn
	return nil
}

// Names returns the registered "namespace.function" names in sorted order.
func (r *HostRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for ns, funcs := range r.funcs {
		for name := range funcs {
			out = append(out, ns+"."+name)
		}
	}
	sort.Strings(out)
	return out
}

// Bind installs every namespace as a global object and every alias as a
// global function. It must run on the loop goroutine.
func (r *HostRegistry) Bind(vm *goja.Runtime, wrap func(*goja.Runtime, host.Func) func(goja.FunctionCall) goja.Value) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for ns, funcs := range r.funcs {
		obj := vm.NewObject()
		for name, fn := range funcs {
			if err := obj.Set(name, wrap(vm, fn)); err != nil {
				return errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "bind "+ns+"."+name)
			}
		}
		if err := vm.Set(ns, obj); err != nil {
			return errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "bind "+ns)
		}
	}
	for name, fn := range r.globals {
		if err := vm.Set(name, wrap(vm, fn)); err != nil {
			return errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "bind "+name)
		}
	}
	return nil
}
