package host

import (
	"context"

	"github.com/wippyai/jsbridge/resource"
)

// Callback is an opaque script-side value stored in the resource registry.
// Only the Env that produced it knows how to invoke it.
type Callback any

// Function marks argument values that are invocable script functions.
// Env implementations wrap script functions in a type that implements it.
type Function interface {
	ScriptFunction()
}

// Env is the strong view of a host environment. It is obtained from
// WeakRef.Upgrade and must not be retained past one synchronous use.
//
// Both methods must be safe for concurrent callers.
type Env interface {
	// LookupResource resolves a handle to the callback registered under it.
	// It fails once the script side has discarded the resource.
	LookupResource(h resource.Handle) (Callback, bool)

	// InvokeCallback calls into script space. A script exception is
	// returned as an error and never faults the host.
	InvokeCallback(cb Callback, args ...any) error
}

// WorkFunc is background work started by Spawn. It receives only a weak
// reference to the host that spawned it.
type WorkFunc func(ctx context.Context, ref *WeakRef, h resource.Handle, args any)

// Spawner allocates handles and schedules background work.
type Spawner interface {
	// Spawn registers cb under a fresh handle, starts work concurrently and
	// returns the handle without waiting for the work to complete.
	Spawn(cb Callback, work WorkFunc, args any) (resource.Handle, error)
}

// Call carries the arguments of one script-to-host call, already converted
// to Go values by the Env.
type Call struct {
	Spawner Spawner
	Args    []any
}

// Arg returns the i-th argument or nil when absent.
func (c Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Func is a host function callable from script code.
type Func func(ctx context.Context, call Call) (any, error)

// Namespace groups host functions under one script-visible object.
type Namespace interface {
	// Namespace returns the global object name (e.g. "Host").
	Namespace() string

	// Functions returns the script-visible function names and their handlers.
	Functions() map[string]Func
}
