package runtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/jsbridge/errors"
	"github.com/wippyai/jsbridge/host"
	"github.com/wippyai/jsbridge/hostcall/args"
	httpcall "github.com/wippyai/jsbridge/hostcall/http"
	"github.com/wippyai/jsbridge/resource"
)

// CallbackType tags script callbacks in the resource table.
const CallbackType resource.TypeID = 1

// Runtime is a script host: one goja event loop, its resource table and
// the background tasks spawned by host calls.
type Runtime struct {
	ctx    context.Context
	cancel context.CancelFunc
	loop   *eventloop.EventLoop
	table  *resource.Registry
	weak   *host.WeakRef
	hosts  *HostRegistry
	log    *zap.Logger
	tracer Tracer
	id     string
	tasks  taskGroup
	once   sync.Once
	closed atomic.Bool
}

var _ interface {
	host.Env
	host.Spawner
} = (*Runtime)(nil)

// New creates a runtime with the Host namespace installed and the event
// loop started.
func New(opts ...Option) (*Runtime, error) {
	o := options{logger: Logger()}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if transport == nil {
		t, err := httpcall.NewNetTransport(o.transportCfg)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	r := &Runtime{
		id:     uuid.NewString(),
		table:  resource.NewRegistry(),
		hosts:  NewHostRegistry(),
		tracer: o.tracer,
	}
	r.log = o.logger.With(zap.String("runtime", r.id))
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.weak = host.NewWeakRef(r)
	if r.tracer != nil {
		r.table.Subscribe(traceObserver{tracer: r.tracer})
	}

	httpOpts := []httpcall.Option{
		httpcall.WithTransport(transport),
		httpcall.WithDispatch(r.dispatch),
	}
	if o.userAgent != "" {
		httpOpts = append(httpOpts, httpcall.WithUserAgent(o.userAgent))
	}
	if o.defaultTimeout > 0 {
		httpOpts = append(httpOpts, httpcall.WithDefaultTimeout(o.defaultTimeout))
	}
	httpHost, err := httpcall.New(httpOpts...)
	if err != nil {
		return nil, err
	}
	if err := r.hosts.RegisterHost(httpHost); err != nil {
		return nil, err
	}
	if err := r.hosts.RegisterFunc(httpcall.Namespace, "closeHandle", r.closeHandle); err != nil {
		return nil, err
	}
	for _, h := range o.hosts {
		if err := r.hosts.RegisterHost(h); err != nil {
			return nil, err
		}
	}

	r.loop = eventloop.NewEventLoop(eventloop.EnableConsole(true))
	r.loop.Start()

	err = r.do(func(vm *goja.Runtime) error {
		scriptArgs := make([]any, len(o.args))
		for i, a := range o.args {
			scriptArgs[i] = a
		}
		if err := vm.Set("scriptArgs", vm.NewArray(scriptArgs...)); err != nil {
			return err
		}
		return r.hosts.Bind(vm, r.wrap)
	})
	if err != nil {
		r.Close()
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "install host namespace")
	}

	r.log.Debug("runtime started", zap.Strings("host_functions", r.hosts.Names()))
	return r, nil
}

// ID returns the runtime's instance id.
func (r *Runtime) ID() string { return r.id }

// Hosts returns the host function registry.
func (r *Runtime) Hosts() *HostRegistry { return r.hosts }

// do runs fn on the loop goroutine and waits for it. It must not be called
// from the loop goroutine.
func (r *Runtime) do(fn func(vm *goja.Runtime) error) error {
	if r.closed.Load() {
		return errors.ErrHostClosed
	}

	done := make(chan error, 1)
	if !r.loop.RunOnLoop(func(vm *goja.Runtime) {
		done <- fn(vm)
	}) {
		return errors.ErrHostClosed
	}

	select {
	case err := <-done:
		return err
	case <-r.ctx.Done():
		return errors.ErrHostClosed
	}
}

// wrap adapts a host function to a goja native function. Host errors are
// thrown as script exceptions.
func (r *Runtime) wrap(vm *goja.Runtime, fn host.Func) func(goja.FunctionCall) goja.Value {
	return func(fc goja.FunctionCall) goja.Value {
		callArgs := make([]any, len(fc.Arguments))
		for i, a := range fc.Arguments {
			callArgs[i] = exportArg(a)
		}

		out, err := fn(r.ctx, host.Call{Spawner: r, Args: callArgs})
		if err != nil {
			panic(vm.NewGoError(err))
		}
		if out == nil {
			return goja.Undefined()
		}
		return vm.ToValue(out)
	}
}

// Spawn implements host.Spawner. The callback stays registered until the
// work returns or the script closes the handle.
func (r *Runtime) Spawn(cb host.Callback, work host.WorkFunc, a any) (resource.Handle, error) {
	if r.closed.Load() {
		return 0, errors.ErrHostClosed
	}

	h := r.table.Insert(CallbackType, cb)
	if h == 0 {
		return 0, errors.ErrHostClosed
	}

	r.tasks.add()
	go func() {
		defer r.tasks.done()
		defer r.table.Remove(h)
		work(r.ctx, r.weak, h, a)
	}()
	return h, nil
}

// LookupResource implements host.Env.
func (r *Runtime) LookupResource(h resource.Handle) (host.Callback, bool) {
	return r.table.GetTyped(h, CallbackType)
}

// InvokeCallback implements host.Env. The call is scheduled on the loop
// and this blocks until it has run or the runtime closes.
func (r *Runtime) InvokeCallback(cb host.Callback, callArgs ...any) error {
	fn, ok := cb.(*scriptFunc)
	if !ok {
		return errors.New(errors.PhaseDispatch, errors.KindTypeMismatch).
			GoType("*scriptFunc").
			Detail("callback is not a script function").
			Build()
	}

	return r.do(func(vm *goja.Runtime) error {
		values := make([]goja.Value, len(callArgs))
		for i, a := range callArgs {
			values[i] = toValue(vm, a)
		}
		if _, err := fn.fn(goja.Undefined(), values...); err != nil {
			return errors.ScriptError(errors.PhaseDispatch, err)
		}
		return nil
	})
}

// RemoveResource drops the callback under h. In-flight work for the handle
// keeps running but its events are no longer delivered.
func (r *Runtime) RemoveResource(h resource.Handle) bool {
	_, ok := r.table.Remove(h)
	return ok
}

func (r *Runtime) closeHandle(_ context.Context, call host.Call) (any, error) {
	h, err := args.ToUint64([]string{"handle"}, call.Arg(0))
	if err != nil {
		return nil, err
	}
	return r.RemoveResource(resource.Handle(h)), nil
}

// NumTasks returns the number of in-flight background tasks.
func (r *Runtime) NumTasks() int { return r.tasks.len() }

// Wait blocks until no background tasks remain or ctx is done.
func (r *Runtime) Wait(ctx context.Context) error {
	return r.tasks.wait(ctx)
}

// Close expires the weak reference held by workers, cancels their
// context and stops the loop. Workers still running see a dead host at
// their next dispatch.
func (r *Runtime) Close() error {
	var err error
	r.once.Do(func() {
		r.closed.Store(true)
		r.weak.Expire()
		r.cancel()
		r.loop.Stop()
		err = r.table.Close()
		r.log.Debug("runtime closed", zap.Int("tasks", r.tasks.len()))
	})
	return err
}
