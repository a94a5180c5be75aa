package http

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/jsbridge/errors"
	"github.com/wippyai/jsbridge/host"
	"github.com/wippyai/jsbridge/hostcall/args"
	"github.com/wippyai/jsbridge/resource"
)

// Namespace is the script-side object the host calls are attached to.
const Namespace = "Host"

// Host exposes httpRequest to scripts.
type Host struct {
	transport      Transport
	dispatch       DispatchFunc
	userAgent      string
	schema         args.Schema
	defaultTimeout uint64
}

// Option configures a Host.
type Option func(*Host)

// WithTransport sets the transport used by workers.
func WithTransport(t Transport) Option {
	return func(h *Host) { h.transport = t }
}

// WithUserAgent overrides the default User-Agent value.
func WithUserAgent(ua string) Option {
	return func(h *Host) { h.userAgent = ua }
}

// WithDefaultTimeout sets the timeout used when a request omits timeoutMs.
func WithDefaultTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d >= 0 {
			h.defaultTimeout = uint64(d / time.Millisecond)
		}
	}
}

// WithDispatch replaces event delivery. Used to observe events without a
// script engine.
func WithDispatch(fn DispatchFunc) Option {
	return func(h *Host) { h.dispatch = fn }
}

// New creates a Host. Without WithTransport it sends through net/http with
// default settings.
func New(opts ...Option) (*Host, error) {
	h := &Host{
		userAgent:      DefaultUserAgent,
		defaultTimeout: DefaultTimeoutMs,
		dispatch:       Dispatch,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.transport == nil {
		t, err := NewNetTransport(TransportConfig{})
		if err != nil {
			return nil, err
		}
		h.transport = t
	}
	h.schema = requestSchema(h.defaultTimeout)
	return h, nil
}

// Namespace implements host.Namespace.
func (h *Host) Namespace() string { return Namespace }

// Functions implements host.Namespace.
func (h *Host) Functions() map[string]host.Func {
	return map[string]host.Func{
		"httpRequest": h.HTTPRequest,
	}
}

// Globals lists the functions also installed as script globals.
func (h *Host) Globals() []string {
	return []string{"httpRequest"}
}

// HTTPRequest validates the request, registers the callback and spawns a
// worker. It returns the handle without waiting for any I/O. Argument
// errors are returned synchronously and nothing is spawned.
func (h *Host) HTTPRequest(_ context.Context, call host.Call) (any, error) {
	req, err := decodeRequest(h.schema, call.Arg(0))
	if err != nil {
		return nil, err
	}

	cb, ok := call.Arg(1).(host.Function)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseDecode, []string{"callback"}, "function", fmt.Sprintf("%T", call.Arg(1)))
	}
	if call.Spawner == nil {
		return nil, errors.HostClosed("no spawner available")
	}

	handle, err := call.Spawner.Spawn(cb, h.run, req)
	if err != nil {
		return nil, err
	}

	Logger().Debug("http request spawned",
		zap.Uint64("handle", uint64(handle)),
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Uint64("timeout_ms", req.TimeoutMs))

	return uint64(handle), nil
}

func (h *Host) run(ctx context.Context, ref *host.WeakRef, handle resource.Handle, a any) {
	req := a.(*Request)
	s := NewStream(ref, handle, h.dispatch)
	w := NewWorker(h.transport, h.userAgent)

	err := Race(ctx, req.Timeout(), func(ctx context.Context) error {
		return w.Execute(ctx, s, req)
	})
	if err == nil {
		return
	}

	timedOut := stderrors.Is(err, errors.ErrTimedOut)
	Logger().Debug("http request failed",
		zap.Uint64("handle", uint64(handle)),
		zap.Bool("timed_out", timedOut),
		zap.Error(err))

	s.Fail(timedOut, fmt.Sprintf("Failed to request `%s`: %s", req.URL, errors.Message(err)))
}
