package http

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/wippyai/jsbridge/host"
	"github.com/wippyai/jsbridge/resource"
)

type event struct {
	payload any
	name    string
}

// recorder stands in for a script callback.
type recorder struct {
	done   chan struct{}
	events []event
	mu     sync.Mutex
	once   sync.Once
	fail   bool
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (*recorder) ScriptFunction() {}

func (r *recorder) record(name string, payload any) error {
	r.mu.Lock()
	r.events = append(r.events, event{name: name, payload: payload})
	r.mu.Unlock()
	if EventName(name).Terminal() {
		r.once.Do(func() { close(r.done) })
	}
	if r.fail {
		return fmt.Errorf("callback threw on %s", name)
	}
	return nil
}

func (r *recorder) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

func (r *recorder) names() []string {
	var out []string
	for _, e := range r.snapshot() {
		out = append(out, e.name)
	}
	return out
}

// fakeEnv is a minimal host environment: a resource table, a weak self
// reference and goroutine-based Spawn.
type fakeEnv struct {
	ctx    context.Context
	table  *resource.Registry
	ref    *host.WeakRef
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newFakeEnv() *fakeEnv {
	e := &fakeEnv{table: resource.NewRegistry()}
	e.ref = host.NewWeakRef(e)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e
}

func (e *fakeEnv) LookupResource(h resource.Handle) (host.Callback, bool) {
	return e.table.Get(h)
}

func (e *fakeEnv) InvokeCallback(cb host.Callback, args ...any) error {
	rec, ok := cb.(*recorder)
	if !ok {
		return fmt.Errorf("unexpected callback %T", cb)
	}
	name, _ := args[0].(string)
	var payload any
	if len(args) > 1 {
		payload = args[1]
	}
	return rec.record(name, payload)
}

func (e *fakeEnv) Spawn(cb host.Callback, work host.WorkFunc, a any) (resource.Handle, error) {
	h := e.table.Insert(1, cb)
	if h == 0 {
		return 0, fmt.Errorf("table closed")
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.table.Remove(h)
		work(e.ctx, e.ref, h, a)
	}()
	return h, nil
}

func (e *fakeEnv) close() {
	e.ref.Expire()
	e.cancel()
}

func (e *fakeEnv) wait(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for workers")
	}
}

func spawnRequest(t *testing.T, h *Host, env *fakeEnv, req map[string]any) (*recorder, resource.Handle) {
	t.Helper()
	rec := newRecorder()
	v, err := h.HTTPRequest(context.Background(), host.Call{Spawner: env, Args: []any{req, rec}})
	if err != nil {
		t.Fatalf("HTTPRequest failed: %v", err)
	}
	handle, ok := v.(uint64)
	if !ok {
		t.Fatalf("expected uint64 handle, got %T", v)
	}
	return rec, resource.Handle(handle)
}

// fakeTransport records requests and replays a canned response.
type fakeTransport struct {
	err     error
	bodyErr error
	block   chan struct{}
	head    ResponseHead
	chunks  [][]byte
	reqs    []*OutgoingRequest
	mu      sync.Mutex
}

func (f *fakeTransport) RoundTrip(ctx context.Context, req *OutgoingRequest) (*Response, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	head := f.head
	if head.Status == 0 {
		head = ResponseHead{Status: 200, StatusText: "OK", Version: "HTTP/1.1"}
	}
	return &Response{Head: head, Body: &sliceBody{chunks: f.chunks, err: f.bodyErr}}, nil
}

func (f *fakeTransport) requests() []*OutgoingRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*OutgoingRequest(nil), f.reqs...)
}

type sliceBody struct {
	err    error
	chunks [][]byte
	closed bool
}

func (b *sliceBody) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(b.chunks) > 0 {
		c := b.chunks[0]
		b.chunks = b.chunks[1:]
		return c, nil
	}
	if b.err != nil {
		return nil, b.err
	}
	return nil, io.EOF
}

func (b *sliceBody) Close() error {
	b.closed = true
	return nil
}
