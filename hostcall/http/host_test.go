package http

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/wippyai/jsbridge/errors"
	"github.com/wippyai/jsbridge/host"
)

func newTestHost(t *testing.T, opts ...Option) *Host {
	t.Helper()
	h, err := New(opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return h
}

func checkGrammar(t *testing.T, events []event) {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events delivered")
	}
	terminals := 0
	for i, e := range events {
		if EventName(e.name).Terminal() {
			terminals++
			if i != len(events)-1 {
				t.Fatalf("terminal event %q at %d is not last", e.name, i)
			}
		}
	}
	if terminals != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", terminals)
	}
	if events[0].name == string(EventData) {
		t.Fatal("data before head")
	}
}

func TestHTTPRequest_EventGrammar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		_, _ = io.WriteString(w, "hello")
	}))
	defer srv.Close()

	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t)

	rec, _ := spawnRequest(t, h, env, map[string]any{"url": srv.URL})
	env.wait(t)

	events := rec.snapshot()
	checkGrammar(t, events)
	if events[0].name != "head" {
		t.Fatalf("first event = %q, want head", events[0].name)
	}
	if events[len(events)-1].name != "end" {
		t.Fatalf("last event = %q, want end", events[len(events)-1].name)
	}

	head, ok := events[0].payload.(ResponseHead)
	if !ok {
		t.Fatalf("head payload is %T", events[0].payload)
	}
	if head.Status != 200 || head.StatusText != "OK" || head.Version != "HTTP/1.1" {
		t.Errorf("unexpected head: %+v", head)
	}
	if v, _ := head.Headers.Get("X-Test"); v != "yes" {
		t.Errorf("X-Test = %q", v)
	}

	var body []byte
	for _, e := range events {
		if e.name == "data" {
			body = append(body, e.payload.([]byte)...)
		}
	}
	if string(body) != "hello" {
		t.Errorf("body = %q", body)
	}
	if env.table.Len() != 0 {
		t.Errorf("resource not released after completion")
	}
}

func TestHTTPRequest_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		_, _ = io.WriteString(w, "late")
	}))
	defer srv.Close()
	defer close(release)

	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t)

	start := time.Now()
	rec, _ := spawnRequest(t, h, env, map[string]any{"url": srv.URL, "timeoutMs": int64(10)})

	select {
	case <-rec.done:
	case <-time.After(900 * time.Millisecond):
		t.Fatal("timeout was not reported promptly")
	}
	if elapsed := time.Since(start); elapsed > 900*time.Millisecond {
		t.Fatalf("timeout took %v", elapsed)
	}
	env.wait(t)

	events := rec.snapshot()
	if len(events) != 1 || events[0].name != "error" {
		t.Fatalf("expected a single error event, got %v", rec.names())
	}
	want := fmt.Sprintf("Failed to request `%s`: Timed out", srv.URL)
	if events[0].payload != want {
		t.Errorf("message = %q, want %q", events[0].payload, want)
	}
}

func TestHTTPRequest_ZeroTimeout(t *testing.T) {
	tr := &fakeTransport{}
	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t, WithTransport(tr))

	rec, _ := spawnRequest(t, h, env, map[string]any{"url": "http://example.com/", "timeoutMs": int64(0)})
	env.wait(t)

	events := rec.snapshot()
	if len(events) != 1 || events[0].payload != "Failed to request `http://example.com/`: Timed out" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if n := len(tr.requests()); n != 0 {
		t.Errorf("transport called %d times", n)
	}
}

func TestHTTPRequest_TimedOutWorkerStaysSilent(t *testing.T) {
	tr := &fakeTransport{block: make(chan struct{}), chunks: [][]byte{[]byte("x")}}
	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t, WithTransport(tr))

	rec, _ := spawnRequest(t, h, env, map[string]any{"url": "http://example.com/", "timeoutMs": int64(5)})
	<-rec.done
	close(tr.block)
	env.wait(t)

	if got := rec.names(); len(got) != 1 || got[0] != "error" {
		t.Fatalf("events = %v", got)
	}
}

func TestHTTPRequest_RemovedResource(t *testing.T) {
	tr := &fakeTransport{block: make(chan struct{}), chunks: [][]byte{[]byte("a")}}
	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t, WithTransport(tr))

	rec, handle := spawnRequest(t, h, env, map[string]any{"url": "http://example.com/"})
	if _, ok := env.table.Remove(handle); !ok {
		t.Fatal("handle not registered")
	}
	close(tr.block)
	env.wait(t)

	if n := len(rec.snapshot()); n != 0 {
		t.Fatalf("removed resource received %d events", n)
	}
}

func TestHTTPRequest_HostExpired(t *testing.T) {
	tr := &fakeTransport{block: make(chan struct{}), chunks: [][]byte{[]byte("a")}}
	env := newFakeEnv()
	h := newTestHost(t, WithTransport(tr))

	rec, _ := spawnRequest(t, h, env, map[string]any{"url": "http://example.com/"})
	env.ref.Expire()
	close(tr.block)
	env.wait(t)
	env.cancel()

	if n := len(rec.snapshot()); n != 0 {
		t.Fatalf("expired host received %d events", n)
	}
}

func TestHTTPRequest_HostClosedCancelsWork(t *testing.T) {
	tr := &fakeTransport{block: make(chan struct{})}
	defer close(tr.block)
	env := newFakeEnv()
	h := newTestHost(t, WithTransport(tr))

	rec, _ := spawnRequest(t, h, env, map[string]any{"url": "http://example.com/", "timeoutMs": int64(60_000)})
	env.close()
	env.wait(t)

	if n := len(rec.snapshot()); n != 0 {
		t.Fatalf("closed host received %d events", n)
	}
}

func TestHTTPRequest_DefaultHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers any
		want    []Header
	}{
		{
			name: "all defaults",
			want: []Header{
				{"Host", "example.com"},
				{"Content-Length", "0"},
				{"User-Agent", DefaultUserAgent},
			},
		},
		{
			name:    "lowercase host does not suppress Host",
			headers: []any{[]any{"host", "x"}},
			want: []Header{
				{"host", "x"},
				{"Host", "example.com"},
				{"Content-Length", "0"},
				{"User-Agent", DefaultUserAgent},
			},
		},
		{
			name:    "exact names suppress defaults",
			headers: []any{[]any{"User-Agent", "custom"}, []any{"Host", "other"}},
			want: []Header{
				{"User-Agent", "custom"},
				{"Host", "other"},
				{"Content-Length", "0"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{}
			env := newFakeEnv()
			defer env.close()
			h := newTestHost(t, WithTransport(tr))

			req := map[string]any{"url": "http://example.com:8080/path"}
			if tt.headers != nil {
				req["headers"] = tt.headers
			}
			spawnRequest(t, h, env, req)
			env.wait(t)

			reqs := tr.requests()
			if len(reqs) != 1 {
				t.Fatalf("expected 1 request, got %d", len(reqs))
			}
			got := reqs[0].Headers.Pairs()
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("headers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPRequest_TextBodyWins(t *testing.T) {
	tr := &fakeTransport{}
	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t, WithTransport(tr))

	spawnRequest(t, h, env, map[string]any{
		"url":      "http://example.com/",
		"method":   "POST",
		"body":     []any{int64(1), int64(2), int64(3)},
		"textBody": "hello",
	})
	env.wait(t)

	req := tr.requests()[0]
	if string(req.Body) != "hello" {
		t.Errorf("body = %q", req.Body)
	}
	if v, _ := req.Headers.Get("Content-Length"); v != "5" {
		t.Errorf("Content-Length = %q", v)
	}
	if req.Method != "POST" {
		t.Errorf("method = %q", req.Method)
	}
}

func TestHTTPRequest_HeaderOrder(t *testing.T) {
	tests := []struct {
		name    string
		headers any
		want    string
	}{
		{
			name:    "pairs keep order and duplicates",
			headers: []any{[]any{"b", "1"}, []any{"a", "2"}, []any{"b", "3"}},
			want:    "b=1,a=2,b=3",
		},
		{
			name:    "mapping is sorted",
			headers: map[string]any{"b": "1", "a": "2"},
			want:    "a=2,b=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{}
			env := newFakeEnv()
			defer env.close()
			h := newTestHost(t, WithTransport(tr))

			spawnRequest(t, h, env, map[string]any{"url": "http://example.com/", "headers": tt.headers})
			env.wait(t)

			var parts []string
			for _, p := range tr.requests()[0].Headers.Pairs() {
				if p.Name == "a" || p.Name == "b" {
					parts = append(parts, p.Name+"="+p.Value)
				}
			}
			if got := strings.Join(parts, ","); got != tt.want {
				t.Errorf("order = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHTTPRequest_EchoDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		names := make([]string, 0, len(r.Header))
		for k := range r.Header {
			names = append(names, k)
		}
		sort.Strings(names)
		var lines []string
		for _, k := range names {
			for _, v := range r.Header[k] {
				lines = append(lines, k+"="+v)
			}
		}
		fmt.Fprintf(w, "%s|%s|%d|%s", r.Method, r.Host, r.ContentLength, strings.Join(lines, ","))
	}))
	defer srv.Close()

	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t)

	rec, _ := spawnRequest(t, h, env, map[string]any{"url": srv.URL + "/echo"})
	env.wait(t)

	var body bytes.Buffer
	for _, e := range rec.snapshot() {
		if e.name == "data" {
			body.Write(e.payload.([]byte))
		}
	}
	// net/http carries Host on the request line and omits a zero
	// Content-Length on GET, so only User-Agent reaches the header map.
	want := "GET|127.0.0.1|0|User-Agent=" + DefaultUserAgent
	if body.String() != want {
		t.Errorf("echo = %q, want %q", body.String(), want)
	}
}

func TestHTTPRequest_LargeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	tests := []struct {
		name      string
		timeoutMs any
	}{
		{"beyond int64 nanoseconds", uint64(10_000_000_000_000)},
		{"max uint64", uint64(math.MaxUint64)},
		{"large float", float64(1e13)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newFakeEnv()
			defer env.close()
			h := newTestHost(t)

			rec, _ := spawnRequest(t, h, env, map[string]any{"url": srv.URL, "timeoutMs": tt.timeoutMs})
			env.wait(t)

			if got := strings.Join(rec.names(), ","); got != "head,data,end" {
				t.Fatalf("events = %s, payloads = %v", got, rec.snapshot())
			}
		})
	}
}

func TestMillisDuration(t *testing.T) {
	tests := []struct {
		ms   uint64
		want time.Duration
	}{
		{0, 0},
		{1500, 1500 * time.Millisecond},
		{uint64(math.MaxInt64 / int64(time.Millisecond)), time.Duration(math.MaxInt64/int64(time.Millisecond)) * time.Millisecond},
		{10_000_000_000_000, math.MaxInt64},
		{math.MaxUint64, math.MaxInt64},
	}
	for _, tt := range tests {
		if got := MillisDuration(tt.ms); got != tt.want {
			t.Errorf("MillisDuration(%d) = %v, want %v", tt.ms, got, tt.want)
		}
	}
}

func TestHTTPRequest_ChunksInOrder(t *testing.T) {
	tr := &fakeTransport{chunks: [][]byte{[]byte("one"), []byte("two"), []byte("three")}}
	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t, WithTransport(tr))

	rec, _ := spawnRequest(t, h, env, map[string]any{"url": "http://example.com/"})
	env.wait(t)

	events := rec.snapshot()
	if got := strings.Join(rec.names(), ","); got != "head,data,data,data,end" {
		t.Fatalf("events = %s", got)
	}
	for i, want := range []string{"one", "two", "three"} {
		if got := string(events[i+1].payload.([]byte)); got != want {
			t.Errorf("chunk %d = %q, want %q", i, got, want)
		}
	}
}

func TestHTTPRequest_BodyReadError(t *testing.T) {
	tr := &fakeTransport{chunks: [][]byte{[]byte("partial")}, bodyErr: fmt.Errorf("connection reset")}
	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t, WithTransport(tr))

	rec, _ := spawnRequest(t, h, env, map[string]any{"url": "http://example.com/"})
	env.wait(t)

	events := rec.snapshot()
	checkGrammar(t, events)
	if got := strings.Join(rec.names(), ","); got != "head,data,error" {
		t.Fatalf("events = %s", got)
	}
	want := "Failed to request `http://example.com/`: Failed to read response body: connection reset"
	if events[2].payload != want {
		t.Errorf("message = %q, want %q", events[2].payload, want)
	}
}

func TestHTTPRequest_URLParseError(t *testing.T) {
	tr := &fakeTransport{}
	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t, WithTransport(tr))

	rec, _ := spawnRequest(t, h, env, map[string]any{"url": "not a url"})
	env.wait(t)

	events := rec.snapshot()
	if len(events) != 1 || events[0].name != "error" {
		t.Fatalf("events = %v", rec.names())
	}
	msg := events[0].payload.(string)
	if !strings.HasPrefix(msg, "Failed to request `not a url`: Failed to parse url") {
		t.Errorf("message = %q", msg)
	}
	if len(tr.requests()) != 0 {
		t.Error("transport called for an unparseable url")
	}
}

func TestHTTPRequest_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t)

	rec, _ := spawnRequest(t, h, env, map[string]any{"url": url, "timeoutMs": int64(5000)})
	env.wait(t)

	events := rec.snapshot()
	if len(events) != 1 || events[0].name != "error" {
		t.Fatalf("events = %v", rec.names())
	}
	if msg := events[0].payload.(string); !strings.HasPrefix(msg, "Failed to request `"+url+"`: ") {
		t.Errorf("message = %q", msg)
	}
}

func TestHTTPRequest_CallbackErrorDoesNotAbort(t *testing.T) {
	tr := &fakeTransport{chunks: [][]byte{[]byte("a"), []byte("b")}}
	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t, WithTransport(tr))

	rec := newRecorder()
	rec.fail = true
	if _, err := h.HTTPRequest(context.Background(), host.Call{
		Spawner: env,
		Args:    []any{map[string]any{"url": "http://example.com/"}, rec},
	}); err != nil {
		t.Fatal(err)
	}
	env.wait(t)

	if got := strings.Join(rec.names(), ","); got != "head,data,data,end" {
		t.Fatalf("events = %s", got)
	}
}

func TestHTTPRequest_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []any
		kind errors.Kind
	}{
		{"missing url", []any{map[string]any{}, newRecorder()}, errors.KindFieldMissing},
		{"request not an object", []any{"http://example.com", newRecorder()}, errors.KindTypeMismatch},
		{"callback not a function", []any{map[string]any{"url": "http://example.com"}, "nope"}, errors.KindTypeMismatch},
		{"missing callback", []any{map[string]any{"url": "http://example.com"}}, errors.KindTypeMismatch},
		{"bad headers", []any{map[string]any{"url": "http://example.com", "headers": int64(4)}, newRecorder()}, errors.KindTypeMismatch},
		{"bad timeout", []any{map[string]any{"url": "http://example.com", "timeoutMs": "10"}, newRecorder()}, errors.KindTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newFakeEnv()
			defer env.close()
			h := newTestHost(t, WithTransport(&fakeTransport{}))

			_, err := h.HTTPRequest(context.Background(), host.Call{Spawner: env, Args: tt.args})
			if err == nil {
				t.Fatal("expected error")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Kind != tt.kind {
				t.Errorf("error = %v, want kind %s", err, tt.kind)
			}
			if env.table.Len() != 0 {
				t.Error("resource registered despite argument error")
			}
		})
	}
}

func TestHTTPRequest_DistinctHandles(t *testing.T) {
	tr := &fakeTransport{}
	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t, WithTransport(tr))

	seen := make(map[uint64]bool)
	var last uint64
	for i := 0; i < 10; i++ {
		_, handle := spawnRequest(t, h, env, map[string]any{"url": "http://example.com/"})
		if seen[uint64(handle)] {
			t.Fatalf("handle %d reused", handle)
		}
		if uint64(handle) <= last {
			t.Fatalf("handle %d not increasing after %d", handle, last)
		}
		seen[uint64(handle)] = true
		last = uint64(handle)
	}
	env.wait(t)
}

func TestHTTPRequest_DefaultTimeoutOption(t *testing.T) {
	tr := &fakeTransport{block: make(chan struct{})}
	defer close(tr.block)
	env := newFakeEnv()
	defer env.close()
	h := newTestHost(t, WithTransport(tr), WithDefaultTimeout(5*time.Millisecond))

	rec, _ := spawnRequest(t, h, env, map[string]any{"url": "http://example.com/"})
	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("configured default timeout not applied")
	}
	env.wait(t)
}

func TestHost_Namespace(t *testing.T) {
	h := newTestHost(t, WithTransport(&fakeTransport{}))
	if h.Namespace() != "Host" {
		t.Errorf("Namespace() = %q", h.Namespace())
	}
	if _, ok := h.Functions()["httpRequest"]; !ok {
		t.Error("httpRequest not exported")
	}
}
