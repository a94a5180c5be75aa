package runtime

import (
	"fmt"
	"time"

	"github.com/wippyai/jsbridge/host"
	httpcall "github.com/wippyai/jsbridge/hostcall/http"
	"github.com/wippyai/jsbridge/resource"
)

// TraceKind names a traced step.
type TraceKind string

const (
	TraceSpawned  TraceKind = "spawned"
	TraceReleased TraceKind = "released"
	TraceHead     TraceKind = "head"
	TraceData     TraceKind = "data"
	TraceEnd      TraceKind = "end"
	TraceError    TraceKind = "error"
)

// Trace is one observed step of a request handle.
type Trace struct {
	Time   time.Time
	Kind   TraceKind
	Detail string
	Handle resource.Handle
}

// Tracer is called from worker goroutines and must be safe for
// concurrent use.
type Tracer func(Trace)

type traceObserver struct {
	tracer Tracer
}

func (o traceObserver) OnResourceEvent(e resource.Event) {
	kind := TraceSpawned
	if e.Type == resource.EventDropped {
		kind = TraceReleased
	}
	o.tracer(Trace{Time: time.Now(), Kind: kind, Handle: e.Handle})
}

// dispatch traces an event and forwards it to the standard dispatcher.
func (r *Runtime) dispatch(ref *host.WeakRef, h resource.Handle, name httpcall.EventName, payload any) {
	if r.tracer != nil {
		r.tracer(Trace{Time: time.Now(), Kind: TraceKind(name), Detail: traceDetail(payload), Handle: h})
	}
	httpcall.Dispatch(ref, h, name, payload)
}

func traceDetail(payload any) string {
	switch p := payload.(type) {
	case nil:
		return ""
	case httpcall.ResponseHead:
		return fmt.Sprintf("%d %s", p.Status, p.StatusText)
	case []byte:
		return fmt.Sprintf("%d bytes", len(p))
	case string:
		return p
	default:
		return fmt.Sprint(p)
	}
}
