package http

import (
	"context"
	"sync"

	"github.com/wippyai/jsbridge/host"
	"github.com/wippyai/jsbridge/resource"
)

// State tracks a request handle through its lifecycle.
type State uint8

const (
	StateCreated State = iota
	StateSent
	StateStreaming
	StateEnded
	StateTimedOut
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSent:
		return "sent"
	case StateStreaming:
		return "streaming"
	case StateEnded:
		return "ended"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stream serializes event delivery for one handle. After a terminal event
// nothing else is delivered, and a cancelled worker context blocks further
// worker events, so a worker that lost the timeout race stays silent.
type Stream struct {
	ref      *host.WeakRef
	dispatch DispatchFunc
	handle   resource.Handle
	mu       sync.Mutex
	state    State
}

// NewStream creates a stream delivering through dispatch. A nil dispatch
// uses Dispatch.
func NewStream(ref *host.WeakRef, h resource.Handle, dispatch DispatchFunc) *Stream {
	if dispatch == nil {
		dispatch = Dispatch
	}
	return &Stream{ref: ref, handle: h, dispatch: dispatch}
}

// Handle returns the handle this stream reports for.
func (s *Stream) Handle() resource.Handle { return s.handle }

// State returns the current lifecycle state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Stream) terminal() bool {
	return s.state == StateEnded || s.state == StateTimedOut || s.state == StateFailed
}

// MarkSent records that the request left the worker.
func (s *Stream) MarkSent(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() == nil && s.state == StateCreated {
		s.state = StateSent
	}
}

// Emit delivers a non-terminal event from the worker. It reports false if
// the event was suppressed.
func (s *Stream) Emit(ctx context.Context, name EventName, payload any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal() || ctx.Err() != nil {
		return false
	}
	if name == EventHead {
		s.state = StateStreaming
	}
	s.dispatch(s.ref, s.handle, name, payload)
	return true
}

// End delivers the terminal "end" event from the worker.
func (s *Stream) End(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal() || ctx.Err() != nil {
		return false
	}
	s.state = StateEnded
	s.dispatch(s.ref, s.handle, EventEnd, nil)
	return true
}

// Fail delivers the terminal "error" event. It is called by the racer
// after the worker has been cancelled, so it ignores worker context.
func (s *Stream) Fail(timedOut bool, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal() {
		return false
	}
	if timedOut {
		s.state = StateTimedOut
	} else {
		s.state = StateFailed
	}
	s.dispatch(s.ref, s.handle, EventError, msg)
	return true
}
