package host

import "sync/atomic"

// WeakRef is a non-owning reference to an Env. It resolves until the host
// expires it during teardown and fails forever after.
//
// Background work holds a WeakRef instead of the Env itself so that host
// teardown never waits on, or races with, in-flight work.
type WeakRef struct {
	p atomic.Pointer[envBox]
}

type envBox struct {
	env Env
}

// NewWeakRef creates a live weak reference to env.
func NewWeakRef(env Env) *WeakRef {
	w := &WeakRef{}
	w.p.Store(&envBox{env: env})
	return w
}

// Upgrade returns the Env if the host is still alive.
func (w *WeakRef) Upgrade() (Env, bool) {
	if w == nil {
		return nil, false
	}
	b := w.p.Load()
	if b == nil {
		return nil, false
	}
	return b.env, true
}

// Expire drops the reference. Subsequent Upgrade calls fail.
func (w *WeakRef) Expire() {
	if w == nil {
		return
	}
	w.p.Store(nil)
}

// Expired reports whether Expire has been called.
func (w *WeakRef) Expired() bool {
	return w == nil || w.p.Load() == nil
}
