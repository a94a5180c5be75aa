package http

import (
	"go.uber.org/zap"

	"github.com/wippyai/jsbridge/host"
	"github.com/wippyai/jsbridge/resource"
)

// DispatchFunc delivers one event for a handle. payload is nil for events
// that carry none.
type DispatchFunc func(ref *host.WeakRef, h resource.Handle, name EventName, payload any)

// Dispatch upgrades ref, looks up the callback registered under h and
// invokes it with (name[, payload]). It never fails: a dropped host, a
// removed resource and callback errors are logged and swallowed.
func Dispatch(ref *host.WeakRef, h resource.Handle, name EventName, payload any) {
	env, ok := ref.Upgrade()
	if !ok {
		Logger().Info("http_request exited because the host has been dropped",
			zap.Uint64("handle", uint64(h)),
			zap.String("event", string(name)))
		return
	}

	cb, ok := env.LookupResource(h)
	if !ok {
		Logger().Info("http_request exited because the resource has been dropped",
			zap.Uint64("handle", uint64(h)),
			zap.String("event", string(name)))
		return
	}

	var err error
	if payload == nil {
		err = env.InvokeCallback(cb, string(name))
	} else {
		err = env.InvokeCallback(cb, string(name), payload)
	}
	if err != nil {
		Logger().Error("failed to report http_request event",
			zap.Uint64("handle", uint64(h)),
			zap.String("event", string(name)),
			zap.Error(err))
	}
}
