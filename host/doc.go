// Package host defines the contract between the host-call bridge and the
// embedding script runtime.
//
// The bridge never touches the script engine directly. It spawns work
// through a Spawner, keeps only a WeakRef to the environment, and on every
// delivery upgrades the reference, resolves the handle and invokes the
// callback:
//
//	env, ok := ref.Upgrade()
//	if !ok {
//	    return // host torn down
//	}
//	cb, ok := env.LookupResource(handle)
//	if !ok {
//	    return // script dropped the resource
//	}
//	_ = env.InvokeCallback(cb, "data", chunk)
//
// The strong Env is used synchronously and dropped; it is never held across
// a suspension point.
package host
