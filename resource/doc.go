// Package resource provides the handle registry that backs script-side
// resources such as host-call callbacks.
//
// A host call allocates a handle synchronously and stores the script value
// it must later call back into. Background work only ever holds the handle
// and resolves it right before use; the script side may drop the entry at
// any moment, after which lookups simply fail.
//
// # Handle Registry
//
// The Registry maps 64-bit handles to Go values:
//
//	table := resource.NewRegistry()
//
//	// Insert a value, get a handle
//	handle := table.Insert(typeID, value)
//
//	// Retrieve value by handle
//	value, ok := table.Get(handle)
//
//	// Remove and get value
//	value, ok := table.Remove(handle)
//
// Handles are allocated from a monotonic counter and never reused, so a
// worker that outlives its resource can never deliver into a newer one.
//
// # Type Safety
//
// Each resource type gets a type ID:
//
//	const CallbackType resource.TypeID = 1
//
//	value, ok := table.GetTyped(handle, CallbackType)
//
// # Observers
//
// Register observers to track resource lifecycle events:
//
//	table.Subscribe(observer)
//
// Observers run synchronously on the goroutine that inserted or removed the
// resource, outside the registry's locks. Closing the registry drops every
// remaining entry and reports each drop.
package resource
