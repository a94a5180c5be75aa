// Package runtime hosts JavaScript on a goja event loop and implements the
// host environment used by asynchronous host calls.
//
// # Quick Start
//
//	rt, err := runtime.New(runtime.WithArgs("a", "b"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	out, err := rt.Run(ctx, runtime.Script{Name: "main.js", Source: src})
//	fmt.Println(out)
//
// # Host Functions
//
// Scripts see a Host object with:
//
//	Host.httpRequest(request, callback) -> handle
//	Host.closeHandle(handle) -> bool
//
// httpRequest is also available as a global. The callback is called as
// callback(event, payload) with event one of head, data, end or error.
//
// # Threading
//
// All script code runs on the loop goroutine. Background workers reach
// the runtime only through a weak reference and schedule callbacks onto
// the loop. After Close every later delivery is a no-op.
//
// # Output
//
// Run waits for all background tasks, then returns the scriptOutput
// global, or the last expression value when scriptOutput is undefined.
package runtime
