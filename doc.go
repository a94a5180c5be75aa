// Package jsbridge lets JavaScript running on an embedded engine issue
// HTTP requests that complete asynchronously.
//
// A host call returns a handle at once and reports progress later by
// invoking a script callback from a background worker. Workers hold only a
// weak reference to the host, so a host torn down mid-request is never
// touched again.
//
// # Architecture Overview
//
//	jsbridge/
//	├── runtime/         goja event loop host: Spawn, callback invocation, Run
//	├── hostcall/http/   httpRequest: worker, timeout racer, event dispatcher
//	├── hostcall/args/   declarative decoding of script argument objects
//	├── host/            host environment contract and weak references
//	├── resource/        handle table for registered callbacks
//	├── config/          YAML settings for the CLI
//	├── errors/          structured error types
//	└── cmd/jsrun/       command-line driver
//
// # Quick Start
//
//	rt, err := runtime.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	out, err := rt.Run(ctx, runtime.Script{Name: "main.js", Source: `
//	    httpRequest({url: "https://example.com"}, function (ev, data) {
//	        if (ev === "head") scriptOutput = data.status;
//	    });
//	`})
//
// # Events
//
// The callback receives (event, payload):
//
//	head   {status, statusText, version, headers: [[name, value], ...]}
//	data   Uint8Array
//	end    (no payload)
//	error  message string
//
// Exactly one of end or error ends every request whose host and handle
// are still alive.
package jsbridge
