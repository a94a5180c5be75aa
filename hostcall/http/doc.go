// Package http implements the asynchronous httpRequest host call.
//
// A call validates its request object, stores the script callback in the
// host's resource table and returns the handle at once. A background
// worker then performs the request and reports progress by invoking the
// callback with event names:
//
//	head  { status, statusText, version, headers }
//	data  Uint8Array chunk, zero or more times
//	end   no payload
//	error message string
//
// Every successfully spawned request ends with exactly one of end or
// error, unless the host is gone or the handle was removed first. The
// request races a timer; a worker that loses the race is cancelled and
// emits nothing further.
//
// Default headers are injected after caller headers: Host, Content-Length
// and User-Agent, each only when no pair with exactly that name exists.
// The check is case-sensitive, so a lowercase "host" does not suppress
// the default Host pair.
package http
