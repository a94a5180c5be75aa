// Package errors provides structured error types for the host-call bridge.
//
// Errors are categorized by Phase (where in a host call the error occurred)
// and Kind (error category). The Error type carries the field path for
// argument decoding failures, Go/JS type names, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
//		Path("request", "timeoutMs").
//		GoType("uint64").
//		JSType("string").
//		Detail("expected a number").
//		Build()
//
// Or use convenience constructors for the request lifecycle:
//
//	err := errors.URLParse(raw, cause)
//	err := errors.Transport(cause)
//	err := errors.Timeout()
//
// Script code never sees phases or kinds. At the bridge boundary every error
// collapses into the plain string returned by Message.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
