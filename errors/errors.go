package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in a host call the error occurred
type Phase string

const (
	PhaseDecode    Phase = "decode"    // script arguments to Go
	PhaseParse     Phase = "parse"     // URL parsing
	PhaseBuild     Phase = "build"     // outgoing request construction
	PhaseTransport Phase = "transport" // connect, send, response head
	PhaseTimeout   Phase = "timeout"   // deadline race
	PhaseBody      Phase = "body"      // response body streaming
	PhaseDispatch  Phase = "dispatch"  // event delivery to script
	PhaseScript    Phase = "script"    // script evaluation
	PhaseHost      Phase = "host"      // host environment lifecycle
	PhaseConfig    Phase = "config"    // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch   Kind = "type_mismatch"
	KindFieldMissing   Kind = "field_missing"
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidURL     Kind = "invalid_url"
	KindInvalidRequest Kind = "invalid_request"
	KindConnection     Kind = "connection"
	KindDeadline       Kind = "deadline"
	KindRead           Kind = "read"
	KindException      Kind = "exception"
	KindClosed         Kind = "closed"
	KindNotFound       Kind = "not_found"
	KindUnsupported    Kind = "unsupported"
	KindOverflow       Kind = "overflow"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	JSType string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.JSType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.JSType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", JS type ")
			b.WriteString(e.JSType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("JS type ")
			b.WriteString(e.JSType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.JSType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Message returns the human-readable text handed to script code.
// It omits the phase and kind tags: scripts only ever see plain strings.
func (e *Error) Message() string {
	detail := e.Detail
	if detail == "" && len(e.Path) > 0 {
		detail = strings.Join(e.Path, ".")
	}
	if e.Cause == nil {
		if detail == "" {
			return string(e.Kind)
		}
		return detail
	}
	cause := e.Cause.Error()
	if inner, ok := e.Cause.(*Error); ok {
		cause = inner.Message()
	}
	if detail == "" {
		return cause
	}
	return detail + ": " + cause
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Message extracts the script-visible text from any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := err.(*Error); ok {
		return e.Message()
	}
	return err.Error()
}

// Sentinels for errors.Is checks.
var (
	ErrTimedOut   = &Error{Phase: PhaseTimeout, Kind: KindDeadline, Detail: "Timed out"}
	ErrHostClosed = &Error{Phase: PhaseHost, Kind: KindClosed, Detail: "host environment closed"}
)

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// JSType sets the script-side type name
func (b *Builder) JSType(t string) *Builder {
	b.err.JSType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Argument decoding constructors

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, jsType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		JSType: jsType,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		GoType: targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Request lifecycle constructors

// URLParse creates a URL parse error
func URLParse(raw string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidURL,
		Detail: fmt.Sprintf("Failed to parse url: %s", raw),
		Value:  raw,
		Cause:  cause,
	}
}

// RequestBuild creates a request construction error
func RequestBuild(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseBuild,
		Kind:   KindInvalidRequest,
		Detail: detail,
		Cause:  cause,
	}
}

// Transport creates a transport error
func Transport(cause error) *Error {
	return &Error{
		Phase: PhaseTransport,
		Kind:  KindConnection,
		Cause: cause,
	}
}

// Timeout creates a deadline error
func Timeout() *Error {
	return &Error{
		Phase:  PhaseTimeout,
		Kind:   KindDeadline,
		Detail: "Timed out",
	}
}

// BodyRead creates a response body read error
func BodyRead(cause error) *Error {
	return &Error{
		Phase:  PhaseBody,
		Kind:   KindRead,
		Detail: "Failed to read response body",
		Cause:  cause,
	}
}

// Host and script constructors

// HostClosed creates a host-closed error
func HostClosed(detail string) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindClosed,
		Detail: detail,
	}
}

// ScriptError wraps an exception raised by script code
func ScriptError(phase Phase, cause error) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindException,
		Cause: cause,
	}
}

// Config creates a configuration error
func Config(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
