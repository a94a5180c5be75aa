package http

import (
	"math"
	"time"

	"github.com/wippyai/jsbridge/hostcall/args"
)

const (
	DefaultMethod    = "GET"
	DefaultTimeoutMs = uint64(30_000)
	DefaultUserAgent = "PhatContract/0.1.0"
)

// Request is the decoded httpRequest argument. It is consumed by exactly
// one worker run.
type Request struct {
	TextBody  *string
	URL       string
	Method    string
	Headers   Headers
	Body      []byte
	TimeoutMs uint64
}

func requestSchema(defaultTimeoutMs uint64) args.Schema {
	return args.Schema{
		{Name: "url", Type: args.String, Required: true},
		{Name: "method", Type: args.String, Default: DefaultMethod},
		{Name: "headers", Type: args.Any},
		{Name: "body", Type: args.Bytes, Default: []byte{}},
		{Name: "textBody", Type: args.String},
		{Name: "timeoutMs", Type: args.Uint64, Default: defaultTimeoutMs},
	}
}

// DecodeRequest decodes an exported script object with the standard
// defaults.
func DecodeRequest(raw any) (*Request, error) {
	return decodeRequest(requestSchema(DefaultTimeoutMs), raw)
}

func decodeRequest(schema args.Schema, raw any) (*Request, error) {
	v, err := schema.Decode("request", raw)
	if err != nil {
		return nil, err
	}

	req := &Request{}
	req.URL, _ = v.String("url")
	req.Method, _ = v.String("method")
	req.Body, _ = v.Bytes("body")
	req.TimeoutMs, _ = v.Uint64("timeoutMs")
	if text, ok := v.String("textBody"); ok {
		req.TextBody = &text
	}
	if rawHeaders, ok := v.Any("headers"); ok {
		in, err := DecodeHeaders([]string{"request", "headers"}, rawHeaders)
		if err != nil {
			return nil, err
		}
		req.Headers = in.Canonical()
	}
	return req, nil
}

// ResolvedBody returns the bytes to transmit: TextBody as UTF-8 when
// present, Body otherwise.
func (r *Request) ResolvedBody() []byte {
	if r.TextBody != nil {
		return []byte(*r.TextBody)
	}
	return r.Body
}

// Timeout returns the request deadline.
func (r *Request) Timeout() time.Duration {
	return MillisDuration(r.TimeoutMs)
}

// MillisDuration converts a millisecond count to a duration, saturating at
// the largest representable duration instead of wrapping negative.
func MillisDuration(ms uint64) time.Duration {
	if ms > uint64(math.MaxInt64/int64(time.Millisecond)) {
		return math.MaxInt64
	}
	return time.Duration(ms) * time.Millisecond
}
