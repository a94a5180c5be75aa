package http

import (
	"context"
	"net/url"
)

// OutgoingRequest is a fully resolved request ready to send.
type OutgoingRequest struct {
	URL     *url.URL
	Method  string
	Headers Headers
	Body    []byte
}

// BodyStream yields response body chunks in arrival order. Next returns
// io.EOF after the last chunk.
type BodyStream interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Response pairs the response head with its body stream.
type Response struct {
	Body BodyStream
	Head ResponseHead
}

// Transport sends one request and returns once the response head is read.
// Cancelling ctx aborts both the send and any pending body reads.
type Transport interface {
	RoundTrip(ctx context.Context, req *OutgoingRequest) (*Response, error)
}
