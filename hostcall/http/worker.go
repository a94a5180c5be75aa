package http

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/jsbridge/errors"
)

// Worker performs one request and streams its events.
type Worker struct {
	transport Transport
	userAgent string
}

// NewWorker creates a worker sending through t. An empty userAgent uses
// DefaultUserAgent.
func NewWorker(t Transport, userAgent string) *Worker {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Worker{transport: t, userAgent: userAgent}
}

// Execute sends req and reports head, data and end through s. It returns
// an error without emitting anything for the failure; the caller owns the
// terminal error event.
func (w *Worker) Execute(ctx context.Context, s *Stream, req *Request) error {
	u, err := parseURL(req.URL)
	if err != nil {
		return err
	}
	body := req.ResolvedBody()

	out := &OutgoingRequest{
		URL:     u,
		Method:  req.Method,
		Headers: w.withDefaults(req.Headers, u, body),
		Body:    body,
	}

	s.MarkSent(ctx)
	resp, err := w.transport.RoundTrip(ctx, out)
	if err != nil {
		if _, ok := err.(*errors.Error); !ok {
			err = errors.Transport(err)
		}
		return err
	}
	defer resp.Body.Close()

	s.Emit(ctx, EventHead, resp.Head)

	chunks := 0
	for {
		chunk, err := resp.Body.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.BodyRead(err)
		}
		chunks++
		s.Emit(ctx, EventData, chunk)
	}

	Logger().Debug("request finished",
		zap.Uint64("handle", uint64(s.Handle())),
		zap.Uint16("status", resp.Head.Status),
		zap.Int("chunks", chunks))

	s.End(ctx)
	return nil
}

// withDefaults appends Host, Content-Length and User-Agent unless a pair
// with exactly that name is already present.
func (w *Worker) withDefaults(h Headers, u *url.URL, body []byte) Headers {
	if !h.Has("Host") {
		h = h.Append("Host", u.Hostname())
	}
	if !h.Has("Content-Length") {
		h = h.Append("Content-Length", strconv.Itoa(len(body)))
	}
	if !h.Has("User-Agent") {
		h = h.Append("User-Agent", w.userAgent)
	}
	return h
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.URLParse(raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.URLParse(raw, fmt.Errorf("missing scheme or host"))
	}
	return u, nil
}
