package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/http2"

	"github.com/wippyai/jsbridge/errors"
)

const defaultChunkSize = 32 * 1024

// TransportConfig tunes the net/http backed transport.
type TransportConfig struct {
	MaxIdleConns       int
	ChunkSize          int
	HTTP2              bool
	InsecureSkipVerify bool
}

// NetTransport sends requests through net/http.
type NetTransport struct {
	client    *http.Client
	chunkSize int
}

// NewNetTransport creates a transport from cfg. With HTTP2 set the
// underlying transport negotiates h2 over TLS.
func NewNetTransport(cfg TransportConfig) (*NetTransport, error) {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		// Scripts see the body and headers exactly as sent.
		DisableCompression: true,
	}
	if cfg.MaxIdleConns > 0 {
		base.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	if cfg.HTTP2 {
		if _, err := http2.ConfigureTransports(base); err != nil {
			return nil, errors.Config("failed to enable http2", err)
		}
	} else {
		base.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	}

	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	return &NetTransport{
		client: &http.Client{
			Transport: base,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		chunkSize: chunk,
	}, nil
}

// NewNetTransportWithClient wraps an existing client. Redirect policy and
// transparent decompression are left to the client.
func NewNetTransportWithClient(c *http.Client) *NetTransport {
	return &NetTransport{client: c, chunkSize: defaultChunkSize}
}

// RoundTrip implements Transport.
func (t *NetTransport) RoundTrip(ctx context.Context, out *OutgoingRequest) (*Response, error) {
	req, err := t.build(ctx, out)
	if err != nil {
		return nil, err
	}

	Logger().Debug("sending request",
		zap.String("method", out.Method),
		zap.String("url", out.URL.String()),
		zap.Int("headers", out.Headers.Len()),
		zap.Int("body", len(out.Body)))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Transport(err)
	}

	return &Response{
		Head: ResponseHead{
			Status:     uint16(resp.StatusCode),
			StatusText: http.StatusText(resp.StatusCode),
			Version:    resp.Proto,
			Headers:    responseHeaders(resp.Header),
		},
		Body: &netBody{rc: resp.Body, buf: make([]byte, t.chunkSize)},
	}, nil
}

func (t *NetTransport) build(ctx context.Context, out *OutgoingRequest) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, out.Method, out.URL.String(), bytes.NewReader(out.Body))
	if err != nil {
		return nil, errors.RequestBuild("Failed to build request", err)
	}
	if len(out.Body) == 0 {
		req.Body = http.NoBody
		req.GetBody = nil
	}
	req.ContentLength = int64(len(out.Body))

	var hostSet, lengthSet bool
	for _, h := range out.Headers.pairs {
		if !httpguts.ValidHeaderFieldName(h.Name) {
			return nil, errors.RequestBuild("Failed to build request", fmt.Errorf("invalid header name %q", h.Name))
		}
		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return nil, errors.RequestBuild("Failed to build request", fmt.Errorf("invalid value for header %q", h.Name))
		}

		switch {
		case strings.EqualFold(h.Name, "Host"):
			// net/http takes the host line from req.Host only.
			if !hostSet {
				req.Host = h.Value
				hostSet = true
			}
		case strings.EqualFold(h.Name, "Content-Length"):
			if lengthSet {
				continue
			}
			n, err := strconv.ParseInt(h.Value, 10, 64)
			if err != nil || n < 0 {
				return nil, errors.RequestBuild("Failed to build request", fmt.Errorf("invalid content-length %q", h.Value))
			}
			req.ContentLength = n
			lengthSet = true
		default:
			req.Header[h.Name] = append(req.Header[h.Name], h.Value)
		}
	}
	return req, nil
}

// responseHeaders flattens h into lowercase name pairs sorted by name.
// Values of one name keep their received order.
func responseHeaders(h http.Header) Headers {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})

	var pairs []Header
	for _, k := range keys {
		name := strings.ToLower(k)
		for _, v := range h[k] {
			pairs = append(pairs, Header{Name: name, Value: v})
		}
	}
	return Headers{pairs: pairs}
}

// netBody turns each successful Read into one chunk.
type netBody struct {
	rc      io.ReadCloser
	pending error
	buf     []byte
}

func (b *netBody) Next(ctx context.Context) ([]byte, error) {
	if b.pending != nil {
		return nil, b.pending
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for {
		n, err := b.rc.Read(b.buf)
		if n > 0 {
			b.pending = err
			return bytes.Clone(b.buf[:n]), nil
		}
		if err != nil {
			b.pending = err
			return nil, err
		}
	}
}

func (b *netBody) Close() error {
	return b.rc.Close()
}
