package runtime

import (
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/jsbridge/host"
	httpcall "github.com/wippyai/jsbridge/hostcall/http"
)

// Option configures a Runtime.
type Option func(*options)

type options struct {
	transport      httpcall.Transport
	hosts          []host.Namespace
	logger         *zap.Logger
	tracer         Tracer
	userAgent      string
	args           []string
	transportCfg   httpcall.TransportConfig
	defaultTimeout time.Duration
}

// WithUserAgent sets the User-Agent injected into outgoing requests.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithTransport replaces the HTTP transport.
func WithTransport(t httpcall.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithTransportConfig tunes the default net/http transport. Ignored when
// WithTransport is given.
func WithTransportConfig(cfg httpcall.TransportConfig) Option {
	return func(o *options) { o.transportCfg = cfg }
}

// WithLogger sets the instance logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDefaultTimeout sets the timeout for requests that omit timeoutMs.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) { o.defaultTimeout = d }
}

// WithArgs sets the scriptArgs global.
func WithArgs(args ...string) Option {
	return func(o *options) { o.args = args }
}

// WithTracer receives handle lifecycle and event traces.
func WithTracer(t Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithHost installs an additional host namespace. Functions in a namespace
// that is already registered are merged into it.
func WithHost(h host.Namespace) Option {
	return func(o *options) { o.hosts = append(o.hosts, h) }
}
