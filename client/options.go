package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/malterweiss/webclient/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error

type options struct {
	baseURL           string
	headers           map[string]string
	timeout           *time.Duration
	inspector         Handler
	client            *http.Client
	rt                http.RoundTripper
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	requestID         bool
	tracer            trace.Tracer
	logger            *slog.Logger
}

// WithBaseURL sets the base URL every request issued from the [Client]
// is resolved against. The format is not validated; a malformed URL
// surfaces only when the transport call is made.
func WithBaseURL(baseURL string) Option {
	return func(c *options) error {
		c.baseURL = baseURL
		return nil
	}
}

// WithDefaultHeaders sets headers applied to every outgoing request.
// Per-request headers override them on key collision.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *options) error {
		c.headers = headers
		return nil
	}
}

// WithTimeout sets the default per-request timeout, overridable per
// request via [Request.Timeout]. Ten seconds when unset; zero disables
// the deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithHandler installs the default response inspector. It runs against
// the raw response before any terminal projection completes, once per
// terminal call; an error from it aborts the projection.
func WithHandler(fn Handler) Option {
	return func(c *options) error {
		if fn == nil {
			return errors.New("handler must not be nil")
		}
		c.inspector = fn
		return nil
	}
}

// WithClient replaces the default [http.Client] used by the [Client].
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithRequestID stamps every outgoing request with a generated
// X-Request-Id header unless the request already carries one.
func WithRequestID() Option {
	return func(c *options) error {
		c.requestID = true
		return nil
	}
}

// WithTracer starts a span per outbound request on the given tracer
// and propagates the trace context through the request headers.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// requestID is an http.RoundTripper stamping outgoing requests with a
// fresh uuid. A caller-set X-Request-Id wins.
type requestID struct {
	base http.RoundTripper
}

func (rid requestID) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("X-Request-Id") != "" {
		return rid.base.RoundTrip(r)
	}

	cpy := r.Clone(r.Context())
	cpy.Header.Set("X-Request-Id", uuid.New().String())
	return rid.base.RoundTrip(cpy)
}
