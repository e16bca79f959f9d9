// Package client exposes the fluent request pipeline for
// executing http requests against a remote server.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/malterweiss/webclient/client/throttle"
)

// defaultTimeout bounds a request when no timeout is configured at
// either the client or the request level.
const defaultTimeout = 10 * time.Second

// Handler is a caller-supplied inspector invoked with the raw response
// before any terminal projection completes. A non-nil error aborts the
// projection and surfaces to the caller. Typically used to reject
// unwanted status codes; see [ExpectStatus].
type Handler func(resp *http.Response) error

// Client wraps the std-lib *http.Client with shared request defaults:
// base URL, default headers, timeout, and an optional response
// inspector. It produces a fresh [*Request] per HTTP verb and holds no
// per-request state, so it is safe for concurrent use.
type Client struct {
	c         *http.Client
	baseURL   string
	headers   map[string]string
	timeout   time.Duration
	inspector Handler
	logger    *slog.Logger
}

// Build creates an immutable Client from the given options. Each call
// configures a fresh *http.Client unless one is injected via
// [WithClient], so built clients stay independent of each other and of
// http.DefaultClient.
func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		c:       &http.Client{},
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.client != nil {
		client.c = opts.client
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.timeout != nil {
		client.timeout = *opts.timeout
	}

	client.baseURL = opts.baseURL
	client.inspector = opts.inspector

	client.headers = make(map[string]string, len(opts.headers))
	for k, v := range opts.headers {
		client.headers[http.CanonicalHeaderKey(k)] = v
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.requestID {
		transport = requestID{base: transport}
	}
	if opts.tracer != nil {
		transport = traced{tracer: opts.tracer, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	return client, nil
}

// Get returns a request builder for a GET request.
func (c *Client) Get(ctx context.Context) *Request {
	return c.newRequest(ctx, http.MethodGet)
}

// Post returns a request builder for a POST request with
// Content-Type defaulting to application/json.
func (c *Client) Post(ctx context.Context) *Request {
	return c.newRequest(ctx, http.MethodPost)
}

// Put returns a request builder for a PUT request with
// Content-Type defaulting to application/json.
func (c *Client) Put(ctx context.Context) *Request {
	return c.newRequest(ctx, http.MethodPut)
}

// Patch returns a request builder for a PATCH request with
// Content-Type defaulting to application/json.
func (c *Client) Patch(ctx context.Context) *Request {
	return c.newRequest(ctx, http.MethodPatch)
}

// Delete returns a request builder for a DELETE request.
func (c *Client) Delete(ctx context.Context) *Request {
	return c.newRequest(ctx, http.MethodDelete)
}

// newRequest seeds a single-use request builder with the client
// defaults. The verb-level Content-Type is the weakest layer: client
// default headers override it, and per-request headers override both.
func (c *Client) newRequest(ctx context.Context, method string) *Request {
	headers := make(map[string]string, len(c.headers)+1)
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		headers["Content-Type"] = "application/json"
	}
	for k, v := range c.headers {
		headers[k] = v
	}

	return &Request{
		ctx:       ctx,
		c:         c.c,
		logger:    c.logger,
		method:    method,
		baseURI:   c.baseURL,
		headers:   headers,
		timeout:   c.timeout,
		inspector: c.inspector,
	}
}
