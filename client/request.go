package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Param is a single query key/value pair.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered query parameter set. Insertion order is kept in
// the assembled URL, and repeated keys stay as separate pairs.
type Params []Param

// Request accumulates per-request overrides on top of the client
// defaults. Setters return the receiver for chaining.
//
// A Request is single-use: [Request.Retrieve] must be called at most
// once, and no setter may be called after it. This is a caller
// contract, not a guarded invariant.
type Request struct {
	ctx       context.Context
	c         *http.Client
	logger    *slog.Logger
	method    string
	baseURI   string
	path      string
	headers   map[string]string
	params    Params
	body      any
	timeout   time.Duration
	inspector Handler
}

// BaseURI replaces the base URL inherited from the client.
func (r *Request) BaseURI(uri string) *Request {
	r.baseURI = uri
	return r
}

// URI sets the request path. It is appended to the base URL verbatim;
// joining slashes between the two is the caller's responsibility.
func (r *Request) URI(path string) *Request {
	r.path = path
	return r
}

// Header merges a single header into the request set, overwriting any
// existing value for the same key.
func (r *Request) Header(key, value string) *Request {
	r.headers[http.CanonicalHeaderKey(key)] = value
	return r
}

// Headers bulk-merges the given headers into the request set. Later
// calls overwrite earlier values on key collision.
func (r *Request) Headers(headers map[string]string) *Request {
	for k, v := range headers {
		r.headers[http.CanonicalHeaderKey(k)] = v
	}
	return r
}

// Param appends one query parameter. Repeating a key keeps both pairs.
func (r *Request) Param(key, value string) *Request {
	r.params = append(r.params, Param{Key: key, Value: value})
	return r
}

// Params replaces the entire query parameter set.
func (r *Request) Params(params Params) *Request {
	r.params = params
	return r
}

// Body sets the request payload. It is JSON-encoded at dispatch time;
// a nil body attaches nothing.
func (r *Request) Body(body any) *Request {
	r.body = body
	return r
}

// Timeout overrides the client-level timeout for this request only.
// Zero disables the deadline.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retrieve dispatches the request and returns a [*Resolver] bound to
// the in-flight call. It does not block; terminal resolver methods
// await the pending response.
func (r *Request) Retrieve() *Resolver {
	res := &Resolver{
		done:      make(chan struct{}),
		inspector: r.inspector,
		logger:    r.logger,
	}

	go func() {
		defer close(res.done)
		res.resp, res.err = r.dispatch()
	}()

	return res
}

// dispatch assembles the final URI and issues the transport call
// exactly once; failures propagate without retry. When a timeout is
// set, a deferred abort fires after it elapses. The timer is stopped
// unconditionally once the call settles, so a response that arrived in
// time is never cancelled retroactively and no timer outlives the
// request.
func (r *Request) dispatch() (*http.Response, error) {
	var payload bytes.Buffer
	if r.body != nil {
		if err := json.NewEncoder(&payload).Encode(r.body); err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
	}

	ctx := r.ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		timer := time.AfterFunc(r.timeout, cancel)
		defer timer.Stop()
	}

	var body io.Reader = http.NoBody
	if r.body != nil {
		body = &payload
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.assembleURI(), body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exec http do: %w", err)
	}

	return resp, nil
}

// assembleURI concatenates base and path and appends the encoded query
// string. The concatenation is verbatim; duplicate or missing slashes
// are not normalized.
func (r *Request) assembleURI() string {
	target := r.path
	if r.baseURI != "" {
		target = r.baseURI + r.path
	}

	if len(r.params) == 0 {
		return target
	}

	var sb strings.Builder
	sb.WriteString(target)
	sb.WriteByte('?')
	for i, p := range r.params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}

	return sb.String()
}
