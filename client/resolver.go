package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Resolver owns the pending response produced by [Request.Retrieve].
// The transport call executes exactly once; every terminal method
// awaits the same memoized result. Each terminal call re-invokes the
// inspector, so an inspector with side effects runs once per call.
//
// The response body is consumable at most once across terminal calls:
// [ToEntity] and [Resolver.ToVoid] consume it, [Resolver.ToResponse]
// hands it to the caller. A Resolver must not be shared across
// goroutines.
type Resolver struct {
	done      chan struct{}
	resp      *http.Response
	err       error
	inspector Handler
	logger    *slog.Logger
}

// Handler sets or overrides the response inspector for this response
// only. It must be called before any terminal method.
func (r *Resolver) Handler(fn Handler) *Resolver {
	r.inspector = fn
	return r
}

// Entity is the decoded response wrapper carrying status metadata plus
// a typed payload.
type Entity[T any] struct {
	Status     int
	StatusText string
	Headers    http.Header
	Redirected bool
	Data       T
}

// Void carries the status metadata of a response whose body is left unread.
type Void struct {
	Status     int
	StatusText string
	Headers    http.Header
	Redirected bool
}

// ToVoid awaits the pending response and returns its status metadata.
// The body is discarded. Status codes pass through as-is: a 404
// resolves exactly like a 200 unless the inspector rejects it.
func (r *Resolver) ToVoid() (*Void, error) {
	resp, err := r.await()
	if err != nil {
		return nil, err
	}
	defer r.closeBody(resp)

	return &Void{
		Status:     resp.StatusCode,
		StatusText: resp.Status,
		Headers:    resp.Header,
		Redirected: redirected(resp),
	}, nil
}

// ToResponse awaits the pending response and returns it untouched.
// The caller owns the body and must close it.
func (r *Resolver) ToResponse() (*http.Response, error) {
	return r.await()
}

// EntityOption is a functional option for a single [ToEntity] projection.
type EntityOption[T any] func(*entityOpts[T]) error

type entityOpts[T any] struct {
	converter  func(raw json.RawMessage) (T, error)
	useJSONNum bool
	validate   bool
}

// WithConverter replaces the default JSON decoding: the raw payload is
// handed to fn, and its result becomes the entity data. It applies
// only to responses with a JSON content type.
func WithConverter[T any](fn func(raw json.RawMessage) (T, error)) EntityOption[T] {
	return func(opts *entityOpts[T]) error {
		if fn == nil {
			return errors.New("converter must not be nil")
		}
		opts.converter = fn
		return nil
	}
}

// WithJSONNumber tells the JSON decoder to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumber[T any]() EntityOption[T] {
	return func(opts *entityOpts[T]) error {
		opts.useJSONNum = true
		return nil
	}
}

// WithValidation checks the decoded payload against its validate
// struct tags before the entity is returned.
func WithValidation[T any]() EntityOption[T] {
	return func(opts *entityOpts[T]) error {
		opts.validate = true
		return nil
	}
}

// ToEntity awaits the pending response and decodes its body into an
// [Entity]. A Content-Type containing "application/json" selects JSON
// decoding into T, or the converter when one is set. Any other content
// type falls back to handing the body over as text, which requires T
// to be string, []byte, json.RawMessage, or any; other types fail with
// [ErrTextBodyUnsupported].
//
// ToEntity is a package-level function rather than a method so the
// payload type can be a type parameter.
func ToEntity[T any](r *Resolver, optFns ...EntityOption[T]) (*Entity[T], error) {
	var opts entityOpts[T]
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying entity option: %w", err)
		}
	}

	resp, err := r.await()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			r.logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	entity := &Entity[T]{
		Status:     resp.StatusCode,
		StatusText: resp.Status,
		Headers:    resp.Header,
		Redirected: redirected(resp),
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(&opts, body, &entity.Data); err != nil {
			return nil, err
		}
	} else {
		if err := assignText(&entity.Data, body); err != nil {
			return nil, err
		}
	}

	if opts.validate {
		if err := Validate(entity.Data); err != nil {
			return nil, fmt.Errorf("validating body: %w", err)
		}
	}

	return entity, nil
}

// decodeJSON populates dst from a JSON body, delegating to the
// converter when one is configured.
func decodeJSON[T any](opts *entityOpts[T], body []byte, dst *T) error {
	if opts.converter != nil {
		data, err := opts.converter(json.RawMessage(body))
		if err != nil {
			return fmt.Errorf("converting body: %w", err)
		}
		*dst = data

		return nil
	}

	d := json.NewDecoder(bytes.NewReader(body))
	if opts.useJSONNum {
		d.UseNumber()
	}
	if err := d.Decode(dst); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}

	return nil
}

// assignText is the best-effort fallback for non-JSON responses: the
// body is handed over as text without any schema check. Types beyond
// the string-like set cannot hold it.
func assignText[T any](dst *T, body []byte) error {
	switch p := any(dst).(type) {
	case *string:
		*p = string(body)
	case *[]byte:
		*p = body
	case *json.RawMessage:
		*p = body
	case *any:
		*p = string(body)
	default:
		return fmt.Errorf("%w: %T", ErrTextBodyUnsupported, *dst)
	}

	return nil
}

// await blocks until the pending response settles, then runs the
// inspector. On an inspector error the projection aborts and the body
// is closed so the connection is not leaked.
func (r *Resolver) await() (*http.Response, error) {
	<-r.done
	if r.err != nil {
		return nil, r.err
	}

	if r.inspector != nil {
		if err := r.inspector(r.resp); err != nil {
			r.closeBody(r.resp)
			return nil, err
		}
	}

	return r.resp, nil
}

// closeBody drains and closes the response body so the underlying
// connection can be reused. A body already consumed by an earlier
// terminal call is not worth a log line.
func (r *Resolver) closeBody(resp *http.Response) {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil && !errors.Is(err, http.ErrBodyReadAfterClose) {
		r.logger.Error("failed to discard unused body", "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		r.logger.Error("failed to close response body", "error", err)
	}
}

func redirected(resp *http.Response) bool {
	return resp.Request != nil && resp.Request.Response != nil
}
