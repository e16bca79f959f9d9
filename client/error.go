package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
)

// maxErrBodySize caps the amount of response body read when
// building an error for a rejected status code. This prevents
// unbounded memory usage when a large response arrives with a
// wrong status.
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrTextBodyUnsupported is returned by [ToEntity] when a non-JSON
	// body cannot populate the requested payload type.
	ErrTextBodyUnsupported = errors.New("text body cannot populate target type")
)

// UnexpectedStatusError is returned by the [ExpectStatus] inspector
// when the response status code is not in the accepted set.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

// ExpectStatus returns a [Handler] rejecting any response whose status
// code is not in codes. The pipeline performs no status validation of
// its own; install this inspector to turn unwanted statuses into
// errors. On rejection a bounded prefix of the body is read for the
// error message, consuming it.
func ExpectStatus(codes ...int) Handler {
	return func(resp *http.Response) error {
		if slices.Contains(codes, resp.StatusCode) {
			return nil
		}

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}

		statusErr := ErrUnexpectedStatusCode
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			statusErr = errors.Join(ErrUnexpectedStatusCode, ErrAuthFailure)
		}

		return &UnexpectedStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(b),
			Err:        statusErr,
		}
	}
}
