// Package webclient exposes the fluent client builder.
package webclient

import (
	"github.com/malterweiss/webclient/client"
)

// New instantiates a new *client.Client with the provided options.
// If not specified, the default http.Client and http.Transport are used.
func New(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}
