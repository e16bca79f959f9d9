// Package client provides a fluent HTTP request pipeline built
// on [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithBaseURL("https://api.example.com"),
//		client.WithDefaultHeaders(map[string]string{"Authorization": "Bearer token"}),
//		client.WithTimeout(10 * time.Second),
//	)
//
// # Making Requests
//
// Each verb method returns a single-use request builder. Chain
// per-request overrides, then call [Request.Retrieve] to dispatch:
//
//	resolver := c.Get(ctx).
//		URI("/users/1").
//		Param("expand", "roles").
//		Retrieve()
//
// Retrieve does not block. The terminal resolver methods await the
// in-flight response and project it:
//
//	entity, err := client.ToEntity[User](resolver)   // decoded payload
//	void, err := resolver.ToVoid()                   // status metadata only
//	resp, err := resolver.ToResponse()               // raw *http.Response
//
// # Response Inspection
//
// The pipeline performs no status validation of its own: a 404 resolves
// exactly like a 200. Install an inspector at the client or resolver
// level to reject unwanted responses:
//
//	c, err := client.Build(client.WithHandler(client.ExpectStatus(http.StatusOK)))
//
// # Decoding
//
// Responses with a JSON content type decode into the entity's type
// parameter; [WithConverter] takes over the decoding when custom
// mapping or validation is needed, and [WithValidation] checks the
// decoded struct against its validate tags. Non-JSON bodies fall back
// to plain text and require a string-like payload type.
package client
