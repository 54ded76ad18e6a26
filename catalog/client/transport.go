package client

import (
	"context"
	"net/url"
)

// Endpoint selects one of the base URLs of the catalog service.
type Endpoint string

const (
	// EndpointBooks is the base for listing and single-record CRUD calls.
	EndpointBooks Endpoint = "books"
	// EndpointActions is the base for lifecycle action calls.
	EndpointActions Endpoint = "actions"
	// EndpointAuth is the base for the login call.
	EndpointAuth Endpoint = "auth"
)

// Request is one call to the catalog service, independent of the wire protocol.
type Request struct {
	Method   string
	Endpoint Endpoint
	Path     string // relative to the endpoint base, e.g. "/7" or "/isbn/9780441013593"
	Query    url.Values
	Body     []byte
}

// Response is the raw answer of the catalog service.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports whether the status code is 2xx.
func (r Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs requests against the catalog service.
// It returns an error only when no response was received at all (network failure, timeout, cancellation);
// any response, including non-2xx ones, is returned as a Response.
// Implementations attach the bearer token of the current identity when one is available.
type Transport interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) (Response, error)

// Do calls f(ctx, req).
func (f TransportFunc) Do(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
