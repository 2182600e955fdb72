// Package link composes the outbound request pipeline: an ordered chain of
// middlewares ending in a terminal handler that delivers the operation.
package link

import (
	"context"
	"net/http"
)

// Operation is one GraphQL request on its way to the endpoint.
type Operation struct {
	Name      string
	Kind      string
	Query     string
	Variables map[string]any
	// Header holds extra HTTP headers for this operation. Middlewares add to
	// it; the terminal handler sends it.
	Header http.Header
}

// Response is a decoded GraphQL response. A response with Errors is a
// server-reported failure, not a transport failure.
type Response struct {
	Data       map[string]any `json:"data"`
	Errors     []GraphQLError `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// GraphQLError is an entry of a response's errors list.
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string { return e.Message }

type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Handler sends an operation and returns its response. An error means no
// usable response was received.
type Handler interface {
	Send(ctx context.Context, op *Operation) (*Response, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, op *Operation) (*Response, error)

func (f HandlerFunc) Send(ctx context.Context, op *Operation) (*Response, error) { return f(ctx, op) }

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler

// Chain returns terminal wrapped by mws. The first middleware sees the
// operation first and the response last.
func Chain(terminal Handler, mws ...Middleware) Handler {
	h := terminal
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
