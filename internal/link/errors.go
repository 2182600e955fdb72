package link

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEndpoint indicates an HTTP terminal without an endpoint URL.
	ErrNoEndpoint = errors.New("link: no endpoint configured")
)

// NetworkError is a transport failure: the request could not be sent, the
// endpoint answered with a non-2xx status, or the body was not a GraphQL
// response.
type NetworkError struct {
	StatusCode int // 0 when no response was received
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	var b strings.Builder
	b.WriteString("network error")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError wraps the errors list of a GraphQL response.
type ServerError struct {
	Errors []GraphQLError
}

func (e *ServerError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return "graphql error: " + strings.Join(msgs, "; ")
}
