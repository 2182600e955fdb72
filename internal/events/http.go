package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted before an HTTP request is sent to the endpoint.
// Context carries the operation's request id.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the HTTP exchange completes. Status is 0 when
// no response was received.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Err      error
	Duration time.Duration
}
