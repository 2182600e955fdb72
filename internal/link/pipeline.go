package link

import (
	"net/http"

	"go.uber.org/zap"
)

// NewPipeline assembles the standard chain: error logging, static headers,
// request id, then HTTP delivery to endpoint.
func NewPipeline(endpoint string, headers http.Header, logger *zap.Logger, opts ...Option) (Handler, error) {
	terminal, err := NewHTTP(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	return Chain(terminal,
		ErrorLogging(logger),
		Headers(headers),
		RequestID(),
	), nil
}
