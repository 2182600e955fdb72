package events

import "time"

// OperationStart is emitted before a GraphQL operation is sent.
type OperationStart struct {
	OperationName string
	OperationType string
	// FromCache is true when the operation is answered without a round trip.
	FromCache bool
}

// OperationFinish is emitted after a GraphQL operation completes.
type OperationFinish struct {
	OperationName string
	OperationType string
	FromCache     bool
	// Err is the network or server error, if any.
	Err      error
	Duration time.Duration
}

// CacheUpdateFailed is emitted when a mutation succeeded remotely but its
// cache update did not apply.
type CacheUpdateFailed struct {
	OperationName string
	Err           error
}
