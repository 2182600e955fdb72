package client

import "go.uber.org/zap"

type Options struct {
	Logger *zap.Logger
}

type Option func(*Options)

func WithLogger(l *zap.Logger) Option { return func(o *Options) { o.Logger = l } }

// FetchPolicy decides how a query uses the cache.
type FetchPolicy int

const (
	// CacheFirst answers from the cache and fetches only on a miss.
	CacheFirst FetchPolicy = iota
	// NetworkOnly always fetches and writes the result to the cache.
	NetworkOnly
	// CacheOnly never fetches; a miss is ErrCacheMiss.
	CacheOnly
)

func (p FetchPolicy) String() string {
	switch p {
	case CacheFirst:
		return "cache-first"
	case NetworkOnly:
		return "network-only"
	case CacheOnly:
		return "cache-only"
	default:
		return "unknown"
	}
}

type queryOptions struct {
	policy FetchPolicy
}

type QueryOption func(*queryOptions)

func WithFetchPolicy(p FetchPolicy) QueryOption { return func(o *queryOptions) { o.policy = p } }
