package link

import (
	"net/http"
	"time"
)

// Options configures the HTTP terminal.
//
// Defaults:
// - Client:       http.DefaultClient
// - Timeout:      10s (used only if the incoming context has no deadline)
// - MaxBodyBytes: 8 MiB
//
// All options are safe to leave zero-valued to use defaults.
type Options struct {
	Client       *http.Client
	Timeout      time.Duration
	MaxBodyBytes int64
}

// Option mutates Options
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Client:       http.DefaultClient,
		Timeout:      10 * time.Second,
		MaxBodyBytes: 8 << 20,
	}
}

func WithHTTPClient(c *http.Client) Option { return func(o *Options) { o.Client = c } }
func WithTimeout(d time.Duration) Option   { return func(o *Options) { o.Timeout = d } }
func WithMaxBodyBytes(n int64) Option      { return func(o *Options) { o.MaxBodyBytes = n } }
