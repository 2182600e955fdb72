package feed

import (
	"errors"

	"go.uber.org/zap"
)

// ErrMalformed is returned when a result does not have the shape the feed
// documents select.
var ErrMalformed = errors.New("feed: malformed result")

// Status is the observable state of a view.
type Status int

const (
	Pending Status = iota
	Failed
	Ready
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// State is what a view renders. Data is meaningful only when Ready; Err is
// set only when Failed. Network and server failures are not distinguished.
type State[T any] struct {
	Status Status
	Data   T
	Err    error
}

func ready[T any](data T) State[T] { return State[T]{Status: Ready, Data: data} }
func failed[T any](err error) State[T] { return State[T]{Status: Failed, Err: err} }

type Options struct {
	Logger *zap.Logger
	// GroupID selects the discussion shown by DiscussionList.
	GroupID string
	// Limit caps the posts shown by DiscussionList.
	Limit int
	// DisableCacheUpdate skips the listPosts projection after AddPost.
	DisableCacheUpdate bool
	// OnChange observes every status a view passes through.
	OnChange func(Status)
}

type Option func(*Options)

func WithLogger(l *zap.Logger) Option { return func(o *Options) { o.Logger = l } }
func WithGroupID(id string) Option { return func(o *Options) { o.GroupID = id } }
func WithLimit(n int) Option { return func(o *Options) { o.Limit = n } }
func WithoutCacheUpdate() Option { return func(o *Options) { o.DisableCacheUpdate = true } }
func WithOnChange(f func(Status)) Option { return func(o *Options) { o.OnChange = f } }

func defaultOptions() *Options {
	return &Options{
		Logger:  zap.NewNop(),
		GroupID: DefaultGroupID,
		Limit:   3,
	}
}

func buildOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	return o
}

func (o *Options) notify(s Status) {
	if o.OnChange != nil {
		o.OnChange(s)
	}
}
