// Package client runs GraphQL operations through a link pipeline against a
// shared normalized cache.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	cache "github.com/hanpama/groupfeed/internal/cache"
	eventbus "github.com/hanpama/groupfeed/internal/eventbus"
	events "github.com/hanpama/groupfeed/internal/events"
	language "github.com/hanpama/groupfeed/internal/language"
	link "github.com/hanpama/groupfeed/internal/link"
	reqid "github.com/hanpama/groupfeed/internal/reqid"
)

var (
	ErrCacheMiss   = errors.New("client: query result not cached")
	ErrCacheUpdate = errors.New("client: cache update failed")
	ErrNotQuery    = errors.New("client: document is not a query")
	ErrNotMutation = errors.New("client: document is not a mutation")
)

// UpdateFunc projects a completed mutation into cached queries.
type UpdateFunc func(c *cache.Cache, data map[string]any) error

// Result is the data of a completed operation.
type Result struct {
	Data      map[string]any
	FromCache bool
}

// Client is safe for concurrent use. All views of a process should share
// one Client so that they share one cache.
type Client struct {
	cache  *cache.Cache
	link   link.Handler
	logger *zap.Logger

	inflight singleflight.Group
}

func New(c *cache.Cache, h link.Handler, opts ...Option) *Client {
	o := Options{}
	for _, f := range opts {
		f(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Client{cache: c, link: h, logger: o.Logger}
}

// Cache returns the shared cache.
func (c *Client) Cache() *cache.Cache { return c.cache }

// Query resolves doc for vars according to the fetch policy (CacheFirst by
// default). Identical queries in flight share a single request.
func (c *Client) Query(ctx context.Context, doc *language.Document, vars map[string]any, opts ...QueryOption) (*Result, error) {
	if doc.Kind() != language.Query {
		return nil, ErrNotQuery
	}
	qo := queryOptions{}
	for _, f := range opts {
		f(&qo)
	}
	doc = c.cache.Transform(doc)
	vars = doc.Variables(vars)

	if qo.policy != NetworkOnly {
		if data, ok := c.cache.ReadQuery(doc, vars); ok {
			ctx, _ = reqid.Ensure(ctx)
			eventbus.Publish(ctx, events.OperationStart{OperationName: doc.Name(), OperationType: string(doc.Kind()), FromCache: true})
			eventbus.Publish(ctx, events.OperationFinish{OperationName: doc.Name(), OperationType: string(doc.Kind()), FromCache: true})
			return &Result{Data: data, FromCache: true}, nil
		}
		if qo.policy == CacheOnly {
			return nil, zerr.With(ErrCacheMiss, "operation", doc.Name())
		}
	}

	// The shared fetch outlives the caller that started it; each caller
	// stops waiting when its own context is done.
	key := dedupeKey(doc, vars)
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(key, func() (any, error) {
		return c.fetch(fetchCtx, doc, vars)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	data := res.Val.(map[string]any)
	if res.Shared {
		c.logger.Debug("shared in-flight query", zap.String("operation", doc.Name()))
		data = cache.Clone(data)
	}
	return &Result{Data: data}, nil
}

func (c *Client) fetch(ctx context.Context, doc *language.Document, vars map[string]any) (map[string]any, error) {
	data, err := c.send(ctx, doc, vars)
	if err != nil {
		return nil, err
	}
	if err := c.cache.WriteQuery(doc, vars, data); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "write query result"), "operation", doc.Name())
	}
	if cached, ok := c.cache.ReadQuery(doc, vars); ok {
		return cached, nil
	}
	// fields the server did not return cannot be read back
	c.logger.Warn("query result incomplete", zap.String("operation", doc.Name()))
	return data, nil
}

// Mutate sends doc, merges its result into the cache and then runs update.
// The remote effect is not undone when the cache write or update fails: the
// result is returned together with an error wrapping ErrCacheUpdate.
func (c *Client) Mutate(ctx context.Context, doc *language.Document, vars map[string]any, update UpdateFunc) (*Result, error) {
	if doc.Kind() != language.Mutation {
		return nil, ErrNotMutation
	}
	doc = c.cache.Transform(doc)
	vars = doc.Variables(vars)
	ctx, _ = reqid.Ensure(ctx)

	data, err := c.send(ctx, doc, vars)
	if err != nil {
		return nil, err
	}
	res := &Result{Data: data}

	if err := c.cache.WriteQuery(doc, vars, data); err != nil {
		return res, c.updateFailed(ctx, doc, err)
	}
	if update != nil {
		if err := update(c.cache, data); err != nil {
			return res, c.updateFailed(ctx, doc, err)
		}
	}
	return res, nil
}

func (c *Client) updateFailed(ctx context.Context, doc *language.Document, err error) error {
	c.logger.Error("cache update failed", zap.String("operation", doc.Name()), zap.Error(err))
	eventbus.Publish(ctx, events.CacheUpdateFailed{OperationName: doc.Name(), Err: err})
	return zerr.With(errors.Join(ErrCacheUpdate, err), "operation", doc.Name())
}

// send runs one operation through the link and turns a response carrying
// errors into a *link.ServerError.
func (c *Client) send(ctx context.Context, doc *language.Document, vars map[string]any) (map[string]any, error) {
	ctx, _ = reqid.Ensure(ctx)
	start := time.Now()
	op := &link.Operation{
		Name:      doc.Name(),
		Kind:      string(doc.Kind()),
		Query:     doc.Source(),
		Variables: vars,
	}
	eventbus.Publish(ctx, events.OperationStart{OperationName: op.Name, OperationType: op.Kind})

	res, err := c.link.Send(ctx, op)
	if err == nil && len(res.Errors) > 0 {
		err = &link.ServerError{Errors: res.Errors}
	}
	eventbus.Publish(ctx, events.OperationFinish{
		OperationName: op.Name,
		OperationType: op.Kind,
		Err:           err,
		Duration:      time.Since(start),
	})
	if err != nil {
		return nil, err
	}
	if res.Data == nil {
		return map[string]any{}, nil
	}
	return res.Data, nil
}

func dedupeKey(doc *language.Document, vars map[string]any) string {
	h := xxhash.New()
	_, _ = h.WriteString(doc.Source())
	_, _ = h.Write([]byte{0})
	if b, err := json.Marshal(vars); err == nil {
		_, _ = h.Write(b)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
