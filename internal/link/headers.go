package link

import (
	"context"
	"net/http"

	reqid "github.com/hanpama/groupfeed/internal/reqid"
)

// Headers adds static headers to every operation. Headers the operation
// already carries are kept.
func Headers(static http.Header) Middleware {
	static = static.Clone()
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, op *Operation) (*Response, error) {
			if op.Header == nil {
				op.Header = make(http.Header, len(static))
			}
			for k, vs := range static {
				if _, ok := op.Header[k]; ok {
					continue
				}
				op.Header[k] = append([]string(nil), vs...)
			}
			return next.Send(ctx, op)
		})
	}
}

// Auth builds the static headers of an authenticated client. Empty values
// are omitted.
func Auth(token, referer string) http.Header {
	h := http.Header{}
	if referer != "" {
		h.Set("Referer", referer)
	}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// RequestID stamps the context's request id, creating one when missing.
func RequestID() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, op *Operation) (*Response, error) {
			ctx, id := reqid.Ensure(ctx)
			if op.Header == nil {
				op.Header = http.Header{}
			}
			op.Header.Set(reqid.Header, id)
			return next.Send(ctx, op)
		})
	}
}
