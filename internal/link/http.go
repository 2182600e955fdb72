package link

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	eventbus "github.com/hanpama/groupfeed/internal/eventbus"
	events "github.com/hanpama/groupfeed/internal/events"
)

// HTTP delivers operations as JSON POST requests to a GraphQL endpoint.
type HTTP struct {
	endpoint string
	opt      Options
}

// NewHTTP returns the terminal handler for endpoint.
func NewHTTP(endpoint string, opts ...Option) (*HTTP, error) {
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	if o.Client == nil {
		o.Client = http.DefaultClient
	}
	return &HTTP{endpoint: endpoint, opt: *o}, nil
}

type requestBody struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

func (h *HTTP) Send(ctx context.Context, op *Operation) (*Response, error) {
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(requestBody{Query: op.Query, OperationName: op.Name, Variables: op.Variables})
	if err != nil {
		return nil, fmt.Errorf("link: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	for k, vs := range op.Header {
		req.Header[k] = append([]string(nil), vs...)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	status := 0
	var sendErr error
	eventbus.Publish(ctx, events.HTTPStart{Request: req})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: req, Status: status, Err: sendErr, Duration: time.Since(start)})
	}()

	res, sendErr := h.roundTrip(req)
	if res != nil {
		status = res.status
	}
	if sendErr != nil {
		return nil, sendErr
	}
	return res.response, nil
}

type exchange struct {
	status   int
	response *Response
}

func (h *HTTP) roundTrip(req *http.Request) (*exchange, error) {
	resp, err := h.opt.Client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	ex := &exchange{status: resp.StatusCode}

	reader := io.Reader(resp.Body)
	if h.opt.MaxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, h.opt.MaxBodyBytes+1)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return ex, &NetworkError{StatusCode: resp.StatusCode, Err: err}
	}
	if h.opt.MaxBodyBytes > 0 && int64(len(raw)) > h.opt.MaxBodyBytes {
		return ex, &NetworkError{StatusCode: resp.StatusCode, Err: errors.New("response body too large")}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ex, &NetworkError{StatusCode: resp.StatusCode, Body: snippet(raw), Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return ex, &NetworkError{StatusCode: resp.StatusCode, Body: snippet(raw), Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Data == nil && len(out.Errors) == 0 {
		return ex, &NetworkError{StatusCode: resp.StatusCode, Body: snippet(raw), Err: errors.New("response has neither data nor errors")}
	}
	ex.response = &out
	return ex, nil
}

func snippet(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max])
	}
	return string(b)
}
