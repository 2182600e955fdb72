package link

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/groupfeed/internal/eventbus"
	events "github.com/hanpama/groupfeed/internal/events"
)

func newEndpoint(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSend(t *testing.T) {
	var got requestBody
	var header http.Header
	var method string
	srv := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"listGroups":[{"groupId":"g1"}]}}`))
	})

	h, err := NewHTTP(srv.URL)
	require.NoError(t, err)
	res, err := h.Send(context.Background(), &Operation{
		Name:      "listGroups",
		Query:     "query listGroups { listGroups { groupId } }",
		Variables: map[string]any{"a": "b"},
		Header:    http.Header{"Authorization": {"Bearer tok"}},
	})
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "listGroups", got.OperationName)
	require.Equal(t, "b", got.Variables["a"])
	require.Equal(t, "Bearer tok", header.Get("Authorization"))
	require.Equal(t, "application/json", header.Get("Content-Type"))
	require.Len(t, res.Data["listGroups"], 1)
}

func TestHTTPGraphQLErrorsAreNotNetworkErrors(t *testing.T) {
	srv := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"boom","path":["joinGroup"]}]}`))
	})
	h, err := NewHTTP(srv.URL)
	require.NoError(t, err)
	res, err := h.Send(context.Background(), &Operation{Query: "{ x }"})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "boom", res.Errors[0].Message)
	require.Equal(t, []any{"joinGroup"}, res.Errors[0].Path)
}

func TestHTTPNetworkErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"bad token"}`},
		{"not json", http.StatusOK, `<html>`},
		{"empty envelope", http.StatusOK, `{}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			h, err := NewHTTP(srv.URL)
			require.NoError(t, err)
			res, err := h.Send(context.Background(), &Operation{Query: "{ x }"})
			require.Nil(t, res)
			var ne *NetworkError
			require.True(t, errors.As(err, &ne), "got %T", err)
			require.Equal(t, tc.status, ne.StatusCode)
		})
	}
}

func TestHTTPUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h, err := NewHTTP(url, WithTimeout(time.Second))
	require.NoError(t, err)
	_, err = h.Send(context.Background(), &Operation{Query: "{ x }"})
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	require.Equal(t, 0, ne.StatusCode)
}

func TestHTTPBodyLimit(t *testing.T) {
	srv := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"x":"0123456789"}}`))
	})
	h, err := NewHTTP(srv.URL, WithMaxBodyBytes(8))
	require.NoError(t, err)
	_, err = h.Send(context.Background(), &Operation{Query: "{ x }"})
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
}

func TestHTTPEvents(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)

	var finished []events.HTTPFinish
	eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) { finished = append(finished, e) })

	srv := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	h, err := NewHTTP(srv.URL)
	require.NoError(t, err)
	_, _ = h.Send(context.Background(), &Operation{Query: "{ x }"})

	require.Len(t, finished, 1)
	require.Equal(t, http.StatusBadGateway, finished[0].Status)
	require.Error(t, finished[0].Err)
}

func TestNewHTTPRequiresEndpoint(t *testing.T) {
	_, err := NewHTTP("")
	require.ErrorIs(t, err, ErrNoEndpoint)
}

func TestPipeline(t *testing.T) {
	var header http.Header
	srv := newEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		_, _ = w.Write([]byte(`{"data":{"x":1}}`))
	})
	h, err := NewPipeline(srv.URL, Auth("tok", "https://www.tes-stage.com/"), nil)
	require.NoError(t, err)
	res, err := h.Send(context.Background(), &Operation{Query: "{ x }"})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Data["x"])
	require.Equal(t, "Bearer tok", header.Get("Authorization"))
	require.Equal(t, "https://www.tes-stage.com/", header.Get("Referer"))
	require.NotEmpty(t, header.Get("X-Request-Id"))
}
