package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	config "github.com/hanpama/groupfeed/internal/config"
)

// feedServer is a fake feed API. It records the operations and the
// Authorization header it receives.
type feedServer struct {
	mu       sync.Mutex
	ops      []string
	auth     []string
	referers []string
	member   map[string]bool
}

func newFeedServer(t *testing.T) (*feedServer, *httptest.Server) {
	t.Helper()
	fs := &feedServer{member: map[string]bool{"g1": true, "g2": false}}
	srv := httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *feedServer) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.ops = append(fs.ops, req.OperationName)
	fs.auth = append(fs.auth, r.Header.Get("Authorization"))
	fs.referers = append(fs.referers, r.Header.Get("Referer"))

	group := func(id, name string) map[string]any {
		return map[string]any{
			"__typename": "Group", "groupId": id, "name": name, "description": "",
			"admin": "u1", "avatar": "", "banner": "", "isMember": fs.member[id],
		}
	}
	var data map[string]any
	switch req.OperationName {
	case "listGroups":
		data = map[string]any{"listGroups": []any{group("g1", "Gophers"), group("g2", "Rustaceans")}}
	case "joinGroup", "leaveGroup":
		id, _ := req.Variables["groupId"].(string)
		fs.member[id] = req.OperationName == "joinGroup"
		data = map[string]any{req.OperationName: map[string]any{"__typename": "Group", "groupId": id, "isMember": fs.member[id]}}
	case "listPosts":
		data = map[string]any{"listPosts": map[string]any{"__typename": "PostList", "posts": []any{
			map[string]any{
				"__typename": "PostConversation", "postId": "p1", "content": "hello gophers",
				"timestamp": "t1", "commentsTotal": 0,
				"author": map[string]any{"__typename": "User", "id": "u1", "name": "Ana"},
			},
		}}}
	case "addPost":
		data = map[string]any{"addPost": map[string]any{
			"__typename": "PostConversation", "postId": "p2", "content": req.Variables["content"],
			"timestamp": "t2", "commentsTotal": 0,
			"author": map[string]any{"__typename": "User", "id": "u1", "name": "Ana"},
		}}
	default:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"errors": []any{map[string]any{"message": "unknown operation"}}})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (fs *feedServer) operations() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.ops...)
}

func noEnv(string) (string, bool) { return "", false }

func runCLI(t *testing.T, lookup config.LookupFunc, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(append([]string{"--log-level", "error"}, args...), &out, lookup)
	return out.String(), err
}

func TestGroups(t *testing.T) {
	fs, srv := newFeedServer(t)
	out, err := runCLI(t, noEnv, "--endpoint", srv.URL, "--token", "secret", "groups")
	require.NoError(t, err)
	require.Contains(t, out, "My Groups")
	require.Contains(t, out, "Gophers")
	require.Contains(t, out, "LEAVE GROUP")
	require.Contains(t, out, "Rustaceans")
	require.Contains(t, out, "JOIN GROUP")

	require.Equal(t, []string{"listGroups"}, fs.operations())
	require.Equal(t, []string{"Bearer secret"}, fs.auth)
	require.Equal(t, []string{config.DefaultReferer}, fs.referers)
}

func TestTokenFromEnv(t *testing.T) {
	fs, srv := newFeedServer(t)
	lookup := func(k string) (string, bool) {
		if k == config.EnvToken {
			return "from-env", true
		}
		return "", false
	}
	_, err := runCLI(t, lookup, "--endpoint", srv.URL, "groups")
	require.NoError(t, err)
	require.Equal(t, []string{"Bearer from-env"}, fs.auth)
}

func TestJoinShowsMembershipWithoutRefetch(t *testing.T) {
	fs, srv := newFeedServer(t)
	cacheFile := filepath.Join(t.TempDir(), "cache.json")

	_, err := runCLI(t, noEnv, "--endpoint", srv.URL, "--cache-file", cacheFile, "groups")
	require.NoError(t, err)

	out, err := runCLI(t, noEnv, "--endpoint", srv.URL, "--cache-file", cacheFile, "join", "g2")
	require.NoError(t, err)
	require.Equal(t, []string{"listGroups", "joinGroup"}, fs.operations(), "groups are read from the restored cache")

	mine := out[strings.Index(out, "My Groups"):strings.Index(out, "Available Groups")]
	require.Contains(t, mine, "Gophers")
	require.Contains(t, mine, "Rustaceans")
}

func TestPostPrependsToPosts(t *testing.T) {
	fs, srv := newFeedServer(t)
	cacheFile := filepath.Join(t.TempDir(), "cache.json")

	out, err := runCLI(t, noEnv, "--endpoint", srv.URL, "--cache-file", cacheFile, "posts")
	require.NoError(t, err)
	require.Contains(t, out, "hello gophers")
	require.Contains(t, out, "Ana")

	out, err = runCLI(t, noEnv, "--endpoint", srv.URL, "--cache-file", cacheFile, "post", "second", "post")
	require.NoError(t, err)
	posts := out[strings.Index(out, "Posts"):]
	require.Less(t, strings.Index(posts, "second post"), strings.Index(posts, "hello gophers"))
	require.Equal(t, []string{"listPosts", "addPost"}, fs.operations())

	_, err = os.Stat(cacheFile)
	require.NoError(t, err)
}

func TestServerErrorRendersError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	out, err := runCLI(t, noEnv, "--endpoint", srv.URL, "posts")
	require.Error(t, err)
	require.Contains(t, out, "ERROR (check your token")
}

func TestFragmentTypes(t *testing.T) {
	out, err := runCLI(t, noEnv, "fragment-types")
	require.NoError(t, err)
	require.Contains(t, out, `"PostConversation"`)
	require.Contains(t, out, `"PostLink"`)

	// the printed map can be fed back in
	path := filepath.Join(t.TempDir(), "fragment-types.json")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o600))
	_, srv := newFeedServer(t)
	_, err = runCLI(t, noEnv, "--endpoint", srv.URL, "--fragment-types", path, "posts")
	require.NoError(t, err)
}

func TestFragmentTypesIgnoresConfig(t *testing.T) {
	out, err := runCLI(t, noEnv, "--endpoint", "not a url", "fragment-types")
	require.NoError(t, err)
	require.Contains(t, out, `"PostConversation"`)
}

func TestInvalidConfig(t *testing.T) {
	_, err := runCLI(t, noEnv, "--endpoint", "not a url", "groups")
	require.ErrorIs(t, err, config.ErrInvalid)
}
