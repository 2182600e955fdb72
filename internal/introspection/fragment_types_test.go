package introspection

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	schema "github.com/hanpama/groupfeed/internal/schema"
)

func TestParseBareResult(t *testing.T) {
	res, err := Parse([]byte(`{"__schema":{"types":[
		{"kind":"UNION","name":"Post","possibleTypes":[{"name":"PostConversation"},{"name":"PostLink"}]},
		{"kind":"OBJECT","name":"Group","possibleTypes":null}
	]}}`))
	require.NoError(t, err)
	want := map[string][]string{"Post": {"PostConversation", "PostLink"}}
	if diff := cmp.Diff(want, res.PossibleTypes()); diff != "" {
		t.Fatalf("possible types mismatch (-want +got):\n%s", diff)
	}
}

func TestParseResponseEnvelope(t *testing.T) {
	res, err := Parse([]byte(`{"data":{"__schema":{"types":[
		{"kind":"INTERFACE","name":"Node","possibleTypes":[{"name":"Group"}]}
	]}}}`))
	require.NoError(t, err)
	require.Equal(t, map[string][]string{"Node": {"Group"}}, res.PossibleTypes())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{`))
	require.Error(t, err)

	_, err = Parse([]byte(`{"data":{}}`))
	require.ErrorIs(t, err, ErrNoSchema)
}

func TestFromSchemaRoundTrip(t *testing.T) {
	sch, err := schema.BuildFromSDL("t.graphql", `
type Query { posts: [Post] }
interface Post { postId: ID! }
type PostConversation implements Post { postId: ID! content: String }
type PostLink implements Post { postId: ID! url: String }
`)
	require.NoError(t, err)

	res := FromSchema(sch)
	require.Len(t, res.Schema.Types, 1)
	require.Equal(t, "INTERFACE", res.Schema.Types[0].Kind)

	data, err := res.Marshal()
	require.NoError(t, err)
	back, err := Parse(data)
	require.NoError(t, err)
	want := map[string][]string{"Post": {"PostConversation", "PostLink"}}
	if diff := cmp.Diff(want, back.PossibleTypes()); diff != "" {
		t.Fatalf("possible types mismatch (-want +got):\n%s", diff)
	}
}
