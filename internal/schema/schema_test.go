package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	language "github.com/hanpama/groupfeed/internal/language"
)

const testSDL = `
type Query {
  node(id: ID!): Node
  search(text: String!): [SearchResult!]!
}

interface Node { id: ID! }

type User implements Node { id: ID! name: String }
type Team implements Node { id: ID! members: [User!]! }

union SearchResult = User | Team
`

func buildSchema(t *testing.T) *Schema {
	t.Helper()
	sch, err := BuildFromSDL("test.graphql", testSDL)
	require.NoError(t, err, "build schema")
	return sch
}

func TestBuildFromSDL(t *testing.T) {
	sch := buildSchema(t)
	require.Equal(t, "Query", sch.QueryType)
	require.Equal(t, "", sch.MutationType)

	user := sch.Types["User"]
	require.Equal(t, TypeKindObject, user.Kind)
	require.False(t, user.IsAbstract())

	node := sch.Types["Node"]
	require.Equal(t, TypeKindInterface, node.Kind)
	require.True(t, node.IsAbstract())
	require.Equal(t, []string{"Team", "User"}, node.PossibleTypes)

	require.Equal(t, TypeKindUnion, sch.Types["SearchResult"].Kind)
}

func TestPossibleTypes(t *testing.T) {
	sch := buildSchema(t)
	got := sch.PossibleTypes()
	want := map[string][]string{
		"Node":         {"Team", "User"},
		"SearchResult": {"Team", "User"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("possible types mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFromSDLError(t *testing.T) {
	_, err := BuildFromSDL("bad.graphql", `type Query { a: Missing }`)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	sch := buildSchema(t)
	ok := language.MustParse(`query n($id: ID!) { node(id: $id) { id ... on User { name } } }`)
	require.NoError(t, sch.Validate(ok))

	bad := language.MustParse(`{ node(id: "1") { nope } }`)
	require.Error(t, sch.Validate(bad))
}
