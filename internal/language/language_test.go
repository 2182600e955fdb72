package language

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseSingleOperation(t *testing.T) {
	d, err := Parse(`query listPosts($groupId: ID!) { listPosts(groupId: $groupId) { posts { postId } } }`)
	require.NoError(t, err)
	require.Equal(t, "listPosts", d.Name())
	require.Equal(t, Query, d.Kind())
	require.NotNil(t, d.Operation())
}

func TestParseRejectsMultipleOperations(t *testing.T) {
	_, err := Parse(`query a { x } query b { y }`)
	require.ErrorIs(t, err, ErrMultipleOperations)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse(`query {`)
	require.Error(t, err)
}

func TestParseFragmentOnly(t *testing.T) {
	d, err := Parse(`fragment G on Group { groupId isMember }`)
	require.NoError(t, err)
	require.Nil(t, d.Operation())
	require.Equal(t, "", d.Name())
	require.NotNil(t, d.Fragment(""))
	require.NotNil(t, d.Fragment("G"))
	require.Nil(t, d.Fragment("Other"))
}

func TestWithTypename(t *testing.T) {
	d := MustParse(`query listPosts($groupId: ID!) {
  listPosts(groupId: $groupId) {
    posts {
      ... on PostConversation { postId author { id } }
    }
  }
}`)
	got := WithTypename(d)

	root := got.Operation().SelectionSet
	require.Len(t, root, 1, "root selection set must stay untouched")

	listPosts := root[0].(*Field)
	require.True(t, hasTypename(listPosts.SelectionSet))
	posts := listPosts.SelectionSet[0].(*Field)
	require.True(t, hasTypename(posts.SelectionSet))
	inline := posts.SelectionSet[0].(*InlineFragment)
	require.False(t, hasTypename(inline.SelectionSet))
	author := inline.SelectionSet[1].(*Field)
	require.True(t, hasTypename(author.SelectionSet))
	require.True(t, IsAddedTypename(author.SelectionSet[len(author.SelectionSet)-1].(*Field)))
	require.False(t, IsAddedTypename(author.SelectionSet[0].(*Field)))

	require.Contains(t, got.Source(), "__typename")
	reparsed, err := Parse(got.Source())
	require.NoError(t, err)
	require.Equal(t, "listPosts", reparsed.Name())

	// the input document is not modified
	require.NotContains(t, d.Source(), "__typename")
	require.False(t, hasTypename(d.Operation().SelectionSet[0].(*Field).SelectionSet))
}

func TestWithTypenameIdempotent(t *testing.T) {
	d := MustParse(`{ listGroups { groupId __typename } }`)
	got := WithTypename(d)
	sel := got.Operation().SelectionSet[0].(*Field).SelectionSet
	require.Len(t, sel, 2)
	require.Equal(t, 1, strings.Count(got.Source(), "__typename"))
	require.False(t, IsAddedTypename(sel[1].(*Field)), "written __typename is required")
}

func TestVariablesDefaults(t *testing.T) {
	d := MustParse(`query q($first: Int = 3, $groupId: ID!) { x(first: $first, groupId: $groupId) }`)
	in := map[string]any{"groupId": "g1"}
	got := d.Variables(in)
	want := map[string]any{"groupId": "g1", "first": int64(3)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("variables mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, in, 1)
}

func TestArgumentValues(t *testing.T) {
	d := MustParse(`query q($groupId: ID!, $missing: String) { listPosts(groupId: $groupId, tag: $missing, first: 2, filter: {kind: TEXT, tags: ["a", "b"]}) }`)
	f := d.Operation().SelectionSet[0].(*Field)
	got := ArgumentValues(f.Arguments, map[string]any{"groupId": "g1"})
	want := map[string]any{
		"groupId": "g1",
		"first":   int64(2),
		"filter":  map[string]any{"kind": "TEXT", "tags": []any{"a", "b"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("arguments mismatch (-want +got):\n%s", diff)
	}
}

func TestShouldInclude(t *testing.T) {
	d := MustParse(`query q($on: Boolean!) { a @skip(if: true) b @include(if: $on) c }`)
	sel := d.Operation().SelectionSet
	vars := map[string]any{"on": false}
	require.False(t, ShouldInclude(sel[0].(*Field).Directives, vars))
	require.False(t, ShouldInclude(sel[1].(*Field).Directives, vars))
	require.True(t, ShouldInclude(sel[2].(*Field).Directives, vars))
	require.True(t, ShouldInclude(sel[1].(*Field).Directives, map[string]any{"on": true}))
}
