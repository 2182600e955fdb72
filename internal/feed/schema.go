package feed

import (
	_ "embed"
	"sync"

	cache "github.com/hanpama/groupfeed/internal/cache"
	introspection "github.com/hanpama/groupfeed/internal/introspection"
	schema "github.com/hanpama/groupfeed/internal/schema"
)

//go:embed schema.graphql
var schemaSDL string

var loadSchema = sync.OnceValues(func() (*schema.Schema, error) {
	return schema.BuildFromSDL("feed.graphql", schemaSDL)
})

// Schema returns the feed API schema.
func Schema() (*schema.Schema, error) { return loadSchema() }

// FragmentTypes returns the fragment type map of the feed schema in the
// shape of an introspection result.
func FragmentTypes() (*introspection.Result, error) {
	s, err := Schema()
	if err != nil {
		return nil, err
	}
	return introspection.FromSchema(s), nil
}

// IdentityRules are the cache keys of feed entities. Objects of other types
// use the default id rule.
func IdentityRules() []cache.IdentityRule {
	return []cache.IdentityRule{
		{Typename: "PostConversation", Key: cache.KeyField("postId")},
		{Typename: "Group", Key: cache.KeyField("groupId")},
	}
}

// NewCache returns a cache configured for the feed: identity rules, the
// schema's fragment type map and __typename on every selection. possible
// overrides the schema's map when non-nil.
func NewCache(possible map[string][]string, opts ...cache.Option) (*cache.Cache, error) {
	if possible == nil {
		ft, err := FragmentTypes()
		if err != nil {
			return nil, err
		}
		possible = ft.PossibleTypes()
	}
	base := []cache.Option{
		cache.WithIdentityRules(IdentityRules()...),
		cache.WithPossibleTypes(possible),
		cache.WithAddTypename(),
	}
	return cache.New(append(base, opts...)...), nil
}
