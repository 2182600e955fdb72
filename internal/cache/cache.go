// Package cache implements a normalized in-memory store for GraphQL
// results.
//
// Objects that can be identified (see Identifier) are stored once under
// their cache key and referenced from wherever they appear; query results
// are stored as fields of the ROOT_QUERY entity keyed by field name and
// arguments. Objects that cannot be identified are stored inline on their
// parent field, so separate copies of them may exist across results.
//
// The cache never infers which list queries a new object belongs to.
// Callers project mutation effects into cached queries explicitly with
// ReadQuery/WriteQuery or UpdateQuery. Entries are never evicted.
package cache

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	language "github.com/hanpama/groupfeed/internal/language"
)

const (
	RootQuery        = "ROOT_QUERY"
	RootMutation     = "ROOT_MUTATION"
	RootSubscription = "ROOT_SUBSCRIPTION"
)

// Ref points at a normalized entity.
type Ref struct {
	ID string `json:"__ref"`
}

// Entity holds the stored fields of a normalized object. Values are
// scalars, Refs, inline objects (map[string]any) or lists of those.
type Entity map[string]any

type Options struct {
	Identifier    *Identifier
	PossibleTypes map[string][]string
	AddTypename   bool
	Logger        *zap.Logger
}

type Option func(*Options)

// WithIdentityRules installs per-type identity rules ahead of the default rule.
func WithIdentityRules(rules ...IdentityRule) Option {
	return func(o *Options) { o.Identifier = NewIdentifier(rules...) }
}

// WithPossibleTypes sets the fragment type map used to match fragments on
// abstract types.
func WithPossibleTypes(pt map[string][]string) Option {
	return func(o *Options) { o.PossibleTypes = pt }
}

// WithAddTypename makes every read and write request __typename on each
// object selection set, so objects stay identifiable and fragments stay
// matchable whichever document the caller passes.
func WithAddTypename() Option { return func(o *Options) { o.AddTypename = true } }

func WithLogger(l *zap.Logger) Option { return func(o *Options) { o.Logger = l } }

// Cache is safe for concurrent use. Every write is applied under a single
// lock acquisition, so readers never observe a partial write.
type Cache struct {
	mu       sync.RWMutex
	entities map[string]Entity

	identifier  *Identifier
	matcher     *FragmentMatcher
	addTypename bool
	transformed sync.Map // *language.Document -> *language.Document
	logger      *zap.Logger
}

func New(opts ...Option) *Cache {
	o := Options{}
	for _, f := range opts {
		f(&o)
	}
	if o.Identifier == nil {
		o.Identifier = NewIdentifier()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Cache{
		entities:    make(map[string]Entity),
		identifier:  o.Identifier,
		matcher:     NewFragmentMatcher(o.PossibleTypes),
		addTypename: o.AddTypename,
		logger:      o.Logger,
	}
}

// Transform returns the document the cache actually reads and writes for
// doc. Clients send the transformed document so that responses carry every
// field the cache expects.
func (c *Cache) Transform(doc *language.Document) *language.Document {
	if !c.addTypename {
		return doc
	}
	if v, ok := c.transformed.Load(doc); ok {
		return v.(*language.Document)
	}
	out := language.WithTypename(doc)
	// the transformed document maps to itself
	c.transformed.LoadOrStore(out, out)
	v, _ := c.transformed.LoadOrStore(doc, out)
	return v.(*language.Document)
}

// Identify resolves the cache key of obj. ok is false when obj is not
// cacheable on its own.
func (c *Cache) Identify(obj map[string]any) (string, bool) {
	return c.identifier.Identify(obj)
}

// MergeEntity upserts obj under its resolved identity. Fields present in obj
// overwrite stored ones; stored fields absent from obj are kept. Nested
// identifiable objects are normalized into references.
func (c *Cache) MergeEntity(obj map[string]any) (string, bool) {
	id, ok := c.identifier.Identify(obj)
	if !ok {
		return "", false
	}
	cs := changeset{}
	fields := make(Entity, len(obj))
	for k, v := range obj {
		fields[k] = c.normalizeLoose(v, cs)
	}
	cs.merge(id, fields)
	c.apply(cs)
	return id, true
}

// normalizeLoose normalizes a value without a selection set: field names are
// used as storage keys.
func (c *Cache) normalizeLoose(v any, cs changeset) any {
	switch x := v.(type) {
	case map[string]any:
		fields := make(map[string]any, len(x))
		for k, fv := range x {
			fields[k] = c.normalizeLoose(fv, cs)
		}
		if id, ok := c.identifier.Identify(x); ok {
			cs.merge(id, fields)
			return Ref{ID: id}
		}
		return fields
	case []map[string]any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = c.normalizeLoose(item, cs)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = c.normalizeLoose(item, cs)
		}
		return out
	default:
		return v
	}
}

// ReadEntity returns a copy of the stored fields of id.
func (c *Cache) ReadEntity(id string) (Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[id]
	if !ok {
		return nil, false
	}
	return cloneValue(map[string]any(e)).(map[string]any), true
}

// Extract serializes the whole store. References are encoded as
// {"__ref": id}.
func (c *Cache) Extract() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(c.entities)
}

// Restore merges a snapshot produced by Extract into the store.
func (c *Cache) Restore(data []byte) error {
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cache: restore: %w", err)
	}
	cs := changeset{}
	for id, fields := range raw {
		e := make(Entity, len(fields))
		for k, v := range fields {
			e[k] = decodeRefs(v)
		}
		cs.merge(id, e)
	}
	c.apply(cs)
	return nil
}

func decodeRefs(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if id, ok := x["__ref"].(string); ok && len(x) == 1 {
			return Ref{ID: id}
		}
		for k, fv := range x {
			x[k] = decodeRefs(fv)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = decodeRefs(item)
		}
		return x
	default:
		return v
	}
}

// changeset stages entity field updates so a write is applied at once.
type changeset map[string]Entity

func (cs changeset) merge(id string, fields Entity) {
	existing, ok := cs[id]
	if !ok {
		cs[id] = fields
		return
	}
	for k, v := range fields {
		existing[k] = mergeStored(existing[k], v)
	}
}

func (c *Cache) apply(cs changeset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, fields := range cs {
		e, ok := c.entities[id]
		if !ok {
			e = make(Entity, len(fields))
			c.entities[id] = e
		}
		for k, v := range fields {
			e[k] = v
		}
	}
}

// mergeStored combines two staged values of the same field. Inline objects
// written through different fragments are merged; anything else is replaced.
func mergeStored(prev, next any) any {
	pm, ok1 := prev.(map[string]any)
	nm, ok2 := next.(map[string]any)
	if !ok1 || !ok2 {
		return next
	}
	out := make(map[string]any, len(pm)+len(nm))
	for k, v := range pm {
		out[k] = v
	}
	for k, v := range nm {
		out[k] = mergeStored(out[k], v)
	}
	return out
}

// Clone returns a deep copy of a result returned by the cache.
func Clone(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	return cloneValue(data).(map[string]any)
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, fv := range x {
			out[k] = cloneValue(fv)
		}
		return out
	case Entity:
		return cloneValue(map[string]any(x))
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
