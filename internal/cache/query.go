package cache

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	language "github.com/hanpama/groupfeed/internal/language"
)

// Projection derives the next value of a cached query result from the
// current one. It must not modify its input in place if it fails.
type Projection func(data map[string]any) (map[string]any, error)

// WriteQuery stores data as the result of doc's operation for vars,
// replacing any previous result for the same fields and arguments.
// Identifiable objects in data are merged into their entities.
func (c *Cache) WriteQuery(doc *language.Document, vars map[string]any, data map[string]any) error {
	doc = c.Transform(doc)
	op := doc.Operation()
	if op == nil {
		return ErrNoOperation
	}
	w := c.newWriter(doc, doc.Variables(vars))
	root := make(Entity)
	if err := w.writeSelectionSet(root, "", op.SelectionSet, data, ""); err != nil {
		return err
	}
	w.cs.merge(rootID(op.Operation), root)
	c.apply(w.cs)
	return nil
}

// ReadQuery returns the cached result of doc's operation for vars. ok is
// false when any selected field is missing from the cache.
func (c *Cache) ReadQuery(doc *language.Document, vars map[string]any) (map[string]any, bool) {
	doc = c.Transform(doc)
	op := doc.Operation()
	if op == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	root, ok := c.entities[rootID(op.Operation)]
	if !ok {
		return nil, false
	}
	r := &reader{c: c, doc: doc.AST(), vars: doc.Variables(vars)}
	out := make(map[string]any)
	if !r.readSelectionSet(root, op.SelectionSet, out) {
		return nil, false
	}
	return out, true
}

// UpdateQuery reads the cached result of doc for vars, applies project and
// writes the projected result back. It reports false without calling
// project when nothing is cached. Read and write are separate steps: a
// concurrent write between them is overwritten.
func (c *Cache) UpdateQuery(doc *language.Document, vars map[string]any, project Projection) (bool, error) {
	data, ok := c.ReadQuery(doc, vars)
	if !ok {
		return false, nil
	}
	next, err := project(data)
	if err != nil {
		return false, err
	}
	if err := c.WriteQuery(doc, vars, next); err != nil {
		return false, err
	}
	return true, nil
}

// WriteFragment stores data into the entity id through the document's
// single fragment.
func (c *Cache) WriteFragment(doc *language.Document, id string, vars map[string]any, data map[string]any) error {
	doc = c.Transform(doc)
	frag := doc.Fragment("")
	if frag == nil {
		return ErrNoFragment
	}
	w := c.newWriter(doc, vars)
	fields := make(Entity)
	typename, _ := data[language.TypenameField].(string)
	if typename != "" {
		fields[language.TypenameField] = typename
	}
	if err := w.writeSelectionSet(fields, typename, frag.SelectionSet, data, id); err != nil {
		return err
	}
	w.cs.merge(id, fields)
	c.apply(w.cs)
	return nil
}

// ReadFragment reads the entity id through the document's single fragment.
func (c *Cache) ReadFragment(doc *language.Document, id string, vars map[string]any) (map[string]any, bool) {
	doc = c.Transform(doc)
	frag := doc.Fragment("")
	if frag == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[id]
	if !ok {
		return nil, false
	}
	typename, _ := e[language.TypenameField].(string)
	if matched, _ := c.matcher.Match(typename, frag.TypeCondition); !matched {
		return nil, false
	}
	r := &reader{c: c, doc: doc.AST(), vars: vars}
	out := make(map[string]any)
	if !r.readSelectionSet(e, frag.SelectionSet, out) {
		return nil, false
	}
	return out, true
}

func rootID(op language.Operation) string {
	switch op {
	case language.Mutation:
		return RootMutation
	case language.Subscription:
		return RootSubscription
	default:
		return RootQuery
	}
}

// storageKey names the stored field: the field name, followed by its
// arguments as JSON with sorted keys when it has any.
func storageKey(f *language.Field, vars map[string]any) string {
	args := language.ArgumentValues(f.Arguments, vars)
	if len(args) == 0 {
		return f.Name
	}
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%s(%v)", f.Name, args)
	}
	return f.Name + "(" + string(b) + ")"
}

type writer struct {
	c    *Cache
	doc  *language.QueryDocument
	vars map[string]any
	cs   changeset
}

func (c *Cache) newWriter(doc *language.Document, vars map[string]any) *writer {
	return &writer{c: c, doc: doc.AST(), vars: vars, cs: changeset{}}
}

func (w *writer) writeSelectionSet(fields Entity, typename string, set language.SelectionSet, data map[string]any, path string) error {
	for _, sel := range set {
		switch s := sel.(type) {
		case *language.Field:
			if !language.ShouldInclude(s.Directives, w.vars) {
				continue
			}
			key := language.ResponseName(s)
			v, ok := data[key]
			if !ok {
				if s.Name != language.TypenameField {
					w.c.logger.Debug("missing field on write", zap.String("path", join(path, key)))
				}
				continue
			}
			nv, err := w.writeValue(s, v, join(path, key))
			if err != nil {
				return err
			}
			sk := storageKey(s, w.vars)
			fields[sk] = mergeStored(fields[sk], nv)
		case *language.InlineFragment:
			if !language.ShouldInclude(s.Directives, w.vars) || !w.matches(typename, s.TypeCondition, path) {
				continue
			}
			if err := w.writeSelectionSet(fields, typename, s.SelectionSet, data, path); err != nil {
				return err
			}
		case *language.FragmentSpread:
			if !language.ShouldInclude(s.Directives, w.vars) {
				continue
			}
			def := w.doc.Fragments.ForName(s.Name)
			if def == nil {
				return fmt.Errorf("%w: %s", ErrUnknownFragment, s.Name)
			}
			if !w.matches(typename, def.TypeCondition, path) {
				continue
			}
			if err := w.writeSelectionSet(fields, typename, def.SelectionSet, data, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) matches(typename, condition, path string) bool {
	matched, heuristic := w.c.matcher.Match(typename, condition)
	if heuristic {
		w.c.logger.Debug("heuristic fragment match", zap.String("path", path), zap.String("condition", condition))
	}
	return matched
}

func (w *writer) writeValue(f *language.Field, v any, path string) (any, error) {
	if v == nil {
		return nil, nil
	}
	if len(f.SelectionSet) == 0 {
		return cloneValue(v), nil
	}
	switch x := v.(type) {
	case map[string]any:
		return w.writeObject(f.SelectionSet, x, path)
	case []map[string]any:
		out := make([]any, len(x))
		for i, item := range x {
			nv, err := w.writeObject(f.SelectionSet, item, fmt.Sprintf("%s.%d", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			nv, err := w.writeValue(f, item, fmt.Sprintf("%s.%d", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s: expected object, got %T", ErrShape, path, v)
	}
}

func (w *writer) writeObject(set language.SelectionSet, obj map[string]any, path string) (any, error) {
	typename, _ := obj[language.TypenameField].(string)
	fields := make(Entity)
	if typename != "" {
		fields[language.TypenameField] = typename
	}
	if err := w.writeSelectionSet(fields, typename, set, obj, path); err != nil {
		return nil, err
	}
	if id, ok := w.c.identifier.Identify(obj); ok {
		w.cs.merge(id, fields)
		return Ref{ID: id}, nil
	}
	return map[string]any(fields), nil
}

// reader walks stored entities along a selection set. Callers hold c.mu.
type reader struct {
	c    *Cache
	doc  *language.QueryDocument
	vars map[string]any
}

func (r *reader) readSelectionSet(e map[string]any, set language.SelectionSet, out map[string]any) bool {
	typename, _ := e[language.TypenameField].(string)
	for _, sel := range set {
		switch s := sel.(type) {
		case *language.Field:
			if !language.ShouldInclude(s.Directives, r.vars) {
				continue
			}
			stored, ok := e[storageKey(s, r.vars)]
			if !ok {
				// data written without __typename reads back without it
				if language.IsAddedTypename(s) {
					continue
				}
				return false
			}
			v, ok := r.readValue(s, stored)
			if !ok {
				return false
			}
			key := language.ResponseName(s)
			out[key] = mergeStored(out[key], v)
		case *language.InlineFragment:
			if !language.ShouldInclude(s.Directives, r.vars) {
				continue
			}
			if matched, _ := r.c.matcher.Match(typename, s.TypeCondition); !matched {
				continue
			}
			if !r.readSelectionSet(e, s.SelectionSet, out) {
				return false
			}
		case *language.FragmentSpread:
			if !language.ShouldInclude(s.Directives, r.vars) {
				continue
			}
			def := r.doc.Fragments.ForName(s.Name)
			if def == nil {
				return false
			}
			if matched, _ := r.c.matcher.Match(typename, def.TypeCondition); !matched {
				continue
			}
			if !r.readSelectionSet(e, def.SelectionSet, out) {
				return false
			}
		}
	}
	return true
}

func (r *reader) readValue(f *language.Field, v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case Ref:
		if len(f.SelectionSet) == 0 {
			return nil, false
		}
		e, ok := r.c.entities[x.ID]
		if !ok {
			return nil, false
		}
		out := make(map[string]any)
		if !r.readSelectionSet(e, f.SelectionSet, out) {
			return nil, false
		}
		return out, true
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			v, ok := r.readValue(f, item)
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	case map[string]any:
		if len(f.SelectionSet) == 0 {
			return cloneValue(x), true
		}
		out := make(map[string]any)
		if !r.readSelectionSet(x, f.SelectionSet, out) {
			return nil, false
		}
		return out, true
	default:
		if len(f.SelectionSet) > 0 {
			return nil, false
		}
		return x, true
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
