// Package introspection reads and produces the fragment type map: the
// subset of an introspection result that tells a client which concrete
// types each interface or union may resolve to.
package introspection

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	schema "github.com/hanpama/groupfeed/internal/schema"
)

// Query fetches exactly what Result decodes.
const Query = `query FragmentTypes {
  __schema {
    types {
      kind
      name
      possibleTypes {
        name
      }
    }
  }
}`

var ErrNoSchema = errors.New("introspection: result has no __schema")

// Result is the fragment-types shaped introspection result.
type Result struct {
	Schema *SchemaTypes `json:"__schema"`
}

type SchemaTypes struct {
	Types []TypeEntry `json:"types"`
}

type TypeEntry struct {
	Kind          string     `json:"kind"`
	Name          string     `json:"name"`
	PossibleTypes []TypeName `json:"possibleTypes"`
}

type TypeName struct {
	Name string `json:"name"`
}

// Parse decodes a fragment types document. Both the bare result and the
// GraphQL response envelope ({"data": {...}}) are accepted.
func Parse(data []byte) (*Result, error) {
	var envelope struct {
		Data *Result `json:"data"`
		*Result
	}
	envelope.Result = &Result{}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("introspection: decode: %w", err)
	}
	res := envelope.Result
	if envelope.Data != nil {
		res = envelope.Data
	}
	if res.Schema == nil {
		return nil, ErrNoSchema
	}
	return res, nil
}

// FromSchema builds the result a server exposing s would return for Query.
func FromSchema(s *schema.Schema) *Result {
	res := &Result{Schema: &SchemaTypes{}}
	for name, pts := range s.PossibleTypes() {
		entry := TypeEntry{Kind: string(s.Types[name].Kind), Name: name}
		for _, pt := range pts {
			entry.PossibleTypes = append(entry.PossibleTypes, TypeName{Name: pt})
		}
		res.Schema.Types = append(res.Schema.Types, entry)
	}
	sort.Slice(res.Schema.Types, func(i, j int) bool {
		return res.Schema.Types[i].Name < res.Schema.Types[j].Name
	})
	return res
}

// PossibleTypes returns abstract type -> concrete type names. Entries
// without possible types (objects, scalars) are skipped.
func (r *Result) PossibleTypes() map[string][]string {
	out := make(map[string][]string)
	if r.Schema == nil {
		return out
	}
	for _, t := range r.Schema.Types {
		if t.PossibleTypes == nil {
			continue
		}
		names := make([]string, 0, len(t.PossibleTypes))
		for _, pt := range t.PossibleTypes {
			names = append(names, pt.Name)
		}
		out[t.Name] = names
	}
	return out
}

// Marshal renders r as indented JSON, the format of a fragmentTypes.json file.
func (r *Result) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
