package schema

import (
	"sort"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/groupfeed/internal/language"
)

// BuildFromSDL parses and validates an SDL document and returns the
// corresponding Schema. Built-in scalars and directives are added by the
// parser.
func BuildFromSDL(name, sdl string) (*Schema, error) {
	def, gerr := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if gerr != nil {
		return nil, gerr
	}
	return buildFromAST(def), nil
}

func buildFromAST(def *ast.Schema) *Schema {
	s := &Schema{Types: make(map[string]*Type, len(def.Types)), def: def}
	if def.Query != nil {
		s.QueryType = def.Query.Name
	}
	if def.Mutation != nil {
		s.MutationType = def.Mutation.Name
	}
	if def.Subscription != nil {
		s.SubscriptionType = def.Subscription.Name
	}
	for name, d := range def.Types {
		t := &Type{Name: name, Kind: TypeKind(d.Kind)}
		if d.IsAbstractType() {
			for _, pt := range def.GetPossibleTypes(d) {
				t.PossibleTypes = append(t.PossibleTypes, pt.Name)
			}
			sort.Strings(t.PossibleTypes)
		}
		s.Types[name] = t
	}
	return s
}

// PossibleTypes returns the abstract type -> concrete types mapping of the
// schema. Object types are omitted.
func (s *Schema) PossibleTypes() map[string][]string {
	out := make(map[string][]string)
	for name, t := range s.Types {
		if t.IsAbstract() {
			out[name] = append([]string(nil), t.PossibleTypes...)
		}
	}
	return out
}

// Validate checks doc against the schema and returns all validation errors.
func (s *Schema) Validate(doc *language.Document) error {
	if _, errs := gqlparser.LoadQuery(s.def, doc.Source()); len(errs) > 0 {
		return errs
	}
	return nil
}
