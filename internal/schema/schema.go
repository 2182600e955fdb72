package schema

import (
	"github.com/vektah/gqlparser/v2/ast"
)

// Schema is the client-side view of a GraphQL schema: the root operation
// types and enough type information to match fragments on abstract types.
// Documents are validated against the full definition.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type

	def *ast.Schema
}

// Type is a named type. PossibleTypes is set for interfaces and unions.
type Type struct {
	Name          string
	Kind          TypeKind
	PossibleTypes []string // sorted
}

func (t *Type) IsAbstract() bool {
	return t.Kind == TypeKindInterface || t.Kind == TypeKindUnion
}

// TypeKind is the introspection kind of a type.
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)
