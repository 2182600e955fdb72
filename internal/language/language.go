package language

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

var (
	// ErrNoDefinitions indicates a document without operations or fragments.
	ErrNoDefinitions = errors.New("language: document has no operation or fragment")
	// ErrMultipleOperations indicates a document that needs an operation name to be usable.
	ErrMultipleOperations = errors.New("language: document must contain at most one operation")
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Document is a parsed executable document holding at most one operation.
// Documents are immutable once parsed and may be shared between goroutines.
type Document struct {
	source    string
	ast       *QueryDocument
	operation *OperationDefinition
}

// Parse parses source into a Document. Fragment-only documents are allowed.
func Parse(source string) (*Document, error) {
	doc, err := ParseQuery(source)
	if err != nil {
		return nil, err
	}
	if len(doc.Operations) > 1 {
		return nil, ErrMultipleOperations
	}
	if len(doc.Operations) == 0 && len(doc.Fragments) == 0 {
		return nil, ErrNoDefinitions
	}
	d := &Document{source: source, ast: doc}
	if len(doc.Operations) == 1 {
		d.operation = doc.Operations[0]
	}
	return d, nil
}

// MustParse is like Parse but panics on error. Intended for package-level
// document declarations.
func MustParse(source string) *Document {
	d, err := Parse(source)
	if err != nil {
		panic("language: " + err.Error())
	}
	return d
}

// Source returns the document text as it is sent over the wire.
func (d *Document) Source() string { return d.source }

// AST returns the parsed document.
func (d *Document) AST() *QueryDocument { return d.ast }

// Operation returns the single operation, or nil for fragment-only documents.
func (d *Document) Operation() *OperationDefinition { return d.operation }

// Name returns the operation name; empty for anonymous operations.
func (d *Document) Name() string {
	if d.operation == nil {
		return ""
	}
	return d.operation.Name
}

// Kind returns the operation type; empty for fragment-only documents.
func (d *Document) Kind() Operation {
	if d.operation == nil {
		return ""
	}
	return d.operation.Operation
}

// Fragment returns the named fragment, or the only fragment when name is
// empty and the document declares exactly one.
func (d *Document) Fragment(name string) *FragmentDefinition {
	if name == "" {
		if len(d.ast.Fragments) == 1 {
			return d.ast.Fragments[0]
		}
		return nil
	}
	return d.ast.Fragments.ForName(name)
}

// Variables returns vars completed with the defaults declared by the
// operation. The input map is not modified.
func (d *Document) Variables(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	if d.operation == nil {
		return out
	}
	for _, def := range d.operation.VariableDefinitions {
		if _, ok := out[def.Variable]; ok || def.DefaultValue == nil {
			continue
		}
		out[def.Variable] = ValueToGo(def.DefaultValue, nil)
	}
	return out
}

// WithTypename returns a copy of d that requests __typename on every object
// selection set below the operation root, including fragment definitions.
func WithTypename(d *Document) *Document {
	doc, err := ParseQuery(d.source)
	if err != nil {
		// d was parsed from the same source
		panic("language: reparse: " + err.Error())
	}
	for _, op := range doc.Operations {
		op.SelectionSet = addTypename(op.SelectionSet, true)
	}
	for _, frag := range doc.Fragments {
		frag.SelectionSet = addTypename(frag.SelectionSet, false)
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)

	out := &Document{source: buf.String(), ast: doc}
	if len(doc.Operations) == 1 {
		out.operation = doc.Operations[0]
	}
	return out
}

func addTypename(set SelectionSet, root bool) SelectionSet {
	for _, sel := range set {
		switch s := sel.(type) {
		case *Field:
			if len(s.SelectionSet) > 0 {
				s.SelectionSet = addTypename(s.SelectionSet, false)
			}
		case *InlineFragment:
			// the enclosing selection set carries __typename
			s.SelectionSet = addTypename(s.SelectionSet, true)
		}
	}
	if root || hasTypename(set) {
		return set
	}
	return append(set, &Field{Name: TypenameField, Alias: TypenameField})
}

// IsAddedTypename reports whether f is a __typename field inserted by
// WithTypename rather than written in the source. Inserted fields carry no
// source position.
func IsAddedTypename(f *Field) bool {
	return f.Name == TypenameField && f.Position == nil
}

func hasTypename(set SelectionSet) bool {
	for _, sel := range set {
		if f, ok := sel.(*Field); ok && f.Name == TypenameField && ResponseName(f) == TypenameField {
			return true
		}
	}
	return false
}

// ResponseName returns the key a field occupies in a response object.
func ResponseName(f *Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// ShouldInclude evaluates @skip and @include against vars.
func ShouldInclude(directives DirectiveList, vars map[string]any) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if b, ok := directiveArg(skip, "if", vars).(bool); ok && b {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if b, ok := directiveArg(include, "if", vars).(bool); ok && !b {
			return false
		}
	}
	return true
}

func directiveArg(d *Directive, name string, vars map[string]any) any {
	for _, arg := range d.Arguments {
		if arg.Name == name {
			return ValueToGo(arg.Value, vars)
		}
	}
	return nil
}

// ArgumentValues evaluates field arguments, substituting variables.
// Arguments referencing an unset variable are omitted.
func ArgumentValues(args ArgumentList, vars map[string]any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args))
	for _, arg := range args {
		if arg.Value != nil && arg.Value.Kind == Variable {
			if _, ok := lookupVar(vars, arg.Value.Raw); !ok {
				continue
			}
		}
		out[arg.Name] = ValueToGo(arg.Value, vars)
	}
	return out
}

// ValueToGo converts an AST value to a Go value, substituting variables.
func ValueToGo(value *Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case Variable:
		v, _ := lookupVar(vars, value.Raw)
		return v
	case IntValue:
		iv, _ := strconv.ParseInt(value.Raw, 10, 64)
		return iv
	case FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case StringValue, BlockValue, EnumValue:
		return value.Raw
	case BooleanValue:
		return value.Raw == "true"
	case NullValue:
		return nil
	case ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = ValueToGo(c.Value, vars)
		}
		return out
	case ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = ValueToGo(f.Value, vars)
		}
		return m
	default:
		return nil
	}
}

func lookupVar(vars map[string]any, name string) (any, bool) {
	if v, ok := vars[name]; ok {
		return v, true
	}
	v, ok := vars[strings.TrimPrefix(name, "$")]
	return v, ok
}
