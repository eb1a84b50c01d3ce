package aql

import (
	"fmt"

	language "github.com/hanpama/aqlgraph/internal/language"
	"github.com/hanpama/aqlgraph/internal/schema"
)

// ArgResolver rewrites the resolved arguments of a field before they are
// bound, e.g. to decode an opaque cursor.
type ArgResolver func(args map[string]any) (map[string]any, error)

// Extractor builds Query trees from operation selections. Directive
// configuration is read from the schema field definitions.
type Extractor struct {
	Schema   *schema.Schema
	Registry *Registry
	// ArgResolvers are keyed by response path, e.g. "user.posts".
	ArgResolvers map[string]ArgResolver
	Variables    map[string]any
	// Fragments resolves spreads the validator did not link.
	Fragments language.FragmentDefinitions
}

var builtinRegistry = DefaultRegistry()

func (e *Extractor) registry() *Registry {
	if e.Registry == nil {
		return builtinRegistry
	}
	return e.Registry
}

// Extract processes one selected field of parentType. path ends with the
// field's response name. With a nil parent the field is the root of a new
// tree. It returns nil for fields that are not builder-backed, meta fields
// and, below the root, fields marked with @aqlNewQuery.
func (e *Extractor) Extract(field *language.Field, parentType string, parent *Query, path Path) (*Query, error) {
	if isMetaField(field.Name) {
		return nil, nil
	}
	typ := e.Schema.Types[parentType]
	if typ == nil {
		return nil, &SchemaConsistencyError{Type: parentType, Field: field.Name}
	}
	def := typ.Field(field.Name)
	if def == nil {
		return nil, &SchemaConsistencyError{Type: parentType, Field: field.Name}
	}
	name := responseName(field)

	if parent != nil && !parent.addFieldName(name, field.Name) {
		// A repeated response name selects the same field again; merge the
		// sub-selections into the node built for the first occurrence.
		existing := parent.FieldQueries[name]
		if existing == nil {
			return nil, nil
		}
		return existing, e.extractChildren(existing, field, def, path)
	}
	if parent != nil && def.Directives.ForName(DirectiveNewQuery) != nil {
		return nil, nil
	}
	inst, ok := e.builder(def)
	if !ok {
		if parent == nil || !e.isObjectSelection(field, def) {
			return nil, nil
		}
		inst = plainObject(field.Name)
	}
	if err := validateNesting(parent, inst.Builder); err != nil {
		return nil, err
	}

	args, err := e.arguments(field, def, path)
	if err != nil {
		return nil, err
	}
	q := NewQuery(inst, schema.IsList(def.Type))
	q.Params.Args = args
	if d := def.Directives.ForName(DirectiveCondition); d != nil {
		q.Condition = &Condition{Expression: stringArg(directiveArgs(d), "expression")}
	}
	if err := e.extractChildren(q, field, def, path); err != nil {
		return nil, err
	}
	if parent != nil {
		parent.FieldQueries[name] = q
	}
	return q, nil
}

func (e *Extractor) extractChildren(q *Query, field *language.Field, def *schema.Field, path Path) error {
	if len(field.SelectionSet) == 0 {
		return nil
	}
	t := e.Schema.Types[def.Type.GetNamedType()]
	if t == nil || t.Kind != schema.TypeKindObject {
		return nil
	}
	return e.ExtractSelection(q, field.SelectionSet, t.Name, path)
}

// isObjectSelection reports whether field selects into an object type. Such a
// field is compiled as a nested projection even without a builder so its
// sub-fields are keyed by response name.
func (e *Extractor) isObjectSelection(field *language.Field, def *schema.Field) bool {
	if len(field.SelectionSet) == 0 {
		return false
	}
	t := e.Schema.Types[def.Type.GetNamedType()]
	return t != nil && t.Kind == schema.TypeKindObject
}

// ExtractSelection populates parent from a selection set on the object type
// typeName. Fragments are expanded into the same node.
func (e *Extractor) ExtractSelection(parent *Query, set language.SelectionSet, typeName string, path Path) error {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			if !e.included(sel.Directives) {
				continue
			}
			if _, err := e.Extract(sel, typeName, parent, path.Append(responseName(sel))); err != nil {
				return err
			}
		case *language.InlineFragment:
			if !e.included(sel.Directives) || !e.applies(sel.TypeCondition, typeName) {
				continue
			}
			if err := e.ExtractSelection(parent, sel.SelectionSet, typeName, path); err != nil {
				return err
			}
		case *language.FragmentSpread:
			if !e.included(sel.Directives) {
				continue
			}
			frag := sel.Definition
			if frag == nil {
				frag = e.Fragments.ForName(sel.Name)
			}
			if frag == nil {
				return fmt.Errorf("aql: unknown fragment %q", sel.Name)
			}
			if !e.applies(frag.TypeCondition, typeName) {
				continue
			}
			if err := e.ExtractSelection(parent, frag.SelectionSet, typeName, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// builder returns the first directive of def with a registered builder.
func (e *Extractor) builder(def *schema.Field) (BuilderInstance, bool) {
	for _, d := range def.Directives {
		if b, ok := e.registry().Lookup(d.Name); ok {
			return BuilderInstance{Builder: b, Directive: directiveArgs(d)}, true
		}
	}
	return BuilderInstance{}, false
}

// arguments merges supplied arguments over schema defaults. Arguments bound
// to variables the request did not provide are left out.
func (e *Extractor) arguments(field *language.Field, def *schema.Field, path Path) (map[string]any, error) {
	args := make(map[string]any)
	for _, a := range def.Arguments {
		if a.DefaultValue != nil {
			args[a.Name] = a.DefaultValue
		}
	}
	for _, a := range field.Arguments {
		if a.Value != nil && a.Value.Kind == language.Variable {
			if _, ok := e.Variables[a.Value.Raw]; !ok {
				continue
			}
		}
		args[a.Name] = language.ValueToGo(a.Value, e.Variables)
	}
	if resolve, ok := e.ArgResolvers[path.String()]; ok {
		var err error
		if args, err = resolve(args); err != nil {
			return nil, fmt.Errorf("aql: resolve arguments of %s: %w", path, err)
		}
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}

func (e *Extractor) included(directives language.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil && e.condition(d) {
		return false
	}
	if d := directives.ForName("include"); d != nil && !e.condition(d) {
		return false
	}
	return true
}

func (e *Extractor) condition(d *language.Directive) bool {
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false
	}
	v, _ := language.ValueToGo(arg.Value, e.Variables).(bool)
	return v
}

func (e *Extractor) applies(typeCondition, typeName string) bool {
	if typeCondition == "" || typeCondition == typeName {
		return true
	}
	t := e.Schema.Types[typeCondition]
	if t == nil {
		return false
	}
	for _, p := range t.PossibleTypes {
		if p == typeName {
			return true
		}
	}
	return false
}

// validateNesting checks the accessors that read a value bound by their
// enclosing builder.
func validateNesting(parent *Query, b Builder) error {
	var want Kind
	switch b.Kind() {
	case KindEdgeNode:
		want = KindEdge
	case KindRelayEdges, KindRelayPageInfo:
		want = KindRelayConnection
	case KindRelayNode:
		want = KindRelayEdges
	default:
		return nil
	}
	if parent == nil || parent.Builder.Kind() != want {
		return configErrorf(b.Name(), "must be nested in a @%s field", directiveOf(want))
	}
	return nil
}

func directiveOf(k Kind) string {
	switch k {
	case KindEdge:
		return DirectiveEdge
	case KindRelayConnection:
		return DirectiveRelayConnection
	case KindRelayEdges:
		return DirectiveRelayEdges
	}
	return k.String()
}

// directiveArgs converts directive arguments, filling in declared defaults.
func directiveArgs(d *language.Directive) map[string]any {
	out := make(map[string]any, len(d.Arguments))
	if d.Definition != nil {
		for _, a := range d.Definition.Arguments {
			if a.DefaultValue != nil {
				out[a.Name] = language.ValueToGo(a.DefaultValue, nil)
			}
		}
	}
	for _, a := range d.Arguments {
		out[a.Name] = language.ValueToGo(a.Value, nil)
	}
	return out
}

func responseName(f *language.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func isMetaField(name string) bool {
	return name == "__typename" || name == "__schema" || name == "__type"
}
