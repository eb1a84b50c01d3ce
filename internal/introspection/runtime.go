// Package introspection answers __schema and __type on top of any runtime.
package introspection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	executor "github.com/hanpama/aqlgraph/internal/executor"
	schema "github.com/hanpama/aqlgraph/internal/schema"
)

// Wrapper holds the wrapping runtime and the schema it must be executed with.
type Wrapper struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap extends sch with the introspection types and returns a runtime that
// resolves them, delegating every other field to base.
func Wrap(base executor.Runtime, sch *schema.Schema) (*Wrapper, error) {
	extended, err := extendSchema(sch)
	if err != nil {
		return nil, err
	}
	return &Wrapper{
		Runtime: &runtime{base: base, schema: sch},
		Schema:  extended,
	}, nil
}

type runtime struct {
	base executor.Runtime
	// schema is the user schema; introspection does not describe itself.
	schema *schema.Schema
}

func (r *runtime) ResolveSync(ctx context.Context, task executor.ResolveTask) (any, error) {
	if v, ok := r.resolve(task); ok {
		return v, nil
	}
	return r.base.ResolveSync(ctx, task)
}

func (r *runtime) resolve(task executor.ResolveTask) (any, bool) {
	switch src := task.Source.(type) {
	case *schema.Schema:
		return schemaField(src, task.Field)
	case *schema.Type:
		return typeField(r.schema, src, task.Field, task.Args)
	case *schema.TypeRef:
		return typeRefField(r.schema, src, task.Field, task.Args)
	case *schema.Field:
		return fieldField(src, task.Field, task.Args)
	case *schema.InputValue:
		return inputValueField(src, task.Field)
	case *schema.EnumValue:
		return enumValueField(src, task.Field)
	case *schema.Directive:
		return directiveField(src, task.Field, task.Args)
	}
	if task.ObjectType != r.schema.QueryType {
		return nil, false
	}
	switch task.Field {
	case "__schema":
		return r.schema, true
	case "__type":
		name, _ := task.Args["name"].(string)
		if t := r.schema.Types[name]; t != nil {
			return t, true
		}
		return nil, true
	}
	return nil, false
}

func (r *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.ResolveTask) []executor.ResolveResult {
	return r.base.BatchResolveAsync(ctx, tasks)
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if strings.HasPrefix(typeName, "__") {
		return fmt.Sprint(value), nil
	}
	return r.base.SerializeLeafValue(ctx, typeName, value)
}

func schemaField(sch *schema.Schema, field string) (any, bool) {
	switch field {
	case "description":
		return optional(sch.Description), true
	case "types":
		out := make([]*schema.Type, 0, len(sch.Types))
		for _, t := range sch.Types {
			out = append(out, t)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, true
	case "queryType":
		return nilIfAbsent(sch.GetQueryType()), true
	case "mutationType":
		return nilIfAbsent(sch.GetMutationType()), true
	case "subscriptionType":
		return nilIfAbsent(sch.GetSubscriptionType()), true
	case "directives":
		out := make([]*schema.Directive, 0, len(sch.Directives))
		for _, d := range sch.Directives {
			out = append(out, d)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, true
	}
	return nil, false
}

func typeField(sch *schema.Schema, t *schema.Type, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return optional(t.Description), true
	case "specifiedByURL":
		if t.SpecifiedByURL == nil {
			return nil, true
		}
		return *t.SpecifiedByURL, true
	case "isOneOf":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return t.OneOf, true
	case "ofType":
		return nil, true
	case "fields":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil, true
		}
		out := []*schema.Field{}
		for _, f := range t.Fields {
			if f.IsDeprecated && !includeDeprecated(args) {
				continue
			}
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			out = append(out, f)
		}
		return out, true
	case "interfaces":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil, true
		}
		return lookupTypes(sch, t.Interfaces), true
	case "possibleTypes":
		if t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
			return nil, true
		}
		return lookupTypes(sch, t.PossibleTypes), true
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil, true
		}
		out := []*schema.EnumValue{}
		for _, ev := range t.EnumValues {
			if !ev.IsDeprecated || includeDeprecated(args) {
				out = append(out, ev)
			}
		}
		return out, true
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return inputValues(t.InputFields, args), true
	}
	return nil, false
}

// typeRefField describes wrapper types; named references answer for the
// type they name.
func typeRefField(sch *schema.Schema, tr *schema.TypeRef, field string, args map[string]any) (any, bool) {
	if tr.Kind == schema.TypeRefKindNamed {
		def := sch.Types[tr.Named]
		if def == nil {
			return nil, true
		}
		return typeField(sch, def, field, args)
	}
	switch field {
	case "kind":
		return string(tr.Kind), true
	case "ofType":
		return tr.OfType, true
	}
	return nil, true
}

func fieldField(f *schema.Field, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return optional(f.Description), true
	case "args":
		return inputValues(f.Arguments, args), true
	case "type":
		return f.Type, true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(f.IsDeprecated, f.DeprecationReason), true
	}
	return nil, false
}

func inputValueField(a *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return optional(a.Description), true
	case "type":
		return a.Type, true
	case "defaultValue":
		if a.DefaultValue == nil {
			return nil, true
		}
		return fmt.Sprintf("%v", a.DefaultValue), true
	case "isDeprecated":
		return a.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(a.IsDeprecated, a.DeprecationReason), true
	}
	return nil, false
}

func enumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return optional(ev.Description), true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(ev.IsDeprecated, ev.DeprecationReason), true
	}
	return nil, false
}

func directiveField(d *schema.Directive, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return optional(d.Description), true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		return append([]string(nil), d.Locations...), true
	case "args":
		return inputValues(d.Arguments, args), true
	}
	return nil, false
}

func lookupTypes(sch *schema.Schema, names []string) []*schema.Type {
	out := []*schema.Type{}
	for _, name := range names {
		if def := sch.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func inputValues(in []*schema.InputValue, args map[string]any) []*schema.InputValue {
	out := []*schema.InputValue{}
	for _, a := range in {
		if !a.IsDeprecated || includeDeprecated(args) {
			out = append(out, a)
		}
	}
	return out
}

func includeDeprecated(args map[string]any) bool {
	b, _ := args["includeDeprecated"].(bool)
	return b
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

// optional maps empty strings to null.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nilIfAbsent avoids a typed nil pointer reaching the executor.
func nilIfAbsent(t *schema.Type) any {
	if t == nil {
		return nil
	}
	return t
}
