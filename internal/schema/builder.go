package schema

import (
	"sort"
	"strings"

	language "github.com/hanpama/aqlgraph/internal/language"
)

// AsyncFunc decides whether a field is resolved in a batched, I/O performing
// step (true) or read synchronously from its parent value (false). root is
// true for fields of the operation root types.
type AsyncFunc func(t *Type, f *Field, root bool) bool

type BuildOptions struct {
	Async AsyncFunc
}

type BuildOption func(*BuildOptions)

func WithAsync(f AsyncFunc) BuildOption { return func(o *BuildOptions) { o.Async = f } }

// BuildFromSDL parses and validates SDL and returns the corresponding Schema.
func BuildFromSDL(sdl string, opts ...BuildOption) (*Schema, error) {
	return BuildFromSources([]*language.Source{{Name: "schema.graphql", Input: sdl}}, opts...)
}

// BuildFromSources loads every source as part of one schema.
func BuildFromSources(sources []*language.Source, opts ...BuildOption) (*Schema, error) {
	src, err := language.LoadSchema(sources...)
	if err != nil {
		return nil, err
	}
	return Build(src, opts...)
}

// Build converts a validated gqlparser schema into an executable Schema.
// Introspection types and meta fields are left out.
func Build(src *language.Schema, opts ...BuildOption) (*Schema, error) {
	o := &BuildOptions{}
	for _, f := range opts {
		f(o)
	}

	s := NewSchema("")
	if src.Query != nil {
		s.SetQueryType(src.Query.Name)
	}
	if src.Mutation != nil {
		s.SetMutationType(src.Mutation.Name)
	}
	if src.Subscription != nil {
		s.SetSubscriptionType(src.Subscription.Name)
	}

	names := make([]string, 0, len(src.Types))
	for name := range src.Types {
		if strings.HasPrefix(name, "__") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := src.Types[name]
		t := buildType(def)
		if def.Kind == language.Interface || def.Kind == language.Union {
			for _, p := range src.PossibleTypes[name] {
				t.AddPossibleType(p.Name)
			}
		}
		s.AddType(t)
	}

	if o.Async != nil {
		for _, name := range names {
			t := s.Types[name]
			root := s.IsRootType(name)
			for _, f := range t.Fields {
				f.SetAsync(o.Async(t, f, root))
			}
		}
	}

	dirNames := make([]string, 0, len(src.Directives))
	for name := range src.Directives {
		dirNames = append(dirNames, name)
	}
	sort.Strings(dirNames)
	for _, name := range dirNames {
		def := src.Directives[name]
		d := NewDirective(def.Name, def.Description).SetRepeatable(def.IsRepeatable)
		for _, loc := range def.Locations {
			d.Locations = append(d.Locations, string(loc))
		}
		for _, arg := range def.Arguments {
			d.AddArgument(buildArgument(arg))
		}
		s.AddDirective(d)
	}
	return s, nil
}

// BuildType converts a single type definition. Possible types of abstract
// types are left empty.
func BuildType(def *language.Definition) *Type { return buildType(def) }

func buildType(def *language.Definition) *Type {
	switch def.Kind {
	case language.Object, language.Interface:
		kind := TypeKindObject
		if def.Kind == language.Interface {
			kind = TypeKindInterface
		}
		t := NewType(def.Name, kind, def.Description)
		for _, name := range def.Interfaces {
			t.AddInterface(name)
		}
		for _, fd := range def.Fields {
			if strings.HasPrefix(fd.Name, "__") {
				continue
			}
			t.AddField(buildField(fd))
		}
		return t
	case language.Union:
		return NewType(def.Name, TypeKindUnion, def.Description)
	case language.Enum:
		t := NewType(def.Name, TypeKindEnum, def.Description)
		for _, v := range def.EnumValues {
			ev := NewEnumValue(v.Name, v.Description)
			if d := v.Directives.ForName("deprecated"); d != nil {
				ev.Deprecate(deprecationReason(d))
			}
			t.AddEnumValue(ev)
		}
		return t
	case language.InputObject:
		t := NewType(def.Name, TypeKindInputObject, def.Description)
		t.OneOf = def.Directives.ForName("oneOf") != nil
		for _, fd := range def.Fields {
			in := NewInputValue(fd.Name, fd.Description, TypeRefFromAST(fd.Type)).
				SetDefault(language.ValueToGo(fd.DefaultValue, nil))
			t.AddInputField(in)
		}
		return t
	default:
		return NewType(def.Name, TypeKindScalar, def.Description)
	}
}

func buildField(fd *language.FieldDefinition) *Field {
	f := NewField(fd.Name, fd.Description, TypeRefFromAST(fd.Type))
	f.Directives = fd.Directives
	if d := fd.Directives.ForName("deprecated"); d != nil {
		f.Deprecate(deprecationReason(d))
	}
	for _, arg := range fd.Arguments {
		f.AddArgument(buildArgument(arg))
	}
	return f
}

func buildArgument(arg *language.ArgumentDefinition) *InputValue {
	in := NewInputValue(arg.Name, arg.Description, TypeRefFromAST(arg.Type))
	if arg.DefaultValue != nil {
		in.SetDefault(language.ValueToGo(arg.DefaultValue, nil))
	}
	return in
}

func deprecationReason(d *language.Directive) string {
	if a := d.Arguments.ForName("reason"); a != nil && a.Value != nil {
		return a.Value.Raw
	}
	return "No longer supported"
}

// TypeRefFromAST converts a gqlparser type expression.
func TypeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(TypeRefFromAST(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		return NonNullType(ref)
	}
	return ref
}

// ---------------- constructors ----------------

func NewSchema(description string) *Schema {
	return &Schema{
		Types:       make(map[string]*Type),
		Directives:  make(map[string]*Directive),
		Description: description,
	}
}

func (s *Schema) SetQueryType(name string) *Schema        { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema     { s.MutationType = name; return s }
func (s *Schema) SetSubscriptionType(name string) *Schema { s.SubscriptionType = name; return s }
func (s *Schema) AddType(t *Type) *Schema                 { s.Types[t.Name] = t; return s }
func (s *Schema) AddDirective(d *Directive) *Schema       { s.Directives[d.Name] = d; return s }

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type           { t.Fields = append(t.Fields, f); return t }
func (t *Type) AddInterface(name string) *Type    { t.Interfaces = append(t.Interfaces, name); return t }
func (t *Type) AddPossibleType(name string) *Type { t.PossibleTypes = append(t.PossibleTypes, name); return t }
func (t *Type) AddEnumValue(v *EnumValue) *Type   { t.EnumValues = append(t.EnumValues, v); return t }
func (t *Type) AddInputField(v *InputValue) *Type { t.InputFields = append(t.InputFields, v); return t }

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

func (f *Field) SetAsync(async bool) *Field        { f.Async = async; return f }
func (f *Field) AddArgument(in *InputValue) *Field { f.Arguments = append(f.Arguments, in); return f }

func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

// Argument returns the argument definition named name, or nil.
func (f *Field) Argument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

func (e *EnumValue) Deprecate(reason string) *EnumValue {
	e.IsDeprecated = true
	e.DeprecationReason = reason
	return e
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

func (in *InputValue) SetDefault(v any) *InputValue { in.DefaultValue = v; return in }

func NewDirective(name, description string) *Directive {
	return &Directive{Name: name, Description: description}
}

func (d *Directive) SetRepeatable(r bool) *Directive       { d.IsRepeatable = r; return d }
func (d *Directive) AddArgument(in *InputValue) *Directive { d.Arguments = append(d.Arguments, in); return d }
