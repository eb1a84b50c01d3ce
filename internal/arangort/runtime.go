package arangort

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hanpama/aqlgraph/internal/aql"
	"github.com/hanpama/aqlgraph/internal/events"
	"github.com/hanpama/aqlgraph/internal/executor"
	"github.com/hanpama/aqlgraph/internal/schema"
)

// Runtime implements executor.Runtime on top of a Connector.
//
//   - Async fields are query stages: operation root fields and fields marked
//     @aqlNewQuery (see IsAsync). Each is extracted into a query tree from
//     its selection and run in one database round trip, with the enclosing
//     value bound to @parent. A boundary field therefore runs after the
//     stage that produced its parent.
//   - Every other field is read from the parent value by response name;
//     compiled projections key their objects that way.
//   - The async tasks of one depth run concurrently, at most
//     WithMaxConcurrency at a time. A failed task does not affect the others.
type Runtime struct {
	schema         *schema.Schema
	connector      Connector
	registry       *aql.Registry
	argResolvers   map[string]aql.ArgResolver
	customQueries  map[string]CustomQueryFunc
	typeResolver   func(abstractType string, value any) (string, error)
	maxConcurrency int
}

var _ executor.Runtime = (*Runtime)(nil)

type Option func(*Runtime)

// WithRegistry replaces the built-in builder registry.
func WithRegistry(reg *aql.Registry) Option {
	return func(r *Runtime) { r.registry = reg }
}

// WithArgResolver rewrites the arguments of the field at path, e.g.
// "user.posts", before they are bound.
func WithArgResolver(path string, fn aql.ArgResolver) Option {
	return func(r *Runtime) { r.argResolvers[path] = fn }
}

// WithCustomQuery resolves typeName.field with a caller-built query instead
// of its directive. The field must be async.
func WithCustomQuery(typeName, field string, fn CustomQueryFunc) Option {
	return func(r *Runtime) { r.customQueries[typeName+"."+field] = fn }
}

// WithTypeResolver resolves interface and union values that carry no
// "__typename" attribute.
func WithTypeResolver(fn func(abstractType string, value any) (string, error)) Option {
	return func(r *Runtime) { r.typeResolver = fn }
}

// WithMaxConcurrency bounds the queries in flight per depth. Zero or less
// means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(r *Runtime) { r.maxConcurrency = n }
}

func NewRuntime(sch *schema.Schema, connector Connector, opts ...Option) *Runtime {
	r := &Runtime{
		schema:        sch,
		connector:     connector,
		argResolvers:  make(map[string]aql.ArgResolver),
		customQueries: make(map[string]CustomQueryFunc),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// IsAsync is the schema.AsyncFunc of this runtime: root fields and
// @aqlNewQuery boundaries start query stages.
func IsAsync(_ *schema.Type, f *schema.Field, root bool) bool {
	return root || f.Directives.ForName(aql.DirectiveNewQuery) != nil
}

// ResolveSync reads the field from the parent value. It never performs I/O.
// Compiled projections are keyed by response name; values copied whole from
// a document, such as a plain interface-typed attribute, are keyed by field
// name.
func (r *Runtime) ResolveSync(_ context.Context, task executor.ResolveTask) (any, error) {
	switch src := task.Source.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if v, ok := src[task.ResponseName]; ok {
			return v, nil
		}
		return src[task.Field], nil
	default:
		return nil, fmt.Errorf("arangort: cannot read %s.%s from %T", task.ObjectType, task.Field, task.Source)
	}
}

// BatchResolveAsync runs one query stage per task.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.ResolveTask) []executor.ResolveResult {
	results := make([]executor.ResolveResult, len(tasks))
	var g errgroup.Group
	if r.maxConcurrency > 0 {
		g.SetLimit(r.maxConcurrency)
	}
	for i, task := range tasks {
		g.Go(func() error {
			v, err := r.resolve(ctx, task)
			results[i] = executor.ResolveResult{Value: v, Error: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runtime) resolve(ctx context.Context, task executor.ResolveTask) (any, error) {
	ctx = events.WithField(ctx, strings.Join(task.FieldPath(), "."))
	if fn, ok := r.customQueries[task.ObjectType+"."+task.Field]; ok {
		cq, err := fn(ctx, task)
		if err != nil {
			return nil, err
		}
		return r.RunCustom(ctx, cq, task)
	}
	q, err := r.Extract(task)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("arangort: %s.%s has no query directive", task.ObjectType, task.Field)
	}
	return r.Run(ctx, q, task.ResponseName, task.Source, ContextValue(ctx))
}

// Extract builds the query tree of an async field from every field node
// selecting it. It returns nil when the field has no builder directive.
func (r *Runtime) Extract(task executor.ResolveTask) (*aql.Query, error) {
	ex := r.extractor(task)
	path := aql.Path(task.FieldPath())
	q, err := ex.Extract(task.Fields[0], task.ObjectType, nil, path)
	if err != nil || q == nil || len(task.Fields) == 1 {
		return q, err
	}
	typeName := r.objectType(r.fieldDef(task))
	if typeName == "" {
		return q, nil
	}
	for _, f := range task.Fields[1:] {
		if err := ex.ExtractSelection(q, f.SelectionSet, typeName, path); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (r *Runtime) extractor(task executor.ResolveTask) *aql.Extractor {
	ex := &aql.Extractor{
		Schema:       r.schema,
		Registry:     r.registry,
		ArgResolvers: r.argResolvers,
	}
	if task.Request != nil {
		ex.Variables = task.Request.Variables
		if task.Request.Document != nil {
			ex.Fragments = task.Request.Document.Fragments
		}
	}
	return ex
}

func (r *Runtime) fieldDef(task executor.ResolveTask) *schema.Field {
	t := r.schema.Types[task.ObjectType]
	if t == nil {
		return nil
	}
	return t.Field(task.Field)
}

// objectType returns the object type a field returns, or "" for leaves and
// abstract types.
func (r *Runtime) objectType(def *schema.Field) string {
	if def == nil {
		return ""
	}
	t := r.schema.Types[def.Type.GetNamedType()]
	if t == nil || t.Kind != schema.TypeKindObject {
		return ""
	}
	return t.Name
}

// ResolveType reads "__typename" from object values. Abstract types with a
// single possible type need no hint.
func (r *Runtime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
	}
	if r.typeResolver != nil {
		return r.typeResolver(abstractType, value)
	}
	if t := r.schema.Types[abstractType]; t != nil && len(t.PossibleTypes) == 1 {
		return t.PossibleTypes[0], nil
	}
	return "", fmt.Errorf("arangort: cannot resolve the concrete type of %s", abstractType)
}
