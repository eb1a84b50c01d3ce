package arangort

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hanpama/aqlgraph/internal/aql"
	"github.com/hanpama/aqlgraph/internal/executor"
	"github.com/hanpama/aqlgraph/internal/logging"
)

// Run compiles q as the root of one query stage and executes it. parent and
// contextValue are bound to @parent and @context. The result is the first
// row, or nil when the query returned none.
func (r *Runtime) Run(ctx context.Context, q *aql.Query, fieldName string, parent, contextValue any) (any, error) {
	prog, err := aql.Prepare(q, fieldName, parent, contextValue)
	if err != nil {
		return nil, err
	}
	return r.execute(ctx, fieldName, prog.Text, prog.BindVars)
}

// CustomQuery is a caller-built statement block run in place of a field's
// directive. Its rows become the field value and the selection is projected
// from them as usual.
type CustomQuery struct {
	Text string
	// BindVars are merged into the generated bind variables. They may not
	// use the names "parent", "context" or the "field_" prefix.
	BindVars map[string]any
}

// CustomQueryFunc builds the custom query of one field instance.
type CustomQueryFunc func(ctx context.Context, task executor.ResolveTask) (CustomQuery, error)

// RunCustom runs cq as the value of the task's field.
func (r *Runtime) RunCustom(ctx context.Context, cq CustomQuery, task executor.ResolveTask) (any, error) {
	for name := range cq.BindVars {
		if name == "parent" || name == "context" || strings.HasPrefix(name, aql.BindVarPrefix) {
			return nil, fmt.Errorf("arangort: custom bind variable %q shadows a generated name", name)
		}
	}
	def := r.fieldDef(task)
	if def == nil {
		return nil, &aql.SchemaConsistencyError{Type: task.ObjectType, Field: task.Field}
	}

	q := aql.NewQuery(aql.BuilderInstance{Builder: &aql.CustomQueryBuilder{Text: cq.Text}}, def.Type.IsList())
	if len(task.Args) > 0 {
		q.Params.Args = task.Args
	}
	if typeName := r.objectType(def); typeName != "" {
		ex := r.extractor(task)
		if err := ex.ExtractSelection(q, task.SelectionSet(), typeName, aql.Path(task.FieldPath())); err != nil {
			return nil, err
		}
	}

	prog, err := aql.Prepare(q, task.ResponseName, task.Source, ContextValue(ctx))
	if err != nil {
		return nil, err
	}
	for name, v := range cq.BindVars {
		prog.BindVars[name] = v
	}
	return r.execute(ctx, task.ResponseName, prog.Text, prog.BindVars)
}

func (r *Runtime) execute(ctx context.Context, fieldName, text string, bindVars map[string]any) (any, error) {
	bindVars = pruneBindVars(text, bindVars)
	logging.Debug().
		Str("field", fieldName).
		Str("query", text).
		Strs("bind_vars", bindVarNames(bindVars)).
		Msg("running aql query")

	rows, err := r.connector.Query(ctx, text, bindVars)
	if err != nil {
		logging.Error().Err(err).Str("field", fieldName).Msg("aql query failed")
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

var bindVarRef = regexp.MustCompile(`@@?[A-Za-z_][A-Za-z0-9_]*`)

// pruneBindVars drops the bind variables text never references; the
// database rejects queries declaring unused parameters. Collection
// parameters are referenced as @@name and keyed "@name".
func pruneBindVars(text string, bindVars map[string]any) map[string]any {
	used := make(map[string]bool)
	for _, ref := range bindVarRef.FindAllString(text, -1) {
		used[ref[1:]] = true
	}
	out := make(map[string]any, len(used))
	for name, v := range bindVars {
		if used[name] {
			out[name] = v
		}
	}
	return out
}

func bindVarNames(bindVars map[string]any) []string {
	names := make([]string, 0, len(bindVars))
	for name := range bindVars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
