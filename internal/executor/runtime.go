package executor

import (
	"context"

	language "github.com/hanpama/aqlgraph/internal/language"
)

// Runtime is the host integration surface of the Executor.
//
// Contract
//   - The Executor runs breadth-first. At each depth it drains synchronous
//     fields via ResolveSync, then calls BatchResolveAsync once with every
//     async task found at that depth.
//   - ResolveSync is never invoked for async fields, and BatchResolveAsync is
//     only invoked with at least one task.
//   - For mutations every root field is completed, including all of its
//     async descendants, before the next root field is resolved.
//   - Errors become located GraphQL errors. Non-Null fields propagate null to
//     the nearest nullable ancestor.
//   - Implementations must not mutate task sources or args.
type Runtime interface {
	// ResolveSync resolves a sync field from its parent value. Return
	// (nil, nil) for a GraphQL null.
	ResolveSync(ctx context.Context, task ResolveTask) (any, error)

	// BatchResolveAsync resolves one depth of async fields. It must return
	// exactly one result per task, in task order; a failed task does not
	// affect the others.
	BatchResolveAsync(ctx context.Context, tasks []ResolveTask) []ResolveResult

	// ResolveType returns the concrete object type of a value of an interface
	// or union type.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue converts a scalar or enum value to a JSON-safe Go
	// value. Enums serialize to their name.
	SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error)
}

// ResolveTask describes one field instance to resolve.
type ResolveTask struct {
	// ObjectType is the parent object type name, the root type for root fields.
	ObjectType string
	Field      string
	// ResponseName is the alias, or the field name when not aliased.
	ResponseName string
	Path         Path
	// Source is the parent value, the initial value for root fields.
	Source any
	// Args are the coerced field arguments including defaults.
	Args map[string]any
	// Fields are the AST nodes selecting this response name; their merged
	// selection sets describe what the field must produce.
	Fields  []*language.Field
	Request *Request
}

// Request is the operation a task belongs to.
type Request struct {
	Document  *language.QueryDocument
	Operation *language.OperationDefinition
	// Variables are the coerced variable values.
	Variables map[string]any
}

// SelectionSet merges the selection sets of the task's field nodes.
func (t ResolveTask) SelectionSet() language.SelectionSet {
	return mergeSelectionSets(t.Fields)
}

// FieldPath returns the response names of the path, dropping list indices.
func (t ResolveTask) FieldPath() []string {
	out := make([]string, 0, len(t.Path))
	for _, p := range t.Path {
		if name, ok := p.(string); ok {
			out = append(out, name)
		}
	}
	return out
}

type ResolveResult struct {
	// Value is the raw value prior to completion, nil on error.
	Value any
	Error error
}
