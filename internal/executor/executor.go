package executor

import (
	"context"
	"fmt"
	"reflect"

	language "github.com/hanpama/aqlgraph/internal/language"
	schema "github.com/hanpama/aqlgraph/internal/schema"
)

type Path []PathElement

type PathElement any

// executionState holds the state of one request.
type executionState struct {
	ctx     context.Context
	runtime Runtime
	schema  *schema.Schema
	request *Request
	errors  []GraphQLError
	// pending holds the async tasks queued at the current depth.
	pending []pendingTask
	// nullified holds paths already set to null by Non-Null propagation.
	nullified map[string]struct{}
}

type pendingTask struct {
	task      ResolveTask
	fieldType *schema.TypeRef
}

// asyncPending marks a response entry that a later batch fills in.
type asyncPending struct{}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// ExecuteRequest executes the named operation of document. operationName may
// be empty when the document holds a single operation.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := getOperation(document, operationName)
	if operation == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	}

	variables, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	case language.Subscription:
		return &ExecutionResult{Errors: []GraphQLError{{Message: "subscriptions are not supported"}}}
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)}}}
	}
	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation)}}}
	}

	state := &executionState{
		ctx:       ctx,
		runtime:   e.runtime,
		schema:    e.schema,
		request:   &Request{Document: document, Operation: operation, Variables: variables},
		errors:    []GraphQLError{},
		nullified: make(map[string]struct{}),
	}
	data := make(map[string]any)

	fields := collectFields(state, rootType, operation.SelectionSet).orderedFields()
	if operation.Operation == language.Mutation {
		// Root mutation fields run one after another, each to completion.
		for _, f := range fields {
			state.executeField(rootType, initialValue, f, Path{}, data)
			state.drain(data)
		}
	} else {
		for _, f := range fields {
			state.executeField(rootType, initialValue, f, Path{}, data)
		}
		state.drain(data)
	}
	return &ExecutionResult{Data: data, Errors: state.errors}
}

// drain resolves queued async tasks depth by depth until none are left.
func (s *executionState) drain(data map[string]any) {
	for len(s.pending) > 0 {
		live := make([]pendingTask, 0, len(s.pending))
		for _, p := range s.pending {
			if !s.isNullified(p.task.Path) {
				live = append(live, p)
			}
		}
		s.pending = nil
		if len(live) == 0 {
			return
		}
		tasks := make([]ResolveTask, len(live))
		for i, p := range live {
			tasks[i] = p.task
		}
		results := s.runtime.BatchResolveAsync(s.ctx, tasks)
		for i, p := range live {
			var res ResolveResult
			if i < len(results) {
				res = results[i]
			} else {
				res = ResolveResult{Error: fmt.Errorf("runtime returned no result for %s", pathToString(p.task.Path))}
			}
			s.completeAsync(p, res, data)
		}
	}
}

// executeSelectionSet executes the fields of objectType. It returns nil when
// a Non-Null child is null, which nullifies the object.
func (s *executionState) executeSelectionSet(objectType *schema.Type, set language.SelectionSet, objectValue any, path Path) map[string]any {
	result := make(map[string]any)
	for _, f := range collectFields(s, objectType, set).orderedFields() {
		if !s.executeField(objectType, objectValue, f, path, result) {
			return nil
		}
	}
	return result
}

// executeField resolves one collected field into result. It reports false
// when a Non-Null field below the root resolved to null.
func (s *executionState) executeField(objectType *schema.Type, objectValue any, f collectedField, path Path, result map[string]any) bool {
	field := f.Fields[0]
	fieldPath := appendPath(path, f.ResponseName)

	if field.Name == "__typename" {
		result[f.ResponseName] = objectType.Name
		return true
	}
	def := objectType.Field(field.Name)
	if def == nil {
		s.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", field.Name, objectType.Name), fieldPath)
		return true
	}

	task := ResolveTask{
		ObjectType:   objectType.Name,
		Field:        field.Name,
		ResponseName: f.ResponseName,
		Path:         fieldPath,
		Source:       objectValue,
		Args:         coerceArgumentValues(def, field.Arguments, s.request.Variables, s, fieldPath),
		Fields:       f.Fields,
		Request:      s.request,
	}
	if def.Async {
		s.pending = append(s.pending, pendingTask{task: task, fieldType: def.Type})
		result[f.ResponseName] = asyncPending{}
		return true
	}

	value, err := s.runtime.ResolveSync(s.ctx, task)
	if err != nil {
		s.addResolverError(err, fieldPath)
		value = nil
	}
	completed := s.completeValue(def.Type, f.Fields, value, fieldPath)
	if isNullish(completed) {
		if schema.IsNonNull(def.Type) && len(path) > 0 {
			return false
		}
		completed = nil
	}
	result[f.ResponseName] = completed
	return true
}

// completeAsync writes a batch result, propagating Non-Null violations to the
// root field.
func (s *executionState) completeAsync(p pendingTask, res ResolveResult, data map[string]any) {
	path := p.task.Path
	if s.isNullified(path) {
		return
	}
	var completed any
	if res.Error != nil {
		s.addResolverError(res.Error, path)
	} else {
		completed = s.completeValue(p.fieldType, p.task.Fields, res.Value, path)
	}
	if isNullish(completed) {
		if schema.IsNonNull(p.fieldType) {
			top := topLevelFieldPath(path)
			setValueAtPath(data, top, nil)
			s.markNullified(top)
			return
		}
		completed = nil
	}
	setValueAtPath(data, path, completed)
}

func (s *executionState) completeValue(fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !s.hasErrorAtPath(path) {
				s.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path)
			}
			return nil
		}
		return s.completeValue(schema.Unwrap(fieldType), fields, result, path)
	}
	if isNullish(result) {
		return nil
	}
	if schema.IsList(fieldType) {
		return s.completeListValue(fieldType, fields, result, path)
	}

	name := schema.GetNamedType(fieldType)
	t := s.schema.Types[name]
	if t == nil {
		s.addError(fmt.Sprintf("Unknown type: %s", name), path)
		return nil
	}
	switch t.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		v, err := s.runtime.SerializeLeafValue(s.ctx, name, result)
		if err != nil {
			s.addError(err.Error(), path)
			return nil
		}
		return v
	case schema.TypeKindObject:
		return s.executeSelectionSet(t, mergeSelectionSets(fields), result, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return s.completeAbstractValue(name, fields, result, path)
	default:
		s.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", t.Kind), path)
		return nil
	}
}

func (s *executionState) completeListValue(listType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	items, ok := result.([]any)
	if !ok {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice {
			s.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}
	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		v := s.completeValue(inner, fields, item, appendPath(path, i))
		if schema.IsNonNull(inner) && isNullish(v) {
			return nil
		}
		completed[i] = v
	}
	return completed
}

func (s *executionState) completeAbstractValue(abstractType string, fields []*language.Field, result any, path Path) any {
	typeName, err := s.runtime.ResolveType(s.ctx, abstractType, result)
	if err != nil {
		s.addError(err.Error(), path)
		return nil
	}
	t := s.schema.Types[typeName]
	if t == nil || t.Kind != schema.TypeKindObject {
		s.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractType, typeName), path)
		return nil
	}
	return s.executeSelectionSet(t, mergeSelectionSets(fields), result, path)
}

func (s *executionState) addError(message string, path Path) {
	s.errors = append(s.errors, GraphQLError{Message: message, Path: path})
}

func (s *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range s.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

func (s *executionState) markNullified(p Path) {
	if key := pathToString(p); key != "" {
		s.nullified[key] = struct{}{}
	}
}

func (s *executionState) isNullified(p Path) bool {
	if len(s.nullified) == 0 {
		return false
	}
	for i := range p {
		if _, ok := s.nullified[pathToString(p[:i+1])]; ok {
			return true
		}
	}
	return false
}

func pathToString(path Path) string {
	result := ""
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				result += "."
			}
			result += v
		case int:
			result += fmt.Sprintf("[%d]", v)
		}
	}
	return result
}

func appendPath(path Path, elem PathElement) Path {
	out := make(Path, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}

func topLevelFieldPath(p Path) Path {
	for _, elem := range p {
		if name, ok := elem.(string); ok {
			return Path{name}
		}
	}
	return Path{}
}

func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" && len(document.Operations) == 1 {
		return document.Operations[0]
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op
		}
	}
	return nil
}

// setValueAtPath writes value into the response tree, creating intermediate
// objects as needed.
func setValueAtPath(root map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	current := any(root)
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return
			}
			next, exists := m[e]
			if !exists {
				next = make(map[string]any)
				m[e] = next
			}
			current = next
		case int:
			list, ok := current.([]any)
			if !ok || e >= len(list) {
				return
			}
			if list[e] == nil {
				list[e] = make(map[string]any)
			}
			current = list[e]
		}
	}
	switch e := path[len(path)-1].(type) {
	case string:
		if m, ok := current.(map[string]any); ok {
			m[e] = value
		}
	case int:
		if list, ok := current.([]any); ok && e < len(list) {
			list[e] = value
		}
	}
}

func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish reports nil interfaces and typed nils.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
