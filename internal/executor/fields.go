package executor

import (
	language "github.com/hanpama/aqlgraph/internal/language"
	schema "github.com/hanpama/aqlgraph/internal/schema"
)

// collectedFieldMap groups field nodes by response name in query order.
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

func (m *collectedFieldMap) add(responseName string, field *language.Field) {
	if i, ok := m.index[responseName]; ok {
		m.fields[i].Fields = append(m.fields[i].Fields, field)
		return
	}
	m.index[responseName] = len(m.fields)
	m.fields = append(m.fields, collectedField{ResponseName: responseName, Fields: []*language.Field{field}})
}

func (m *collectedFieldMap) orderedFields() []collectedField {
	return m.fields
}

// collectFields implements CollectFields of the GraphQL specification.
func collectFields(state *executionState, objectType *schema.Type, set language.SelectionSet) *collectedFieldMap {
	m := &collectedFieldMap{index: make(map[string]int)}
	collectInto(state, objectType, set, m, make(map[string]bool))
	return m
}

func collectInto(state *executionState, objectType *schema.Type, set language.SelectionSet, m *collectedFieldMap, visited map[string]bool) {
	for _, selection := range set {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			name := sel.Alias
			if name == "" {
				name = sel.Name
			}
			m.add(name, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(state, sel.Directives) || !doesFragmentTypeApply(state.schema, objectType, sel.TypeCondition) {
				continue
			}
			collectInto(state, objectType, sel.SelectionSet, m, visited)

		case *language.FragmentSpread:
			if !shouldIncludeNode(state, sel.Directives) || visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true
			def := state.request.Document.Fragments.ForName(sel.Name)
			if def == nil || !doesFragmentTypeApply(state.schema, objectType, def.TypeCondition) {
				continue
			}
			if !shouldIncludeNode(state, def.Directives) {
				continue
			}
			collectInto(state, objectType, def.SelectionSet, m, visited)
		}
	}
}

// doesFragmentTypeApply matches the object type itself or an interface or
// union it belongs to.
func doesFragmentTypeApply(sch *schema.Schema, objectType *schema.Type, typeCondition string) bool {
	if typeCondition == "" || typeCondition == objectType.Name {
		return true
	}
	t := sch.Types[typeCondition]
	if t == nil {
		return false
	}
	for _, name := range t.PossibleTypes {
		if name == objectType.Name {
			return true
		}
	}
	return false
}

// shouldIncludeNode evaluates @skip and @include.
func shouldIncludeNode(state *executionState, directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveArgument(state, skip, "if").(bool); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveArgument(state, include, "if").(bool); ok && !v {
			return false
		}
	}
	return true
}

func directiveArgument(state *executionState, directive *language.Directive, name string) any {
	arg := directive.Arguments.ForName(name)
	if arg == nil {
		return nil
	}
	return language.ValueToGo(arg.Value, state.request.Variables)
}
