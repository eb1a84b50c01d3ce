package aql

import "strings"

// Query is one compilable sub-query of an extracted tree.
type Query struct {
	// ReturnsList is true when the field's type is a list, optionally
	// wrapped in Non-Null.
	ReturnsList bool
	Builder     BuilderInstance

	// FieldNames lists the selected child response names in selection order.
	FieldNames []string
	// FieldQueries holds the children backed by a builder directive.
	FieldQueries map[string]*Query
	// Sources maps aliased response names to their schema field names.
	Sources map[string]string

	Params    Params
	Condition *Condition
}

type Params struct {
	Args map[string]any
}

// Condition guards the execution of a node. A false expression yields null
// for single values and an empty list for lists.
type Condition struct {
	Expression string
}

// Child is a builder-backed child of a node.
type Child struct {
	Name  string
	Query *Query
}

// NewQuery returns an empty node for the given builder.
func NewQuery(inst BuilderInstance, returnsList bool) *Query {
	return &Query{
		ReturnsList:  returnsList,
		Builder:      inst,
		FieldQueries: make(map[string]*Query),
	}
}

// Children returns the builder-backed children in selection order.
func (q *Query) Children() []Child {
	var out []Child
	for _, name := range q.FieldNames {
		if child, ok := q.FieldQueries[name]; ok {
			out = append(out, Child{Name: name, Query: child})
		}
	}
	return out
}

// addFieldName records a selected response name. It reports false when the
// name was already selected.
func (q *Query) addFieldName(name, fieldName string) bool {
	for _, n := range q.FieldNames {
		if n == name {
			return false
		}
	}
	q.FieldNames = append(q.FieldNames, name)
	if name != fieldName {
		if q.Sources == nil {
			q.Sources = make(map[string]string)
		}
		q.Sources[name] = fieldName
	}
	return true
}

// source returns the attribute a response name is read from.
func (q *Query) source(name string) string {
	if f, ok := q.Sources[name]; ok {
		return f
	}
	return name
}

// Path is the list of response names from the operation root to a field.
type Path []string

func (p Path) Append(name string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = name
	return out
}

// String joins the path with dots; argument resolvers are keyed by it.
func (p Path) String() string { return strings.Join(p, ".") }
