package aql

import (
	"strconv"
	"strings"
)

// BindVarPrefix prefixes the bind-variable group of every node.
const BindVarPrefix = "field_"

const resultVar = "result"

// BindVarName returns the bind-variable group name of the node named self.
func BindVarName(self string) string { return BindVarPrefix + self }

var keywords = map[string]struct{}{}

func init() {
	for _, k := range strings.Fields(`
		AGGREGATE ALL ALL_SHORTEST_PATHS AND ANY ASC AT COLLECT COUNT CURRENT
		DESC DISTINCT FALSE FILTER FOR GRAPH IN INBOUND INSERT INTO KEEP
		K_PATHS K_SHORTEST_PATHS LEAST LET LIKE LIMIT NEW NONE NOT NULL OLD
		OPTIONS OR OUTBOUND PRUNE REMOVE REPLACE RETURN SEARCH SHORTEST_PATH
		SORT TO TRUE UPDATE UPSERT WINDOW WITH`) {
		keywords[k] = struct{}{}
	}
}

// isKeyword reports whether name is reserved in AQL. Keywords are case
// insensitive.
func isKeyword(name string) bool {
	_, ok := keywords[strings.ToUpper(name)]
	return ok
}

// scope holds the variable names of one tree. The compiler and the bind
// variable collector both read names from here.
type scope struct {
	used   map[string]struct{}
	names  map[*Query]string
	order  []*Query
	result string
}

// assignNames walks the tree depth-first in selection order. A child is named
// <parent>_<response name>; names that collide with a declared variable, a
// helper of one or an AQL keyword get a numeric suffix.
func assignNames(root *Query, fieldName string) *scope {
	s := &scope{
		used:  make(map[string]struct{}),
		names: make(map[*Query]string),
	}
	s.result = s.declare(resultVar, nil)
	s.walk(root, fieldName)
	return s
}

func (s *scope) walk(q *Query, candidate string) {
	self := s.declare(candidate, locals(q))
	s.names[q] = self
	s.order = append(s.order, q)
	for _, c := range q.Children() {
		s.walk(c.Query, self+"_"+c.Name)
	}
}

func (s *scope) declare(candidate string, locals []string) string {
	for i := 1; ; i++ {
		name := candidate
		if i > 1 {
			name = candidate + "_" + strconv.Itoa(i)
		}
		if !s.available(name, locals) {
			continue
		}
		s.used[name] = struct{}{}
		for _, l := range locals {
			s.used[name+"_"+l] = struct{}{}
		}
		return name
	}
}

func (s *scope) available(name string, locals []string) bool {
	if isKeyword(name) || s.taken(name) {
		return false
	}
	for _, l := range locals {
		if s.taken(name + "_" + l) {
			return false
		}
	}
	return true
}

func (s *scope) taken(name string) bool {
	_, ok := s.used[name]
	return ok
}

// locals lists the helper suffixes bound next to the node variable.
func locals(q *Query) []string {
	var out []string
	if q.Builder.Builder != nil {
		out = append(out, q.Builder.Builder.Locals()...)
	}
	if q.Condition != nil {
		out = append(out, "condition")
	}
	return out
}
