package aql

import (
	"fmt"
	"strings"
)

// Program is a compiled query together with its bind variables.
type Program struct {
	Text     string
	BindVars map[string]any
}

// Prepare compiles q and collects its bind variables from one naming walk.
// fieldName names the root node; parent and context are bound to @parent and
// @context.
func Prepare(q *Query, fieldName string, parent, context any) (*Program, error) {
	s := assignNames(q, fieldName)
	text, err := compileScope(q, s)
	if err != nil {
		return nil, err
	}
	return &Program{Text: text, BindVars: collect(s, parent, context)}, nil
}

// Compile renders the tree rooted at q as an AQL program returning the value
// of the root field.
func Compile(q *Query, fieldName string) (string, error) {
	return compileScope(q, assignNames(q, fieldName))
}

func compileScope(q *Query, s *scope) (string, error) {
	c := &compiler{scope: s}
	body, err := c.node(q, parentBindVar)
	if err != nil {
		return "", err
	}
	return lines("LET "+s.result+" = "+body, "RETURN "+s.result), nil
}

type compiler struct {
	scope *scope
}

func (c *compiler) node(q *Query, parent string) (string, error) {
	self := c.scope.names[q]
	b := q.Builder.Builder
	if b == nil {
		return "", fmt.Errorf("aql: node %s has no builder", self)
	}
	block, err := b.Build(Input{
		Self:        self,
		Parent:      parent,
		Directive:   q.Builder.Directive,
		Args:        q.Params.Args,
		ReturnsList: q.ReturnsList,
	})
	if err != nil {
		return "", err
	}
	proj, err := c.projection(q, self)
	if err != nil {
		return "", err
	}
	sc := Scope{Self: self, Parent: parent, Children: proj}
	text, err := interpolateBlock(block, sc)
	if err != nil {
		return "", err
	}
	if q.Condition != nil {
		if q.Condition.Expression == "" {
			return "", configErrorf(DirectiveCondition, "expression is required")
		}
		cond, err := Interpolate(q.Condition.Expression, sc)
		if err != nil {
			return "", err
		}
		guard := self + "_condition"
		text = lines(fmt.Sprintf("LET %s = (%s)", guard, cond), "FILTER "+guard, text)
	}
	return subquery(text, q.ReturnsList), nil
}

// projection renders the RETURN of a node: plain fields first, then the
// builder-backed children.
func (c *compiler) projection(q *Query, self string) (string, error) {
	if len(q.FieldNames) == 0 {
		return "RETURN " + self, nil
	}
	var plain, nested []string
	for _, name := range q.FieldNames {
		child, ok := q.FieldQueries[name]
		if !ok {
			plain = append(plain, objectKey(name)+": "+self+"."+attribute(q.source(name)))
			continue
		}
		text, err := c.node(child, self)
		if err != nil {
			return "", err
		}
		nested = append(nested, objectKey(name)+": "+text)
	}
	entries := append(plain, nested...)
	return "RETURN {\n" + indent(strings.Join(entries, ",\n")) + "\n}", nil
}

func objectKey(name string) string {
	if isKeyword(name) {
		return literal(name)
	}
	return name
}

func attribute(name string) string {
	if isKeyword(name) {
		return "`" + name + "`"
	}
	return name
}
