package aql

import "fmt"

// Builtins returns the directive builders registered by DefaultRegistry.
func Builtins() []Builder {
	return []Builder{
		documentBuilder{},
		nodeBuilder{},
		edgeBuilder{},
		edgeNodeBuilder{},
		expressionBuilder{},
		subqueryBuilder{},
		keyBuilder{},
		relayConnectionBuilder{},
		relayMemberBuilder{directive: DirectiveRelayEdges, kind: KindRelayEdges, member: "edges"},
		relayMemberBuilder{directive: DirectiveRelayPageInfo, kind: KindRelayPageInfo, member: "pageInfo"},
		relayMemberBuilder{directive: DirectiveRelayNode, kind: KindRelayNode, member: "node"},
	}
}

// bind binds $field to a value expression: iterated for lists, assigned for
// single values. Missing single values compile to null.
func bind(value string, returnsList bool) string {
	if returnsList {
		return "FOR $field IN " + value
	}
	return lines("LET $field = "+value, "FILTER $field != null")
}

// objectBuilder reads a plain object attribute of its parent so that the
// selection below it is projected by response name. It is not registered
// under a directive; the extractor creates it for object fields without one.
type objectBuilder struct{}

func (objectBuilder) Name() string     { return "" }
func (objectBuilder) Kind() Kind       { return KindObject }
func (objectBuilder) Locals() []string { return nil }

func (objectBuilder) Build(in Input) (string, error) {
	value := "$parent." + attribute(stringArg(in.Directive, "attribute"))
	if in.ReturnsList {
		return lines("FOR $field IN TO_ARRAY("+value+")", "$children"), nil
	}
	return lines(bind(value, false), "$children"), nil
}

func plainObject(attr string) BuilderInstance {
	return BuilderInstance{Builder: objectBuilder{}, Directive: map[string]any{"attribute": attr}}
}

type documentBuilder struct{}

func (documentBuilder) Name() string     { return DirectiveDocument }
func (documentBuilder) Kind() Kind       { return KindDocument }
func (documentBuilder) Locals() []string { return nil }

// Build iterates the collection for lists, looks a document up by key when a
// key is given and otherwise takes the first matching document.
func (b documentBuilder) Build(in Input) (string, error) {
	coll := stringArg(in.Directive, "collection")
	if coll == "" {
		return "", configErrorf(b.Name(), "collection is required")
	}
	if key := stringArg(in.Directive, "key"); key != "" && !in.ReturnsList {
		return lines(
			bind(fmt.Sprintf("DOCUMENT(%s, %s)", literal(coll), expressionOrLiteral(key)), false),
			"$children",
		), nil
	}
	sort, err := sortClause(b.Name(), in.Directive)
	if err != nil {
		return "", err
	}
	limit, err := limitClause(b.Name(), in.Directive, in.ReturnsList)
	if err != nil {
		return "", err
	}
	return lines(
		"FOR $field IN "+coll,
		filterClause(in.Directive),
		sort,
		limit,
		"$children",
	), nil
}

type nodeBuilder struct{}

func (nodeBuilder) Name() string     { return DirectiveNode }
func (nodeBuilder) Kind() Kind       { return KindNode }
func (nodeBuilder) Locals() []string { return nil }

func (b nodeBuilder) Build(in Input) (string, error) {
	return traverse(b.Name(), in, "edgeCollection", "$field")
}

type edgeBuilder struct{}

func (edgeBuilder) Name() string     { return DirectiveEdge }
func (edgeBuilder) Kind() Kind       { return KindEdge }
func (edgeBuilder) Locals() []string { return []string{"node"} }

// Build binds the edge to $field and the vertex to $field_node, which
// nested @aqlEdgeNode fields read as $parent_node.
func (b edgeBuilder) Build(in Input) (string, error) {
	return traverse(b.Name(), in, "collection", "$field_node, $field")
}

func traverse(builder string, in Input, collArg, vars string) (string, error) {
	coll := stringArg(in.Directive, collArg)
	if coll == "" {
		return "", configErrorf(builder, "%s is required", collArg)
	}
	dir, err := direction(builder, in.Directive, "direction")
	if err != nil {
		return "", err
	}
	sort, err := sortClause(builder, in.Directive)
	if err != nil {
		return "", err
	}
	limit, err := limitClause(builder, in.Directive, in.ReturnsList)
	if err != nil {
		return "", err
	}
	return lines(
		fmt.Sprintf("FOR %s IN %s $parent %s", vars, dir, coll),
		optionsClause(in.Directive),
		filterClause(in.Directive),
		sort,
		limit,
		"$children",
	), nil
}

type edgeNodeBuilder struct{}

func (edgeNodeBuilder) Name() string     { return DirectiveEdgeNode }
func (edgeNodeBuilder) Kind() Kind       { return KindEdgeNode }
func (edgeNodeBuilder) Locals() []string { return nil }

func (edgeNodeBuilder) Build(in Input) (string, error) {
	return lines(bind("$parent_node", in.ReturnsList), "$children"), nil
}

type expressionBuilder struct{}

func (expressionBuilder) Name() string     { return DirectiveExpression }
func (expressionBuilder) Kind() Kind       { return KindExpression }
func (expressionBuilder) Locals() []string { return nil }

func (b expressionBuilder) Build(in Input) (string, error) {
	expr := stringArg(in.Directive, "expression")
	if expr == "" {
		return "", configErrorf(b.Name(), "expression is required")
	}
	return lines(bind(expr, in.ReturnsList), "$children"), nil
}

type subqueryBuilder struct{}

func (subqueryBuilder) Name() string     { return DirectiveSubquery }
func (subqueryBuilder) Kind() Kind       { return KindSubquery }
func (subqueryBuilder) Locals() []string { return nil }

// Build emits the statements verbatim. Without a return expression the
// statements must bind $field themselves.
func (b subqueryBuilder) Build(in Input) (string, error) {
	query := stringArg(in.Directive, "query")
	if query == "" {
		return "", configErrorf(b.Name(), "query is required")
	}
	ret := stringArg(in.Directive, "return")
	if ret == "" {
		return lines(query, "$children"), nil
	}
	return lines(query, bind(ret, in.ReturnsList), "$children"), nil
}

type keyBuilder struct{}

func (keyBuilder) Name() string     { return DirectiveKey }
func (keyBuilder) Kind() Kind       { return KindKey }
func (keyBuilder) Locals() []string { return nil }

func (keyBuilder) Build(in Input) (string, error) {
	return lines("LET $field = $parent._key", "$children"), nil
}

// CustomQueryBuilder splices a caller-built statement block in as the node
// value. It is not registered under a directive.
type CustomQueryBuilder struct {
	Text string
}

var _ Builder = (*CustomQueryBuilder)(nil)

func (*CustomQueryBuilder) Name() string     { return "aqlCustomQuery" }
func (*CustomQueryBuilder) Kind() Kind       { return KindCustomQuery }
func (*CustomQueryBuilder) Locals() []string { return nil }

func (b *CustomQueryBuilder) Build(in Input) (string, error) {
	if b.Text == "" {
		return "", configErrorf(b.Name(), "query text is required")
	}
	return lines(bind(subquery(b.Text, in.ReturnsList), in.ReturnsList), "$children"), nil
}
