package aql

import "fmt"

type relayConnectionBuilder struct{}

func (relayConnectionBuilder) Name() string { return DirectiveRelayConnection }
func (relayConnectionBuilder) Kind() Kind   { return KindRelayConnection }

func (relayConnectionBuilder) Locals() []string {
	return []string{"node", "edge", "path", "listPlusOne", "pruned", "cursor"}
}

// Build pages through the candidates by cursor. One extra candidate is
// fetched to tell whether a next page exists.
//
// The field arguments first and after drive the page. Candidates come from
// a traversal (edgeCollection, edgeDirection), a collection scan
// (documentCollection) or a caller statement (source) that binds $node and
// optionally $edge.
func (b relayConnectionBuilder) Build(in Input) (string, error) {
	source, row, err := b.source(in)
	if err != nil {
		return "", err
	}
	order, err := sortOrder(b.Name(), stringArg(in.Directive, "sortOrder"))
	if err != nil {
		return "", err
	}
	after := ">"
	if order == "DESC" {
		after = "<"
	}
	cursor := stringArg(in.Directive, "cursorExpression")
	if cursor == "" {
		cursor = "$node._key"
	}
	filter := stringArg(in.Directive, "filter")
	if filter == "" {
		filter = "true"
	}
	candidates := lines(
		source,
		"LET $field_cursor = "+rewriteUserTokens(cursor),
		fmt.Sprintf("FILTER ($args.after == null || $field_cursor %s $args.after) && (%s)", after, rewriteUserTokens(filter)),
		"SORT $field_cursor "+order,
		"LIMIT $args.first + 1",
		"RETURN "+row,
	)
	return lines(
		"LET $field_listPlusOne = "+subquery(candidates, true),
		"LET $field_pruned = SLICE($field_listPlusOne, 0, $args.first)",
		"LET $field = {",
		"  edges: $field_pruned,",
		"  pageInfo: {",
		"    hasNextPage: LENGTH($field_listPlusOne) == $args.first + 1,",
		"    startCursor: LENGTH($field_pruned) > 0 ? FIRST($field_pruned).cursor : null,",
		"    endCursor: LENGTH($field_pruned) > 0 ? LAST($field_pruned).cursor : null",
		"  }",
		"}",
		"$children",
	), nil
}

// source returns the candidate loop and the edge row it returns.
func (b relayConnectionBuilder) source(in Input) (string, string, error) {
	const row = "{cursor: $field_cursor, node: $field_node}"
	if coll := stringArg(in.Directive, "edgeCollection"); coll != "" {
		dir, err := direction(b.Name(), in.Directive, "edgeDirection")
		if err != nil {
			return "", "", err
		}
		return lines(
			fmt.Sprintf("FOR $field_node, $field_edge IN %s $parent %s", dir, coll),
			"OPTIONS {bfs: true}",
			"FILTER $field_node != null",
		), "MERGE($field_edge, " + row + ")", nil
	}
	if coll := stringArg(in.Directive, "documentCollection"); coll != "" {
		return "FOR $field_node IN " + coll, row, nil
	}
	if src := stringArg(in.Directive, "source"); src != "" {
		return rewriteUserTokens(src), row, nil
	}
	return "", "", configErrorf(b.Name(), "one of edgeCollection, documentCollection or source is required")
}

// relayMemberBuilder reads one member of the enclosing connection value.
type relayMemberBuilder struct {
	directive string
	kind      Kind
	member    string
}

func (b relayMemberBuilder) Name() string     { return b.directive }
func (b relayMemberBuilder) Kind() Kind       { return b.kind }
func (b relayMemberBuilder) Locals() []string { return nil }

func (b relayMemberBuilder) Build(in Input) (string, error) {
	return lines(bind("$parent."+b.member, in.ReturnsList), "$children"), nil
}
