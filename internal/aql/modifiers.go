package aql

import (
	"encoding/json"
	"fmt"
	"strings"
)

// subquery wraps a block by cardinality: lists collect every row, single
// values take the first row or null.
func subquery(body string, returnsList bool) string {
	if returnsList {
		return "(\n" + indent(body) + "\n)"
	}
	return "FIRST(\n" + indent(body) + "\n)"
}

// lines joins the non-empty parts with newlines.
func lines(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

// filterClause renders the filter directive argument.
func filterClause(dir map[string]any) string {
	if f := stringArg(dir, "filter"); f != "" {
		return "FILTER " + f
	}
	return ""
}

// sortClause renders sort: {property, order, sortOn}. Properties starting
// with $ are expressions; everything else is an attribute name.
func sortClause(builder string, dir map[string]any) (string, error) {
	s, ok := dir["sort"].(map[string]any)
	if !ok {
		return "", nil
	}
	prop := stringArg(s, "property")
	if prop == "" {
		return "", configErrorf(builder, "sort.property is required")
	}
	order, err := sortOrder(builder, stringArg(s, "order"))
	if err != nil {
		return "", err
	}
	on := stringArg(s, "sortOn")
	if on == "" {
		on = "$field"
	}
	if !strings.HasPrefix(prop, "$") {
		prop = literal(prop)
	}
	return fmt.Sprintf("SORT %s[%s] %s", on, prop, order), nil
}

func sortOrder(builder, order string) (string, error) {
	switch strings.ToUpper(order) {
	case "", "ASC":
		return "ASC", nil
	case "DESC":
		return "DESC", nil
	default:
		return "", configErrorf(builder, "unknown sort order %q", order)
	}
}

// limitClause renders limit: {count, skip}. Single values are always
// limited to one row.
func limitClause(builder string, dir map[string]any, returnsList bool) (string, error) {
	l, _ := dir["limit"].(map[string]any)
	count := scalarArg(l, "count")
	skip := scalarArg(l, "skip")
	if l != nil && count == "" {
		return "", configErrorf(builder, "limit.count is required")
	}
	if !returnsList {
		count = "1"
	}
	switch {
	case count == "":
		return "", nil
	case skip != "":
		return fmt.Sprintf("LIMIT %s, %s", skip, count), nil
	default:
		return "LIMIT " + count, nil
	}
}

// optionsClause renders traversal options.
func optionsClause(dir map[string]any) string {
	o, ok := dir["options"].(map[string]any)
	if !ok {
		return ""
	}
	var parts []string
	if bfs, ok := o["bfs"].(bool); ok {
		parts = append(parts, fmt.Sprintf("bfs: %t", bfs))
	}
	for _, key := range []string{"uniqueVertices", "uniqueEdges"} {
		if v := stringArg(o, key); v != "" {
			parts = append(parts, key+": "+literal(v))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "OPTIONS {" + strings.Join(parts, ", ") + "}"
}

func direction(builder string, dir map[string]any, arg string) (string, error) {
	d := strings.ToUpper(stringArg(dir, arg))
	switch d {
	case "OUTBOUND", "INBOUND", "ANY":
		return d, nil
	case "":
		return "", configErrorf(builder, "%s is required", arg)
	default:
		return "", configErrorf(builder, "unknown direction %q", d)
	}
}

// expressionOrLiteral keeps token expressions and quotes plain values.
func expressionOrLiteral(v string) string {
	if strings.HasPrefix(v, "$") {
		return v
	}
	return literal(v)
}

func literal(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func stringArg(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// scalarArg accepts string and numeric directive arguments.
func scalarArg(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
