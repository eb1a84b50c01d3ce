package aql

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testNames = []string{"a", "b", "a_b", "node", "edge", "cursor", "condition", "result", "for", "Filter", "posts"}

var testDirective = map[string]any{
	"collection":         "c",
	"edgeCollection":     "e",
	"direction":          "OUTBOUND",
	"edgeDirection":      "ANY",
	"documentCollection": "d",
	"expression":         "$parent.x",
	"query":              "LET $field = $args.v",
}

func genTree(t *rapid.T, depth int) *Query {
	b := rapid.SampledFrom(Builtins()).Draw(t, "builder")
	q := NewQuery(BuilderInstance{Builder: b, Directive: testDirective}, rapid.Bool().Draw(t, "list"))
	if rapid.Bool().Draw(t, "condition") {
		q.Condition = &Condition{Expression: "$args.ok"}
	}
	if rapid.Bool().Draw(t, "args") {
		q.Params.Args = map[string]any{"v": 1}
	}
	if depth == 0 {
		return q
	}
	n := rapid.IntRange(0, 3).Draw(t, "children")
	for i := 0; i < n; i++ {
		name := rapid.SampledFrom(testNames).Draw(t, "name")
		if !q.addFieldName(name, name) {
			continue
		}
		if rapid.Bool().Draw(t, "plain") {
			continue
		}
		q.FieldQueries[name] = genTree(t, depth-1)
	}
	return q
}

func TestAssignNames_ScopeUniqueness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root := genTree(t, 3)
		s := assignNames(root, rapid.SampledFrom(testNames).Draw(t, "field"))

		declared := map[string]bool{s.result: true}
		for _, q := range s.order {
			name := s.names[q]
			if isKeyword(name) {
				t.Fatalf("keyword %q used as a variable", name)
			}
			for _, v := range append([]string{name}, prefixed(name, locals(q))...) {
				if declared[v] {
					t.Fatalf("variable %q declared twice", v)
				}
				declared[v] = true
			}
		}
	})
}

var bindRef = regexp.MustCompile(`@(field_[A-Za-z0-9_]+)`)

func TestCompile_BindVarsMatchNames(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root := genTree(t, 3)
		field := rapid.SampledFrom(testNames).Draw(t, "field")

		text, err := Compile(root, field)
		if err != nil {
			t.Fatalf("compile: %v", err)
		}
		vars := CollectBindVars(root, field, nil, nil)

		s := assignNames(root, field)
		want := map[string]bool{"parent": true, "context": true}
		for _, q := range s.order {
			want[BindVarName(s.names[q])] = true
		}
		require.Len(t, vars, len(want))
		for k := range vars {
			if !want[k] {
				t.Fatalf("unexpected bind variable %q", k)
			}
		}
		for _, m := range bindRef.FindAllStringSubmatch(text, -1) {
			if _, ok := vars[m[1]]; !ok {
				t.Fatalf("program references undefined bind variable %q", m[1])
			}
		}
	})
}

func TestAssignNames_Collisions(t *testing.T) {
	edge := NewQuery(BuilderInstance{Builder: edgeBuilder{}}, true)
	node := NewQuery(BuilderInstance{Builder: keyBuilder{}}, false)
	edge.addFieldName("node", "node")
	edge.FieldQueries["node"] = node
	guarded := NewQuery(BuilderInstance{Builder: keyBuilder{}}, false)
	guarded.Condition = &Condition{Expression: "true"}
	edge.addFieldName("in", "in")
	edge.FieldQueries["in"] = guarded

	s := assignNames(edge, "for")
	require.Equal(t, "result", s.result)
	require.Equal(t, "for_2", s.names[edge])
	require.Equal(t, "for_2_node_2", s.names[node], "for_2_node is the edge's vertex variable")
	require.Equal(t, "for_2_in", s.names[guarded])
}

func prefixed(name string, suffixes []string) []string {
	out := make([]string, len(suffixes))
	for i, s := range suffixes {
		out[i] = name + "_" + s
	}
	return out
}
