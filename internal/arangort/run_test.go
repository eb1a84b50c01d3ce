package arangort

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/aqlgraph/internal/executor"
)

func TestPruneBindVars(t *testing.T) {
	text := "FOR d IN @@coll FILTER d.owner == @parent._key && d.mail != \"x@example.com\" RETURN d"
	got := pruneBindVars(text, map[string]any{
		"@coll":   "users",
		"parent":  map[string]any{"_key": "1"},
		"context": nil,
		"field_d": map[string]any{"args": nil},
	})
	want := map[string]any{
		"@coll":  "users",
		"parent": map[string]any{"_key": "1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bind vars mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCustom(t *testing.T) {
	t.Run("caller bind variables", func(t *testing.T) {
		conn := NewMockConnector([]any{[]any{map[string]any{"name": "A"}}})
		rt := NewRuntime(buildSchema(t), conn, WithCustomQuery("Query", "adults", func(_ context.Context, task executor.ResolveTask) (CustomQuery, error) {
			return CustomQuery{
				Text:     "FOR u IN users FILTER u.age >= @minAge RETURN u",
				BindVars: map[string]any{"minAge": task.Args["min"]},
			}, nil
		}))

		got := execute(context.Background(), t, rt, `{ adults(min: 18) { name } }`, nil)

		require.Empty(t, got.Errors)
		require.Equal(t, map[string]any{"adults": []any{map[string]any{"name": "A"}}}, got.Data)

		calls := conn.Calls()
		require.Len(t, calls, 1)
		want := `LET result = (
  FOR adults IN (
    FOR u IN users FILTER u.age >= @minAge RETURN u
  )
  RETURN {
    name: adults.name
  }
)
RETURN result`
		if diff := cmp.Diff(want, calls[0].Text); diff != "" {
			t.Fatalf("program mismatch (-want +got):\n%s", diff)
		}
		require.Equal(t, map[string]any{"minAge": 18}, calls[0].BindVars)
	})

	t.Run("field arguments", func(t *testing.T) {
		conn := NewMockConnector([]any{[]any{}})
		rt := NewRuntime(buildSchema(t), conn, WithCustomQuery("Query", "adults", func(context.Context, executor.ResolveTask) (CustomQuery, error) {
			return CustomQuery{Text: "FOR u IN users FILTER u.age >= $args.min RETURN u"}, nil
		}))

		got := execute(context.Background(), t, rt, `{ adults(min: 21) { name } }`, nil)

		require.Empty(t, got.Errors)
		calls := conn.Calls()
		require.Contains(t, calls[0].Text, "FILTER u.age >= @field_adults.args.min")
		require.Equal(t, map[string]any{"field_adults": map[string]any{"args": map[string]any{"min": 21}}}, calls[0].BindVars)
	})

	t.Run("reserved bind variable", func(t *testing.T) {
		rt := NewRuntime(buildSchema(t), NewMockConnector())
		task := executor.ResolveTask{ObjectType: "Query", Field: "adults", ResponseName: "adults"}
		for _, name := range []string{"parent", "context", "field_adults"} {
			_, err := rt.RunCustom(context.Background(), CustomQuery{Text: "RETURN 1", BindVars: map[string]any{name: 1}}, task)
			require.ErrorContains(t, err, "shadows")
		}
	})
}

func TestSerializeLeafValue(t *testing.T) {
	rt := NewRuntime(buildSchema(t), NewMockConnector())

	for _, tc := range []struct {
		typ     string
		in      any
		want    any
		wantErr bool
	}{
		{typ: "Int", in: float64(3), want: 3},
		{typ: "Int", in: json.Number("42"), want: 42},
		{typ: "Int", in: 3.5, wantErr: true},
		{typ: "Int", in: "3", wantErr: true},
		{typ: "Float", in: float64(1.5), want: 1.5},
		{typ: "Float", in: 2, want: float64(2)},
		{typ: "String", in: "s", want: "s"},
		{typ: "String", in: float64(7), want: "7"},
		{typ: "Boolean", in: true, want: true},
		{typ: "Boolean", in: "true", wantErr: true},
		{typ: "ID", in: "users/1", want: "users/1"},
		{typ: "ID", in: float64(12), want: "12"},
		{typ: "Role", in: "ADMIN", want: "ADMIN"},
		{typ: "Role", in: "OWNER", wantErr: true},
	} {
		got, err := rt.SerializeLeafValue(context.Background(), tc.typ, tc.in)
		if tc.wantErr {
			require.Error(t, err, "%s %v", tc.typ, tc.in)
			continue
		}
		require.NoError(t, err, "%s %v", tc.typ, tc.in)
		require.Equal(t, tc.want, got, "%s %v", tc.typ, tc.in)
	}
}

func TestIsAsync(t *testing.T) {
	sch := buildSchema(t)
	for _, tc := range []struct {
		typ, field string
		want       bool
	}{
		{"Query", "plain", true},
		{"Mutation", "createPost", true},
		{"CreatePostPayload", "post", true},
		{"CreatePostPayload", "_key", false},
		{"Post", "author", false},
	} {
		require.Equal(t, tc.want, sch.Types[tc.typ].Field(tc.field).Async, "%s.%s", tc.typ, tc.field)
	}
}
