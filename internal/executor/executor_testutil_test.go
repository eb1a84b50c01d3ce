package executor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/aqlgraph/internal/language"
	schema "github.com/hanpama/aqlgraph/internal/schema"
)

// remoteDirective marks async fields in test schemas.
const remoteDirective = "directive @remote on FIELD_DEFINITION\n"

func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	require.NoError(t, err)
	return d
}

func mustBuildSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(remoteDirective+sdl, schema.WithAsync(func(_ *schema.Type, f *schema.Field, _ bool) bool {
		return f.Directives.ForName("remote") != nil
	}))
	require.NoError(t, err)
	return sch
}

// trace renders calls as "kind Type.field #batch".
func trace(calls []Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = fmt.Sprintf("%s %s.%s #%d", c.Kind, c.ObjectType, c.Field, c.BatchID)
	}
	return out
}
