package introspection

import (
	"fmt"
	"strings"

	language "github.com/hanpama/aqlgraph/internal/language"
	schema "github.com/hanpama/aqlgraph/internal/schema"
)

// extendSchema returns a copy of original carrying the __ types and the
// __schema and __type root fields. original is not modified.
func extendSchema(original *schema.Schema) (*schema.Schema, error) {
	prelude, err := language.LoadSchema()
	if err != nil {
		return nil, fmt.Errorf("introspection: load prelude: %w", err)
	}

	extended := &schema.Schema{
		QueryType:        original.QueryType,
		MutationType:     original.MutationType,
		SubscriptionType: original.SubscriptionType,
		Types:            make(map[string]*schema.Type, len(original.Types)+len(prelude.Types)),
		Directives:       original.Directives,
		Description:      original.Description,
	}
	for name, t := range original.Types {
		extended.Types[name] = t
	}
	for name, def := range prelude.Types {
		if strings.HasPrefix(name, "__") {
			extended.Types[name] = schema.BuildType(def)
		}
	}

	query := original.GetQueryType()
	if query == nil {
		return extended, nil
	}
	cp := *query
	cp.Fields = append(append([]*schema.Field(nil), query.Fields...),
		schema.NewField("__schema", "Access the current type schema of this server.",
			schema.NonNullType(schema.NamedType("__Schema"))),
		schema.NewField("__type", "Request the type information of a single type.",
			schema.NamedType("__Type")).
			AddArgument(schema.NewInputValue("name", "", schema.NonNullType(schema.NamedType("String")))),
	)
	extended.Types[query.Name] = &cp
	return extended, nil
}
