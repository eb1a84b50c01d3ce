package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const testSDL = `
directive @fetch(from: String!) on FIELD_DEFINITION

type Query {
  user(id: ID!, limit: Int = 10): User @fetch(from: "users")
  users: [User!]!
}

type Mutation {
  touch: Boolean
}

interface Node { id: ID! }

type User implements Node {
  id: ID!
  name: String @deprecated(reason: "use fullName")
  fullName: String
}

enum Color { RED GREEN }
`

func TestBuildFromSDL(t *testing.T) {
	s, err := BuildFromSDL(testSDL)
	require.NoError(t, err)

	require.Equal(t, "Query", s.QueryType)
	require.Equal(t, "Mutation", s.MutationType)
	require.True(t, s.IsRootType("Mutation"))
	require.False(t, s.IsRootType("User"))

	q := s.GetQueryType()
	require.NotNil(t, q)
	require.Nil(t, q.Field("__schema"), "meta fields are not part of the model")

	user := q.Field("user")
	require.NotNil(t, user)
	if diff := cmp.Diff(NonNullType(NamedType("ID")), user.Arguments[0].Type); diff != "" {
		t.Fatalf("argument type mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 10, user.Argument("limit").DefaultValue)
	require.NotNil(t, user.Directives.ForName("fetch"))

	users := q.Field("users")
	require.True(t, users.Type.IsNonNull())
	require.True(t, users.Type.IsList())
	require.Equal(t, "User", users.Type.GetNamedType())

	u := s.Types["User"]
	require.Equal(t, TypeKindObject, u.Kind)
	require.Equal(t, []string{"Node"}, u.Interfaces)
	require.True(t, u.Field("name").IsDeprecated)
	require.Equal(t, "use fullName", u.Field("name").DeprecationReason)

	require.Equal(t, []string{"User"}, s.Types["Node"].PossibleTypes)
	require.Len(t, s.Types["Color"].EnumValues, 2)
	require.Contains(t, s.Directives, "fetch")
}

func TestBuildAsyncClassification(t *testing.T) {
	s, err := BuildFromSDL(testSDL, WithAsync(func(t *Type, f *Field, root bool) bool {
		return root || f.Directives.ForName("fetch") != nil
	}))
	require.NoError(t, err)

	require.True(t, s.GetQueryType().Field("user").Async)
	require.True(t, s.GetQueryType().Field("users").Async)
	require.True(t, s.GetMutationType().Field("touch").Async)
	require.False(t, s.Types["User"].Field("fullName").Async)
}

func TestBuildFromSDLInvalid(t *testing.T) {
	_, err := BuildFromSDL(`type Query { user: Missing }`)
	require.Error(t, err)
}
