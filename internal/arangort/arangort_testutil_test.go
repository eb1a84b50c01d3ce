package arangort

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hanpama/aqlgraph/internal/aql"
	"github.com/hanpama/aqlgraph/internal/executor"
	language "github.com/hanpama/aqlgraph/internal/language"
	"github.com/hanpama/aqlgraph/internal/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const blogSDL = `
type Query {
  user(id: ID!): User @aqlDocument(collection: "users", key: "$args.id")
  users: [User!]! @aqlDocument(collection: "users")
  adults(min: Int!): [User!]!
  plain: String
  node: Node @aqlDocument(collection: "users", key: "u1")
}

type Mutation {
  createPost(title: String!): CreatePostPayload! @aqlSubquery(query: "INSERT {title: $args.title} INTO posts", return: "NEW")
}

type CreatePostPayload {
  _key: String
  post: Post @aqlNewQuery @aqlDocument(collection: "posts", key: "$parent._key")
}

interface Node { id: ID! }

type Post implements Node {
  id: ID!
  title: String
  author: User @aqlNode(edgeCollection: "authored", direction: INBOUND)
}

type User implements Node {
  id: ID!
  name: String
  age: Int
  role: Role
  secret: String @aql(expression: "$parent.secret") @aqlCondition(expression: "$context.admin == true")
  address: Address
}

type Address {
  city: String
  country: Country @aqlDocument(collection: "countries", key: "$parent.countryKey")
}

type Country {
  name: String
}

enum Role { ADMIN MEMBER }
`

func buildSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSources([]*language.Source{
		{Name: "directives.graphql", Input: aql.DirectiveTypeDefs},
		{Name: "schema.graphql", Input: blogSDL},
	}, schema.WithAsync(IsAsync))
	require.NoError(t, err)
	return sch
}

func execute(ctx context.Context, t *testing.T, rt *Runtime, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	return executor.NewExecutor(rt, rt.schema).ExecuteRequest(ctx, doc, "", vars, nil)
}
