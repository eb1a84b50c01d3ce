package aql

import (
	"testing"

	language "github.com/hanpama/aqlgraph/internal/language"
	"github.com/hanpama/aqlgraph/internal/schema"
	"github.com/stretchr/testify/require"
)

const blogSDL = `
type Query {
  user(id: ID!): User @aqlDocument(collection: "users", key: "$args.id")
  users(limit: Int = 10): [User!]! @aqlDocument(collection: "people", sort: {property: "name"}, limit: {count: "$args.limit"})
  search(q: String!, first: Int!, after: String): UserConnection!
    @aqlRelayConnection(source: "FOR $node IN FULLTEXT(users, \"name\", $args.q)", cursorExpression: "$node.name")
}

type Mutation {
  createPost(title: String!): CreatePostPayload! @aqlSubquery(query: "INSERT {title: $args.title} INTO posts", return: "NEW")
}

type CreatePostPayload {
  _key: String
  post: Post @aqlNewQuery @aqlDocument(collection: "posts", key: "$parent._key")
}

type User {
  id: ID!
  name: String
  key: String @aqlKey
  posts: [Post!]! @aqlNode(edgeCollection: "posted", direction: OUTBOUND)
  friendships: [Friendship!]! @aqlEdge(collection: "friends", direction: ANY, options: {bfs: true, uniqueVertices: "global"})
  followers(first: Int!, after: String): UserConnection! @aqlRelayConnection(edgeCollection: "follows", edgeDirection: INBOUND)
  recent(first: Int!, after: String): UserConnection! @aqlRelayConnection(documentCollection: "users", sortOrder: DESC)
  broken(first: Int!): UserConnection! @aqlRelayConnection
  secret: String @aql(expression: "$parent.secret") @aqlCondition(expression: "$context.admin == true")
  stray: User @aqlEdgeNode
  address: Address
  addresses: [Address!]
}

type Address {
  city: String
  country: Country @aqlDocument(collection: "countries", key: "$parent.countryKey")
}

type Country {
  name: String
}

type Friendship {
  since: String
  friend: User @aqlEdgeNode
}

type UserConnection {
  edges: [UserEdge!]! @aqlRelayEdges
  pageInfo: PageInfo! @aqlRelayPageInfo
}

type UserEdge {
  cursor: String!
  node: User! @aqlRelayNode
}

type PageInfo {
  hasNextPage: Boolean!
  startCursor: String
  endCursor: String
}

type Post {
  id: ID!
  title: String
}
`

func loadTestSchema(t *testing.T, sdl string) (*language.Schema, *schema.Schema) {
	t.Helper()
	src, err := language.LoadSchema(
		&language.Source{Name: "directives.graphql", Input: DirectiveTypeDefs},
		&language.Source{Name: "schema.graphql", Input: sdl},
	)
	require.NoError(t, err)
	sch, err := schema.Build(src)
	require.NoError(t, err)
	return src, sch
}

// extractRoot validates query against sdl and extracts its first root field.
func extractRoot(t *testing.T, sdl, query string, vars map[string]any) (*Query, error) {
	t.Helper()
	src, sch := loadTestSchema(t, sdl)
	doc, errs := language.LoadQuery(src, query)
	require.Empty(t, errs)
	op := doc.Operations[0]
	rootType := sch.QueryType
	if op.Operation == language.Mutation {
		rootType = sch.MutationType
	}
	field := op.SelectionSet[0].(*language.Field)
	e := &Extractor{Schema: sch, Variables: vars, Fragments: doc.Fragments}
	return e.Extract(field, rootType, nil, Path{responseName(field)})
}

func mustExtractRoot(t *testing.T, query string, vars map[string]any) *Query {
	t.Helper()
	q, err := extractRoot(t, blogSDL, query, vars)
	require.NoError(t, err)
	require.NotNil(t, q)
	return q
}

func mustCompile(t *testing.T, q *Query, fieldName string) string {
	t.Helper()
	text, err := Compile(q, fieldName)
	require.NoError(t, err)
	return text
}
