package aql

const (
	DirectiveDocument        = "aqlDocument"
	DirectiveNode            = "aqlNode"
	DirectiveEdge            = "aqlEdge"
	DirectiveEdgeNode        = "aqlEdgeNode"
	DirectiveExpression      = "aql"
	DirectiveSubquery        = "aqlSubquery"
	DirectiveKey             = "aqlKey"
	DirectiveRelayConnection = "aqlRelayConnection"
	DirectiveRelayEdges      = "aqlRelayEdges"
	DirectiveRelayPageInfo   = "aqlRelayPageInfo"
	DirectiveRelayNode       = "aqlRelayNode"

	// DirectiveNewQuery marks a field as the root of a later query stage.
	DirectiveNewQuery = "aqlNewQuery"
	// DirectiveCondition guards a builder-backed field.
	DirectiveCondition = "aqlCondition"
)

// DirectiveTypeDefs declares every directive and input type understood by
// the built-in builders. Load it together with the application schema.
const DirectiveTypeDefs = `
enum AqlEdgeDirection {
  OUTBOUND
  INBOUND
  ANY
}

enum AqlSortOrder {
  ASC
  DESC
}

input AqlSortInput {
  "The property to sort on. Values starting with $ are AQL expressions."
  property: String!
  order: AqlSortOrder = ASC
  "The value being sorted. Defaults to $field."
  sortOn: String
}

input AqlLimitInput {
  "Maximum number of rows, a number or an expression such as $args.first."
  count: String!
  skip: String
}

input AqlTraverseOptionsInput {
  bfs: Boolean
  uniqueVertices: String
  uniqueEdges: String
}

directive @aqlDocument(
  collection: String!
  key: String
  filter: String
  sort: AqlSortInput
  limit: AqlLimitInput
) on FIELD_DEFINITION

directive @aqlNode(
  edgeCollection: String!
  direction: AqlEdgeDirection!
  filter: String
  sort: AqlSortInput
  limit: AqlLimitInput
  options: AqlTraverseOptionsInput
) on FIELD_DEFINITION

directive @aqlEdge(
  collection: String!
  direction: AqlEdgeDirection!
  filter: String
  sort: AqlSortInput
  limit: AqlLimitInput
  options: AqlTraverseOptionsInput
) on FIELD_DEFINITION

directive @aqlEdgeNode on FIELD_DEFINITION

directive @aql(expression: String!) on FIELD_DEFINITION

directive @aqlSubquery(query: String!, return: String) on FIELD_DEFINITION

directive @aqlKey on FIELD_DEFINITION

directive @aqlRelayConnection(
  edgeCollection: String
  edgeDirection: AqlEdgeDirection
  documentCollection: String
  source: String
  cursorExpression: String
  filter: String
  sortOrder: AqlSortOrder = ASC
) on FIELD_DEFINITION

directive @aqlRelayEdges on FIELD_DEFINITION

directive @aqlRelayPageInfo on FIELD_DEFINITION

directive @aqlRelayNode on FIELD_DEFINITION

directive @aqlNewQuery on FIELD_DEFINITION

directive @aqlCondition(expression: String!) on FIELD_DEFINITION
`
