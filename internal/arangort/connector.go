package arangort

import "context"

// Connector executes AQL against a database.
// Implementations MUST be safe for concurrent use: one depth of async fields
// is resolved in parallel.
//
// Provided implementations:
//   - internal/arangotp.Connector: HTTP connector built on go-driver
//   - MockConnector: queued rows for tests
type Connector interface {
	// Query runs text with bindVars and returns every result row.
	Query(ctx context.Context, text string, bindVars map[string]any) ([]any, error)
}
