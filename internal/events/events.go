// Package events defines the payloads published on the event bus. Each
// operation publishes a Start event before and a Finish event after it runs.
package events

import (
	"context"
	"net/http"
	"time"
)

// HTTPStart is emitted when an HTTP request is received.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler wrote its response.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// GraphQLStart is emitted before an operation of a request is executed.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// AQLQueryStart is emitted before a query is sent to the database.
type AQLQueryStart struct {
	Database string
	// Field is the dotted response path of the GraphQL field the query
	// resolves, empty outside of field resolution.
	Field string
	Query string
	// BindVars are the names of the bound parameters.
	BindVars []string
}

// AQLQueryFinish is emitted after the database answered or failed.
type AQLQueryFinish struct {
	Database string
	Field    string
	Query    string
	Rows     int
	Err      error
	Duration time.Duration
}

type fieldKey struct{}

// WithField records the response path of the field whose queries run with
// the returned context.
func WithField(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, fieldKey{}, path)
}

// Field returns the path stored by WithField.
func Field(ctx context.Context) string {
	s, _ := ctx.Value(fieldKey{}).(string)
	return s
}
