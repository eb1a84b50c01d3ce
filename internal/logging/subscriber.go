package logging

import (
	"context"

	"github.com/hanpama/aqlgraph/internal/eventbus"
	"github.com/hanpama/aqlgraph/internal/events"
	"github.com/hanpama/aqlgraph/internal/reqid"
)

// Subscribe logs finished HTTP requests, GraphQL operations and AQL queries
// from the global event bus. It returns a function removing the handlers.
func Subscribe() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			Info().
				Str("request_id", requestID(ctx)).
				Str("method", e.Request.Method).
				Str("path", e.Request.URL.Path).
				Int("status", e.Status).
				Dur("duration", e.Duration).
				Msg("http request")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			ev := Debug()
			if len(e.Errors) > 0 {
				ev = Warn().Errs("errors", e.Errors)
			}
			ev.Str("request_id", requestID(ctx)).
				Str("operation", e.OperationName).
				Str("type", e.OperationType).
				Dur("duration", e.Duration).
				Msg("graphql operation")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.AQLQueryFinish) {
			Debug().
				Err(e.Err).
				Str("request_id", requestID(ctx)).
				Str("database", e.Database).
				Str("field", e.Field).
				Int("rows", e.Rows).
				Dur("duration", e.Duration).
				Msg("aql query")
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func requestID(ctx context.Context) string {
	id, _ := reqid.FromContext(ctx)
	return id
}
