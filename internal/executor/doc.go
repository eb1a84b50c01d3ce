// Package executor implements a breadth-first GraphQL executor that batches
// asynchronous fields one depth at a time.
//
// Fields marked schema.Field.Async are queued while the current depth is
// expanded. Synchronous fields resolve immediately through
// Runtime.ResolveSync and never add depth. Once a depth is expanded, every
// queued task goes to a single Runtime.BatchResolveAsync call, and the
// objects it returns are expanded in turn. For a response with async depth d
// the runtime therefore sees exactly d batch calls.
//
// Root mutation fields are the exception: each root field, together with all
// of its async descendants, completes before the next one starts.
//
// Value completion follows the GraphQL specification. A null in a Non-Null
// position nullifies the nearest nullable ancestor, and tasks queued under a
// nullified path are dropped before the next batch. Errors are collected as
// located errors and execution continues with partial data.
//
// Fragments apply to the concrete object type and to every interface or union
// it belongs to.
package executor
