// Package aql compiles GraphQL selections into ArangoDB AQL programs.
//
// # Overview
//
// Schema authors annotate field definitions with builder directives such as
// @aqlDocument or @aqlNode. For one root field invocation the package:
//
//  1. Extracts a tree of Query nodes from the selection set (Extractor). Only
//     fields backed by a registered builder directive become nodes; every
//     other selected field is projected from its parent value.
//  2. Compiles the tree into one AQL program (Compile). Each builder emits a
//     block template with a single $children insertion point; the compiler
//     fills it with the node's return projection, resolves tokens, applies
//     @aqlCondition guards and wraps the block by cardinality.
//  3. Collects the bind variables the program refers to (CollectBindVars).
//
// # Names
//
// Every node gets a scoped AQL variable derived from its response path
// (user, user_posts, ...). The same walk produces the bind-variable group
// names (field_user, field_user_posts), so compiled text and bind variables
// cannot drift apart. The walk also reserves helper variables declared by
// builders (see Builder.Locals) and renames on collision.
//
// # Tokens
//
// Builder output and directive arguments may use:
//
//	$field      the node's own variable
//	$parent     the enclosing node's variable, @parent at the root
//	$context    the request context bind variable
//	$args       the node's resolved field arguments, e.g. $args.id or $args['id']
//	$children   the return projection (builder templates only)
//
// # Stages
//
// Fields marked with @aqlNewQuery are left out of the enclosing tree. The
// executor resolves them later with a fresh extraction whose @parent is the
// value produced by the previous stage.
package aql
