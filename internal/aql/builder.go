package aql

import "sort"

// Kind identifies the built-in builders. Builders supplied by callers report
// KindCustom.
type Kind int

const (
	KindCustom Kind = iota
	KindDocument
	KindNode
	KindEdge
	KindEdgeNode
	KindExpression
	KindSubquery
	KindKey
	KindRelayConnection
	KindRelayEdges
	KindRelayPageInfo
	KindRelayNode
	KindCustomQuery
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	case KindEdgeNode:
		return "edge_node"
	case KindExpression:
		return "raw_expression"
	case KindSubquery:
		return "raw_subquery"
	case KindKey:
		return "key"
	case KindRelayConnection:
		return "relay_connection"
	case KindRelayEdges:
		return "relay_connection.edges"
	case KindRelayPageInfo:
		return "relay_connection.page_info"
	case KindRelayNode:
		return "relay_connection.node"
	case KindCustomQuery:
		return "custom_query"
	case KindObject:
		return "object"
	default:
		return "custom"
	}
}

// Input is what a builder sees of the node it renders.
type Input struct {
	// Self and Parent are the resolved variable names. Templates normally use
	// the $field and $parent tokens instead.
	Self   string
	Parent string
	// Directive holds the directive arguments with variables substituted.
	Directive   map[string]any
	Args        map[string]any
	ReturnsList bool
}

// Builder renders the fetch semantics of one directive.
//
// Build returns an AQL block that binds $field and contains exactly one
// $children token at the point where $field is in scope. The compiler fills
// it with the return projection and wraps the block by cardinality, so
// builders never emit RETURN or FIRST themselves.
type Builder interface {
	// Name is the directive name the builder is registered under.
	Name() string
	Kind() Kind
	// Locals lists suffixes of helper variables the block binds as
	// $field_<suffix>. They are reserved when names are assigned.
	Locals() []string
	Build(in Input) (string, error)
}

// BuilderInstance is a builder together with its statically resolved
// directive configuration.
type BuilderInstance struct {
	Builder   Builder
	Directive map[string]any
}

func (b BuilderInstance) Kind() Kind {
	if b.Builder == nil {
		return KindCustom
	}
	return b.Builder.Kind()
}

// Registry maps directive names to builders. It is not safe for concurrent
// mutation; populate it before serving requests.
type Registry struct {
	builders map[string]Builder
}

func NewRegistry(builders ...Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder, len(builders))}
	for _, b := range builders {
		r.Register(b)
	}
	return r
}

// DefaultRegistry returns a registry with every built-in directive builder.
func DefaultRegistry() *Registry {
	return NewRegistry(Builtins()...)
}

// Register adds or replaces the builder for b.Name().
func (r *Registry) Register(b Builder) *Registry {
	r.builders[b.Name()] = b
	return r
}

func (r *Registry) Lookup(directive string) (Builder, bool) {
	b, ok := r.builders[directive]
	return b, ok
}

// Names returns the registered directive names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.builders))
	for name := range r.builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Custom adapts a function into a Builder.
type Custom struct {
	Directive string
	Helpers   []string
	Fn        func(Input) (string, error)
}

var _ Builder = (*Custom)(nil)

func (c *Custom) Name() string                   { return c.Directive }
func (c *Custom) Kind() Kind                     { return KindCustom }
func (c *Custom) Locals() []string               { return c.Helpers }
func (c *Custom) Build(in Input) (string, error) { return c.Fn(in) }
