package executor

import (
	"context"
	"fmt"
	"sync"
)

// MockResolver resolves a single task. MockRuntime uses it for both sync and
// batched calls.
type MockResolver func(ctx context.Context, task ResolveTask) (any, error)

const (
	CallKindSync  = "sync"
	CallKindAsync = "async"
)

// NewMockValueResolver returns a MockResolver that always returns val.
func NewMockValueResolver(val any) MockResolver {
	return func(context.Context, ResolveTask) (any, error) { return val, nil }
}

// NewMockErrorResolver returns a MockResolver that always fails with err.
func NewMockErrorResolver(err error) MockResolver {
	return func(context.Context, ResolveTask) (any, error) { return nil, err }
}

// NewMockSourceResolver reads the response name from a map source.
func NewMockSourceResolver() MockResolver {
	return func(_ context.Context, task ResolveTask) (any, error) {
		if m, ok := task.Source.(map[string]any); ok {
			return m[task.ResponseName], nil
		}
		return nil, nil
	}
}

// Call records one resolved task. Tasks of the same batch share a BatchID;
// sync calls have BatchID 0.
type Call struct {
	Kind       string
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
	BatchID    int
}

// MockRuntime implements Runtime with resolvers keyed by "ObjectType.Field".
type MockRuntime struct {
	mu        sync.Mutex
	resolvers map[string]MockResolver
	calls     []Call
	batchSeq  int

	TypeResolver func(abstractType string, value any) (string, error)
	Serializer   func(typeName string, value any) (any, error)
}

func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{resolvers: make(map[string]MockResolver)}
	for k, v := range resolvers {
		m.resolvers[k] = v
	}
	return m
}

func (m *MockRuntime) SetResolver(objectType, field string, resolver MockResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvers[objectType+"."+field] = resolver
}

func (m *MockRuntime) resolve(ctx context.Context, task ResolveTask, kind string, batchID int) ResolveResult {
	m.mu.Lock()
	r := m.resolvers[task.ObjectType+"."+task.Field]
	m.calls = append(m.calls, Call{
		Kind:       kind,
		ObjectType: task.ObjectType,
		Field:      task.Field,
		Source:     task.Source,
		Args:       task.Args,
		BatchID:    batchID,
	})
	m.mu.Unlock()
	if r == nil {
		return ResolveResult{}
	}
	v, err := r(ctx, task)
	return ResolveResult{Value: v, Error: err}
}

func (m *MockRuntime) ResolveSync(ctx context.Context, task ResolveTask) (any, error) {
	res := m.resolve(ctx, task, CallKindSync, 0)
	return res.Value, res.Error
}

func (m *MockRuntime) BatchResolveAsync(ctx context.Context, tasks []ResolveTask) []ResolveResult {
	m.mu.Lock()
	m.batchSeq++
	batchID := m.batchSeq
	m.mu.Unlock()

	results := make([]ResolveResult, len(tasks))
	for i, task := range tasks {
		results[i] = m.resolve(ctx, task, CallKindAsync, batchID)
	}
	return results
}

// ResolveType reads "__typename" from map values unless TypeResolver is set.
func (m *MockRuntime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	if m.TypeResolver != nil {
		return m.TypeResolver(abstractType, value)
	}
	if obj, ok := value.(map[string]any); ok {
		if name, ok := obj["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve type of %s value", abstractType)
}

func (m *MockRuntime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	if m.Serializer != nil {
		return m.Serializer(typeName, value)
	}
	return value, nil
}

// Calls returns a copy of the recorded calls in order.
func (m *MockRuntime) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears recorded calls; resolvers remain.
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.batchSeq = 0
}
