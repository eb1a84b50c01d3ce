package arangort

import (
	"context"
	"fmt"
	"sync"

	"github.com/hanpama/aqlgraph/internal/events"
)

// QueryRecord captures a single Query invocation.
type QueryRecord struct {
	// Field is the response path the query was issued for.
	Field    string
	Text     string
	BindVars map[string]any
}

// MockConnector returns queued results in call order, or delegates to
// Handler when set, while recording every call.
type MockConnector struct {
	mu      sync.Mutex
	results [][]any
	errs    []error
	idx     int
	calls   []QueryRecord

	Handler func(text string, bindVars map[string]any) ([]any, error)
}

// NewMockConnector returns a MockConnector answering successive calls with
// rows.
func NewMockConnector(rows ...[]any) *MockConnector {
	return &MockConnector{results: rows}
}

// NewMockConnectorWithErrors pairs queued rows with per-call errors. A non-nil
// errs[i] is returned instead of rows[i].
func NewMockConnectorWithErrors(rows [][]any, errs []error) *MockConnector {
	return &MockConnector{results: rows, errs: errs}
}

func (m *MockConnector) Query(ctx context.Context, text string, bindVars map[string]any) ([]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, QueryRecord{Field: events.Field(ctx), Text: text, BindVars: bindVars})

	if m.Handler != nil {
		return m.Handler(text, bindVars)
	}
	i := m.idx
	m.idx++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.results) {
		return nil, fmt.Errorf("mock connector: no more results")
	}
	return m.results[i], nil
}

// Calls returns a snapshot of recorded calls.
func (m *MockConnector) Calls() []QueryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]QueryRecord, len(m.calls))
	copy(out, m.calls)
	return out
}
