// Package metrics exports Prometheus collectors fed from the event bus.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	eventbus "github.com/hanpama/aqlgraph/internal/eventbus"
	events "github.com/hanpama/aqlgraph/internal/events"
)

const namespace = "aqlgraph"

type Metrics struct {
	queryTotal    *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	queryRows     prometheus.Histogram
	httpRequests  *prometheus.CounterVec
	operations    *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		queryTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_total",
			Help:      "total number of AQL queries sent to the database",
		}, []string{"database", "outcome"}),

		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Buckets:   []float64{.001, .002, .005, .01, .02, .05, .1, .2, .5, 1, 2},
			Help:      "latency of AQL queries",
		}, []string{"database"}),

		queryRows: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_rows",
			Buckets:   []float64{0, 1, 3, 10, 32, 100, 316, 1000},
			Help:      "rows returned per AQL query",
		}),

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "total number of HTTP requests served",
		}, []string{"method", "code"}),

		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_operations_total",
			Help:      "total number of executed GraphQL operations",
		}, []string{"type", "outcome"}),
	}
}

// Subscribe feeds the collectors from the global bus.
func (m *Metrics) Subscribe() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.AQLQueryFinish) {
			m.queryTotal.WithLabelValues(e.Database, outcome(e.Err != nil)).Inc()
			m.queryDuration.WithLabelValues(e.Database).Observe(e.Duration.Seconds())
			if e.Err == nil {
				m.queryRows.Observe(float64(e.Rows))
			}
		}),
		eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) {
			m.httpRequests.WithLabelValues(e.Request.Method, strconv.Itoa(e.Status)).Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, e events.GraphQLFinish) {
			m.operations.WithLabelValues(e.OperationType, outcome(len(e.Errors) > 0)).Inc()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func outcome(failed bool) string {
	if failed {
		return "error"
	}
	return "ok"
}
