package arangotp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/aqlgraph/internal/aql"
	"github.com/hanpama/aqlgraph/internal/arangort"
	"github.com/hanpama/aqlgraph/internal/eventbus"
	"github.com/hanpama/aqlgraph/internal/events"
	"github.com/hanpama/aqlgraph/internal/executor"
	language "github.com/hanpama/aqlgraph/internal/language"
	"github.com/hanpama/aqlgraph/internal/schema"
)

type cursorRequest struct {
	Query    string         `json:"query"`
	BindVars map[string]any `json:"bindVars"`
}

// fakeArango answers the two endpoints the connector uses.
type fakeArango struct {
	mu       sync.Mutex
	requests []cursorRequest
	opens    atomic.Int32

	database string
	result   []any
	status   int
	body     map[string]any
}

func (f *fakeArango) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/_db/" + f.database + "/_api/database/current":
		f.opens.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": false, "code": 200,
			"result": map[string]any{"name": f.database, "id": "1", "isSystem": false},
		})
	case "/_db/" + f.database + "/_api/cursor":
		var req cursorRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		if f.status != 0 {
			w.WriteHeader(f.status)
			_ = json.NewEncoder(w).Encode(f.body)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": false, "code": 201, "hasMore": false, "result": f.result,
		})
	default:
		f.opens.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": true, "code": 404, "errorNum": 1228, "errorMessage": "database not found",
		})
	}
}

func serve(t *testing.T, f *fakeArango) string {
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestConnector_Query(t *testing.T) {
	fake := &fakeArango{database: "blog", result: []any{map[string]any{"name": "ann"}, 2.0}}
	url := serve(t, fake)

	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })
	var starts []events.AQLQueryStart
	var finishes []events.AQLQueryFinish
	defer eventbus.Subscribe(func(_ context.Context, e events.AQLQueryStart) { starts = append(starts, e) })()
	defer eventbus.Subscribe(func(_ context.Context, e events.AQLQueryFinish) { finishes = append(finishes, e) })()

	ctx := events.WithField(context.Background(), "user")
	c, err := Connect(ctx, WithEndpoints(url), WithDatabase("blog"))
	require.NoError(t, err)
	require.Equal(t, "blog", c.Database())

	text := "LET result = DOCUMENT(users, @field_user.args.id)\nRETURN result"
	bindVars := map[string]any{"field_user": map[string]any{"args": map[string]any{"id": "u1"}}, "parent": nil}
	rows, err := c.Query(ctx, text, bindVars)
	require.NoError(t, err)
	require.Equal(t, []any{map[string]any{"name": "ann"}, 2.0}, rows)

	require.Len(t, fake.requests, 1)
	require.Equal(t, text, fake.requests[0].Query)
	require.Equal(t, map[string]any{"args": map[string]any{"id": "u1"}}, fake.requests[0].BindVars["field_user"])

	require.Equal(t, []events.AQLQueryStart{{Database: "blog", Field: "user", Query: text, BindVars: []string{"field_user", "parent"}}}, starts)
	require.Len(t, finishes, 1)
	require.Equal(t, 2, finishes[0].Rows)
	require.Equal(t, "user", finishes[0].Field)
	require.NoError(t, finishes[0].Err)
}

func TestConnector_QueryError(t *testing.T) {
	fake := &fakeArango{
		database: "blog",
		status:   http.StatusBadRequest,
		body:     map[string]any{"error": true, "code": 400, "errorNum": 1501, "errorMessage": "syntax error, unexpected FOR"},
	}
	url := serve(t, fake)

	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })
	var finish events.AQLQueryFinish
	defer eventbus.Subscribe(func(_ context.Context, e events.AQLQueryFinish) { finish = e })()

	c, err := Connect(context.Background(), WithEndpoints(url), WithDatabase("blog"))
	require.NoError(t, err)

	rows, err := c.Query(context.Background(), "FOR FOR", nil)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	require.Equal(t, 1501, qerr.ErrorNum)
	require.Equal(t, "syntax error, unexpected FOR", qerr.Message)
	require.Equal(t, map[string]any{"code": "DATABASE_ERROR", "errorNum": 1501}, qerr.Extensions())
	require.Nil(t, rows)
	require.Error(t, finish.Err)
	require.Zero(t, finish.Rows)
}

func TestConnect_UnknownDatabaseIsPermanent(t *testing.T) {
	fake := &fakeArango{database: "blog"}
	url := serve(t, fake)

	_, err := Connect(context.Background(), WithEndpoints(url), WithDatabase("missing"), WithConnectTimeout(5*time.Second))
	require.Error(t, err)
	require.Equal(t, int32(1), fake.opens.Load())
}

func TestConnector_Closed(t *testing.T) {
	url := serve(t, &fakeArango{database: "blog"})
	c, err := Connect(context.Background(), WithEndpoints(url), WithDatabase("blog"))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = c.Query(context.Background(), "RETURN 1", nil)
	require.ErrorIs(t, err, ErrClosed)
}

// liveConnector connects to the server named by AQLGRAPH_TEST_ARANGO_URL and
// skips the test when it is not set.
func liveConnector(t *testing.T) *Connector {
	t.Helper()
	url := os.Getenv("AQLGRAPH_TEST_ARANGO_URL")
	if url == "" {
		t.Skip("AQLGRAPH_TEST_ARANGO_URL not set")
	}
	opts := []Option{WithEndpoints(url), WithConnectTimeout(10 * time.Second), WithBatchSize(2)}
	if user := os.Getenv("AQLGRAPH_TEST_ARANGO_USER"); user != "" {
		opts = append(opts, WithBasicAuth(user, os.Getenv("AQLGRAPH_TEST_ARANGO_PASSWORD")))
	}
	c, err := Connect(context.Background(), opts...)
	require.NoError(t, err)
	return c
}

func TestConnector_Live(t *testing.T) {
	c := liveConnector(t)

	rows, err := c.Query(context.Background(), "FOR i IN 1..5 RETURN i * @k", map[string]any{"k": 2})
	require.NoError(t, err)
	require.Equal(t, []any{2.0, 4.0, 6.0, 8.0, 10.0}, rows)
}

const relaySDL = `
type Query {
  items(first: Int!, after: String): ItemConnection!
    @aqlRelayConnection(source: "FOR $node IN [{_key: \"1\"}, {_key: \"2\"}, {_key: \"3\"}]")
  pair(first: Int!, after: String): ItemConnection!
    @aqlRelayConnection(source: "FOR $node IN [{_key: \"1\"}, {_key: \"2\"}]")
  itemsDesc(first: Int!, after: String): ItemConnection!
    @aqlRelayConnection(source: "FOR $node IN [{_key: \"1\"}, {_key: \"2\"}, {_key: \"3\"}]", sortOrder: DESC)
}

type ItemConnection {
  edges: [ItemEdge!]! @aqlRelayEdges
  pageInfo: PageInfo! @aqlRelayPageInfo
}

type ItemEdge {
  cursor: String!
  node: Item! @aqlRelayNode
}

type Item {
  _key: String!
}

type PageInfo {
  hasNextPage: Boolean!
  startCursor: String
  endCursor: String
}
`

func TestConnector_LiveRelayPaging(t *testing.T) {
	c := liveConnector(t)
	sch, err := schema.BuildFromSources([]*language.Source{
		{Name: "directives.graphql", Input: aql.DirectiveTypeDefs},
		{Name: "schema.graphql", Input: relaySDL},
	}, schema.WithAsync(arangort.IsAsync))
	require.NoError(t, err)
	doc, err := language.ParseQuery(`{
		firstPage: items(first: 2) { ...page }
		nextPage: items(first: 2, after: "2") { ...page }
		wide: pair(first: 10) { ...page }
		descending: itemsDesc(first: 2) { ...page }
		descendingNext: itemsDesc(first: 2, after: "2") { ...page }
	}
	fragment page on ItemConnection {
		edges { cursor node { _key } }
		pageInfo { hasNextPage startCursor endCursor }
	}`)
	require.NoError(t, err)

	rt := arangort.NewRuntime(sch, c)
	got := executor.NewExecutor(rt, sch).ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Empty(t, got.Errors)

	page := func(hasNext bool, keys ...string) map[string]any {
		edges := make([]any, len(keys))
		for i, k := range keys {
			edges[i] = map[string]any{"cursor": k, "node": map[string]any{"_key": k}}
		}
		return map[string]any{
			"edges": edges,
			"pageInfo": map[string]any{
				"hasNextPage": hasNext,
				"startCursor": keys[0],
				"endCursor":   keys[len(keys)-1],
			},
		}
	}
	want := map[string]any{
		"firstPage":      page(true, "1", "2"),
		"nextPage":       page(false, "3"),
		"wide":           page(false, "1", "2"),
		"descending":     page(true, "3", "2"),
		"descendingNext": page(false, "1"),
	}
	if diff := cmp.Diff(want, got.Data); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
}
