package arangotp

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	driver "github.com/arangodb/go-driver"
	driverhttp "github.com/arangodb/go-driver/http"
	"github.com/cenkalti/backoff/v4"

	"github.com/hanpama/aqlgraph/internal/arangort"
	eventbus "github.com/hanpama/aqlgraph/internal/eventbus"
	events "github.com/hanpama/aqlgraph/internal/events"
	"github.com/hanpama/aqlgraph/internal/logging"
)

// Connector runs AQL over the ArangoDB HTTP API.
type Connector struct {
	opts   *Options
	db     driver.Database
	closed atomic.Bool
}

// Ensure we satisfy arangort.Connector
var _ arangort.Connector = (*Connector)(nil)

// Connect opens the configured database, retrying with exponential backoff
// until it answers or ConnectTimeout elapses.
func Connect(ctx context.Context, opts ...Option) (*Connector, error) {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	conn, err := driverhttp.NewConnection(driverhttp.ConnectionConfig{Endpoints: o.Endpoints})
	if err != nil {
		return nil, fmt.Errorf("arangotp: connection: %w", err)
	}
	client, err := driver.NewClient(driver.ClientConfig{
		Connection:     conn,
		Authentication: o.authentication(),
	})
	if err != nil {
		return nil, fmt.Errorf("arangotp: client: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = o.ConnectTimeout
	var db driver.Database
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		var err error
		db, err = client.Database(ctx, o.Database)
		if err == nil {
			return nil
		}
		if driver.IsNotFound(err) || driver.IsUnauthorized(err) {
			return backoff.Permanent(err)
		}
		logging.Warn().Err(err).Int("attempt", attempt).Str("database", o.Database).Msg("database not reachable yet")
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, fmt.Errorf("arangotp: open database %q: %w", o.Database, err)
	}
	return &Connector{opts: o, db: db}, nil
}

// Database returns the name of the connected database.
func (c *Connector) Database() string { return c.opts.Database }

func (c *Connector) Query(ctx context.Context, text string, bindVars map[string]any) (rows []any, err error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if _, ok := ctx.Deadline(); !ok && c.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.QueryTimeout)
		defer cancel()
	}
	if c.opts.BatchSize > 0 {
		ctx = driver.WithQueryBatchSize(ctx, c.opts.BatchSize)
	}

	field := events.Field(ctx)
	start := time.Now()
	eventbus.Publish(ctx, events.AQLQueryStart{Database: c.opts.Database, Field: field, Query: text, BindVars: names(bindVars)})
	rows, err = c.readAll(ctx, text, bindVars)
	eventbus.Publish(ctx, events.AQLQueryFinish{
		Database: c.opts.Database,
		Field:    field,
		Query:    text,
		Rows:     len(rows),
		Err:      err,
		Duration: time.Since(start),
	})
	return
}

func (c *Connector) readAll(ctx context.Context, text string, bindVars map[string]any) ([]any, error) {
	cursor, err := c.db.Query(ctx, text, bindVars)
	if err != nil {
		return nil, queryError(err)
	}
	defer cursor.Close()

	var rows []any
	for {
		var row any
		_, err := cursor.ReadDocument(ctx, &row)
		if driver.IsNoMoreDocuments(err) {
			return rows, nil
		}
		if err != nil {
			return nil, queryError(err)
		}
		rows = append(rows, row)
	}
}

// Close makes further queries fail. The HTTP connection holds no resources of
// its own.
func (c *Connector) Close() error {
	c.closed.Store(true)
	return nil
}

func names(bindVars map[string]any) []string {
	out := make([]string, 0, len(bindVars))
	for k := range bindVars {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
