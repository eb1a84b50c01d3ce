package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	want := &Config{
		Server: ServerConfig{
			Listen:       ":8080",
			Timeout:      10 * time.Second,
			MaxBodyBytes: 1 << 20,
			GraphiQL:     true,
		},
		Arango: ArangoConfig{
			Endpoints:      []string{"http://localhost:8529"},
			Database:       "_system",
			QueryTimeout:   10 * time.Second,
			ConnectTimeout: 30 * time.Second,
		},
		Runtime:   RuntimeConfig{MaxConcurrency: 8},
		Log:       LogConfig{Level: "info", Format: "auto"},
		Telemetry: TelemetryConfig{ServiceName: "aqlgraph", Metrics: true},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("Default() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
schema: [schema/base.graphql, schema/blog.graphql]
server:
  listen: ":9000"
  graphiql: false
  contextHeaders: [X-User-Id]
arango:
  endpoints: ["http://db-1:8529", "http://db-2:8529"]
  database: blog
  queryTimeout: 2s
runtime:
  maxConcurrency: 2
`))
	require.NoError(t, err)
	require.Equal(t, []string{"schema/base.graphql", "schema/blog.graphql"}, c.Schema)
	require.Equal(t, ":9000", c.Server.Listen)
	require.False(t, c.Server.GraphiQL)
	require.Equal(t, 10*time.Second, c.Server.Timeout)
	require.Equal(t, []string{"X-User-Id"}, c.Server.ContextHeaders)
	require.Equal(t, []string{"http://db-1:8529", "http://db-2:8529"}, c.Arango.Endpoints)
	require.Equal(t, "blog", c.Arango.Database)
	require.Equal(t, 2*time.Second, c.Arango.QueryTimeout)
	require.Equal(t, 30*time.Second, c.Arango.ConnectTimeout)
	require.Equal(t, 2, c.Runtime.MaxConcurrency)
}

func TestParse_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":      "serve:\n  listen: x\n",
		"empty endpoints":  "arango:\n  endpoints: []\n",
		"empty database":   "arango:\n  database: \"\"\n",
		"negative workers": "runtime:\n  maxConcurrency: -1\n",
		"bad duration":     "server:\n  timeout: soon\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), c)

	path := filepath.Join(t.TempDir(), "aqlgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))
	c, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", c.Log.Level)
	require.Equal(t, "auto", c.Log.Format)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
