package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/aqlgraph/internal/arangort"
	"github.com/hanpama/aqlgraph/internal/arangotp"
	"github.com/hanpama/aqlgraph/internal/config"
	"github.com/hanpama/aqlgraph/internal/eventbus"
	"github.com/hanpama/aqlgraph/internal/introspection"
	"github.com/hanpama/aqlgraph/internal/logging"
	"github.com/hanpama/aqlgraph/internal/metrics"
	"github.com/hanpama/aqlgraph/internal/otel"
	"github.com/hanpama/aqlgraph/internal/server"
)

const shutdownGracePeriod = 10 * time.Second

type serveFlags struct {
	listen         string
	endpoints      []string
	database       string
	username       string
	password       string
	otlpEndpoint   string
	maxConcurrency int
	contextHeaders []string
	corsOrigins    []string
	pretty         bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP GraphQL endpoint backed by ArangoDB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd, root.cfg)
			return serve(cmd.Context(), root.cfg)
		},
	}

	f.register(cmd)
	return cmd
}

func (f *serveFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.listen, "listen", "", "HTTP listen address")
	flags.StringSliceVar(&f.endpoints, "arango-endpoint", nil, "ArangoDB endpoint URL, repeatable")
	flags.StringVar(&f.database, "arango-database", "", "ArangoDB database name")
	flags.StringVar(&f.username, "arango-username", "", "ArangoDB user")
	flags.StringVar(&f.password, "arango-password", "", "ArangoDB password")
	flags.StringVar(&f.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector host:port")
	flags.IntVar(&f.maxConcurrency, "max-concurrency", 0, "maximum concurrent queries per depth, 0 for unbounded")
	flags.StringSliceVar(&f.contextHeaders, "context-header", nil, "HTTP header exposed to queries as $context, repeatable")
	flags.StringSliceVar(&f.corsOrigins, "cors-origin", nil, "allowed CORS origin, repeatable")
	flags.BoolVar(&f.pretty, "pretty", false, "indent JSON responses")
}

// apply overrides configuration values with explicitly set flags.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Server.Listen = f.listen
	}
	if flags.Changed("arango-endpoint") {
		cfg.Arango.Endpoints = f.endpoints
	}
	if flags.Changed("arango-database") {
		cfg.Arango.Database = f.database
	}
	if flags.Changed("arango-username") {
		cfg.Arango.Username = f.username
	}
	if flags.Changed("arango-password") {
		cfg.Arango.Password = f.password
	}
	if flags.Changed("otlp-endpoint") {
		cfg.Telemetry.OTLPEndpoint = f.otlpEndpoint
	}
	if flags.Changed("max-concurrency") {
		cfg.Runtime.MaxConcurrency = f.maxConcurrency
	}
	if flags.Changed("context-header") {
		cfg.Server.ContextHeaders = f.contextHeaders
	}
	if flags.Changed("cors-origin") {
		cfg.Server.CORSOrigins = f.corsOrigins
	}
	if flags.Changed("pretty") {
		cfg.Server.Pretty = f.pretty
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	src, sch, err := loadSchema(cfg.Schema)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	defer logging.Subscribe()()
	shutdownTracing, err := otel.Setup(cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	var gatherer prometheus.Gatherer
	if cfg.Telemetry.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		defer metrics.New(reg).Subscribe()()
		gatherer = reg
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := arangotp.Connect(ctx,
		arangotp.WithEndpoints(cfg.Arango.Endpoints...),
		arangotp.WithDatabase(cfg.Arango.Database),
		arangotp.WithBasicAuth(cfg.Arango.Username, cfg.Arango.Password),
		arangotp.WithQueryTimeout(cfg.Arango.QueryTimeout),
		arangotp.WithConnectTimeout(cfg.Arango.ConnectTimeout),
		arangotp.WithBatchSize(cfg.Arango.BatchSize),
	)
	if err != nil {
		return err
	}
	defer conn.Close()

	rt := arangort.NewRuntime(sch, conn, arangort.WithMaxConcurrency(cfg.Runtime.MaxConcurrency))
	wrapped, err := introspection.Wrap(rt, sch)
	if err != nil {
		return err
	}

	sopts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithGraphiQL(cfg.Server.GraphiQL),
		server.WithValidation(src),
		server.WithContextHeaders(cfg.Server.ContextHeaders...),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	h, err := server.New(wrapped.Runtime, wrapped.Schema, sopts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           server.NewMux(h, gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info().Str("addr", srv.Addr).Str("database", conn.Database()).Msg("graphql server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		logging.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
