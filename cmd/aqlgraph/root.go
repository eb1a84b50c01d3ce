package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanpama/aqlgraph/internal/aql"
	"github.com/hanpama/aqlgraph/internal/arangort"
	"github.com/hanpama/aqlgraph/internal/config"
	language "github.com/hanpama/aqlgraph/internal/language"
	"github.com/hanpama/aqlgraph/internal/logging"
	"github.com/hanpama/aqlgraph/internal/schema"
)

// rootOptions carries the configuration shared by every subcommand. cfg is
// populated in PersistentPreRunE.
type rootOptions struct {
	configPath string
	schema     []string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "aqlgraph",
		Short:        "GraphQL over ArangoDB",
		Long:         "Compiles GraphQL selections into AQL queries and serves them over HTTP",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML configuration file")
	flags.StringSliceVar(&opts.schema, "schema", nil, "GraphQL SDL files, overrides the configured schema list")
	flags.StringVar(&opts.logLevel, "log-level", "", `log level ("debug", "info", "warn", "error")`)
	flags.StringVar(&opts.logFormat, "log-format", "", `log format ("json", "console", "auto")`)

	cmd.AddCommand(newServeCmd(opts), newCompileCmd(opts), newDirectivesCmd())
	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("schema") {
		cfg.Schema = o.schema
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, logging.Format(cfg.Log.Format))
	if err != nil {
		return err
	}
	logging.SetGlobalLogger(logger)
	o.cfg = cfg
	return nil
}

// loadSchema reads the SDL files together with the directive definitions.
// The validated source is kept for query validation.
func loadSchema(paths []string) (*language.Schema, *schema.Schema, error) {
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no schema files configured")
	}
	sources := []*language.Source{{Name: "aqlgraph/directives.graphql", Input: aql.DirectiveTypeDefs}}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("read schema: %w", err)
		}
		sources = append(sources, &language.Source{Name: p, Input: string(b)})
	}
	src, err := language.LoadSchema(sources...)
	if err != nil {
		return nil, nil, fmt.Errorf("load schema: %w", err)
	}
	sch, err := schema.Build(src, schema.WithAsync(arangort.IsAsync))
	if err != nil {
		return nil, nil, fmt.Errorf("build schema: %w", err)
	}
	return src, sch, nil
}

func newDirectivesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "directives",
		Short: "Print the SDL of the query directives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), aql.DirectiveTypeDefs)
			return err
		},
	}
}
