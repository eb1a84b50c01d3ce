package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanpama/aqlgraph/internal/aql"
	language "github.com/hanpama/aqlgraph/internal/language"
)

type compileFlags struct {
	operation string
	variables string
	context   string
}

func newCompileCmd(root *rootOptions) *cobra.Command {
	f := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "compile [query-file]",
		Short: "Print the AQL and bind variables of every root field of a query",
		Long: "Compiles each root field of the selected operation into its first-stage " +
			"AQL program without contacting the database. The query is read from " +
			"query-file, or from stdin when it is omitted or \"-\".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return f.run(cmd.OutOrStdout(), root.cfg.Schema, query)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.operation, "operation", "", "operation name, required when the document has several")
	flags.StringVar(&f.variables, "variables", "", "variable values as a JSON object")
	flags.StringVar(&f.context, "context", "", "value bound to @context as JSON")
	return cmd
}

func readQuery(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	return string(b), err
}

func (f *compileFlags) run(out io.Writer, schemaPaths []string, query string) error {
	src, sch, err := loadSchema(schemaPaths)
	if err != nil {
		return err
	}
	doc, errs := language.LoadQuery(src, query)
	if len(errs) > 0 {
		return fmt.Errorf("invalid query: %w", errs)
	}
	op := doc.Operations.ForName(f.operation)
	if op == nil {
		return fmt.Errorf("operation %q not found", f.operation)
	}

	var variables map[string]any
	if f.variables != "" {
		if err := json.Unmarshal([]byte(f.variables), &variables); err != nil {
			return fmt.Errorf("--variables: %w", err)
		}
	}
	var contextValue any
	if f.context != "" {
		if err := json.Unmarshal([]byte(f.context), &contextValue); err != nil {
			return fmt.Errorf("--context: %w", err)
		}
	}

	rootType := sch.QueryType
	if op.Operation == language.Mutation {
		rootType = sch.MutationType
	}
	ex := &aql.Extractor{Schema: sch, Variables: variables, Fragments: doc.Fragments}
	for _, sel := range op.SelectionSet {
		field, ok := sel.(*language.Field)
		if !ok {
			continue
		}
		if err := compileField(out, ex, rootType, field, contextValue); err != nil {
			return err
		}
	}
	return nil
}

func compileField(out io.Writer, ex *aql.Extractor, rootType string, field *language.Field, contextValue any) error {
	name := field.Alias
	if name == "" {
		name = field.Name
	}
	q, err := ex.Extract(field, rootType, nil, aql.Path{name})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if q == nil {
		_, err := fmt.Fprintf(out, "# %s: not backed by a query\n\n", name)
		return err
	}
	prog, err := aql.Prepare(q, name, nil, contextValue)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	vars, err := json.MarshalIndent(prog.BindVars, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "# %s\n%s\n\n# bind variables\n%s\n\n", name, prog.Text, vars)
	return err
}
