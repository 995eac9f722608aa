package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coregx/sqlassist/internal/analyzer"
	"github.com/coregx/sqlassist/internal/config"
	"github.com/coregx/sqlassist/internal/meta"
	"github.com/coregx/sqlassist/internal/statement"
)

// ExplainOptions holds the flags of the explain command.
type ExplainOptions struct {
	RenderOptions
	Config string
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{}

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Print the execution plan of one operation",
		Long: `Synthesize one operation for the entity declared in --schema and ask the
configured database for its execution plan. The statement is not executed.

Examples:
  sqlassist explain --config db.yaml --schema user.yaml --op select-by-id --id 7
  sqlassist explain --config db.yaml --schema user.yaml --op count --where name=a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExplain(cmd.Context(), rootOpts, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "database configuration YAML file (required)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "entity schema YAML file (required)")
	cmd.Flags().StringVar(&opts.Op, "op", "", "operation name, see 'sqlassist ops'")
	cmd.Flags().StringVar(&opts.Row, "row", "{}", "row values as a JSON object keyed by column")
	cmd.Flags().StringVar(&opts.ID, "id", "", "primary key value")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "column=value equality predicate (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "columns set to null by update-set-null-*")
	cmd.Flags().StringVar(&opts.Conflict, "conflict", "", "upsert conflict column (default: primary key)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number for select-all")
	cmd.Flags().IntVar(&opts.Rows, "rows", 0, "rows per page for select-all")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("op")

	return cmd
}

func runExplain(ctx context.Context, rootOpts *RootOptions, opts *ExplainOptions, out, errOut io.Writer) (err error) {
	if opts.Schema == "" {
		return errNoSchema
	}
	fn, ok := operations[opts.Op]
	if !ok {
		return fmt.Errorf("unknown operation %q", opts.Op)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}
	schema, err := LoadSchema(opts.Schema)
	if err != nil {
		return err
	}
	md, err := schema.Metadata(meta.NewRegistry())
	if err != nil {
		return err
	}
	in, err := opts.input()
	if err != nil {
		return err
	}

	db, err := cfg.Open(errOut)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	stmt, err := statement.New(db.Dialect(), md, statement.WithValidator(cfg.Validator()))
	if err != nil {
		return err
	}
	plan, err := db.Explain(ctx, fn(stmt, in))
	if err != nil {
		return err
	}
	return writePlan(rootOpts.Format, out, plan)
}

func writePlan(format string, out io.Writer, plan *analyzer.Plan) error {
	if format == "json" {
		return writeJSON(out, plan)
	}
	_, err := fmt.Fprintf(out, "%s\nuses index: %t %s\nfull scan: %t\n", plan.Raw, plan.UsesIndex, plan.IndexName, plan.FullScan)
	return err
}
