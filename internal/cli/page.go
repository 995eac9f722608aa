package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coregx/sqlassist/internal/config"
	"github.com/coregx/sqlassist/internal/core"
	"github.com/coregx/sqlassist/internal/meta"
	"github.com/coregx/sqlassist/internal/statement"
)

// PageOptions holds the flags of the page command.
type PageOptions struct {
	Config string
	Schema string
	Page   int
	Rows   int
	Where  []string
}

// NewPageCommand creates the page command.
func NewPageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PageOptions{}

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Fetch one page of rows from the configured database",
		Long: `Count the rows matching --where, then select the requested page of the
entity declared in --schema and print it as JSON.

Examples:
  sqlassist page --config db.yaml --schema user.yaml
  sqlassist page --config db.yaml --schema user.yaml --page 2 --rows 10 --where name=a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPage(cmd.Context(), rootOpts, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "database configuration YAML file (required)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "entity schema YAML file (required)")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&opts.Rows, "rows", 15, "rows per page")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "column=value equality predicate (repeatable)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runPage(ctx context.Context, _ *RootOptions, opts *PageOptions, out, errOut io.Writer) (err error) {
	if opts.Schema == "" {
		return errNoSchema
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
	set, err := parseWhere(opts.Where)
	if err != nil {
		return err
	}
	set.Page(opts.Page).RowSize(opts.Rows)

	db, err := cfg.Open(errOut)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	stmt, err := statement.New(db.Dialect(), md,
		statement.WithValidator(cfg.Validator()),
		statement.WithLogger(cfg.Logger(errOut)))
	if err != nil {
		return err
	}

	page, err := core.NewCommand(stmt, db).LimitAll(ctx, set)
	if err != nil {
		return fmt.Errorf("page %s: %w", md.Table(), err)
	}
	return writeJSON(out, page)
}
