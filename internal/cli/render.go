package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coregx/sqlassist/internal/assist"
	"github.com/coregx/sqlassist/internal/dialects"
	"github.com/coregx/sqlassist/internal/logger"
	"github.com/coregx/sqlassist/internal/meta"
	"github.com/coregx/sqlassist/internal/security"
	"github.com/coregx/sqlassist/internal/statement"
)

// RenderOptions holds the flags of the render command.
type RenderOptions struct {
	Schema   string
	Dialect  string
	Op       string
	Row      string
	ID       string
	Where    []string
	Columns  []string
	Conflict string
	Page     int
	Rows     int
	Strict   bool
}

// renderInput is what an operation may draw from.
type renderInput struct {
	row      map[string]any
	id       any
	set      *assist.ConditionSet
	columns  []string
	conflict string
}

type opFunc func(s *statement.Statement, in renderInput) statement.Result

// operations maps CLI operation names to synthesizer calls.
var operations = map[string]opFunc{
	"count": func(s *statement.Statement, in renderInput) statement.Result {
		return s.Count(in.set)
	},
	"exists": func(s *statement.Statement, in renderInput) statement.Result {
		return s.Exists(in.set)
	},
	"select-all": func(s *statement.Statement, in renderInput) statement.Result {
		return s.SelectAll(in.set)
	},
	"select-by-id": func(s *statement.Statement, in renderInput) statement.Result {
		return s.SelectByID(in.id, "", "")
	},
	"select-by-obj": func(s *statement.Statement, in renderInput) statement.Result {
		return s.SelectByObject(in.row, "", "", false)
	},
	"select-single-by-obj": func(s *statement.Statement, in renderInput) statement.Result {
		return s.SelectSingleByObject(in.row, "", "")
	},
	"insert-all": func(s *statement.Statement, in renderInput) statement.Result {
		return s.InsertAll(in.row)
	},
	"insert-non-empty": func(s *statement.Statement, in renderInput) statement.Result {
		return s.InsertNonEmpty(in.row)
	},
	"insert-all-return-id": func(s *statement.Statement, in renderInput) statement.Result {
		return s.InsertAllReturnID(in.row)
	},
	"insert-non-empty-return-id": func(s *statement.Statement, in renderInput) statement.Result {
		return s.InsertNonEmptyReturnID(in.row)
	},
	"upsert-all": func(s *statement.Statement, in renderInput) statement.Result {
		return s.UpsertAll(in.row, in.conflict)
	},
	"upsert-non-empty": func(s *statement.Statement, in renderInput) statement.Result {
		return s.UpsertNonEmpty(in.row, in.conflict)
	},
	"upsert-all-return-id": func(s *statement.Statement, in renderInput) statement.Result {
		return s.UpsertAllReturnID(in.row, in.conflict)
	},
	"upsert-non-empty-return-id": func(s *statement.Statement, in renderInput) statement.Result {
		return s.UpsertNonEmptyReturnID(in.row, in.conflict)
	},
	"replace": func(s *statement.Statement, in renderInput) statement.Result {
		return s.Replace(in.row)
	},
	"update-all-by-id": func(s *statement.Statement, in renderInput) statement.Result {
		return s.UpdateAllByID(in.row)
	},
	"update-all-by-assist": func(s *statement.Statement, in renderInput) statement.Result {
		return s.UpdateAllByAssist(in.row, in.set)
	},
	"update-non-empty-by-id": func(s *statement.Statement, in renderInput) statement.Result {
		return s.UpdateNonEmptyByID(in.row)
	},
	"update-non-empty-by-assist": func(s *statement.Statement, in renderInput) statement.Result {
		return s.UpdateNonEmptyByAssist(in.row, in.set)
	},
	"update-set-null-by-id": func(s *statement.Statement, in renderInput) statement.Result {
		return s.UpdateSetNullByID(in.id, in.columns...)
	},
	"update-set-null-by-assist": func(s *statement.Statement, in renderInput) statement.Result {
		return s.UpdateSetNullByAssist(in.set, in.columns...)
	},
	"delete-by-id": func(s *statement.Statement, in renderInput) statement.Result {
		return s.DeleteByID(in.id)
	},
	"delete-by-assist": func(s *statement.Statement, in renderInput) statement.Result {
		return s.DeleteByAssist(in.set)
	},
}

// OperationNames returns the operation names accepted by --op, sorted.
func OperationNames() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the SQL and parameters of one operation",
		Long: `Synthesize one operation for the entity declared in --schema and print
its SQL text and bound parameters. Nothing is executed.

Examples:
  sqlassist render --schema user.yaml --op delete-by-id --id 7
  sqlassist render --schema user.yaml --dialect postgres --op insert-non-empty --row '{"name":"a"}'
  sqlassist render --schema user.yaml --op select-all --where name=a --page 2 --rows 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(rootOpts, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "entity schema YAML file (required)")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "mysql", "SQL dialect (mysql|postgres|sqlite)")
	cmd.Flags().StringVar(&opts.Op, "op", "", "operation name, see 'sqlassist ops'")
	cmd.Flags().StringVar(&opts.Row, "row", "{}", "row values as a JSON object keyed by column")
	cmd.Flags().StringVar(&opts.ID, "id", "", "primary key value")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "column=value equality predicate (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "columns set to null by update-set-null-*")
	cmd.Flags().StringVar(&opts.Conflict, "conflict", "", "upsert conflict column (default: primary key)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number for select-all")
	cmd.Flags().IntVar(&opts.Rows, "rows", 0, "rows per page for select-all")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "strict validation of raw fragments")
	_ = cmd.MarkFlagRequired("op")

	return cmd
}

// renderOutput is the JSON form of a rendered statement.
type renderOutput struct {
	Op     string `json:"op"`
	Kind   string `json:"kind"`
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

func runRender(rootOpts *RootOptions, opts *RenderOptions, out, errOut io.Writer) error {
	if opts.Schema == "" {
		return errNoSchema
	}
	fn, ok := operations[opts.Op]
	if !ok {
		return fmt.Errorf("unknown operation %q: must be one of %s", opts.Op, strings.Join(OperationNames(), ", "))
	}
	d, ok := dialects.Lookup(opts.Dialect)
	if !ok {
		return fmt.Errorf("unknown dialect %q", opts.Dialect)
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

	stmtOpts := []statement.Option{statement.WithValidator(security.NewValidator(security.WithStrict(opts.Strict)))}
	if rootOpts.Verbose {
		stmtOpts = append(stmtOpts, statement.WithLogger(logger.NewText(errOut, slog.LevelDebug)))
	}
	stmt, err := statement.New(d, md, stmtOpts...)
	if err != nil {
		return err
	}

	r := fn(stmt, in)
	if !r.Succeeded() {
		return r.Err()
	}
	return writeResult(rootOpts.Format, out, r)
}

func (o *RenderOptions) input() (renderInput, error) {
	in := renderInput{columns: o.Columns, conflict: o.Conflict}

	dec := json.NewDecoder(strings.NewReader(o.Row))
	dec.UseNumber()
	if err := dec.Decode(&in.row); err != nil {
		return in, fmt.Errorf("--row: %w", err)
	}
	if in.row == nil {
		in.row = map[string]any{}
	}
	if o.ID != "" {
		in.id = parseScalar(o.ID)
	}

	set, err := parseWhere(o.Where)
	if err != nil {
		return in, err
	}
	if o.Page > 0 || o.Rows > 0 {
		set.Page(o.Page).RowSize(o.Rows).Paginate()
	}
	in.set = set
	return in, nil
}

func writeResult(format string, out io.Writer, r statement.Result) error {
	if format == "json" {
		params := r.Params()
		if r.Kind() == statement.KindBatch {
			params = nil
		}
		return writeJSON(out, renderOutput{Op: r.Op(), Kind: r.Kind().String(), SQL: r.SQL(), Params: params})
	}
	params, err := json.Marshal(r.Params())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\nparams: %s\n", r.SQL(), params)
	return err
}

func writeJSON(out io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := out.Write(buf.Bytes())
	return err
}
