package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/benchy/internal/aggregator"
	"github.com/roach88/benchy/internal/compiler"
	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/querysql"
	"github.com/roach88/benchy/internal/store"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Name  string
	Force bool
	Reuse bool
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <schema.cue>",
		Short: "Create a table from a CUE schema",
		Long: `Create a table from a CUE schema declaration.

The file declares the variables in order and, optionally, the table name:

  name: "runs"
  schema: {
    host:    "LONG_STRING"
    size:    "INTEGER"
    latency: "DOUBLE"
  }

Example:
  benchy create runs.cue
  benchy create --name nightly --force runs.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return createTable(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "table name (overrides the name in the schema file)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "drop any existing table of that name first")
	cmd.Flags().BoolVar(&opts.Reuse, "reuse", false, "keep an existing table when its schema matches")
	cmd.MarkFlagsMutuallyExclusive("force", "reuse")

	return cmd
}

func createTable(opts *CreateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	def, err := compiler.LoadSchemaFile(path)
	if err != nil {
		return formatter.Fail(err)
	}
	name := def.Name
	if opts.Name != "" {
		name = opts.Name
	}
	if name == "" {
		return formatter.Fail(ir.NewInvalidArgumentError("%s declares no name and --name is not set", path))
	}
	formatter.VerboseLog("Compiled %s: %s %s", path, name, def.Schema)

	return withStore(cmd, opts.RootOptions, func(ctx context.Context, st *store.Store) error {
		var table *aggregator.Table
		switch {
		case opts.Force:
			table, err = st.ForceCreate(ctx, name, def.Schema)
		case opts.Reuse:
			table, err = st.GetOrCreate(ctx, name, def.Schema)
		default:
			table, err = st.Create(ctx, name, def.Schema)
		}
		if err != nil {
			return formatter.Fail(err)
		}
		return outputTable(formatter, "Created", table)
	})
}

// NewDropCommand creates the drop command.
func NewDropCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table and every record in it",
		Long: `Drop a table and every record in it. Dropping a table that does not
exist is not an error.

Example:
  benchy drop runs`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			return withStore(cmd, rootOpts, func(ctx context.Context, st *store.Store) error {
				dropped, err := st.Drop(ctx, args[0])
				if err != nil {
					return formatter.Fail(err)
				}
				if formatter.Format == "json" {
					name, _ := querysql.TableName(args[0])
					return formatter.Success(map[string]any{"table": name, "dropped": dropped})
				}
				if !dropped {
					fmt.Fprintf(formatter.Writer, "No table %s\n", args[0])
					return nil
				}
				fmt.Fprintf(formatter.Writer, "Dropped %s\n", args[0])
				return nil
			})
		},
	}
	return cmd
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tables",
		Short:         "List tables",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			return withStore(cmd, rootOpts, func(ctx context.Context, st *store.Store) error {
				names, err := st.Tables(ctx)
				if err != nil {
					return formatter.Fail(err)
				}
				if formatter.Format == "json" {
					return formatter.Success(names)
				}
				for _, n := range names {
					fmt.Fprintln(formatter.Writer, n)
				}
				return nil
			})
		},
	}
	return cmd
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the schema of a table",
		Long: `Show the variables of a table in order, with their data types.

Example:
  benchy describe runs
  benchy describe runs --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			return withStore(cmd, rootOpts, func(ctx context.Context, st *store.Store) error {
				table, err := st.Get(ctx, args[0])
				if err != nil {
					return formatter.Fail(err)
				}
				return outputTable(formatter, "", table)
			})
		},
	}
	return cmd
}

type columnInfo struct {
	Variable string `json:"variable"`
	Type     string `json:"type"`
}

type tableInfo struct {
	Table   string       `json:"table"`
	Columns []columnInfo `json:"columns"`
}

func describe(table aggregator.Aggregator) tableInfo {
	schema := table.Schema()
	info := tableInfo{Table: table.Name(), Columns: make([]columnInfo, 0, schema.Len())}
	for _, v := range schema.Variables() {
		typ, _ := schema.TypeOf(v)
		info.Columns = append(info.Columns, columnInfo{Variable: v, Type: typ.Name()})
	}
	return info
}

// outputTable prints the table schema, preceded by a heading line in text
// format when heading is set.
func outputTable(formatter *OutputFormatter, heading string, table aggregator.Aggregator) error {
	info := describe(table)
	if formatter.Format == "json" {
		return formatter.Success(info)
	}

	if heading != "" {
		fmt.Fprintf(formatter.Writer, "%s %s\n", heading, info.Table)
	}
	width := 0
	for _, c := range info.Columns {
		width = max(width, len(c.Variable))
	}
	for _, c := range info.Columns {
		fmt.Fprintf(formatter.Writer, "  %-*s  %s\n", width, c.Variable, c.Type)
	}
	return nil
}
