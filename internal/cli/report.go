package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/benchy/internal/aggregator"
	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/queryir"
	"github.com/roach88/benchy/internal/render"
	"github.com/roach88/benchy/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	QueryOptions
	Aggregate string
	Per       []string
	Bind      []string
	Having    string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <table>",
		Short: "Aggregate a table per group of variables",
		Long: `Aggregate a table, producing one record per distinct combination of the
--per variables. Without --per the whole selection is aggregated at once.

--agg is COUNT or FUNC(VAR) with FUNC one of SUM, AVG, MIN, MAX.
--where and --order narrow and sort the rows before grouping; ordering on
AGGREGATED_COLUMN sorts COUNT results. --bind VAR=value restricts the report
to one value of VAR and adds VAR to the groups. --having keeps only the
result records matching a boolean expression, with the aggregate as "value".

Example:
  benchy report runs --agg 'AVG(latency)' --per host
  benchy report runs --agg count --per host --per size --order 'aggregated_column desc'
  benchy report runs --agg 'MAX(latency)' --per host --having 'value != 0'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Aggregate, "agg", "COUNT", "aggregate: COUNT or FUNC(VAR)")
	cmd.Flags().StringSliceVar(&opts.Per, "per", nil, "grouping variables (repeatable or comma separated)")
	cmd.Flags().StringArrayVar(&opts.Bind, "bind", nil, "fix a variable as VAR=value (repeatable)")
	cmd.Flags().StringVar(&opts.Having, "having", "", "keep result records matching this expression")
	opts.QueryOptions.addFlags(cmd)

	return cmd
}

func runReport(opts *ReportOptions, tableName string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	agg, err := queryir.ParseAggregate(opts.Aggregate)
	if err != nil {
		return formatter.Fail(err)
	}

	return withStore(cmd, opts.RootOptions, func(ctx context.Context, st *store.Store) error {
		records, err := report(ctx, st, tableName, agg, opts.Per, opts.Bind, &opts.QueryOptions, opts.Having)
		if err != nil {
			return formatter.Fail(err)
		}
		formatter.VerboseLog("%s per %v: %d record(s)", agg, records.Variables(), records.Len())
		return outputRecords(formatter, records, agg)
	})
}

// report resolves the table, applies bindings and selection flags and runs
// the aggregate, then post-filters the result by having.
func report(ctx context.Context, st *store.Store, tableName string, agg queryir.Aggregate, per, bindings []string, q *QueryOptions, having string) (*ir.Records, error) {
	table, err := st.Get(ctx, tableName)
	if err != nil {
		return nil, err
	}
	target, err := bindAll(table, bindings)
	if err != nil {
		return nil, err
	}
	query, err := q.apply(target)
	if err != nil {
		return nil, err
	}
	records, err := query.Report(ctx, agg, per...)
	if err != nil {
		return nil, err
	}
	if having == "" {
		return records, nil
	}
	return records.Where(having)
}

// bindAll fixes every VAR=value binding in turn.
func bindAll(agg aggregator.Aggregator, bindings []string) (aggregator.Aggregator, error) {
	for _, b := range bindings {
		name, value, ok := strings.Cut(b, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, ir.NewInvalidArgumentError("binding %q is not of the form VAR=value", b)
		}
		var err error
		agg, err = bind(agg, strings.TrimSpace(name), strings.TrimSpace(value))
		if err != nil {
			return nil, err
		}
	}
	return agg, nil
}

type reportResult struct {
	Aggregate string           `json:"aggregate"`
	Variables []string         `json:"variables"`
	Records   []map[string]any `json:"records"`
}

func outputRecords(formatter *OutputFormatter, records *ir.Records, agg queryir.Aggregate) error {
	switch formatter.Format {
	case "json":
		result := reportResult{
			Aggregate: agg.String(),
			Variables: records.Variables(),
			Records:   make([]map[string]any, 0, records.Len()),
		}
		for r := range records.All() {
			m := make(map[string]any, r.Len()+1)
			for k, v := range r.All() {
				m[k] = v
			}
			if v, ok := r.Value(); ok {
				m["value"] = v
			}
			result.Records = append(result.Records, m)
		}
		return formatter.Success(result)

	case "csv":
		w := csv.NewWriter(formatter.Writer)
		header := append(records.Variables(), agg.ResultName())
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		for r := range records.All() {
			row := make([]string, 0, len(header))
			for _, v := range records.Variables() {
				val, _ := r.Get(v)
				row = append(row, render.FormatValue(val))
			}
			val, _ := r.Value()
			row = append(row, render.FormatValue(val))
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
		w.Flush()
		return w.Error()

	default:
		fmt.Fprintln(formatter.Writer, records.String())
		return nil
	}
}

// DomainOptions holds flags for the domain command.
type DomainOptions struct {
	*RootOptions
	QueryOptions
}

// NewDomainCommand creates the domain command.
func NewDomainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DomainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "domain <table> <variable>",
		Short: "List the distinct values of a variable",
		Long: `List the distinct values a variable takes in the selected rows, in
ascending order unless --order says otherwise.

Example:
  benchy domain runs host
  benchy domain runs size --where 'host=h1' --order 'size desc'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, opts.RootOptions)
			return withStore(cmd, opts.RootOptions, func(ctx context.Context, st *store.Store) error {
				table, err := st.Get(ctx, args[0])
				if err != nil {
					return formatter.Fail(err)
				}
				query, err := opts.apply(table)
				if err != nil {
					return formatter.Fail(err)
				}
				values, err := query.DomainOf(ctx, args[1])
				if err != nil {
					return formatter.Fail(err)
				}
				return outputDomain(formatter, args[1], values)
			})
		},
	}
	opts.QueryOptions.addFlags(cmd)

	return cmd
}

func outputDomain(formatter *OutputFormatter, variable string, values []any) error {
	switch formatter.Format {
	case "json":
		if values == nil {
			values = []any{}
		}
		return formatter.Success(values)
	case "csv":
		w := csv.NewWriter(formatter.Writer)
		_ = w.Write([]string{ir.MustVariable(variable)})
		for _, v := range values {
			_ = w.Write([]string{render.FormatValue(v)})
		}
		w.Flush()
		return w.Error()
	default:
		for _, v := range values {
			fmt.Fprintln(formatter.Writer, render.FormatValue(v))
		}
		return nil
	}
}

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	QueryOptions
	All bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <table>",
		Short: "Delete records from a table",
		Long: `Delete the records matching every --where filter. Deleting without a
filter requires --all.

Example:
  benchy delete runs --where 'host=h1'
  benchy delete runs --all`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, opts.RootOptions)
			if len(opts.Where) == 0 && !opts.All {
				return formatter.Fail(ir.NewInvalidArgumentError("refusing to delete every record of %s without --all", args[0]))
			}
			return withStore(cmd, opts.RootOptions, func(ctx context.Context, st *store.Store) error {
				table, err := st.Get(ctx, args[0])
				if err != nil {
					return formatter.Fail(err)
				}
				query, err := opts.apply(table)
				if err != nil {
					return formatter.Fail(err)
				}
				if err := query.DeleteRecords(ctx); err != nil {
					return formatter.Fail(err)
				}
				if formatter.Format == "json" {
					return formatter.Success(map[string]any{"table": table.Name(), "where": opts.Where})
				}
				fmt.Fprintf(formatter.Writer, "Deleted records from %s\n", table.Name())
				return nil
			})
		},
	}
	opts.QueryOptions.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.All, "all", false, "delete every record when no --where is given")

	return cmd
}
