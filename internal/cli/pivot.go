package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/benchy/internal/diagram"
	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/queryir"
	"github.com/roach88/benchy/internal/render"
	"github.com/roach88/benchy/internal/store"
)

// PivotOptions holds flags for the pivot command.
type PivotOptions struct {
	*RootOptions
	QueryOptions
	Aggregate  string
	Per        []string
	Bind       []string
	Having     string
	Title      string
	RangeLabel string
	Labels     []string
	Descending []string
}

// NewPivotCommand creates the pivot command.
func NewPivotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PivotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pivot <table>",
		Short: "Pivot a report into a table",
		Long: `Run a report and pivot it: the first --per variable runs down the side,
the second across the top, each sorted ascending unless named by --desc.
Cells no record falls into print as "-" in text and stay empty in CSV.

Text and CSV output handle up to two --per variables. JSON output handles
any number and lists the cells densely, first variable varying fastest.

Example:
  benchy pivot runs --agg 'AVG(latency)' --per host --per size --title Latency --range-label ms
  benchy pivot runs --agg count --per host --format csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPivot(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Aggregate, "agg", "COUNT", "aggregate: COUNT or FUNC(VAR)")
	cmd.Flags().StringSliceVar(&opts.Per, "per", nil, "pivot variables (repeatable or comma separated)")
	cmd.Flags().StringArrayVar(&opts.Bind, "bind", nil, "fix a variable as VAR=value (repeatable)")
	cmd.Flags().StringVar(&opts.Having, "having", "", "keep result records matching this expression")
	cmd.Flags().StringVar(&opts.Title, "title", "", "diagram title (default: the table name)")
	cmd.Flags().StringVar(&opts.RangeLabel, "range-label", "", "label of the aggregated values (default: the aggregate)")
	cmd.Flags().StringArrayVar(&opts.Labels, "label", nil, "label a variable as VAR=label (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Descending, "desc", nil, "variables whose values sort descending")
	opts.QueryOptions.addFlags(cmd)

	return cmd
}

func runPivot(opts *PivotOptions, tableName string, cmd *cobra.Command) error {
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
		d, err := opts.diagram(records, agg, tableName)
		if err != nil {
			return formatter.Fail(err)
		}
		formatter.VerboseLog("Pivoted %d record(s) over %v", records.Len(), d.Variables())

		switch formatter.Format {
		case "json":
			result, err := pivotJSON(d)
			if err != nil {
				return formatter.Fail(err)
			}
			return formatter.Success(result)
		case "csv":
			err = render.CSV(formatter.Writer, d)
		default:
			err = render.Table(formatter.Writer, d)
		}
		if err != nil {
			return formatter.Fail(err)
		}
		return nil
	})
}

func (opts *PivotOptions) diagram(records *ir.Records, agg queryir.Aggregate, tableName string) (*diagram.Diagram, error) {
	desc := make(map[string]bool, len(opts.Descending))
	for _, v := range opts.Descending {
		name, err := ir.NormalizeVariable(v)
		if err != nil {
			return nil, err
		}
		if !records.Declares(name) {
			return nil, ir.NewUnknownVariableError(name, records.Variables())
		}
		desc[name] = true
	}

	variables := records.Variables()
	orders := make([]queryir.Order, len(variables))
	for i, v := range variables {
		orders[i] = queryir.Asc(v)
		if desc[v] {
			orders[i] = queryir.Desc(v)
		}
	}
	d, err := diagram.NewWithOrders(records, orders)
	if err != nil {
		return nil, err
	}

	title := opts.Title
	if title == "" {
		title, _ = ir.NormalizeVariable(tableName)
	}
	d.WithTitle(title)
	rangeLabel := opts.RangeLabel
	if rangeLabel == "" {
		rangeLabel = agg.String()
	}
	d.WithRangeLabel(rangeLabel)

	for _, l := range opts.Labels {
		name, label, ok := strings.Cut(l, "=")
		if !ok {
			return nil, ir.NewInvalidArgumentError("label %q is not of the form VAR=label", l)
		}
		v, err := ir.NormalizeVariable(name)
		if err != nil {
			return nil, err
		}
		found := false
		for i, dv := range variables {
			if dv == v {
				d.WithVariableLabel(i, label)
				found = true
			}
		}
		if !found {
			return nil, ir.NewUnknownVariableError(v, variables)
		}
	}
	return d, nil
}

type pivotDimension struct {
	Variable string `json:"variable"`
	Label    string `json:"label"`
	Domain   []any  `json:"domain"`
}

type pivotResult struct {
	Title      string           `json:"title"`
	RangeLabel string           `json:"range_label"`
	Dimensions []pivotDimension `json:"dimensions"`
	Cells      []any            `json:"cells"`
}

// pivotJSON lists every cell of d, dimension 0 varying fastest. Empty cells
// are null.
func pivotJSON(d *diagram.Diagram) (*pivotResult, error) {
	result := &pivotResult{
		Title:      d.Title(),
		RangeLabel: d.RangeLabel(),
		Dimensions: make([]pivotDimension, d.VariableCount()),
	}
	sizes := make([]int, d.VariableCount())
	total := 1
	for i, v := range d.Variables() {
		domain := d.Domain(i)
		if domain == nil {
			domain = []any{}
		}
		result.Dimensions[i] = pivotDimension{Variable: v, Label: d.LabelOf(i), Domain: domain}
		sizes[i] = d.DomainSize(i)
		total *= sizes[i]
	}

	result.Cells = make([]any, 0, total)
	index := make([]int, len(sizes))
	for range total {
		r, err := d.RecordAt(index...)
		if err != nil {
			return nil, err
		}
		var cell any
		if r != nil {
			cell, _ = r.Value()
		}
		result.Cells = append(result.Cells, cell)

		for i := range index {
			index[i]++
			if index[i] < sizes[i] {
				break
			}
			index[i] = 0
		}
	}
	return result, nil
}
