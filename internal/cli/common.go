package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/benchy/internal/aggregator"
	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/queryir"
	"github.com/roach88/benchy/internal/store"
)

// QueryOptions holds the selection flags shared by report, domain, delete
// and pivot.
type QueryOptions struct {
	Where  []string
	Orders []string
}

func (q *QueryOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&q.Where, "where", nil, "filter as VAR<op>value (repeatable, conjoined)")
	cmd.Flags().StringArrayVar(&q.Orders, "order", nil, "ordering as VAR [ASC|DESC] (repeatable)")
}

// apply narrows agg by the parsed --where and --order flags.
func (q *QueryOptions) apply(agg aggregator.Aggregator) (aggregator.Query, error) {
	filters := make([]queryir.Filter, 0, len(q.Where))
	for _, text := range q.Where {
		f, err := queryir.ParseFilter(agg.Schema(), text)
		if err != nil {
			return aggregator.Query{}, err
		}
		filters = append(filters, f)
	}
	orders := make([]queryir.Order, 0, len(q.Orders))
	for _, text := range q.Orders {
		o, err := queryir.ParseOrder(text)
		if err != nil {
			return aggregator.Query{}, err
		}
		orders = append(orders, o)
	}
	return agg.Filtered(queryir.And(filters...)).Ordered(orders...), nil
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// withStore opens the database, runs fn and closes the database again.
func withStore(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, st *store.Store) error) error {
	slog.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return newFormatter(cmd, opts).Fail(ir.WrapStoreError("open database", err))
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, st)
}
