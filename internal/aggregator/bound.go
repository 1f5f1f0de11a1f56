package aggregator

import (
	"context"
	"slices"

	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/queryir"
)

// Bound is an Aggregator with one variable fixed to a constant.
//
// It stores nothing itself; every call delegates to the parent:
//   - Record adds the fixed binding, and rejects records that already bind it
//   - Report filters on the fixed binding and always groups by it, appending
//     it to the grouping variables when absent
//   - DomainOf and DeleteRecords pass through untouched, so they see (and
//     delete) rows of every value of the fixed variable
//
// Schema hides the fixed variable, although reports still carry it.
type Bound struct {
	parent   Aggregator
	variable string
	value    any
	schema   *ir.Schema
}

func newBound(parent Aggregator, variable string, value any) (*Bound, error) {
	v, err := ir.NormalizeVariable(variable)
	if err != nil {
		return nil, err
	}
	if !parent.Schema().Has(v) {
		return nil, ir.NewUnknownVariableError(v, parent.Schema().Variables())
	}
	return &Bound{
		parent:   parent,
		variable: v,
		value:    value,
		schema:   parent.Schema().Without(v),
	}, nil
}

// Name returns the parent's table name.
func (b *Bound) Name() string { return b.parent.Name() }

// Schema returns the parent's schema without the fixed variable.
func (b *Bound) Schema() *ir.Schema { return b.schema }

// Variable returns the fixed variable.
func (b *Bound) Variable() string { return b.variable }

// Value returns the fixed value.
func (b *Bound) Value() any { return b.value }

// Record copies r, adds the fixed binding and records it on the parent.
func (b *Bound) Record(ctx context.Context, r *ir.Record) error {
	if r == nil {
		return ir.NewInvalidArgumentError("nil record")
	}
	if r.Has(b.variable) {
		return ir.NewDuplicateBoundVariableError(b.variable, b.value)
	}
	return b.parent.Record(ctx, r.Copy().Set(b.variable, b.value))
}

// Report aggregates the rows holding the fixed value.
func (b *Bound) Report(ctx context.Context, agg queryir.Aggregate, variables ...string) (*ir.Records, error) {
	return b.report(ctx, agg, variables, queryir.True(), nil)
}

// DomainOf delegates to the parent without filtering on the fixed value.
func (b *Bound) DomainOf(ctx context.Context, variable string) ([]any, error) {
	return b.domainOf(ctx, variable, queryir.True(), nil)
}

// DeleteRecords delegates to the parent without filtering on the fixed
// value: it removes every row of the table.
func (b *Bound) DeleteRecords(ctx context.Context) error {
	return b.deleteWhere(ctx, queryir.True())
}

// Filtered starts a query restricted to rows matching f.
func (b *Bound) Filtered(f queryir.Filter) Query {
	return newQuery(b).Filtered(f)
}

// Ordered starts a query sorted by orders.
func (b *Bound) Ordered(orders ...queryir.Order) Query {
	return newQuery(b).Ordered(orders...)
}

// With fixes a second variable.
func (b *Bound) With(variable string, value any) (*Bound, error) {
	return newBound(b, variable, value)
}

func (b *Bound) report(ctx context.Context, agg queryir.Aggregate, variables []string, filter queryir.Filter, orders []queryir.Order) (*ir.Records, error) {
	vars := slices.Clone(variables)
	if !slices.ContainsFunc(vars, func(v string) bool {
		n, err := ir.NormalizeVariable(v)
		return err == nil && n == b.variable
	}) {
		vars = append(vars, b.variable)
	}
	return b.parent.report(ctx, agg, vars, queryir.And(filter, queryir.Eq(b.variable, b.value)), orders)
}

func (b *Bound) domainOf(ctx context.Context, variable string, filter queryir.Filter, orders []queryir.Order) ([]any, error) {
	return b.parent.domainOf(ctx, variable, filter, orders)
}

func (b *Bound) deleteWhere(ctx context.Context, filter queryir.Filter) error {
	return b.parent.deleteWhere(ctx, filter)
}
