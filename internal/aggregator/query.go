package aggregator

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/queryir"
)

// Query is an immutable builder over an Aggregator.
//
// Filtered conjoins another filter and Ordered appends sort keys; both
// return a new Query and leave the receiver unchanged, so a partially built
// Query can be reused as the base of several reports:
//
//	recent := agg.Filtered(queryir.Gt("AT", since))
//	byHost, err := recent.AverageOf("LATENCY").Per(ctx, "HOST")
//	total, err := recent.Count().PerAll(ctx)
type Query struct {
	target  Aggregator
	filters []queryir.Filter
	orders  []queryir.Order
}

func newQuery(target Aggregator) Query {
	return Query{target: target}
}

// Filtered returns a query that also requires f.
func (q Query) Filtered(f queryir.Filter) Query {
	if f == nil {
		f = queryir.True()
	}
	return Query{
		target:  q.target,
		filters: append(slices.Clone(q.filters), f),
		orders:  slices.Clone(q.orders),
	}
}

// Ordered returns a query that also sorts by orders, after any existing ones.
func (q Query) Ordered(orders ...queryir.Order) Query {
	return Query{
		target:  q.target,
		filters: slices.Clone(q.filters),
		orders:  append(slices.Clone(q.orders), orders...),
	}
}

// Filter returns the conjunction of every filter added so far.
func (q Query) Filter() queryir.Filter {
	return queryir.And(q.filters...)
}

// Orders returns the sort keys added so far.
func (q Query) Orders() []queryir.Order {
	return slices.Clone(q.orders)
}

// Report groups the matching rows by variables and aggregates.
func (q Query) Report(ctx context.Context, agg queryir.Aggregate, variables ...string) (*ir.Records, error) {
	return q.target.report(ctx, agg, variables, q.Filter(), q.orders)
}

// DomainOf lists the distinct values of variable among the matching rows.
// Without orders the values are ascending.
func (q Query) DomainOf(ctx context.Context, variable string) ([]any, error) {
	return q.target.domainOf(ctx, variable, q.Filter(), q.orders)
}

// DeleteRecords removes the matching rows.
func (q Query) DeleteRecords(ctx context.Context) error {
	return q.target.deleteWhere(ctx, q.Filter())
}

// SumOf totals variable.
func (q Query) SumOf(variable string) PerClause {
	return PerClause{query: q, agg: queryir.Sum(variable)}
}

// AverageOf averages variable.
func (q Query) AverageOf(variable string) PerClause {
	return PerClause{query: q, agg: queryir.Average(variable)}
}

// MinOf takes the smallest value of variable.
func (q Query) MinOf(variable string) PerClause {
	return PerClause{query: q, agg: queryir.Min(variable)}
}

// MaxOf takes the largest value of variable.
func (q Query) MaxOf(variable string) PerClause {
	return PerClause{query: q, agg: queryir.Max(variable)}
}

// Count counts rows.
func (q Query) Count() PerClause {
	return PerClause{query: q, agg: queryir.Count()}
}

// PerClause picks the grouping of a fluent aggregate.
type PerClause struct {
	query Query
	agg   queryir.Aggregate
}

// Per groups by variables.
func (p PerClause) Per(ctx context.Context, variables ...string) (*ir.Records, error) {
	return p.query.Report(ctx, p.agg, variables...)
}

// PerAll aggregates over every matching row at once.
func (p PerClause) PerAll(ctx context.Context) (*ir.Records, error) {
	return p.query.Report(ctx, p.agg)
}

// Fluent aggregates straight off an aggregator, with no filter or order.

// SumOf totals variable over agg.
func SumOf(agg Aggregator, variable string) PerClause { return newQuery(agg).SumOf(variable) }

// AverageOf averages variable over agg.
func AverageOf(agg Aggregator, variable string) PerClause { return newQuery(agg).AverageOf(variable) }

// MinOf takes the smallest value of variable over agg.
func MinOf(agg Aggregator, variable string) PerClause { return newQuery(agg).MinOf(variable) }

// MaxOf takes the largest value of variable over agg.
func MaxOf(agg Aggregator, variable string) PerClause { return newQuery(agg).MaxOf(variable) }

// CountOf counts the rows of agg.
func CountOf(agg Aggregator) PerClause { return newQuery(agg).Count() }

// DomainAs lists the distinct values of variable as T. Fails with
// TYPE_COERCION if a value is not a T.
func DomainAs[T any](ctx context.Context, agg Aggregator, variable string) ([]T, error) {
	values, err := agg.DomainOf(ctx, variable)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(values))
	for i, v := range values {
		t, ok := v.(T)
		if !ok {
			e := ir.NewTypeCoercionError(typeName[T](), v, "unexpected domain value type")
			e.Variable = variable
			return nil, e
		}
		out[i] = t
	}
	return out, nil
}

func typeName[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
