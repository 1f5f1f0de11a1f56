// Package aggregator validates records and queries against a schema and
// forwards them to a Store.
//
// An Aggregator is the unit callers work with: Record writes one tuple,
// Report runs a grouped aggregate, DomainOf lists the distinct values of a
// variable and DeleteRecords removes rows. Filtered and Ordered start an
// immutable Query builder; With returns a Bound view with one variable
// fixed to a constant.
//
// All validation happens before the store is called, so a failed Record
// never inserts anything. Store failures surface as STORE_ERROR.
package aggregator

import (
	"context"
	"log/slog"

	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/queryir"
	"github.com/roach88/benchy/internal/querysql"
)

// Column is one serialized value of an inserted row.
type Column struct {
	Name    string
	Literal string
}

// Store executes statements for an aggregator.
//
// Every value crosses this boundary as an SQL literal: Insert receives
// literals produced by DataType.Serialize, and queries return each cell as a
// literal (text quoted, numbers bare, NullLiteral for NULL) for
// DataType.Parse.
type Store interface {
	// Insert adds one row to table.
	Insert(ctx context.Context, table string, columns []Column) error

	// QueryGroupedAggregate returns one row per group: the grouping values
	// in groupVars order followed by the aggregate.
	QueryGroupedAggregate(ctx context.Context, table string, groupVars []string, aggregateExpr, alias, where, orderBy string) ([][]string, error)

	// QueryDistinct returns the distinct values of variable.
	QueryDistinct(ctx context.Context, table, variable, where, orderBy string) ([]string, error)

	// Delete removes the rows matching where.
	Delete(ctx context.Context, table, where string) error
}

// NullLiteral is how a Store reports an SQL NULL.
const NullLiteral = "NULL"

// Aggregator is a schema-bound query and mutation engine.
//
// Implemented by *Table and *Bound. The unexported methods carry an explicit
// filter and order list so Query and Bound can compose them.
type Aggregator interface {
	// Name is the store table name.
	Name() string

	// Schema is the set of variables a recorded tuple must bind.
	Schema() *ir.Schema

	// Record validates r against the schema and inserts it.
	Record(ctx context.Context, r *ir.Record) error

	// Report groups by variables and aggregates. With no variables it
	// returns the grand total.
	Report(ctx context.Context, agg queryir.Aggregate, variables ...string) (*ir.Records, error)

	// DomainOf lists the distinct values of variable, ascending.
	DomainOf(ctx context.Context, variable string) ([]any, error)

	// DeleteRecords removes every row.
	DeleteRecords(ctx context.Context) error

	// Filtered starts a query restricted to rows matching f.
	Filtered(f queryir.Filter) Query

	// Ordered starts a query sorted by orders.
	Ordered(orders ...queryir.Order) Query

	// With returns a view with variable fixed to value.
	With(variable string, value any) (*Bound, error)

	report(ctx context.Context, agg queryir.Aggregate, variables []string, filter queryir.Filter, orders []queryir.Order) (*ir.Records, error)
	domainOf(ctx context.Context, variable string, filter queryir.Filter, orders []queryir.Order) ([]any, error)
	deleteWhere(ctx context.Context, filter queryir.Filter) error
}

// Table is an Aggregator backed by one store table.
type Table struct {
	name   string
	schema *ir.Schema
	store  Store
}

// New creates an aggregator over table name. The name is canonicalized.
func New(name string, schema *ir.Schema, store Store) (*Table, error) {
	table, err := querysql.TableName(name)
	if err != nil {
		return nil, err
	}
	if schema == nil || store == nil {
		return nil, ir.NewInvalidArgumentError("aggregator %s needs a schema and a store", table)
	}
	return &Table{name: table, schema: schema, store: store}, nil
}

// Name returns the canonical table name.
func (t *Table) Name() string { return t.name }

// Schema returns the table schema.
func (t *Table) Schema() *ir.Schema { return t.schema }

// Record requires r to bind exactly the schema's variables.
func (t *Table) Record(ctx context.Context, r *ir.Record) error {
	if r == nil {
		return ir.NewInvalidArgumentError("nil record")
	}
	bound := make(map[string]any, r.Len())
	var extra []string
	for k, v := range r.All() {
		name, err := ir.NormalizeVariable(k)
		if err != nil {
			return err
		}
		if !t.schema.Has(name) {
			extra = append(extra, name)
		}
		bound[name] = v
	}
	var missing []string
	for _, v := range t.schema.Variables() {
		if _, ok := bound[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return ir.NewSchemaMismatchError(missing, extra)
	}

	columns := make([]Column, 0, t.schema.Len())
	for _, v := range t.schema.Variables() {
		typ, _ := t.schema.TypeOf(v)
		lit, err := typ.Serialize(bound[v])
		if err != nil {
			return withVariable(err, v)
		}
		columns = append(columns, Column{Name: v, Literal: lit})
	}

	slog.Debug("aggregator record", "table", t.name, "columns", len(columns))
	return ir.WrapStoreError("insert into "+t.name, t.store.Insert(ctx, t.name, columns))
}

// Report runs an unfiltered, unordered grouped aggregate.
func (t *Table) Report(ctx context.Context, agg queryir.Aggregate, variables ...string) (*ir.Records, error) {
	return t.report(ctx, agg, variables, queryir.True(), nil)
}

// DomainOf lists the distinct values of variable in ascending order.
func (t *Table) DomainOf(ctx context.Context, variable string) ([]any, error) {
	return t.domainOf(ctx, variable, queryir.True(), nil)
}

// DeleteRecords removes every row of the table.
func (t *Table) DeleteRecords(ctx context.Context) error {
	return t.deleteWhere(ctx, queryir.True())
}

// Filtered starts a query restricted to rows matching f.
func (t *Table) Filtered(f queryir.Filter) Query {
	return newQuery(t).Filtered(f)
}

// Ordered starts a query sorted by orders.
func (t *Table) Ordered(orders ...queryir.Order) Query {
	return newQuery(t).Ordered(orders...)
}

// With returns a view with variable fixed to value.
func (t *Table) With(variable string, value any) (*Bound, error) {
	return newBound(t, variable, value)
}

func (t *Table) report(ctx context.Context, agg queryir.Aggregate, variables []string, filter queryir.Filter, orders []queryir.Order) (*ir.Records, error) {
	groupVars := make([]string, len(variables))
	groupTypes := make([]ir.DataType, len(variables))
	for i, v := range variables {
		name, err := ir.NormalizeVariable(v)
		if err != nil {
			return nil, err
		}
		typ, ok := t.schema.TypeOf(name)
		if !ok {
			return nil, ir.NewUnknownVariableError(name, t.schema.Variables())
		}
		groupVars[i], groupTypes[i] = name, typ
	}
	aggExpr, err := querysql.AggregateColumn(agg, t.schema)
	if err != nil {
		return nil, err
	}
	resultType, err := agg.ResultType(t.schema)
	if err != nil {
		return nil, err
	}
	where, orderBy, err := t.clauses(filter, orders)
	if err != nil {
		return nil, err
	}

	slog.Debug("aggregator report",
		"table", t.name,
		"aggregate", aggExpr,
		"group_by", groupVars,
		"where", where,
		"order_by", orderBy)

	rows, err := t.store.QueryGroupedAggregate(ctx, t.name, groupVars, aggExpr, agg.ResultName(), where, orderBy)
	if err != nil {
		return nil, ir.WrapStoreError("report on "+t.name, err)
	}

	records := make([]*ir.Record, 0, len(rows))
	for _, row := range rows {
		if len(row) != len(groupVars)+1 {
			return nil, ir.WrapStoreError("report on "+t.name,
				ir.NewInvalidArgumentError("row has %d columns, expected %d", len(row), len(groupVars)+1))
		}
		// An aggregate over no rows is NULL; such a group has no result.
		if row[len(groupVars)] == NullLiteral {
			continue
		}
		r := ir.NewRecord()
		for i, v := range groupVars {
			val, err := groupTypes[i].Parse(row[i])
			if err != nil {
				return nil, withVariable(err, v)
			}
			r.Set(v, val)
		}
		val, err := resultType.Parse(row[len(groupVars)])
		if err != nil {
			return nil, err
		}
		records = append(records, r.SetValue(val))
	}
	return ir.NewRecords(records, groupVars)
}

func (t *Table) domainOf(ctx context.Context, variable string, filter queryir.Filter, orders []queryir.Order) ([]any, error) {
	name, err := ir.NormalizeVariable(variable)
	if err != nil {
		return nil, err
	}
	typ, ok := t.schema.TypeOf(name)
	if !ok {
		return nil, ir.NewUnknownVariableError(name, t.schema.Variables())
	}
	if len(orders) == 0 {
		orders = []queryir.Order{queryir.Asc(name)}
	}
	where, orderBy, err := t.clauses(filter, orders)
	if err != nil {
		return nil, err
	}

	slog.Debug("aggregator domain", "table", t.name, "variable", name, "where", where, "order_by", orderBy)

	rows, err := t.store.QueryDistinct(ctx, t.name, name, where, orderBy)
	if err != nil {
		return nil, ir.WrapStoreError("domain of "+name, err)
	}
	values := make([]any, 0, len(rows))
	for _, lit := range rows {
		val, err := typ.Parse(lit)
		if err != nil {
			return nil, withVariable(err, name)
		}
		values = append(values, val)
	}
	return values, nil
}

func (t *Table) deleteWhere(ctx context.Context, filter queryir.Filter) error {
	where, _, err := t.clauses(filter, nil)
	if err != nil {
		return err
	}
	slog.Debug("aggregator delete", "table", t.name, "where", where)
	return ir.WrapStoreError("delete from "+t.name, t.store.Delete(ctx, t.name, where))
}

func (t *Table) clauses(filter queryir.Filter, orders []queryir.Order) (string, string, error) {
	if filter == nil {
		filter = queryir.True()
	}
	where, err := filter.Render(t.schema)
	if err != nil {
		return "", "", err
	}
	orderBy, err := queryir.RenderOrderBy(t.schema, orders)
	if err != nil {
		return "", "", err
	}
	return where, orderBy, nil
}

// withVariable attaches the variable to a coded error that lacks one.
func withVariable(err error, variable string) error {
	if e, ok := err.(*ir.Error); ok && e.Variable == "" {
		e.Variable = variable
	}
	return err
}
