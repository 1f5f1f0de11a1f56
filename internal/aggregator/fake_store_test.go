package aggregator

import (
	"context"
	"slices"
)

type insertCall struct {
	table   string
	columns []Column
}

type groupedCall struct {
	table     string
	groupVars []string
	aggExpr   string
	alias     string
	where     string
	orderBy   string
}

type distinctCall struct {
	table    string
	variable string
	where    string
	orderBy  string
}

type deleteCall struct {
	table string
	where string
}

// fakeStore records the exact clauses it receives and answers with canned
// literal rows.
type fakeStore struct {
	inserts  []insertCall
	grouped  []groupedCall
	distinct []distinctCall
	deletes  []deleteCall

	groupedRows  [][]string
	distinctRows []string
	err          error
}

func (f *fakeStore) Insert(_ context.Context, table string, columns []Column) error {
	if f.err != nil {
		return f.err
	}
	f.inserts = append(f.inserts, insertCall{table: table, columns: slices.Clone(columns)})
	return nil
}

func (f *fakeStore) QueryGroupedAggregate(_ context.Context, table string, groupVars []string, aggExpr, alias, where, orderBy string) ([][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.grouped = append(f.grouped, groupedCall{
		table:     table,
		groupVars: slices.Clone(groupVars),
		aggExpr:   aggExpr,
		alias:     alias,
		where:     where,
		orderBy:   orderBy,
	})
	return f.groupedRows, nil
}

func (f *fakeStore) QueryDistinct(_ context.Context, table, variable, where, orderBy string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.distinct = append(f.distinct, distinctCall{table: table, variable: variable, where: where, orderBy: orderBy})
	return f.distinctRows, nil
}

func (f *fakeStore) Delete(_ context.Context, table, where string) error {
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, deleteCall{table: table, where: where})
	return nil
}

func (f *fakeStore) lastGrouped() groupedCall {
	return f.grouped[len(f.grouped)-1]
}
