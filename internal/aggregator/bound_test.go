package aggregator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/queryir"
)

func newTestBound(t *testing.T) (*Bound, *fakeStore) {
	t.Helper()
	agg, store := newTestTable(t)
	b, err := agg.With("host", "h1")
	require.NoError(t, err)
	return b, store
}

func TestBound_Accessors(t *testing.T) {
	b, _ := newTestBound(t)
	assert.Equal(t, "RUNS", b.Name())
	assert.Equal(t, "HOST", b.Variable())
	assert.Equal(t, "h1", b.Value())
	assert.Equal(t, []string{"SIZE", "LATENCY"}, b.Schema().Variables())
}

func TestBound_UnknownVariable(t *testing.T) {
	agg, _ := newTestTable(t)
	_, err := agg.With("weight", 1)
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownVariable))
}

func TestBound_ReportCarriesBoundVariable(t *testing.T) {
	b, store := newTestBound(t)
	store.groupedRows = [][]string{{"'h1'", "2.5"}}

	rs, err := b.Report(context.Background(), queryir.Average("LATENCY"))
	require.NoError(t, err)

	call := store.lastGrouped()
	assert.Equal(t, []string{"HOST"}, call.groupVars)
	assert.Equal(t, "HOST='h1'", call.where)

	assert.Equal(t, []string{"HOST"}, rs.Variables())
	require.Equal(t, 1, rs.Len())
	host, ok := rs.At(0).Get("HOST")
	require.True(t, ok)
	assert.Equal(t, "h1", host)
	value, _ := rs.At(0).Value()
	assert.Equal(t, 2.5, value)
}

func TestBound_ReportDoesNotRepeatExplicitBoundVariable(t *testing.T) {
	b, store := newTestBound(t)
	store.groupedRows = [][]string{{"1", "'h1'", "7"}}

	_, err := b.Report(context.Background(), queryir.Count(), "SIZE", "host")
	require.NoError(t, err)
	assert.Equal(t, []string{"SIZE", "HOST"}, store.lastGrouped().groupVars)
}

func TestBound_ReportConjoinsQueryFilter(t *testing.T) {
	b, store := newTestBound(t)

	_, err := b.Filtered(queryir.Gt("SIZE", 1)).Ordered(queryir.Desc("SIZE")).Report(context.Background(), queryir.Max("LATENCY"), "SIZE")
	require.NoError(t, err)

	call := store.lastGrouped()
	assert.Equal(t, "(SIZE>1 AND HOST='h1')", call.where)
	assert.Equal(t, "SIZE DESC", call.orderBy)
	assert.Equal(t, []string{"SIZE", "HOST"}, call.groupVars)
}

func TestBound_Record(t *testing.T) {
	b, store := newTestBound(t)
	ctx := context.Background()

	r := ir.NewRecord().Set("SIZE", 4).Set("LATENCY", 1.5)
	require.NoError(t, b.Record(ctx, r))

	require.Len(t, store.inserts, 1)
	assert.Equal(t, []Column{
		{Name: "HOST", Literal: "'h1'"},
		{Name: "SIZE", Literal: "4"},
		{Name: "LATENCY", Literal: "1.5"},
	}, store.inserts[0].columns)
	assert.False(t, r.Has("HOST"), "caller's record is not modified")
}

func TestBound_RecordRejectsBoundVariable(t *testing.T) {
	b, store := newTestBound(t)

	err := b.Record(context.Background(), ir.NewRecord().Set("host", "h2").Set("SIZE", 4).Set("LATENCY", 1.5))
	require.Error(t, err)
	assert.True(t, ir.IsCode(err, ir.ErrCodeDuplicateBoundVariable))
	assert.Empty(t, store.inserts)
}

func TestBound_DomainAndDeleteAreUnfiltered(t *testing.T) {
	b, store := newTestBound(t)
	store.distinctRows = []string{"'h1'", "'h2'"}
	ctx := context.Background()

	hosts, err := b.DomainOf(ctx, "HOST")
	require.NoError(t, err)
	assert.Equal(t, []any{"h1", "h2"}, hosts)
	assert.Equal(t, "0=0", store.distinct[0].where)

	require.NoError(t, b.DeleteRecords(ctx))
	assert.Equal(t, []deleteCall{{table: "RUNS", where: "0=0"}}, store.deletes)
}

func TestBound_Nested(t *testing.T) {
	b, store := newTestBound(t)
	nested, err := b.With("size", 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"LATENCY"}, nested.Schema().Variables())

	ctx := context.Background()
	require.NoError(t, nested.Record(ctx, ir.NewRecord().Set("LATENCY", 3.0)))
	assert.Equal(t, []Column{
		{Name: "HOST", Literal: "'h1'"},
		{Name: "SIZE", Literal: "8"},
		{Name: "LATENCY", Literal: "3"},
	}, store.inserts[0].columns)

	store.groupedRows = [][]string{{"8", "'h1'", "3"}}
	rs, err := nested.Report(ctx, queryir.Sum("LATENCY"))
	require.NoError(t, err)

	call := store.lastGrouped()
	assert.Equal(t, []string{"SIZE", "HOST"}, call.groupVars)
	assert.Equal(t, "(SIZE=8 AND HOST='h1')", call.where)
	assert.Equal(t, []string{"SIZE", "HOST"}, rs.Variables())

	_, err = nested.With("host", "h2")
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownVariable), "already fixed by the outer view")
}
