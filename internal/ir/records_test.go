package ir

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func colorSizeRecords(t *testing.T) *Records {
	t.Helper()
	rs, err := NewRecords([]*Record{
		NewRecord().Set("COLOR", "RED").Set("SIZE", "SMALL").SetValue(int64(1)),
		NewRecord().Set("COLOR", "RED").Set("SIZE", "BIG").SetValue(int64(2)),
		NewRecord().Set("COLOR", "BLUE").Set("SIZE", "SMALL").SetValue(int64(3)),
	}, []string{"color", "size"})
	require.NoError(t, err)
	return rs
}

func TestNewRecordsNormalizesVariables(t *testing.T) {
	rs := colorSizeRecords(t)
	assert.Equal(t, []string{"COLOR", "SIZE"}, rs.Variables())
	assert.Equal(t, 3, rs.Len())
	assert.True(t, rs.Declares("color"))

	_, err := NewRecords(nil, []string{"ok", " "})
	assert.True(t, IsCode(err, ErrCodeEmptyVariableName))
}

func TestRecordsDomainOf(t *testing.T) {
	rs := colorSizeRecords(t)

	colors, err := rs.DomainOf("color")
	require.NoError(t, err)
	assert.Equal(t, []any{"RED", "BLUE"}, colors, "first-seen order")

	sizes, err := rs.DomainOf("SIZE")
	require.NoError(t, err)
	assert.Equal(t, []any{"SMALL", "BIG"}, sizes)

	_, err = rs.DomainOf("weight")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeUnknownVariable))
}

func TestRecordsDomainOfDeduplicatesByValue(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.In(time.FixedZone("X", 7200))
	rs, err := NewRecords([]*Record{
		NewRecord().Set("AT", t1).Set("PRICE", decimal.RequireFromString("1.50")),
		NewRecord().Set("AT", t2).Set("PRICE", decimal.RequireFromString("1.5")),
	}, []string{"AT", "PRICE"})
	require.NoError(t, err)

	at, err := rs.DomainOf("AT")
	require.NoError(t, err)
	assert.Len(t, at, 1)

	price, err := rs.DomainOf("PRICE")
	require.NoError(t, err)
	assert.Len(t, price, 1)
}

func TestUnion(t *testing.T) {
	ab1, err := NewRecords([]*Record{NewRecord().Set("A", 1).Set("B", 2)}, []string{"A", "B"})
	require.NoError(t, err)
	ab2, err := NewRecords([]*Record{NewRecord().Set("A", 3).Set("B", 4)}, []string{"a", "b"})
	require.NoError(t, err)
	ba, err := NewRecords(nil, []string{"B", "A"})
	require.NoError(t, err)

	u, err := Union(ab1, ab2)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Len())
	assert.Equal(t, []string{"A", "B"}, u.Variables())

	_, err = Union(ab1, ba)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeInvalidRecordsUnion), "order-sensitive even with equal sets")

	_, err = Union()
	assert.True(t, IsCode(err, ErrCodeInvalidArgument))
}

func TestRecordsWhere(t *testing.T) {
	rs := colorSizeRecords(t)

	tests := []struct {
		name string
		expr string
		want int
	}{
		{name: "binding equality", expr: `COLOR == "RED"`, want: 2},
		{name: "scalar", expr: `value == 3`, want: 1},
		{name: "conjunction", expr: `COLOR == "RED" and SIZE != "BIG"`, want: 1},
		{name: "substring", expr: `"LU" in COLOR`, want: 1},
		{name: "regex", expr: `SIZE matches "^S"`, want: 2},
		{name: "unbound selector", expr: `WEIGHT == "x"`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rs.Where(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Len())
			assert.Equal(t, rs.Variables(), got.Variables())
		})
	}

	_, err := rs.Where(`COLOR ==`)
	assert.True(t, IsCode(err, ErrCodeInvalidArgument))
}

func TestRecordsWhereSeesDecimalsAsFloats(t *testing.T) {
	rs, err := NewRecords([]*Record{
		NewRecord().Set("K", "a").SetValue(decimal.RequireFromString("2.50")),
		NewRecord().Set("K", "b").SetValue(decimal.RequireFromString("1.25")),
	}, []string{"K"})
	require.NoError(t, err)

	got, err := rs.Where(`value == 2.5`)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	k, _ := got.At(0).Get("K")
	assert.Equal(t, "a", k)
}

func TestRecordsString(t *testing.T) {
	rs := colorSizeRecords(t)
	assert.Equal(t,
		"[COLOR, SIZE]\n{COLOR=RED, SIZE=SMALL, value=1}\n{COLOR=RED, SIZE=BIG, value=2}\n{COLOR=BLUE, SIZE=SMALL, value=3}",
		rs.String())
}
