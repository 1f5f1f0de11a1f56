package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVariable(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		code ErrorCode
	}{
		{name: "already canonical", in: "HOST", want: "HOST"},
		{name: "lower case", in: "host", want: "HOST"},
		{name: "surrounding space", in: "  latency\t", want: "LATENCY"},
		{name: "underscore and digits", in: "run_2", want: "RUN_2"},
		{name: "leading underscore", in: "_tmp", want: "_TMP"},
		{name: "unicode letters", in: "über", want: "ÜBER"},
		{name: "decomposed form is composed", in: "cafe\u0301", want: "CAF\u00c9"},
		{name: "empty", in: "", code: ErrCodeEmptyVariableName},
		{name: "blank", in: "   ", code: ErrCodeEmptyVariableName},
		{name: "leading digit", in: "1x", code: ErrCodeInvalidVariableName},
		{name: "embedded space", in: "a b", code: ErrCodeInvalidVariableName},
		{name: "sql punctuation", in: "x;drop", code: ErrCodeInvalidVariableName},
		{name: "count column reserved", in: "aggregated_column", code: ErrCodeInvalidVariableName},
		{name: "id column reserved", in: "id", code: ErrCodeInvalidVariableName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeVariable(tt.in)
			if tt.code != "" {
				require.Error(t, err)
				assert.True(t, IsCode(err, tt.code), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeVariableEquivalentSpellings(t *testing.T) {
	for _, in := range []string{"x ", "X", "x"} {
		got, err := NormalizeVariable(in)
		require.NoError(t, err)
		assert.Equal(t, "X", got)
	}
}

func TestMustVariablePanics(t *testing.T) {
	assert.Equal(t, "A", MustVariable("a"))
	assert.Panics(t, func() { MustVariable(" ") })
}

func TestErrorClassificationThroughWrapping(t *testing.T) {
	base := NewUnknownVariableError("X", []string{"A", "B"})
	wrapped := fmt.Errorf("report: %w", base)

	assert.True(t, IsCode(wrapped, ErrCodeUnknownVariable))
	assert.Equal(t, ErrCodeUnknownVariable, CodeOf(wrapped))
	assert.Equal(t, "A,B", base.Details["known"])
	assert.Contains(t, base.Error(), "variable=X")
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain")))
}

func TestWrapStoreError(t *testing.T) {
	assert.NoError(t, WrapStoreError("insert", nil))

	cause := fmt.Errorf("disk full")
	err := WrapStoreError("insert", cause)
	assert.True(t, IsStoreError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "STORE_ERROR: insert: disk full", err.Error())

	coded := NewTableNotFoundError("RUNS")
	assert.Same(t, coded, WrapStoreError("get", coded))
}

func TestSchemaMismatchErrorSortsDetails(t *testing.T) {
	err := NewSchemaMismatchError([]string{"B", "A"}, []string{"Z"})
	assert.Equal(t, "A,B", err.Details["missing"])
	assert.Equal(t, "Z", err.Details["extra"])
}
