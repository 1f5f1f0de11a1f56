package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/benchy/internal/ir"
)

func TestGrid_Offset(t *testing.T) {
	g, err := NewGrid(3, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 24, g.Len())

	tests := []struct {
		index []int
		want  int
	}{
		{index: []int{0, 0, 0}, want: 0},
		{index: []int{1, 0, 0}, want: 1},
		{index: []int{0, 1, 0}, want: 3},
		{index: []int{0, 0, 1}, want: 12},
		{index: []int{2, 3, 1}, want: 23},
		{index: []int{1, 2, 1}, want: 1 + 2*3 + 1*12},
	}
	for _, tt := range tests {
		got, err := g.Offset(tt.index...)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "index %v", tt.index)
	}
}

func TestGrid_OffsetsAreDistinct(t *testing.T) {
	g, err := NewGrid(2, 3, 4)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				off, err := g.Offset(i, j, k)
				require.NoError(t, err)
				assert.False(t, seen[off], "offset %d reused", off)
				seen[off] = true
			}
		}
	}
	assert.Len(t, seen, g.Len())
}

func TestGrid_PutGet(t *testing.T) {
	g, err := NewGrid(2, 2)
	require.NoError(t, err)

	r := ir.NewValueRecord(7)
	require.NoError(t, g.Put(r, 1, 0))

	got, err := g.Get(1, 0)
	require.NoError(t, err)
	assert.Same(t, r, got)

	empty, err := g.Get(0, 1)
	require.NoError(t, err)
	assert.Nil(t, empty)

	assert.Error(t, g.Put(r, 2, 0))
	_, err = g.Get(0)
	assert.Error(t, err)
}

func TestGrid_EmptyDimension(t *testing.T) {
	g, err := NewGrid(3, 0)
	require.NoError(t, err)
	assert.Zero(t, g.Len())

	_, err = g.Get(0, 0)
	assert.True(t, ir.IsCode(err, ir.ErrCodeInvalidArgument))

	_, err = NewGrid(-1)
	assert.True(t, ir.IsCode(err, ir.ErrCodeInvalidArgument))
}
