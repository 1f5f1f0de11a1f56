package diagram

import "github.com/roach88/benchy/internal/ir"

// Grid is a dense N-dimensional array of records stored in one flat slice.
//
// Dimension 0 is the least significant: the cell (i0, i1, ..., iN-1) lives at
// i0 + i1*size0 + i2*size0*size1 + ...
type Grid struct {
	sizes []int
	cells []*ir.Record
}

// NewGrid allocates a grid with the given size per dimension. Every cell
// starts empty. A grid with no dimensions has exactly one cell.
func NewGrid(sizes ...int) (*Grid, error) {
	total := 1
	for i, n := range sizes {
		if n < 0 {
			return nil, ir.NewInvalidArgumentError("dimension %d has negative size %d", i, n)
		}
		total *= n
	}
	return &Grid{
		sizes: append([]int(nil), sizes...),
		cells: make([]*ir.Record, total),
	}, nil
}

// Offset translates an index tuple into a flat position.
func (g *Grid) Offset(index ...int) (int, error) {
	if len(index) != len(g.sizes) {
		return 0, ir.NewInvalidArgumentError("index has %d dimensions, grid has %d", len(index), len(g.sizes))
	}
	offset, stride := 0, 1
	for k, i := range index {
		if i < 0 || i >= g.sizes[k] {
			return 0, ir.NewInvalidArgumentError("index %d out of range [0, %d) in dimension %d", i, g.sizes[k], k)
		}
		offset += i * stride
		stride *= g.sizes[k]
	}
	return offset, nil
}

// Put stores r at index, replacing whatever was there.
func (g *Grid) Put(r *ir.Record, index ...int) error {
	offset, err := g.Offset(index...)
	if err != nil {
		return err
	}
	g.cells[offset] = r
	return nil
}

// Get returns the record at index, or nil for an empty cell.
func (g *Grid) Get(index ...int) (*ir.Record, error) {
	offset, err := g.Offset(index...)
	if err != nil {
		return nil, err
	}
	return g.cells[offset], nil
}

// Len returns the number of cells.
func (g *Grid) Len() int {
	return len(g.cells)
}
