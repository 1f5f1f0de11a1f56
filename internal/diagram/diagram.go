// Package diagram pivots a report into a dense grid indexed by the position
// of each variable's value in its sorted domain.
//
// For a report over COLOR with domain [BLUE, RED] and SIZE with domain
// [BIG, SMALL], RecordAt(0, 1) is the (BLUE, SMALL) cell. Cells that no
// record maps to are nil. When two records map to the same cell the later
// one wins; grouping upstream is expected to produce one record per cell.
//
// The builder places no limit on the number of dimensions. Renderers that
// only handle one or two dimensions enforce that themselves.
package diagram

import (
	"slices"

	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/queryir"
)

const (
	DefaultTitle      = "Title"
	DefaultRangeLabel = "Range"
)

type dimension struct {
	name   string
	label  string
	domain []any
}

// Diagram is a pivoted report.
type Diagram struct {
	title      string
	rangeLabel string
	dims       []dimension
	grid       *Grid
}

// New pivots records with every dimension sorted ascending.
func New(records *ir.Records) (*Diagram, error) {
	if records == nil {
		return nil, ir.NewInvalidArgumentError("nil records")
	}
	orders := make([]queryir.Order, 0, len(records.Variables()))
	for _, v := range records.Variables() {
		orders = append(orders, queryir.Asc(v))
	}
	return NewWithOrders(records, orders)
}

// NewWithOrders pivots records sorting dimension i by orders[i]. There must
// be exactly one order per declared variable.
func NewWithOrders(records *ir.Records, orders []queryir.Order) (*Diagram, error) {
	if records == nil {
		return nil, ir.NewInvalidArgumentError("nil records")
	}
	variables := records.Variables()
	if len(orders) != len(variables) {
		return nil, ir.NewInvalidArgumentError("exactly one order per variable is required: %d variables, %d orders",
			len(variables), len(orders))
	}

	dims := make([]dimension, len(variables))
	positions := make([]map[any]int, len(variables))
	sizes := make([]int, len(variables))
	for i, v := range variables {
		domain, err := records.DomainOf(v)
		if err != nil {
			return nil, err
		}
		slices.SortStableFunc(domain, orders[i].Compare)

		pos := make(map[any]int, len(domain))
		for j, value := range domain {
			pos[ir.Key(value)] = j
		}
		dims[i] = dimension{name: v, label: v, domain: domain}
		positions[i] = pos
		sizes[i] = len(domain)
	}

	grid, err := NewGrid(sizes...)
	if err != nil {
		return nil, err
	}
	index := make([]int, len(variables))
	for r := range records.All() {
		for i, v := range variables {
			value, ok := r.Get(v)
			if !ok {
				return nil, ir.NewSchemaMismatchError([]string{v}, nil)
			}
			index[i] = positions[i][ir.Key(value)]
		}
		if err := grid.Put(r, index...); err != nil {
			return nil, err
		}
	}

	return &Diagram{
		title:      DefaultTitle,
		rangeLabel: DefaultRangeLabel,
		dims:       dims,
		grid:       grid,
	}, nil
}

// WithTitle sets the title.
func (d *Diagram) WithTitle(title string) *Diagram {
	d.title = title
	return d
}

// WithRangeLabel sets the label describing cell values.
func (d *Diagram) WithRangeLabel(label string) *Diagram {
	d.rangeLabel = label
	return d
}

// WithVariableLabel sets the label of dimension i. Out of range indices are
// ignored.
func (d *Diagram) WithVariableLabel(i int, label string) *Diagram {
	if i >= 0 && i < len(d.dims) {
		d.dims[i].label = label
	}
	return d
}

func (d *Diagram) Title() string      { return d.title }
func (d *Diagram) RangeLabel() string { return d.rangeLabel }

// LabelOf returns the label of dimension i, or "" when out of range.
func (d *Diagram) LabelOf(i int) string {
	if i < 0 || i >= len(d.dims) {
		return ""
	}
	return d.dims[i].label
}

// Variables returns the dimension variables in order.
func (d *Diagram) Variables() []string {
	out := make([]string, len(d.dims))
	for i, dim := range d.dims {
		out[i] = dim.name
	}
	return out
}

func (d *Diagram) VariableCount() int { return len(d.dims) }

// Domain returns the sorted distinct values of dimension i.
func (d *Diagram) Domain(i int) []any {
	if i < 0 || i >= len(d.dims) {
		return nil
	}
	return slices.Clone(d.dims[i].domain)
}

// DomainSize is the exclusive upper bound for dimension i in RecordAt.
func (d *Diagram) DomainSize(i int) int {
	if i < 0 || i >= len(d.dims) {
		return 0
	}
	return len(d.dims[i].domain)
}

// RecordAt returns the record in the cell at index, nil if the cell is
// empty. Fails with INVALID_ARGUMENT for a malformed index.
func (d *Diagram) RecordAt(index ...int) (*ir.Record, error) {
	return d.grid.Get(index...)
}
