// Package render writes diagrams for people and spreadsheets.
//
// Both renderers lay a diagram out the same way: zero dimensions print the
// single value, one dimension prints a row per domain value, two dimensions
// print dimension 0 down the side and dimension 1 across the top. Diagrams
// with more dimensions are rejected.
package render

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/benchy/internal/diagram"
	"github.com/roach88/benchy/internal/ir"
)

// Empty is printed for cells no record maps to.
const Empty = "-"

// grid is a diagram flattened to header and body cells. Empty cells are "".
type grid struct {
	header []string
	rows   [][]string
}

func layout(d *diagram.Diagram) (*grid, error) {
	switch d.VariableCount() {
	case 0:
		r, err := d.RecordAt()
		if err != nil {
			return nil, err
		}
		return &grid{header: []string{d.RangeLabel()}, rows: [][]string{{cellText(r)}}}, nil

	case 1:
		g := &grid{header: []string{d.LabelOf(0), d.RangeLabel()}}
		for i, v := range d.Domain(0) {
			r, err := d.RecordAt(i)
			if err != nil {
				return nil, err
			}
			g.rows = append(g.rows, []string{FormatValue(v), cellText(r)})
		}
		return g, nil

	case 2:
		g := &grid{header: []string{d.LabelOf(0) + "/" + d.LabelOf(1)}}
		for _, v := range d.Domain(1) {
			g.header = append(g.header, FormatValue(v))
		}
		for i, v := range d.Domain(0) {
			row := []string{FormatValue(v)}
			for j := range d.DomainSize(1) {
				r, err := d.RecordAt(i, j)
				if err != nil {
					return nil, err
				}
				row = append(row, cellText(r))
			}
			g.rows = append(g.rows, row)
		}
		return g, nil
	}
	return nil, ir.NewInvalidArgumentError("cannot render %d dimensions, at most 2 are supported", d.VariableCount())
}

func cellText(r *ir.Record) string {
	if r == nil {
		return ""
	}
	v, ok := r.Value()
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// FormatValue renders a value the way reports show it.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.UTC().Format(ir.TimestampLayout)
	default:
		return fmt.Sprint(v)
	}
}
