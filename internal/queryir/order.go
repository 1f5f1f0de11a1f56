package queryir

import (
	"strings"

	"github.com/roach88/benchy/internal/ir"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String returns the SQL keyword.
func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// Order is a sort key: a variable and a direction.
//
// Count orders sort by the COUNT result column instead of a variable.
type Order struct {
	Variable  string
	Direction Direction
	count     bool
}

// Asc orders by variable, smallest first.
func Asc(variable string) Order {
	return Order{Variable: variable, Direction: Ascending}
}

// Desc orders by variable, largest first.
func Desc(variable string) Order {
	return Order{Variable: variable, Direction: Descending}
}

// AscCount orders by the COUNT result, smallest first.
func AscCount() Order {
	return Order{Variable: ir.CountColumn, Direction: Ascending, count: true}
}

// DescCount orders by the COUNT result, largest first.
func DescCount() Order {
	return Order{Variable: ir.CountColumn, Direction: Descending, count: true}
}

// IsCount reports whether o sorts by the COUNT result column.
func (o Order) IsCount() bool {
	return o.count
}

// Render produces "VARIABLE ASC" or "VARIABLE DESC".
func (o Order) Render(schema *ir.Schema) (string, error) {
	if o.count {
		return ir.CountColumn + " " + o.Direction.String(), nil
	}
	v, err := ir.NormalizeVariable(o.Variable)
	if err != nil {
		return "", err
	}
	if !schema.Has(v) {
		return "", ir.NewUnknownVariableError(v, schema.Variables())
	}
	return v + " " + o.Direction.String(), nil
}

// Compare orders two values naturally, reversed when descending.
func (o Order) Compare(a, b any) int {
	c := ir.Compare(a, b)
	if o.Direction == Descending {
		return -c
	}
	return c
}

// RenderOrderBy joins the rendered orders with ", ". An empty list renders
// as "".
func RenderOrderBy(schema *ir.Schema, orders []Order) (string, error) {
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		s, err := o.Render(schema)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", "), nil
}
