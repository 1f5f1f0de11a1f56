package queryir

import (
	"slices"
	"strings"

	"github.com/roach88/benchy/internal/ir"
)

// Filter is a predicate over the variables of a schema.
//
// This is a sealed interface - only types in this package implement it.
type Filter interface {
	filterNode() // Marker method - seals interface to this package

	// Render produces the SQL condition for schema.
	Render(schema *ir.Schema) (string, error)
}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "<>"
	OpGt Op = ">"
	OpGe Op = ">="
	OpLt Op = "<"
	OpLe Op = "<="
)

// Compare is a leaf filter: VARIABLE <op> value.
//
// The value is serialized with the variable's DataType at render time.
type Compare struct {
	Variable string
	Op       Op
	Value    any
}

func (Compare) filterNode() {}

// Render resolves the variable's type in schema and serializes the value.
func (c Compare) Render(schema *ir.Schema) (string, error) {
	v, err := ir.NormalizeVariable(c.Variable)
	if err != nil {
		return "", err
	}
	typ, ok := schema.TypeOf(v)
	if !ok {
		return "", ir.NewUnknownVariableError(v, schema.Variables())
	}
	switch c.Op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
	default:
		return "", ir.NewInvalidArgumentError("unknown comparison operator %q", c.Op)
	}
	lit, err := typ.Serialize(c.Value)
	if err != nil {
		if e, ok := err.(*ir.Error); ok {
			e.Variable = v
		}
		return "", err
	}
	return v + string(c.Op) + lit, nil
}

// BoolOp joins the children of a Composite.
type BoolOp string

const (
	BoolAnd BoolOp = "AND"
	BoolOr  BoolOp = "OR"
)

// Composite combines filters with AND or OR.
//
// Composites with more than one child render parenthesized, so nesting is
// safe. An empty AND is always true and an empty OR is always false.
type Composite struct {
	Op      BoolOp
	Filters []Filter
}

func (Composite) filterNode() {}

// Render joins the children's renderings left to right.
func (c Composite) Render(schema *ir.Schema) (string, error) {
	if c.Op != BoolAnd && c.Op != BoolOr {
		return "", ir.NewInvalidArgumentError("unknown boolean operator %q", c.Op)
	}
	switch len(c.Filters) {
	case 0:
		if c.Op == BoolOr {
			return "0=1", nil
		}
		return tautologySQL, nil
	case 1:
		return renderChild(c.Filters[0], schema)
	}
	parts := make([]string, len(c.Filters))
	for i, f := range c.Filters {
		s, err := renderChild(f, schema)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, " "+string(c.Op)+" ") + ")", nil
}

func renderChild(f Filter, schema *ir.Schema) (string, error) {
	if f == nil {
		return "", ir.NewInvalidArgumentError("nil filter")
	}
	return f.Render(schema)
}

const tautologySQL = "0=0"

type tautology struct{}

func (tautology) filterNode() {}

func (tautology) Render(*ir.Schema) (string, error) {
	return tautologySQL, nil
}

// True returns the filter that matches everything.
func True() Filter {
	return tautology{}
}

// IsTrue reports whether f is the tautology.
func IsTrue(f Filter) bool {
	_, ok := f.(tautology)
	return ok
}

// Eq matches variable = value.
func Eq(variable string, value any) Filter {
	return Compare{Variable: variable, Op: OpEq, Value: value}
}

// NotEq matches variable <> value.
func NotEq(variable string, value any) Filter {
	return Compare{Variable: variable, Op: OpNe, Value: value}
}

// Gt matches variable > value.
func Gt(variable string, value any) Filter {
	return Compare{Variable: variable, Op: OpGt, Value: value}
}

// Ge matches variable >= value.
func Ge(variable string, value any) Filter {
	return Compare{Variable: variable, Op: OpGe, Value: value}
}

// Lt matches variable < value.
func Lt(variable string, value any) Filter {
	return Compare{Variable: variable, Op: OpLt, Value: value}
}

// Le matches variable <= value.
func Le(variable string, value any) Filter {
	return Compare{Variable: variable, Op: OpLe, Value: value}
}

// And conjoins filters. Tautologies are dropped, so And() and And(True())
// are both the tautology and And(f) is f.
func And(filters ...Filter) Filter {
	return combine(BoolAnd, filters)
}

// Or disjoins filters.
func Or(filters ...Filter) Filter {
	return combine(BoolOr, filters)
}

func combine(op BoolOp, filters []Filter) Filter {
	kept := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if op == BoolAnd && IsTrue(f) {
			continue
		}
		if op == BoolOr && IsTrue(f) {
			return True()
		}
		kept = append(kept, f)
	}
	if op == BoolAnd && len(kept) == 0 {
		return True()
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return Composite{Op: op, Filters: slices.Clip(kept)}
}
