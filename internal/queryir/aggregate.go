package queryir

import (
	"fmt"

	"github.com/roach88/benchy/internal/ir"
)

// Function is an aggregation function.
type Function string

const (
	FuncSum   Function = "SUM"
	FuncAvg   Function = "AVG"
	FuncMin   Function = "MIN"
	FuncMax   Function = "MAX"
	FuncCount Function = "COUNT"
)

// Aggregate applies a function to a variable. COUNT takes no variable.
type Aggregate struct {
	Function Function
	Variable string
}

// Sum totals variable.
func Sum(variable string) Aggregate { return Aggregate{Function: FuncSum, Variable: variable} }

// Average averages variable.
func Average(variable string) Aggregate { return Aggregate{Function: FuncAvg, Variable: variable} }

// Min takes the smallest value of variable.
func Min(variable string) Aggregate { return Aggregate{Function: FuncMin, Variable: variable} }

// Max takes the largest value of variable.
func Max(variable string) Aggregate { return Aggregate{Function: FuncMax, Variable: variable} }

// Count counts rows.
func Count() Aggregate { return Aggregate{Function: FuncCount} }

// IsCount reports whether a is a COUNT.
func (a Aggregate) IsCount() bool {
	return a.Function == FuncCount
}

// Render produces "FUNC(VARIABLE)", or "COUNT(*)".
func (a Aggregate) Render(schema *ir.Schema) (string, error) {
	if a.IsCount() {
		return "COUNT(*)", nil
	}
	v, _, err := a.resolve(schema)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", a.Function, v), nil
}

// ResultName is the column the result is returned under: the variable
// itself, or ir.CountColumn for COUNT.
func (a Aggregate) ResultName() string {
	if a.IsCount() {
		return ir.CountColumn
	}
	v, err := ir.NormalizeVariable(a.Variable)
	if err != nil {
		return a.Variable
	}
	return v
}

// ResultType is the DataType of the result: LONG for COUNT, otherwise the
// variable's type.
func (a Aggregate) ResultType(schema *ir.Schema) (ir.DataType, error) {
	if a.IsCount() {
		return ir.Long, nil
	}
	_, typ, err := a.resolve(schema)
	return typ, err
}

func (a Aggregate) resolve(schema *ir.Schema) (string, ir.DataType, error) {
	switch a.Function {
	case FuncSum, FuncAvg, FuncMin, FuncMax:
	case "":
		return "", nil, ir.NewInvalidArgumentError("aggregate has no function")
	default:
		return "", nil, ir.NewInvalidArgumentError("unknown aggregate function %q", a.Function)
	}
	v, err := ir.NormalizeVariable(a.Variable)
	if err != nil {
		return "", nil, err
	}
	typ, ok := schema.TypeOf(v)
	if !ok {
		return "", nil, ir.NewUnknownVariableError(v, schema.Variables())
	}
	if (a.Function == FuncSum || a.Function == FuncAvg) && !typ.Kind().Numeric() {
		return "", nil, ir.NewInvalidArgumentError("%s needs a numeric variable, %s is %s", a.Function, v, typ.Name())
	}
	return v, typ, nil
}

// String renders the aggregate without a schema, for logs.
func (a Aggregate) String() string {
	if a.IsCount() {
		return "COUNT(*)"
	}
	return fmt.Sprintf("%s(%s)", a.Function, a.Variable)
}
