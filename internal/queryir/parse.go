package queryir

import (
	"strings"

	"github.com/roach88/benchy/internal/ir"
)

// Operators in match order: two-character forms first.
var textOps = []struct {
	text string
	op   Op
}{
	{">=", OpGe},
	{"<=", OpLe},
	{"<>", OpNe},
	{"!=", OpNe},
	{"=", OpEq},
	{">", OpGt},
	{"<", OpLt},
}

// ParseFilter parses the command-line form "VARIABLE<op>value", for example
// "host=h1" or "latency >= 2.5". The value is coerced with the variable's
// DataType; surrounding single quotes are removed first.
func ParseFilter(schema *ir.Schema, text string) (Filter, error) {
	idx, width, op := -1, 0, OpEq
	for i := 0; i < len(text) && idx < 0; i++ {
		for _, o := range textOps {
			if strings.HasPrefix(text[i:], o.text) {
				idx, width, op = i, len(o.text), o.op
				break
			}
		}
	}
	if idx <= 0 {
		return nil, ir.NewInvalidArgumentError("filter %q is not of the form VARIABLE<op>value", text)
	}

	v, err := ir.NormalizeVariable(text[:idx])
	if err != nil {
		return nil, err
	}
	typ, ok := schema.TypeOf(v)
	if !ok {
		return nil, ir.NewUnknownVariableError(v, schema.Variables())
	}
	raw := strings.TrimSpace(text[idx+width:])
	if u, ok := ir.UnquoteLiteral(raw); ok {
		raw = u
	}
	value, err := typ.Coerce(raw)
	if err != nil {
		return nil, err
	}
	return Compare{Variable: v, Op: op, Value: value}, nil
}

// ParseOrder parses "VARIABLE", "VARIABLE ASC" or "VARIABLE DESC".
// The name of the COUNT result column yields a count order.
func ParseOrder(text string) (Order, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields) > 2 {
		return Order{}, ir.NewInvalidArgumentError("order %q is not of the form VARIABLE [ASC|DESC]", text)
	}
	dir := Ascending
	if len(fields) == 2 {
		switch strings.ToUpper(fields[1]) {
		case "ASC":
		case "DESC":
			dir = Descending
		default:
			return Order{}, ir.NewInvalidArgumentError("unknown direction %q", fields[1])
		}
	}
	if strings.EqualFold(fields[0], ir.CountColumn) {
		if dir == Descending {
			return DescCount(), nil
		}
		return AscCount(), nil
	}
	v, err := ir.NormalizeVariable(fields[0])
	if err != nil {
		return Order{}, err
	}
	return Order{Variable: v, Direction: dir}, nil
}

// ParseAggregate parses "COUNT", "COUNT(*)" or "FUNC(VARIABLE)" where FUNC is
// SUM, AVG, MIN or MAX. AVERAGE is accepted for AVG.
func ParseAggregate(text string) (Aggregate, error) {
	s := strings.TrimSpace(text)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if strings.EqualFold(s, string(FuncCount)) {
			return Count(), nil
		}
		return Aggregate{}, ir.NewInvalidArgumentError("aggregate %q is not of the form FUNC(VARIABLE)", text)
	}
	if !strings.HasSuffix(s, ")") {
		return Aggregate{}, ir.NewInvalidArgumentError("aggregate %q is missing a closing parenthesis", text)
	}
	fn := strings.ToUpper(strings.TrimSpace(s[:open]))
	arg := strings.TrimSpace(s[open+1 : len(s)-1])

	switch Function(fn) {
	case FuncCount:
		if arg != "" && arg != "*" {
			return Aggregate{}, ir.NewInvalidArgumentError("COUNT takes no variable, got %q", arg)
		}
		return Count(), nil
	case FuncSum, FuncAvg, FuncMin, FuncMax:
	case "AVERAGE":
		fn = string(FuncAvg)
	default:
		return Aggregate{}, ir.NewInvalidArgumentError("unknown aggregate function %q", fn)
	}
	v, err := ir.NormalizeVariable(arg)
	if err != nil {
		return Aggregate{}, err
	}
	return Aggregate{Function: Function(fn), Variable: v}, nil
}
