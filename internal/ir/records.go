package ir

import (
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-bexpr"
	"github.com/shopspring/decimal"
)

// Records is an ordered collection of records keyed by a declared list of
// variables (its dimensions). Every record is expected to bind each declared
// variable; producers enforce that, Records does not.
type Records struct {
	records   []*Record
	variables []string
}

// NewRecords pairs records with their declared variables. The variable list
// keeps its order and may repeat names.
func NewRecords(records []*Record, variables []string) (*Records, error) {
	vars := make([]string, len(variables))
	for i, v := range variables {
		n, err := NormalizeVariable(v)
		if err != nil {
			return nil, err
		}
		vars[i] = n
	}
	return &Records{records: slices.Clone(records), variables: vars}, nil
}

// Union concatenates several Records. All of them must declare the same
// variables in the same order.
func Union(all ...*Records) (*Records, error) {
	if len(all) == 0 {
		return nil, NewInvalidArgumentError("union of zero records")
	}
	out := &Records{variables: slices.Clone(all[0].variables)}
	for i, rs := range all {
		if !slices.Equal(rs.variables, out.variables) {
			e := newError(ErrCodeInvalidRecordsUnion, "",
				"records %d declares %v, expected %v", i, rs.variables, out.variables)
			e.Details = map[string]string{
				"expected": strings.Join(out.variables, ","),
				"actual":   strings.Join(rs.variables, ","),
			}
			return nil, e
		}
		out.records = append(out.records, rs.records...)
	}
	return out, nil
}

// Variables returns the declared variables.
func (rs *Records) Variables() []string {
	return slices.Clone(rs.variables)
}

// List returns the records in order.
func (rs *Records) List() []*Record {
	return slices.Clone(rs.records)
}

// Len returns the number of records.
func (rs *Records) Len() int {
	return len(rs.records)
}

// At returns the i-th record.
func (rs *Records) At(i int) *Record {
	return rs.records[i]
}

// All iterates over the records in order.
func (rs *Records) All() iter.Seq[*Record] {
	return slices.Values(rs.records)
}

// Declares reports whether variable is one of the declared variables.
func (rs *Records) Declares(variable string) bool {
	return slices.Contains(rs.variables, canonicalKey(variable))
}

// DomainOf returns the distinct values bound to variable, in first-seen
// order. Records that do not bind variable contribute nothing.
func (rs *Records) DomainOf(variable string) ([]any, error) {
	v := canonicalKey(variable)
	if !slices.Contains(rs.variables, v) {
		return nil, NewUnknownVariableError(v, rs.variables)
	}
	seen := make(map[any]bool)
	var domain []any
	for _, r := range rs.records {
		val, ok := r.values[v]
		if !ok {
			continue
		}
		k := Key(val)
		if seen[k] {
			continue
		}
		seen[k] = true
		domain = append(domain, val)
	}
	return domain, nil
}

// Where keeps the records matching a boolean expression.
//
// The expression uses go-bexpr syntax over the record's bindings, with the
// scalar slot exposed as "value":
//
//	HOST == "h1" and value != 0
//
// Decimals are seen as float64, timestamps as their literal text and unbound
// selectors as "".
func (rs *Records) Where(expression string) (*Records, error) {
	eval, err := bexpr.CreateEvaluator(expression, bexpr.WithUnknownValue(""))
	if err != nil {
		e := NewInvalidArgumentError("invalid expression %q", expression)
		e.Err = err
		return nil, e
	}
	out := &Records{variables: slices.Clone(rs.variables)}
	for _, r := range rs.records {
		ok, err := eval.Evaluate(r.datum())
		if err != nil {
			e := NewInvalidArgumentError("evaluate %q on %s", expression, r)
			e.Err = err
			return nil, e
		}
		if ok {
			out.records = append(out.records, r)
		}
	}
	return out, nil
}

// datum flattens a record into the plain map bexpr evaluates.
func (r *Record) datum() map[string]any {
	m := make(map[string]any, len(r.keys)+1)
	for _, k := range r.keys {
		m[k] = plain(r.values[k])
	}
	if r.hasValue {
		m["value"] = plain(r.value)
	}
	return m
}

func plain(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.InexactFloat64()
	case time.Time:
		return x.UTC().Format(TimestampLayout)
	}
	return v
}

// String renders one record per line.
func (rs *Records) String() string {
	var b strings.Builder
	b.WriteString("[" + strings.Join(rs.variables, ", ") + "]")
	for _, r := range rs.records {
		b.WriteByte('\n')
		b.WriteString(r.String())
	}
	return b.String()
}
