package ir

import (
	"hash/fnv"
	"slices"
	"strings"
)

// Schema is an ordered, duplicate-free declaration of variables and their
// data types. Lookups normalize the variable name first.
//
// Equal and Hash look at the ordered variable names only; two schemas that
// declare the same variables with different types are Equal. Use SameTypes
// to also compare types.
type Schema struct {
	variables []string
	types     map[string]DataType
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{types: make(map[string]DataType)}
}

// Add appends variable with type t and returns the schema for chaining.
// Fails if the name is not a valid variable or is already declared.
func (s *Schema) Add(variable string, t DataType) (*Schema, error) {
	v, err := NormalizeVariable(variable)
	if err != nil {
		return s, err
	}
	if t == nil {
		return s, NewInvalidArgumentError("nil data type for variable %s", v)
	}
	if _, ok := s.types[v]; ok {
		e := newError(ErrCodeDuplicateVariable, v, "variable %s already declared", v)
		e.Details = map[string]string{"existing": strings.Join(s.variables, ",")}
		return s, e
	}
	s.variables = append(s.variables, v)
	s.types[v] = t
	return s, nil
}

// MustAdd is like Add but panics on error.
func (s *Schema) MustAdd(variable string, t DataType) *Schema {
	if _, err := s.Add(variable, t); err != nil {
		panic(err)
	}
	return s
}

// TypeOf returns the data type of variable, or false if it is not declared.
func (s *Schema) TypeOf(variable string) (DataType, bool) {
	t, ok := s.types[canonicalKey(variable)]
	return t, ok
}

// Has reports whether variable is declared.
func (s *Schema) Has(variable string) bool {
	_, ok := s.TypeOf(variable)
	return ok
}

// Variables returns the declared variables in insertion order.
func (s *Schema) Variables() []string {
	return slices.Clone(s.variables)
}

// Len returns the number of declared variables.
func (s *Schema) Len() int {
	return len(s.variables)
}

// Without returns a copy of the schema with variable removed.
func (s *Schema) Without(variable string) *Schema {
	drop := canonicalKey(variable)
	out := NewSchema()
	for _, v := range s.variables {
		if v != drop {
			out.variables = append(out.variables, v)
			out.types[v] = s.types[v]
		}
	}
	return out
}

// Equal reports whether both schemas declare the same variables in the same
// order. Types are not compared.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	return slices.Equal(s.variables, other.variables)
}

// SameTypes reports whether both schemas are Equal and agree on every type.
func (s *Schema) SameTypes(other *Schema) bool {
	if !s.Equal(other) {
		return false
	}
	if s == nil {
		return true
	}
	for _, v := range s.variables {
		if !SameType(s.types[v], other.types[v]) {
			return false
		}
	}
	return true
}

// Hash is consistent with Equal.
func (s *Schema) Hash() uint64 {
	h := fnv.New64a()
	for _, v := range s.variables {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// String renders the schema as "(A INTEGER, B LONG_STRING)".
func (s *Schema) String() string {
	parts := make([]string, len(s.variables))
	for i, v := range s.variables {
		parts[i] = v + " " + s.types[v].Name()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
