package ir

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Record is one tuple of variable bindings plus an optional scalar value.
//
// Keys are canonicalized on every read and write, so Set("host ", v) and
// Get("HOST") address the same binding. Bindings keep insertion order. The
// scalar slot holds free-standing values and aggregate results.
//
// Record is not safe for concurrent mutation.
type Record struct {
	keys     []string
	values   map[string]any
	value    any
	hasValue bool
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// NewValueRecord creates a record holding only the scalar v.
func NewValueRecord(v any) *Record {
	return NewRecord().SetValue(v)
}

// Set binds variable to value and returns the record for chaining.
// Names are validated when the record reaches an aggregator.
func (r *Record) Set(variable string, value any) *Record {
	k := canonicalKey(variable)
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[k]; !ok {
		r.keys = append(r.keys, k)
	}
	r.values[k] = value
	return r
}

// Get returns the value bound to variable.
func (r *Record) Get(variable string) (any, bool) {
	v, ok := r.values[canonicalKey(variable)]
	return v, ok
}

// Has reports whether variable is bound.
func (r *Record) Has(variable string) bool {
	_, ok := r.values[canonicalKey(variable)]
	return ok
}

// Delete removes the binding of variable, if any.
func (r *Record) Delete(variable string) *Record {
	k := canonicalKey(variable)
	if _, ok := r.values[k]; ok {
		delete(r.values, k)
		r.keys = slices.DeleteFunc(r.keys, func(s string) bool { return s == k })
	}
	return r
}

// SetValue stores v in the scalar slot.
func (r *Record) SetValue(v any) *Record {
	r.value = v
	r.hasValue = true
	return r
}

// Value returns the scalar slot.
func (r *Record) Value() (any, bool) {
	return r.value, r.hasValue
}

// HasValue reports whether the scalar slot is set.
func (r *Record) HasValue() bool {
	return r.hasValue
}

// Copy returns an independent record with the same bindings.
// Values themselves are copied shallowly.
func (r *Record) Copy() *Record {
	c := &Record{
		keys:     slices.Clone(r.keys),
		values:   make(map[string]any, len(r.values)),
		value:    r.value,
		hasValue: r.hasValue,
	}
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// Variables returns the bound variables in insertion order.
func (r *Record) Variables() []string {
	return slices.Clone(r.keys)
}

// Len returns the number of bindings, not counting the scalar slot.
func (r *Record) Len() int {
	return len(r.keys)
}

// All iterates over the bindings in insertion order.
func (r *Record) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range r.keys {
			if !yield(k, r.values[k]) {
				return
			}
		}
	}
}

// String renders the record as "{A=1, B=x, value=2.5}".
func (r *Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, r.values[k])
	}
	if r.hasValue {
		if len(r.keys) > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "value=%v", r.value)
	}
	b.WriteByte('}')
	return b.String()
}
