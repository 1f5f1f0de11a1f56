// Package compiler turns CUE table declarations into schemas.
//
// A declaration names the table and lists its variables in order, each
// mapped to a data type name:
//
//	name: "runs"
//	schema: {
//		host:    "LONG_STRING"
//		size:    "INTEGER"
//		latency: "DOUBLE"
//		cost:    "DECIMAL(10, 2)"
//	}
//
// Field order is variable order.
package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/benchy/internal/ir"
)

// TableSpec is a compiled table declaration.
type TableSpec struct {
	// Name is empty when the declaration leaves it to the caller.
	Name   string
	Schema *ir.Schema
}

// CompileSchema parses a CUE value holding a table declaration.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`schema: { host: "LONG_STRING" }`)
//	spec, err := CompileSchema(v)
func CompileSchema(v cue.Value) (*TableSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &TableSpec{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, &CompileError{Field: "name", Message: "name must be a string", Pos: nameVal.Pos()}
		}
		spec.Name = name
	}

	schemaVal := v.LookupPath(cue.ParsePath("schema"))
	if !schemaVal.Exists() {
		return nil, &CompileError{
			Field:   "schema",
			Message: "schema is required",
			Pos:     v.Pos(),
		}
	}
	schema, err := parseSchema(schemaVal)
	if err != nil {
		return nil, err
	}
	spec.Schema = schema

	return spec, nil
}

// LoadSchemaFile compiles the CUE file at path.
func LoadSchemaFile(path string) (*TableSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	return CompileSchema(v)
}

func parseSchema(v cue.Value) (*ir.Schema, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, &CompileError{Field: "schema", Message: "schema must be a struct", Pos: v.Pos()}
	}

	schema := ir.NewSchema()
	for iter.Next() {
		label := iter.Label()
		field := "schema." + label
		val := iter.Value()

		typeName, err := val.String()
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("type must be a concrete string, got %v", val.IncompleteKind()),
				Pos:     val.Pos(),
			}
		}
		typ, err := ir.ByName(typeName)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: val.Pos()}
		}
		if _, err := schema.Add(label, typ); err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: val.Pos()}
		}
	}
	if schema.Len() == 0 {
		return nil, &CompileError{Field: "schema", Message: "at least one variable is required", Pos: v.Pos()}
	}
	return schema, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
