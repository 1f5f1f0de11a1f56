package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is the structured error returned by every benchy package.
//
// Errors are fail-fast: they surface at the call that detects them and are
// never retried. Callers classify them with IsCode or CodeOf, which see
// through fmt.Errorf wrapping.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Variable is the canonical variable involved, if any.
	Variable string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause (store failures keep the driver error here).
	Err error
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeDuplicateVariable indicates a variable was added to a schema twice.
	ErrCodeDuplicateVariable ErrorCode = "DUPLICATE_VARIABLE"

	// ErrCodeEmptyVariableName indicates a variable name normalized to "".
	ErrCodeEmptyVariableName ErrorCode = "EMPTY_VARIABLE_NAME"

	// ErrCodeInvalidVariableName indicates a variable name that cannot be a
	// store column.
	ErrCodeInvalidVariableName ErrorCode = "INVALID_VARIABLE_NAME"

	// ErrCodeSchemaMismatch indicates a record whose bindings differ from the
	// schema's variable set.
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"

	// ErrCodeUnknownVariable indicates a reference to an undeclared variable.
	ErrCodeUnknownVariable ErrorCode = "UNKNOWN_VARIABLE"

	// ErrCodeTypeCoercion indicates a value that cannot be parsed or
	// serialized per its DataType.
	ErrCodeTypeCoercion ErrorCode = "TYPE_COERCION"

	// ErrCodeInvalidRecordsUnion indicates a union of Records whose variable
	// lists differ.
	ErrCodeInvalidRecordsUnion ErrorCode = "INVALID_RECORDS_UNION"

	// ErrCodeDuplicateBoundVariable indicates a record that binds a variable
	// already fixed by a bound aggregator.
	ErrCodeDuplicateBoundVariable ErrorCode = "DUPLICATE_BOUND_VARIABLE"

	// ErrCodeStore wraps any failure reported by the store.
	ErrCodeStore ErrorCode = "STORE_ERROR"

	// ErrCodeInvalidArgument indicates a malformed argument.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeTableNotFound indicates a lookup of a table that does not exist.
	ErrCodeTableNotFound ErrorCode = "TABLE_NOT_FOUND"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Variable != "" {
		fmt.Fprintf(&b, " (variable=%s)", e.Variable)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is an *Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsStoreError returns true if err originated in the store.
func IsStoreError(err error) bool {
	return IsCode(err, ErrCodeStore)
}

func newError(code ErrorCode, variable, format string, args ...any) *Error {
	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Variable: variable,
	}
}

// NewInvalidArgumentError reports a malformed argument.
func NewInvalidArgumentError(format string, args ...any) *Error {
	return newError(ErrCodeInvalidArgument, "", format, args...)
}

// NewUnknownVariableError reports a reference to a variable outside known.
func NewUnknownVariableError(variable string, known []string) *Error {
	e := newError(ErrCodeUnknownVariable, variable, "unknown variable %q", variable)
	e.Details = map[string]string{"known": strings.Join(known, ",")}
	return e
}

// NewTypeCoercionError reports a value that does not fit a DataType.
func NewTypeCoercionError(typeName string, value any, reason string) *Error {
	e := newError(ErrCodeTypeCoercion, "", "cannot coerce %T(%v) to %s: %s", value, value, typeName, reason)
	e.Details = map[string]string{"type": typeName}
	return e
}

// NewSchemaMismatchError reports a record whose variables differ from the
// schema's. missing and extra are reported sorted.
func NewSchemaMismatchError(missing, extra []string) *Error {
	missing = sortedCopy(missing)
	extra = sortedCopy(extra)
	e := newError(ErrCodeSchemaMismatch, "", "record does not match schema (missing=%v, extra=%v)", missing, extra)
	e.Details = map[string]string{
		"missing": strings.Join(missing, ","),
		"extra":   strings.Join(extra, ","),
	}
	return e
}

// NewDuplicateBoundVariableError reports a record that binds a fixed variable.
func NewDuplicateBoundVariableError(variable string, bound any) *Error {
	return newError(ErrCodeDuplicateBoundVariable, variable,
		"record already binds %s, which is fixed to %v", variable, bound)
}

// NewTableNotFoundError reports a missing table.
func NewTableNotFoundError(table string) *Error {
	e := newError(ErrCodeTableNotFound, "", "table %q does not exist", table)
	e.Details = map[string]string{"table": table}
	return e
}

// WrapStoreError wraps a store failure. Returns nil if err is nil and err
// itself if it already carries a code.
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if CodeOf(err) != "" {
		return err
	}
	return &Error{
		Code:    ErrCodeStore,
		Message: op,
		Err:     err,
	}
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
