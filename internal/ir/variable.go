package ir

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// CountColumn is the result column name used for COUNT aggregates.
// It is reserved, so no schema variable can collide with it.
const CountColumn = "AGGREGATED_COLUMN"

// IDColumn is the surrogate key column every stored table carries. Reserved.
const IDColumn = "ID"

// NormalizeVariable returns the canonical form of a variable name.
//
// The name is NFC-normalized, trimmed and upper-cased. Two names refer to
// the same variable iff their canonical forms are equal. Because variables
// become store columns, the canonical form must be a plain identifier
// (letter or underscore, then letters, digits or underscores) and must not
// be one of the reserved column names.
func NormalizeVariable(name string) (string, error) {
	v := canonicalKey(name)
	if v == "" {
		return "", newError(ErrCodeEmptyVariableName, "", "variable name %q is empty after normalization", name)
	}
	if !isIdentifier(v) {
		return "", newError(ErrCodeInvalidVariableName, v, "variable name %q is not an identifier", name)
	}
	if v == CountColumn || v == IDColumn {
		return "", newError(ErrCodeInvalidVariableName, v, "variable name %q is reserved", name)
	}
	return v, nil
}

// MustVariable is like NormalizeVariable but panics on error.
func MustVariable(name string) string {
	v, err := NormalizeVariable(name)
	if err != nil {
		panic(err)
	}
	return v
}

// canonicalKey applies the canonical transform without validating the
// result. Record uses it for keys so validation happens once, at the
// aggregator boundary. A Caser is stateful, so one is built per call.
func canonicalKey(name string) string {
	v := strings.TrimSpace(norm.NFC.String(name))
	if v == "" {
		return ""
	}
	return cases.Upper(language.Und).String(v)
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return s != ""
}
