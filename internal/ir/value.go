package ir

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteLiteral renders s as an SQL text literal, doubling embedded quotes.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// UnquoteLiteral reverses QuoteLiteral. ok is false if s is not a quoted
// literal.
func UnquoteLiteral(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
}

func stripQuotes(s string) string {
	if u, ok := UnquoteLiteral(strings.TrimSpace(s)); ok {
		return u
	}
	return s
}

// Value classes in Compare order.
const (
	classNil = iota
	classBool
	classNumber
	classText
	classTime
	classOther
)

func classOf(v any) int {
	switch v.(type) {
	case nil:
		return classNil
	case bool:
		return classBool
	case decimal.Decimal:
		return classNumber
	case string:
		return classText
	case time.Time:
		return classTime
	}
	rv := reflect.ValueOf(v)
	if rv.CanInt() || rv.CanUint() || rv.CanFloat() {
		return classNumber
	}
	return classOther
}

// Compare returns the natural ordering of two values: -1, 0 or +1.
//
// Numbers of any Go kind (including decimal.Decimal) compare numerically,
// strings lexicographically, times chronologically. Values of different
// classes order nil < bool < number < text < time < other, so Compare is a
// total order over everything a DataType produces.
func Compare(a, b any) int {
	ca, cb := classOf(a), classOf(b)
	if ca != cb {
		return cmp.Compare(ca, cb)
	}
	switch ca {
	case classNil:
		return 0
	case classBool:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case classNumber:
		return compareNumbers(a, b)
	case classText:
		return strings.Compare(a.(string), b.(string))
	case classTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func compareNumbers(a, b any) int {
	da, aDec := a.(decimal.Decimal)
	db, bDec := b.(decimal.Decimal)
	if aDec || bDec {
		if !aDec {
			var ok bool
			if da, ok = toDecimal(a); !ok {
				return cmp.Compare(toFloat(a), db.InexactFloat64())
			}
		}
		if !bDec {
			var ok bool
			if db, ok = toDecimal(b); !ok {
				return cmp.Compare(da.InexactFloat64(), toFloat(b))
			}
		}
		return da.Cmp(db)
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case ra.CanInt() && rb.CanInt():
		return cmp.Compare(ra.Int(), rb.Int())
	case ra.CanUint() && rb.CanUint():
		return cmp.Compare(ra.Uint(), rb.Uint())
	case ra.CanInt() && rb.CanUint():
		if ra.Int() < 0 {
			return -1
		}
		return cmp.Compare(uint64(ra.Int()), rb.Uint())
	case ra.CanUint() && rb.CanInt():
		if rb.Int() < 0 {
			return 1
		}
		return cmp.Compare(ra.Uint(), uint64(rb.Int()))
	}
	return cmp.Compare(toFloat(a), toFloat(b))
}

func toFloat(v any) float64 {
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanFloat():
		return rv.Float()
	case rv.CanInt():
		return float64(rv.Int())
	case rv.CanUint():
		return float64(rv.Uint())
	}
	return math.NaN()
}

func toDecimal(v any) (decimal.Decimal, bool) {
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return decimal.NewFromInt(rv.Int()), true
	case rv.CanFloat():
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(f), true
	}
	return decimal.Decimal{}, false
}

type decimalKey string

type timeKey struct {
	sec  int64
	nsec int
}

// Key returns a comparable stand-in for v, usable as a map key. Values that
// are equal per their DataType share a key: decimals by numeric value, times
// by instant regardless of location.
func Key(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return decimalKey(x.String())
	case time.Time:
		return timeKey{sec: x.Unix(), nsec: x.Nanosecond()}
	case []byte:
		return string(x)
	}
	if v != nil && !reflect.TypeOf(v).Comparable() {
		return fmt.Sprintf("%#v", v)
	}
	return v
}
