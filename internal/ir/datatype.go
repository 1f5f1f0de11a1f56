package ir

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Kind classifies a DataType by the Go representation of its values.
type Kind int

const (
	KindInteger   Kind = iota + 1 // int16, int32 or int64
	KindFloat                     // float32 or float64
	KindDecimal                   // decimal.Decimal
	KindText                      // string
	KindTimestamp                 // time.Time
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Numeric reports whether values of this kind are numbers.
func (k Kind) Numeric() bool {
	return k == KindInteger || k == KindFloat || k == KindDecimal
}

// DataType describes the values one variable can hold.
//
// Serialize turns a value into an SQL literal and Parse turns a literal back
// into a value. For every legal value v, Parse(Serialize(v)) is value-equal
// to v (exact for integral, decimal, text and timestamp types; floating types
// round-trip through the shortest representation that parses back to the
// same float). Serialize is strict about the Go kind it accepts; Coerce is the
// loose entry point used for values read from YAML or the command line.
type DataType interface {
	// Name is the declaration name (INTEGER, LONG_STRING, DECIMAL(6, 2), ...).
	Name() string

	// StorageDefinition is the store column type.
	StorageDefinition() string

	// Kind classifies the Go representation of values.
	Kind() Kind

	// Parse converts an SQL literal into a value.
	Parse(literal string) (any, error)

	// Serialize converts a value into an SQL literal.
	Serialize(value any) (string, error)

	// Coerce converts a loosely typed value into this type's representation.
	Coerce(value any) (any, error)
}

// Built-in data types.
var (
	Integer     DataType = intType{name: "INTEGER", storage: "INTEGER", bits: 32}
	Long        DataType = intType{name: "LONG", storage: "BIGINT", bits: 64}
	Short       DataType = intType{name: "SHORT", storage: "SMALLINT", bits: 16}
	Double      DataType = floatType{name: "DOUBLE", storage: "DOUBLE", bits: 64}
	Float       DataType = floatType{name: "FLOAT", storage: "REAL", bits: 32}
	Timestamp   DataType = timestampType{}
	LongString  DataType = textType{name: "LONG_STRING", size: 255}
	MedString   DataType = textType{name: "MED_STRING", size: 64}
	SmallString DataType = textType{name: "SMALL_STRING", size: 16}
)

// MaxDecimalPrecision is the largest total digit count a DECIMAL may declare.
const MaxDecimalPrecision = 31

// String returns a text type holding at most size characters.
func String(size int) (DataType, error) {
	if size < 1 {
		return nil, NewInvalidArgumentError("string size must be positive, got %d", size)
	}
	switch size {
	case 255:
		return LongString, nil
	case 64:
		return MedString, nil
	case 16:
		return SmallString, nil
	}
	return textType{name: fmt.Sprintf("STRING(%d)", size), size: size}, nil
}

// Decimal returns a fixed-point type with precision total digits, scale of
// which follow the decimal point.
func Decimal(precision, scale int) (DataType, error) {
	if precision < 1 || precision > MaxDecimalPrecision {
		return nil, NewInvalidArgumentError("decimal precision must be in [1, %d], got %d", MaxDecimalPrecision, precision)
	}
	if scale < 0 || scale > precision {
		return nil, NewInvalidArgumentError("decimal scale must be in [0, %d], got %d", precision, scale)
	}
	return decimalType{precision: precision, scale: scale}, nil
}

// MustDecimal is like Decimal but panics on error.
func MustDecimal(precision, scale int) DataType {
	t, err := Decimal(precision, scale)
	if err != nil {
		panic(err)
	}
	return t
}

var (
	sizedPattern   = regexp.MustCompile(`^(STRING|VARCHAR|CHAR)\s*\(\s*(\d+)\s*\)$`)
	decimalPattern = regexp.MustCompile(`^(DECIMAL|NUMERIC)\s*\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)$`)
)

// ByName resolves a declaration name to a DataType.
// Accepts the built-in names plus STRING(n) and DECIMAL(p, s).
func ByName(name string) (DataType, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for _, t := range builtins() {
		if t.Name() == n {
			return t, nil
		}
	}
	if t, ok, err := sized(n); ok {
		return t, err
	}
	return nil, NewInvalidArgumentError("unknown data type %q", name)
}

// FromStorage maps a store column type back to a DataType.
func FromStorage(definition string) (DataType, error) {
	d := strings.ToUpper(strings.Join(strings.Fields(definition), " "))
	switch d {
	case "INTEGER", "INT":
		return Integer, nil
	case "BIGINT":
		return Long, nil
	case "SMALLINT":
		return Short, nil
	case "DOUBLE", "DOUBLE PRECISION":
		return Double, nil
	case "REAL", "FLOAT":
		return Float, nil
	case "TIMESTAMP":
		return Timestamp, nil
	}
	if t, ok, err := sized(d); ok {
		return t, err
	}
	return nil, NewInvalidArgumentError("unsupported storage definition %q", definition)
}

func sized(n string) (DataType, bool, error) {
	if m := sizedPattern.FindStringSubmatch(n); m != nil {
		size, _ := strconv.Atoi(m[2])
		t, err := String(size)
		return t, true, err
	}
	if m := decimalPattern.FindStringSubmatch(n); m != nil {
		precision, _ := strconv.Atoi(m[2])
		scale := 0
		if m[3] != "" {
			scale, _ = strconv.Atoi(m[3])
		}
		t, err := Decimal(precision, scale)
		return t, true, err
	}
	return nil, false, nil
}

func builtins() []DataType {
	return []DataType{Integer, Long, Short, Double, Float, Timestamp, LongString, MedString, SmallString}
}

// intType stores int16, int32 or int64 values depending on bits.
type intType struct {
	name    string
	storage string
	bits    int
}

func (t intType) Name() string              { return t.name }
func (t intType) StorageDefinition() string { return t.storage }
func (t intType) Kind() Kind                { return KindInteger }

func (t intType) Parse(literal string) (any, error) {
	s := stripQuotes(literal)
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, t.bits)
	if err != nil {
		return nil, NewTypeCoercionError(t.name, literal, err.Error())
	}
	return t.box(n), nil
}

func (t intType) Serialize(value any) (string, error) {
	n, err := t.toInt64(value, false)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

func (t intType) Coerce(value any) (any, error) {
	n, err := t.toInt64(value, true)
	if err != nil {
		return nil, err
	}
	return t.box(n), nil
}

func (t intType) toInt64(value any, loose bool) (int64, error) {
	rv := reflect.ValueOf(value)
	var n int64
	switch {
	case rv.CanInt():
		n = rv.Int()
	case rv.CanUint():
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, NewTypeCoercionError(t.name, value, "out of range")
		}
		n = int64(u)
	case loose && rv.CanFloat():
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, NewTypeCoercionError(t.name, value, "not an integral value")
		}
		n = int64(f)
	case loose && rv.Kind() == reflect.String:
		var err error
		n, err = strconv.ParseInt(strings.TrimSpace(rv.String()), 10, 64)
		if err != nil {
			return 0, NewTypeCoercionError(t.name, value, err.Error())
		}
	default:
		return 0, NewTypeCoercionError(t.name, value, "not an integer")
	}
	lo, hi := int64(-1)<<(t.bits-1), int64(1)<<(t.bits-1)-1
	if t.bits == 64 {
		lo, hi = math.MinInt64, math.MaxInt64
	}
	if n < lo || n > hi {
		return 0, NewTypeCoercionError(t.name, value, "out of range")
	}
	return n, nil
}

func (t intType) box(n int64) any {
	switch t.bits {
	case 16:
		return int16(n)
	case 32:
		return int32(n)
	default:
		return n
	}
}

// floatType stores float32 or float64 values depending on bits.
type floatType struct {
	name    string
	storage string
	bits    int
}

func (t floatType) Name() string              { return t.name }
func (t floatType) StorageDefinition() string { return t.storage }
func (t floatType) Kind() Kind                { return KindFloat }

func (t floatType) Parse(literal string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(stripQuotes(literal)), t.bits)
	if err != nil {
		return nil, NewTypeCoercionError(t.name, literal, err.Error())
	}
	return t.box(f), nil
}

func (t floatType) Serialize(value any) (string, error) {
	f, err := t.toFloat64(value, false)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'g', -1, t.bits), nil
}

func (t floatType) Coerce(value any) (any, error) {
	f, err := t.toFloat64(value, true)
	if err != nil {
		return nil, err
	}
	return t.box(f), nil
}

func (t floatType) toFloat64(value any, loose bool) (float64, error) {
	rv := reflect.ValueOf(value)
	var f float64
	switch {
	case rv.CanFloat():
		f = rv.Float()
	case rv.CanInt():
		f = float64(rv.Int())
	case rv.CanUint():
		f = float64(rv.Uint())
	case loose && rv.Kind() == reflect.String:
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(rv.String()), t.bits)
		if err != nil {
			return 0, NewTypeCoercionError(t.name, value, err.Error())
		}
	default:
		if d, ok := value.(decimal.Decimal); ok {
			f = d.InexactFloat64()
			break
		}
		return 0, NewTypeCoercionError(t.name, value, "not a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, NewTypeCoercionError(t.name, value, "not a finite number")
	}
	if t.bits == 32 && math.Abs(f) > math.MaxFloat32 {
		return 0, NewTypeCoercionError(t.name, value, "out of range")
	}
	return f, nil
}

func (t floatType) box(f float64) any {
	if t.bits == 32 {
		return float32(f)
	}
	return f
}

// decimalType stores decimal.Decimal values rounded to scale digits.
type decimalType struct {
	precision int
	scale     int
}

func (t decimalType) Name() string {
	return fmt.Sprintf("DECIMAL(%d, %d)", t.precision, t.scale)
}
func (t decimalType) StorageDefinition() string { return t.Name() }
func (t decimalType) Kind() Kind                { return KindDecimal }

// Parse rounds to the declared scale, absorbing float noise from aggregates.
func (t decimalType) Parse(literal string) (any, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(stripQuotes(literal)))
	if err != nil {
		return nil, NewTypeCoercionError(t.Name(), literal, err.Error())
	}
	return d.Round(int32(t.scale)), nil
}

func (t decimalType) Serialize(value any) (string, error) {
	d, err := t.toDecimal(value, false)
	if err != nil {
		return "", err
	}
	return d.StringFixed(int32(t.scale)), nil
}

func (t decimalType) Coerce(value any) (any, error) {
	return t.toDecimal(value, true)
}

func (t decimalType) toDecimal(value any, loose bool) (decimal.Decimal, error) {
	var d decimal.Decimal
	rv := reflect.ValueOf(value)
	switch v := value.(type) {
	case decimal.Decimal:
		d = v
	case *decimal.Decimal:
		if v == nil {
			return d, NewTypeCoercionError(t.Name(), value, "nil decimal")
		}
		d = *v
	default:
		switch {
		case rv.CanInt():
			d = decimal.NewFromInt(rv.Int())
		case rv.CanUint():
			d = decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0)
		case rv.CanFloat():
			f := rv.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return d, NewTypeCoercionError(t.Name(), value, "not a finite number")
			}
			d = decimal.NewFromFloat(f)
		case loose && rv.Kind() == reflect.String:
			var err error
			d, err = decimal.NewFromString(strings.TrimSpace(rv.String()))
			if err != nil {
				return d, NewTypeCoercionError(t.Name(), value, err.Error())
			}
		default:
			return d, NewTypeCoercionError(t.Name(), value, "not a number")
		}
	}
	d = d.Round(int32(t.scale))
	if d.Abs().Cmp(decimal.New(1, int32(t.precision-t.scale))) >= 0 {
		return d, NewTypeCoercionError(t.Name(), value, "exceeds declared precision")
	}
	return d, nil
}

// textType stores strings of at most size characters.
type textType struct {
	name string
	size int
}

func (t textType) Name() string              { return t.name }
func (t textType) StorageDefinition() string { return fmt.Sprintf("VARCHAR(%d)", t.size) }
func (t textType) Kind() Kind                { return KindText }

func (t textType) Parse(literal string) (any, error) {
	s, ok := UnquoteLiteral(literal)
	if !ok {
		return nil, NewTypeCoercionError(t.name, literal, "not a quoted literal")
	}
	return s, nil
}

func (t textType) Serialize(value any) (string, error) {
	s, err := t.toString(value)
	if err != nil {
		return "", err
	}
	return QuoteLiteral(s), nil
}

func (t textType) Coerce(value any) (any, error) {
	return t.toString(value)
}

// toString accepts any scalar; non-strings are rendered with fmt.
func (t textType) toString(value any) (string, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		s = v.UTC().Format(TimestampLayout)
	case fmt.Stringer:
		s = v.String()
	default:
		switch reflect.ValueOf(value).Kind() {
		case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64, reflect.String:
			s = fmt.Sprint(value)
		default:
			return "", NewTypeCoercionError(t.name, value, "not a scalar")
		}
	}
	if n := utf8.RuneCountInString(s); n > t.size {
		return "", NewTypeCoercionError(t.name, value, fmt.Sprintf("length %d exceeds %d", n, t.size))
	}
	return s, nil
}

// TimestampLayout is the literal form of TIMESTAMP values, always UTC.
// The fixed-width fraction keeps literals ordered like the instants they name.
const TimestampLayout = "2006-01-02 15:04:05.000000000"

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

type timestampType struct{}

func (timestampType) Name() string              { return "TIMESTAMP" }
func (timestampType) StorageDefinition() string { return "TIMESTAMP" }
func (timestampType) Kind() Kind                { return KindTimestamp }

func (t timestampType) Parse(literal string) (any, error) {
	return t.parseText(literal, stripQuotes(literal))
}

func (t timestampType) Serialize(value any) (string, error) {
	ts, ok := value.(time.Time)
	if !ok {
		return "", NewTypeCoercionError(t.Name(), value, "not a time.Time")
	}
	return QuoteLiteral(ts.UTC().Format(TimestampLayout)), nil
}

func (t timestampType) Coerce(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return t.parseText(value, v)
	default:
		return nil, NewTypeCoercionError(t.Name(), value, "not a timestamp")
	}
}

func (t timestampType) parseText(original any, s string) (any, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return nil, NewTypeCoercionError(t.Name(), original, "unrecognized timestamp layout")
}

// Now returns the current time in UTC truncated to microseconds, the
// resolution most stores keep for TIMESTAMP columns.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SameType reports whether two data types have the same declaration name.
func SameType(a, b DataType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name() == b.Name()
}
