// internal/filter/literal.go
package filter

import (
	"encoding/json"
	"math"
	"time"
)

/*
 * Literal values carried by comparison, range and function predicates.
 *
 * Literal is sealed like Filter. Numbers keep their source width in Kind but
 * every width is one Number type, so the translator routes all of them to a
 * single numeric builder call. Integer widths store Int, float widths store
 * Float; the unused field stays zero.
 *
 * CoerceLiteral maps untyped Go values (function arguments, bare JSON values)
 * onto literal kinds:
 *   - string -> Text (case sensitive)
 *   - bool -> Bool
 *   - int8/int16 -> short, int32 -> int, int/int64/uint8..uint32 -> long
 *   - float32 -> float, float64 -> double
 *   - json.Number -> long when integral, double otherwise
 *   - time.Time -> Date, []byte -> Bytes
 *   - anything else -> Object
 */

// Literal is a typed comparison value.
type Literal interface {
	// LiteralType names the literal family: text, date, dateRange, number,
	// bool, bytes or object.
	LiteralType() string
	String() string
	literal()
}

// Text is a string literal.
type Text struct {
	Value         string
	CaseSensitive bool
}

// Date is an instant literal.
type Date struct {
	Value time.Time
}

// DateRange is a pair of instants. Equality against a range is not rewritten.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NumberKind records the source width of a Number.
type NumberKind int

const (
	NumberLong NumberKind = iota
	NumberShort
	NumberInt
	NumberFloat
	NumberDouble
)

var numberKindNames = map[NumberKind]string{
	NumberShort:  "short",
	NumberInt:    "int",
	NumberLong:   "long",
	NumberFloat:  "float",
	NumberDouble: "double",
}

func (k NumberKind) String() string {
	return numberKindNames[k]
}

// IsInteger reports whether the kind stores Int.
func (k NumberKind) IsInteger() bool {
	return k == NumberShort || k == NumberInt || k == NumberLong
}

// NumberKindFromString is the inverse of NumberKind.String.
func NumberKindFromString(s string) (NumberKind, bool) {
	for k, name := range numberKindNames {
		if name == s {
			return k, true
		}
	}
	return NumberLong, false
}

// Number is a numeric literal of any width.
type Number struct {
	Kind  NumberKind
	Int   int64
	Float float64
}

// Short, Int, Long, Float and Double construct Number literals.
func Short(v int16) Number   { return Number{Kind: NumberShort, Int: int64(v)} }
func Int(v int32) Number     { return Number{Kind: NumberInt, Int: int64(v)} }
func Long(v int64) Number    { return Number{Kind: NumberLong, Int: v} }
func Float(v float32) Number { return Number{Kind: NumberFloat, Float: float64(v)} }
func Double(v float64) Number {
	return Number{Kind: NumberDouble, Float: v}
}

// Float64 returns the value as float64, widening integers.
func (n Number) Float64() float64 {
	if n.Kind.IsInteger() {
		return float64(n.Int)
	}
	return n.Float
}

// Bool is a boolean literal.
type Bool struct {
	Value bool
}

// Bytes is a binary literal.
type Bytes struct {
	Value []byte
}

// Object is a literal of a type the filter model does not know.
type Object struct {
	Value any
}

// AttributeRef names an attribute inside function arguments.
type AttributeRef string

func (a AttributeRef) String() string { return string(a) }

func (Text) literal()      {}
func (Date) literal()      {}
func (DateRange) literal() {}
func (Number) literal()    {}
func (Bool) literal()      {}
func (Bytes) literal()     {}
func (Object) literal()    {}

func (Text) LiteralType() string      { return "text" }
func (Date) LiteralType() string      { return "date" }
func (DateRange) LiteralType() string { return "dateRange" }
func (Number) LiteralType() string    { return "number" }
func (Bool) LiteralType() string      { return "bool" }
func (Bytes) LiteralType() string     { return "bytes" }
func (Object) LiteralType() string    { return "object" }

// LiteralTypeOf returns l.LiteralType(), or "null" for a nil literal.
func LiteralTypeOf(l Literal) string {
	if l == nil {
		return "null"
	}
	return l.LiteralType()
}

// CoerceLiteral converts an untyped value to the matching literal kind.
func CoerceLiteral(value any) Literal {
	switch v := value.(type) {
	case Literal:
		return v
	case string:
		return Text{Value: v, CaseSensitive: true}
	case bool:
		return Bool{Value: v}
	case int8:
		return Short(int16(v))
	case int16:
		return Short(v)
	case int32:
		return Int(v)
	case int:
		return Long(int64(v))
	case int64:
		return Long(v)
	case uint8:
		return Long(int64(v))
	case uint16:
		return Long(int64(v))
	case uint32:
		return Long(int64(v))
	case float32:
		return Float(v)
	case float64:
		return Double(v)
	case json.Number:
		return coerceJSONNumber(v)
	case time.Time:
		return Date{Value: v}
	case []byte:
		return Bytes{Value: v}
	default:
		return Object{Value: value}
	}
}

// coerceJSONNumber keeps integer precision when the text is integral.
func coerceJSONNumber(n json.Number) Literal {
	if i, err := n.Int64(); err == nil {
		return Long(i)
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Object{Value: n}
	}
	return Double(f)
}
