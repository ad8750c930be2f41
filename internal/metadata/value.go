// Package metadata implements the tagged scalar metadata value used
// throughout ASDP records, rule evaluation, and similarity extraction.
package metadata

import "math"

// Kind tags the active variant of a Value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a tagged union over integer, floating, and string metadata
// values. Only the field corresponding to Kind is meaningful.
type Value struct {
	Kind Kind
	i    int64
	f    float64
	s    string
}

// Int constructs an integer-valued Value.
func Int(v int64) Value { return Value{Kind: KindInt, i: v} }

// Float constructs a floating-valued Value.
func Float(v float64) Value { return Value{Kind: KindFloat, f: v} }

// String constructs a string-valued Value.
func String(v string) Value { return Value{Kind: KindString, s: v} }

// Default returns the zero-valued metadata value, Int(0).
func Default() Value { return Int(0) }

// IsNumeric reports whether the value is Int or Float.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

// Numeric coerces the value to the float domain. Integers widen; calling
// this on a String value is undefined and must never happen after a
// successful IsNumeric check.
func (v Value) Numeric() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	default:
		return math.NaN()
	}
}

// Int64 returns the integer value. Undefined unless Kind == KindInt.
func (v Value) Int64() int64 { return v.i }

// Str returns the string value. Undefined unless Kind == KindString.
func (v Value) Str() string { return v.s }

// NaN returns the sentinel "no meaningful numeric" metadata value.
func NaN() Value { return Float(math.NaN()) }
