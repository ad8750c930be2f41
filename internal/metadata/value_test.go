package metadata

import (
	"math"
	"testing"
)

func TestIsNumeric(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"int", Int(3), true},
		{"float", Float(3.5), true},
		{"string", String("x"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.v.IsNumeric(); got != c.want {
				t.Fatalf("IsNumeric() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestNumericWidening(t *testing.T) {
	if got := Int(7).Numeric(); got != 7.0 {
		t.Fatalf("Int(7).Numeric() = %v, want 7.0", got)
	}
	if got := Float(2.5).Numeric(); got != 2.5 {
		t.Fatalf("Float(2.5).Numeric() = %v, want 2.5", got)
	}
}

func TestDefaultIsIntZero(t *testing.T) {
	d := Default()
	if d.Kind != KindInt || d.Int64() != 0 {
		t.Fatalf("Default() = %+v, want Int(0)", d)
	}
}

func TestNaNSentinel(t *testing.T) {
	n := NaN()
	if !n.IsNumeric() {
		t.Fatal("NaN() must report IsNumeric() == true")
	}
	if !math.IsNaN(n.Numeric()) {
		t.Fatalf("NaN().Numeric() = %v, want NaN", n.Numeric())
	}
}

func TestEntryGetMissingField(t *testing.T) {
	e := Entry{"a": Int(1)}
	v := e.Get("missing")
	if !v.IsNumeric() || !math.IsNaN(v.Numeric()) {
		t.Fatalf("Get(missing) = %+v, want NaN", v)
	}
}

func TestEntryCloneIndependence(t *testing.T) {
	e := Entry{"a": Int(1)}
	c := e.Clone()
	c["a"] = Int(2)
	if e["a"].Int64() != 1 {
		t.Fatalf("original entry mutated via clone")
	}
}
