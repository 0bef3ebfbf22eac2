package record

import (
	"testing"
	"time"
)

func TestValueString(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{NewStringValue("Ana"), "Ana"},
		{NewIntegerValue(-42), "-42"},
		{NewDecimalValue(1250.75), "1250.75"},
		{NewDecimalValue(10), "10"},
		{NewDateValue(time.Date(1990, 3, 15, 13, 45, 0, 0, time.Local)), "1990-03-15"},
		{NullValue(), ""},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestValueEqual(t *testing.T) {
	d1 := NewDateValue(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	d1b := NewDateValue(time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC))
	d2 := NewDateValue(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))

	cases := []struct {
		a, b Value
		want bool
	}{
		{NewStringValue("x"), NewStringValue("x"), true},
		{NewStringValue("x"), NewStringValue("y"), false},
		{NewIntegerValue(5), NewIntegerValue(5), true},
		{NewIntegerValue(5), NewIntegerValue(6), false},
		{NewDecimalValue(1.5), NewDecimalValue(1.5), true},
		{NewDecimalValue(1.5), NewDecimalValue(1.51), false},
		{d1, d1b, true}, // same calendar day
		{d1, d2, false},
		{NullValue(), NullValue(), true},
		{NullValue(), NewStringValue("x"), false},
		{NewIntegerValue(5), NewDecimalValue(5), false}, // type mismatch stays distinct
	}
	for i, tc := range cases {
		if got := tc.a.Equal(tc.b); got != tc.want {
			t.Errorf("case %d: Equal = %v, want %v", i, got, tc.want)
		}
		if got := tc.b.Equal(tc.a); got != tc.want {
			t.Errorf("case %d: Equal not symmetric", i)
		}
	}
}

func TestValueArg(t *testing.T) {
	if got := NewStringValue("Ana").Arg(); got != "Ana" {
		t.Errorf("string arg = %v", got)
	}
	if got := NewIntegerValue(7).Arg(); got != int64(7) {
		t.Errorf("integer arg = %v", got)
	}
	if got := NewDecimalValue(2.5).Arg(); got != 2.5 {
		t.Errorf("decimal arg = %v", got)
	}
	if got := NewDateValue(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)).Arg(); got != "2024-05-01" {
		t.Errorf("date arg = %v", got)
	}
	if got := NullValue().Arg(); got != nil {
		t.Errorf("null arg = %v", got)
	}
}

func TestEmptyStringBecomesNull(t *testing.T) {
	v := NewStringValue("")
	if !v.IsNull || v.Type != ValueTypeNull {
		t.Errorf("expected null, got %+v", v)
	}
}
