package record

import (
	"strconv"
	"time"
)

// Value is one typed cell after normalization
type Value struct {
	Type       ValueType  `json:"type"`
	StringVal  *string    `json:"string_val,omitempty"`
	IntVal     *int64     `json:"int_val,omitempty"`
	DecimalVal *float64   `json:"decimal_val,omitempty"`
	DateVal    *time.Time `json:"date_val,omitempty"`
	IsNull     bool       `json:"is_null"`
}

// ValueType defines the storage type for values
type ValueType string

const (
	ValueTypeString  ValueType = "string"
	ValueTypeInteger ValueType = "integer"
	ValueTypeDecimal ValueType = "decimal"
	ValueTypeDate    ValueType = "date"
	ValueTypeNull    ValueType = "null"
)

// NewStringValue creates a string value; empty strings become null
func NewStringValue(s string) Value {
	if s == "" {
		return NullValue()
	}
	return Value{Type: ValueTypeString, StringVal: &s}
}

// NewIntegerValue creates an integer value
func NewIntegerValue(n int64) Value {
	return Value{Type: ValueTypeInteger, IntVal: &n}
}

// NewDecimalValue creates a decimal value
func NewDecimalValue(f float64) Value {
	return Value{Type: ValueTypeDecimal, DecimalVal: &f}
}

// NewDateValue creates a date value, truncated to a calendar day in UTC
func NewDateValue(t time.Time) Value {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Value{Type: ValueTypeDate, DateVal: &d}
}

// NullValue creates a null value
func NullValue() Value {
	return Value{Type: ValueTypeNull, IsNull: true}
}

// String returns the canonical string representation. It is stable across
// runs and is what key strings and split routing are built from.
func (v Value) String() string {
	switch v.Type {
	case ValueTypeString:
		if v.StringVal != nil {
			return *v.StringVal
		}
	case ValueTypeInteger:
		if v.IntVal != nil {
			return strconv.FormatInt(*v.IntVal, 10)
		}
	case ValueTypeDecimal:
		if v.DecimalVal != nil {
			return strconv.FormatFloat(*v.DecimalVal, 'f', -1, 64)
		}
	case ValueTypeDate:
		if v.DateVal != nil {
			return v.DateVal.Format("2006-01-02")
		}
	case ValueTypeNull:
		return ""
	}
	return ""
}

// Equal reports whether two values are the same for change detection.
// Dates compare by calendar day, decimals by exact float64 identity.
func (v Value) Equal(o Value) bool {
	if v.IsNull || o.IsNull {
		return v.IsNull && o.IsNull
	}
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case ValueTypeString:
		return v.StringVal != nil && o.StringVal != nil && *v.StringVal == *o.StringVal
	case ValueTypeInteger:
		return v.IntVal != nil && o.IntVal != nil && *v.IntVal == *o.IntVal
	case ValueTypeDecimal:
		return v.DecimalVal != nil && o.DecimalVal != nil && *v.DecimalVal == *o.DecimalVal
	case ValueTypeDate:
		if v.DateVal == nil || o.DateVal == nil {
			return false
		}
		vy, vm, vd := v.DateVal.Date()
		oy, om, od := o.DateVal.Date()
		return vy == oy && vm == om && vd == od
	}
	return false
}

// IsString returns true if the value holds text
func (v Value) IsString() bool {
	return v.Type == ValueTypeString && v.StringVal != nil
}

// IsInteger returns true if the value holds an integer
func (v Value) IsInteger() bool {
	return v.Type == ValueTypeInteger && v.IntVal != nil
}

// IsDecimal returns true if the value holds a decimal
func (v Value) IsDecimal() bool {
	return v.Type == ValueTypeDecimal && v.DecimalVal != nil
}

// IsDate returns true if the value holds a calendar date
func (v Value) IsDate() bool {
	return v.Type == ValueTypeDate && v.DateVal != nil
}

// AsString returns the text value, or empty string otherwise
func (v Value) AsString() string {
	if v.StringVal != nil {
		return *v.StringVal
	}
	return ""
}

// AsInt64 returns the integer value, or 0 otherwise
func (v Value) AsInt64() int64 {
	if v.IntVal != nil {
		return *v.IntVal
	}
	return 0
}

// AsFloat64 returns the decimal value, or 0 otherwise
func (v Value) AsFloat64() float64 {
	if v.DecimalVal != nil {
		return *v.DecimalVal
	}
	return 0.0
}

// AsTime returns the date value, or the zero time otherwise
func (v Value) AsTime() time.Time {
	if v.DateVal != nil {
		return *v.DateVal
	}
	return time.Time{}
}

// Arg returns the value in driver-friendly form for SQL parameters
func (v Value) Arg() any {
	switch v.Type {
	case ValueTypeString:
		if v.StringVal != nil {
			return *v.StringVal
		}
	case ValueTypeInteger:
		if v.IntVal != nil {
			return *v.IntVal
		}
	case ValueTypeDecimal:
		if v.DecimalVal != nil {
			return *v.DecimalVal
		}
	case ValueTypeDate:
		if v.DateVal != nil {
			return v.DateVal.Format("2006-01-02")
		}
	}
	return nil
}
