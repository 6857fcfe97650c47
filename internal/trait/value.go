package trait

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrTypeMismatch = errors.New("trait type mismatch")
	ErrNotNumeric   = errors.New("trait value is not numeric")
)

// Tag identifies the primitive type stored in a trait slot. The Vec tags
// hold variable-length per-organism vectors.
type Tag uint8

const (
	TagNone Tag = iota
	TagBool
	TagInt
	TagFloat
	TagString
	TagIntVec
	TagFloatVec
	TagStringVec
)

func (t Tag) String() string {
	switch t {
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagString:
		return "string"
	case TagIntVec:
		return "int_vec"
	case TagFloatVec:
		return "float_vec"
	case TagStringVec:
		return "string_vec"
	default:
		return "none"
	}
}

// IsVector reports whether values of this tag hold multiple elements.
func (t Tag) IsVector() bool {
	return t == TagIntVec || t == TagFloatVec || t == TagStringVec
}

// Value is a tagged union holding one trait slot. Vector payloads are deep
// copied on Clone so organisms never alias each other's state.
type Value struct {
	tag Tag
	b   bool
	i   int64
	f   float64
	s   string
	iv  []int64
	fv  []float64
	sv  []string
}

func BoolValue(b bool) Value          { return Value{tag: TagBool, b: b} }
func IntValue(i int64) Value          { return Value{tag: TagInt, i: i} }
func FloatValue(f float64) Value      { return Value{tag: TagFloat, f: f} }
func StringValue(s string) Value      { return Value{tag: TagString, s: s} }
func IntVecValue(v []int64) Value     { return Value{tag: TagIntVec, iv: v} }
func FloatVecValue(v []float64) Value { return Value{tag: TagFloatVec, fv: v} }
func StringVecValue(v []string) Value { return Value{tag: TagStringVec, sv: v} }

// ZeroValue returns the default value for a tag: false, 0, "", or an empty
// vector.
func ZeroValue(tag Tag) Value {
	return Value{tag: tag}
}

// ValueOf converts a plain Go value into a tagged Value. Ints of any signed
// width and float32 are widened; unsupported kinds error.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case bool:
		return BoolValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case float32:
		return FloatValue(float64(x)), nil
	case float64:
		return FloatValue(x), nil
	case string:
		return StringValue(x), nil
	case []int64:
		return IntVecValue(x), nil
	case []float64:
		return FloatVecValue(x), nil
	case []string:
		return StringVecValue(x), nil
	case Value:
		return x, nil
	default:
		return Value{}, fmt.Errorf("unsupported trait value type %T", v)
	}
}

func (v Value) Tag() Tag { return v.tag }

func (v Value) Bool() bool          { return v.b }
func (v Value) Int() int64          { return v.i }
func (v Value) FloatRaw() float64   { return v.f }
func (v Value) Str() string         { return v.s }
func (v Value) IntVec() []int64     { return v.iv }
func (v Value) FloatVec() []float64 { return v.fv }
func (v Value) StringVec() []string { return v.sv }

// Len returns the element count: 1 for scalars, the vector length otherwise.
func (v Value) Len() int {
	switch v.tag {
	case TagIntVec:
		return len(v.iv)
	case TagFloatVec:
		return len(v.fv)
	case TagStringVec:
		return len(v.sv)
	case TagNone:
		return 0
	default:
		return 1
	}
}

// Float coerces the value to a float64. Bool maps to 0/1, strings must
// parse, and vectors are not coercible.
func (v Value) Float() (float64, error) {
	switch v.tag {
	case TagBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case TagInt:
		return float64(v.i), nil
	case TagFloat:
		return v.f, nil
	case TagString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, v.s)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrNotNumeric, v.tag)
	}
}

// FloatAt coerces element i to a float64; scalars only accept index 0.
func (v Value) FloatAt(i int) (float64, error) {
	switch v.tag {
	case TagIntVec:
		if i < 0 || i >= len(v.iv) {
			return 0, fmt.Errorf("trait vector index %d out of range", i)
		}
		return float64(v.iv[i]), nil
	case TagFloatVec:
		if i < 0 || i >= len(v.fv) {
			return 0, fmt.Errorf("trait vector index %d out of range", i)
		}
		return v.fv[i], nil
	case TagStringVec:
		if i < 0 || i >= len(v.sv) {
			return 0, fmt.Errorf("trait vector index %d out of range", i)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v.sv[i]), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, v.sv[i])
		}
		return f, nil
	default:
		if i != 0 {
			return 0, fmt.Errorf("trait scalar index %d out of range", i)
		}
		return v.Float()
	}
}

// String renders the value for output and script use.
func (v Value) String() string {
	switch v.tag {
	case TagBool:
		return strconv.FormatBool(v.b)
	case TagInt:
		return strconv.FormatInt(v.i, 10)
	case TagFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TagString:
		return v.s
	case TagIntVec:
		parts := make([]string, len(v.iv))
		for i, x := range v.iv {
			parts[i] = strconv.FormatInt(x, 10)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case TagFloatVec:
		parts := make([]string, len(v.fv))
		for i, x := range v.fv {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case TagStringVec:
		return "[" + strings.Join(v.sv, ",") + "]"
	default:
		return ""
	}
}

// Clone deep-copies vector payloads.
func (v Value) Clone() Value {
	out := v
	switch v.tag {
	case TagIntVec:
		out.iv = append([]int64(nil), v.iv...)
	case TagFloatVec:
		out.fv = append([]float64(nil), v.fv...)
	case TagStringVec:
		out.sv = append([]string(nil), v.sv...)
	}
	return out
}

// Equal compares tag and payload; vectors compare element-wise.
func (v Value) Equal(o Value) bool {
	if v.tag != o.tag {
		return false
	}
	switch v.tag {
	case TagBool:
		return v.b == o.b
	case TagInt:
		return v.i == o.i
	case TagFloat:
		return v.f == o.f
	case TagString:
		return v.s == o.s
	case TagIntVec:
		if len(v.iv) != len(o.iv) {
			return false
		}
		for i := range v.iv {
			if v.iv[i] != o.iv[i] {
				return false
			}
		}
		return true
	case TagFloatVec:
		if len(v.fv) != len(o.fv) {
			return false
		}
		for i := range v.fv {
			if v.fv[i] != o.fv[i] {
				return false
			}
		}
		return true
	case TagStringVec:
		if len(v.sv) != len(o.sv) {
			return false
		}
		for i := range v.sv {
			if v.sv[i] != o.sv[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}
