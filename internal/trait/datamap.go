package trait

import (
	"fmt"
)

// DataMap is the per-organism value store. Slots are indexed by the shared
// layout's dense IDs; the store itself is type-erased and the typed Get/Set
// functions layer compile-time types on top.
type DataMap struct {
	layout *Layout
	vals   []Value
}

// NewDataMap builds a map with every slot set to its layout default. The
// layout should be locked first; maps built against a growing layout would
// not see later traits.
func NewDataMap(l *Layout) *DataMap {
	dm := &DataMap{layout: l, vals: make([]Value, l.NumTraits())}
	for i := range dm.vals {
		dm.vals[i] = l.Default(ID(i))
	}
	return dm
}

func (dm *DataMap) Layout() *Layout { return dm.layout }

func (dm *DataMap) check(id ID) error {
	if id < 0 || int(id) >= len(dm.vals) {
		return fmt.Errorf("%w: id %d", ErrUnknownTrait, id)
	}
	return nil
}

// Value returns the raw tagged value in a slot.
func (dm *DataMap) Value(id ID) (Value, error) {
	if err := dm.check(id); err != nil {
		return Value{}, err
	}
	return dm.vals[id], nil
}

// SetValue stores a value, enforcing the slot's tag.
func (dm *DataMap) SetValue(id ID, v Value) error {
	if err := dm.check(id); err != nil {
		return err
	}
	if want := dm.layout.Tag(id); v.Tag() != want {
		return fmt.Errorf("%w: trait %q holds %s, got %s",
			ErrTypeMismatch, dm.layout.Name(id), want, v.Tag())
	}
	dm.vals[id] = v
	return nil
}

// SetAny converts a plain Go value and stores it.
func (dm *DataMap) SetAny(id ID, v any) error {
	val, err := ValueOf(v)
	if err != nil {
		return err
	}
	if want := dm.layout.Tag(id); want == TagFloat && val.Tag() == TagInt {
		val = FloatValue(float64(val.Int()))
	}
	return dm.SetValue(id, val)
}

// Float coerces a slot to float64.
func (dm *DataMap) Float(id ID) (float64, error) {
	if err := dm.check(id); err != nil {
		return 0, err
	}
	return dm.vals[id].Float()
}

// Render formats a slot for output.
func (dm *DataMap) Render(id ID) string {
	if dm.check(id) != nil {
		return ""
	}
	return dm.vals[id].String()
}

// Reset restores a slot to its layout default.
func (dm *DataMap) Reset(id ID) error {
	if err := dm.check(id); err != nil {
		return err
	}
	dm.vals[id] = dm.layout.Default(id)
	return nil
}

// Clone deep-copies the map. The layout is shared, the values are not.
func (dm *DataMap) Clone() *DataMap {
	out := &DataMap{layout: dm.layout, vals: make([]Value, len(dm.vals))}
	for i, v := range dm.vals {
		out.vals[i] = v.Clone()
	}
	return out
}

// Kind is the set of Go types a trait slot can hold.
type Kind interface {
	bool | int64 | float64 | string | []int64 | []float64 | []string
}

// Get reads a slot with a compile-time type. The type must match the slot's
// tag exactly.
func Get[T Kind](dm *DataMap, id ID) (T, error) {
	var out T
	if err := dm.check(id); err != nil {
		return out, err
	}
	v := dm.vals[id]
	ok := false
	switch p := any(&out).(type) {
	case *bool:
		if v.tag == TagBool {
			*p, ok = v.b, true
		}
	case *int64:
		if v.tag == TagInt {
			*p, ok = v.i, true
		}
	case *float64:
		if v.tag == TagFloat {
			*p, ok = v.f, true
		}
	case *string:
		if v.tag == TagString {
			*p, ok = v.s, true
		}
	case *[]int64:
		if v.tag == TagIntVec {
			*p, ok = v.iv, true
		}
	case *[]float64:
		if v.tag == TagFloatVec {
			*p, ok = v.fv, true
		}
	case *[]string:
		if v.tag == TagStringVec {
			*p, ok = v.sv, true
		}
	}
	if !ok {
		return out, fmt.Errorf("%w: trait %q holds %s, requested %T",
			ErrTypeMismatch, dm.layout.Name(id), v.tag, out)
	}
	return out, nil
}

// Set writes a slot with a compile-time type.
func Set[T Kind](dm *DataMap, id ID, v T) error {
	val, err := ValueOf(v)
	if err != nil {
		return err
	}
	return dm.SetValue(id, val)
}

// MustGet is Get for hot paths that run after verification; a type mismatch
// here is a programming error and panics.
func MustGet[T Kind](dm *DataMap, id ID) T {
	v, err := Get[T](dm, id)
	if err != nil {
		panic(err)
	}
	return v
}
