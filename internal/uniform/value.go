package uniform

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Value is a uniform value: a Kind plus fixed storage for up to four
// components of that kind's element type. The zero Value has KindInvalid.
// Values are comparable with ==.
type Value struct {
	kind Kind
	b    [4]bool
	i    [4]int32
	u    [4]uint32
	f    [4]float32
	d    [4]float64
}

// Zero returns the default value of k (false, 0, or an all-zero vector).
func Zero(k Kind) Value { return Value{kind: k} }

func Bool(v bool) Value      { return Value{kind: KindBool, b: [4]bool{v}} }
func Int(v int32) Value      { return Value{kind: KindInt, i: [4]int32{v}} }
func Uint(v uint32) Value    { return Value{kind: KindUint, u: [4]uint32{v}} }
func Float(v float32) Value  { return Value{kind: KindFloat, f: [4]float32{v}} }
func Double(v float64) Value { return Value{kind: KindDouble, d: [4]float64{v}} }

func Vec2(x, y float32) Value       { return Value{kind: KindVec2, f: [4]float32{x, y}} }
func Vec3(x, y, z float32) Value    { return Value{kind: KindVec3, f: [4]float32{x, y, z}} }
func Vec4(x, y, z, w float32) Value { return Value{kind: KindVec4, f: [4]float32{x, y, z, w}} }

// FromBools builds a bool, bvec2, bvec3 or bvec4 from 1-4 components.
func FromBools(vs ...bool) (Value, error) {
	v, err := sized(ElemBool, len(vs))
	copy(v.b[:], vs)
	return v, err
}

// FromInts builds an int or ivecN from 1-4 components.
func FromInts(vs ...int32) (Value, error) {
	v, err := sized(ElemInt, len(vs))
	copy(v.i[:], vs)
	return v, err
}

// FromUints builds a uint or uvecN from 1-4 components.
func FromUints(vs ...uint32) (Value, error) {
	v, err := sized(ElemUint, len(vs))
	copy(v.u[:], vs)
	return v, err
}

// FromFloats builds a float or vecN from 1-4 components.
func FromFloats(vs ...float32) (Value, error) {
	v, err := sized(ElemFloat, len(vs))
	copy(v.f[:], vs)
	return v, err
}

// FromDoubles builds a double or dvecN from 1-4 components.
func FromDoubles(vs ...float64) (Value, error) {
	v, err := sized(ElemDouble, len(vs))
	copy(v.d[:], vs)
	return v, err
}

func sized(e Elem, n int) (Value, error) {
	if n < 1 || n > 4 {
		return Value{}, fmt.Errorf("uniform values have 1-4 components, got %d", n)
	}
	if n == 1 {
		for k := KindBool; k <= KindDouble; k++ {
			if k.Elem() == e {
				return Value{kind: k}, nil
			}
		}
	}
	return Value{kind: vecKind(e, n)}, nil
}

// Kind returns the value's declared type.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the value of a bool uniform.
func (v Value) Bool() (bool, bool) { return v.b[0], v.kind == KindBool }

// Int returns the value of an int uniform.
func (v Value) Int() (int32, bool) { return v.i[0], v.kind == KindInt }

// Uint returns the value of a uint uniform.
func (v Value) Uint() (uint32, bool) { return v.u[0], v.kind == KindUint }

// Float returns the value of a float uniform.
func (v Value) Float() (float32, bool) { return v.f[0], v.kind == KindFloat }

// Double returns the value of a double uniform.
func (v Value) Double() (float64, bool) { return v.d[0], v.kind == KindDouble }

// Vec2 returns the components of a vec2 uniform.
func (v Value) Vec2() ([2]float32, bool) { return [2]float32{v.f[0], v.f[1]}, v.kind == KindVec2 }

// Vec3 returns the components of a vec3 uniform.
func (v Value) Vec3() ([3]float32, bool) {
	return [3]float32{v.f[0], v.f[1], v.f[2]}, v.kind == KindVec3
}

// Vec4 returns the components of a vec4 uniform.
func (v Value) Vec4() ([4]float32, bool) { return v.f, v.kind == KindVec4 }

// Bools returns the components when the element type is bool, else nil.
func (v Value) Bools() []bool {
	if v.kind.Elem() != ElemBool {
		return nil
	}
	return v.b[:v.kind.Components()]
}

// Ints returns the components when the element type is int, else nil.
func (v Value) Ints() []int32 {
	if v.kind.Elem() != ElemInt {
		return nil
	}
	return v.i[:v.kind.Components()]
}

// Uints returns the components when the element type is uint, else nil.
func (v Value) Uints() []uint32 {
	if v.kind.Elem() != ElemUint {
		return nil
	}
	return v.u[:v.kind.Components()]
}

// Floats returns the components when the element type is float, else nil.
func (v Value) Floats() []float32 {
	if v.kind.Elem() != ElemFloat {
		return nil
	}
	return v.f[:v.kind.Components()]
}

// Doubles returns the components when the element type is double, else nil.
func (v Value) Doubles() []float64 {
	if v.kind.Elem() != ElemDouble {
		return nil
	}
	return v.d[:v.kind.Components()]
}

// Add returns the component-wise sum of v and o. Both must have the same
// numeric kind; integer overflow is an error rather than a wrap.
func (v Value) Add(o Value) (Value, error) {
	if v.kind != o.kind {
		return Value{}, fmt.Errorf("cannot add %s to %s", o.kind, v.kind)
	}
	out := Value{kind: v.kind}
	n := v.kind.Components()
	switch v.kind.Elem() {
	case ElemInt:
		for c := 0; c < n; c++ {
			sum, err := safecast.Conv[int32](int64(v.i[c]) + int64(o.i[c]))
			if err != nil {
				return Value{}, fmt.Errorf("%s overflow: %w", v.kind, err)
			}
			out.i[c] = sum
		}
	case ElemUint:
		for c := 0; c < n; c++ {
			sum, err := safecast.Conv[uint32](uint64(v.u[c]) + uint64(o.u[c]))
			if err != nil {
				return Value{}, fmt.Errorf("%s overflow: %w", v.kind, err)
			}
			out.u[c] = sum
		}
	case ElemFloat:
		for c := 0; c < n; c++ {
			out.f[c] = v.f[c] + o.f[c]
		}
	case ElemDouble:
		for c := 0; c < n; c++ {
			out.d[c] = v.d[c] + o.d[c]
		}
	default:
		return Value{}, fmt.Errorf("cannot add %s values", v.kind)
	}
	return out, nil
}

// String formats scalars bare and vectors as [x y z].
func (v Value) String() string {
	n := v.kind.Components()
	parts := make([]string, 0, n)
	for c := 0; c < n; c++ {
		switch v.kind.Elem() {
		case ElemBool:
			parts = append(parts, strconv.FormatBool(v.b[c]))
		case ElemInt:
			parts = append(parts, strconv.FormatInt(int64(v.i[c]), 10))
		case ElemUint:
			parts = append(parts, strconv.FormatUint(uint64(v.u[c]), 10))
		case ElemFloat:
			parts = append(parts, strconv.FormatFloat(float64(v.f[c]), 'g', -1, 32))
		case ElemDouble:
			parts = append(parts, strconv.FormatFloat(v.d[c], 'g', -1, 64))
		}
	}
	switch n {
	case 0:
		return "<invalid>"
	case 1:
		return parts[0]
	default:
		return "[" + strings.Join(parts, " ") + "]"
	}
}
