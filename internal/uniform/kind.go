package uniform

// Kind is the declared GLSL type of a uniform. Only scalars and 2-4 component
// vectors of bool, int, uint, float and double are supported.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindDouble
	KindBVec2
	KindBVec3
	KindBVec4
	KindIVec2
	KindIVec3
	KindIVec4
	KindUVec2
	KindUVec3
	KindUVec4
	KindVec2
	KindVec3
	KindVec4
	KindDVec2
	KindDVec3
	KindDVec4
)

// Elem is the component type of a Kind.
type Elem uint8

const (
	ElemInvalid Elem = iota
	ElemBool
	ElemInt
	ElemUint
	ElemFloat
	ElemDouble
)

type kindInfo struct {
	tag   string
	elem  Elem
	count int
}

var kinds = [...]kindInfo{
	KindInvalid: {"invalid", ElemInvalid, 0},
	KindBool:    {"bool", ElemBool, 1},
	KindInt:     {"int", ElemInt, 1},
	KindUint:    {"uint", ElemUint, 1},
	KindFloat:   {"float", ElemFloat, 1},
	KindDouble:  {"double", ElemDouble, 1},
	KindBVec2:   {"bvec2", ElemBool, 2},
	KindBVec3:   {"bvec3", ElemBool, 3},
	KindBVec4:   {"bvec4", ElemBool, 4},
	KindIVec2:   {"ivec2", ElemInt, 2},
	KindIVec3:   {"ivec3", ElemInt, 3},
	KindIVec4:   {"ivec4", ElemInt, 4},
	KindUVec2:   {"uvec2", ElemUint, 2},
	KindUVec3:   {"uvec3", ElemUint, 3},
	KindUVec4:   {"uvec4", ElemUint, 4},
	KindVec2:    {"vec2", ElemFloat, 2},
	KindVec3:    {"vec3", ElemFloat, 3},
	KindVec4:    {"vec4", ElemFloat, 4},
	KindDVec2:   {"dvec2", ElemDouble, 2},
	KindDVec3:   {"dvec3", ElemDouble, 3},
	KindDVec4:   {"dvec4", ElemDouble, 4},
}

var kindByTag = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for k := KindBool; int(k) < len(kinds); k++ {
		m[kinds[k].tag] = k
	}
	return m
}()

// ParseKind maps a GLSL type tag to its Kind.
func ParseKind(tag string) (Kind, bool) {
	k, ok := kindByTag[tag]
	return k, ok
}

func (k Kind) info() kindInfo {
	if int(k) < len(kinds) {
		return kinds[k]
	}
	return kinds[KindInvalid]
}

// String returns the GLSL type tag.
func (k Kind) String() string { return k.info().tag }

// Elem returns the component type.
func (k Kind) Elem() Elem { return k.info().elem }

// Components returns 1 for scalars and 2-4 for vectors.
func (k Kind) Components() int { return k.info().count }

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool { return k != KindInvalid && int(k) < len(kinds) }

// vecKind returns the Kind with the given element type and component count.
func vecKind(e Elem, n int) Kind {
	for k := KindBool; int(k) < len(kinds); k++ {
		if kinds[k].elem == e && kinds[k].count == n {
			return k
		}
	}
	return KindInvalid
}
