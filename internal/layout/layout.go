// Package layout implements Component G (spec.md §4.4): a pure function
// from a value representation and target triple to its ABI layout —
// size, alignment, stride, scalar/scalar-pair/aggregate classification,
// and (for enums) tag placement. Grounded on
// `original_source/compiler/mir/src/layout.rs`'s `_layout_of`,
// `struct_layout`, and `enum_layout`, translated near line-for-line; the
// Repr/Scalar/Primitive vocabulary itself follows spec.md §4.4's prose
// since the original's `repr.rs` was not part of the retrieved sources.
package layout

import "golang.org/x/exp/constraints"

// Target names the two facts layout depends on: pointer width in bytes
// and byte order. Layout is otherwise target-independent (spec.md §4.4:
// "pure function of Repr and target triple").
type Target struct {
	PointerWidth int // 4 or 8
	BigEndian    bool
}

// Primitive is a scalar machine type.
type Primitive uint8

const (
	I8 Primitive = iota
	I16
	I32
	I64
	I128
	F32
	F64
	Pointer
)

func (p Primitive) size(t Target) Size {
	switch p {
	case I8:
		return 1
	case I16:
		return 2
	case I32:
		return 4
	case I64:
		return 8
	case I128:
		return 16
	case F32:
		return 4
	case F64:
		return 8
	case Pointer:
		return Size(t.PointerWidth)
	default:
		return 0
	}
}

// Size is a byte count.
type Size uint64

// Align is a byte alignment, always a power of two.
type Align uint64

// alignTo rounds x up to the next multiple of align (align must be a
// power of two, as every Align value is). Generic over the unsigned
// integer types Size and Align share, grounded on the ecosystem-standard
// bit-trick rather than a division loop.
func alignTo[T constraints.Unsigned](x, align T) T {
	if align == 0 {
		return x
	}
	return (x + align - 1) &^ (align - 1)
}

// Scalar is a single machine value with a restricted valid bit-pattern
// range, used both standalone and as one half of a ScalarPair.
type Scalar struct {
	Value          Primitive
	ValidLow       uint64
	ValidHigh      uint64
	ValidRangeFull bool // true when the whole representable range is valid (no niche)
}

func (s Scalar) size(t Target) Size   { return s.Value.size(t) }
func (s Scalar) align(t Target) Align { return Align(s.Value.size(t)) }

// available reports how many unused bit patterns (niches) s has.
func (s Scalar) available(t Target) uint64 {
	if s.ValidRangeFull {
		return 0
	}
	full := uint64(1)<<(uint64(s.size(t))*8) - 1
	if s.size(t) >= 8 {
		full = ^uint64(0)
	}
	return full - (s.ValidHigh - s.ValidLow)
}

// Niche records where and how a value's unused bit patterns live, for
// future niche-packed enum encoding. spec.md §9 leaves niche encoding
// unimplemented; this type exists so the ABI surface is already shaped
// for when it is (see DESIGN.md's Open Question decision #1).
type Niche struct {
	Offset Size
	Scalar Scalar
}

func (n Niche) available(t Target) uint64 { return n.Scalar.available(t) }

// Abi classifies how a value of this layout is passed/returned.
type AbiKind uint8

const (
	AbiUninhabited AbiKind = iota
	AbiScalar
	AbiScalarPair
	AbiAggregate
)

type Abi struct {
	Kind          AbiKind
	Scalar        Scalar // AbiScalar
	PairA, PairB  Scalar // AbiScalarPair
	AggregateSize bool   // AbiAggregate: true if sized
}

// FieldsKind discriminates a Layout's Fields payload.
type FieldsKind uint8

const (
	FieldsPrimitive FieldsKind = iota
	FieldsArray
	FieldsArbitrary
)

type Fields struct {
	Kind          FieldsKind
	ArrayStride   Size // FieldsArray
	ArrayCount    int  // FieldsArray
	ArbitraryOffs []Size
}

// TagEncoding discriminates how an enum's discriminant is stored.
type TagEncoding uint8

const (
	TagDirect TagEncoding = iota
	TagNiche              // reserved; never produced (DESIGN.md Open Question 1)
)

type VariantsKind uint8

const (
	VariantsSingle VariantsKind = iota
	VariantsMultiple
)

type Variants struct {
	Kind VariantsKind

	SingleIndex int // VariantsSingle

	Tag         Scalar      // VariantsMultiple
	TagEncoding TagEncoding // VariantsMultiple
	TagField    int         // VariantsMultiple
	Variants    []*Layout   // VariantsMultiple, one per enum variant
}

// Layout is the full ABI description of one representation.
type Layout struct {
	Size         Size
	Align        Align
	Stride       Size
	Abi          Abi
	Fields       Fields
	Variants     Variants
	LargestNiche *Niche
}

func unitLayout() Layout {
	return Layout{Size: 0, Align: 1, Stride: 0, Abi: Abi{Kind: AbiAggregate, AggregateSize: true}, Fields: Fields{Kind: FieldsPrimitive}, Variants: Variants{Kind: VariantsSingle}}
}

// ReprKind discriminates a Repr's payload.
type ReprKind uint8

const (
	ROpaque ReprKind = iota
	RUninhabited
	RScalar
	RPtr
	RBox
	RFunc
	RArray
	RStruct
	REnum
)

// Repr is a value representation, the input to layout_of. Array length
// Const(n) is the only array-length form implemented here: a type-var
// length (unsized array) is modeled with ArrayIsConst=false, size 0, per
// the original's `ArrayLen::TypeVar` arm.
type Repr struct {
	Kind ReprKind

	Scalar Scalar // RScalar

	PtrElem    *Repr // RPtr, RBox
	PtrFat     bool  // RPtr
	PtrNonNull bool  // RPtr

	FuncVariadic bool // RFunc

	ArrayIsConst bool  // RArray
	ArrayLen     int   // RArray, when ArrayIsConst
	ArrayElem    *Repr // RArray

	StructFields []Repr // RStruct

	EnumVariants []Repr // REnum
}

// LayoutOf computes repr's layout for target, the pure function spec.md
// §4.4 calls `layout_of`.
func LayoutOf(t Target, repr Repr) Layout {
	switch repr.Kind {
	case ROpaque:
		l := unitLayout()
		l.Abi = Abi{Kind: AbiAggregate, AggregateSize: true}
		return l
	case RUninhabited:
		l := unitLayout()
		l.Abi = Abi{Kind: AbiUninhabited}
		return l
	case RScalar:
		return scalarLayout(repr.Scalar, t)
	case RPtr:
		return ptrLayout(repr, t)
	case RBox:
		return nonNullPtrLayout(t)
	case RFunc:
		if repr.FuncVariadic {
			return unitLayout() // unsupported variadic func repr; backend treats as opaque
		}
		return nonNullPtrLayout(t)
	case RArray:
		return arrayLayout(repr, t)
	case RStruct:
		lyts := make([]Layout, len(repr.StructFields))
		for i, f := range repr.StructFields {
			lyts[i] = LayoutOf(t, f)
		}
		return structLayout(lyts, t)
	case REnum:
		lyts := make([]Layout, len(repr.EnumVariants))
		for i, v := range repr.EnumVariants {
			lyts[i] = LayoutOf(t, v)
		}
		return enumLayout(lyts, t)
	default:
		return unitLayout()
	}
}

func scalarLayout(s Scalar, t Target) Layout {
	align := s.align(t)
	size := s.size(t)
	var niche *Niche
	if s.available(t) > 0 {
		niche = &Niche{Offset: 0, Scalar: s}
	}
	return Layout{
		Size: size, Align: align, Stride: alignTo(size, Size(align)),
		Abi:          Abi{Kind: AbiScalar, Scalar: s},
		Fields:       Fields{Kind: FieldsPrimitive},
		Variants:     Variants{Kind: VariantsSingle},
		LargestNiche: niche,
	}
}

func ptrLayout(repr Repr, t Target) Layout {
	if !repr.PtrFat {
		s := Scalar{Value: Pointer, ValidRangeFull: !repr.PtrNonNull}
		if repr.PtrNonNull {
			s.ValidLow, s.ValidHigh = 1, ^uint64(0)
		}
		return scalarLayout(s, t)
	}
	a := Scalar{Value: Pointer}
	if repr.PtrNonNull {
		a.ValidLow, a.ValidHigh = 1, ^uint64(0)
	} else {
		a.ValidRangeFull = true
	}
	b := Scalar{Value: I64, ValidRangeFull: true}
	return scalarPairLayout(a, b, t)
}

func nonNullPtrLayout(t Target) Layout {
	s := Scalar{Value: Pointer, ValidLow: 1, ValidHigh: ^uint64(0)}
	return scalarLayout(s, t)
}

func scalarPairLayout(a, b Scalar, t Target) Layout {
	bAlign := b.align(t)
	align := max(a.align(t), bAlign)
	bOffset := alignTo(a.size(t), Size(bAlign))
	size := bOffset + b.size(t)

	var largest *Niche
	if b.available(t) > 0 {
		largest = &Niche{Offset: bOffset, Scalar: b}
	}
	if a.available(t) > 0 {
		if largest == nil || a.available(t) > largest.available(t) {
			largest = &Niche{Offset: 0, Scalar: a}
		}
	}

	return Layout{
		Size: size, Align: align, Stride: alignTo(size, Size(align)),
		Abi:          Abi{Kind: AbiScalarPair, PairA: a, PairB: b},
		Fields:       Fields{Kind: FieldsArbitrary, ArbitraryOffs: []Size{0, bOffset}},
		Variants:     Variants{Kind: VariantsSingle},
		LargestNiche: largest,
	}
}

func arrayLayout(repr Repr, t Target) Layout {
	elem := LayoutOf(t, *repr.ArrayElem)
	if !repr.ArrayIsConst {
		return Layout{
			Size: 0, Align: elem.Align, Stride: 0,
			Abi:      Abi{Kind: AbiAggregate, AggregateSize: false},
			Fields:   Fields{Kind: FieldsArray, ArrayStride: elem.Stride, ArrayCount: 0},
			Variants: Variants{Kind: VariantsSingle},
		}
	}
	n := Size(repr.ArrayLen)
	size := elem.Stride * n
	return Layout{
		Size: size, Align: elem.Align, Stride: size,
		Abi:      Abi{Kind: AbiAggregate, AggregateSize: true},
		Fields:   Fields{Kind: FieldsArray, ArrayStride: elem.Stride, ArrayCount: repr.ArrayLen},
		Variants: Variants{Kind: VariantsSingle},
	}
}

// structLayout lays out fields in source order: each offset is the
// previous offset aligned to the field's align; overall align is the
// max; size is the last offset plus its field's size; stride is size
// aligned to overall align (spec.md §4.4).
func structLayout(lyts []Layout, t Target) Layout {
	align := Align(1)
	offsets := make([]Size, len(lyts))
	offset := Size(0)
	var niches []Niche

	for i, lyt := range lyts {
		if lyt.LargestNiche != nil {
			niches = append(niches, *lyt.LargestNiche)
		}
		offset = alignTo(offset, Size(lyt.Align))
		align = max(align, lyt.Align)
		offsets[i] = offset
		offset += lyt.Size
	}

	size := offset
	stride := alignTo(size, Size(align))
	var largest *Niche
	for i := range niches {
		if largest == nil || niches[i].available(t) > largest.available(t) {
			n := niches[i]
			largest = &n
		}
	}

	return Layout{
		Size: size, Align: align, Stride: stride,
		Abi:          Abi{Kind: AbiAggregate, AggregateSize: true},
		Fields:       Fields{Kind: FieldsArbitrary, ArbitraryOffs: offsets},
		Variants:     Variants{Kind: VariantsSingle},
		LargestNiche: largest,
	}
}

// bitsToHold returns the minimum number of bits needed to represent n
// distinct states (n >= 1).
func bitsToHold(n int) uint {
	bits := uint(0)
	for (1 << bits) < n {
		bits++
	}
	return bits
}

// tagSizeFor picks the smallest power-of-two-byte integer holding n
// discriminant states, aligned to the enum's overall alignment (spec.md
// §4.4's tag integer choice table; grounded on `enum_layout`'s
// `Size::from_bits(variants.len()).align_to(align)` then matching on the
// resulting byte count).
func tagSizeFor(n int, align Align) (Primitive, Size) {
	bytesNeeded := Size((bitsToHold(n) + 7) / 8)
	if bytesNeeded == 0 {
		bytesNeeded = 1
	}
	bytesNeeded = alignTo(bytesNeeded, Size(align))
	switch {
	case bytesNeeded == 1:
		return I8, 1
	case bytesNeeded == 2:
		return I16, 2
	case bytesNeeded <= 4:
		return I32, 4
	case bytesNeeded <= 8:
		return I64, 8
	default:
		return I128, 16
	}
}

// enumLayout implements spec.md §4.4's Enum algorithm. Niche encoding is
// always skipped in favor of Direct tagging, matching the original's own
// unfinished `// @TODO: implement niches` branch (DESIGN.md Open Question
// decision #1): a multi-variant enum's layout carries no LargestNiche,
// and the tag is always Direct.
func enumLayout(lyts []Layout, t Target) Layout {
	if len(lyts) == 0 {
		l := unitLayout()
		l.Abi = Abi{Kind: AbiUninhabited}
		return l
	}
	if len(lyts) == 1 {
		return lyts[0]
	}

	for i := range lyts {
		lyts[i].Variants = Variants{Kind: VariantsSingle, SingleIndex: i}
	}

	align := Align(1)
	size := Size(0)
	for _, l := range lyts {
		align = max(align, l.Align)
		size = max(size, l.Size)
	}

	tagPrim, tagSize := tagSizeFor(len(lyts), align)
	tagAlignedSize := alignTo(tagSize, Size(align))
	tag := Scalar{Value: tagPrim, ValidLow: 0, ValidHigh: uint64(len(lyts) - 1)}

	variants := make([]*Layout, len(lyts))
	for i, l := range lyts {
		if l.Fields.Kind == FieldsArbitrary {
			shifted := make([]Size, len(l.Fields.ArbitraryOffs))
			for j, o := range l.Fields.ArbitraryOffs {
				shifted[j] = o + tagAlignedSize
			}
			l.Fields.ArbitraryOffs = shifted
		}
		totalSize := size + tagAlignedSize
		l.Size = totalSize
		l.Stride = alignTo(totalSize, Size(align))
		cp := l
		variants[i] = &cp
	}

	totalSize := size + tagAlignedSize
	stride := alignTo(totalSize, Size(align))
	fieldOffsets := []Size{0}
	if totalSize == tagAlignedSize {
		fieldOffsets = []Size{0}
	}

	abi := Abi{Kind: AbiAggregate, AggregateSize: true}
	if Size(tagPrim.size(t)) == totalSize {
		abi = Abi{Kind: AbiScalar, Scalar: tag}
	}

	return Layout{
		Size: totalSize, Align: align, Stride: stride,
		Abi:    abi,
		Fields: Fields{Kind: FieldsArbitrary, ArbitraryOffs: fieldOffsets},
		Variants: Variants{
			Kind: VariantsMultiple, Tag: tag, TagEncoding: TagDirect, TagField: 0, Variants: variants,
		},
	}
}
