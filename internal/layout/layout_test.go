package layout

import "testing"

var target64 = Target{PointerWidth: 8}

// TestBoolEnumLayout is end-to-end scenario 5 from spec.md §8: `type Bool
// = True | False` on a 64-bit target.
func TestBoolEnumLayout(t *testing.T) {
	unit := Repr{Kind: RStruct, StructFields: nil}
	boolRepr := Repr{Kind: REnum, EnumVariants: []Repr{unit, unit}}

	l := LayoutOf(target64, boolRepr)
	if l.Size != 1 || l.Align != 1 || l.Stride != 1 {
		t.Fatalf("Bool layout size/align/stride = %d/%d/%d, want 1/1/1", l.Size, l.Align, l.Stride)
	}
	if l.Abi.Kind != AbiScalar || l.Abi.Scalar.Value != I8 {
		t.Fatalf("Bool layout ABI = %+v, want Scalar(I8)", l.Abi)
	}
	if l.Variants.Kind != VariantsMultiple || l.Variants.TagEncoding != TagDirect || l.Variants.TagField != 0 {
		t.Fatalf("Bool layout variants = %+v, want Multiple{Direct, tag_field=0}", l.Variants)
	}
}

// TestTupleSizeLaw covers spec.md §8's round-trip law:
// size_of(Tuple(a,b)) == align_to(size_of(a), align_of(b)) + size_of(b),
// aligned to overall align.
func TestTupleSizeLaw(t *testing.T) {
	a := Repr{Kind: RScalar, Scalar: Scalar{Value: I8, ValidRangeFull: true}}
	b := Repr{Kind: RScalar, Scalar: Scalar{Value: I64, ValidRangeFull: true}}
	tuple := Repr{Kind: RStruct, StructFields: []Repr{a, b}}

	l := LayoutOf(target64, tuple)
	aLyt := LayoutOf(target64, a)
	bLyt := LayoutOf(target64, b)
	want := alignTo(aLyt.Size, Size(bLyt.Align)) + bLyt.Size
	want = alignTo(want, Size(l.Align))
	if l.Stride != want {
		t.Fatalf("tuple stride = %d, want %d", l.Stride, want)
	}
}

// TestEnumSizeAtLeastTagPlusMaxVariant covers spec.md §8: for every enum
// with N>=2 variants using Direct encoding,
// size_of(Enum) >= tag_size + max(size_of(variant_i)).
func TestEnumSizeAtLeastTagPlusMaxVariant(t *testing.T) {
	small := Repr{Kind: RScalar, Scalar: Scalar{Value: I8, ValidRangeFull: true}}
	big := Repr{Kind: RScalar, Scalar: Scalar{Value: I64, ValidRangeFull: true}}
	enum := Repr{Kind: REnum, EnumVariants: []Repr{small, big}}

	l := LayoutOf(target64, enum)
	bigLyt := LayoutOf(target64, big)
	_, tagSize := tagSizeFor(2, bigLyt.Align)
	if l.Size < tagSize+bigLyt.Size {
		t.Fatalf("enum size %d < tag_size(%d) + max variant size(%d)", l.Size, tagSize, bigLyt.Size)
	}
}

func TestFatPointerIsScalarPair(t *testing.T) {
	elem := Repr{Kind: RScalar, Scalar: Scalar{Value: I32, ValidRangeFull: true}}
	fat := Repr{Kind: RPtr, PtrElem: &elem, PtrFat: true}
	l := LayoutOf(target64, fat)
	if l.Abi.Kind != AbiScalarPair {
		t.Fatalf("fat pointer did not layout as ScalarPair: %+v", l.Abi)
	}
}

func TestLayoutOfIsDeterministic(t *testing.T) {
	repr := Repr{Kind: REnum, EnumVariants: []Repr{
		{Kind: RScalar, Scalar: Scalar{Value: I8, ValidRangeFull: true}},
		{Kind: RScalar, Scalar: Scalar{Value: I32, ValidRangeFull: true}},
	}}
	a := LayoutOf(target64, repr)
	b := LayoutOf(target64, repr)
	if !layoutsEqual(a, b) {
		t.Fatalf("layout_of is not a pure function of (repr, target)")
	}
}

func layoutsEqual(a, b Layout) bool {
	return a.Size == b.Size && a.Align == b.Align && a.Stride == b.Stride && a.Abi.Kind == b.Abi.Kind
}
