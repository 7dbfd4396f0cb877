package backend

import (
	"testing"

	"velac/internal/layout"
	"velac/internal/mir"
)

var target = layout.Target{PointerWidth: 8}

func TestClassifyFunctionScalarParamsAndReturn(t *testing.T) {
	intRepr := layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.I64, ValidRangeFull: true}}
	abi := ClassifyFunction(target, []layout.Repr{intRepr, intRepr}, intRepr)

	if len(abi.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(abi.Params))
	}
	for i, p := range abi.Params {
		if p.Kind != ByVal {
			t.Fatalf("param %d PassMode = %v, want ByVal", i, p.Kind)
		}
	}
	if abi.Return.Kind != ByVal {
		t.Fatalf("Return PassMode = %v, want ByVal", abi.Return.Kind)
	}
	if abi.IndirectReturn {
		t.Fatalf("a scalar return must not request an indirect return pointer")
	}
}

func TestClassifyFunctionFatPointerIsScalarPair(t *testing.T) {
	elem := layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.I8, ValidRangeFull: true}}
	fatPtr := layout.Repr{Kind: layout.RPtr, PtrElem: &elem, PtrFat: true}

	abi := ClassifyFunction(target, []layout.Repr{fatPtr}, fatPtr)
	if abi.Params[0].Kind != ByValPair {
		t.Fatalf("fat pointer param PassMode = %v, want ByValPair", abi.Params[0].Kind)
	}
	if abi.Return.Kind != ByValPair {
		t.Fatalf("fat pointer return PassMode = %v, want ByValPair", abi.Return.Kind)
	}
}

func TestClassifyFunctionAggregateReturnIsIndirect(t *testing.T) {
	i64 := layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.I64, ValidRangeFull: true}}
	triple := layout.Repr{Kind: layout.RStruct, StructFields: []layout.Repr{i64, i64, i64}}

	abi := ClassifyFunction(target, nil, triple)
	if abi.Return.Kind != ByRef {
		t.Fatalf("a 3-word struct return PassMode = %v, want ByRef", abi.Return.Kind)
	}
	if !abi.IndirectReturn {
		t.Fatalf("expected IndirectReturn to be set for a ByRef return")
	}
	if !abi.Return.RefSizeKnown {
		t.Fatalf("a fully concrete struct's ByRef size should be known")
	}
}

func TestParamReprsReadsEntryBlockParams(t *testing.T) {
	b := mir.NewBuilder()
	entry := b.CreateBlock()
	b.SwitchBlock(entry)
	i64 := layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.I64, ValidRangeFull: true}}
	arg := b.AddLocal(mir.LocalArg, i64)
	b.AddBlockParam(entry, arg)
	b.Return(mir.Operand{Kind: mir.OpMove, Place: mir.NewPlace(arg)})
	body := b.Build(nil)

	reprs := ParamReprs(body)
	if len(reprs) != 1 || reprs[0].Kind != layout.RScalar {
		t.Fatalf("ParamReprs = %+v, want one RScalar entry", reprs)
	}
}

func TestReturnReprFollowsReturnOperand(t *testing.T) {
	b := mir.NewBuilder()
	entry := b.CreateBlock()
	b.SwitchBlock(entry)
	i64 := layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.I64, ValidRangeFull: true}}
	local := b.AddLocal(mir.LocalTmp, i64)
	b.Init(local)
	b.Return(mir.Operand{Kind: mir.OpMove, Place: mir.NewPlace(local)})
	body := b.Build(nil)

	repr := ReturnRepr(body, nil)
	if repr.Kind != layout.RScalar {
		t.Fatalf("ReturnRepr = %+v, want RScalar", repr)
	}
}
