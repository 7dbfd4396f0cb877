// Package backend defines the fixed handoff shape an external codegen
// consumes, per spec.md §6: an iterator of ValueDefs, the layout_of/repr_of
// queries, and the per-function ABI classification spec.md's PassMode
// enumeration describes. It is a pure data-shape package — it never
// constructs LLVM IR or any other target-specific representation, matching
// spec.md §1's explicit "the final LLVM lowering... is out of scope".
package backend

import (
	"velac/internal/layout"
	"velac/internal/mir"
	"velac/internal/types"
)

// PassModeKind discriminates how one value crosses a function boundary.
type PassModeKind uint8

const (
	NoPass PassModeKind = iota
	ByVal
	ByValPair
	ByRef
)

// PassMode is spec.md §6's `PassMode ∈ {NoPass, ByVal(scalar),
// ByValPair(scalar, scalar), ByRef{size?}}`.
type PassMode struct {
	Kind PassModeKind

	Scalar layout.Scalar // ByVal

	PairA, PairB layout.Scalar // ByValPair

	RefSize      layout.Size // ByRef, when the size is statically known
	RefSizeKnown bool        // ByRef: false for an unsized-in-sized-position error case
}

// FunctionABI is one function's calling convention, classified from its
// signature's Reprs and the compilation target.
type FunctionABI struct {
	Params []PassMode
	Return PassMode

	// IndirectReturn is true when Return is ByRef: spec.md §6's "an
	// indirect return inserts an implicit first argument pointer" — the
	// backend, not this package, actually inserts the argument; this flag
	// is the signal that it must.
	IndirectReturn bool
}

// ClassifyFunction computes paramReprs' and retRepr's PassModes against
// target, in one call per function signature (spec.md §6: "computed from
// signature + target").
func ClassifyFunction(target layout.Target, paramReprs []layout.Repr, retRepr layout.Repr) FunctionABI {
	abi := FunctionABI{Params: make([]PassMode, len(paramReprs))}
	for i, r := range paramReprs {
		abi.Params[i] = classify(target, r)
	}
	abi.Return = classify(target, retRepr)
	abi.IndirectReturn = abi.Return.Kind == ByRef
	return abi
}

func classify(target layout.Target, r layout.Repr) PassMode {
	lyt := layout.LayoutOf(target, r)
	switch lyt.Abi.Kind {
	case layout.AbiUninhabited:
		return PassMode{Kind: NoPass}
	case layout.AbiScalar:
		return PassMode{Kind: ByVal, Scalar: lyt.Abi.Scalar}
	case layout.AbiScalarPair:
		return PassMode{Kind: ByValPair, PairA: lyt.Abi.PairA, PairB: lyt.Abi.PairB}
	default: // layout.AbiAggregate
		return PassMode{Kind: ByRef, RefSize: lyt.Size, RefSizeKnown: lyt.Abi.AggregateSize}
	}
}

// Module is the per-library handoff spec.md §6 describes: every compiled
// definition's body plus the queries (LayoutOf/ReprOf, already exported by
// internal/layout and internal/mir) a codegen needs to consume them. It is
// assembled once MIR lowering for every definition in a library is done
// (internal/query.Database.EvalAll), not constructed incrementally.
type Module struct {
	Defs   []ValueDef
	Target layout.Target
}

// ValueDef is one exported/imported/local definition, as spec.md §6's
// backend interface names it.
type ValueDef struct {
	Linkage  mir.Linkage
	LinkName string
	Body     *mir.Body // nil for a declaration with no body (an imported extern)
	ABI      FunctionABI
}

// NewModule classifies every def's function ABI and assembles the Module a
// codegen iterates over.
func NewModule(target layout.Target, defs []ValueDef) *Module {
	for i := range defs {
		if defs[i].Body != nil {
			defs[i].ABI = ClassifyFunction(target, ParamReprs(defs[i].Body), ReturnRepr(defs[i].Body, nil))
		}
	}
	return &Module{Defs: defs, Target: target}
}

// ParamReprs extracts the Repr of every local a Body's entry block declares
// as a parameter, in declaration order, for ClassifyFunction's paramReprs
// argument.
func ParamReprs(body *mir.Body) []layout.Repr {
	if len(body.Blocks) == 0 {
		return nil
	}
	entry := body.Blocks[mir.Entry]
	reprs := make([]layout.Repr, len(entry.Params))
	for i, local := range entry.Params {
		reprs[i] = body.Locals[local].Repr
	}
	return reprs
}

// ReturnRepr is the Repr of the value carried by the first block (in block
// order) that ends in a Return terminator: the local's Repr for a Copy or
// Move operand, or the operand's own ConstRepr for a constant. A body with
// no Return terminator yields ROpaque. Most bodies route their final value
// through a dedicated local (internal/mir's join-place convention), so
// this resolves to that local's Repr in the common case.
func ReturnRepr(body *mir.Body, store *types.Store) layout.Repr {
	for _, blk := range body.Blocks {
		if blk.Terminator.Kind != mir.TermReturn {
			continue
		}
		op := blk.Terminator.ReturnValue
		switch op.Kind {
		case mir.OpCopy, mir.OpMove:
			return body.Locals[op.Place.Local].Repr
		case mir.OpConst:
			return op.ConstRepr
		}
	}
	return layout.Repr{Kind: layout.ROpaque}
}
