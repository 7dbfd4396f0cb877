// Package mir implements the SSA-style mid-level IR from spec.md §4.3:
// per-definition bodies of locals and basic blocks, lowered from typed HIR
// via internal/infer's results and laid out via internal/layout. Grounded
// on `original_source/compiler/mir/src/ir.rs`.
package mir

import (
	"velac/internal/layout"
	"velac/internal/types"
)

// ValueID names the definition a MIR body belongs to. velac never invents
// one; callers thread ids from the out-of-scope resolver.
type ValueID uint32

// MirValueKind discriminates what MirValueID addresses.
type MirValueKind uint8

const (
	ValOrdinary MirValueKind = iota
	ValLambda
	ValCtor
)

// MirValueID is `Lambda(owner, exprID) | ValueId(id) | CtorId(id)` from the
// original, collapsed into one Go struct per spec.md §9's "tagged struct
// over algebraic enum" convention.
type MirValueID struct {
	Kind  MirValueKind
	Value ValueID
	Expr  uint32 // ValLambda: the originating lambda expression id
	Ctor  types.CtorID
}

// Linkage controls whether a ValueDef is visible outside its defining
// module.
type Linkage uint8

const (
	LinkLocal Linkage = iota
	LinkImport
	LinkExport
)

// ValueDef is one compiled definition: a name, its linkage, and its body
// (nil for declarations without a body, e.g. imported externs).
type ValueDef struct {
	ID      MirValueID
	Linkage Linkage
	Name    string
	Body    *Body
}

// Module collects every ValueDef produced for one source module.
type Module struct {
	Functions map[MirValueID]*ValueDef
	Statics   map[MirValueID]*ValueDef
}

// NewModule returns an empty Module.
func NewModule() *Module {
	return &Module{
		Functions: make(map[MirValueID]*ValueDef),
		Statics:   make(map[MirValueID]*ValueDef),
	}
}

// LocalKind discriminates why a Local exists.
type LocalKind uint8

const (
	LocalArg LocalKind = iota
	LocalVar
	LocalTmp
)

// Local indexes one entry of a Body's local arena.
type Local uint32

// LocalData is one local variable's storage class and layout.
type LocalData struct {
	Kind LocalKind
	Repr layout.Repr
}

// Block indexes one entry of a Body's block arena. Block 0 is always the
// entry block.
type Block uint32

// Entry is the fixed id of a body's entry block.
const Entry Block = 0

// BlockData is one basic block: its incoming parameters, straight-line
// statements, and terminator.
type BlockData struct {
	Params      []Local
	Statements  []Statement
	Terminator  Terminator
}

// Location addresses one statement (or the terminator, at len(Statements))
// within a block.
type Location struct {
	Block     Block
	Statement int
}

// Start is the fixed entry location of any body.
var Start = Location{Block: Entry, Statement: 0}

// Next returns the location immediately after loc in the same block.
func (loc Location) Next() Location {
	return Location{Block: loc.Block, Statement: loc.Statement + 1}
}

// Body is one value definition's locals and control-flow graph, plus the
// class constraints its inference left outstanding (dictionary-passing is
// an external backend concern per spec.md §1).
type Body struct {
	Constraints []types.Constraint
	Locals      []LocalData
	Blocks      []BlockData
}

// AddLocal appends a local and returns its id.
func (b *Body) AddLocal(kind LocalKind, repr layout.Repr) Local {
	id := Local(len(b.Locals))
	b.Locals = append(b.Locals, LocalData{Kind: kind, Repr: repr})
	return id
}

// AddBlock appends an empty block and returns its id.
func (b *Body) AddBlock() Block {
	id := Block(len(b.Blocks))
	b.Blocks = append(b.Blocks, BlockData{Terminator: Terminator{Kind: TermNone}})
	return id
}

// TerminatorKind discriminates a Terminator's payload.
type TerminatorKind uint8

const (
	TermNone TerminatorKind = iota
	TermUnreachable
	TermAbort
	TermReturn
	TermJump
	TermSwitch
)

// JumpTarget is a block plus the operands bound to its parameters.
type JumpTarget struct {
	Block Block
	Args  []Operand
}

// Terminator ends a basic block.
type Terminator struct {
	Kind TerminatorKind

	ReturnValue Operand // TermReturn

	Jump JumpTarget // TermJump

	SwitchDiscr   Operand      // TermSwitch
	SwitchValues  []int64      // TermSwitch: one value per non-default target
	SwitchTargets []JumpTarget // TermSwitch: len == len(SwitchValues)+1, last is default
}

// StatementKind discriminates a Statement's payload.
type StatementKind uint8

const (
	StmtInit StatementKind = iota
	StmtDrop
	StmtAssign
	StmtSetDiscriminant
	StmtIntrinsic
	StmtCall
)

// Statement is one straight-line instruction.
type Statement struct {
	Kind StatementKind

	InitLocal Local // StmtInit

	DropPlace Place // StmtDrop

	AssignPlace Place  // StmtAssign, StmtSetDiscriminant
	AssignValue RValue // StmtAssign
	Ctor        types.CtorID // StmtSetDiscriminant

	CallPlace Place    // StmtIntrinsic, StmtCall
	CallName  string   // StmtIntrinsic
	CallFunc  Operand  // StmtCall
	CallArgs  []Operand // StmtIntrinsic, StmtCall
}

// RValueKind discriminates an RValue's payload.
type RValueKind uint8

const (
	RUse RValueKind = iota
	RAddrOf
	RCast
	RBinOp
	RNullOp
	RDiscriminant
)

// RValue is the right-hand side of an Assign statement.
type RValue struct {
	Kind RValueKind

	UseOperand Operand // RUse

	AddrOfPlace Place // RAddrOf

	CastKind    CastKind // RCast
	CastOperand Operand  // RCast

	BinOpKind RBinOp  // RBinOp
	BinLHS    Operand // RBinOp
	BinRHS    Operand // RBinOp

	NullOpKind RNullOp     // RNullOp
	NullOpRepr layout.Repr // RNullOp

	DiscriminantPlace Place // RDiscriminant
}

// CastKind enumerates the conversions RCast can perform.
type CastKind uint8

const (
	CastBitcast CastKind = iota
	CastPointer
	CastIntToInt
	CastFloatToFloat
	CastIntToFloat
	CastFloatToInt
)

// RBinOp enumerates MIR's binary operators.
type RBinOp uint8

const (
	BinEq RBinOp = iota
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinLsh
	BinRsh
	BinAnd
	BinOr
	BinXor
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinRem
	BinOffset
)

// RNullOp enumerates the layout queries NullOp exposes to MIR.
type RNullOp uint8

const (
	NullSizeOf RNullOp = iota
	NullAlignOf
	NullStrideOf
)

// OperandKind discriminates an Operand's payload.
type OperandKind uint8

const (
	OpCopy OperandKind = iota
	OpMove
	OpConst
)

// Operand is a value consumed by a statement or terminator.
type Operand struct {
	Kind  OperandKind
	Place Place // OpCopy, OpMove

	ConstVal  Const       // OpConst
	ConstRepr layout.Repr // OpConst
}

// Place is a local plus a chain of projections addressing a sub-location
// of it (field, index, dereference, downcast).
type Place struct {
	Local      Local
	Projection []Projection
}

// NewPlace returns a projection-free place naming local.
func NewPlace(local Local) Place { return Place{Local: local} }

// Field returns a new place projecting field i off p.
func (p Place) Field(i int) Place {
	return Place{Local: p.Local, Projection: append(append([]Projection(nil), p.Projection...), Projection{Kind: ProjField, FieldIndex: i})}
}

// Deref returns a new place dereferencing p.
func (p Place) Deref() Place {
	return Place{Local: p.Local, Projection: append(append([]Projection(nil), p.Projection...), Projection{Kind: ProjDeref})}
}

// Downcast returns a new place narrowing p to a single enum variant.
func (p Place) Downcast(ctor types.CtorID) Place {
	return Place{Local: p.Local, Projection: append(append([]Projection(nil), p.Projection...), Projection{Kind: ProjDowncast, Ctor: ctor})}
}

// Index returns a new place indexing p with a dynamic operand.
func (p Place) Index(op Operand) Place {
	return Place{Local: p.Local, Projection: append(append([]Projection(nil), p.Projection...), Projection{Kind: ProjIndex, IndexOp: op})}
}

// Slice returns a new place slicing p between two dynamic bounds.
func (p Place) Slice(lo, hi Operand) Place {
	return Place{Local: p.Local, Projection: append(append([]Projection(nil), p.Projection...), Projection{Kind: ProjSlice, SliceLo: lo, SliceHi: hi})}
}

// ProjectionKind discriminates a Projection's payload.
type ProjectionKind uint8

const (
	ProjDeref ProjectionKind = iota
	ProjField
	ProjIndex
	ProjSlice
	ProjDowncast
)

// Projection is one step of a Place's access path.
type Projection struct {
	Kind ProjectionKind

	FieldIndex int // ProjField

	IndexOp Operand // ProjIndex

	SliceLo, SliceHi Operand // ProjSlice

	Ctor types.CtorID // ProjDowncast
}

// ConstKind discriminates a Const's payload.
type ConstKind uint8

const (
	ConstUndefined ConstKind = iota
	ConstZeroed
	ConstUnit
	ConstInt
	ConstFloat
	ConstChar
	ConstString
	ConstCtor
)

// Const is a compile-time-known value.
type Const struct {
	Kind ConstKind

	Int    int64  // ConstInt
	Float  uint64 // ConstFloat: raw bit pattern, spec.md §3's representation
	Char   rune   // ConstChar
	String string // ConstString
	Ctor   types.CtorID // ConstCtor
}
