package mir

import (
	"velac/internal/layout"
	"velac/internal/types"
)

// Builder assembles a Body one block at a time, mirroring the original's
// `Builder` (referenced throughout `original_source/compiler/mir/src/lower.rs`
// but defined in its sibling `builder.rs`, not retrieved into this pack;
// its call shape — create_block/switch_block/add_local/assign/ret/etc —
// is reconstructed from every call site lower.rs and intrinsic.rs make
// against it).
type Builder struct {
	body    Body
	current Block
}

// NewBuilder returns a Builder with no blocks yet; callers call CreateBlock
// before emitting anything.
func NewBuilder() *Builder {
	return &Builder{}
}

// CreateBlock appends an empty block and returns its id.
func (b *Builder) CreateBlock() Block {
	return b.body.AddBlock()
}

// SwitchBlock makes blk the target of subsequent emit calls.
func (b *Builder) SwitchBlock(blk Block) {
	b.current = blk
}

// AddLocal appends a local and returns its id.
func (b *Builder) AddLocal(kind LocalKind, repr layout.Repr) Local {
	return b.body.AddLocal(kind, repr)
}

// AddBlockParam declares local as an incoming parameter of blk.
func (b *Builder) AddBlockParam(blk Block, local Local) {
	bd := &b.body.Blocks[blk]
	bd.Params = append(bd.Params, local)
}

func (b *Builder) push(s Statement) {
	bd := &b.body.Blocks[b.current]
	bd.Statements = append(bd.Statements, s)
}

// Init emits Init(local): the local's storage becomes live. Only the Init
// statement is emitted; MIR lowering emits no box_alloc call for a Box
// repr.
func (b *Builder) Init(local Local) {
	b.push(Statement{Kind: StmtInit, InitLocal: local})
}

// Drop emits Drop(place).
func (b *Builder) Drop(place Place) {
	b.push(Statement{Kind: StmtDrop, DropPlace: place})
}

// Assign emits place = value.
func (b *Builder) Assign(place Place, value RValue) {
	b.push(Statement{Kind: StmtAssign, AssignPlace: place, AssignValue: value})
}

// AssignUse is shorthand for Assign(place, Use(op)).
func (b *Builder) AssignUse(place Place, op Operand) {
	b.Assign(place, RValue{Kind: RUse, UseOperand: op})
}

// Ref emits place = AddrOf(of).
func (b *Builder) Ref(place Place, of Place) {
	b.Assign(place, RValue{Kind: RAddrOf, AddrOfPlace: of})
}

// Cast emits place = Cast(kind, op).
func (b *Builder) Cast(place Place, kind CastKind, op Operand) {
	b.Assign(place, RValue{Kind: RCast, CastKind: kind, CastOperand: op})
}

// BinOp emits place = lhs `op` rhs.
func (b *Builder) BinOp(place Place, op RBinOp, lhs, rhs Operand) {
	b.Assign(place, RValue{Kind: RBinOp, BinOpKind: op, BinLHS: lhs, BinRHS: rhs})
}

// NullOp emits place = op(repr) (size_of/align_of/stride_of).
func (b *Builder) NullOp(place Place, op RNullOp, repr layout.Repr) {
	b.Assign(place, RValue{Kind: RNullOp, NullOpKind: op, NullOpRepr: repr})
}

// Discriminant emits place = Discriminant(of).
func (b *Builder) Discriminant(place Place, of Place) {
	b.Assign(place, RValue{Kind: RDiscriminant, DiscriminantPlace: of})
}

// SetDiscriminant emits the tag write for a multi-variant enum
// construction.
func (b *Builder) SetDiscriminant(place Place, ctor types.CtorID) {
	b.push(Statement{Kind: StmtSetDiscriminant, AssignPlace: place, Ctor: ctor})
}

// Intrinsic emits a call to a backend-recognized or generic intrinsic.
func (b *Builder) Intrinsic(place Place, name string, args []Operand) {
	b.push(Statement{Kind: StmtIntrinsic, CallPlace: place, CallName: name, CallArgs: args})
}

// Call emits a direct or indirect function call.
func (b *Builder) Call(place Place, fn Operand, args []Operand) {
	b.push(Statement{Kind: StmtCall, CallPlace: place, CallFunc: fn, CallArgs: args})
}

func (b *Builder) setTerminator(t Terminator) {
	b.body.Blocks[b.current].Terminator = t
}

// Return terminates the current block, returning op.
func (b *Builder) Return(op Operand) {
	b.setTerminator(Terminator{Kind: TermReturn, ReturnValue: op})
}

// Jump terminates the current block by branching unconditionally.
func (b *Builder) Jump(target JumpTarget) {
	b.setTerminator(Terminator{Kind: TermJump, Jump: target})
}

// Switch terminates the current block dispatching on discr's value.
func (b *Builder) Switch(discr Operand, values []int64, targets []JumpTarget) {
	b.setTerminator(Terminator{Kind: TermSwitch, SwitchDiscr: discr, SwitchValues: values, SwitchTargets: targets})
}

// Abort terminates the current block unconditionally (the `crash`
// intrinsic, spec.md §4.3).
func (b *Builder) Abort() {
	b.setTerminator(Terminator{Kind: TermAbort})
}

// Unreachable marks the current block as never reached (an exhausted
// pattern match default, for instance).
func (b *Builder) Unreachable() {
	b.setTerminator(Terminator{Kind: TermUnreachable})
}

// LocalRepr returns the repr recorded for local.
func (b *Builder) LocalRepr(local Local) layout.Repr {
	return b.body.Locals[local].Repr
}

// Build finalizes and returns the assembled Body.
func (b *Builder) Build(constraints []types.Constraint) *Body {
	b.body.Constraints = constraints
	return &b.body
}
