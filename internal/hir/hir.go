// Package hir defines the minimal typed-input boundary that
// internal/infer consumes: expressions and patterns as id-indexed sum
// types. Name resolution and parsing are out of scope; callers are
// expected to have already resolved paths to DefIDs before handing a
// Body to internal/infer. Grounded on
// `original_source/compiler/hir_def/src/expr.rs` and
// `compiler/hir_def/src/pat.rs`, generalized into Go's tagged-struct
// idiom (no algebraic enums) the way internal/types.Data does for Ty.
package hir

import (
	"velac/internal/intern"
	"velac/internal/types"
)

// ExprID indexes one expression in a Body's arena.
type ExprID uint32

// PatID indexes one pattern in a Body's arena.
type PatID uint32

// ExprKind discriminates an Expr's payload.
type ExprKind uint8

const (
	EMissing ExprKind = iota
	ELit
	EPath
	EApp
	EIf
	ECase
	ELambda
	EReturn
	ETuple
	ERecord
)

// LitKind discriminates a literal expression.
type LitKind uint8

const (
	LInt LitKind = iota
	LFloat
	LChar
	LString
)

// CaseArm is one `pattern -> body` arm of a Case expression.
type CaseArm struct {
	Pat  PatID
	Body ExprID
}

// RecordFieldExpr is one `name: value` entry of a record literal.
type RecordFieldExpr struct {
	Name  intern.Symbol
	Value ExprID
}

// Expr is one node of the expression arena; only the fields for Kind are
// meaningful, mirroring internal/types.Data's uniform-payload approach.
type Expr struct {
	Kind ExprKind

	Lit      LitKind       // ELit
	LitInt   int64         // ELit, LInt
	LitFloat uint64        // ELit, LFloat: raw IEEE-754 bit pattern
	LitChar  rune          // ELit, LChar
	Symbol   intern.Symbol // ELit LString payload (interned), or EPath's unresolved name for diagnostics

	Def types.DefID // EPath: resolved definition (out-of-scope resolver's output)

	AppBase ExprID   // EApp
	AppArgs []ExprID // EApp

	IfCond, IfThen, IfElse ExprID // EIf

	CaseScrutinee ExprID    // ECase
	CaseArms      []CaseArm // ECase

	LambdaParams []PatID // ELambda
	LambdaBody   ExprID  // ELambda
	LambdaEnv    []ExprID // ELambda: captured variables

	ReturnExpr ExprID // EReturn

	TupleElems []ExprID // ETuple

	RecordFields []RecordFieldExpr // ERecord
}

// PatKind discriminates a Pat's payload.
type PatKind uint8

const (
	PWildcard PatKind = iota
	PBind
	PApp
	PTuple
	PLit
)

// Pat is one node of the pattern arena.
type Pat struct {
	Kind PatKind

	Def        types.DefID // PBind: the definition id this occurrence introduces
	BindSubpat PatID       // PBind; PatID(0) with HasSubpat false means none
	HasSubpat  bool

	AppCtor types.DefID
	AppArgs []PatID

	TupleElems []PatID

	Lit      LitKind
	LitInt   int64
	LitFloat uint64
	LitChar  rune
	Symbol   intern.Symbol
}

// Body is one value definition's expression/pattern arena plus its
// parameter list, the unit internal/infer.Infer operates on. Grounded on
// the original's per-definition `InferenceResult` input, minus anything
// parsing/name-resolution would otherwise own.
type Body struct {
	Exprs []Expr
	Pats  []Pat

	Params []PatID
	Entry  ExprID

	// DeclaredRet is the function's declared return type, if annotated;
	// types.None if absent (Return unifies against a fresh Unknown then).
	DeclaredRet types.Ty
}

func (b *Body) Expr(id ExprID) Expr { return b.Exprs[id] }
func (b *Body) Pat(id PatID) Pat    { return b.Pats[id] }

// PushExpr appends e and returns its id.
func (b *Body) PushExpr(e Expr) ExprID {
	id := ExprID(len(b.Exprs))
	b.Exprs = append(b.Exprs, e)
	return id
}

// PushPat appends p and returns its id.
func (b *Body) PushPat(p Pat) PatID {
	id := PatID(len(b.Pats))
	b.Pats = append(b.Pats, p)
	return id
}
