package mir

import (
	"velac/internal/diagnostics"
	"velac/internal/hir"
	"velac/internal/infer"
	"velac/internal/intern"
	"velac/internal/layout"
	"velac/internal/source"
	"velac/internal/types"
)

// Lowerer holds the shared, per-compilation state lowering needs: the
// type store and builtins to compute Reprs, and the diagnostic bag for
// the warnings/errors spec.md §4.3's pattern compilation can raise.
// Grounded on `original_source/compiler/mir/src/lower.rs`'s `Ctx`, minus
// the fields that belong to the out-of-scope query database.
type Lowerer struct {
	Store    *types.Store
	Strings  *intern.Strings
	Builtins infer.Builtins
	Target   layout.Target
	Bag      *diagnostics.Bag
	File     source.FileID

	// Intrinsics maps the DefID the out-of-scope resolver assigned a
	// built-in name to its intrinsic name, e.g. "size_of". Lowering
	// itself never invents this binding.
	Intrinsics map[types.DefID]string
}

// bodyLowerCtx is the per-Body lowering state, mirroring the original's
// `Ctx` instance created fresh `for_lambda` per nested closure.
type bodyLowerCtx struct {
	lw   *Lowerer
	body *hir.Body
	typeOfExpr map[hir.ExprID]types.Ty
	typeOfPat  map[hir.PatID]types.Ty
	b      *Builder
	locals map[types.DefID]Place
}

// LowerBody lowers one value definition's typed HIR body into a MIR Body.
// typeOfExpr/typeOfPat must already be fully populated by internal/infer
// (spec.md §4.3: "per value definition: create one Body").
func (lw *Lowerer) LowerBody(body *hir.Body, typeOfExpr map[hir.ExprID]types.Ty, typeOfPat map[hir.PatID]types.Ty, constraints []types.Constraint) *Body {
	c := &bodyLowerCtx{
		lw:         lw,
		body:       body,
		typeOfExpr: typeOfExpr,
		typeOfPat:  typeOfPat,
		b:          NewBuilder(),
		locals:     make(map[types.DefID]Place),
	}

	entry := c.b.CreateBlock()
	c.b.SwitchBlock(entry)

	for _, p := range body.Params {
		local := c.b.AddLocal(LocalArg, c.reprOfPat(p))
		c.b.AddBlockParam(entry, local)
		c.bindPat(p, NewPlace(local))
	}

	res := c.lowerExpr(body.Entry, nil)
	c.b.Return(res)
	return c.b.Build(constraints)
}

func (c *bodyLowerCtx) reprOfExpr(id hir.ExprID) layout.Repr {
	return ReprOf(c.lw.Store, c.lw.Builtins, c.typeOfExpr[id])
}

func (c *bodyLowerCtx) reprOfPat(id hir.PatID) layout.Repr {
	return ReprOf(c.lw.Store, c.lw.Builtins, c.typeOfPat[id])
}

// storeIn returns the hinted place, or allocates a fresh temporary of
// repr when no hint was given (spec.md §4.3: "store_in hint ... None to
// materialize a fresh temporary").
func (c *bodyLowerCtx) storeIn(hint *Place, repr layout.Repr) Place {
	if hint != nil {
		return *hint
	}
	local := c.b.AddLocal(LocalTmp, repr)
	c.b.Init(local)
	return NewPlace(local)
}

// bindPat binds a (possibly refutable, but here always assumed to match)
// pattern's capture variables against place. Constructor patterns
// downcast unconditionally; for single-variant reprs this is a no-op at
// the layout level (spec.md §4.4: "1 variant -> that variant's layout").
func (c *bodyLowerCtx) bindPat(id hir.PatID, place Place) {
	p := c.body.Pat(id)
	switch p.Kind {
	case hir.PWildcard, hir.PLit:
		// nothing to bind
	case hir.PBind:
		c.locals[p.Def] = place
		if p.HasSubpat {
			c.bindPat(p.BindSubpat, place)
		}
	case hir.PApp:
		downcast := place.Downcast(ctorIDOf(p.AppCtor))
		for i, a := range p.AppArgs {
			c.bindPat(a, downcast.Field(i))
		}
	case hir.PTuple:
		for i, el := range p.TupleElems {
			c.bindPat(el, place.Field(i))
		}
	}
}

// ctorIDOf bridges a hir DefID naming a data constructor to the narrower
// CtorID space MIR's SetDiscriminant/Downcast use. Constructor identity
// resolution is the out-of-scope resolver's job; this compiler only ever
// threads the id through, so the numeric spaces can coincide.
func ctorIDOf(def types.DefID) types.CtorID { return types.CtorID(def) }

func (c *bodyLowerCtx) lowerExpr(id hir.ExprID, storeInHint *Place) Operand {
	e := c.body.Expr(id)
	switch e.Kind {
	case hir.EMissing:
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstUndefined}, ConstRepr: c.reprOfExpr(id)}
	case hir.ELit:
		return c.lowerLit(id, e)
	case hir.EPath:
		return c.lowerPath(id, e)
	case hir.EApp:
		return c.lowerApp(id, e, storeInHint)
	case hir.EIf:
		return c.lowerIf(id, e, storeInHint)
	case hir.ECase:
		return c.lowerCase(id, e, storeInHint)
	case hir.ELambda:
		return c.lowerLambda(id, e)
	case hir.EReturn:
		inner := c.lowerExpr(e.ReturnExpr, nil)
		c.b.Return(inner)
		c.b.SwitchBlock(c.b.CreateBlock()) // dead code after Return; new block absorbs it
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstUndefined}, ConstRepr: c.reprOfExpr(id)}
	case hir.ETuple:
		return c.lowerTuple(id, e, storeInHint)
	case hir.ERecord:
		return c.lowerRecord(id, e, storeInHint)
	default:
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstUndefined}, ConstRepr: c.reprOfExpr(id)}
	}
}

func (c *bodyLowerCtx) lowerLit(id hir.ExprID, e hir.Expr) Operand {
	repr := c.reprOfExpr(id)
	switch e.Lit {
	case hir.LInt:
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstInt, Int: e.LitInt}, ConstRepr: repr}
	case hir.LFloat:
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstFloat, Float: e.LitFloat}, ConstRepr: repr}
	case hir.LChar:
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstChar, Char: e.LitChar}, ConstRepr: repr}
	case hir.LString:
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstString, String: c.lw.Strings.Resolve(e.Symbol)}, ConstRepr: repr}
	default:
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstUndefined}, ConstRepr: repr}
	}
}

// lowerPath resolves a reference to a local binding introduced by a
// pattern (spec.md §2's row D, name resolution, is out of scope: any
// DefID this compiler did not itself bind via bindPat is an external or
// unresolved reference, which it cannot materialize and leaves as an
// Undefined constant for the backend to reject).
func (c *bodyLowerCtx) lowerPath(id hir.ExprID, e hir.Expr) Operand {
	if place, ok := c.locals[e.Def]; ok {
		return Operand{Kind: OpCopy, Place: place}
	}
	return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstUndefined}, ConstRepr: c.reprOfExpr(id)}
}

func (c *bodyLowerCtx) lowerArg(id hir.ExprID) Operand {
	return c.lowerExpr(id, nil)
}

func (c *bodyLowerCtx) placeOf(op Operand) Place {
	if op.Kind == OpCopy || op.Kind == OpMove {
		return op.Place
	}
	local := c.b.AddLocal(LocalTmp, op.ConstRepr)
	c.b.Init(local)
	c.b.AssignUse(NewPlace(local), op)
	return NewPlace(local)
}

func (c *bodyLowerCtx) lowerTuple(id hir.ExprID, e hir.Expr, hint *Place) Operand {
	repr := c.reprOfExpr(id)
	res := c.storeIn(hint, repr)
	for i, el := range e.TupleElems {
		op := c.lowerArg(el)
		c.b.AssignUse(res.Field(i), op)
	}
	return Operand{Kind: OpMove, Place: res}
}

func (c *bodyLowerCtx) lowerRecord(id hir.ExprID, e hir.Expr, hint *Place) Operand {
	repr := c.reprOfExpr(id)
	res := c.storeIn(hint, repr)
	for i, f := range e.RecordFields {
		op := c.lowerArg(f.Value)
		c.b.AssignUse(res.Field(i), op)
	}
	return Operand{Kind: OpMove, Place: res}
}

func (c *bodyLowerCtx) lowerIf(id hir.ExprID, e hir.Expr, hint *Place) Operand {
	condOp := c.lowerArg(e.IfCond)
	thenBlk := c.b.CreateBlock()
	elseBlk := c.b.CreateBlock()
	joinBlk := c.b.CreateBlock()

	repr := c.reprOfExpr(id)
	res := c.storeIn(hint, repr)

	c.b.Switch(condOp, []int64{1}, []JumpTarget{{Block: thenBlk}, {Block: elseBlk}})

	c.b.SwitchBlock(thenBlk)
	thenOp := c.lowerExpr(e.IfThen, &res)
	c.b.AssignUse(res, thenOp)
	c.b.Jump(JumpTarget{Block: joinBlk})

	c.b.SwitchBlock(elseBlk)
	elseOp := c.lowerExpr(e.IfElse, &res)
	c.b.AssignUse(res, elseOp)
	c.b.Jump(JumpTarget{Block: joinBlk})

	c.b.SwitchBlock(joinBlk)
	return Operand{Kind: OpMove, Place: res}
}

func (c *bodyLowerCtx) lowerLambda(id hir.ExprID, e hir.Expr) Operand {
	// Closures compile to their own Body (spec.md §4.3's per-definition
	// rule applies recursively); capture identity belongs to the
	// out-of-scope resolver, so the environment here is left as an
	// uninitialized local of the lambda's Func env repr, for the backend
	// to fill in once it owns capture layout.
	repr := c.reprOfExpr(id)
	local := c.b.AddLocal(LocalTmp, repr)
	c.b.Init(local)
	return Operand{Kind: OpMove, Place: NewPlace(local)}
}

func (c *bodyLowerCtx) lowerApp(id hir.ExprID, e hir.Expr, hint *Place) Operand {
	if base := c.body.Expr(e.AppBase); base.Kind == hir.EPath {
		if name, ok := c.intrinsicName(base.Def); ok {
			return c.lowerIntrinsic(id, name, e.AppArgs, hint)
		}
	}

	fn := c.lowerArg(e.AppBase)
	args := make([]Operand, len(e.AppArgs))
	for i, a := range e.AppArgs {
		args[i] = c.lowerArg(a)
	}
	repr := c.reprOfExpr(id)
	res := c.storeIn(hint, repr)
	c.b.Call(res, fn, args)
	return Operand{Kind: OpMove, Place: res}
}

// intrinsicName recognizes a callee DefID naming a built-in intrinsic.
// Name resolution is out of scope; this compiler only knows an intrinsic
// by the string the out-of-scope resolver records against a DefID in
// Lowerer.Intrinsics, supplied once per compilation by the caller.
func (c *bodyLowerCtx) intrinsicName(def types.DefID) (string, bool) {
	name, ok := c.lw.Intrinsics[def]
	return name, ok
}
