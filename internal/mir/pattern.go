package mir

import (
	"velac/internal/diagnostics"
	"velac/internal/hir"
	"velac/internal/layout"
	"velac/internal/types"
)

// lowerCase implements spec.md §4.3's pattern compilation for one
// scrutinee column: a single Switch on the scrutinee's top-level
// discriminant, one target per constructor-headed arm in encounter order,
// with the first catch-all arm as the default. Sub-patterns under a
// constructor are bound via bindPat, not tested by further switches.
// The minimal HIR's CaseArm
// carries no guard expression (surface-syntax guards belong to the
// out-of-scope parser), so the "two-way branch inserted between match
// and arm body" step spec.md describes for guards never triggers here.
func (c *bodyLowerCtx) lowerCase(id hir.ExprID, e hir.Expr, hint *Place) Operand {
	scrutOp := c.lowerArg(e.CaseScrutinee)
	scrutPlace := c.placeOf(scrutOp)

	resRepr := c.reprOfExpr(id)
	res := c.storeIn(hint, resRepr)
	joinBlk := c.b.CreateBlock()

	ctorArms, catchAll := c.partitionArms(e.CaseArms)

	if len(ctorArms) == 0 {
		if catchAll != nil {
			c.bindPat(catchAll.Pat, scrutPlace)
			c.lowerArmBody(*catchAll, res, joinBlk)
		} else {
			c.b.Unreachable()
		}
		c.b.SwitchBlock(joinBlk)
		return Operand{Kind: OpMove, Place: res}
	}

	scrutRepr := ReprOf(c.lw.Store, c.lw.Builtins, c.scrutTypeOf(e))
	tagRepr := discriminantRepr(c.lw.Target, scrutRepr)
	discr := c.b.AddLocal(LocalTmp, tagRepr)
	c.b.Init(discr)
	c.b.Discriminant(NewPlace(discr), scrutPlace)

	values := make([]int64, len(ctorArms))
	targets := make([]JumpTarget, len(ctorArms)+1)
	for i := range ctorArms {
		values[i] = int64(i)
		targets[i] = JumpTarget{Block: c.b.CreateBlock()}
	}
	defaultBlk := c.b.CreateBlock()
	targets[len(ctorArms)] = JumpTarget{Block: defaultBlk}

	c.b.Switch(Operand{Kind: OpCopy, Place: NewPlace(discr)}, values, targets)

	for i, arm := range ctorArms {
		c.b.SwitchBlock(targets[i].Block)
		pat := c.body.Pat(arm.Pat)
		downcast := scrutPlace.Downcast(ctorIDOf(pat.AppCtor))
		c.bindPat(arm.Pat, downcast)
		c.lowerArmBody(arm, res, joinBlk)
	}

	c.b.SwitchBlock(defaultBlk)
	if catchAll != nil {
		c.bindPat(catchAll.Pat, scrutPlace)
		c.lowerArmBody(*catchAll, res, joinBlk)
	} else {
		c.lw.Bag.Add(diagnostics.Diagnostic{
			Severity: diagnostics.Warning,
			Kind:     diagnostics.LowerNonExhaustive,
			Message:  "case expression does not cover every constructor",
			Primary:  diagnostics.Annotation{File: c.lw.File, Message: "non-exhaustive match"},
		})
		c.b.Unreachable()
	}

	c.b.SwitchBlock(joinBlk)
	return Operand{Kind: OpMove, Place: res}
}

func (c *bodyLowerCtx) lowerArmBody(arm hir.CaseArm, res Place, join Block) {
	bodyOp := c.lowerExpr(arm.Body, &res)
	c.b.AssignUse(res, bodyOp)
	c.b.Jump(JumpTarget{Block: join})
}

// partitionArms splits arms into the leading run of concrete-constructor
// arms and the first wildcard/bind/tuple/literal arm encountered, which
// ends the run (spec.md §4.3: "wildcard/bind columns absorb into the
// default branch"). Arms after a catch-all are dead; reaching them would
// need reachability tracking across arms beyond this split, so this
// compiler does not separately warn for that case.
func (c *bodyLowerCtx) partitionArms(arms []hir.CaseArm) (ctorArms []hir.CaseArm, catchAll *hir.CaseArm) {
	for i := range arms {
		arm := arms[i]
		if c.body.Pat(arm.Pat).Kind == hir.PApp {
			ctorArms = append(ctorArms, arm)
			continue
		}
		a := arm
		return ctorArms, &a
	}
	return ctorArms, nil
}

func (c *bodyLowerCtx) scrutTypeOf(e hir.Expr) types.Ty {
	return c.typeOfExpr[e.CaseScrutinee]
}

// discriminantRepr picks the Repr of an enum's tag field so the lowered
// Discriminant rvalue carries a concrete scalar width (spec.md §4.4's tag
// integer choice, consumed here rather than recomputed).
func discriminantRepr(target layout.Target, scrutRepr layout.Repr) layout.Repr {
	lyt := layout.LayoutOf(target, scrutRepr)
	if lyt.Variants.Kind == layout.VariantsMultiple {
		return layout.Repr{Kind: layout.RScalar, Scalar: lyt.Variants.Tag}
	}
	return layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.I64, ValidRangeFull: true}}
}
