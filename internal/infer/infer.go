package infer

import (
	"velac/internal/hir"
	"velac/internal/types"
)

// Expectation mirrors the original's `Expectation::{None, HasType}`: a
// caller either leaves an expression's type to inference or supplies one
// to check against (spec.md §4.2 step 2).
type Expectation struct {
	Has bool
	Ty  types.Ty
}

// NoExpectation is the absence of an expected type.
var NoExpectation = Expectation{}

// HasType wraps an expected type.
func HasType(t types.Ty) Expectation { return Expectation{Has: true, Ty: t} }

// adjustForBranches drops an expectation that is itself an unbound
// Unknown, so a fresh result type is inferred and later unified instead
// of both branches being forced against a variable that pins nothing
// (spec.md §4.2: "drop expectation if it is an unbound Unknown").
func (c *Ctx) adjustForBranches(e Expectation) Expectation {
	if !e.Has {
		return e
	}
	if c.Env.Store.Data(c.ResolveShallow(e.Ty)).Kind == types.KUnknown {
		return NoExpectation
	}
	return e
}

// InferExpr infers id's type against expected, unifying at the end when
// an expectation was supplied (spec.md §4.2, `infer_expr`).
func (c *Ctx) InferExpr(b *hir.Body, id hir.ExprID, expected Expectation, typeOf map[hir.ExprID]types.Ty) types.Ty {
	if t, ok := typeOf[id]; ok {
		return t
	}

	ty := c.inferExprInner(b, id, expected, typeOf)

	if expected.Has {
		c.Unify(ty, expected.Ty)
		if c.Env.Store.Data(c.ResolveShallow(ty)).Kind == types.KError {
			ty = expected.Ty
		}
	}

	typeOf[id] = ty
	return ty
}

func (c *Ctx) inferExprInner(b *hir.Body, id hir.ExprID, expected Expectation, typeOf map[hir.ExprID]types.Ty) types.Ty {
	s := c.Env.Store
	e := b.Expr(id)

	switch e.Kind {
	case hir.EMissing:
		return s.ErrorTy()

	case hir.ELit:
		return c.inferLit(e)

	case hir.EPath:
		// Name resolution is out of scope; a resolved DefID's scheme is
		// assumed available via the local/member tables' callers. Absent
		// any such binding, the node is Error (spec.md §7: "the offending
		// node is typed Error").
		return s.ErrorTy()

	case hir.EApp:
		return c.inferApp(b, e, typeOf)

	case hir.EIf:
		return c.inferIf(b, e, expected, typeOf)

	case hir.ECase:
		return c.inferCase(b, e, expected, typeOf)

	case hir.ELambda:
		return c.inferLambda(b, e, typeOf)

	case hir.EReturn:
		retTy := b.DeclaredRet
		if retTy == types.None {
			retTy = c.FreshUnknown(c.Env.Builtins.IntTagKind)
		}
		c.InferExpr(b, e.ReturnExpr, HasType(retTy), typeOf)
		return c.neverType()

	case hir.ETuple:
		elems := make([]types.Ty, len(e.TupleElems))
		for i, el := range e.TupleElems {
			elems[i] = c.InferExpr(b, el, NoExpectation, typeOf)
		}
		return c.tupleType(elems)

	case hir.ERecord:
		fields := make([]types.RowField, len(e.RecordFields))
		for i, f := range e.RecordFields {
			fields[i] = types.RowField{Name: f.Name, Type: c.InferExpr(b, f.Value, NoExpectation, typeOf)}
		}
		return s.NewRow(fields, types.None, false)

	default:
		return s.ErrorTy()
	}
}

// inferLit implements spec.md §4.2's literal rule: `Int n` infers to
// `App(IntType, Unknown_int-tag)`, the tag later constrained by numeric
// class membership; Float mirrors it; Char/String are monomorphic.
func (c *Ctx) inferLit(e hir.Expr) types.Ty {
	s := c.Env.Store
	switch e.Lit {
	case hir.LInt:
		tag := c.FreshUnknown(c.Env.Builtins.IntTagKind)
		return s.NewApp(s.NewCtor(c.Env.Builtins.IntCtor), []types.Ty{tag})
	case hir.LFloat:
		tag := c.FreshUnknown(c.Env.Builtins.FloatTagKind)
		return s.NewApp(s.NewCtor(c.Env.Builtins.FloatCtor), []types.Ty{tag})
	case hir.LChar:
		return s.NewCtor(c.Env.Builtins.CharCtor)
	case hir.LString:
		return s.NewCtor(c.Env.Builtins.StringCtor)
	default:
		return s.ErrorTy()
	}
}

// inferApp implements spec.md §4.2's App rule: if the callee infers to a
// Func, unify args pairwise with params; extra args curry through a fresh
// `p' -> r'` unified with the previous return; a variadic callee accepts
// any extras without unification.
func (c *Ctx) inferApp(b *hir.Body, e hir.Expr, typeOf map[hir.ExprID]types.Ty) types.Ty {
	s := c.Env.Store
	fnTy := c.InferExpr(b, e.AppBase, NoExpectation, typeOf)
	fnTy = c.ResolveShallow(fnTy)
	d := s.Data(fnTy)

	if d.Kind != types.KFunc {
		if d.Kind == types.KError {
			for _, a := range e.AppArgs {
				c.InferExpr(b, a, NoExpectation, typeOf)
			}
			return s.ErrorTy()
		}
		// Not statically known to be a function: treat the application as
		// ill-typed but keep inferring args for diagnostics, then unify a
		// fresh function shape against it so cascading uses stay total.
		argTys := make([]types.Ty, len(e.AppArgs))
		for i, a := range e.AppArgs {
			argTys[i] = c.InferExpr(b, a, NoExpectation, typeOf)
		}
		ret := c.FreshUnknown(c.Env.Builtins.IntTagKind)
		shape := s.NewFunc(argTys, ret, s.NewRow(nil, types.None, false), false)
		if c.Unify(fnTy, shape) != Ok {
			return s.ErrorTy()
		}
		return ret
	}

	fn := d.Func
	n := len(fn.Params)
	if fn.Variadic && len(e.AppArgs) >= n {
		for i, a := range e.AppArgs {
			if i < n {
				c.InferExpr(b, a, HasType(fn.Params[i]), typeOf)
			} else {
				c.InferExpr(b, a, NoExpectation, typeOf)
			}
		}
		return fn.Ret
	}

	i := 0
	for ; i < len(e.AppArgs) && i < n; i++ {
		c.InferExpr(b, e.AppArgs[i], HasType(fn.Params[i]), typeOf)
	}
	ret := fn.Ret
	for ; i < len(e.AppArgs); i++ {
		retD := s.Data(c.ResolveShallow(ret))
		if retD.Kind != types.KFunc {
			return s.ErrorTy()
		}
		argTy := c.InferExpr(b, e.AppArgs[i], NoExpectation, typeOf)
		freshRet := c.FreshUnknown(c.Env.Builtins.IntTagKind)
		chained := s.NewFunc([]types.Ty{argTy}, freshRet, s.NewRow(nil, types.None, false), false)
		if c.Unify(ret, chained) != Ok {
			return s.ErrorTy()
		}
		ret = freshRet
	}
	return ret
}

// inferIf implements spec.md §4.2's If rule.
func (c *Ctx) inferIf(b *hir.Body, e hir.Expr, expected Expectation, typeOf map[hir.ExprID]types.Ty) types.Ty {
	s := c.Env.Store
	boolTy := s.NewCtor(c.Env.Builtins.BoolCtor)
	c.Subsume(c.InferExpr(b, e.IfCond, NoExpectation, typeOf), boolTy, uint64(e.IfCond))

	branchExpect := c.adjustForBranches(expected)
	thenTy := c.InferExpr(b, e.IfThen, branchExpect, typeOf)
	elseTy := c.InferExpr(b, e.IfElse, branchExpect, typeOf)
	if branchExpect.Has {
		return branchExpect.Ty
	}
	if c.Unify(thenTy, elseTy) != Ok {
		return s.ErrorTy()
	}
	return thenTy
}

// inferCase implements spec.md §4.2's Case rule: each arm's pattern is
// expected to be typeof(scrutinee); each arm's body unifies into one
// fresh result type.
func (c *Ctx) inferCase(b *hir.Body, e hir.Expr, expected Expectation, typeOf map[hir.ExprID]types.Ty) types.Ty {
	scrutTy := c.InferExpr(b, e.CaseScrutinee, NoExpectation, typeOf)
	branchExpect := c.adjustForBranches(expected)
	res := c.FreshUnknown(c.Env.Builtins.IntTagKind)

	for _, arm := range e.CaseArms {
		c.InferPat(b, arm.Pat, HasType(scrutTy))
		bodyTy := c.InferExpr(b, arm.Body, branchExpect, typeOf)
		c.Unify(bodyTy, res)
	}
	return res
}

// inferLambda implements spec.md §4.2's Lambda rule: fresh type per
// param, infer the body, build a Func.
func (c *Ctx) inferLambda(b *hir.Body, e hir.Expr, typeOf map[hir.ExprID]types.Ty) types.Ty {
	s := c.Env.Store
	c.EnterScope()
	defer c.ExitScope()

	paramTys := make([]types.Ty, len(e.LambdaParams))
	for i, p := range e.LambdaParams {
		pt := c.FreshUnknown(c.Env.Builtins.IntTagKind)
		c.InferPat(b, p, HasType(pt))
		paramTys[i] = pt
	}
	bodyTy := c.InferExpr(b, e.LambdaBody, NoExpectation, typeOf)

	// Capture identity belongs to the out-of-scope name resolver; only the
	// environment's field count (not yet known here) matters to the ABI,
	// so the env row is open when the lambda captures anything and the
	// empty closed row otherwise.
	envTy := s.NewRow(nil, types.None, len(e.LambdaEnv) > 0)
	return s.NewFunc(paramTys, bodyTy, envTy, false)
}

// InferPat infers id's type, unifying against expected (patterns are
// always checked, never synthesized from nothing, in this minimal HIR).
func (c *Ctx) InferPat(b *hir.Body, id hir.PatID, expected Expectation) types.Ty {
	s := c.Env.Store
	p := b.Pat(id)
	var ty types.Ty

	switch p.Kind {
	case hir.PWildcard:
		ty = c.FreshUnknown(c.Env.Builtins.IntTagKind)
	case hir.PBind:
		ty = c.FreshUnknown(c.Env.Builtins.IntTagKind)
		if p.HasSubpat {
			c.InferPat(b, p.BindSubpat, HasType(ty))
		}
	case hir.PApp:
		ty = s.NewCtor(p.AppCtor)
		for _, a := range p.AppArgs {
			c.InferPat(b, a, NoExpectation)
		}
	case hir.PTuple:
		elems := make([]types.Ty, len(p.TupleElems))
		for i, el := range p.TupleElems {
			elems[i] = c.InferPat(b, el, NoExpectation)
		}
		ty = c.tupleType(elems)
	case hir.PLit:
		ty = c.inferLit(hir.Expr{Kind: hir.ELit, Lit: p.Lit, Symbol: p.Symbol})
	default:
		ty = s.ErrorTy()
	}

	if expected.Has {
		c.Unify(ty, expected.Ty)
	}
	return ty
}

// neverType is the bottom type produced by Return (spec.md §4.2: "the
// expression type is Never"); modeled as a zero-argument Ctor so it
// unifies only with itself or Error.
func (c *Ctx) neverType() types.Ty {
	return c.Env.Store.NewCtor(c.Env.Builtins.NeverCtor)
}

// tupleType builds an anonymous record row `{0: a, 1: b, ...}`, the row-
// polymorphic encoding of tuples this compiler uses in place of a
// dedicated Tuple constructor (spec.md §3 treats rows as the general
// structural product).
func (c *Ctx) tupleType(elems []types.Ty) types.Ty {
	s := c.Env.Store
	fields := make([]types.RowField, len(elems))
	for i, t := range elems {
		fields[i] = types.RowField{Name: c.Env.Strings.Intern(tupleFieldName(i)), Type: t}
	}
	return s.NewRow(fields, types.None, false)
}

func tupleFieldName(i int) string {
	digits := []byte{}
	if i == 0 {
		return "0"
	}
	n := i
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
