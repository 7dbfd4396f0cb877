package infer

import "velac/internal/types"

// Result is the outcome of Unify, matching spec.md §4.2's three-way
// result (`Ok | Fail | Recursive`).
type Result int

const (
	Ok Result = iota
	Fail
	Recursive
)

func (r Result) and(other func() Result) Result {
	if r != Ok {
		return r
	}
	return other()
}

// ResolveShallow follows u's binding (through the union-find, then the
// solved map) until it reaches an unsolved Unknown or a non-Unknown type;
// it does not recurse into the type's structure. Grounded on
// `resolve_type_shallow` in `original_source/compiler/hir_ty/src/unify.rs`.
func (c *Ctx) ResolveShallow(t types.Ty) types.Ty {
	d := c.Env.Store.Data(t)
	if d.Kind != types.KUnknown {
		return t
	}
	root := c.Subst.uf.find(d.Unknown)
	if bound, ok := c.Subst.solved[root]; ok {
		return c.ResolveShallow(bound)
	}
	if root != d.Unknown {
		return c.Env.Store.NewUnknown(root)
	}
	return t
}

// ResolveFully resolves every Unknown reachable in t, recursively.
func (c *Ctx) ResolveFully(t types.Ty) types.Ty {
	return c.Env.Store.Fold(t, c.ResolveShallow)
}

// Unify attempts to make t1 and t2 equal, recording bindings in the
// substitution. It is the literal translation of spec.md §4.2's rules.
func (c *Ctx) Unify(t1, t2 types.Ty) Result {
	s := c.Env.Store
	d1, d2 := s.Data(t1), s.Data(t2)

	if d1.Kind == types.KError || d2.Kind == types.KError {
		return Ok
	}
	if d1.Kind == types.KUnknown && d2.Kind == types.KUnknown && d1.Unknown == d2.Unknown {
		return Ok
	}
	if d1.Kind == types.KUnknown {
		return c.unifyUnknown(d1.Unknown, t1, t2)
	}
	if d2.Kind == types.KUnknown {
		return c.unifyUnknown(d2.Unknown, t2, t1)
	}
	if d1.Kind != d2.Kind {
		return Fail
	}

	switch d1.Kind {
	case types.KCtor:
		if d1.Ctor == d2.Ctor {
			return Ok
		}
		return Fail
	case types.KAlias:
		if d1.Alias == d2.Alias {
			return Ok
		}
		return Fail
	case types.KVar:
		if d1.Var == d2.Var {
			return Ok
		}
		return Fail
	case types.KSkolem:
		if d1.Skolem == d2.Skolem {
			return Ok
		}
		return Fail
	case types.KFigure:
		if d1.Figure == d2.Figure {
			return Ok
		}
		return Fail
	case types.KSymbol:
		if d1.Symbol == d2.Symbol {
			return Ok
		}
		return Fail
	case types.KApp:
		if len(d1.AppArgs) != len(d2.AppArgs) {
			return Fail
		}
		return c.Unify(d1.AppHead, d2.AppHead).and(func() Result {
			return c.unifyAll(d1.AppArgs, d2.AppArgs)
		})
	case types.KFunc:
		a, b := d1.Func, d2.Func
		if len(a.Params) != len(b.Params) {
			okVariadic := (a.Variadic && len(b.Params) >= len(a.Params)) ||
				(b.Variadic && len(a.Params) >= len(b.Params))
			if !okVariadic {
				return Fail
			}
		}
		n := len(a.Params)
		if len(b.Params) < n {
			n = len(b.Params)
		}
		return c.unifyAll(a.Params[:n], b.Params[:n]).
			and(func() Result { return c.Unify(a.Ret, b.Ret) }).
			and(func() Result { return c.Unify(a.Env, b.Env) })
	case types.KRow:
		return c.unifyRows(t1, t2)
	case types.KCtnt:
		if d1.CtntC.Class != d2.CtntC.Class || len(d1.CtntC.Args) != len(d2.CtntC.Args) {
			return Fail
		}
		return c.unifyAll(d1.CtntC.Args, d2.CtntC.Args).
			and(func() Result { return c.Unify(d1.CtntT, d2.CtntT) })
	case types.KForAll:
		if len(d1.ForAllKinds) != len(d2.ForAllKinds) {
			return Fail
		}
		return c.Unify(d1.ForAllBody, d2.ForAllBody)
	default:
		return Fail
	}
}

func (c *Ctx) unifyAll(a, b []types.Ty) Result {
	for i := range a {
		if r := c.Unify(a[i], b[i]); r != Ok {
			return r
		}
	}
	return Ok
}

// unifyUnknown implements the spec's unknown-binding rule: resolve u
// through the substitution; if unsolved, occurs-check t, then bind.
func (c *Ctx) unifyUnknown(u types.Unknown, uTy, other types.Ty) Result {
	root := c.Subst.uf.find(u)
	if bound, ok := c.Subst.solved[root]; ok {
		return c.Unify(bound, other)
	}

	otherResolved := c.ResolveShallow(other)
	if otherD := c.Env.Store.Data(otherResolved); otherD.Kind == types.KUnknown {
		if otherD.Unknown == root {
			return Ok
		}
		// Both unsolved: union their equivalence classes (keeping the
		// min level) rather than arbitrarily picking a direction, per
		// the original's ena union-find — see unionfind.go.
		c.Subst.uf.union(root, otherD.Unknown)
		return Ok
	}

	if c.occurs(root, otherResolved) {
		return Recursive
	}

	c.Subst.solved[root] = otherResolved
	return Ok
}

// occurs reports whether u appears free in t (the occurs check).
func (c *Ctx) occurs(u types.Unknown, t types.Ty) bool {
	found := false
	c.Env.Store.FreeUnknowns(t, c.ResolveShallow, func(v types.Unknown) {
		if c.Subst.uf.find(v) == c.Subst.uf.find(u) {
			found = true
		}
	})
	return found
}

// unifyRows implements row unification (spec.md §4.2): align by field
// name, unify matched fields, and unify each side's unmatched fields into
// a fresh shared tail.
func (c *Ctx) unifyRows(t1, t2 types.Ty) Result {
	s := c.Env.Store
	d1, d2 := s.Data(t1), s.Data(t2)

	i, j := 0, 0
	result := Ok
	var only1, only2 []types.RowField
	for i < len(d1.RowFields) && j < len(d2.RowFields) {
		f1, f2 := d1.RowFields[i], d2.RowFields[j]
		switch {
		case f1.Name == f2.Name:
			if r := c.Unify(f1.Type, f2.Type); r != Ok {
				result = r
			}
			i++
			j++
		case f1.Name < f2.Name:
			only1 = append(only1, f1)
			i++
		default:
			only2 = append(only2, f2)
			j++
		}
	}
	only1 = append(only1, d1.RowFields[i:]...)
	only2 = append(only2, d2.RowFields[j:]...)

	if result != Ok {
		return result
	}

	tail1, hasTail1 := d1.RowTail, d1.HasTail
	tail2, hasTail2 := d2.RowTail, d2.HasTail

	if len(only1) == 0 && len(only2) == 0 {
		if hasTail1 && hasTail2 {
			return c.Unify(tail1, tail2)
		}
		if !hasTail1 && !hasTail2 {
			return Ok
		}
		if hasTail1 {
			return c.Unify(tail1, s.NewRow(nil, types.None, false))
		}
		return c.Unify(tail2, s.NewRow(nil, types.None, false))
	}

	// An absent tail is a closed row: it cannot absorb the other side's
	// extra fields.
	if len(only2) > 0 && !hasTail1 {
		return Fail
	}
	if len(only1) > 0 && !hasTail2 {
		return Fail
	}

	// A closed side fixes the open side's tail to exactly its extra
	// fields, closed.
	if !hasTail2 {
		return c.Unify(tail1, s.NewRow(only2, types.None, false))
	}
	if !hasTail1 {
		return c.Unify(tail2, s.NewRow(only1, types.None, false))
	}

	shared := c.FreshUnknown(c.typeKind())
	var r1, r2 Result = Ok, Ok
	if hasTail1 {
		r1 = c.Unify(tail1, s.NewRow(only2, shared, true))
	}
	if hasTail2 {
		r2 = c.Unify(tail2, s.NewRow(only1, shared, true))
	}
	if r1 != Ok {
		return r1
	}
	return r2
}

// typeKind returns the kind-of-types placeholder used when minting a
// fresh row-tail unknown. Name resolution (out of scope) would normally
// supply the real `Type` kind constant; the Error type stands in,
// matching how this compiler treats kinds as ordinary Ty values
// (spec.md §3 groups kinds and types into one Ty term language).
func (c *Ctx) typeKind() types.Ty {
	return c.Env.Store.ErrorTy()
}
