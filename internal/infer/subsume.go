package infer

import "velac/internal/types"

// Subsume checks t1 <= t2 — a value of type t1 may be used where t2 is
// expected — following spec.md §4.2's five rules in order. origin
// identifies the expression incurring any deferred constraint.
func (c *Ctx) Subsume(t1, t2 types.Ty, origin uint64) Result {
	s := c.Env.Store
	d1, d2 := s.Data(t1), s.Data(t2)

	if d1.Kind == types.KForAll {
		inst := c.instantiate(t1)
		return c.Subsume(inst, t2, origin)
	}

	if d2.Kind == types.KForAll {
		scope := c.NewSkolemScope()
		body := c.skolemize(d2, scope)
		r := c.Subsume(t1, body, origin)
		if r != Ok {
			return r
		}
		if c.SkolemEscapes(t1, scope) {
			return Fail
		}
		return Ok
	}

	if d1.Kind == types.KFunc && d2.Kind == types.KFunc {
		a, b := d1.Func, d2.Func
		if len(a.Params) != len(b.Params) {
			return Fail
		}
		// Contravariant in parameters: b's param must subsume a's.
		for i := range a.Params {
			if r := c.Subsume(b.Params[i], a.Params[i], origin); r != Ok {
				return r
			}
		}
		// Covariant in return.
		if r := c.Subsume(a.Ret, b.Ret, origin); r != Ok {
			return r
		}
		// Invariant in the capture environment.
		return c.Unify(a.Env, b.Env)
	}

	if d1.Kind == types.KCtnt {
		c.Deferred = append(c.Deferred, DeferredConstraint{Constraint: d1.CtntC, Origin: origin})
		return c.Subsume(d1.CtntT, t2, origin)
	}

	return c.Unify(t1, t2)
}

// instantiate replaces every bound variable of a ForAll with a fresh
// Unknown at the current level (spec.md §4.2: "instantiate each x with a
// fresh Unknown at the current level").
func (c *Ctx) instantiate(t types.Ty) types.Ty {
	d := c.Env.Store.Data(t)
	if d.Kind != types.KForAll {
		return t
	}
	fresh := make([]types.Ty, len(d.ForAllKinds))
	for i, k := range d.ForAllKinds {
		fresh[i] = c.FreshUnknown(k)
	}
	return c.substituteVars(d.ForAllBody, fresh)
}

// skolemize replaces every bound variable of a ForAll's Data with a fresh
// Skolem tagged with scope, and returns the instantiated body.
func (c *Ctx) skolemize(d types.Data, scope uint32) types.Ty {
	fresh := make([]types.Ty, len(d.ForAllKinds))
	for i, k := range d.ForAllKinds {
		fresh[i] = c.FreshSkolemWithScope(k, scope)
	}
	return c.substituteVars(d.ForAllBody, fresh)
}

// substituteVars replaces de Bruijn Var(i) with repl[i] throughout t.
func (c *Ctx) substituteVars(t types.Ty, repl []types.Ty) types.Ty {
	s := c.Env.Store
	d := s.Data(t)
	switch d.Kind {
	case types.KVar:
		if int(d.Var) < len(repl) {
			return repl[d.Var]
		}
		return t
	case types.KRow:
		fields := make([]types.RowField, len(d.RowFields))
		for i, f := range d.RowFields {
			fields[i] = types.RowField{Name: f.Name, Type: c.substituteVars(f.Type, repl)}
		}
		tail := d.RowTail
		if d.HasTail {
			tail = c.substituteVars(d.RowTail, repl)
		}
		return s.NewRow(fields, tail, d.HasTail)
	case types.KApp:
		head := c.substituteVars(d.AppHead, repl)
		args := make([]types.Ty, len(d.AppArgs))
		for i, a := range d.AppArgs {
			args[i] = c.substituteVars(a, repl)
		}
		return s.NewApp(head, args)
	case types.KFunc:
		params := make([]types.Ty, len(d.Func.Params))
		for i, p := range d.Func.Params {
			params[i] = c.substituteVars(p, repl)
		}
		ret := c.substituteVars(d.Func.Ret, repl)
		env := c.substituteVars(d.Func.Env, repl)
		return s.NewFunc(params, ret, env, d.Func.Variadic)
	case types.KCtnt:
		args := make([]types.Ty, len(d.CtntC.Args))
		for i, a := range d.CtntC.Args {
			args[i] = c.substituteVars(a, repl)
		}
		inner := c.substituteVars(d.CtntT, repl)
		return s.NewCtnt(types.Constraint{Class: d.CtntC.Class, Args: args}, inner)
	case types.KForAll:
		// A nested ForAll re-bases its own Var(0..k-1) inside its body and
		// sees outer variables shifted up by k, so its own binders map to
		// themselves and repl applies from index k on; nested bound
		// variables are resolved when that ForAll is itself instantiated.
		k := len(d.ForAllKinds)
		shifted := make([]types.Ty, k+len(repl))
		for i := 0; i < k; i++ {
			shifted[i] = s.NewVar(uint32(i))
		}
		copy(shifted[k:], repl)
		body := c.substituteVars(d.ForAllBody, shifted)
		return s.NewForAll(d.ForAllKinds, body, d.ForAllScope)
	default:
		return t
	}
}

// Generalize quantifies over every free Unknown in t whose level is at
// least the given level, producing a Poly type (spec.md §4.2 step 4). If
// no such Unknown exists, it returns Mono(t).
func (c *Ctx) Generalize(t types.Ty, atLevel Level) types.Generalized {
	var vars []types.Unknown
	seen := map[types.Unknown]bool{}
	c.Env.Store.FreeUnknowns(t, c.ResolveShallow, func(u types.Unknown) {
		if seen[u] {
			return
		}
		seen[u] = true
		if c.Subst.uf.probeLevel(u) >= atLevel {
			vars = append(vars, u)
		}
	})
	if len(vars) == 0 {
		return types.Mono(c.ResolveFully(t))
	}

	// Replace each generalized Unknown with a de Bruijn Var in the body;
	// the substitution itself is left unchanged.
	resolved := c.ResolveFully(t)
	repl := map[types.Unknown]types.Ty{}
	for i, u := range vars {
		repl[u] = c.Env.Store.NewVar(uint32(i))
	}
	body := c.Env.Store.Fold(resolved, func(t types.Ty) types.Ty {
		d := c.Env.Store.Data(t)
		if d.Kind == types.KUnknown {
			if v, ok := repl[d.Unknown]; ok {
				return v
			}
		}
		return t
	})
	kinds := make([]types.Ty, len(vars))
	for i, u := range vars {
		kinds[i] = c.Subst.kindOf[u]
	}
	poly := c.Env.Store.NewForAll(kinds, body, c.NewSkolemScope())
	return types.Generalized{Poly: true, Vars: vars, Ty: poly}
}
