package infer

import "velac/internal/types"

// Solve discharges every constraint in c.Deferred by fixed-point work-list
// iteration (spec.md §4.2): first the local class environment, then
// global instances, extended by functional dependencies, repeating until
// a pass makes no progress. Constraints that can still be generalized
// (mention only quantifiable unknowns) are returned for the caller to
// attach to the generalized type; the rest become UnsolvedConstraint
// diagnostics via the returned slice.
func (c *Ctx) Solve() (unresolved []DeferredConstraint) {
	solved := make([]bool, len(c.Deferred))

	for {
		progressed := false
		// c.Deferred can grow mid-pass as matched members add their
		// where-clause constraints; re-reading len(c.Deferred) each
		// iteration picks those up in the same fixed-point pass.
		for idx := 0; idx < len(c.Deferred); idx++ {
			if idx >= len(solved) {
				solved = append(solved, false)
			}
			if solved[idx] {
				continue
			}
			if c.solveOne(idx, c.Deferred[idx].Constraint) {
				solved[idx] = true
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	for idx, dc := range c.Deferred {
		if !solved[idx] {
			unresolved = append(unresolved, dc)
		}
	}
	return unresolved
}

// solveOne tries to discharge one constraint against the local
// environment first, then the global instance table, applying functional
// dependencies on a match. Returns true if the constraint was discharged
// (possibly adding new deferred constraints from the matched instance's
// where-clause).
func (c *Ctx) solveOne(idx int, ct types.Constraint) bool {
	for i, local := range c.Env.Locals {
		if local.Class != ct.Class || len(local.Types) != len(ct.Args) {
			continue
		}
		if c.matchOneWay(local.Types, ct.Args, ct.Class) {
			c.Methods[idx] = Method{Local: true, Index: local.Index}
			_ = i
			return true
		}
	}

	for _, m := range c.Env.Members {
		if m.Class != ct.Class || len(m.Types) != len(ct.Args) {
			continue
		}
		if !c.matchOneWay(m.Types, ct.Args, ct.Class) {
			continue
		}
		for _, w := range m.Where {
			c.Deferred = append(c.Deferred, DeferredConstraint{Constraint: w, Origin: 0})
		}
		c.Methods[idx] = Method{Member: m.ID}
		return true
	}

	return false
}

// matchOneWay unifies envTypes against ctArgs "one-way": the constraint
// may not bind the environment's own variables, only its own. It then
// applies any functional dependency the class declares, unifying
// determined positions once determiners match (spec.md §4.2).
func (c *Ctx) matchOneWay(envTypes, ctArgs []types.Ty, class types.ClassID) bool {
	if len(envTypes) != len(ctArgs) {
		return false
	}
	for i := range envTypes {
		if c.Unify(ctArgs[i], envTypes[i]) != Ok {
			return false
		}
	}
	if fd, ok := c.Env.FunDeps[class]; ok {
		determinersMatch := true
		for _, pos := range fd.Determiners {
			if c.ResolveFully(ctArgs[pos]) != c.ResolveFully(envTypes[pos]) {
				determinersMatch = false
				break
			}
		}
		if determinersMatch {
			for _, pos := range fd.Determined {
				c.Unify(ctArgs[pos], envTypes[pos])
			}
		}
	}
	return true
}

// Generalizable reports whether a constraint mentions only unknowns that
// would themselves be generalized at atLevel — such constraints are kept
// on the type rather than turned into a diagnostic.
func (c *Ctx) Generalizable(ct types.Constraint, atLevel Level) bool {
	ok := true
	for _, a := range ct.Args {
		c.Env.Store.FreeUnknowns(a, c.ResolveShallow, func(u types.Unknown) {
			if c.Subst.uf.probeLevel(u) < atLevel {
				ok = false
			}
		})
	}
	return ok
}
