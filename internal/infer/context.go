// Package infer implements Component E from spec.md §4.2: unification
// (including row unification), rank-N subsumption via skolemization,
// class-constraint solving with functional dependencies, and level-based
// let-generalization.
package infer

import (
	"velac/internal/intern"
	"velac/internal/types"
)

// Level is the let-generalization nesting depth described in spec.md
// §4.2: entering a polymorphic scope (let/lambda/case arm) increments it,
// exiting decrements it, and an Unknown only generalizes if its level is
// at least the enclosing level at the point of generalization.
type Level uint32

// Substitution is the per-inference-context unification state: a
// union-find over Unknowns plus the solved bindings, not shared across
// queries (spec.md §5: "it is not shared across queries").
type Substitution struct {
	uf       *unionFind
	solved   map[types.Unknown]types.Ty
	kindOf   map[types.Unknown]types.Ty
	nextUnk  uint32
	nextSkol uint32
	scope    uint32 // generation counter for skolem escape checks
	skolemScope map[types.Skolem]uint32
}

func newSubstitution() *Substitution {
	return &Substitution{
		uf:          newUnionFind(),
		solved:      map[types.Unknown]types.Ty{},
		kindOf:      map[types.Unknown]types.Ty{},
		skolemScope: map[types.Skolem]uint32{},
	}
}

// Class records a type class's functional dependencies: the parameter
// positions in Determiners fix the positions in Determined.
type Class struct {
	Determiners []int // indices into the class's parameter list
	Determined  []int
}

// Member is one globally visible instance: `(class, types, where-clause,
// impl_id)` from spec.md §4.2.
type Member struct {
	ID      uint32
	Class   types.ClassID
	Types   []types.Ty
	Where   []types.Constraint
}

// LocalRecord is a constraint captured from an enclosing `where` clause,
// available without going to the global instance table.
type LocalRecord struct {
	Index  int // the k-th dictionary parameter
	Class  types.ClassID
	Types  []types.Ty
}

// Method records how a constraint was discharged, for the dictionary-
// passing ABI (spec.md §6: "its constraints (for dictionary-passing ABI)").
type Method struct {
	Local  bool
	Index  int    // LocalRecord.Index, if Local
	Member uint32 // Member.ID, otherwise
}

// Builtins names the handful of primitive type constructors expression
// inference refers to directly (literals, If's Bool condition, Return's
// Never). Resolving these normally belongs to the out-of-scope name
// resolver; a caller assembling an Env supplies their DefIDs once.
type Builtins struct {
	IntCtor, FloatCtor, CharCtor, StringCtor, BoolCtor, NeverCtor types.DefID
	IntTagKind, FloatTagKind                                     types.Ty
}

// Env is the environment an inference pass runs against: the type store,
// the functional-dependency table per class, the local class environment
// captured from enclosing `where` clauses, and the global instance table.
// It is read-only during one body's inference (spec.md §5: "Class
// environment is an immutable stack during one body's inference").
type Env struct {
	Store    *types.Store
	Strings  *intern.Strings
	FunDeps  map[types.ClassID]Class
	Locals   []LocalRecord
	Members  []Member
	Builtins Builtins
}

// Ctx is one body's inference context: fresh-variable generation, the
// substitution, the current level, and the deferred constraint work list.
type Ctx struct {
	Env   *Env
	Subst *Substitution
	Level Level

	Deferred []DeferredConstraint
	Methods  map[int]Method // keyed by the deferred constraint's index in Deferred, once solved
}

// DeferredConstraint is a constraint emitted during subsumption/inference,
// still waiting to be solved.
type DeferredConstraint struct {
	Constraint types.Constraint
	// Origin identifies the expression/pattern node that incurred the
	// constraint, for diagnostics; left as an opaque id owned by the
	// caller (internal/hir node ids) since the AST itself is out of
	// scope for this compiler phase.
	Origin uint64
}

// NewCtx returns a fresh inference context at level 0 (top level).
func NewCtx(env *Env) *Ctx {
	return &Ctx{Env: env, Subst: newSubstitution(), Methods: map[int]Method{}}
}

// EnterScope increments the level, for descending into a let/lambda/case
// arm.
func (c *Ctx) EnterScope() { c.Level++ }

// ExitScope decrements the level.
func (c *Ctx) ExitScope() { c.Level-- }

// FreshUnknown allocates a fresh inference variable at the current level
// with the given kind (itself a Ty, usually the builtin Type kind).
func (c *Ctx) FreshUnknown(kind types.Ty) types.Ty {
	u := types.Unknown(c.Subst.nextUnk)
	c.Subst.nextUnk++
	c.Subst.uf.register(u, c.Level)
	c.Subst.kindOf[u] = kind
	return c.Env.Store.NewUnknown(u)
}

// NewSkolemScope allocates a fresh skolem generation number for one
// rank-N subsumption check (spec.md §4.2: "skolemize each x to a fresh
// Skolem constant tagged with scope").
func (c *Ctx) NewSkolemScope() uint32 {
	c.Subst.scope++
	return c.Subst.scope
}

// FreshSkolemWithScope mints a fresh opaque constant tagged with scope.
func (c *Ctx) FreshSkolemWithScope(kind types.Ty, scope uint32) types.Ty {
	sk := types.Skolem(c.Subst.nextSkol)
	c.Subst.nextSkol++
	c.Subst.skolemScope[sk] = scope
	return c.Env.Store.NewSkolem(sk, kind)
}

// SkolemEscapes reports whether t mentions any skolem minted under scope,
// after resolving unknowns. Subsumption calls this on exiting a
// `t1 <= ForAll(...)` check to enforce "no skolem of that scope escapes"
// (spec.md §4.2).
func (c *Ctx) SkolemEscapes(t types.Ty, scope uint32) bool {
	found := false
	var walk func(types.Ty)
	seen := map[types.Ty]bool{}
	walk = func(t types.Ty) {
		t = c.ResolveShallow(t)
		if seen[t] {
			return
		}
		seen[t] = true
		d := c.Env.Store.Data(t)
		switch d.Kind {
		case types.KSkolem:
			if c.Subst.skolemScope[d.Skolem] == scope {
				found = true
			}
		case types.KRow:
			for _, f := range d.RowFields {
				walk(f.Type)
			}
			if d.HasTail {
				walk(d.RowTail)
			}
		case types.KApp:
			walk(d.AppHead)
			for _, a := range d.AppArgs {
				walk(a)
			}
		case types.KFunc:
			for _, p := range d.Func.Params {
				walk(p)
			}
			walk(d.Func.Ret)
			walk(d.Func.Env)
		case types.KCtnt:
			for _, a := range d.CtntC.Args {
				walk(a)
			}
			walk(d.CtntT)
		case types.KForAll:
			walk(d.ForAllBody)
		}
	}
	walk(t)
	return found
}
