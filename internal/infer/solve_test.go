package infer

import (
	"testing"

	"velac/internal/types"
)

// TestFunctionalDependencyExample is end-to-end scenario 4 from spec.md
// §8: class `Convert a b | a -> b`; solving `Convert Int b` against an
// instance `Convert Int String` unifies b with String before further
// inference.
func TestFunctionalDependencyExample(t *testing.T) {
	c, s := newTestCtx()
	convertClass := types.ClassID(1)
	intTy := s.NewCtor(types.DefID(1))
	stringTy := s.NewCtor(types.DefID(2))

	c.Env.FunDeps[convertClass] = Class{Determiners: []int{0}, Determined: []int{1}}
	c.Env.Members = []Member{
		{ID: 1, Class: convertClass, Types: []types.Ty{intTy, stringTy}},
	}

	b := c.FreshUnknown(s.ErrorTy())
	c.Deferred = []DeferredConstraint{
		{Constraint: types.Constraint{Class: convertClass, Args: []types.Ty{intTy, b}}},
	}

	unresolved := c.Solve()
	if len(unresolved) != 0 {
		t.Fatalf("Convert Int b left unresolved: %+v", unresolved)
	}
	if resolved := c.ResolveFully(b); resolved != stringTy {
		t.Fatalf("b did not unify with String via the functional dependency: got %d, want %d", resolved, stringTy)
	}
}

func TestSolveLeavesUnmatchedConstraintUnresolved(t *testing.T) {
	c, s := newTestCtx()
	showClass := types.ClassID(2)
	intTy := s.NewCtor(types.DefID(1))

	c.Deferred = []DeferredConstraint{
		{Constraint: types.Constraint{Class: showClass, Args: []types.Ty{intTy}}},
	}

	unresolved := c.Solve()
	if len(unresolved) != 1 {
		t.Fatalf("expected one unresolved constraint with no matching instance, got %d", len(unresolved))
	}
}

func TestSolveFixedPointDischargesWhereClause(t *testing.T) {
	c, s := newTestCtx()
	eqClass := types.ClassID(3)
	ordClass := types.ClassID(4)
	intTy := s.NewCtor(types.DefID(1))

	c.Env.Members = []Member{
		{ID: 1, Class: ordClass, Types: []types.Ty{intTy}, Where: []types.Constraint{
			{Class: eqClass, Args: []types.Ty{intTy}},
		}},
		{ID: 2, Class: eqClass, Types: []types.Ty{intTy}},
	}
	c.Deferred = []DeferredConstraint{
		{Constraint: types.Constraint{Class: ordClass, Args: []types.Ty{intTy}}},
	}

	unresolved := c.Solve()
	if len(unresolved) != 0 {
		t.Fatalf("Ord Int's where-clause Eq Int did not discharge: %+v", unresolved)
	}
}
