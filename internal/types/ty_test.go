package types

import (
	"testing"

	"velac/internal/intern"
)

func newTestStore() *Store {
	return NewStore(intern.NewStrings())
}

func TestInterningIsStructural(t *testing.T) {
	s := newTestStore()

	a := s.NewCtor(DefID(1))
	b := s.NewCtor(DefID(1))
	if a != b {
		t.Fatalf("two Ctor(1)s interned to different ids: %d vs %d", a, b)
	}

	c := s.NewCtor(DefID(2))
	if a == c {
		t.Fatalf("Ctor(1) and Ctor(2) interned to the same id")
	}
}

func TestRowInterningIsOrderIndependent(t *testing.T) {
	s := newTestStore()
	strs := intern.NewStrings()
	x := strs.Intern("x")
	y := strs.Intern("y")

	r1 := s.NewRow([]RowField{{Name: x, Type: Ty(1)}, {Name: y, Type: Ty(2)}}, None, false)
	r2 := s.NewRow([]RowField{{Name: y, Type: Ty(2)}, {Name: x, Type: Ty(1)}}, None, false)
	if r1 != r2 {
		t.Fatalf("row interning depends on field order: %d vs %d", r1, r2)
	}
}

func TestErrorTyIsStable(t *testing.T) {
	s := newTestStore()
	if s.Kind(s.ErrorTy()) != KError {
		t.Fatalf("ErrorTy() does not report KError")
	}
}

func TestGeneralizedMonoPoly(t *testing.T) {
	s := newTestStore()
	mono := Mono(s.NewCtor(DefID(1)))
	if mono.Poly {
		t.Fatalf("Mono() produced a Poly Generalized")
	}

	poly := PolyType([]Unknown{0, 1}, s.NewCtor(DefID(1)))
	if !poly.Poly || len(poly.Vars) != 2 {
		t.Fatalf("PolyType() did not record its vars: %+v", poly)
	}
}
