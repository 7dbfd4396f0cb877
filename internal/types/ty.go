// Package types implements the interned type-term representation from
// spec.md §3: Ty, Constraint, and the generalized-type wrapper Mono/Poly.
// Types are hash-consed into a Store so that equality is an integer
// compare and so the type inferencer (internal/infer) never copies a type
// term — it only ever threads IDs, following the "interned ids instead of
// pointer graphs" design note in spec.md §9.
package types

import (
	"fmt"
	"strings"
	"sync"

	"velac/internal/intern"
)

// DefID names a definition (a value, type constructor, type alias, or
// class) resolved by the out-of-scope name-resolution component (spec.md
// §2, row D). velac never constructs one itself; it only threads the ids
// handed to it.
type DefID uint32

// CtorID names one data constructor of a sum type.
type CtorID uint32

// ClassID names a type class.
type ClassID uint32

// Unknown is an inference variable id, allocated fresh per body by
// internal/infer.
type Unknown uint32

// Skolem is a fresh opaque constant minted to check rank-N subsumption.
type Skolem uint32

// Kind discriminates the variant a Ty's Data payload holds.
type Kind uint8

const (
	KError Kind = iota
	KUnknown
	KSkolem
	KVar
	KFigure
	KSymbol
	KRow
	KCtor
	KAlias
	KApp
	KFunc
	KCtnt
	KForAll
)

// Ty is an interned handle to a type term. The zero value is not a valid
// Ty; use the Store's New* constructors to obtain one.
type Ty uint32

// RowField is one (name, type) entry of a Row, kept sorted by Name so that
// two structurally equal rows intern to the same Ty regardless of the
// order fields were written in source (spec.md §3: "ordered sequence of
// (Name, Ty) sorted by name").
type RowField struct {
	Name intern.Symbol
	Type Ty
}

// FuncData is the payload of a Func type: params -> ret, plus an
// environment row/tuple of captures and a variadic flag.
type FuncData struct {
	Params   []Ty
	Ret      Ty
	Env      Ty
	Variadic bool
}

// Constraint is `(class_id, ordered sequence of Ty)` — one type-class
// obligation, e.g. `Show a` or `Convert Int b`.
type Constraint struct {
	Class ClassID
	Args  []Ty
}

func (c Constraint) key() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "C%d(", c.Class)
	for i, a := range c.Args {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", a)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Data is the uniform payload struct for every Ty variant; only the fields
// relevant to Kind are meaningful. Go has no tagged unions, so this plays
// the role the original's Rust `enum TyKind` plays, matching the "sum types
// for the AST/IR" design note applied pragmatically to a hash-consed store.
type Data struct {
	Kind Kind

	Unknown Unknown // KUnknown
	Skolem  Skolem  // KSkolem
	SkolemKind Ty   // KSkolem: the skolem's own kind
	Var     uint32  // KVar: de Bruijn index

	Figure int64        // KFigure: type-level integer literal
	Symbol intern.Symbol // KSymbol: type-level string literal

	RowFields []RowField // KRow
	RowTail   Ty         // KRow; 0 (None) means closed
	HasTail   bool

	Ctor  DefID // KCtor
	Alias DefID // KAlias

	AppHead Ty   // KApp
	AppArgs []Ty // KApp

	Func FuncData // KFunc

	CtntC Constraint // KCtnt
	CtntT Ty         // KCtnt

	ForAllKinds []Ty  // KForAll: kind of each bound variable
	ForAllBody  Ty    // KForAll
	ForAllScope uint32 // KForAll: generation counter for skolem-escape checks
}

// None is the invalid/absent Ty, used as RowTail when a row is closed and
// as a sentinel in places that need "no type here".
const None Ty = 0

// Store hash-conses Ty terms: structurally equal Data values always return
// the same Ty. It owns no mutable state per-Ty; types.Ty is permanently
// immutable once interned, matching the grow-only arena policy in spec.md
// §5.
type Store struct {
	mu      sync.RWMutex
	data    []Data // index 0 is reserved for None's degenerate slot
	byKey   map[string]Ty
	strings *intern.Strings
	errorTy Ty
}

// NewStore returns a Store with the Error type pre-interned.
func NewStore(strings *intern.Strings) *Store {
	s := &Store{
		data:    make([]Data, 1, 64),
		byKey:   make(map[string]Ty),
		strings: strings,
	}
	s.data[0] = Data{Kind: KError} // placeholder slot for None
	s.errorTy = s.intern(Data{Kind: KError})
	return s
}

func (s *Store) key(d Data) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|", d.Kind)
	switch d.Kind {
	case KUnknown:
		fmt.Fprintf(&sb, "%d", d.Unknown)
	case KSkolem:
		fmt.Fprintf(&sb, "%d:%d", d.Skolem, d.SkolemKind)
	case KVar:
		fmt.Fprintf(&sb, "%d", d.Var)
	case KFigure:
		fmt.Fprintf(&sb, "%d", d.Figure)
	case KSymbol:
		fmt.Fprintf(&sb, "%d", d.Symbol)
	case KRow:
		for _, f := range d.RowFields {
			fmt.Fprintf(&sb, "%d=%d,", f.Name, f.Type)
		}
		if d.HasTail {
			fmt.Fprintf(&sb, "|%d", d.RowTail)
		}
	case KCtor:
		fmt.Fprintf(&sb, "%d", d.Ctor)
	case KAlias:
		fmt.Fprintf(&sb, "%d", d.Alias)
	case KApp:
		fmt.Fprintf(&sb, "%d(", d.AppHead)
		for _, a := range d.AppArgs {
			fmt.Fprintf(&sb, "%d,", a)
		}
		sb.WriteByte(')')
	case KFunc:
		sb.WriteString("fn(")
		for _, p := range d.Func.Params {
			fmt.Fprintf(&sb, "%d,", p)
		}
		fmt.Fprintf(&sb, ")->%d env=%d variadic=%v", d.Func.Ret, d.Func.Env, d.Func.Variadic)
	case KCtnt:
		fmt.Fprintf(&sb, "%s=>%d", d.CtntC.key(), d.CtntT)
	case KForAll:
		sb.WriteString("forall(")
		for _, k := range d.ForAllKinds {
			fmt.Fprintf(&sb, "%d,", k)
		}
		fmt.Fprintf(&sb, ")%d@%d", d.ForAllBody, d.ForAllScope)
	}
	return sb.String()
}

func (s *Store) intern(d Data) Ty {
	k := s.key(d)
	s.mu.RLock()
	if id, ok := s.byKey[k]; ok {
		s.mu.RUnlock()
		return id
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[k]; ok {
		return id
	}
	id := Ty(len(s.data))
	s.data = append(s.data, d)
	s.byKey[k] = id
	return id
}

// Kind returns the variant of t.
func (s *Store) Kind(t Ty) Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[t].Kind
}

// Data returns a copy of t's payload.
func (s *Store) Data(t Ty) Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[t]
}

// ErrorTy returns the sentinel Error type: it unifies with anything
// (spec.md §4.2) and suppresses cascading diagnostics.
func (s *Store) ErrorTy() Ty { return s.errorTy }

func (s *Store) NewUnknown(u Unknown) Ty {
	return s.intern(Data{Kind: KUnknown, Unknown: u})
}

func (s *Store) NewSkolem(sk Skolem, kind Ty) Ty {
	return s.intern(Data{Kind: KSkolem, Skolem: sk, SkolemKind: kind})
}

func (s *Store) NewVar(debruijn uint32) Ty {
	return s.intern(Data{Kind: KVar, Var: debruijn})
}

func (s *Store) NewFigure(n int64) Ty {
	return s.intern(Data{Kind: KFigure, Figure: n})
}

func (s *Store) NewSymbol(sym intern.Symbol) Ty {
	return s.intern(Data{Kind: KSymbol, Symbol: sym})
}

// NewRow interns a row type. fields is sorted by Name as a side effect of
// interning (callers may pass fields in any order); tailPresent controls
// whether the row is open.
func (s *Store) NewRow(fields []RowField, tail Ty, tailPresent bool) Ty {
	sorted := append([]RowField(nil), fields...)
	sortRowFields(sorted)
	return s.intern(Data{Kind: KRow, RowFields: sorted, RowTail: tail, HasTail: tailPresent})
}

func sortRowFields(fields []RowField) {
	for i := 1; i < len(fields); i++ {
		for j := i; j > 0 && fields[j].Name < fields[j-1].Name; j-- {
			fields[j], fields[j-1] = fields[j-1], fields[j]
		}
	}
}

func (s *Store) NewCtor(id DefID) Ty {
	return s.intern(Data{Kind: KCtor, Ctor: id})
}

func (s *Store) NewAlias(id DefID) Ty {
	return s.intern(Data{Kind: KAlias, Alias: id})
}

func (s *Store) NewApp(head Ty, args []Ty) Ty {
	return s.intern(Data{Kind: KApp, AppHead: head, AppArgs: append([]Ty(nil), args...)})
}

func (s *Store) NewFunc(params []Ty, ret, env Ty, variadic bool) Ty {
	return s.intern(Data{Kind: KFunc, Func: FuncData{
		Params:   append([]Ty(nil), params...),
		Ret:      ret,
		Env:      env,
		Variadic: variadic,
	}})
}

func (s *Store) NewCtnt(c Constraint, inner Ty) Ty {
	return s.intern(Data{Kind: KCtnt, CtntC: c, CtntT: inner})
}

func (s *Store) NewForAll(kinds []Ty, body Ty, scope uint32) Ty {
	return s.intern(Data{Kind: KForAll, ForAllKinds: append([]Ty(nil), kinds...), ForAllBody: body, ForAllScope: scope})
}

// Generalized is `Mono(Ty) | Poly(vars, Ty)` from spec.md §3.
type Generalized struct {
	Poly bool
	Vars []Unknown // only meaningful when Poly
	Ty   Ty
}

// Mono wraps a monomorphic type.
func Mono(t Ty) Generalized { return Generalized{Ty: t} }

// PolyType wraps a polymorphic type generalized over vars.
func PolyType(vars []Unknown, t Ty) Generalized {
	return Generalized{Poly: true, Vars: append([]Unknown(nil), vars...), Ty: t}
}
