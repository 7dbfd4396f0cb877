// Package query implements the memoizing query database spec.md §5
// describes: independent per-definition queries (type inference, MIR
// lowering) evaluated in parallel, results cached and shared by reference,
// with cooperative cancellation at query boundaries. Grounded on the
// teacher's `internal/concurrency/concurrency.go` (worker-pool/semaphore
// shape) and `internal/module/module.go` (RWMutex-protected id-indexed
// cache), using `golang.org/x/sync/errgroup` for the parallel fan-out spec.md
// §5 asks for.
package query

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"velac/internal/diagnostics"
	"velac/internal/hir"
	"velac/internal/infer"
	"velac/internal/intern"
	"velac/internal/layout"
	"velac/internal/mir"
	"velac/internal/types"
)

// DefInput is one value definition's typed-HIR input: everything
// InferBody/LowerBody need that does not come from the shared Database.
type DefInput struct {
	ID   types.DefID
	Name string
	Body *hir.Body
}

// InferResult is one definition's type-inference output: per-node types
// plus whatever class constraints inference left outstanding (dictionary
// passing is an external backend concern, spec.md §1).
type InferResult struct {
	TypeOfExpr  map[hir.ExprID]types.Ty
	TypeOfPat   map[hir.PatID]types.Ty
	Constraints []types.Constraint
	Unresolved  []infer.DeferredConstraint

	// Recur is true when this result is the "fresh unknowns instead of
	// looping" placeholder spec.md §5 requires for a definition that
	// (directly or transitively) refers back to itself. A recur result is
	// never cached; the definition that closes the cycle recomputes once
	// the cycle unwinds.
	Recur bool
}

// ancestorsKey is the context key carrying the chain of DefIDs currently
// being inferred on this call stack, so a self- or mutually-recursive
// reference can be told apart from an unrelated concurrent request for the
// same definition (which should simply share the in-flight computation).
type ancestorsKey struct{}

func ancestorsOf(ctx context.Context) []types.DefID {
	if v, ok := ctx.Value(ancestorsKey{}).([]types.DefID); ok {
		return v
	}
	return nil
}

func withAncestor(ctx context.Context, id types.DefID) context.Context {
	chain := ancestorsOf(ctx)
	extended := make([]types.DefID, len(chain)+1)
	copy(extended, chain)
	extended[len(chain)] = id
	return context.WithValue(ctx, ancestorsKey{}, extended)
}

func onStack(ctx context.Context, id types.DefID) bool {
	for _, a := range ancestorsOf(ctx) {
		if a == id {
			return true
		}
	}
	return false
}

// inflight is a single definition's shared in-progress-or-done computation;
// the first caller registers it in inferFlight and computes, everyone else
// waits on done. This is a minimal hand-rolled singleflight rather than
// golang.org/x/sync/singleflight, because a genuine cycle must be able to
// observe "I am already computing this" and take the recur branch instead
// of blocking on its own result.
type inflight struct {
	done   chan struct{}
	result *InferResult
	err    error
}

// Database is the shared state one build session's queries run against:
// the type store and builtins (read-mostly, RWMutex-protected internally —
// see internal/types.Store and internal/intern.Strings), the diagnostic
// bag, and the memoization tables for each query kind. A Database is safe
// for concurrent use by multiple goroutines.
type Database struct {
	Store    *types.Store
	Strings  *intern.Strings
	Builtins infer.Builtins
	Target   layout.Target
	Bag      *diagnostics.Bag

	// SessionID tags every error EvalAll returns, so interleaved output from
	// parallel queries can be correlated back to one build invocation.
	SessionID uuid.UUID

	sem chan struct{}

	mu          chanMutex
	inferCache  map[types.DefID]*InferResult
	inferFlight map[types.DefID]*inflight

	mirCache map[types.DefID]*mir.Body
}

// chanMutex is a sync.Mutex with a select-friendly Lock, used where a
// goroutine must hold a query-table lock only across a map read/write, never
// across a blocking wait (the blocking waits below always happen with the
// lock released, on a dedicated done channel instead).
type chanMutex chan struct{}

func newChanMutex() chanMutex { m := make(chanMutex, 1); m <- struct{}{}; return m }
func (m chanMutex) Lock()     { <-m }
func (m chanMutex) Unlock()   { m <- struct{}{} }

// NewDatabase returns an empty Database with a bounded worker count of
// runtime.GOMAXPROCS(0), mirroring spec.md §5's "independent queries may be
// evaluated in parallel by different threads" without unbounded fan-out.
func NewDatabase(store *types.Store, strings *intern.Strings, builtins infer.Builtins, target layout.Target, bag *diagnostics.Bag) *Database {
	return &Database{
		Store:       store,
		Strings:     strings,
		Builtins:    builtins,
		Target:      target,
		Bag:         bag,
		SessionID:   uuid.New(),
		sem:         make(chan struct{}, max(1, runtime.GOMAXPROCS(0))),
		mu:          newChanMutex(),
		inferCache:  make(map[types.DefID]*InferResult),
		inferFlight: make(map[types.DefID]*inflight),
		mirCache:    make(map[types.DefID]*mir.Body),
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// InferBody runs (or returns the cached/in-flight result of) type inference
// for one definition. Cancellation is checked at entry — the query
// boundary spec.md §5 designates as the only legal suspension point; once
// inference for this body starts, it runs to completion synchronously.
func (db *Database) InferBody(ctx context.Context, def DefInput) (*InferResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if onStack(ctx, def.ID) {
		// Cycle: spec.md §5's "recur marker", producing fresh unknowns
		// instead of looping. Never cached — the definition that actually
		// owns this DefID computes and caches the real result once its own
		// call completes.
		return db.recurResult(def), nil
	}

	db.mu.Lock()
	if cached, ok := db.inferCache[def.ID]; ok {
		db.mu.Unlock()
		return cached, nil
	}
	if fl, ok := db.inferFlight[def.ID]; ok {
		db.mu.Unlock()
		select {
		case <-fl.done:
			return fl.result, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	fl := &inflight{done: make(chan struct{})}
	db.inferFlight[def.ID] = fl
	db.mu.Unlock()

	childCtx := withAncestor(ctx, def.ID)
	result, err := db.inferDefBody(childCtx, def)

	db.mu.Lock()
	delete(db.inferFlight, def.ID)
	if err == nil {
		db.inferCache[def.ID] = result
	}
	db.mu.Unlock()

	fl.result, fl.err = result, err
	close(fl.done)
	return result, err
}

// recurResult is the placeholder InferResult a cyclic reference receives:
// every node types to a fresh Unknown, so the cycle's eventual real result
// can unify against it without the query ever blocking on itself.
func (db *Database) recurResult(def DefInput) *InferResult {
	ctx := infer.NewCtx(&infer.Env{Store: db.Store, Strings: db.Strings, Builtins: db.Builtins})
	typeOfExpr := make(map[hir.ExprID]types.Ty, len(def.Body.Exprs))
	for id := range def.Body.Exprs {
		typeOfExpr[hir.ExprID(id)] = ctx.FreshUnknown(db.Builtins.IntTagKind)
	}
	typeOfPat := make(map[hir.PatID]types.Ty, len(def.Body.Pats))
	for id := range def.Body.Pats {
		typeOfPat[hir.PatID(id)] = ctx.FreshUnknown(db.Builtins.IntTagKind)
	}
	return &InferResult{TypeOfExpr: typeOfExpr, TypeOfPat: typeOfPat, Recur: true}
}

func (db *Database) inferDefBody(ctx context.Context, def DefInput) (*InferResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	env := &infer.Env{Store: db.Store, Strings: db.Strings, Builtins: db.Builtins}
	c := infer.NewCtx(env)

	typeOfExpr := make(map[hir.ExprID]types.Ty)
	typeOfPat := make(map[hir.PatID]types.Ty, len(def.Body.Params))

	for _, p := range def.Body.Params {
		pt := c.FreshUnknown(db.Builtins.IntTagKind)
		typeOfPat[p] = c.InferPat(def.Body, p, infer.HasType(pt))
	}
	c.InferExpr(def.Body, def.Body.Entry, infer.NoExpectation, typeOfExpr)

	unresolved := c.Solve()
	constraints := make([]types.Constraint, len(unresolved))
	for i, u := range unresolved {
		constraints[i] = u.Constraint
	}

	return &InferResult{
		TypeOfExpr:  typeOfExpr,
		TypeOfPat:   typeOfPat,
		Constraints: constraints,
		Unresolved:  unresolved,
	}, nil
}

// LowerBody runs InferBody (if not already cached) and then lowers the
// result to MIR, caching the MIR body by definition id the same way.
func (db *Database) LowerBody(ctx context.Context, def DefInput, intrinsics map[types.DefID]string) (*mir.Body, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db.mu.Lock()
	if cached, ok := db.mirCache[def.ID]; ok {
		db.mu.Unlock()
		return cached, nil
	}
	db.mu.Unlock()

	inferred, err := db.InferBody(ctx, def)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lw := &mir.Lowerer{
		Store:      db.Store,
		Strings:    db.Strings,
		Builtins:   db.Builtins,
		Target:     db.Target,
		Bag:        db.Bag,
		Intrinsics: intrinsics,
	}
	body := lw.LowerBody(def.Body, inferred.TypeOfExpr, inferred.TypeOfPat, inferred.Constraints)

	db.mu.Lock()
	db.mirCache[def.ID] = body
	db.mu.Unlock()

	return body, nil
}

// EvalAll infers and lowers every definition in defs, running up to
// runtime.GOMAXPROCS(0) of them concurrently via errgroup (spec.md §5:
// "independent queries may be evaluated in parallel by different
// threads"). The first error (including context cancellation) stops
// scheduling further work and is returned; results already computed stay
// cached, matching "all arena/interner writes so far are preserved... partial
// results are discarded" — only the MIR slice returned here is partial, the
// shared Database is not corrupted by it.
func (db *Database) EvalAll(ctx context.Context, defs []DefInput, intrinsics map[types.DefID]string) ([]*mir.Body, error) {
	results := make([]*mir.Body, len(defs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cap(db.sem))

	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			body, err := db.LowerBody(gctx, def, intrinsics)
			if err != nil {
				return fmt.Errorf("session %s: definition %q: %w", db.SessionID, def.Name, err)
			}
			results[i] = body
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
