package query

import (
	"context"
	"testing"

	"velac/internal/diagnostics"
	"velac/internal/hir"
	"velac/internal/infer"
	"velac/internal/intern"
	"velac/internal/layout"
	"velac/internal/types"
)

func newTestDatabase() (*Database, *types.Store, infer.Builtins) {
	strs := intern.NewStrings()
	store := types.NewStore(strs)
	builtins := infer.Builtins{
		IntCtor:    types.DefID(100),
		FloatCtor:  types.DefID(101),
		CharCtor:   types.DefID(102),
		StringCtor: types.DefID(103),
		BoolCtor:   types.DefID(104),
		NeverCtor:  types.DefID(105),
	}
	db := NewDatabase(store, strs, builtins, layout.Target{PointerWidth: 8}, diagnostics.NewBag())
	return db, store, builtins
}

func literalDef(id types.DefID, name string) DefInput {
	body := &hir.Body{}
	lit := body.PushExpr(hir.Expr{Kind: hir.ELit, Lit: hir.LInt, LitInt: 42})
	body.Entry = lit
	return DefInput{ID: id, Name: name, Body: body}
}

func TestInferBodyCachesResult(t *testing.T) {
	db, _, _ := newTestDatabase()
	def := literalDef(types.DefID(1), "answer")

	first, err := db.InferBody(context.Background(), def)
	if err != nil {
		t.Fatalf("InferBody: %v", err)
	}
	second, err := db.InferBody(context.Background(), def)
	if err != nil {
		t.Fatalf("InferBody (cached): %v", err)
	}
	if first != second {
		t.Fatalf("expected the second InferBody call to return the cached pointer, got a distinct result")
	}
}

func TestInferBodyDetectsCycleWithoutDeadlock(t *testing.T) {
	db, _, _ := newTestDatabase()
	def := literalDef(types.DefID(2), "recursive")

	ctx := withAncestor(context.Background(), def.ID)
	result, err := db.InferBody(ctx, def)
	if err != nil {
		t.Fatalf("InferBody under self-cycle: %v", err)
	}
	if !result.Recur {
		t.Fatalf("expected a recur placeholder result for a self-referential definition")
	}
	if len(result.TypeOfExpr) != len(def.Body.Exprs) {
		t.Fatalf("recur result should assign a fresh unknown to every expr node")
	}
}

func TestInferBodyRespectsCancellation(t *testing.T) {
	db, _, _ := newTestDatabase()
	def := literalDef(types.DefID(3), "cancelled")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.InferBody(ctx, def)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLowerBodyCachesMirBody(t *testing.T) {
	db, _, _ := newTestDatabase()
	def := literalDef(types.DefID(4), "lowered")

	first, err := db.LowerBody(context.Background(), def, map[types.DefID]string{})
	if err != nil {
		t.Fatalf("LowerBody: %v", err)
	}
	second, err := db.LowerBody(context.Background(), def, map[types.DefID]string{})
	if err != nil {
		t.Fatalf("LowerBody (cached): %v", err)
	}
	if first != second {
		t.Fatalf("expected the second LowerBody call to return the cached pointer")
	}
	if len(first.Blocks) == 0 {
		t.Fatalf("expected at least one block in the lowered body")
	}
}

func TestEvalAllLowersEveryDefinition(t *testing.T) {
	db, _, _ := newTestDatabase()
	defs := []DefInput{
		literalDef(types.DefID(10), "a"),
		literalDef(types.DefID(11), "b"),
		literalDef(types.DefID(12), "c"),
	}

	bodies, err := db.EvalAll(context.Background(), defs, map[types.DefID]string{})
	if err != nil {
		t.Fatalf("EvalAll: %v", err)
	}
	if len(bodies) != len(defs) {
		t.Fatalf("expected %d bodies, got %d", len(defs), len(bodies))
	}
	for i, b := range bodies {
		if b == nil {
			t.Fatalf("body %d was never populated", i)
		}
	}
}
