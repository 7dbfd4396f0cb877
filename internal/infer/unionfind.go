package infer

import "velac/internal/types"

// unionFind tracks equivalence classes of Unknowns that have been unified
// with each other before either was solved to a concrete type, each
// carrying a level (spec.md §4.2's let-generalization level). Unioning two
// classes keeps the smaller (outer) level, matching the original's
// `UnifyValue for UnkLevel` (`value1.min(value2)`) — grounded on
// `original_source/compiler/hir_ty/src/unify.rs`.
type unionFind struct {
	parent map[types.Unknown]types.Unknown
	level  map[types.Unknown]Level
}

func newUnionFind() *unionFind {
	return &unionFind{parent: map[types.Unknown]types.Unknown{}, level: map[types.Unknown]Level{}}
}

func (u *unionFind) register(k types.Unknown, l Level) {
	u.parent[k] = k
	u.level[k] = l
}

func (u *unionFind) find(k types.Unknown) types.Unknown {
	p, ok := u.parent[k]
	if !ok {
		u.register(k, 0)
		return k
	}
	if p == k {
		return k
	}
	root := u.find(p)
	u.parent[k] = root
	return root
}

// probeLevel returns the level recorded for k's equivalence class.
func (u *unionFind) probeLevel(k types.Unknown) Level {
	root := u.find(k)
	return u.level[root]
}

// union merges the classes of a and b, keeping the minimum level, and
// returns the surviving representative.
func (u *unionFind) union(a, b types.Unknown) types.Unknown {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return ra
	}
	la, lb := u.level[ra], u.level[rb]
	lvl := la
	if lb < la {
		lvl = lb
	}
	u.parent[rb] = ra
	u.level[ra] = lvl
	return ra
}
