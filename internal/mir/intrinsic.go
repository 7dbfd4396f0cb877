package mir

import (
	"velac/internal/hir"
	"velac/internal/layout"
)

// lowerIntrinsic implements spec.md §4.3's fixed intrinsic table.
// Grounded on `original_source/compiler/mir/src/lower/intrinsic.rs`'s
// `lower_intrinsic` match, adapted to this package's Builder surface; the
// set is closed, and any name outside it falls through to a generic
// Intrinsic statement the backend must handle (last arm below).
func (c *bodyLowerCtx) lowerIntrinsic(id hir.ExprID, name string, argExprs []hir.ExprID, hint *Place) Operand {
	args := argExprs

	switch name {
	case "apply":
		if len(args) == 0 {
			return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstUndefined}, ConstRepr: c.reprOfExpr(id)}
		}
		fn := c.lowerArg(args[0])
		rest := make([]Operand, len(args)-1)
		for i, a := range args[1:] {
			rest[i] = c.lowerArg(a)
		}
		repr := c.reprOfExpr(id)
		res := c.storeIn(hint, repr)
		c.b.Call(res, fn, rest)
		return Operand{Kind: OpMove, Place: res}

	case "crash":
		c.b.Abort()
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstUnit}, ConstRepr: layout.Repr{Kind: layout.RStruct}}

	case "drop":
		place := c.placeOf(c.lowerArg(args[0]))
		c.b.Drop(place)
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstUnit}, ConstRepr: layout.Repr{Kind: layout.RStruct}}

	case "copy":
		op := c.lowerArg(args[0])
		if op.Kind == OpMove {
			return Operand{Kind: OpCopy, Place: op.Place}
		}
		return op

	case "size_of":
		return c.lowerNullOp(id, NullSizeOf, args, hint)
	case "align_of":
		return c.lowerNullOp(id, NullAlignOf, args, hint)
	case "stride_of":
		return c.lowerNullOp(id, NullStrideOf, args, hint)

	case "addr_of":
		place := c.placeOf(c.lowerArg(args[0]))
		repr := c.reprOfExpr(id)
		res := c.storeIn(hint, repr)
		c.b.Ref(res, place)
		return Operand{Kind: OpMove, Place: res}

	case "ptr_read":
		place := c.placeOf(c.lowerArg(args[0]))
		return Operand{Kind: OpMove, Place: place.Deref()}

	case "ptr_write":
		place := c.placeOf(c.lowerArg(args[0]))
		val := c.lowerArg(args[1])
		c.b.AssignUse(place.Deref(), val)
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstUnit}, ConstRepr: layout.Repr{Kind: layout.RStruct}}

	case "ptr_offset":
		return c.lowerBinOpIntrinsic(id, BinOffset, args, hint)

	case "array_index":
		arr := c.placeOf(c.lowerArg(args[0]))
		idx := c.lowerArg(args[1])
		return Operand{Kind: OpCopy, Place: arr.Index(idx)}

	case "array_slice":
		arr := c.placeOf(c.lowerArg(args[0]))
		lo := c.lowerArg(args[1])
		hi := c.lowerArg(args[2])
		return Operand{Kind: OpCopy, Place: arr.Slice(lo, hi)}

	case "array_len":
		arr := c.placeOf(c.lowerArg(args[0]))
		repr := c.b.LocalRepr(arr.Local)
		length := int64(0)
		if repr.Kind == layout.RArray && repr.ArrayIsConst {
			length = int64(repr.ArrayLen)
		}
		usize := layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.Pointer, ValidRangeFull: true}}
		return Operand{Kind: OpConst, ConstVal: Const{Kind: ConstInt, Int: length}, ConstRepr: usize}

	case "iadd":
		return c.lowerBinOpIntrinsic(id, BinAdd, args, hint)
	case "isub":
		return c.lowerBinOpIntrinsic(id, BinSub, args, hint)
	case "ieq":
		return c.lowerBinOpIntrinsic(id, BinEq, args, hint)
	case "ilt":
		return c.lowerBinOpIntrinsic(id, BinLt, args, hint)

	case "iconvert":
		val := c.lowerArg(args[0])
		repr := c.reprOfExpr(id)
		res := c.storeIn(hint, repr)
		c.b.Cast(res, CastIntToInt, val)
		return Operand{Kind: OpMove, Place: res}

	case "transmute":
		val := c.lowerArg(args[0])
		repr := c.reprOfExpr(id)
		res := c.storeIn(hint, repr)
		c.b.Cast(res, CastBitcast, val)
		return Operand{Kind: OpMove, Place: res}

	default:
		lowered := make([]Operand, len(args))
		for i, a := range args {
			lowered[i] = c.lowerArg(a)
		}
		repr := c.reprOfExpr(id)
		res := c.storeIn(hint, repr)
		c.b.Intrinsic(res, name, lowered)
		return Operand{Kind: OpMove, Place: res}
	}
}

func (c *bodyLowerCtx) lowerBinOpIntrinsic(id hir.ExprID, op RBinOp, args []hir.ExprID, hint *Place) Operand {
	lhs := c.lowerArg(args[0])
	rhs := c.lowerArg(args[1])
	repr := c.reprOfExpr(id)
	res := c.storeIn(hint, repr)
	c.b.BinOp(res, op, lhs, rhs)
	return Operand{Kind: OpMove, Place: res}
}

func (c *bodyLowerCtx) lowerNullOp(id hir.ExprID, op RNullOp, args []hir.ExprID, hint *Place) Operand {
	// The proxy argument names a type, not a value (it is a Proxy-typed
	// expression); its *type*, not its lowering, supplies the repr the
	// NullOp queries.
	proxyRepr := ReprOf(c.lw.Store, c.lw.Builtins, c.typeOfExpr[args[0]])
	repr := c.reprOfExpr(id)
	res := c.storeIn(hint, repr)
	c.b.NullOp(res, op, proxyRepr)
	return Operand{Kind: OpMove, Place: res}
}
