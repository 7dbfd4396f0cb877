package mir

import (
	"velac/internal/infer"
	"velac/internal/layout"
	"velac/internal/types"
)

// ReprOf maps an inferred Ty down to the Repr vocabulary internal/layout
// consumes. The original's `repr_of` (`compiler/mir/src/repr.rs`) was not
// retrieved into this pack; this reconstruction follows spec.md §4.3's
// "Enum representation choice (done by the layout engine, consumed here)"
// and §3's Scalar primitive set, dispatching on the same handful of
// builtin constructors internal/infer.Builtins names for literals.
func ReprOf(store *types.Store, builtins infer.Builtins, t types.Ty) layout.Repr {
	d := store.Data(t)
	switch d.Kind {
	case types.KError, types.KUnknown, types.KSkolem, types.KVar:
		// Unresolved or polymorphic: a sized Repr is only ever requested
		// once inference assigns a concrete type, so this path is only
		// reached by a caller probing an ill-typed body; stay total.
		return layout.Repr{Kind: layout.ROpaque}
	case types.KCtor:
		return reprOfCtor(d.Ctor, builtins)
	case types.KApp:
		return reprOfApp(store, builtins, d)
	case types.KRow:
		return reprOfRow(store, builtins, d)
	case types.KFunc:
		return layout.Repr{Kind: layout.RFunc, FuncVariadic: d.Func.Variadic}
	case types.KForAll:
		return ReprOf(store, builtins, d.ForAllBody)
	case types.KCtnt:
		return ReprOf(store, builtins, d.CtntT)
	default:
		return layout.Repr{Kind: layout.RStruct}
	}
}

func reprOfCtor(def types.DefID, builtins infer.Builtins) layout.Repr {
	switch def {
	case builtins.IntCtor:
		return layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.I64, ValidRangeFull: true}}
	case builtins.FloatCtor:
		return layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.F64, ValidRangeFull: true}}
	case builtins.CharCtor:
		return layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.I32, ValidRangeFull: true}}
	case builtins.BoolCtor:
		return layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.I8, ValidLow: 0, ValidHigh: 1}}
	case builtins.StringCtor:
		elem := layout.Repr{Kind: layout.RScalar, Scalar: layout.Scalar{Value: layout.I8, ValidRangeFull: true}}
		return layout.Repr{Kind: layout.RPtr, PtrElem: &elem, PtrFat: true}
	case builtins.NeverCtor:
		return layout.Repr{Kind: layout.REnum, EnumVariants: nil}
	default:
		// A user-defined nullary type constructor with no fields resolved
		// here (field layout belongs to the type-constructor's own
		// declaration, which the out-of-scope resolver owns); treat as
		// the zero-sized unit struct until a caller supplies field reprs
		// through reprOfApp.
		return layout.Repr{Kind: layout.RStruct}
	}
}

func reprOfApp(store *types.Store, builtins infer.Builtins, d types.Data) layout.Repr {
	headData := store.Data(d.AppHead)
	if headData.Kind == types.KCtor {
		switch headData.Ctor {
		case builtins.NeverCtor:
			return layout.Repr{Kind: layout.REnum, EnumVariants: nil}
		case builtins.IntCtor, builtins.FloatCtor:
			// `Int`/`Float` are `App(ctor, widthTag)` (spec.md §4.2's
			// literal rule): the tag is a class constraint variable, not
			// a data field, so the ctor alone determines the repr.
			return reprOfCtor(headData.Ctor, builtins)
		}
	}
	// A generic type application without a resolved field layout (struct
	// field reprs are supplied by the caller once the constructor's own
	// declared fields are substituted) degrades to its single argument's
	// repr when there is exactly one, matching newtype-style wrappers;
	// otherwise it is an opaque aggregate.
	if len(d.AppArgs) == 1 {
		return ReprOf(store, builtins, d.AppArgs[0])
	}
	return layout.Repr{Kind: layout.RStruct}
}

func reprOfRow(store *types.Store, builtins infer.Builtins, d types.Data) layout.Repr {
	fields := make([]layout.Repr, len(d.RowFields))
	for i, f := range d.RowFields {
		fields[i] = ReprOf(store, builtins, f.Type)
	}
	return layout.Repr{Kind: layout.RStruct, StructFields: fields}
}
