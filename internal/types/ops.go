package types

// Fold rebuilds t by applying f to every sub-term bottom-up, then to t
// itself; f is expected to resolve Unknowns (internal/infer's
// ResolveShallow) and otherwise return its argument unchanged. This
// is the mechanism internal/infer's ResolveFully uses, matching the
// original's `Ty::fold`.
func (s *Store) Fold(t Ty, f func(Ty) Ty) Ty {
	d := s.Data(t)
	switch d.Kind {
	case KRow:
		fields := make([]RowField, len(d.RowFields))
		for i, fl := range d.RowFields {
			fields[i] = RowField{Name: fl.Name, Type: s.Fold(fl.Type, f)}
		}
		tail := d.RowTail
		if d.HasTail {
			tail = s.Fold(d.RowTail, f)
		}
		return f(s.NewRow(fields, tail, d.HasTail))
	case KApp:
		head := s.Fold(d.AppHead, f)
		args := make([]Ty, len(d.AppArgs))
		for i, a := range d.AppArgs {
			args[i] = s.Fold(a, f)
		}
		return f(s.NewApp(head, args))
	case KFunc:
		params := make([]Ty, len(d.Func.Params))
		for i, p := range d.Func.Params {
			params[i] = s.Fold(p, f)
		}
		ret := s.Fold(d.Func.Ret, f)
		env := s.Fold(d.Func.Env, f)
		return f(s.NewFunc(params, ret, env, d.Func.Variadic))
	case KCtnt:
		args := make([]Ty, len(d.CtntC.Args))
		for i, a := range d.CtntC.Args {
			args[i] = s.Fold(a, f)
		}
		inner := s.Fold(d.CtntT, f)
		return f(s.NewCtnt(Constraint{Class: d.CtntC.Class, Args: args}, inner))
	case KForAll:
		body := s.Fold(d.ForAllBody, f)
		return f(s.NewForAll(d.ForAllKinds, body, d.ForAllScope))
	default:
		return f(t)
	}
}

// FreeUnknowns walks t and calls visit once for every distinct Unknown
// reachable in it (after resolving through resolve, which should be
// internal/infer's shallow-resolve so solved unknowns are skipped in
// favor of what they're bound to).
func (s *Store) FreeUnknowns(t Ty, resolve func(Ty) Ty, visit func(Unknown)) {
	seen := map[Ty]bool{}
	var walk func(Ty)
	walk = func(t Ty) {
		t = resolve(t)
		if seen[t] {
			return
		}
		seen[t] = true
		d := s.Data(t)
		switch d.Kind {
		case KUnknown:
			visit(d.Unknown)
		case KRow:
			for _, fl := range d.RowFields {
				walk(fl.Type)
			}
			if d.HasTail {
				walk(d.RowTail)
			}
		case KApp:
			walk(d.AppHead)
			for _, a := range d.AppArgs {
				walk(a)
			}
		case KFunc:
			for _, p := range d.Func.Params {
				walk(p)
			}
			walk(d.Func.Ret)
			walk(d.Func.Env)
		case KCtnt:
			for _, a := range d.CtntC.Args {
				walk(a)
			}
			walk(d.CtntT)
		case KForAll:
			walk(d.ForAllBody)
		}
	}
	walk(t)
}
