package types

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"
)

// Dump renders t as a fully expanded tree for test failure messages and
// debugging (no CLI flag calls it), using kr/pretty instead of a
// hand-written String() for every nested variant (the corpus never
// hand-rolls recursive formatters for deeply nested sum types when a
// pretty-printer is available).
func (s *Store) Dump(t Ty) string {
	return pretty.Sprint(s.Data(t))
}

// Show renders t as a short, human-readable approximation of surface
// syntax, used in diagnostics (spec.md §7 records "the two types" of a
// mismatch).
func (s *Store) Show(t Ty) string {
	d := s.Data(t)
	switch d.Kind {
	case KError:
		return "<error>"
	case KUnknown:
		return fmt.Sprintf("?%d", d.Unknown)
	case KSkolem:
		return fmt.Sprintf("$%d", d.Skolem)
	case KVar:
		return fmt.Sprintf("#%d", d.Var)
	case KFigure:
		return fmt.Sprintf("%d", d.Figure)
	case KSymbol:
		return fmt.Sprintf("%q", s.strings.Resolve(d.Symbol))
	case KRow:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, f := range d.RowFields {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %s", s.strings.Resolve(f.Name), s.Show(f.Type))
		}
		if d.HasTail {
			if len(d.RowFields) > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(s.Show(d.RowTail))
		}
		sb.WriteByte('}')
		return sb.String()
	case KCtor:
		return fmt.Sprintf("Ctor#%d", d.Ctor)
	case KAlias:
		return fmt.Sprintf("Alias#%d", d.Alias)
	case KApp:
		var sb strings.Builder
		sb.WriteString(s.Show(d.AppHead))
		for _, a := range d.AppArgs {
			sb.WriteByte(' ')
			sb.WriteString(s.Show(a))
		}
		return sb.String()
	case KFunc:
		var sb strings.Builder
		sb.WriteByte('(')
		for i, p := range d.Func.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(s.Show(p))
		}
		if d.Func.Variadic {
			sb.WriteString(", ...")
		}
		fmt.Fprintf(&sb, ") -> %s", s.Show(d.Func.Ret))
		return sb.String()
	case KCtnt:
		return fmt.Sprintf("%s => %s", s.showConstraint(d.CtntC), s.Show(d.CtntT))
	case KForAll:
		var sb strings.Builder
		sb.WriteString("forall")
		for i := range d.ForAllKinds {
			fmt.Fprintf(&sb, " a%d", i)
		}
		sb.WriteString(". ")
		sb.WriteString(s.Show(d.ForAllBody))
		return sb.String()
	default:
		return "<?>"
	}
}

func (s *Store) showConstraint(c Constraint) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "C#%d", c.Class)
	for _, a := range c.Args {
		sb.WriteByte(' ')
		sb.WriteString(s.Show(a))
	}
	return sb.String()
}
