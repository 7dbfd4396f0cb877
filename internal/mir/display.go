package mir

import (
	"github.com/kr/pretty"
)

// Dump renders m as a fully expanded tree for test failure messages and
// debugging (no CLI flag calls it), using kr/pretty rather than a
// hand-written recursive formatter for MIR's nested statement/operand/place
// variants, matching internal/types.Store.Dump.
func (m *Module) Dump() string {
	return pretty.Sprint(m)
}

// Dump renders a single body, for callers that already hold one definition
// (e.g. a test failure message naming one function) and don't want the
// whole module's noise.
func (b *Body) Dump() string {
	return pretty.Sprint(b)
}
