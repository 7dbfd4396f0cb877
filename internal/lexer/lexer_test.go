package lexer

import (
	"testing"

	"velac/internal/diagnostics"
	"velac/internal/source"
	"velac/internal/token"
)

func scan(t *testing.T, src string) []token.Token {
	t.Helper()
	set := source.NewSet()
	id := set.AddContent("test.vela", src)
	bag := diagnostics.NewBag()
	s := NewScanner(set.Get(id), bag)
	return s.ScanTokens()
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func assertKinds(t *testing.T, got []token.Kind, want []token.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s (full: %v)", i, got[i], want[i], got)
		}
	}
}

// TestEndsInExactlyOneEOF covers spec.md §8's "for every input s, lex(s)
// ends with exactly one EOF".
func TestEndsInExactlyOneEOF(t *testing.T) {
	toks := scan(t, "module M =\n  f = 1\n")
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		t.Fatalf("token stream does not end in EOF: %v", kinds(toks))
	}
	count := 0
	for _, tk := range toks {
		if tk.Kind == token.EOF {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one EOF, got %d", count)
	}
}

// TestLayoutNestingWellFormed covers spec.md §8: every LAYOUT_START has a
// matching later LAYOUT_END.
func TestLayoutNestingWellFormed(t *testing.T) {
	toks := scan(t, "module M =\n  f = do\n    let x = 1\n    x\n")
	depth := 0
	for _, tk := range toks {
		switch tk.Kind {
		case token.LayoutStart:
			depth++
		case token.LayoutEnd:
			depth--
			if depth < 0 {
				t.Fatalf("LAYOUT_END without a matching LAYOUT_START")
			}
		}
	}
	if depth != 0 {
		t.Fatalf("unbalanced layout tokens: depth %d at EOF", depth)
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := scan(t, "module M\n")
	assertKinds(t, kinds(toks), []token.Kind{token.KwModule, token.TypeIdent, token.EOF})
}

func TestSymbolFromParenthesizedOperator(t *testing.T) {
	toks := scan(t, "(+)\n")
	if toks[0].Kind != token.Symbol || toks[0].Lexeme != "(+)" {
		t.Fatalf("(+) did not lex to a single SYMBOL token: %v", toks[0])
	}
}

func TestUnterminatedStringIsRecoverable(t *testing.T) {
	toks := scan(t, "\"abc\nx\n")
	if toks[0].Kind != token.Error {
		t.Fatalf("unterminated string did not produce an ERROR token: %v", toks[0])
	}
}

func TestIntAndFloatLiterals(t *testing.T) {
	toks := scan(t, "42 3.14\n")
	assertKinds(t, kinds(toks)[:2], []token.Kind{token.Int, token.Float})
}

// TestDoDeclScenarioMatchesLiteralTokenSequence covers spec.md §8 scenario
// 1 exactly: a declaration whose body is a bare `do` block lexes to a
// single LAYOUT_START opening the do block itself, not a spurious extra
// LAYOUT_START/END pair wrapping DO_KW from the declaration's own `=`.
func TestDoDeclScenarioMatchesLiteralTokenSequence(t *testing.T) {
	src := "module M =\nf = do\n  let x = 1\n  x"
	toks := scan(t, src)
	assertKinds(t, kinds(toks), []token.Kind{
		token.KwModule, token.TypeIdent, token.Equals,
		token.LayoutStart, token.Ident, token.Equals, token.KwDo,
		token.LayoutStart, token.KwLet, token.Ident, token.Equals, token.Int,
		token.LayoutSep, token.Ident,
		token.LayoutEnd, token.LayoutEnd, token.EOF,
	})
}

// TestDeclHeadAllowsAlignedSiblingDeclarations covers the "new ident at
// indent column of current body -> push DeclHead" trigger across more
// than one declaration: each `ident = ...` aligned with the module body's
// column opens and closes its own Do block.
func TestDeclHeadAllowsAlignedSiblingDeclarations(t *testing.T) {
	toks := scan(t, "module M =\nf = 1\ng = 2")
	assertKinds(t, kinds(toks), []token.Kind{
		token.KwModule, token.TypeIdent, token.Equals,
		token.LayoutStart, token.Ident, token.Equals,
		token.LayoutStart, token.Int, token.LayoutEnd,
		token.LayoutSep, token.Ident, token.Equals,
		token.LayoutStart, token.Int, token.LayoutEnd,
		token.LayoutEnd, token.EOF,
	})
}

// TestFieldProjectorSuppressesKeywordReinterpretation covers spec.md
// §4.1's Operator recognition rule: `.` immediately between an identifier
// and an identifier-start is a field projector and pushes Prop so the
// following identifier is never reinterpreted as a keyword.
func TestFieldProjectorSuppressesKeywordReinterpretation(t *testing.T) {
	toks := scan(t, "foo.case\n")
	assertKinds(t, kinds(toks), []token.Kind{token.Ident, token.Dot, token.Ident, token.EOF})
}

// TestDotWithSpaceIsNotAFieldProjector checks the negative case: `.`
// preceded by whitespace is plain operator punctuation, so a following
// keyword spelling still lexes as that keyword.
func TestDotWithSpaceIsNotAFieldProjector(t *testing.T) {
	toks := scan(t, "foo . case\n")
	assertKinds(t, kinds(toks), []token.Kind{token.Ident, token.Dot, token.KwCase, token.EOF})
}
