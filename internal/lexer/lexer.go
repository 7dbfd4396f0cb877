// Package lexer implements the layout-sensitive lexer (Component B): a
// byte-at-a-time scanner in the teacher's style
// (internal/lexer/scanner.go's start/current/line fields and
// advance/peek/match helpers), generalized with a layout-delimiter stack
// that inserts virtual LAYOUT_START/SEP/END tokens so the parser sees an
// explicitly block-structured stream.
package lexer

import (
	"unicode"
	"unicode/utf8"

	"velac/internal/diagnostics"
	"velac/internal/source"
	"velac/internal/token"
)

var keywordSet = token.Keywords

// delimKind is one entry of the layout-delimiter stack described in the
// language's layout model: most are plain brackets/heads that never emit
// virtual tokens; the "indented" ones (see indented()) are what
// LAYOUT_START/SEP/END bracket.
type delimKind uint8

const (
	dRoot delimKind = iota
	dModuleHead
	dModuleBody
	dClassHead
	dClassBody
	dMemberHead
	dMemberBody
	dDeclHead
	dDeclGuards
	dTypeDecl
	dWhere
	dForall
	dProp
	dCase
	dCaseBinders
	dCaseGuard
	dParen
	dBrace
	dSquare
	dIf
	dThen
	dOf
	dDo
)

func indented(k delimKind) bool {
	switch k {
	case dModuleBody, dClassBody, dMemberBody, dDeclGuards, dWhere, dOf, dDo:
		return true
	default:
		return false
	}
}

type delim struct {
	kind delimKind
	pos  token.Pos
}

// Scanner turns one source file into a token stream with layout tokens
// interleaved. Construct with NewScanner and call ScanTokens once.
type Scanner struct {
	file  source.File
	bag   *diagnostics.Bag
	src   string
	start int
	cur   int
	line  int
	col   int

	tokens []token.Token
	stack  []delim

	pendingStart   bool
	pendingStartAt delimKind

	lineStart bool // true until the first non-whitespace token on the current line
}

// NewScanner returns a Scanner over file's content.
func NewScanner(file source.File, bag *diagnostics.Bag) *Scanner {
	return &Scanner{
		file:      file,
		bag:       bag,
		src:       file.Content,
		line:      1,
		col:       1,
		stack:     []delim{{kind: dRoot, pos: token.Pos{Line: 1, Column: 1}}},
		lineStart: true,
	}
}

// ScanTokens runs the full lexer and returns the finished token stream,
// always ending in exactly one EOF (spec.md §8: "lex(s) ends with exactly
// one EOF").
func (s *Scanner) ScanTokens() []token.Token {
	for !s.isAtEnd() {
		r, w := s.peekRune()
		switch {
		case r == '\n':
			s.advanceRune()
			s.line++
			s.col = 1
			s.lineStart = true
		case r == '\r':
			s.advanceRune()
			if p, _ := s.peekRune(); p == '\n' {
				s.advanceRune()
			}
			s.line++
			s.col = 1
			s.lineStart = true
		case unicode.IsSpace(r):
			s.advanceRune()
		case r == '/' && s.peekAt(w) == '/':
			for !s.isAtEnd() {
				if r, _ := s.peekRune(); r == '\n' {
					break
				}
				s.advanceRune()
			}
		default:
			s.start = s.cur
			startPos := token.Pos{Line: s.line, Column: s.col}
			s.scanOne(startPos)
			s.lineStart = false
		}
	}
	s.insertDefault(token.Pos{Line: s.line, Column: s.col})
	for i := len(s.stack) - 1; i >= 0; i-- {
		if indented(s.stack[i].kind) {
			s.emit(token.Token{Kind: token.LayoutEnd})
		}
	}
	s.emit(token.Token{Kind: token.EOF, Start: token.Pos{Line: s.line, Column: s.col}, End: token.Pos{Line: s.line, Column: s.col}})
	return s.tokens
}

func (s *Scanner) isAtEnd() bool { return s.cur >= len(s.src) }

func (s *Scanner) peekRune() (rune, int) {
	if s.isAtEnd() {
		return 0, 0
	}
	return utf8.DecodeRuneInString(s.src[s.cur:])
}

func (s *Scanner) peekAt(offset int) byte {
	if s.cur+offset >= len(s.src) {
		return 0
	}
	return s.src[s.cur+offset]
}

func (s *Scanner) advanceRune() rune {
	r, w := utf8.DecodeRuneInString(s.src[s.cur:])
	s.cur += w
	s.col++
	return r
}

func (s *Scanner) lexeme() string { return s.src[s.start:s.cur] }

func (s *Scanner) errorf(kind diagnostics.Kind, msg string, at token.Pos) {
	s.bag.Add(diagnostics.Diagnostic{
		Severity: diagnostics.Warning,
		Kind:     kind,
		Message:  msg,
		Primary:  diagnostics.Annotation{File: s.file.ID, From: at, To: at, Message: msg},
	})
}

// insertDefault implements the spec's "insert default" operation: before
// emitting a physical token at p, collapse indented delimiters past the
// strict offside line, emit a LAYOUT_SEP on a same-column continuation,
// then (the caller) emits the token itself.
func (s *Scanner) insertDefault(p token.Pos) {
	for len(s.stack) > 1 {
		top := s.stack[len(s.stack)-1]
		if !indented(top.kind) {
			break
		}
		if top.pos.Line != p.Line && top.pos.Column > p.Column {
			s.stack = s.stack[:len(s.stack)-1]
			s.emit(token.Token{Kind: token.LayoutEnd, Start: p, End: p})
			continue
		}
		break
	}
	if len(s.stack) > 1 {
		top := s.stack[len(s.stack)-1]
		if indented(top.kind) && top.pos.Column == p.Column && top.pos.Line != p.Line {
			s.emit(token.Token{Kind: token.LayoutSep, Start: p, End: p})
		}
	}
}

// insertStart schedules a LAYOUT_START to be opened at the next physical
// token, with the given delimiter kind pushed at that token's position.
func (s *Scanner) insertStart(kind delimKind) {
	s.pendingStart = true
	s.pendingStartAt = kind
}

func (s *Scanner) emit(t token.Token) {
	s.tokens = append(s.tokens, t)
}

// scanOne lexes exactly one physical token at startPos and runs it
// through the layout machinery.
func (s *Scanner) scanOne(startPos token.Pos) {
	s.insertDefault(startPos)

	r, _ := s.peekRune()
	var tok token.Token
	switch {
	case isIdentStart(r):
		tok = s.scanIdent(startPos)
	case unicode.IsDigit(r):
		tok = s.scanNumber(startPos)
	case r == '"':
		tok = s.scanString(startPos)
	case r == '\'':
		tok = s.scanChar(startPos)
	case isPunct(r):
		tok = s.scanPunct(startPos)
	case isOperatorChar(r):
		tok = s.scanOperator(startPos)
	default:
		s.advanceRune()
		s.errorf(diagnostics.LexUnknownChar, "unknown character", startPos)
		tok = token.Token{Kind: token.Error, Lexeme: s.lexeme(), Start: startPos, End: token.Pos{Line: s.line, Column: s.col}}
	}

	if s.pendingStart {
		if s.pendingStartAt == dDo && (tok.Kind == token.KwDo || tok.Kind == token.KwTry) {
			// A DeclHead's `=` schedules a Do the same way an explicit
			// `do`/`try` keyword does; when the declaration's RHS is
			// itself that keyword, let the keyword's own trigger open
			// the block so it isn't opened twice (spec.md §8 scenario 1:
			// `f = do` lexes to `..., EQUALS, DO_KW, LAYOUT_START, ...`,
			// not a LAYOUT_START wrapping DO_KW itself).
			s.pendingStart = false
		} else {
			s.stack = append(s.stack, delim{kind: s.pendingStartAt, pos: startPos})
			s.pendingStart = false
			s.emit(token.Token{Kind: token.LayoutStart, Start: startPos, End: startPos})
		}
	}

	s.applyKeywordTrigger(tok)
	s.emit(tok)
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentCont(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

func (s *Scanner) scanIdent(start token.Pos) token.Token {
	for {
		r, _ := s.peekRune()
		if !isIdentCont(r) {
			break
		}
		s.advanceRune()
	}
	text := s.lexeme()
	end := token.Pos{Line: s.line, Column: s.col}

	// A field projector's Prop delimiter guards exactly the one identifier
	// following `.`: it is never reinterpreted as a keyword (spec.md
	// §4.1's "pushes Prop so the next identifier is not interpreted as a
	// keyword").
	afterProp := false
	if top, ok := s.top(); ok && top.kind == dProp {
		afterProp = true
		s.popTop()
	}

	if !afterProp {
		if kw, ok := keywordSet[text]; ok {
			return token.Token{Kind: kw, Lexeme: text, Start: start, End: end}
		}
	}
	r, _ := utf8.DecodeRuneInString(text)
	if unicode.IsUpper(r) {
		return token.Token{Kind: token.TypeIdent, Lexeme: text, Start: start, End: end}
	}
	return token.Token{Kind: token.Ident, Lexeme: text, Start: start, End: end}
}

func (s *Scanner) scanNumber(start token.Pos) token.Token {
	for {
		r, _ := s.peekRune()
		if !unicode.IsDigit(r) {
			break
		}
		s.advanceRune()
	}
	isFloat := false
	if r, w := s.peekRune(); r == '.' && unicode.IsDigit(rune(s.peekAt(w))) {
		isFloat = true
		s.advanceRune()
		for {
			r, _ := s.peekRune()
			if !unicode.IsDigit(r) {
				break
			}
			s.advanceRune()
		}
	}
	end := token.Pos{Line: s.line, Column: s.col}
	if isFloat {
		return token.Token{Kind: token.Float, Lexeme: s.lexeme(), Start: start, End: end}
	}
	return token.Token{Kind: token.Int, Lexeme: s.lexeme(), Start: start, End: end}
}

func (s *Scanner) scanString(start token.Pos) token.Token {
	s.advanceRune() // opening quote
	for {
		r, _ := s.peekRune()
		if r == 0 || r == '\n' {
			s.errorf(diagnostics.LexUnterminated, "unterminated string literal", start)
			return token.Token{Kind: token.Error, Lexeme: s.lexeme(), Start: start, End: token.Pos{Line: s.line, Column: s.col}}
		}
		if r == '\\' {
			s.advanceRune()
			s.advanceRune()
			continue
		}
		if r == '"' {
			s.advanceRune()
			break
		}
		s.advanceRune()
	}
	return token.Token{Kind: token.String, Lexeme: s.lexeme(), Start: start, End: token.Pos{Line: s.line, Column: s.col}}
}

func (s *Scanner) scanChar(start token.Pos) token.Token {
	s.advanceRune() // opening quote
	if r, _ := s.peekRune(); r == '\\' {
		s.advanceRune()
	}
	s.advanceRune()
	if r, _ := s.peekRune(); r == '\'' {
		s.advanceRune()
	} else {
		s.errorf(diagnostics.LexUnterminated, "unterminated char literal", start)
		return token.Token{Kind: token.Error, Lexeme: s.lexeme(), Start: start, End: token.Pos{Line: s.line, Column: s.col}}
	}
	return token.Token{Kind: token.Char, Lexeme: s.lexeme(), Start: start, End: token.Pos{Line: s.line, Column: s.col}}
}

func isPunct(r rune) bool {
	switch r {
	case '(', ')', '{', '}', '[', ']', ',', '@', '`', ';':
		return true
	}
	return false
}

// scanPunct handles the single-rune punctuation set (spec.md §3). The
// multi-character spellings ->, <-, :: and .. are produced by
// scanOperator, not here.
func (s *Scanner) scanPunct(start token.Pos) token.Token {
	r := s.advanceRune()
	end := func() token.Pos { return token.Pos{Line: s.line, Column: s.col} }
	switch r {
	case '(':
		return s.scanParenOrSymbol(start)
	case ')':
		return token.Token{Kind: token.RParen, Lexeme: ")", Start: start, End: end()}
	case '{':
		return token.Token{Kind: token.LBrace, Lexeme: "{", Start: start, End: end()}
	case '}':
		return token.Token{Kind: token.RBrace, Lexeme: "}", Start: start, End: end()}
	case '[':
		return token.Token{Kind: token.LBracket, Lexeme: "[", Start: start, End: end()}
	case ']':
		return token.Token{Kind: token.RBracket, Lexeme: "]", Start: start, End: end()}
	case ',':
		return token.Token{Kind: token.Comma, Lexeme: ",", Start: start, End: end()}
	case '@':
		return token.Token{Kind: token.At, Lexeme: "@", Start: start, End: end()}
	case '`':
		return token.Token{Kind: token.Backtick, Lexeme: "`", Start: start, End: end()}
	case ';':
		return token.Token{Kind: token.Semi, Lexeme: ";", Start: start, End: end()}
	default:
		return token.Token{Kind: token.Error, Lexeme: string(r), Start: start, End: end()}
	}
}

// scanParenOrSymbol implements "`(` immediately followed by operator
// characters followed by `)` is a single SYMBOL token; otherwise `(`
// opens a Paren delimiter" (spec.md §4.1).
func (s *Scanner) scanParenOrSymbol(start token.Pos) token.Token {
	save := s.cur
	saveLine, saveCol := s.line, s.col
	opStart := s.cur
	for {
		r, _ := s.peekRune()
		if !isOperatorChar(r) {
			break
		}
		s.advanceRune()
	}
	if s.cur > opStart {
		if r, _ := s.peekRune(); r == ')' {
			op := s.src[opStart:s.cur]
			s.advanceRune()
			return token.Token{Kind: token.Symbol, Lexeme: "(" + op + ")", Start: start, End: token.Pos{Line: s.line, Column: s.col}}
		}
	}
	s.cur, s.line, s.col = save, saveLine, saveCol
	s.stack = append(s.stack, delim{kind: dParen, pos: start})
	return token.Token{Kind: token.LParen, Lexeme: "(", Start: start, End: token.Pos{Line: s.line, Column: s.col}}
}

func isOperatorChar(r rune) bool {
	switch r {
	case '!', '@', '#', '$', '%', '^', '&', '*', '-', '+', '=', '~', '\\', '/', '?', '<', '>', '|', ':', ',', '.':
		return true
	}
	return false
}

// scanOperator lexes a maximal run of operator characters, splitting out
// the grammatical punctuation spellings `->`, `<-`, `::`, `..`, `=`, `:`,
// `.`, `|` that the layout model treats specially (spec.md §4.1's
// keyword-trigger table keys off exactly these).
func (s *Scanner) scanOperator(start token.Pos) token.Token {
	for {
		r, _ := s.peekRune()
		if !isOperatorChar(r) {
			break
		}
		s.advanceRune()
	}
	text := s.lexeme()
	end := token.Pos{Line: s.line, Column: s.col}
	switch text {
	case "->":
		return token.Token{Kind: token.Arrow, Lexeme: text, Start: start, End: end}
	case "<-":
		return token.Token{Kind: token.LeftArrow, Lexeme: text, Start: start, End: end}
	case "::":
		return token.Token{Kind: token.DblColon, Lexeme: text, Start: start, End: end}
	case "..":
		return token.Token{Kind: token.DotDot, Lexeme: text, Start: start, End: end}
	case "=":
		return token.Token{Kind: token.Equals, Lexeme: text, Start: start, End: end}
	case ":":
		return token.Token{Kind: token.Colon, Lexeme: text, Start: start, End: end}
	case ".":
		if s.isFieldProjector() {
			s.stack = append(s.stack, delim{kind: dProp, pos: start})
		}
		return token.Token{Kind: token.Dot, Lexeme: text, Start: start, End: end}
	case "|":
		return token.Token{Kind: token.Pipe, Lexeme: text, Start: start, End: end}
	default:
		return token.Token{Kind: token.Operator, Lexeme: text, Start: start, End: end}
	}
}

// isFieldProjector reports whether the `.` starting at s.start (already
// consumed up to s.cur) is a field projector rather than an ordinary
// operator character: preceded, with no whitespace, by an identifier
// character, and followed by an identifier-start (spec.md §4.1's
// "Operator recognition").
func (s *Scanner) isFieldProjector() bool {
	if s.start == 0 {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(s.src[:s.start])
	if !isIdentCont(prev) {
		return false
	}
	next, _ := s.peekRune()
	return isIdentStart(next)
}

// isDeclBody reports whether kind is an indented body that directly
// houses `ident = ...` declarations, as opposed to an expression body
// (Do), a case-arm body (Of), or a non-body delimiter.
func isDeclBody(kind delimKind) bool {
	switch kind {
	case dModuleBody, dClassBody, dMemberBody, dWhere:
		return true
	default:
		return false
	}
}

// applyKeywordTrigger implements the layout-delimiter half of spec.md
// §4.1's keyword-trigger table: module/class/member heads, where-clauses,
// declaration heads, do/try/if/then/else blocks, case/of, and the
// arrow/pipe collapse rules.
func (s *Scanner) applyKeywordTrigger(t token.Token) {
	switch t.Kind {
	case token.KwModule:
		s.stack = append(s.stack, delim{kind: dModuleHead, pos: t.Start})
	case token.KwClass:
		s.stack = append(s.stack, delim{kind: dClassHead, pos: t.Start})
	case token.KwMember:
		s.stack = append(s.stack, delim{kind: dMemberHead, pos: t.Start})
	case token.KwWhere:
		s.insertStart(dWhere)
	case token.KwFn:
		s.stack = append(s.stack, delim{kind: dDeclHead, pos: t.Start})
	case token.Ident:
		// "fn, new ident at indent column of current body -> push
		// DeclHead" (spec.md §4.1): a bare `ident = ...` declaration has
		// no leading `fn`, so the ident itself at the body's own indent
		// column is the trigger.
		if top, ok := s.top(); ok && isDeclBody(top.kind) && t.Start.Column == top.pos.Column {
			s.stack = append(s.stack, delim{kind: dDeclHead, pos: t.Start})
		}
	case token.DblColon:
		s.popIfTop(dDeclHead)
	case token.KwDo, token.KwTry:
		s.insertStart(dDo)
	case token.KwIf:
		s.stack = append(s.stack, delim{kind: dIf, pos: t.Start})
	case token.KwThen:
		s.collapseTo(dIf)
		s.popTop()
		s.stack = append(s.stack, delim{kind: dThen, pos: t.Start})
	case token.KwElse:
		s.popIfTop(dThen)
	case token.KwCase:
		s.stack = append(s.stack, delim{kind: dCase, pos: t.Start})
	case token.KwOf:
		s.popIfTop(dCase)
		s.insertStart(dOf)
		s.stack = append(s.stack, delim{kind: dCaseBinders, pos: t.Start})
	case token.Equals:
		s.applyEqualsTrigger()
	case token.Arrow:
		s.collapseTo(dDo)
		s.popIfTop(dCaseBinders)
		s.popIfTop(dCaseGuard)
		s.popIfTop(dDeclHead)
	case token.Pipe:
		if top, ok := s.top(); ok && top.kind == dOf {
			s.stack = append(s.stack, delim{kind: dCaseGuard, pos: t.Start})
		}
	case token.RParen:
		s.popIfTop(dParen)
	}
}

// applyEqualsTrigger dispatches `=` per the head it follows: ModuleHead
// becomes ModuleBody, ClassHead/MemberHead become ClassBody/MemberBody,
// DeclHead becomes a declaration body (Do). Any other top (Do, Of,
// CaseGuard, Where, ...) leaves `=` as plain equality/pattern syntax with
// no layout effect, e.g. the `=` in a `let x = 1` binding inside an
// already-open Do block.
func (s *Scanner) applyEqualsTrigger() {
	top, ok := s.top()
	if !ok {
		return
	}
	switch top.kind {
	case dModuleHead:
		s.popTop()
		s.insertStart(dModuleBody)
	case dClassHead:
		s.popTop()
		s.insertStart(dClassBody)
	case dMemberHead:
		s.popTop()
		s.insertStart(dMemberBody)
	case dDeclHead:
		s.popTop()
		s.insertStart(dDo)
	}
}

func (s *Scanner) top() (delim, bool) {
	if len(s.stack) == 0 {
		return delim{}, false
	}
	return s.stack[len(s.stack)-1], true
}

func (s *Scanner) popTop() {
	if len(s.stack) > 1 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

func (s *Scanner) popIfTop(kind delimKind) {
	if top, ok := s.top(); ok && top.kind == kind {
		s.popTop()
	}
}

// collapseTo pops delimiters until the top is kind or the stack bottoms
// out, emitting LAYOUT_END for any indented delimiter popped along the
// way.
func (s *Scanner) collapseTo(kind delimKind) {
	for len(s.stack) > 1 {
		top := s.stack[len(s.stack)-1]
		if top.kind == kind {
			return
		}
		s.stack = s.stack[:len(s.stack)-1]
		if indented(top.kind) {
			s.emit(token.Token{Kind: token.LayoutEnd})
		}
	}
}
