// Package lexer implements lexical analysis for xorlang, including the
// lexer-level import directive that splices other files into the stream.
package lexer

import (
	"os"
	"path/filepath"

	"github.com/Mr-Ali-Jafari/xorlang/internal/diag"
	"github.com/Mr-Ali-Jafari/xorlang/internal/span"
	"github.com/Mr-Ali-Jafari/xorlang/internal/token"
)

// Lexer tokenizes source code into a sequence of tokens. Lexing halts at
// the first error.
type Lexer struct {
	source   string
	filename string
	stdlib   string // stdlib root for quoted-import resolution, may be empty

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	pending []token.Token // spliced tokens from a quoted import
	err     *diag.Error
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

// SetStdlibDir sets the stdlib root consulted when resolving quoted imports.
func (l *Lexer) SetStdlibDir(dir string) {
	l.stdlib = dir
}

// Tokenize scans the entire source. It returns the token stream ending in
// EOF, or the first lexical error.
func (l *Lexer) Tokenize() ([]token.Token, *diag.Error) {
	var tokens []token.Token
	for {
		tok := l.nextToken()
		if l.err != nil {
			return nil, l.err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, nil
}

// ---- internal helpers ----

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// curPos returns the current position as a span.Position.
func (l *Lexer) curPos() span.Position {
	return span.Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
		File:   l.filename,
		Source: l.source,
	}
}

// makeSpan returns a span from start to current position.
func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

// skipWhitespace skips spaces, tabs, newlines, and comments. Statements are
// separated by semicolons, so newlines carry no meaning.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) && l.err == nil {
		ch := l.source[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance()
		} else if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '/' {
			l.skipLineComment()
		} else if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '*' {
			l.skipBlockComment()
		} else {
			break
		}
	}
}

// skipLineComment skips from // to end of line.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.source) && l.source[l.pos] != '\n' {
		l.advance()
	}
}

// skipBlockComment skips from /* to the matching */. Hitting EOF first is
// an error.
func (l *Lexer) skipBlockComment() {
	start := l.curPos()
	l.advance()
	l.advance()
	for l.pos < len(l.source) {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
	l.fail(diag.IllegalCharacter, l.makeSpan(start), "Unterminated block comment")
}

// fail records the first error; later errors are ignored.
func (l *Lexer) fail(kind diag.Kind, s span.Span, format string, args ...interface{}) token.Token {
	if l.err == nil {
		l.err = diag.New(kind, l.filename, l.source, s, format, args...)
	}
	return token.Token{Kind: token.ILLEGAL, Span: s}
}

// ---- token reading ----

func (l *Lexer) nextToken() token.Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}

	l.skipWhitespace()
	if l.err != nil {
		return token.Token{Kind: token.ILLEGAL, Span: l.makeSpan(l.curPos())}
	}

	if l.pos >= len(l.source) {
		return token.Token{Kind: token.EOF, Lexeme: "", Span: l.makeSpan(l.curPos())}
	}

	start := l.curPos()
	ch := l.peek()

	// String literal (single or double quoted)
	if ch == '"' || ch == '\'' {
		return l.readString(start)
	}

	// Number literal
	if isDigit(ch) {
		return l.readNumber(start)
	}

	// Identifier or keyword
	if isIdentStart(ch) {
		return l.readIdentifier(start)
	}

	// Operators and delimiters
	return l.readOperator(start)
}

// readString reads a string literal. The closing quote must match the
// opening one; the literal may span multiple lines.
func (l *Lexer) readString(start span.Position) token.Token {
	quote := l.advance()
	var value []byte

	for l.pos < len(l.source) {
		ch := l.peek()
		if ch == quote {
			l.advance()
			return token.Token{
				Kind:   token.STRING,
				Lexeme: string(value),
				Span:   l.makeSpan(start),
			}
		}
		if ch == '\\' {
			l.advance()
			if l.pos >= len(l.source) {
				break
			}
			esc := l.advance()
			switch esc {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case 'r':
				value = append(value, '\r')
			case '"':
				value = append(value, '"')
			case '\'':
				value = append(value, '\'')
			case '\\':
				value = append(value, '\\')
			default:
				// Unknown escapes keep the literal character.
				value = append(value, esc)
			}
			continue
		}
		value = append(value, ch)
		l.advance()
	}

	return l.fail(diag.UnterminatedString, l.makeSpan(start), "Unterminated string literal")
}

// readNumber reads an integer or float literal. At most one decimal point
// is consumed; a second dot ends the token.
func (l *Lexer) readNumber(start span.Position) token.Token {
	numStart := l.pos
	sawDot := false

	for l.pos < len(l.source) {
		ch := l.peek()
		if isDigit(ch) {
			l.advance()
			continue
		}
		if ch == '.' && !sawDot {
			sawDot = true
			l.advance()
			continue
		}
		break
	}

	lexeme := l.source[numStart:l.pos]
	kind := token.INT
	if sawDot {
		kind = token.FLOAT
	}
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

// readIdentifier reads an identifier or keyword. An import keyword followed
// by a quoted path is handled here and never reaches the parser.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	identStart := l.pos

	for l.pos < len(l.source) && isIdentPart(l.peek()) {
		l.advance()
	}

	lexeme := l.source[identStart:l.pos]
	kind := token.LookupIdent(lexeme)
	tok := token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}

	if kind == token.KW_IMPORT {
		return l.handleImport(tok)
	}
	return tok
}

// readOperator reads an operator or delimiter token.
func (l *Lexer) readOperator(start span.Position) token.Token {
	ch := l.advance()

	switch ch {
	case '(':
		return token.Token{Kind: token.LPAREN, Lexeme: "(", Span: l.makeSpan(start)}
	case ')':
		return token.Token{Kind: token.RPAREN, Lexeme: ")", Span: l.makeSpan(start)}
	case '{':
		return token.Token{Kind: token.LBRACE, Lexeme: "{", Span: l.makeSpan(start)}
	case '}':
		return token.Token{Kind: token.RBRACE, Lexeme: "}", Span: l.makeSpan(start)}
	case ',':
		return token.Token{Kind: token.COMMA, Lexeme: ",", Span: l.makeSpan(start)}
	case '.':
		return token.Token{Kind: token.DOT, Lexeme: ".", Span: l.makeSpan(start)}
	case ';':
		return token.Token{Kind: token.SEMICOLON, Lexeme: ";", Span: l.makeSpan(start)}
	case '+':
		return token.Token{Kind: token.PLUS, Lexeme: "+", Span: l.makeSpan(start)}
	case '-':
		return token.Token{Kind: token.MINUS, Lexeme: "-", Span: l.makeSpan(start)}
	case '*':
		return token.Token{Kind: token.STAR, Lexeme: "*", Span: l.makeSpan(start)}
	case '/':
		return token.Token{Kind: token.SLASH, Lexeme: "/", Span: l.makeSpan(start)}
	case '%':
		return token.Token{Kind: token.PERCENT, Lexeme: "%", Span: l.makeSpan(start)}
	case '!':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.NEQ, Lexeme: "!=", Span: l.makeSpan(start)}
		}
		return l.fail(diag.IllegalCharacter, l.makeSpan(start), "'!' must be followed by '='")
	case '=':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.EQ, Lexeme: "==", Span: l.makeSpan(start)}
		}
		return token.Token{Kind: token.ASSIGN, Lexeme: "=", Span: l.makeSpan(start)}
	case '<':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.LTE, Lexeme: "<=", Span: l.makeSpan(start)}
		}
		return token.Token{Kind: token.LT, Lexeme: "<", Span: l.makeSpan(start)}
	case '>':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.GTE, Lexeme: ">=", Span: l.makeSpan(start)}
		}
		return token.Token{Kind: token.GT, Lexeme: ">", Span: l.makeSpan(start)}
	default:
		return l.fail(diag.IllegalCharacter, l.makeSpan(start), "Illegal character: '%c'", ch)
	}
}

// ---- import splicing ----

// handleImport decides between the two import forms. A quoted path is
// resolved, lexed, and its tokens spliced into this stream; an identifier
// means the module-loader form and the keyword token passes through.
func (l *Lexer) handleImport(importTok token.Token) token.Token {
	l.skipWhitespace()

	ch := l.peek()
	if isIdentStart(ch) {
		return importTok
	}
	if ch != '"' && ch != '\'' {
		l.fail(diag.ExpectedCharacter, importTok.Span, "Expected string literal after import")
		return importTok
	}

	start := l.curPos()
	pathTok := l.readString(start)
	if l.err != nil {
		return importTok
	}

	resolved, ok := l.resolveImport(pathTok.Lexeme)
	if !ok {
		l.fail(diag.ImportError, pathTok.Span, "File '%s' not found", pathTok.Lexeme)
		return importTok
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		l.fail(diag.ImportError, pathTok.Span, "File '%s' not found", pathTok.Lexeme)
		return importTok
	}

	// Recursively lex the imported file. There is no cycle detection; a
	// self-importing file recurses until the stack runs out.
	sub := New(string(data), resolved)
	sub.SetStdlibDir(l.stdlib)
	tokens, subErr := sub.Tokenize()
	if subErr != nil {
		l.err = subErr
		return importTok
	}

	// Splice everything except the trailing EOF.
	if len(tokens) > 0 && tokens[len(tokens)-1].Kind == token.EOF {
		tokens = tokens[:len(tokens)-1]
	}
	l.pending = append(l.pending, tokens...)
	return l.nextToken()
}

// resolveImport searches for a quoted import path: absolute, relative to
// the importing file, the stdlib root, then the working directory. Each
// non-absolute candidate is also tried with a .xor suffix.
func (l *Lexer) resolveImport(path string) (string, bool) {
	if filepath.IsAbs(path) {
		if fileExists(path) {
			return path, true
		}
		return "", false
	}

	var roots []string
	if l.filename != "" {
		roots = append(roots, filepath.Dir(l.filename))
	}
	if l.stdlib != "" {
		roots = append(roots, l.stdlib)
	}
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}

	for _, root := range roots {
		candidate := filepath.Join(root, path)
		if fileExists(candidate) {
			return candidate, true
		}
		if filepath.Ext(candidate) != ".xor" && fileExists(candidate+".xor") {
			return candidate + ".xor", true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
