// Package parser implements syntax analysis for xorlang.
// It uses Pratt parsing for expressions and recursive descent for statements.
package parser

import (
	"github.com/Mr-Ali-Jafari/xorlang/internal/ast"
	"github.com/Mr-Ali-Jafari/xorlang/internal/diag"
	"github.com/Mr-Ali-Jafari/xorlang/internal/span"
	"github.com/Mr-Ali-Jafari/xorlang/internal/token"
	"strconv"
)

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone       = 0
	bpEquality   = 10 // == !=
	bpComparison = 20 // < <= > >=
	bpAdditive   = 30 // + -
	bpMultiply   = 40 // * / %
	bpPrefix     = 50 // unary + -
	bpPostfix    = 60 // () .
)

// infixBP returns the left binding power for an infix/postfix operator.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.EQ, token.NEQ:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return bpMultiply
	case token.LPAREN, token.DOT:
		return bpPostfix
	default:
		return bpNone
	}
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens. Parsing stops at
// the first failure; when several candidate failures exist, the one that
// consumed the most tokens wins (ties keep the earliest recorded).
type Parser struct {
	tokens   []token.Token
	pos      int
	filename string
	source   string

	err    *diag.Error
	errPos int
}

// New creates a new parser. The filename and source are carried into
// syntax errors so they can render the offending line.
func New(tokens []token.Token, filename, source string) *Parser {
	return &Parser{tokens: tokens, filename: filename, source: source, errPos: -1}
}

// Parse parses the whole token stream into a top-level block, or returns
// the winning syntax error.
func (p *Parser) Parse() (*ast.BlockStmt, *diag.Error) {
	block := &ast.BlockStmt{}
	startPos := p.peek().Span.Start

	p.skipSep()
	for !p.isAtEnd() {
		node := p.parseStmt()
		if node == nil {
			return nil, p.takeErr()
		}
		block.Stmts = append(block.Stmts, node)
		if !p.isAtEnd() && !p.check(token.RBRACE) {
			if !p.check(token.SEMICOLON) {
				p.fail(p.peek(), "Expected ';' after statement")
				return nil, p.takeErr()
			}
			p.skipSep()
		}
	}

	endPos := p.peek().Span.End
	block.Span = span.Span{Start: startPos, End: endPos}
	return block, nil
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	tok := p.peek()
	p.fail(tok, "Expected '%s'", kind)
	return tok, false
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// skipSep skips semicolon separators.
func (p *Parser) skipSep() {
	for p.check(token.SEMICOLON) {
		p.advance()
	}
}

// fail records a candidate error anchored at a token. A later failure
// replaces an earlier one only when it consumed strictly more tokens.
func (p *Parser) fail(tok token.Token, format string, args ...interface{}) {
	p.failAt(tok.Span, format, args...)
}

// failAt records a candidate error anchored at an arbitrary span, for
// errors that point at an already-parsed node rather than a token.
func (p *Parser) failAt(s span.Span, format string, args ...interface{}) {
	if p.err == nil || p.pos > p.errPos {
		p.err = diag.New(diag.SyntaxError, p.filename, p.source, s, format, args...)
		p.errPos = p.pos
	}
}

// takeErr returns the recorded error, inventing one only if parsing failed
// without recording (which should not happen).
func (p *Parser) takeErr() *diag.Error {
	if p.err == nil {
		p.fail(p.peek(), "Unexpected token '%s'", p.peek().Kind)
	}
	return p.err
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peekKind() {
	case token.KW_VAR:
		if s := p.parseVarDecl(); s != nil {
			return s
		}
	case token.KW_IF:
		if s := p.parseIfStmt(); s != nil {
			return s
		}
	case token.KW_WHILE:
		if s := p.parseWhileStmt(); s != nil {
			return s
		}
	case token.KW_FOR:
		if s := p.parseForStmt(); s != nil {
			return s
		}
	case token.KW_FUNC:
		if s := p.parseFuncDecl(); s != nil {
			return s
		}
	case token.KW_CLASS:
		if s := p.parseClassDecl(); s != nil {
			return s
		}
	case token.KW_RETURN:
		if s := p.parseReturnStmt(); s != nil {
			return s
		}
	case token.KW_BREAK:
		start := p.advance()
		return &ast.BreakStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd())}
	case token.KW_CONTINUE:
		start := p.advance()
		return &ast.ContinueStmt{StmtBase: makeStmtBase(start.Span.Start, p.prevEnd())}
	case token.LBRACE:
		if s := p.parseBlock(); s != nil {
			return s
		}
	default:
		if s := p.parseExprStmt(); s != nil {
			return s
		}
	}
	return nil
}

// parseVarDecl parses: var IDENT [ = expr ]
func (p *Parser) parseVarDecl() *ast.VarDeclStmt {
	start := p.advance() // consume 'var'
	stmt := &ast.VarDeclStmt{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		return nil
	}
	stmt.Name = nameTok.Lexeme

	if p.check(token.ASSIGN) {
		p.advance()
		stmt.Init = p.parseExpr(bpNone)
		if stmt.Init == nil {
			return nil
		}
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseIfStmt parses: if (expr) block { elif (expr) block } [ else block ].
// Parentheses and braces are mandatory.
func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.advance() // consume 'if'
	stmt := &ast.IfStmt{}

	if _, ok := p.expect(token.LPAREN); !ok {
		return nil
	}
	stmt.Condition = p.parseExpr(bpNone)
	if stmt.Condition == nil {
		return nil
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil
	}
	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}

	for p.check(token.KW_ELIF) {
		elifStart := p.advance()
		clause := ast.ElifClause{}
		if _, ok := p.expect(token.LPAREN); !ok {
			return nil
		}
		clause.Condition = p.parseExpr(bpNone)
		if clause.Condition == nil {
			return nil
		}
		if _, ok := p.expect(token.RPAREN); !ok {
			return nil
		}
		clause.Body = p.parseBlock()
		if clause.Body == nil {
			return nil
		}
		clause.Span = p.makeSpan(elifStart.Span.Start)
		stmt.Elifs = append(stmt.Elifs, clause)
	}

	if p.check(token.KW_ELSE) {
		p.advance()
		stmt.ElseBody = p.parseBlock()
		if stmt.ElseBody == nil {
			return nil
		}
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseWhileStmt parses: while (expr) block
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.advance() // consume 'while'
	stmt := &ast.WhileStmt{}

	if _, ok := p.expect(token.LPAREN); !ok {
		return nil
	}
	stmt.Condition = p.parseExpr(bpNone)
	if stmt.Condition == nil {
		return nil
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil
	}
	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseForStmt parses: for ( [init]; [cond]; [update] ) block.
// Every clause may be omitted.
func (p *Parser) parseForStmt() *ast.ForStmt {
	start := p.advance() // consume 'for'
	stmt := &ast.ForStmt{}

	if _, ok := p.expect(token.LPAREN); !ok {
		return nil
	}

	if !p.check(token.SEMICOLON) {
		if p.check(token.KW_VAR) {
			init := p.parseVarDecl()
			if init == nil {
				return nil
			}
			stmt.Init = init
		} else {
			init := p.parseExprStmt()
			if init == nil {
				return nil
			}
			stmt.Init = init
		}
	}
	if _, ok := p.expect(token.SEMICOLON); !ok {
		return nil
	}

	if !p.check(token.SEMICOLON) {
		stmt.Condition = p.parseExpr(bpNone)
		if stmt.Condition == nil {
			return nil
		}
	}
	if _, ok := p.expect(token.SEMICOLON); !ok {
		return nil
	}

	if !p.check(token.RPAREN) {
		update := p.parseExprStmt()
		if update == nil {
			return nil
		}
		stmt.Update = update
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil
	}

	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	stmt.StmtBase = makeStmtBase(start.Span.Start, p.prevEnd())
	return stmt
}

// parseReturnStmt parses: return [expr]
func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.advance() // consume 'return'
	stmt := &ast.ReturnStmt{}

	if !p.match(token.SEMICOLON, token.RBRACE, token.EOF) {
		stmt.Value = p.parseExpr(bpNone)
		if stmt.Value == nil {
			return nil
		}
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseExprStmt parses an expression used as a statement.
func (p *Parser) parseExprStmt() *ast.ExprStmt {
	expr := p.parseExpr(bpNone)
	if expr == nil {
		p.fail(p.peek(), "Unexpected token '%s'", p.peek().Lexeme)
		return nil
	}
	return &ast.ExprStmt{
		StmtBase: makeStmtBase(expr.GetSpan().Start, expr.GetSpan().End),
		Expr:     expr,
	}
}

// parseBlock parses: { stmts }
func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.peek()
	block := &ast.BlockStmt{}

	if _, ok := p.expect(token.LBRACE); !ok {
		return nil
	}

	p.skipSep()
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		node := p.parseStmt()
		if node == nil {
			return nil
		}
		block.Stmts = append(block.Stmts, node)
		if !p.check(token.RBRACE) {
			if !p.check(token.SEMICOLON) {
				p.fail(p.peek(), "Expected ';' after statement")
				return nil
			}
			p.skipSep()
		}
	}

	if _, ok := p.expect(token.RBRACE); !ok {
		return nil
	}
	block.Span = p.makeSpan(start.Span.Start)
	return block
}

// ============================================================
// Declaration parsing
// ============================================================

// parseFuncDecl parses: func [IDENT] ( params ) block.
// The name is optional; anonymous definitions evaluate to the function.
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.advance() // consume 'func'
	decl := &ast.FuncDecl{}

	if p.check(token.IDENT) {
		decl.Name = p.advance().Lexeme
	}

	params, ok := p.parseParamList()
	if !ok {
		return nil
	}
	decl.Params = params
	decl.Body = p.parseBlock()
	if decl.Body == nil {
		return nil
	}
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseClassDecl parses: class IDENT { func members }
func (p *Parser) parseClassDecl() *ast.ClassDecl {
	start := p.advance() // consume 'class'
	decl := &ast.ClassDecl{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		return nil
	}
	decl.Name = nameTok.Lexeme

	if _, ok := p.expect(token.LBRACE); !ok {
		return nil
	}

	p.skipSep()
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if !p.check(token.KW_FUNC) {
			p.fail(p.peek(), "Expected 'func' member or '}' in class definition")
			return nil
		}
		member := p.parseFuncDecl()
		if member == nil {
			return nil
		}
		if member.Name == "" {
			p.fail(p.peek(), "Expected 'func' member or '}' in class definition")
			return nil
		}
		decl.Members = append(decl.Members, member)
		p.skipSep()
	}

	if _, ok := p.expect(token.RBRACE); !ok {
		return nil
	}
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseParamList parses: ( ident, ident, ... )
func (p *Parser) parseParamList() ([]string, bool) {
	var params []string

	if _, ok := p.expect(token.LPAREN); !ok {
		return nil, false
	}

	if !p.check(token.RPAREN) {
		nameTok, ok := p.expect(token.IDENT)
		if !ok {
			return nil, false
		}
		params = append(params, nameTok.Lexeme)
		for p.check(token.COMMA) {
			p.advance() // consume ','
			nameTok, ok = p.expect(token.IDENT)
			if !ok {
				return nil, false
			}
			params = append(params, nameTok.Lexeme)
		}
	}

	if _, ok := p.expect(token.RPAREN); !ok {
		return nil, false
	}
	return params, true
}

// ============================================================
// Expression parsing (Pratt / precedence climbing)
// ============================================================

// parseExpr parses an expression with the given minimum binding power.
// At the outermost level it also handles assignment, which is
// right-associative and restricted to identifier or member targets.
func (p *Parser) parseExpr(minBP int) ast.Expr {
	left := p.nud()
	if left == nil {
		return nil
	}

	for {
		kind := p.peekKind()
		bp := infixBP(kind)
		if bp <= minBP {
			break
		}
		left = p.led(left)
		if left == nil {
			return nil
		}
	}

	if minBP == bpNone && p.check(token.ASSIGN) {
		p.advance() // consume '='
		switch left.(type) {
		case *ast.IdentExpr, *ast.MemberExpr:
		default:
			// The offending operand is the error position, not the '='.
			p.failAt(left.GetSpan(), "Invalid assignment target")
			return nil
		}
		value := p.parseExpr(bpNone)
		if value == nil {
			return nil
		}
		return &ast.AssignExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, value.GetSpan().End),
			Target:   left,
			Value:    value,
		}
	}

	return left
}

// nud handles prefix (null denotation) parsing.
func (p *Parser) nud() ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.INT:
		p.advance()
		val, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
		return &ast.IntLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    val,
		}

	case token.FLOAT:
		p.advance()
		val, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.FloatLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    val,
		}

	case token.STRING:
		p.advance()
		return &ast.StringLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    tok.Lexeme,
		}

	case token.KW_TRUE:
		p.advance()
		return &ast.BoolLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    true,
		}

	case token.KW_FALSE:
		p.advance()
		return &ast.BoolLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    false,
		}

	case token.KW_NULL:
		p.advance()
		return &ast.NullLiteral{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
		}

	case token.KW_THIS:
		p.advance()
		return &ast.ThisExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
		}

	case token.IDENT:
		p.advance()
		return &ast.IdentExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Name:     tok.Lexeme,
		}

	case token.LPAREN:
		p.advance() // consume '('
		expr := p.parseExpr(bpNone)
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(token.RPAREN); !ok {
			return nil
		}
		return expr

	case token.PLUS, token.MINUS:
		p.advance()
		operand := p.parseExpr(bpPrefix)
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       tok.Kind,
			Operand:  operand,
		}

	case token.KW_NEW:
		return p.parseNewExpr()

	case token.KW_IMPORT:
		p.advance()
		nameTok, ok := p.expect(token.IDENT)
		if !ok {
			return nil
		}
		return &ast.ImportExpr{
			ExprBase: makeExprBase(tok.Span.Start, nameTok.Span.End),
			Module:   nameTok.Lexeme,
		}

	default:
		p.fail(tok, "Unexpected token '%s'", tok.Kind)
		return nil
	}
}

// led handles infix/postfix (left denotation) parsing.
func (p *Parser) led(left ast.Expr) ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE:
		// Binary infix operator (left-associative)
		bp := infixBP(tok.Kind)
		p.advance()
		right := p.parseExpr(bp)
		if right == nil {
			return nil
		}
		return &ast.BinaryExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       tok.Kind,
			Left:     left,
			Right:    right,
		}

	case token.LPAREN:
		if call := p.parseCallExpr(left); call != nil {
			return call
		}
		return nil

	case token.DOT:
		p.advance() // consume '.'
		propTok, ok := p.expect(token.IDENT)
		if !ok {
			return nil
		}
		return &ast.MemberExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, propTok.Span.End),
			Object:   left,
			Property: propTok.Lexeme,
		}

	default:
		return left
	}
}

// parseCallExpr parses: callee ( args )
func (p *Parser) parseCallExpr(callee ast.Expr) *ast.CallExpr {
	p.advance() // consume '('
	args, end, ok := p.parseArgList()
	if !ok {
		return nil
	}

	return &ast.CallExpr{
		ExprBase: makeExprBase(callee.GetSpan().Start, end.Span.End),
		Callee:   callee,
		Args:     args,
	}
}

// parseNewExpr parses: new ClassName(args)
func (p *Parser) parseNewExpr() ast.Expr {
	start := p.advance() // consume 'new'

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		return nil
	}

	if _, ok := p.expect(token.LPAREN); !ok {
		return nil
	}
	args, _, ok := p.parseArgList()
	if !ok {
		return nil
	}

	return &ast.NewExpr{
		ExprBase:  makeExprBase(start.Span.Start, p.prevEnd()),
		ClassName: nameTok.Lexeme,
		Args:      args,
	}
}

// parseArgList parses the argument list after a consumed '(' and returns
// the closing paren token.
func (p *Parser) parseArgList() ([]ast.Expr, token.Token, bool) {
	var args []ast.Expr

	if !p.check(token.RPAREN) {
		arg := p.parseExpr(bpNone)
		if arg == nil {
			return nil, token.Token{}, false
		}
		args = append(args, arg)
		for p.check(token.COMMA) {
			p.advance() // consume ','
			arg = p.parseExpr(bpNone)
			if arg == nil {
				return nil, token.Token{}, false
			}
			args = append(args, arg)
		}
	}
	end, ok := p.expect(token.RPAREN)
	if !ok {
		return nil, token.Token{}, false
	}
	return args, end, true
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
