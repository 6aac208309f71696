package lexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mr-Ali-Jafari/xorlang/internal/diag"
	"github.com/Mr-Ali-Jafari/xorlang/internal/token"
)

func tokenKinds(t *testing.T, source string) []token.Kind {
	t.Helper()
	l := New(source, "test.xor")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kinds := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	return kinds
}

func expectKinds(t *testing.T, got, expected []token.Kind) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(got))
	}
	for i, exp := range expected {
		if got[i] != exp {
			t.Errorf("token[%d]: expected %s, got %s", i, exp, got[i])
		}
	}
}

func TestTokenizeSimple(t *testing.T) {
	kinds := tokenKinds(t, `var x = 1 + 2;`)
	expectKinds(t, kinds, []token.Kind{
		token.KW_VAR, token.IDENT, token.ASSIGN,
		token.INT, token.PLUS, token.INT, token.SEMICOLON, token.EOF,
	})
}

func TestTokenizeKeywords(t *testing.T) {
	source := `var func return if elif else while for break continue true false null import class new this`
	kinds := tokenKinds(t, source)
	expectKinds(t, kinds, []token.Kind{
		token.KW_VAR, token.KW_FUNC, token.KW_RETURN,
		token.KW_IF, token.KW_ELIF, token.KW_ELSE,
		token.KW_WHILE, token.KW_FOR, token.KW_BREAK, token.KW_CONTINUE,
		token.KW_TRUE, token.KW_FALSE, token.KW_NULL,
		token.KW_IMPORT, token.KW_CLASS, token.KW_NEW, token.KW_THIS,
		token.EOF,
	})
}

func TestTokenizeOperators(t *testing.T) {
	kinds := tokenKinds(t, `= == != < <= > >= + - * / %`)
	expectKinds(t, kinds, []token.Kind{
		token.ASSIGN, token.EQ, token.NEQ,
		token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EOF,
	})
}

func TestTokenizeDelimiters(t *testing.T) {
	kinds := tokenKinds(t, `( ) { } , . ;`)
	expectKinds(t, kinds, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.COMMA, token.DOT, token.SEMICOLON,
		token.EOF,
	})
}

func TestTokenizeStrings(t *testing.T) {
	l := New(`"hello" 'single' "line1\nline2" "a\qb"`, "test.xor")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"hello", "single", "line1\nline2", "aqb"}
	for i, exp := range expected {
		if tokens[i].Kind != token.STRING {
			t.Errorf("token[%d]: expected STRING, got %s", i, tokens[i].Kind)
		}
		if tokens[i].Lexeme != exp {
			t.Errorf("token[%d]: expected %q, got %q", i, exp, tokens[i].Lexeme)
		}
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	l := New(`"never closed`, "test.xor")
	_, err := l.Tokenize()
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Kind != diag.UnterminatedString {
		t.Errorf("expected UnterminatedString, got %s", err.Kind)
	}
}

func TestTokenizeNumbers(t *testing.T) {
	l := New(`123 3.14 0 7.`, "test.xor")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tokens[0].Kind != token.INT || tokens[0].Lexeme != "123" {
		t.Errorf("token[0]: expected INT '123', got %s %q", tokens[0].Kind, tokens[0].Lexeme)
	}
	if tokens[1].Kind != token.FLOAT || tokens[1].Lexeme != "3.14" {
		t.Errorf("token[1]: expected FLOAT '3.14', got %s %q", tokens[1].Kind, tokens[1].Lexeme)
	}
	if tokens[3].Kind != token.FLOAT || tokens[3].Lexeme != "7." {
		t.Errorf("token[3]: expected FLOAT '7.', got %s %q", tokens[3].Kind, tokens[3].Lexeme)
	}
}

func TestTokenizeSecondDotEndsNumber(t *testing.T) {
	kinds := tokenKinds(t, `1.2.3`)
	expectKinds(t, kinds, []token.Kind{
		token.FLOAT, token.DOT, token.INT, token.EOF,
	})
}

func TestTokenizeNewlinesAreWhitespace(t *testing.T) {
	kinds := tokenKinds(t, "a\nb\n")
	expectKinds(t, kinds, []token.Kind{token.IDENT, token.IDENT, token.EOF})
}

func TestTokenizeComments(t *testing.T) {
	kinds := tokenKinds(t, "x // line comment\ny /* block\ncomment */ z")
	expectKinds(t, kinds, []token.Kind{
		token.IDENT, token.IDENT, token.IDENT, token.EOF,
	})
}

func TestTokenizeUnterminatedBlockComment(t *testing.T) {
	l := New("x /* never closed", "test.xor")
	_, err := l.Tokenize()
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Kind != diag.IllegalCharacter {
		t.Errorf("expected IllegalCharacter, got %s", err.Kind)
	}
	if err.Message != "Unterminated block comment" {
		t.Errorf("unexpected message: %q", err.Message)
	}
}

func TestTokenizeBareBang(t *testing.T) {
	l := New(`!x`, "test.xor")
	_, err := l.Tokenize()
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Kind != diag.IllegalCharacter {
		t.Errorf("expected IllegalCharacter, got %s", err.Kind)
	}
}

func TestTokenizeIllegalCharacter(t *testing.T) {
	l := New(`var x = @`, "test.xor")
	_, err := l.Tokenize()
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Kind != diag.IllegalCharacter {
		t.Errorf("expected IllegalCharacter, got %s", err.Kind)
	}
	if err.Message != "Illegal character: '@'" {
		t.Errorf("unexpected message: %q", err.Message)
	}
}

func TestTokenizePositions(t *testing.T) {
	l := New("var x = 1", "test.xor")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// "var" starts at line 1, col 1
	if tokens[0].Span.Start.Line != 1 || tokens[0].Span.Start.Column != 1 {
		t.Errorf("'var' position: expected 1:1, got %d:%d", tokens[0].Span.Start.Line, tokens[0].Span.Start.Column)
	}
	// "x" starts at line 1, col 5
	if tokens[1].Span.Start.Line != 1 || tokens[1].Span.Start.Column != 5 {
		t.Errorf("'x' position: expected 1:5, got %d:%d", tokens[1].Span.Start.Line, tokens[1].Span.Start.Column)
	}
}

func TestImportSplicing(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "lib.xor")
	if err := os.WriteFile(libPath, []byte("var shared = 42;"), 0o644); err != nil {
		t.Fatal(err)
	}

	mainPath := filepath.Join(dir, "main.xor")
	source := `import "lib"; var x = shared;`
	l := New(source, mainPath)
	tokens, lexErr := l.Tokenize()
	if lexErr != nil {
		t.Fatalf("unexpected error: %v", lexErr)
	}

	kinds := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	expectKinds(t, kinds, []token.Kind{
		// spliced from lib.xor
		token.KW_VAR, token.IDENT, token.ASSIGN, token.INT, token.SEMICOLON,
		// remainder of main
		token.SEMICOLON, token.KW_VAR, token.IDENT, token.ASSIGN, token.IDENT, token.SEMICOLON,
		token.EOF,
	})
}

func TestImportMissingFile(t *testing.T) {
	l := New(`import "no/such/file";`, filepath.Join(t.TempDir(), "main.xor"))
	_, err := l.Tokenize()
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Kind != diag.ImportError {
		t.Errorf("expected ImportError, got %s", err.Kind)
	}
}

func TestImportIdentifierPassesThrough(t *testing.T) {
	kinds := tokenKinds(t, `var m = import mymod;`)
	expectKinds(t, kinds, []token.Kind{
		token.KW_VAR, token.IDENT, token.ASSIGN,
		token.KW_IMPORT, token.IDENT, token.SEMICOLON,
		token.EOF,
	})
}

func TestImportStdlibResolution(t *testing.T) {
	stdlibDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(stdlibDir, "util.xor"), []byte("var u = 1;"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New(`import "util";`, filepath.Join(t.TempDir(), "main.xor"))
	l.SetStdlibDir(stdlibDir)
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].Kind != token.KW_VAR || tokens[1].Lexeme != "u" {
		t.Errorf("expected spliced stdlib tokens, got %s %q", tokens[0].Kind, tokens[1].Lexeme)
	}
}
